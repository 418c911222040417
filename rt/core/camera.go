package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	FovDeg   float32
	Near     float32
	Far      float32
}

func NewCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 0, 2.5},
		LookAt:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovDeg:   60,
		Near:     0.1,
		Far:      100.0,
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.LookAt, c.Up)
}

func (c *Camera) ProjMatrix(aspect float32) mgl32.Mat4 {
	if aspect == 0 {
		aspect = 1.0
	}
	return clipZToZeroOne.Mul4(mgl32.Perspective(mgl32.DegToRad(c.FovDeg), aspect, c.Near, c.Far))
}

func (c *Camera) ViewProj(aspect float32) mgl32.Mat4 {
	return c.ProjMatrix(aspect).Mul4(c.ViewMatrix())
}

// mgl32.Perspective targets OpenGL clip space with z in [-1,1]; WebGPU
// expects z in [0,1]. Column-major: z' = 0.5*z + 0.5*w.
var clipZToZeroOne = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}
