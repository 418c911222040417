package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type SceneObject struct {
	Name      string
	Mesh      *Mesh
	Albedo    *Texture
	Transform *Transform

	// SpinSpeed rotates the object around its Y axis, radians per second.
	SpinSpeed float32
	spinAngle float32
}

// Orbiting moves a light on a circle in the XZ plane around Center.
type Orbiting struct {
	Center mgl32.Vec3
	Radius float32
	Speed  float32
	Angle  float32
}

// Scene owns the drawable objects and the light set. LightOrbits runs
// parallel to the light set order; nil entries are static lights.
type Scene struct {
	Objects     []*SceneObject
	Lights      *LightSet
	LightOrbits []*Orbiting
}

func NewScene() *Scene {
	return &Scene{
		Lights: NewLightSet(),
	}
}

func (s *Scene) AddObject(obj *SceneObject) {
	if obj.Transform == nil {
		obj.Transform = NewTransform()
	}
	s.Objects = append(s.Objects, obj)
}

func (s *Scene) AddLight(l PointLight, orbit *Orbiting) error {
	if err := s.Lights.Add(l); err != nil {
		return err
	}
	s.LightOrbits = append(s.LightOrbits, orbit)
	return nil
}

// Update advances object spins and light orbits by dt seconds.
func (s *Scene) Update(dt float32) {
	for _, obj := range s.Objects {
		if obj.SpinSpeed == 0 {
			continue
		}
		obj.spinAngle += obj.SpinSpeed * dt
		obj.Transform.Rotation = mgl32.QuatRotate(obj.spinAngle, mgl32.Vec3{0, 1, 0})
	}

	for i, orbit := range s.LightOrbits {
		if orbit == nil || i >= s.Lights.Len() {
			continue
		}
		orbit.Angle += orbit.Speed * dt
		s.Lights.At(i).Position = mgl32.Vec3{
			orbit.Center.X() + orbit.Radius*float32(math.Cos(float64(orbit.Angle))),
			orbit.Center.Y(),
			orbit.Center.Z() + orbit.Radius*float32(math.Sin(float64(orbit.Angle))),
		}
	}
}
