package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSceneOrbitAdvancesLight(t *testing.T) {
	s := NewScene()
	err := s.AddLight(
		PointLight{Position: mgl32.Vec3{2, 0, 0}, Radius: 1, Color: mgl32.Vec3{1, 1, 1}},
		&Orbiting{Center: mgl32.Vec3{0, 0, 0}, Radius: 2, Speed: float32(math.Pi / 2)},
	)
	if err != nil {
		t.Fatal(err)
	}

	// Quarter turn: angle pi/2 puts the light at (0, 0, 2).
	s.Update(1.0)

	p := s.Lights.At(0).Position
	if !closeEnough(p.X(), 0, 0.001) || !closeEnough(p.Y(), 0, 0.001) || !closeEnough(p.Z(), 2, 0.001) {
		t.Errorf("Expected light at (0, 0, 2), got (%f, %f, %f)", p.X(), p.Y(), p.Z())
	}
}

func TestSceneStaticLightKeepsPosition(t *testing.T) {
	s := NewScene()
	if err := s.AddLight(PointLight{Position: mgl32.Vec3{1, 2, 3}, Radius: 1, Color: mgl32.Vec3{1, 1, 1}}, nil); err != nil {
		t.Fatal(err)
	}

	s.Update(1.0)

	p := s.Lights.At(0).Position
	if p != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("Static light moved to %v", p)
	}
}

func TestSceneSpinRotatesObject(t *testing.T) {
	s := NewScene()
	obj := &SceneObject{Name: "sphere", Mesh: NewUVSphere(1, 4, 4), SpinSpeed: float32(math.Pi)}
	s.AddObject(obj)

	// Half a second at pi rad/s is a 90 degree turn around Y:
	// (1,0,0) -> (0,0,-1).
	s.Update(0.5)

	p := obj.Transform.ObjectToWorld().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !closeEnough(p.X(), 0, 0.001) || !closeEnough(p.Z(), -1, 0.001) {
		t.Errorf("Expected (0, 0, -1), got (%f, %f, %f)", p.X(), p.Y(), p.Z())
	}
}

func TestSceneAddObjectDefaultsTransform(t *testing.T) {
	s := NewScene()
	s.AddObject(&SceneObject{Name: "plane", Mesh: NewPlane(1)})

	if s.Objects[0].Transform == nil {
		t.Fatal("AddObject should provide a default transform")
	}
}
