package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights bounds the light count so per-light uniform slots can be
// allocated once at startup.
const MaxLights = 64

type PointLight struct {
	Position mgl32.Vec3
	Radius   float32
	Color    mgl32.Vec3
}

// LightSet is an ordered collection of point lights. Insertion order is
// draw order.
type LightSet struct {
	lights []PointLight
}

func NewLightSet() *LightSet {
	return &LightSet{}
}

func (s *LightSet) Add(l PointLight) error {
	if len(s.lights) >= MaxLights {
		return fmt.Errorf("light set is full (max %d lights)", MaxLights)
	}
	if err := validateLight(l); err != nil {
		return err
	}
	s.lights = append(s.lights, l)
	return nil
}

func (s *LightSet) Len() int {
	return len(s.lights)
}

func (s *LightSet) At(i int) *PointLight {
	return &s.lights[i]
}

func (s *LightSet) Lights() []PointLight {
	return s.lights
}

// VolumeTransform places a unit sphere at the light position, scaled to
// the light radius, so it covers the light's region of influence.
func (s *LightSet) VolumeTransform(i int) mgl32.Mat4 {
	l := &s.lights[i]
	return mgl32.Translate3D(l.Position.X(), l.Position.Y(), l.Position.Z()).
		Mul4(mgl32.Scale3D(l.Radius, l.Radius, l.Radius))
}

func validateLight(l PointLight) error {
	for i := 0; i < 3; i++ {
		if !finite(l.Position[i]) {
			return fmt.Errorf("light position must be finite, got %v", l.Position)
		}
		if !finite(l.Color[i]) || l.Color[i] < 0 {
			return fmt.Errorf("light color must be finite and non-negative, got %v", l.Color)
		}
	}
	if !finite(l.Radius) || l.Radius < 0 {
		return fmt.Errorf("light radius must be finite and non-negative, got %v", l.Radius)
	}
	return nil
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
