package core

import (
	"math"
)

// Vertex matches the WGSL VertexInput of the geometry shaders.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// NewUVSphere builds a closed sphere around the origin with
// counter-clockwise front faces as seen from outside. The unit sphere
// (radius 1) doubles as the light volume mesh.
func NewUVSphere(radius float32, rings, sectors int) *Mesh {
	if rings < 3 {
		rings = 3
	}
	if sectors < 3 {
		sectors = 3
	}

	m := &Mesh{}

	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		y := float32(math.Cos(phi))
		ringRadius := float32(math.Sin(phi))

		for s := 0; s <= sectors; s++ {
			theta := 2.0 * math.Pi * float64(s) / float64(sectors)
			x := ringRadius * float32(math.Cos(theta))
			z := ringRadius * float32(math.Sin(theta))

			m.Vertices = append(m.Vertices, Vertex{
				Position: [3]float32{radius * x, radius * y, radius * z},
				Normal:   [3]float32{x, y, z},
				UV:       [2]float32{float32(s) / float32(sectors), float32(r) / float32(rings)},
			})
		}
	}

	// Quads between ring r and r+1. Pole quads degenerate to triangles
	// with zero area, which rasterize to nothing.
	for r := 0; r < rings; r++ {
		for s := 0; s < sectors; s++ {
			i0 := uint16(r*(sectors+1) + s)
			i1 := i0 + 1
			i2 := uint16((r+1)*(sectors+1) + s)
			i3 := i2 + 1

			m.Indices = append(m.Indices, i0, i1, i2)
			m.Indices = append(m.Indices, i1, i3, i2)
		}
	}

	return m
}

// NewCube builds an axis-aligned cube centered on the origin with one
// quad per face and per-face normals.
func NewCube(size float32) *Mesh {
	h := size / 2

	type face struct {
		normal  [3]float32
		corners [4][3]float32 // bottom-left, bottom-right, top-right, top-left seen from outside
	}

	faces := []face{
		{[3]float32{0, 0, 1}, [4][3]float32{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{h, -h, -h}, {-h, -h, -h}, {-h, h, -h}, {h, h, -h}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{h, -h, h}, {h, -h, -h}, {h, h, -h}, {h, h, h}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-h, -h, -h}, {-h, -h, h}, {-h, h, h}, {-h, h, -h}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-h, h, h}, {h, h, h}, {h, h, -h}, {-h, h, -h}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-h, -h, -h}, {h, -h, -h}, {h, -h, h}, {-h, -h, h}}},
	}

	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	m := &Mesh{}
	for _, f := range faces {
		base := uint16(len(m.Vertices))
		for i, c := range f.corners {
			m.Vertices = append(m.Vertices, Vertex{Position: c, Normal: f.normal, UV: uvs[i]})
		}
		m.Indices = append(m.Indices, base, base+1, base+2)
		m.Indices = append(m.Indices, base, base+2, base+3)
	}

	return m
}

// NewPlane builds a ground quad in the XZ plane at y=0, facing +Y.
func NewPlane(size float32) *Mesh {
	h := size / 2
	up := [3]float32{0, 1, 0}

	return &Mesh{
		Vertices: []Vertex{
			{Position: [3]float32{-h, 0, h}, Normal: up, UV: [2]float32{0, 1}},
			{Position: [3]float32{h, 0, h}, Normal: up, UV: [2]float32{1, 1}},
			{Position: [3]float32{h, 0, -h}, Normal: up, UV: [2]float32{1, 0}},
			{Position: [3]float32{-h, 0, -h}, Normal: up, UV: [2]float32{0, 0}},
		},
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}
}
