package core

import (
	"math"
	"testing"
)

func TestUVSphereGeometry(t *testing.T) {
	radius := float32(2.0)
	rings, sectors := 8, 12
	m := NewUVSphere(radius, rings, sectors)

	wantVerts := (rings + 1) * (sectors + 1)
	if len(m.Vertices) != wantVerts {
		t.Errorf("Expected %d vertices, got %d", wantVerts, len(m.Vertices))
	}
	wantIndices := rings * sectors * 6
	if len(m.Indices) != wantIndices {
		t.Errorf("Expected %d indices, got %d", wantIndices, len(m.Indices))
	}

	for i, v := range m.Vertices {
		r := vecLen(v.Position)
		if !closeEnough(r, radius, 0.001) {
			t.Fatalf("Vertex %d should sit on the sphere surface, |p| = %f", i, r)
		}
		n := vecLen(v.Normal)
		if !closeEnough(n, 1.0, 0.001) {
			t.Fatalf("Vertex %d normal should be unit length, got %f", i, n)
		}
		if v.UV[0] < 0 || v.UV[0] > 1 || v.UV[1] < 0 || v.UV[1] > 1 {
			t.Fatalf("Vertex %d UV out of range: %v", i, v.UV)
		}
	}

	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			t.Fatalf("Index %d out of range: %d >= %d", i, idx, len(m.Vertices))
		}
	}
}

func TestUVSphereWindingIsOutward(t *testing.T) {
	m := NewUVSphere(1, 6, 8)
	checkOutwardWinding(t, m)
}

func TestCubeGeometry(t *testing.T) {
	m := NewCube(2)

	if len(m.Vertices) != 24 {
		t.Errorf("Expected 24 vertices, got %d", len(m.Vertices))
	}
	if len(m.Indices) != 36 {
		t.Errorf("Expected 36 indices, got %d", len(m.Indices))
	}

	for i, v := range m.Vertices {
		// Each corner sits on the cube surface, each normal is axis-aligned unit.
		if !closeEnough(maxAbsComponent(v.Position), 1.0, 0.001) {
			t.Errorf("Vertex %d should touch a face plane: %v", i, v.Position)
		}
		if !closeEnough(vecLen(v.Normal), 1.0, 0.001) {
			t.Errorf("Vertex %d normal should be unit length: %v", i, v.Normal)
		}
	}

	checkOutwardWinding(t, m)
}

func TestPlaneFacesUp(t *testing.T) {
	m := NewPlane(10)

	if len(m.Indices) != 6 {
		t.Fatalf("Expected 6 indices, got %d", len(m.Indices))
	}
	for i := 0; i < len(m.Indices); i += 3 {
		n := triangleNormal(m, i)
		if n[1] <= 0 {
			t.Errorf("Triangle %d should wind counter-clockwise seen from +Y, normal %v", i/3, n)
		}
	}
}

// checkOutwardWinding verifies every non-degenerate triangle winds
// counter-clockwise as seen from outside the mesh (geometric normal
// points away from the origin).
func checkOutwardWinding(t *testing.T, m *Mesh) {
	t.Helper()

	degenerate := 0
	for i := 0; i < len(m.Indices); i += 3 {
		n := triangleNormal(m, i)
		if vecLen(n) < 1e-7 {
			degenerate++
			continue
		}

		a := m.Vertices[m.Indices[i]].Position
		b := m.Vertices[m.Indices[i+1]].Position
		c := m.Vertices[m.Indices[i+2]].Position
		centroid := [3]float32{(a[0] + b[0] + c[0]) / 3, (a[1] + b[1] + c[1]) / 3, (a[2] + b[2] + c[2]) / 3}

		dot := n[0]*centroid[0] + n[1]*centroid[1] + n[2]*centroid[2]
		if dot <= 0 {
			t.Fatalf("Triangle %d winds inward (dot %f)", i/3, dot)
		}
	}

	if degenerate > len(m.Indices)/3/2 {
		t.Errorf("Too many degenerate triangles: %d of %d", degenerate, len(m.Indices)/3)
	}
}

func triangleNormal(m *Mesh, firstIndex int) [3]float32 {
	a := m.Vertices[m.Indices[firstIndex]].Position
	b := m.Vertices[m.Indices[firstIndex+1]].Position
	c := m.Vertices[m.Indices[firstIndex+2]].Position

	e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}

	return [3]float32{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
}

func vecLen(v [3]float32) float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}

func maxAbsComponent(v [3]float32) float32 {
	m := float32(0)
	for _, c := range v {
		if c < 0 {
			c = -c
		}
		if c > m {
			m = c
		}
	}
	return m
}
