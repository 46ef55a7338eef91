package kernel

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Solid is a triangulated solid with one color per face.
// Vertices holds positions, Faces holds counter-clockwise (outward) index
// triples into Vertices and FaceColors holds one color per face once the
// solid has been colored.
//
// Solids are values: no stage mutates a Solid it did not create. Derived
// solids may share the backing arrays of their source.
type Solid struct {
	Vertices   []mgl64.Vec3
	Faces      [][3]uint32
	FaceColors []Color
}

// VertexCount returns the number of vertices.
func (s *Solid) VertexCount() int {
	return len(s.Vertices)
}

// TriangleCount returns the number of triangles.
func (s *Solid) TriangleCount() int {
	return len(s.Faces)
}

// IsEmpty returns true if the solid has no geometry.
func (s *Solid) IsEmpty() bool {
	return len(s.Vertices) == 0 || len(s.Faces) == 0
}

// WithColor returns a copy of s with c assigned to every face.
func (s *Solid) WithColor(c Color) *Solid {
	colors := make([]Color, len(s.Faces))
	for i := range colors {
		colors[i] = c
	}
	return &Solid{
		Vertices:   s.Vertices,
		Faces:      s.Faces,
		FaceColors: colors,
	}
}

// BoundingBox returns the axis-aligned bounding box of the vertices.
// An empty solid returns zero vectors.
func (s *Solid) BoundingBox() (min, max mgl64.Vec3) {
	if len(s.Vertices) == 0 {
		return min, max
	}
	min = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range s.Vertices {
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], v[i])
			max[i] = math.Max(max[i], v[i])
		}
	}
	return min, max
}

// Center returns the center of the bounding box.
func (s *Solid) Center() mgl64.Vec3 {
	min, max := s.BoundingBox()
	return min.Add(max).Mul(0.5)
}

// Near reports whether every component of a and b differs by less than
// eps. Unlike mgl64's relative comparison it treats values near zero the
// same as any other.
func Near(a, b mgl64.Vec3, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) >= eps {
			return false
		}
	}
	return true
}

// ApproxEqual reports whether s and o have the same topology and colors
// and vertices within eps of each other.
func (s *Solid) ApproxEqual(o *Solid, eps float64) bool {
	if len(s.Vertices) != len(o.Vertices) || len(s.Faces) != len(o.Faces) || len(s.FaceColors) != len(o.FaceColors) {
		return false
	}
	for i, v := range s.Vertices {
		if !Near(v, o.Vertices[i], eps) {
			return false
		}
	}
	for i, f := range s.Faces {
		if f != o.Faces[i] {
			return false
		}
	}
	for i, c := range s.FaceColors {
		if c != o.FaceColors[i] {
			return false
		}
	}
	return true
}

// FaceNormal returns the unnormalized normal of face i (cross product of
// its two edges from the first vertex).
func (s *Solid) FaceNormal(i int) mgl64.Vec3 {
	f := s.Faces[i]
	a, b, c := s.Vertices[f[0]], s.Vertices[f[1]], s.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// Validate checks the structural invariants: every index references a
// vertex and, when colors are present, there is exactly one per face.
func (s *Solid) Validate() error {
	n := uint32(len(s.Vertices))
	for i, f := range s.Faces {
		for _, idx := range f {
			if idx >= n {
				return fmt.Errorf("kernel: face %d references vertex %d, solid has %d vertices", i, idx, n)
			}
		}
	}
	if s.FaceColors != nil && len(s.FaceColors) != len(s.Faces) {
		return fmt.Errorf("kernel: %d face colors for %d faces", len(s.FaceColors), len(s.Faces))
	}
	return nil
}
