// Package placement applies affine transforms to solids. A Placement is a
// single 4x4 matrix; composition follows application order, so
// Rotation(...).Then(Translation(...)) rotates about the local origin first
// and then moves the result into position.
package placement

import (
	"math"

	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// Placement is an affine transform.
type Placement struct {
	m mgl64.Mat4
}

// Identity returns the placement that leaves solids unchanged.
func Identity() Placement {
	return Placement{m: mgl64.Ident4()}
}

// FromMatrix wraps an affine matrix.
func FromMatrix(m mgl64.Mat4) Placement {
	return Placement{m: m}
}

// Translation returns a placement moving solids by v.
func Translation(v mgl64.Vec3) Placement {
	return Placement{m: mgl64.Translate3D(v[0], v[1], v[2])}
}

// Rotation returns a placement rotating solids by angle radians about axis
// through the origin. The axis need not be normalized; a zero axis yields
// the identity.
func Rotation(angle float64, axis mgl64.Vec3) Placement {
	if axis.Len() == 0 || angle == 0 {
		return Identity()
	}
	return Placement{m: mgl64.HomogRotate3D(angle, axis.Normalize())}
}

// RotationDegrees is Rotation with the angle in degrees.
func RotationDegrees(degrees float64, axis mgl64.Vec3) Placement {
	return Rotation(degrees*math.Pi/180, axis)
}

// RotateThenTranslate rotates about the local origin, then translates.
func RotateThenTranslate(angle float64, axis, v mgl64.Vec3) Placement {
	return Rotation(angle, axis).Then(Translation(v))
}

// Then returns the placement that applies p first and q second.
func (p Placement) Then(q Placement) Placement {
	return Placement{m: q.m.Mul4(p.m)}
}

// Matrix returns the underlying matrix.
func (p Placement) Matrix() mgl64.Mat4 {
	return p.m
}

// IsIdentity reports whether p is exactly the identity.
func (p Placement) IsIdentity() bool {
	return p.m == mgl64.Ident4()
}

// ApplyPoint transforms a single position.
func (p Placement) ApplyPoint(v mgl64.Vec3) mgl64.Vec3 {
	return p.m.Mul4x1(v.Vec4(1)).Vec3()
}

// Apply returns a new solid with every vertex transformed. Faces and colors
// are shared with s, which is left untouched.
func (p Placement) Apply(s *kernel.Solid) *kernel.Solid {
	vertices := make([]mgl64.Vec3, len(s.Vertices))
	for i, v := range s.Vertices {
		vertices[i] = p.ApplyPoint(v)
	}
	out := &kernel.Solid{
		Vertices:   vertices,
		Faces:      s.Faces,
		FaceColors: s.FaceColors,
	}
	if p.mirrors() {
		// A reflection turns outward winding inward; flip it back.
		faces := make([][3]uint32, len(s.Faces))
		for i, f := range s.Faces {
			faces[i] = [3]uint32{f[0], f[2], f[1]}
		}
		out.Faces = faces
	}
	return out
}

// mirrors reports whether the linear part has a negative determinant.
func (p Placement) mirrors() bool {
	return p.m.Mat3().Det() < 0
}
