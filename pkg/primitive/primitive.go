// Package primitive generates colored triangulated solids: axis-aligned
// boxes, Z-axis cylinders and, through a boolean kernel, rings.
//
// Every constructor validates its dimensions at the call site and returns
// an error wrapping ErrInvalidDimension rather than clamping. Color is the
// last step of construction and covers every face.
package primitive

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidDimension is returned for non-positive or non-finite shape
// parameters.
var ErrInvalidDimension = errors.New("primitive: invalid dimension")

// DefaultSections is the cylinder facet count used when none is given.
const DefaultSections = 32

// MinSections is the smallest facet count that encloses a volume.
const MinSections = 3

// boxFaces lists the 12 outward triangles of a unit box whose vertex i has
// bit 0, 1 and 2 set when it sits on the +X, +Y and +Z side.
var boxFaces = [12][3]uint32{
	{0, 4, 6}, {0, 6, 2}, // -X
	{1, 3, 7}, {1, 7, 5}, // +X
	{0, 1, 5}, {0, 5, 4}, // -Y
	{2, 6, 7}, {2, 7, 3}, // +Y
	{0, 2, 3}, {0, 3, 1}, // -Z
	{4, 5, 7}, {4, 7, 6}, // +Z
}

// Box returns an axis-aligned box with full extents width (X), height (Y)
// and depth (Z), centered at position.
func Box(width, height, depth float64, color kernel.Color, position mgl64.Vec3) (*kernel.Solid, error) {
	if err := positive("width", width); err != nil {
		return nil, err
	}
	if err := positive("height", height); err != nil {
		return nil, err
	}
	if err := positive("depth", depth); err != nil {
		return nil, err
	}
	if err := finite(position); err != nil {
		return nil, err
	}

	half := mgl64.Vec3{width / 2, height / 2, depth / 2}
	vertices := make([]mgl64.Vec3, 8)
	for i := range vertices {
		var v mgl64.Vec3
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				v[axis] = position[axis] + half[axis]
			} else {
				v[axis] = position[axis] - half[axis]
			}
		}
		vertices[i] = v
	}

	faces := make([][3]uint32, len(boxFaces))
	copy(faces, boxFaces[:])

	s := &kernel.Solid{Vertices: vertices, Faces: faces}
	return s.WithColor(color), nil
}

// Cylinder returns a cylinder of the given radius and height with its axis
// along Z, centered at position. The side is approximated by sections flat
// quads; the caps are triangle fans around a center vertex.
//
// Vertex layout: bottom rim [0, n), top rim [n, 2n), bottom center 2n, top
// center 2n+1.
func Cylinder(radius, height float64, color kernel.Color, position mgl64.Vec3, sections int) (*kernel.Solid, error) {
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	if err := positive("height", height); err != nil {
		return nil, err
	}
	if sections < MinSections {
		return nil, fmt.Errorf("%w: sections %d, need at least %d", ErrInvalidDimension, sections, MinSections)
	}
	if err := finite(position); err != nil {
		return nil, err
	}

	n := sections
	z0 := position[2] - height/2
	z1 := position[2] + height/2

	vertices := make([]mgl64.Vec3, 2*n+2)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		x := position[0] + radius*math.Cos(theta)
		y := position[1] + radius*math.Sin(theta)
		vertices[i] = mgl64.Vec3{x, y, z0}
		vertices[n+i] = mgl64.Vec3{x, y, z1}
	}
	bottom := uint32(2 * n)
	top := uint32(2*n + 1)
	vertices[bottom] = mgl64.Vec3{position[0], position[1], z0}
	vertices[top] = mgl64.Vec3{position[0], position[1], z1}

	faces := make([][3]uint32, 0, 4*n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		bi, bj := uint32(i), uint32(j)
		ti, tj := uint32(n+i), uint32(n+j)
		faces = append(faces,
			[3]uint32{bi, bj, tj},
			[3]uint32{bi, tj, ti},
			[3]uint32{bottom, bj, bi},
			[3]uint32{top, ti, tj},
		)
	}

	s := &kernel.Solid{Vertices: vertices, Faces: faces}
	return s.WithColor(color), nil
}

func positive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s %v must be positive", ErrInvalidDimension, name, v)
	}
	return nil
}

func finite(v mgl64.Vec3) error {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: position %v is not finite", ErrInvalidDimension, v)
		}
	}
	return nil
}
