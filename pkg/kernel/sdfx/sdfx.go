// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"github.com/go-gl/mathgl/mgl64"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest bounding box axis.
const DefaultMeshCells = 128

// Kernel implements kernel.Kernel using sdfx. Subtraction is exact in the
// distance field; the mesh is an approximation at the configured
// resolution.
type Kernel struct {
	cells int
}

// New returns a new Kernel rendering with the given number of marching
// cubes cells. Values below 8 select DefaultMeshCells.
func New(cells int) *Kernel {
	if cells < 8 {
		cells = DefaultMeshCells
	}
	return &Kernel{cells: cells}
}

// Name returns "sdfx".
func (k *Kernel) Name() string { return "sdfx" }

// Cells returns the marching cubes resolution.
func (k *Kernel) Cells() int { return k.cells }

// Difference returns outer minus inner. The Sections field is ignored
// since SDF represents smooth surfaces.
func (k *Kernel) Difference(outer, inner kernel.Cylinder) (*kernel.Solid, error) {
	a, err := sdf.Cylinder3D(outer.Height, outer.Radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: outer cylinder: %w", err)
	}
	b, err := sdf.Cylinder3D(inner.Height, inner.Radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: inner cylinder: %w", err)
	}
	return k.toSolid(sdf.Difference3D(a, b)), nil
}

// toSolid converts an SDF to indexed triangles using marching cubes.
func (k *Kernel) toSolid(s sdf.SDF3) *kernel.Solid {
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(s, renderer)

	tris := make([][3]mgl64.Vec3, len(triangles))
	for i, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			tris[i][j] = mgl64.Vec3{v.X, v.Y, v.Z}
		}
	}
	return weld(tris)
}

// weldQuantum is the grid positions are snapped to when merging vertices.
// Neighbouring cubes interpolate a shared edge from opposite ends, so the
// same vertex can differ in the last bits.
const weldQuantum = 1e-7

type weldKey [3]int64

// weld merges coincident vertices of a triangle soup. Triangles that
// collapse once welded, or have zero area, are dropped. Each merged vertex
// keeps the position it was first seen at.
func weld(tris [][3]mgl64.Vec3) *kernel.Solid {
	out := &kernel.Solid{Faces: make([][3]uint32, 0, len(tris))}
	index := make(map[weldKey]uint32, len(tris))
	for _, p := range tris {
		if p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Len() == 0 {
			continue
		}
		var keys [3]weldKey
		for j, v := range p {
			keys[j] = weldKey{
				int64(math.Round(v[0] / weldQuantum)),
				int64(math.Round(v[1] / weldQuantum)),
				int64(math.Round(v[2] / weldQuantum)),
			}
		}
		if keys[0] == keys[1] || keys[1] == keys[2] || keys[0] == keys[2] {
			continue
		}
		var f [3]uint32
		for j, key := range keys {
			i, ok := index[key]
			if !ok {
				i = uint32(len(out.Vertices))
				index[key] = i
				out.Vertices = append(out.Vertices, p[j])
			}
			f[j] = i
		}
		out.Faces = append(out.Faces, f)
	}
	return out
}
