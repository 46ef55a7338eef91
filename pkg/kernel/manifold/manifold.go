//go:build manifold

// Package manifold provides a CGo-based boolean kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold provides
// guaranteed-manifold mesh boolean operations, so rings come out with exact
// faceted walls instead of a marching cubes approximation.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// manifoldSolid wraps a C ManifoldManifold pointer.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// newSolid wraps a C ManifoldManifold pointer with Go-side finalizer
// for automatic memory management.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// Kernel implements kernel.Kernel using the Manifold C library.
type Kernel struct{}

// New creates a new Kernel.
func New() (kernel.Kernel, error) {
	return &Kernel{}, nil
}

// Name returns "manifold".
func (k *Kernel) Name() string { return "manifold" }

// cylinder creates a centered cylinder along the Z axis.
func cylinder(c kernel.Cylinder) *manifoldSolid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cylinder(alloc,
		C.double(c.Height),
		C.double(c.Radius), // radius_low
		C.double(c.Radius), // radius_high (same = not tapered)
		C.int(c.Sections),
		C.int(1), // center=true
	)
	return newSolid(ptr)
}

// Difference returns outer minus inner as an exact faceted mesh.
func (k *Kernel) Difference(outer, inner kernel.Cylinder) (*kernel.Solid, error) {
	a := cylinder(outer)
	b := cylinder(inner)
	alloc := C.manifold_alloc_manifold()
	diff := newSolid(C.manifold_difference(alloc, a.ptr, b.ptr))
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
	return toSolid(diff)
}

// toSolid extracts a triangle mesh from the solid using Manifold's MeshGL
// format. The first three vertex properties are always the position.
func toSolid(ms *manifoldSolid) (*kernel.Solid, error) {
	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, ms.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return &kernel.Solid{}, nil
	}
	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	if numProp < 3 {
		return nil, fmt.Errorf("manifold: %d vertex properties, want at least 3", numProp)
	}

	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	s := &kernel.Solid{
		Vertices: make([]mgl64.Vec3, numVert),
		Faces:    make([][3]uint32, numTri),
	}
	for i := 0; i < numVert; i++ {
		base := i * numProp
		s.Vertices[i] = mgl64.Vec3{
			float64(propData[base+0]),
			float64(propData[base+1]),
			float64(propData[base+2]),
		}
	}
	for t := 0; t < numTri; t++ {
		s.Faces[t] = [3]uint32{indices[t*3], indices[t*3+1], indices[t*3+2]}
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("manifold: %w", err)
	}
	return s, nil
}
