// Package scene collects named solids into an ordered scene graph and
// converts its up-axis convention before export.
//
// A Scene is built by folding parts in order: AddPart either appends the
// part or fails and leaves the scene untouched. Every operation that
// changes geometry returns a new Scene.
package scene

import (
	"errors"
	"fmt"

	"github.com/chazu/boardmesh/pkg/kernel"
)

var (
	// ErrDuplicateName is returned when a part name is already present.
	ErrDuplicateName = errors.New("scene: duplicate part name")
	// ErrInvalidPart is returned for parts with an empty name or nil solid.
	ErrInvalidPart = errors.New("scene: invalid part")
)

// Part is a named solid. The name identifies the exported node and has no
// other meaning.
type Part struct {
	Name  string
	Solid *kernel.Solid
}

// Scene is an ordered list of uniquely named parts.
type Scene struct {
	// Name is exported as the glTF scene name.
	Name string
	// Meta is exported into the scene extras.
	Meta map[string]string
	// Up is the up axis of the part coordinates. New scenes are Z-up.
	Up Axis

	parts []Part
	index map[string]int
}

// New returns an empty Z-up scene.
func New(name string) *Scene {
	return &Scene{
		Name:  name,
		Meta:  make(map[string]string),
		Up:    AxisZ,
		index: make(map[string]int),
	}
}

// PartName returns the generated name for the i-th part, e.g. "part_007".
func PartName(i int) string {
	return fmt.Sprintf("part_%03d", i)
}

// Named pairs solids with generated ordinal names.
func Named(solids []*kernel.Solid) []Part {
	parts := make([]Part, len(solids))
	for i, s := range solids {
		parts[i] = Part{Name: PartName(i), Solid: s}
	}
	return parts
}

// AddPart appends a part. On error the scene is unchanged.
func (s *Scene) AddPart(solid *kernel.Solid, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPart)
	}
	if solid == nil {
		return fmt.Errorf("%w: %q has no solid", ErrInvalidPart, name)
	}
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[name] = len(s.parts)
	s.parts = append(s.parts, Part{Name: name, Solid: solid})
	return nil
}

// Build returns a Z-up scene holding parts in order. It performs no
// geometry work.
func Build(name string, parts []Part) (*Scene, error) {
	s := New(name)
	for _, p := range parts {
		if err := s.AddPart(p.Solid, p.Name); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Len returns the number of parts.
func (s *Scene) Len() int {
	return len(s.parts)
}

// Parts returns a copy of the part list in insertion order.
func (s *Scene) Parts() []Part {
	out := make([]Part, len(s.parts))
	copy(out, s.parts)
	return out
}

// Part returns the i-th part.
func (s *Scene) Part(i int) Part {
	return s.parts[i]
}

// Lookup returns the part with the given name.
func (s *Scene) Lookup(name string) (Part, bool) {
	i, ok := s.index[name]
	if !ok {
		return Part{}, false
	}
	return s.parts[i], true
}

// TriangleCount returns the total number of triangles across all parts.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, p := range s.parts {
		n += p.Solid.TriangleCount()
	}
	return n
}

// derive returns an empty scene carrying s's name, metadata and up axis.
func (s *Scene) derive() *Scene {
	out := New(s.Name)
	for k, v := range s.Meta {
		out.Meta[k] = v
	}
	out.Up = s.Up
	return out
}
