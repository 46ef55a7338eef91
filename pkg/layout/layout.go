// Package layout describes a board assembly declaratively: an ordered list
// of primitive items, each optionally repeated along one or two steps, plus
// seeded decorative fillers. Layouts load from YAML and expand into a flat
// list of primitive specs.
package layout

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Kind names a primitive shape.
type Kind string

const (
	KindBox      Kind = "box"
	KindCylinder Kind = "cylinder"
	KindRing     Kind = "ring"
)

// Valid reports whether k is a known shape.
func (k Kind) Valid() bool {
	switch k {
	case KindBox, KindCylinder, KindRing:
		return true
	}
	return false
}

// Layout is one revision of a board description.
type Layout struct {
	Name     string   `yaml:"name"`
	Version  string   `yaml:"version,omitempty"`
	Units    string   `yaml:"units,omitempty"`
	Sections int      `yaml:"sections,omitempty"` // default cylinder facets
	Items    []Item   `yaml:"items"`
	Fillers  []Filler `yaml:"fillers,omitempty"`
}

// Item is one primitive, or a regular array of them when Repeat is set.
type Item struct {
	Name string `yaml:"name,omitempty"`
	Kind Kind   `yaml:"kind"`

	// Box extents (X, Y, Z).
	Size mgl64.Vec3 `yaml:"size,omitempty"`

	// Cylinder.
	Radius float64 `yaml:"radius,omitempty"`
	Height float64 `yaml:"height,omitempty"`

	// Ring; Height is shared with cylinders.
	InnerRadius float64 `yaml:"inner_radius,omitempty"`
	OuterRadius float64 `yaml:"outer_radius,omitempty"`

	Sections int        `yaml:"sections,omitempty"`
	Color    *Color     `yaml:"color,omitempty"`
	Position mgl64.Vec3 `yaml:"position"`
	Rotation *Rotation  `yaml:"rotation,omitempty"`
	Repeat   *Repeat    `yaml:"repeat,omitempty"`
}

// Rotation turns a primitive about its own origin before it is moved to
// its position.
type Rotation struct {
	Axis    mgl64.Vec3 `yaml:"axis"`
	Degrees float64    `yaml:"degrees"`
}

// Repeat places Count copies of an item, Step apart. Rows adds a second
// dimension of RowStep; copies are emitted count-major, rows-minor.
type Repeat struct {
	Count   int        `yaml:"count"`
	Step    mgl64.Vec3 `yaml:"step"`
	Rows    int        `yaml:"rows,omitempty"`
	RowStep mgl64.Vec3 `yaml:"row_step,omitempty"`
}

// Load reads a YAML layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout: %s: %w", path, err)
	}
	return l, nil
}

// Parse decodes a YAML layout. Unknown fields are rejected.
func Parse(data []byte) (*Layout, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Marshal encodes l as YAML.
func Marshal(l *Layout) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
