package layout

import (
	"fmt"

	"cogentcore.org/core/base/randx"
	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// Spec is one fully resolved primitive: a shape, its parameters, color
// and placement. Zero Sections means the builder's default.
type Spec struct {
	Kind        Kind
	Size        mgl64.Vec3
	Radius      float64
	Height      float64
	InnerRadius float64
	OuterRadius float64
	Sections    int
	Color       *kernel.Color // nil means the shape's default
	Position    mgl64.Vec3
	Rotation    *Rotation

	// Source names the layout entry the spec came from, for errors.
	Source string
}

// Expand flattens l into primitive specs: items in order with their
// repeats unrolled, then each filler's scatter.
//
// If rnd is nil every filler draws from its own generator seeded with
// Filler.Seed, so equal layouts always expand identically. A non-nil rnd is
// shared by all fillers.
func Expand(l *Layout, rnd randx.Rand) ([]Spec, error) {
	var specs []Spec
	for i, item := range l.Items {
		expanded, err := expandItem(l, i, item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, expanded...)
	}
	for i, f := range l.Fillers {
		r := rnd
		if r == nil {
			r = randx.NewSysRand(f.Seed)
		}
		scattered, err := f.Scatter(r)
		if err != nil {
			return nil, fmt.Errorf("layout: filler %d (%s): %w", i, f.Name, err)
		}
		specs = append(specs, scattered...)
	}
	return specs, nil
}

func expandItem(l *Layout, i int, item Item) ([]Spec, error) {
	source := fmt.Sprintf("item %d", i)
	if item.Name != "" {
		source = fmt.Sprintf("item %d (%s)", i, item.Name)
	}
	if !item.Kind.Valid() {
		return nil, fmt.Errorf("layout: %s: unknown kind %q", source, item.Kind)
	}

	base := Spec{
		Kind:        item.Kind,
		Size:        item.Size,
		Radius:      item.Radius,
		Height:      item.Height,
		InnerRadius: item.InnerRadius,
		OuterRadius: item.OuterRadius,
		Sections:    item.Sections,
		Color:       item.Color.toKernel(),
		Position:    item.Position,
		Rotation:    item.Rotation,
		Source:      source,
	}
	if base.Sections == 0 {
		base.Sections = l.Sections
	}

	if item.Repeat == nil {
		return []Spec{base}, nil
	}
	rp := item.Repeat
	if rp.Count < 1 {
		return nil, fmt.Errorf("layout: %s: repeat count %d must be at least 1", source, rp.Count)
	}
	rows := rp.Rows
	if rows == 0 {
		rows = 1
	}
	if rows < 0 {
		return nil, fmt.Errorf("layout: %s: repeat rows %d must not be negative", source, rp.Rows)
	}

	specs := make([]Spec, 0, rp.Count*rows)
	for c := 0; c < rp.Count; c++ {
		for r := 0; r < rows; r++ {
			s := base
			s.Position = item.Position.Add(rp.Step.Mul(float64(c))).Add(rp.RowStep.Mul(float64(r)))
			s.Source = fmt.Sprintf("%s[%d,%d]", source, c, r)
			specs = append(specs, s)
		}
	}
	return specs, nil
}
