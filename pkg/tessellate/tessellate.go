// Package tessellate turns expanded layout specs into triangle solids.
// One solid is produced per spec, in spec order.
package tessellate

import (
	"context"
	"fmt"
	"runtime"

	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/chazu/boardmesh/pkg/layout"
	"github.com/chazu/boardmesh/pkg/placement"
	"github.com/chazu/boardmesh/pkg/primitive"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// White is the default color of boxes and cylinders.
var White = kernel.RGBA(255, 255, 255, 255)

// Options tunes Parts.
type Options struct {
	// Sections replaces a spec's zero Sections. Zero means
	// primitive.DefaultSections.
	Sections int
	// Workers bounds the number of primitives built at once. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int
}

// Parts builds every spec with factory and returns the solids in spec
// order. The first failure cancels the remaining work and is returned
// naming the failing spec.
func Parts(ctx context.Context, specs []layout.Spec, factory *primitive.Factory, opts Options) ([]*kernel.Solid, error) {
	if factory == nil {
		factory = primitive.NewFactory(nil, nil)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	solids := make([]*kernel.Solid, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := Part(specs[i], factory, opts.Sections)
			if err != nil {
				return fmt.Errorf("tessellate: spec %d (%s): %w", i, specs[i].Source, err)
			}
			solids[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return solids, nil
}

// Part builds a single spec. A rotated spec is built at the origin,
// rotated, then moved to its position; an unrotated one is built in place.
func Part(spec layout.Spec, factory *primitive.Factory, defaultSections int) (*kernel.Solid, error) {
	sections := spec.Sections
	if sections == 0 {
		sections = defaultSections
	}
	if sections == 0 {
		sections = primitive.DefaultSections
	}

	at := spec.Position
	var rot placement.Placement
	rotated := spec.Rotation != nil && spec.Rotation.Degrees != 0
	if rotated {
		at = mgl64.Vec3{}
		rot = placement.RotationDegrees(spec.Rotation.Degrees, spec.Rotation.Axis).
			Then(placement.Translation(spec.Position))
	}

	var (
		s   *kernel.Solid
		err error
	)
	switch spec.Kind {
	case layout.KindBox:
		s, err = primitive.Box(spec.Size[0], spec.Size[1], spec.Size[2], colorOr(spec.Color, White), at)
	case layout.KindCylinder:
		s, err = primitive.Cylinder(spec.Radius, spec.Height, colorOr(spec.Color, White), at, sections)
	case layout.KindRing:
		s, err = factory.Ring(primitive.RingSpec{
			InnerRadius: spec.InnerRadius,
			OuterRadius: spec.OuterRadius,
			Height:      spec.Height,
			Position:    at,
			Sections:    sections,
			Color:       spec.Color,
		})
	default:
		return nil, fmt.Errorf("unknown kind %q", spec.Kind)
	}
	if err != nil {
		return nil, err
	}
	if rotated {
		s = rot.Apply(s)
	}
	return s, nil
}

func colorOr(c *kernel.Color, def kernel.Color) kernel.Color {
	if c != nil {
		return *c
	}
	return def
}
