package primitive

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/chazu/boardmesh/pkg/placement"
	"github.com/go-gl/mathgl/mgl64"
)

// Ring clearances, in model units.
const (
	// RingRadialClearance is the default wall thickness added to the inner
	// radius when no outer radius is given.
	RingRadialClearance = 0.8
	// RingOuterClearance is added to the outer cylinder's height.
	RingOuterClearance = 0.1
	// RingBoreClearance is added to the bore's height so it pierces both
	// caps without leaving coplanar faces.
	RingBoreClearance = 0.5
)

// RingSpec describes an annulus centered at Position with its axis along Z.
type RingSpec struct {
	InnerRadius float64
	// OuterRadius is checked against InnerRadius only. The outer wall is
	// always InnerRadius + RingRadialClearance.
	OuterRadius float64
	Height      float64
	Position    mgl64.Vec3
	Sections    int           // 0 means DefaultSections
	Color       *kernel.Color // nil means kernel.Silver
}

// Factory builds rings on top of a boolean kernel.
//
// When the kernel reports kernel.ErrUnsupportedBoolean the ring degrades to
// its outer cylinder: a solid disk instead of an annulus. This is not an
// error. Each fallback is logged as a warning and counted, see Fallbacks.
//
// A Factory is safe for concurrent use.
type Factory struct {
	kernel    kernel.Kernel
	logger    *slog.Logger
	fallbacks atomic.Int64
}

// NewFactory returns a Factory using k for subtraction. A nil k means
// kernel.Unsupported; a nil logger means slog.Default().
func NewFactory(k kernel.Kernel, logger *slog.Logger) *Factory {
	if k == nil {
		k = kernel.Unsupported{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{kernel: k, logger: logger}
}

// Kernel returns the boolean backend.
func (f *Factory) Kernel() kernel.Kernel {
	return f.kernel
}

// Fallbacks returns how many rings degraded to a solid cylinder.
func (f *Factory) Fallbacks() int64 {
	return f.fallbacks.Load()
}

// Ring returns the outer cylinder minus the inner bore. The outer
// cylinder is Height+RingOuterClearance tall; the bore is
// Height+RingBoreClearance tall.
func (f *Factory) Ring(spec RingSpec) (*kernel.Solid, error) {
	outerR := spec.InnerRadius + RingRadialClearance
	sections := spec.Sections
	if sections == 0 {
		sections = DefaultSections
	}
	color := kernel.Silver
	if spec.Color != nil {
		color = *spec.Color
	}

	if err := positive("inner radius", spec.InnerRadius); err != nil {
		return nil, err
	}
	if err := positive("height", spec.Height); err != nil {
		return nil, err
	}
	if spec.OuterRadius != 0 && spec.OuterRadius <= spec.InnerRadius {
		return nil, fmt.Errorf("%w: outer radius %v must exceed inner radius %v", ErrInvalidDimension, spec.OuterRadius, spec.InnerRadius)
	}
	if sections < MinSections {
		return nil, fmt.Errorf("%w: sections %d, need at least %d", ErrInvalidDimension, sections, MinSections)
	}
	if err := finite(spec.Position); err != nil {
		return nil, err
	}

	outer := kernel.Cylinder{Radius: outerR, Height: spec.Height + RingOuterClearance, Sections: sections}
	bore := kernel.Cylinder{Radius: spec.InnerRadius, Height: spec.Height + RingBoreClearance, Sections: sections}

	s, err := f.kernel.Difference(outer, bore)
	if errors.Is(err, kernel.ErrUnsupportedBoolean) {
		f.fallbacks.Add(1)
		f.logger.Warn("ring subtraction unsupported, using solid cylinder",
			"kernel", f.kernel.Name(),
			"inner_radius", spec.InnerRadius,
			"outer_radius", outerR,
			"position", spec.Position)
		return Cylinder(outer.Radius, outer.Height, color, spec.Position, sections)
	}
	if err != nil {
		return nil, fmt.Errorf("primitive: ring difference (%s): %w", f.kernel.Name(), err)
	}
	if s == nil || s.IsEmpty() {
		return nil, fmt.Errorf("primitive: ring difference (%s) produced no geometry", f.kernel.Name())
	}

	return placement.Translation(spec.Position).Apply(s).WithColor(color), nil
}
