// Package kernel defines the triangulated solid shared by every stage of
// the pipeline and the abstract boolean kernel interface. Implementations
// (sdfx, manifold) provide cylinder subtraction behind this interface.
// The kernel abstraction allows swapping backends without changing the
// rest of the system.
package kernel

import "errors"

// ErrUnsupportedBoolean is returned by a Kernel that cannot perform
// boolean subtraction. Callers treat it as a request to fall back, not as
// a failure.
var ErrUnsupportedBoolean = errors.New("kernel: boolean subtraction unsupported")

// Cylinder describes a right circular cylinder centered at the origin with
// its axis along Z.
type Cylinder struct {
	Radius   float64
	Height   float64
	Sections int // facets around the axis; smooth backends may ignore it
}

// Kernel is the abstract boolean kernel interface.
type Kernel interface {
	// Name identifies the backend in logs.
	Name() string

	// Difference returns outer minus inner. Both cylinders are coaxial and
	// centered at the origin. The result is uncolored.
	Difference(outer, inner Cylinder) (*Solid, error)
}

// Compile-time interface check.
var _ Kernel = Unsupported{}

// Unsupported is a Kernel without boolean support. Every Difference call
// returns ErrUnsupportedBoolean.
type Unsupported struct{}

// Name returns "none".
func (Unsupported) Name() string { return "none" }

// Difference always returns ErrUnsupportedBoolean.
func (Unsupported) Difference(_, _ Cylinder) (*Solid, error) {
	return nil, ErrUnsupportedBoolean
}
