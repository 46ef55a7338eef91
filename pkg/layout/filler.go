package layout

import (
	"errors"
	"fmt"
	"math"

	"cogentcore.org/core/base/randx"
	"github.com/go-gl/mathgl/mgl64"
)

// Range is a closed-open interval [min, max) sampled uniformly.
type Range [2]float64

func (r Range) sample(rnd randx.Rand) float64 {
	return r[0] + rnd.Float64()*(r[1]-r[0])
}

func (r Range) valid() bool {
	return !math.IsNaN(r[0]) && !math.IsNaN(r[1]) && r[1] >= r[0]
}

// Rect is an axis-aligned exclusion zone in the XY plane. A point is
// inside when it is strictly closer than Half to Center on both axes.
type Rect struct {
	Center [2]float64 `yaml:"center"`
	Half   [2]float64 `yaml:"half"`
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return math.Abs(x-r.Center[0]) < r.Half[0] && math.Abs(y-r.Center[1]) < r.Half[1]
}

// Filler scatters small decorative boxes over a region of the board.
//
// Each attempt samples a position; attempts landing in an Avoid zone are
// dropped without sampling a size, so a filler yields at most Attempts
// boxes. Sampling order is x, y, then width and depth.
type Filler struct {
	Name     string  `yaml:"name,omitempty"`
	Seed     int64   `yaml:"seed"`
	Attempts int     `yaml:"attempts"`
	X        Range   `yaml:"x"`
	Y        Range   `yaml:"y"`
	Width    Range   `yaml:"width"`  // X extent
	Depth    Range   `yaml:"depth"`  // Y extent
	Height   float64 `yaml:"height"` // Z extent
	Z        float64 `yaml:"z"`
	Color    *Color  `yaml:"color,omitempty"`
	Avoid    []Rect  `yaml:"avoid,omitempty"`
}

// Scatter draws the filler's boxes from rnd.
func (f Filler) Scatter(rnd randx.Rand) ([]Spec, error) {
	if f.Attempts < 0 {
		return nil, fmt.Errorf("attempts %d must not be negative", f.Attempts)
	}
	for _, r := range []Range{f.X, f.Y, f.Width, f.Depth} {
		if !r.valid() {
			return nil, errors.New("ranges must satisfy min <= max")
		}
	}

	source := "filler"
	if f.Name != "" {
		source = "filler " + f.Name
	}
	var specs []Spec
	for a := 0; a < f.Attempts; a++ {
		x := f.X.sample(rnd)
		y := f.Y.sample(rnd)
		if f.avoided(x, y) {
			continue
		}
		w := f.Width.sample(rnd)
		d := f.Depth.sample(rnd)
		specs = append(specs, Spec{
			Kind:     KindBox,
			Size:     mgl64.Vec3{w, d, f.Height},
			Color:    f.Color.toKernel(),
			Position: mgl64.Vec3{x, y, f.Z},
			Source:   fmt.Sprintf("%s[%d]", source, a),
		})
	}
	return specs, nil
}

func (f Filler) avoided(x, y float64) bool {
	for _, r := range f.Avoid {
		if r.Contains(x, y) {
			return true
		}
	}
	return false
}
