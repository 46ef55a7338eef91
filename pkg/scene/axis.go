package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/boardmesh/pkg/placement"
	"github.com/go-gl/mathgl/mgl64"
)

// Axis is a coordinate axis used as an up-axis convention.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String returns "X", "Y" or "Z".
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Vec returns the unit vector along a.
func (a Axis) Vec() mgl64.Vec3 {
	var v mgl64.Vec3
	if a >= AxisX && a <= AxisZ {
		v[a] = 1
	}
	return v
}

// ParseAxis parses "x", "y" or "z" in any case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return AxisX, nil
	case "Y":
		return AxisY, nil
	case "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("scene: unknown axis %q", s)
}

// UpAxisRotation returns the rotation taking the from axis onto the to
// axis: +90 degrees about from x to. For Z-up to Y-up this is -90 degrees
// about X, mapping (x, y, z) to (x, z, -y).
func UpAxisRotation(from, to Axis) (placement.Placement, error) {
	if from < AxisX || from > AxisZ || to < AxisX || to > AxisZ {
		return placement.Placement{}, fmt.Errorf("scene: invalid axes %s -> %s", from, to)
	}
	if from == to {
		return placement.Placement{}, fmt.Errorf("scene: up axis conversion %s -> %s is a no-op", from, to)
	}
	return placement.Rotation(math.Pi/2, from.Vec().Cross(to.Vec())), nil
}

// ConvertUpAxis returns a new scene with every part rotated from the from
// convention to the to convention and Up set to to.
//
// The rotation is applied unconditionally: converting an already converted
// scene rotates it again. Call it exactly once, after every part is placed
// and before export.
func ConvertUpAxis(s *Scene, from, to Axis) (*Scene, error) {
	rot, err := UpAxisRotation(from, to)
	if err != nil {
		return nil, err
	}
	out := s.derive()
	for _, p := range s.parts {
		if err := out.AddPart(rot.Apply(p.Solid), p.Name); err != nil {
			return nil, err
		}
	}
	out.Up = to
	return out, nil
}
