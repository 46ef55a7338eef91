package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/boardmesh/pkg/kernel"
	"gopkg.in/yaml.v3"
)

// Color is a kernel.Color that decodes from YAML as either a sequence
// [r, g, b] / [r, g, b, a] or a hex string "#rrggbb" / "#rrggbbaa".
// A missing alpha means 255.
type Color kernel.Color

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseHex(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*c = Color(parsed)
		return nil
	case yaml.SequenceNode:
		var channels []int
		if err := value.Decode(&channels); err != nil {
			return err
		}
		if len(channels) != 3 && len(channels) != 4 {
			return fmt.Errorf("line %d: color needs 3 or 4 channels, got %d", value.Line, len(channels))
		}
		out := Color{0, 0, 0, 255}
		for i, ch := range channels {
			if ch < 0 || ch > 255 {
				return fmt.Errorf("line %d: color channel %d out of range", value.Line, ch)
			}
			out[i] = uint8(ch)
		}
		*c = out
		return nil
	}
	return fmt.Errorf("line %d: color must be a sequence or hex string", value.Line)
}

// MarshalYAML implements yaml.Marshaler, writing a flow sequence.
func (c Color) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, ch := range c {
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(int(ch))})
	}
	return n, nil
}

// ParseHex parses "#rrggbb" or "#rrggbbaa"; the leading '#' is optional.
func ParseHex(s string) (kernel.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return kernel.Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return kernel.Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return kernel.RGBA(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

func (c *Color) toKernel() *kernel.Color {
	if c == nil {
		return nil
	}
	k := kernel.Color(*c)
	return &k
}
