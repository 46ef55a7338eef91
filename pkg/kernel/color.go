package kernel

import "fmt"

// Color is an RGBA byte tuple. Alpha below 255 means the part is drawn
// translucent by a viewer; it carries no material meaning.
type Color [4]uint8

// Silver is the default ring color.
var Silver = Color{192, 192, 192, 255}

// RGBA returns the color with the given channels.
func RGBA(r, g, b, a uint8) Color {
	return Color{r, g, b, a}
}

// Opaque reports whether the alpha channel is 255.
func (c Color) Opaque() bool {
	return c[3] == 255
}

// Factor returns the channels scaled to [0, 1].
func (c Color) Factor() [4]float64 {
	return [4]float64{
		float64(c[0]) / 255,
		float64(c[1]) / 255,
		float64(c[2]) / 255,
		float64(c[3]) / 255,
	}
}

// String returns the color as an 8-digit hex string, e.g. "#006400ff".
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c[0], c[1], c[2], c[3])
}
