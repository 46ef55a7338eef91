package layout

import (
	"os"
	"path/filepath"
	"testing"

	"cogentcore.org/core/base/randx"
	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headerYAML = `
name: header-test
version: "1.0"
units: mm
sections: 16
items:
  - name: pcb
    kind: box
    size: [214, 150, 1.535]
    color: "#006400"
    position: [107, 75, 0]
  - name: pins
    kind: box
    size: [0.6, 0.6, 8.5]
    color: [218, 165, 32]
    position: [140, 104, 5.0175]
    repeat:
      count: 3
      step: [2.54, 0, 0]
      rows: 2
      row_step: [0, 2.54, 0]
  - name: jack
    kind: cylinder
    radius: 5.5
    height: 14
    sections: 24
    color: [30, 30, 30, 255]
    position: [204, 154, 6.2675]
    rotation: {axis: [1, 0, 0], degrees: 90}
  - name: hole
    kind: ring
    inner_radius: 1.6
    height: 1.535
    position: [5, 5, 0]
`

func TestParse(t *testing.T) {
	l, err := Parse([]byte(headerYAML))
	require.NoError(t, err)

	assert.Equal(t, "header-test", l.Name)
	assert.Equal(t, "1.0", l.Version)
	assert.Equal(t, 16, l.Sections)
	require.Len(t, l.Items, 4)

	pcb := l.Items[0]
	assert.Equal(t, KindBox, pcb.Kind)
	assert.Equal(t, mgl64.Vec3{214, 150, 1.535}, pcb.Size)
	require.NotNil(t, pcb.Color)
	assert.Equal(t, Color{0, 100, 0, 255}, *pcb.Color)

	assert.Equal(t, Color{218, 165, 32, 255}, *l.Items[1].Color, "missing alpha is opaque")

	jack := l.Items[2]
	require.NotNil(t, jack.Rotation)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, jack.Rotation.Axis)
	assert.Equal(t, 90.0, jack.Rotation.Degrees)

	assert.Nil(t, l.Items[3].Color)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\nitems:\n  - kind: box\n    colour: [1, 2, 3]\n"))
	assert.Error(t, err)
}

func TestParseRejectsBadColors(t *testing.T) {
	for _, doc := range []string{
		"name: x\nitems:\n  - kind: box\n    color: [1, 2]\n",
		"name: x\nitems:\n  - kind: box\n    color: [1, 2, 300]\n",
		"name: x\nitems:\n  - kind: box\n    color: \"#12345\"\n",
		"name: x\nitems:\n  - kind: box\n    color: {r: 1}\n",
	} {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(headerYAML), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, l.Items, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	l, err := Parse([]byte(headerYAML))
	require.NoError(t, err)

	data, err := Marshal(l)
	require.NoError(t, err)
	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestExpandRepeatOrder(t *testing.T) {
	l, err := Parse([]byte(headerYAML))
	require.NoError(t, err)

	specs, err := Expand(l, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1+6+1+1)

	// Count-major, rows-minor, as pin headers are laid out.
	want := []mgl64.Vec3{
		{140, 104, 5.0175}, {140, 106.54, 5.0175},
		{142.54, 104, 5.0175}, {142.54, 106.54, 5.0175},
		{145.08, 104, 5.0175}, {145.08, 106.54, 5.0175},
	}
	for i, w := range want {
		got := specs[1+i].Position
		assert.True(t, kernel.Near(got, w, 1e-9), "pin %d at %v, want %v", i, got, w)
		assert.Equal(t, KindBox, specs[1+i].Kind)
	}
	assert.Equal(t, "item 1 (pins)[2,1]", specs[6].Source)

	assert.Equal(t, 16, specs[0].Sections, "layout default sections")
	assert.Equal(t, 24, specs[7].Sections, "item sections override")
	assert.Nil(t, specs[8].Color, "ring keeps its default color")
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name string
		item Item
	}{
		{"unknown kind", Item{Kind: "sphere"}},
		{"zero repeat", Item{Kind: KindBox, Repeat: &Repeat{Count: 0}}},
		{"negative rows", Item{Kind: KindBox, Repeat: &Repeat{Count: 2, Rows: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(&Layout{Items: []Item{tt.item}}, nil)
			assert.Error(t, err)
		})
	}
}

func smdFiller(seed int64) Filler {
	brown := Color{80, 60, 40, 255}
	return Filler{
		Name:     "smd",
		Seed:     seed,
		Attempts: 40,
		X:        Range{15, 199},
		Y:        Range{25, 140},
		Width:    Range{1.0, 2.5},
		Depth:    Range{0.8, 1.5},
		Height:   0.8,
		Z:        1.1675,
		Color:    &brown,
		Avoid:    []Rect{{Center: [2]float64{89.88, 82.5}, Half: [2]float64{15, 15}}},
	}
}

func TestFillerIsReproducible(t *testing.T) {
	l := &Layout{Fillers: []Filler{smdFiller(42)}}

	a, err := Expand(l, nil)
	require.NoError(t, err)
	b, err := Expand(l, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
	assert.LessOrEqual(t, len(a), 40)

	other, err := Expand(&Layout{Fillers: []Filler{smdFiller(7)}}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestFillerRespectsAvoidZones(t *testing.T) {
	f := smdFiller(42)
	f.Attempts = 2000
	specs, err := f.Scatter(randx.NewSysRand(1))
	require.NoError(t, err)
	require.Less(t, len(specs), 2000, "some attempts must land in the exclusion zone")

	for _, s := range specs {
		assert.False(t, f.Avoid[0].Contains(s.Position[0], s.Position[1]), "spec at %v inside exclusion zone", s.Position)
		assert.GreaterOrEqual(t, s.Position[0], 15.0)
		assert.Less(t, s.Position[0], 199.0)
		assert.GreaterOrEqual(t, s.Size[0], 1.0)
		assert.Less(t, s.Size[1], 1.5)
		assert.Equal(t, 0.8, s.Size[2])
		assert.Equal(t, kernel.RGBA(80, 60, 40, 255), *s.Color)
	}
}

// seqRand replays fixed Float64 values.
type seqRand struct {
	*randx.SysRand
	vals []float64
	n    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.n%len(r.vals)]
	r.n++
	return v
}

func TestFillerSkipsSizeSamplingWhenAvoided(t *testing.T) {
	f := Filler{
		Attempts: 2,
		X:        Range{0, 10},
		Y:        Range{0, 10},
		Width:    Range{1, 2},
		Depth:    Range{1, 2},
		Height:   1,
		Avoid:    []Rect{{Center: [2]float64{5, 5}, Half: [2]float64{1, 1}}},
	}
	// Attempt 0 lands at (5, 5) and is dropped; attempt 1 lands at (1, 9)
	// with width 1.5 and depth 1.25.
	rnd := &seqRand{SysRand: randx.NewSysRand(0), vals: []float64{0.5, 0.5, 0.1, 0.9, 0.5, 0.25}}

	specs, err := f.Scatter(rnd)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.InDelta(t, 1.0, specs[0].Position[0], 1e-12)
	assert.InDelta(t, 9.0, specs[0].Position[1], 1e-12)
	assert.InDelta(t, 1.5, specs[0].Size[0], 1e-12)
	assert.InDelta(t, 1.25, specs[0].Size[1], 1e-12)
	assert.Equal(t, 6, rnd.n)
	assert.Equal(t, "filler[1]", specs[0].Source)
}

func TestFillerErrors(t *testing.T) {
	f := smdFiller(1)
	f.X = Range{10, 5}
	_, err := f.Scatter(randx.NewSysRand(1))
	assert.Error(t, err)

	f = smdFiller(1)
	f.Attempts = -1
	_, err = f.Scatter(randx.NewSysRand(1))
	assert.Error(t, err)
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    kernel.Color
		wantErr bool
	}{
		{"#c0c0c0", kernel.Silver, false},
		{"c0c0c0ff", kernel.Silver, false},
		{"#FFFFFFC8", kernel.RGBA(255, 255, 255, 200), false},
		{"#zzzzzz", kernel.Color{}, true},
		{"#123", kernel.Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
