package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/boardmesh/pkg/layout"
	"github.com/go-gl/mathgl/mgl64"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(layout :name "evb")`,
			expect: `(layout "__kw_name" "evb")`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :radius 5.5 :height 14)`,
			expect: `(cylinder "__kw_radius" 5.5 "__kw_height" 14)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(pin-row :row-step ref)`,
			expect: `(pin_row "__kw_row-step" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:inner-radius`,
			expect: `"__kw_inner-radius"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Shape and placement tests
// ---------------------------------------------------------------------------

func evalLayout(t *testing.T, source string) *layout.Layout {
	t.Helper()
	l, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if l == nil {
		t.Fatal("expected non-nil layout")
	}
	return l
}

func TestPlaceBox(t *testing.T) {
	l := evalLayout(t, `
(place (box :size (vec3 214 150 1.535) :color (rgba 0 100 0))
       :at (vec3 107 75 0) :name "pcb")
`)
	if len(l.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(l.Items))
	}
	pcb := l.Items[0]
	if pcb.Kind != layout.KindBox {
		t.Errorf("kind = %s, want box", pcb.Kind)
	}
	if pcb.Name != "pcb" {
		t.Errorf("name = %q, want pcb", pcb.Name)
	}
	if pcb.Size != (mgl64.Vec3{214, 150, 1.535}) {
		t.Errorf("size = %v", pcb.Size)
	}
	if pcb.Position != (mgl64.Vec3{107, 75, 0}) {
		t.Errorf("position = %v", pcb.Position)
	}
	if pcb.Color == nil || *pcb.Color != (layout.Color{0, 100, 0, 255}) {
		t.Errorf("color = %v, want opaque dark green", pcb.Color)
	}
}

func TestShapesAreTemplatesUntilPlaced(t *testing.T) {
	l := evalLayout(t, `
(def pin (box :size (vec3 0.6 0.6 8.5)))
(cylinder :radius 1 :height 2)
(place pin :at (vec3 1 0 0))
(place pin :at (vec3 2 0 0))
`)
	if len(l.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(l.Items))
	}
	if l.Items[0].Position[0] != 1 || l.Items[1].Position[0] != 2 {
		t.Errorf("positions = %v, %v", l.Items[0].Position, l.Items[1].Position)
	}
}

func TestPlaceOverridesTemplate(t *testing.T) {
	l := evalLayout(t, `
(def hole (ring :inner-radius 1.6 :height 1.535 :color "#c0c0c0" :at (vec3 1 1 0)))
(place hole :at (vec3 5 5 0) :color (rgba 255 215 0) :sections 12)
`)
	h := l.Items[0]
	if h.Kind != layout.KindRing || h.InnerRadius != 1.6 || h.Height != 1.535 {
		t.Errorf("ring = %+v", h)
	}
	if h.OuterRadius != 0 {
		t.Errorf("outer radius = %v, want 0 (derived later)", h.OuterRadius)
	}
	if h.Position != (mgl64.Vec3{5, 5, 0}) {
		t.Errorf("position = %v, want place override", h.Position)
	}
	if *h.Color != (layout.Color{255, 215, 0, 255}) {
		t.Errorf("color = %v, want place override", *h.Color)
	}
	if h.Sections != 12 {
		t.Errorf("sections = %d, want 12", h.Sections)
	}
}

func TestVariableReference(t *testing.T) {
	l := evalLayout(t, `
(def thickness 1.535)
(def green (rgba 0 100 0))
(place (box :size (vec3 10 10 thickness) :color green) :at (vec3 0 0 (* thickness 0.5)))
`)
	it := l.Items[0]
	if it.Size[2] != 1.535 {
		t.Errorf("size z = %v, want 1.535 from variable", it.Size[2])
	}
	if it.Position[2] != 0.7675 {
		t.Errorf("position z = %v, want 0.7675", it.Position[2])
	}
}

func TestRotationAndRepeat(t *testing.T) {
	l := evalLayout(t, `
(place (cylinder :radius 5.5 :height 14)
       :at (vec3 204 154 6.2675)
       :rotate (rotation :axis (vec3 1 0 0) :degrees 90))
(place (box :size (vec3 0.6 0.6 8.5))
       :repeat (repeat :count 20 :step (vec3 2.54 0 0) :rows 2 :row-step (vec3 0 2.54 0)))
`)
	jack := l.Items[0]
	if jack.Rotation == nil {
		t.Fatal("expected rotation")
	}
	if jack.Rotation.Axis != (mgl64.Vec3{1, 0, 0}) || jack.Rotation.Degrees != 90 {
		t.Errorf("rotation = %+v", *jack.Rotation)
	}

	pins := l.Items[1]
	if pins.Repeat == nil {
		t.Fatal("expected repeat")
	}
	want := layout.Repeat{Count: 20, Step: mgl64.Vec3{2.54, 0, 0}, Rows: 2, RowStep: mgl64.Vec3{0, 2.54, 0}}
	if *pins.Repeat != want {
		t.Errorf("repeat = %+v, want %+v", *pins.Repeat, want)
	}
}

func TestRotationDefaultsToZAxis(t *testing.T) {
	l := evalLayout(t, `(place (box :size (vec3 1 1 1)) :rotate (rotation :degrees 45))`)
	if l.Items[0].Rotation.Axis != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("axis = %v, want Z", l.Items[0].Rotation.Axis)
	}
}

func TestScatter(t *testing.T) {
	l := evalLayout(t, `
(scatter :name "smd" :seed 42 :attempts 40
         :x (list 15 199) :y (list 25 140)
         :width (list 1 2.5) :depth (list 0.8 1.5)
         :height 0.8 :z 1.1675 :color (rgba 80 60 40)
         :avoid (list (list 89.88 82.5 15 15)))
`)
	if len(l.Fillers) != 1 {
		t.Fatalf("expected 1 filler, got %d", len(l.Fillers))
	}
	f := l.Fillers[0]
	if f.Seed != 42 || f.Attempts != 40 || f.Name != "smd" {
		t.Errorf("filler = %+v", f)
	}
	if f.X != (layout.Range{15, 199}) || f.Depth != (layout.Range{0.8, 1.5}) {
		t.Errorf("ranges x=%v depth=%v", f.X, f.Depth)
	}
	if len(f.Avoid) != 1 || f.Avoid[0].Center != [2]float64{89.88, 82.5} || f.Avoid[0].Half != [2]float64{15, 15} {
		t.Errorf("avoid = %+v", f.Avoid)
	}
}

func TestLayoutMetadata(t *testing.T) {
	l := evalLayout(t, `(layout :name "evb-lan9692" :version "B" :units "mm" :sections 48)`)
	if l.Name != "evb-lan9692" || l.Version != "B" || l.Units != "mm" || l.Sections != 48 {
		t.Errorf("layout = %+v", l)
	}
}

// ---------------------------------------------------------------------------
// Error tests
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"vec3 non-number", `(vec3 1 2 "z")`, "expected number"},
		{"rgba arity", `(rgba 1 2)`, "3 or 4"},
		{"rgba range", `(rgba 1 2 256)`, "out of range"},
		{"rgba fraction", `(rgba 1 2 0.5)`, "expected integer"},
		{"bad hex", `(rgba "#12")`, ""},
		{"place without shape", `(place :at (vec3 0 0 0))`, "requires"},
		{"place non-shape", `(place (vec3 0 0 0))`, "expected box"},
		{"repeat zero count", `(repeat :count 0)`, "at least 1"},
		{"rotate wrong type", `(place (box :size (vec3 1 1 1)) :rotate 90)`, "expected rotation"},
		{"scatter bad range", `(scatter :x (list 1 2 3))`, "expected (min max)"},
		{"scatter bad avoid", `(scatter :avoid (list (list 1 2)))`, "avoid 0"},
		{"size not vec3", `(box :size 1)`, "expected vec3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if l != nil {
				t.Fatal("expected nil layout")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval error")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.wantMsg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Script and YAML describe the same board
// ---------------------------------------------------------------------------

const equivalentScript = `
(layout :name "mini" :version "A" :units "mm" :sections 24)
(place (box :size (vec3 50 40 1.535) :color (rgba "#006400")) :at (vec3 25 20 0) :name "pcb")
(place (box :size (vec3 0.6 0.6 8.5) :color (rgba 218 165 32))
       :at (vec3 10 10 5.0175) :name "pins"
       :repeat (repeat :count 4 :step (vec3 2.54 0 0) :rows 2 :row-step (vec3 0 2.54 0)))
(place (cylinder :radius 5.5 :height 14 :color (rgba 30 30 30))
       :at (vec3 40 30 6.2675) :name "jack"
       :rotate (rotation :axis (vec3 1 0 0) :degrees 90))
(place (ring :inner-radius 1.6 :height 1.535) :at (vec3 3 3 0) :name "hole")
(scatter :seed 7 :attempts 10 :x (list 5 45) :y (list 5 35)
         :width (list 1 2) :depth (list 1 2) :height 0.8 :z 1.1675
         :avoid (list (list 25 20 5 5)))
`

const equivalentYAML = `
name: mini
version: A
units: mm
sections: 24
items:
  - name: pcb
    kind: box
    size: [50, 40, 1.535]
    color: "#006400"
    position: [25, 20, 0]
  - name: pins
    kind: box
    size: [0.6, 0.6, 8.5]
    color: [218, 165, 32]
    position: [10, 10, 5.0175]
    repeat: {count: 4, step: [2.54, 0, 0], rows: 2, row_step: [0, 2.54, 0]}
  - name: jack
    kind: cylinder
    radius: 5.5
    height: 14
    color: [30, 30, 30]
    position: [40, 30, 6.2675]
    rotation: {axis: [1, 0, 0], degrees: 90}
  - name: hole
    kind: ring
    inner_radius: 1.6
    height: 1.535
    position: [3, 3, 0]
fillers:
  - seed: 7
    attempts: 10
    x: [5, 45]
    y: [5, 35]
    width: [1, 2]
    depth: [1, 2]
    height: 0.8
    z: 1.1675
    avoid:
      - {center: [25, 20], half: [5, 5]}
`

func TestScriptMatchesYAML(t *testing.T) {
	fromScript := evalLayout(t, equivalentScript)
	fromYAML, err := layout.Parse([]byte(equivalentYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	a, err := layout.Expand(fromScript, nil)
	if err != nil {
		t.Fatalf("Expand(script) error = %v", err)
	}
	b, err := layout.Expand(fromYAML, nil)
	if err != nil {
		t.Fatalf("Expand(yaml) error = %v", err)
	}
	if len(a) < 11 || len(a) != len(b) {
		t.Fatalf("spec count script=%d yaml=%d", len(a), len(b))
	}
	if !reflect.DeepEqual(a, b) {
		for i := range a {
			if !reflect.DeepEqual(a[i], b[i]) {
				t.Errorf("spec %d differs:\n script %+v\n yaml   %+v", i, a[i], b[i])
			}
		}
	}
}
