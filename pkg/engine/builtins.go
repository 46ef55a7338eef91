package engine

import (
	"fmt"
	"math"

	"github.com/chazu/boardmesh/pkg/layout"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an mgl64.Vec3.
type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps a layout.Color.
type sexpColor struct {
	color layout.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgba %d %d %d %d)", c.color[0], c.color[1], c.color[2], c.color[3])
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpRotation wraps a layout.Rotation.
type sexpRotation struct {
	rot layout.Rotation
}

func (r *sexpRotation) SexpString(ps *zygo.PrintState) string {
	a := r.rot.Axis
	return fmt.Sprintf("(rotation :axis (vec3 %g %g %g) :degrees %g)", a[0], a[1], a[2], r.rot.Degrees)
}
func (r *sexpRotation) Type() *zygo.RegisteredType { return nil }

// sexpRepeat wraps a layout.Repeat.
type sexpRepeat struct {
	rep layout.Repeat
}

func (r *sexpRepeat) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(repeat :count %d :rows %d)", r.rep.Count, r.rep.Rows)
}
func (r *sexpRepeat) Type() *zygo.RegisteredType { return nil }

// sexpItem wraps a layout.Item. Shape builtins return unplaced templates;
// place returns the item it appended to the layout.
type sexpItem struct {
	item layout.Item
}

func (i *sexpItem) SexpString(ps *zygo.PrintState) string {
	if i.item.Name != "" {
		return fmt.Sprintf("(%s %q)", i.item.Kind, i.item.Name)
	}
	return fmt.Sprintf("(%s)", i.item.Kind)
}
func (i *sexpItem) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats are accepted when integral.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toColor extracts a color from a sexpColor or a hex string.
func toColor(s zygo.Sexp) (layout.Color, error) {
	switch v := s.(type) {
	case *sexpColor:
		return v.color, nil
	case *zygo.SexpStr:
		c, err := layout.ParseHex(v.S)
		if err != nil {
			return layout.Color{}, err
		}
		return layout.Color(c), nil
	}
	return layout.Color{}, fmt.Errorf("expected rgba or hex string, got %T (%s)", s, s.SexpString(nil))
}

// toItem extracts a layout.Item from a sexpItem.
func toItem(s zygo.Sexp) (layout.Item, error) {
	if i, ok := s.(*sexpItem); ok {
		return i.item, nil
	}
	return layout.Item{}, fmt.Errorf("expected box, cylinder or ring, got %T (%s)", s, s.SexpString(nil))
}

// toRange extracts a two-number list or array.
func toRange(s zygo.Sexp) (layout.Range, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return layout.Range{}, err
	}
	if len(items) != 2 {
		return layout.Range{}, fmt.Errorf("expected (min max), got %d values", len(items))
	}
	var r layout.Range
	for i, it := range items {
		f, err := toFloat64(it)
		if err != nil {
			return layout.Range{}, err
		}
		r[i] = f
	}
	return r, nil
}

// toRect extracts a (cx cy hx hy) exclusion zone.
func toRect(s zygo.Sexp) (layout.Rect, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return layout.Rect{}, err
	}
	if len(items) != 4 {
		return layout.Rect{}, fmt.Errorf("expected (cx cy half-x half-y), got %d values", len(items))
	}
	var v [4]float64
	for i, it := range items {
		f, err := toFloat64(it)
		if err != nil {
			return layout.Rect{}, err
		}
		v[i] = f
	}
	return layout.Rect{Center: [2]float64{v[0], v[1]}, Half: [2]float64{v[2], v[3]}}, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// floatArg stores keyword key into dst when present.
func (pa kwArgs) floatArg(fn, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

func (pa kwArgs) intArg(fn, key string, dst *int) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = n
	return nil
}

func (pa kwArgs) vec3Arg(fn, key string, dst *mgl64.Vec3) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = vec
	return nil
}

// commonArgs applies the keywords shared by every shape and by place:
// :name :color :at :rotate :repeat :sections.
func (pa kwArgs) commonArgs(fn string, item *layout.Item) error {
	if v, ok := pa.kw["name"]; ok {
		s, err := toString(v)
		if err != nil {
			return fmt.Errorf("%s: name: %w", fn, err)
		}
		item.Name = s
	}
	if v, ok := pa.kw["color"]; ok {
		c, err := toColor(v)
		if err != nil {
			return fmt.Errorf("%s: color: %w", fn, err)
		}
		item.Color = &c
	}
	if err := pa.vec3Arg(fn, "at", &item.Position); err != nil {
		return err
	}
	if v, ok := pa.kw["rotate"]; ok {
		r, ok := v.(*sexpRotation)
		if !ok {
			return fmt.Errorf("%s: rotate: expected rotation, got %T (%s)", fn, v, v.SexpString(nil))
		}
		rot := r.rot
		item.Rotation = &rot
	}
	if v, ok := pa.kw["repeat"]; ok {
		r, ok := v.(*sexpRepeat)
		if !ok {
			return fmt.Errorf("%s: repeat: expected repeat, got %T (%s)", fn, v, v.SexpString(nil))
		}
		rep := r.rep
		item.Repeat = &rep
	}
	return pa.intArg(fn, "sections", &item.Sections)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the layout DSL builtins into a zygomys
// environment. Shape builtins build templates; place and scatter append to
// l during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, l *layout.Layout) {

	// -----------------------------------------------------------------------
	// (layout :name "evb-lan9692" :version "B" :units "mm" :sections 32)
	// -----------------------------------------------------------------------
	env.AddFunction("layout", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		for key, dst := range map[string]*string{"name": &l.Name, "version": &l.Version, "units": &l.Units} {
			if v, ok := pa.kw[key]; ok {
				s, err := toString(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("layout: %s: %w", key, err)
				}
				*dst = s
			}
		}
		if err := pa.intArg("layout", "sections", &l.Sections); err != nil {
			return zygo.SexpNull, err
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v mgl64.Vec3
		for i, label := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", label, err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (rgba 0 100 0) (rgba 255 255 255 200) (rgba "#c0c0c0")
	// -----------------------------------------------------------------------
	env.AddFunction("rgba", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 1 {
			c, err := toColor(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rgba: %w", err)
			}
			return &sexpColor{color: c}, nil
		}
		if len(args) != 3 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("rgba requires 3 or 4 channels, got %d", len(args))
		}
		c := layout.Color{0, 0, 0, 255}
		for i, a := range args {
			n, err := toInt(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rgba: channel %d: %w", i, err)
			}
			if n < 0 || n > 255 {
				return zygo.SexpNull, fmt.Errorf("rgba: channel %d: %d out of range 0-255", i, n)
			}
			c[i] = uint8(n)
		}
		return &sexpColor{color: c}, nil
	})

	// -----------------------------------------------------------------------
	// (rotation :axis (vec3 1 0 0) :degrees 90)
	// -----------------------------------------------------------------------
	env.AddFunction("rotation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		rot := layout.Rotation{Axis: mgl64.Vec3{0, 0, 1}}
		if err := pa.vec3Arg("rotation", "axis", &rot.Axis); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.floatArg("rotation", "degrees", &rot.Degrees); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpRotation{rot: rot}, nil
	})

	// -----------------------------------------------------------------------
	// (repeat :count 20 :step (vec3 2.54 0 0) :rows 2 :row-step (vec3 0 2.54 0))
	// -----------------------------------------------------------------------
	env.AddFunction("repeat", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var rep layout.Repeat
		if err := pa.intArg("repeat", "count", &rep.Count); err != nil {
			return zygo.SexpNull, err
		}
		if rep.Count < 1 {
			return zygo.SexpNull, fmt.Errorf("repeat: count must be at least 1, got %d", rep.Count)
		}
		if err := pa.vec3Arg("repeat", "step", &rep.Step); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.intArg("repeat", "rows", &rep.Rows); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.vec3Arg("repeat", "row-step", &rep.RowStep); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpRepeat{rep: rep}, nil
	})

	// -----------------------------------------------------------------------
	// (box :size (vec3 214 150 1.535) :color (rgba 0 100 0) :at (vec3 107 75 0))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		item := layout.Item{Kind: layout.KindBox}
		if err := pa.vec3Arg("box", "size", &item.Size); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.commonArgs("box", &item); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpItem{item: item}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :radius 5.5 :height 14 :sections 32 :color ... :at ...)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		item := layout.Item{Kind: layout.KindCylinder}
		if err := pa.floatArg("cylinder", "radius", &item.Radius); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.floatArg("cylinder", "height", &item.Height); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.commonArgs("cylinder", &item); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpItem{item: item}, nil
	})

	// -----------------------------------------------------------------------
	// (ring :inner-radius 1.6 :outer-radius 2.4 :height 1.535 :at ...)
	// -----------------------------------------------------------------------
	env.AddFunction("ring", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		item := layout.Item{Kind: layout.KindRing}
		if err := pa.floatArg("ring", "inner-radius", &item.InnerRadius); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.floatArg("ring", "outer-radius", &item.OuterRadius); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.floatArg("ring", "height", &item.Height); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.commonArgs("ring", &item); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpItem{item: item}, nil
	})

	// -----------------------------------------------------------------------
	// (place (box ...) :at (vec3 0 0 19) :rotate (rotation ...) :repeat (repeat ...))
	//
	// Appends the template to the layout with the keyword overrides applied.
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a box, cylinder or ring as first argument")
		}
		item, err := toItem(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		if err := pa.commonArgs("place", &item); err != nil {
			return zygo.SexpNull, err
		}
		l.Items = append(l.Items, item)
		return &sexpItem{item: item}, nil
	})

	// -----------------------------------------------------------------------
	// (scatter :seed 42 :attempts 40 :x (list 15 199) :y (list 25 140)
	//          :width (list 1 2.5) :depth (list 0.8 1.5) :height 0.8 :z 1.17
	//          :color (rgba 80 60 40) :avoid (list (list 89.88 82.5 15 15)))
	// -----------------------------------------------------------------------
	env.AddFunction("scatter", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var f layout.Filler
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scatter: name: %w", err)
			}
			f.Name = s
		}
		if v, ok := pa.kw["seed"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scatter: seed: %w", err)
			}
			f.Seed = int64(n)
		}
		if err := pa.intArg("scatter", "attempts", &f.Attempts); err != nil {
			return zygo.SexpNull, err
		}
		for key, dst := range map[string]*layout.Range{"x": &f.X, "y": &f.Y, "width": &f.Width, "depth": &f.Depth} {
			if v, ok := pa.kw[key]; ok {
				r, err := toRange(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("scatter: %s: %w", key, err)
				}
				*dst = r
			}
		}
		if err := pa.floatArg("scatter", "height", &f.Height); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.floatArg("scatter", "z", &f.Z); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["color"]; ok {
			c, err := toColor(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scatter: color: %w", err)
			}
			f.Color = &c
		}
		if v, ok := pa.kw["avoid"]; ok {
			zones, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scatter: avoid: %w", err)
			}
			for i, z := range zones {
				r, err := toRect(z)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("scatter: avoid %d: %w", i, err)
				}
				f.Avoid = append(f.Avoid, r)
			}
		}
		l.Fillers = append(l.Fillers, f)
		return zygo.SexpNull, nil
	})
}
