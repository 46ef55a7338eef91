package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/chazu/boardmesh/pkg/config"
	"github.com/chazu/boardmesh/pkg/engine"
	"github.com/chazu/boardmesh/pkg/export"
	"github.com/chazu/boardmesh/pkg/layout"
	"github.com/chazu/boardmesh/pkg/primitive"
	"github.com/chazu/boardmesh/pkg/scene"
)

// ---------------------------------------------------------------------------
// Empty and malformed sources
// ---------------------------------------------------------------------------

func TestE2EEmptySource(t *testing.T) {
	app, cfg := newTestApp(t, config.BackendNone)

	l, err := app.Evaluate(context.Background(), "")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	s, err := app.Build(context.Background(), l)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected 0 parts, got %d", s.Len())
	}
	if s.Name != DefaultSceneName {
		t.Errorf("scene name = %q, want %q", s.Name, DefaultSceneName)
	}
	if _, err := app.Export(s); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got, err := export.Import(cfg.GLB)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("imported %d parts, want 0", got.Len())
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	app, _ := newTestApp(t, config.BackendNone)
	l, err := app.Evaluate(context.Background(), ";; just a comment\n; another one\n")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(l.Items) != 0 {
		t.Errorf("expected 0 items, got %d", len(l.Items))
	}
}

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.lisp")
	src := "(place (box :size (vec3 1 1 1)))\n(place (box :size (vec3 1 1 1))\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	app, _ := newTestApp(t, config.BackendNone)
	_, err := app.LoadLayout(context.Background(), path)
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("LoadLayout() error = %v, want *ScriptError", err)
	}
	if se.Path != path {
		t.Errorf("ScriptError.Path = %q, want %q", se.Path, path)
	}
	if len(se.Errors) == 0 || se.Errors[0].Message == "" {
		t.Errorf("expected an eval error message, got %v", se.Errors)
	}
	if !strings.HasPrefix(err.Error(), path) {
		t.Errorf("error %q should start with the file name", err)
	}
}

func TestE2EUnknownExtension(t *testing.T) {
	app, _ := newTestApp(t, config.BackendNone)
	_, err := app.LoadLayout(context.Background(), "board.json")
	if err == nil || !strings.Contains(err.Error(), "unknown layout extension") {
		t.Errorf("LoadLayout() error = %v, want unknown extension", err)
	}
}

// ---------------------------------------------------------------------------
// Invalid dimensions reach the caller with the failing entry named
// ---------------------------------------------------------------------------

func TestE2EInvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"zero width", `(place (box :size (vec3 0 1 1)) :name "flat")`},
		{"negative radius", `(place (cylinder :radius -1 :height 2) :name "flat")`},
		{"bore wider than ring", `(place (ring :inner-radius 3 :outer-radius 2 :height 1) :name "flat")`},
		{"too few sections", `(place (cylinder :radius 1 :height 2 :sections 2) :name "flat")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, config.BackendNone)
			l, err := app.Evaluate(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			_, err = app.Build(context.Background(), l)
			if !errors.Is(err, primitive.ErrInvalidDimension) {
				t.Fatalf("Build() error = %v, want ErrInvalidDimension", err)
			}
			if !strings.Contains(err.Error(), "(flat)") {
				t.Errorf("error %q should name the item", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Up axis
// ---------------------------------------------------------------------------

func TestE2EUpAxisZKeepsGeometry(t *testing.T) {
	app, cfg := newTestApp(t, config.BackendNone)
	cfg.Up = "z"
	app, err := NewApp(cfg, app.logger)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	l := &layout.Layout{Items: []layout.Item{{Kind: layout.KindBox, Size: [3]float64{1, 1, 1}, Position: [3]float64{0, 0, 5}}}}
	s, err := app.Build(context.Background(), l)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if s.Up != scene.AxisZ {
		t.Errorf("up = %v, want Z", s.Up)
	}
	if c := s.Part(0).Solid.Center(); c[2] != 5 {
		t.Errorf("center = %v, want z=5", c)
	}
}

func TestE2EBuildConvertsOnce(t *testing.T) {
	app, _ := newTestApp(t, config.BackendNone)
	l := &layout.Layout{Items: []layout.Item{{Kind: layout.KindBox, Size: [3]float64{1, 1, 1}, Position: [3]float64{0, 7, 5}}}}

	// Repeated builds of one layout all land in the same place.
	for i := 0; i < 3; i++ {
		s, err := app.Build(context.Background(), l)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if s.Up != scene.AxisY {
			t.Fatalf("up = %v, want Y", s.Up)
		}
		c := s.Part(0).Solid.Center()
		if c[1] < 4.99 || c[1] > 5.01 || c[2] > -6.99 || c[2] < -7.01 {
			t.Fatalf("build %d center = %v, want (0, 5, -7)", i, c)
		}
	}
}

// ---------------------------------------------------------------------------
// Outputs
// ---------------------------------------------------------------------------

func TestE2ENoOutputs(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendNone
	cfg.GLB = ""
	app, err := NewApp(cfg, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	if _, err := app.Export(scene.New("empty")); err == nil {
		t.Error("expected error with no outputs configured")
	}
}

func TestE2EUnwritableOutput(t *testing.T) {
	app, cfg := newTestApp(t, config.BackendNone)
	cfg.GLB = filepath.Join(t.TempDir(), "missing", "dir", "board.glb")
	app, err := NewApp(cfg, app.logger)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	_, err = app.Export(scene.New("empty"))
	var ioErr *export.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Export() error = %v, want *export.IOError", err)
	}
}

func TestE2EManifoldWithoutTag(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendManifold
	_, err := NewApp(cfg, nil)
	if err == nil {
		t.Skip("built with the manifold tag")
	}
	if !strings.Contains(err.Error(), "-tags=manifold") {
		t.Errorf("error %q should say how to enable manifold", err)
	}
}

// ---------------------------------------------------------------------------
// Rapid evaluation
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	app, _ := newTestApp(t, config.BackendNone)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := app.Evaluate(context.Background(), `(place (box :size (vec3 1 2 3)))`)
			if errors.Is(err, engine.ErrSuperseded) {
				return
			}
			if err != nil {
				t.Errorf("Evaluate() error = %v", err)
				return
			}
			if _, err := app.Build(context.Background(), l); err != nil {
				t.Errorf("Build() error = %v", err)
			}
		}()
	}
	wg.Wait()
}
