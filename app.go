package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/boardmesh/pkg/config"
	"github.com/chazu/boardmesh/pkg/engine"
	"github.com/chazu/boardmesh/pkg/export"
	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/chazu/boardmesh/pkg/kernel/manifold"
	"github.com/chazu/boardmesh/pkg/kernel/sdfx"
	"github.com/chazu/boardmesh/pkg/layout"
	"github.com/chazu/boardmesh/pkg/primitive"
	"github.com/chazu/boardmesh/pkg/scene"
	"github.com/chazu/boardmesh/pkg/tessellate"
)

// DefaultSceneName names scenes built from layouts without a name.
const DefaultSceneName = "board"

// App runs the layout to glTF pipeline.
type App struct {
	cfg     config.Config
	engine  *engine.Engine
	factory *primitive.Factory
	logger  *slog.Logger
}

// ScriptError carries the evaluation errors of a layout script.
type ScriptError struct {
	Path   string
	Errors []engine.EvalError
}

func (e *ScriptError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		msgs[i] = ee.Error()
	}
	name := e.Path
	if name == "" {
		name = "script"
	}
	return fmt.Sprintf("%s: %s", name, strings.Join(msgs, "; "))
}

// Summary describes a finished run.
type Summary struct {
	Parts     int
	Triangles int
	Fallbacks int64
	Outputs   []string
}

// NewApp creates an App using the boolean backend named by cfg.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k, err := newKernel(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("boolean backend selected", "kernel", k.Name())
	return &App{
		cfg:     cfg,
		engine:  engine.NewEngine(),
		factory: primitive.NewFactory(k, logger),
		logger:  logger,
	}, nil
}

func newKernel(cfg config.Config) (kernel.Kernel, error) {
	switch cfg.Backend {
	case config.BackendSDFX:
		return sdfx.New(cfg.Cells), nil
	case config.BackendManifold:
		return manifold.New()
	case config.BackendNone:
		return kernel.Unsupported{}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Fallbacks returns how many rings were built without their bore so far.
func (a *App) Fallbacks() int64 {
	return a.factory.Fallbacks()
}

// LoadLayout reads a layout file: YAML for .yaml and .yml, a script for
// .lisp and .zy.
func (a *App) LoadLayout(ctx context.Context, path string) (*layout.Layout, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return layout.Load(path)
	case ".lisp", ".zy":
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		l, err := a.Evaluate(ctx, string(source))
		var se *ScriptError
		if errors.As(err, &se) {
			se.Path = path
		}
		return l, err
	}
	return nil, fmt.Errorf("%s: unknown layout extension %q", path, filepath.Ext(path))
}

// Evaluate runs a layout script.
func (a *App) Evaluate(ctx context.Context, source string) (*layout.Layout, error) {
	l, evalErrs, err := a.engine.EvaluateContext(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		return nil, &ScriptError{Errors: evalErrs}
	}
	return l, nil
}

// Build expands l, tessellates every primitive and returns the scene with
// its up axis converted once from Z to the configured axis.
func (a *App) Build(ctx context.Context, l *layout.Layout) (*scene.Scene, error) {
	specs, err := layout.Expand(l, nil)
	if err != nil {
		return nil, err
	}
	solids, err := tessellate.Parts(ctx, specs, a.factory, tessellate.Options{Sections: a.cfg.Sections})
	if err != nil {
		return nil, err
	}

	name := l.Name
	if name == "" {
		name = DefaultSceneName
	}
	s, err := scene.Build(name, scene.Named(solids))
	if err != nil {
		return nil, err
	}
	for key, v := range map[string]string{"layout": l.Name, "version": l.Version, "units": l.Units} {
		if v != "" {
			s.Meta[key] = v
		}
	}

	up := a.cfg.UpAxis()
	if up == scene.AxisZ {
		return s, nil
	}
	return scene.ConvertUpAxis(s, scene.AxisZ, up)
}

// Export writes s to every configured output.
func (a *App) Export(s *scene.Scene) ([]string, error) {
	opts := a.cfg.ExportOptions()
	var outputs []string
	if a.cfg.GLB != "" {
		if err := export.Binary(s, a.cfg.GLB, opts); err != nil {
			return outputs, err
		}
		outputs = append(outputs, a.cfg.GLB)
	}
	if a.cfg.GLTF != "" {
		if err := export.Text(s, a.cfg.GLTF, opts); err != nil {
			return outputs, err
		}
		outputs = append(outputs, a.cfg.GLTF)
	}
	if len(outputs) == 0 {
		return nil, errors.New("no output configured")
	}
	return outputs, nil
}

// Run loads, builds and exports the layout at path.
func (a *App) Run(ctx context.Context, path string) (Summary, error) {
	l, err := a.LoadLayout(ctx, path)
	if err != nil {
		return Summary{}, err
	}
	s, err := a.Build(ctx, l)
	if err != nil {
		return Summary{}, err
	}
	outputs, err := a.Export(s)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		Parts:     s.Len(),
		Triangles: s.TriangleCount(),
		Fallbacks: a.Fallbacks(),
		Outputs:   outputs,
	}
	a.logger.Info("export complete",
		"scene", s.Name,
		"parts", sum.Parts,
		"triangles", sum.Triangles,
		"fallbacks", sum.Fallbacks)
	return sum, nil
}
