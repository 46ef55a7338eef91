// Package config holds boardmesh build settings read from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/chazu/boardmesh/pkg/export"
	"github.com/chazu/boardmesh/pkg/kernel/sdfx"
	"github.com/chazu/boardmesh/pkg/primitive"
	"github.com/chazu/boardmesh/pkg/scene"
	"gopkg.in/yaml.v3"
)

// Supported boolean backends.
const (
	BackendSDFX     = "sdfx"
	BackendManifold = "manifold"
	BackendNone     = "none"
)

// Config is the full set of build settings. Zero-valued fields in a file
// keep their defaults.
type Config struct {
	Backend   string `yaml:"backend"`
	Cells     int    `yaml:"cells"`    // marching-cube cells along the longest ring axis
	Sections  int    `yaml:"sections"` // cylinder and ring facets
	Up        string `yaml:"up"`       // target up axis: x, y or z
	GLB       string `yaml:"glb,omitempty"`
	GLTF      string `yaml:"gltf,omitempty"`
	Embed     bool   `yaml:"embed"`
	Generator string `yaml:"generator"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Backend:   BackendSDFX,
		Cells:     sdfx.DefaultMeshCells,
		Sections:  primitive.DefaultSections,
		Up:        "y",
		GLB:       "board.glb",
		Generator: export.DefaultGenerator,
	}
}

// Load reads path over Default(). A missing file yields the defaults and
// no error; a malformed or invalid one is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSDFX, BackendManifold, BackendNone:
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendSDFX, BackendManifold, BackendNone)
	}
	if c.Cells < 1 {
		return fmt.Errorf("cells %d must be positive", c.Cells)
	}
	if c.Sections < primitive.MinSections {
		return fmt.Errorf("sections %d, need at least %d", c.Sections, primitive.MinSections)
	}
	if _, err := scene.ParseAxis(c.Up); err != nil {
		return err
	}
	return nil
}

// UpAxis returns the parsed target up axis.
func (c Config) UpAxis() scene.Axis {
	a, err := scene.ParseAxis(c.Up)
	if err != nil {
		return scene.AxisY
	}
	return a
}

// ExportOptions returns the exporter settings.
func (c Config) ExportOptions() export.Options {
	return export.Options{Generator: c.Generator, Embed: c.Embed}
}
