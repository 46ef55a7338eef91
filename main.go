// Command boardmesh builds a 3D board model from a layout file and writes
// it as glTF.
//
//	boardmesh -layout examples/evb-lan9692.yaml -glb board.glb
//	boardmesh -layout examples/three-boxes.lisp -gltf out/boxes.gltf -embed
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/chazu/boardmesh/pkg/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("boardmesh", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: boardmesh -layout FILE [flags]\n\n")
		fs.PrintDefaults()
	}
	var (
		layoutPath = fs.String("layout", "", "layout file (.yaml, .yml, .lisp or .zy)")
		configPath = fs.String("config", "boardmesh.yaml", "settings file; missing means defaults")
		glb        = fs.String("glb", "", "binary glTF output path")
		gltf       = fs.String("gltf", "", "text glTF output path")
		embed      = fs.Bool("embed", false, "embed buffers in the text glTF as data URIs")
		backend    = fs.String("backend", "", "ring subtraction backend: sdfx, manifold or none")
		cells      = fs.Int("cells", 0, "marching-cube cells for the sdfx backend")
		sections   = fs.Int("sections", 0, "default facets for cylinders and rings")
		up         = fs.String("up", "", "output up axis: x, y or z")
		verbose    = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *layoutPath == "" {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", "err", err)
		return 1
	}

	// Flags given on the command line win over the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "glb":
			cfg.GLB = *glb
		case "gltf":
			cfg.GLTF = *gltf
			if !isSet(fs, "glb") {
				cfg.GLB = ""
			}
		case "embed":
			cfg.Embed = *embed
		case "backend":
			cfg.Backend = *backend
		case "cells":
			cfg.Cells = *cells
		case "sections":
			cfg.Sections = *sections
		case "up":
			cfg.Up = *up
		}
	})

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Error("invalid settings", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sum, err := app.Run(ctx, *layoutPath)
	if err != nil {
		logger.Error("build failed", "layout", *layoutPath, "err", err)
		return 1
	}

	fmt.Printf("%d parts, %d triangles", sum.Parts, sum.Triangles)
	if sum.Fallbacks > 0 {
		fmt.Printf(", %d rings without bore", sum.Fallbacks)
	}
	fmt.Println()
	for _, out := range sum.Outputs {
		fmt.Println("wrote", out)
	}
	return 0
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
