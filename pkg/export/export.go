// Package export serializes a scene to glTF 2.0, as a binary GLB container
// or as JSON text with embedded or external buffers, and reads such files
// back into scenes.
//
// Each part becomes one node referencing one mesh. A mesh holds a single
// POSITION accessor and one triangle primitive per distinct face color.
// Materials are shared across the whole document by exact RGBA.
package export

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/chazu/boardmesh/pkg/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// DefaultGenerator is written to asset.generator when Options leaves it
// empty.
const DefaultGenerator = "boardmesh"

// Options controls document generation.
type Options struct {
	// Generator is recorded in the asset header.
	Generator string
	// Embed selects base64 data URIs for Text instead of a sibling .bin
	// file. Binary ignores it.
	Embed bool
}

// IOError reports a failed file operation during export or import.
type IOError struct {
	Op   string // "create", "write", "encode", "close", "open"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("export: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Document builds the glTF document for s. It panics if s fails
// validation: a malformed solid is a programming error upstream.
func Document(s *scene.Scene, opts Options) *gltf.Document {
	if findings := s.Validate(); scene.HasErrors(findings) {
		panic(fmt.Sprintf("export: invalid scene %q: %v", s.Name, findings))
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = opts.Generator
	if doc.Asset.Generator == "" {
		doc.Asset.Generator = DefaultGenerator
	}
	root := doc.Scenes[0]
	root.Name = s.Name
	root.Extras = sceneExtras(s)

	materials := make(map[kernel.Color]int)
	for _, p := range s.Parts() {
		node := &gltf.Node{Name: p.Name}
		if !p.Solid.IsEmpty() {
			node.Mesh = gltf.Index(writeMesh(doc, p, materials))
		}
		doc.Nodes = append(doc.Nodes, node)
		root.Nodes = append(root.Nodes, len(doc.Nodes)-1)
	}
	return doc
}

func sceneExtras(s *scene.Scene) map[string]string {
	extras := map[string]string{"up": s.Up.String()}
	for k, v := range s.Meta {
		extras[k] = v
	}
	return extras
}

// writeMesh appends the part's mesh and returns its index.
func writeMesh(doc *gltf.Document, p scene.Part, materials map[kernel.Color]int) int {
	positions := make([][3]float32, len(p.Solid.Vertices))
	for i, v := range p.Solid.Vertices {
		positions[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
	}
	position := modeler.WritePosition(doc, positions)

	mesh := &gltf.Mesh{Name: p.Name}
	for _, g := range groupByColor(p.Solid) {
		indices := modeler.WriteIndices(doc, g.indices)
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Attributes: map[string]int{gltf.POSITION: position},
			Indices:    gltf.Index(indices),
			Material:   gltf.Index(material(doc, materials, g.color)),
		})
	}
	doc.Meshes = append(doc.Meshes, mesh)
	return len(doc.Meshes) - 1
}

type colorGroup struct {
	color   kernel.Color
	indices []uint32
}

// groupByColor splits the faces into one index list per color, in order of
// first appearance. Uncolored solids are exported white.
func groupByColor(s *kernel.Solid) []colorGroup {
	var groups []colorGroup
	slot := make(map[kernel.Color]int)
	for i, f := range s.Faces {
		c := kernel.RGBA(255, 255, 255, 255)
		if s.FaceColors != nil {
			c = s.FaceColors[i]
		}
		j, ok := slot[c]
		if !ok {
			j = len(groups)
			slot[c] = j
			groups = append(groups, colorGroup{color: c})
		}
		groups[j].indices = append(groups[j].indices, f[0], f[1], f[2])
	}
	return groups
}

// material returns the index of the material for c, creating it on first
// use.
func material(doc *gltf.Document, materials map[kernel.Color]int, c kernel.Color) int {
	if i, ok := materials[c]; ok {
		return i
	}
	factor := c.Factor()
	metallic, roughness := 0.0, 0.8
	m := &gltf.Material{
		Name: "rgba_" + strings.TrimPrefix(c.String(), "#"),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &factor,
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
	}
	if !c.Opaque() {
		m.AlphaMode = gltf.AlphaBlend
	}
	doc.Materials = append(doc.Materials, m)
	materials[c] = len(doc.Materials) - 1
	return materials[c]
}

// Binary writes s to path as a GLB container.
func Binary(s *scene.Scene, path string, opts Options) (err error) {
	doc := Document(s, opts)

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	enc := gltf.NewEncoder(f)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	return nil
}

// Text writes s to path as glTF JSON. With opts.Embed the buffer is a
// base64 data URI; otherwise it is written next to path with the same base
// name and a .bin extension. A failed call may leave either file partially
// written.
func Text(s *scene.Scene, path string, opts Options) (err error) {
	doc := Document(s, opts)
	// The encoder embeds buffers left without a URI.
	if !opts.Embed {
		for i, buf := range doc.Buffers {
			buf.URI = BufferName(path, i)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	dir := filepath.Dir(path)
	enc := gltf.NewEncoderFS(f, siblingFS{FS: os.DirFS(dir), dir: dir})
	enc.AsBinary = false
	enc.SetJSONIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	return nil
}

// siblingFS creates external buffers in the directory of the glTF file.
type siblingFS struct {
	fs.FS
	dir string
}

func (d siblingFS) Create(name string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(d.dir, name))
}

var _ gltf.CreateFS = siblingFS{}

// BufferName returns the external buffer file name Text uses for buffer i
// of the document written to path: "board.bin", then "board_1.bin", ...
func BufferName(path string, i int) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i == 0 {
		return base + ".bin"
	}
	return fmt.Sprintf("%s_%d.bin", base, i)
}
