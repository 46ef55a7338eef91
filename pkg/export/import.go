package export

import (
	"fmt"
	"math"

	"github.com/chazu/boardmesh/pkg/kernel"
	"github.com/chazu/boardmesh/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Import reads a .glb or .gltf file into a Y-up scene. Every node with a
// mesh becomes one part, in depth-first scene order, with its world
// transform applied. Face colors come from COLOR_0 when present, otherwise
// from the primitive's material base color.
//
// Only triangle-list primitives are supported.
func Import(path string) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	root := 0
	if doc.Scene != nil {
		root = *doc.Scene
	}
	if root >= len(doc.Scenes) {
		return nil, fmt.Errorf("export: %s: scene %d out of range", path, root)
	}
	gs := doc.Scenes[root]

	out := scene.New(gs.Name)
	out.Up = scene.AxisY
	if extras, ok := gs.Extras.(map[string]any); ok {
		for k, v := range extras {
			if str, ok := v.(string); ok && k != "up" {
				out.Meta[k] = str
			}
		}
	}

	r := &reader{doc: doc, out: out}
	for _, n := range gs.Nodes {
		if err := r.visit(n, mgl64.Ident4()); err != nil {
			return nil, fmt.Errorf("export: %s: %w", path, err)
		}
	}
	return out, nil
}

type reader struct {
	doc *gltf.Document
	out *scene.Scene
}

func (r *reader) visit(n int, parent mgl64.Mat4) error {
	if n < 0 || n >= len(r.doc.Nodes) {
		return fmt.Errorf("node %d out of range", n)
	}
	node := r.doc.Nodes[n]
	world := parent.Mul4(localMatrix(node))

	if node.Mesh != nil {
		s, err := r.readMesh(*node.Mesh, world)
		if err != nil {
			return fmt.Errorf("node %d: %w", n, err)
		}
		name := node.Name
		if name == "" {
			name = scene.PartName(r.out.Len())
		}
		if err := r.out.AddPart(s, name); err != nil {
			return err
		}
	}
	for _, c := range node.Children {
		if err := r.visit(c, world); err != nil {
			return err
		}
	}
	return nil
}

// localMatrix returns the node's matrix, or T*R*S when no matrix is set.
func localMatrix(node *gltf.Node) mgl64.Mat4 {
	m := mgl64.Mat4(node.MatrixOrDefault())
	if m != mgl64.Ident4() {
		return m
	}
	t := node.TranslationOrDefault()
	q := node.RotationOrDefault()
	sc := node.ScaleOrDefault()
	rot := mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}.Mat4()
	return mgl64.Translate3D(t[0], t[1], t[2]).Mul4(rot).Mul4(mgl64.Scale3D(sc[0], sc[1], sc[2]))
}

// readMesh merges every primitive of mesh m into one solid. Primitives
// sharing a POSITION accessor share vertices.
func (r *reader) readMesh(m int, world mgl64.Mat4) (*kernel.Solid, error) {
	if m < 0 || m >= len(r.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", m)
	}
	s := &kernel.Solid{}
	offsets := make(map[int]uint32)

	for pi, p := range r.doc.Meshes[m].Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			return nil, fmt.Errorf("mesh %d primitive %d: unsupported mode %v", m, pi, p.Mode)
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			return nil, fmt.Errorf("mesh %d primitive %d: no POSITION attribute", m, pi)
		}

		offset, seen := offsets[posIdx]
		var count int
		if !seen {
			positions, err := modeler.ReadPosition(r.doc, r.doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", m, pi, err)
			}
			offset = uint32(len(s.Vertices))
			offsets[posIdx] = offset
			for _, v := range positions {
				pos := mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
				s.Vertices = append(s.Vertices, world.Mul4x1(pos.Vec4(1)).Vec3())
			}
			count = len(positions)
		} else {
			count = r.doc.Accessors[posIdx].Count
		}

		indices, err := r.readIndices(p, count)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", m, pi, err)
		}
		if len(indices)%3 != 0 {
			return nil, fmt.Errorf("mesh %d primitive %d: %d indices is not a triangle list", m, pi, len(indices))
		}

		colors, err := r.faceColors(p, indices)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", m, pi, err)
		}
		for i := 0; i < len(indices); i += 3 {
			s.Faces = append(s.Faces, [3]uint32{
				offset + indices[i],
				offset + indices[i+1],
				offset + indices[i+2],
			})
		}
		s.FaceColors = append(s.FaceColors, colors...)
	}

	if world.Mat3().Det() < 0 {
		for i, f := range s.Faces {
			s.Faces[i] = [3]uint32{f[0], f[2], f[1]}
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *reader) readIndices(p *gltf.Primitive, count int) ([]uint32, error) {
	if p.Indices == nil {
		indices := make([]uint32, count)
		for i := range indices {
			indices[i] = uint32(i)
		}
		return indices, nil
	}
	return modeler.ReadIndices(r.doc, r.doc.Accessors[*p.Indices], nil)
}

func (r *reader) faceColors(p *gltf.Primitive, indices []uint32) ([]kernel.Color, error) {
	faces := len(indices) / 3
	colors := make([]kernel.Color, faces)

	if idx, ok := p.Attributes[gltf.COLOR_0]; ok {
		vc, err := modeler.ReadColor(r.doc, r.doc.Accessors[idx], nil)
		if err != nil {
			return nil, err
		}
		for i := range colors {
			v := indices[3*i]
			if int(v) >= len(vc) {
				return nil, fmt.Errorf("color index %d out of range", v)
			}
			colors[i] = kernel.Color(vc[v])
		}
		return colors, nil
	}

	c := r.materialColor(p.Material)
	for i := range colors {
		colors[i] = c
	}
	return colors, nil
}

// materialColor returns the material's base color, white when unset.
func (r *reader) materialColor(m *int) kernel.Color {
	white := kernel.RGBA(255, 255, 255, 255)
	if m == nil || *m >= len(r.doc.Materials) {
		return white
	}
	pbr := r.doc.Materials[*m].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return white
	}
	var c kernel.Color
	for i, f := range pbr.BaseColorFactor {
		c[i] = uint8(math.Round(math.Max(0, math.Min(1, f)) * 255))
	}
	return c
}
