// Package export writes meshes in the formats the command line accepts,
// choosing the encoder from the output file's extension.
package export

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chazu/isomesh/pkg/kernel"
	"github.com/chazu/isomesh/pkg/ply"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/unixpickle/model3d/model3d"
)

// ErrUnknownFormat is returned by WriteFile for unsupported extensions.
var ErrUnknownFormat = errors.New("export: unknown output format")

type writerFunc func(path string, m *kernel.Mesh) error

var writers = map[string]writerFunc{
	".ply":     ply.WriteFile,
	".ply.zst": ply.WriteFile,
	".glb":     WriteGLB,
	".stl":     WriteSTLFile,
}

// Formats returns the supported extensions, sorted.
func Formats() []string {
	exts := make([]string, 0, len(writers))
	for ext := range writers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// FormatOf returns the registered extension that path ends with, preferring
// the longest match, or "" if none does.
func FormatOf(path string) string {
	lower := strings.ToLower(filepath.Base(path))
	best := ""
	for ext := range writers {
		if strings.HasSuffix(lower, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	return best
}

// WriteFile writes m to path in the format implied by its extension.
func WriteFile(path string, m *kernel.Mesh) error {
	ext := FormatOf(path)
	if ext == "" {
		return errors.Wrapf(ErrUnknownFormat, "%s (want one of %s)", path, strings.Join(Formats(), ", "))
	}
	return writers[ext](path, m)
}

// GLBDocument builds a single-mesh glTF document holding m's positions,
// normals and indices. An empty mesh yields a document with no meshes.
func GLBDocument(m *kernel.Mesh) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "isomesh"
	if m.IsEmpty() {
		return doc
	}

	n := m.VertexCount()
	positions := make([][3]float32, n)
	normals := make([][3]float32, n)
	for i := 0; i < n; i++ {
		positions[i] = [3]float32{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
		normals[i] = [3]float32{m.Normals[3*i], m.Normals[3*i+1], m.Normals[3*i+2]}
	}
	indices := make([]uint32, len(m.Indices))
	copy(indices, m.Indices)

	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	indicesAccessor := modeler.WriteIndices(doc, indices)

	prim := &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{
			gltf.POSITION: posAccessor,
			gltf.NORMAL:   normalAccessor,
		},
		Indices:  gltf.Index(indicesAccessor),
		Material: gltf.Index(0),
	}

	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{0.8, 0.8, 0.8, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque, DoubleSided: true}}

	name := m.PartName
	if name == "" {
		name = "isosurface"
	}
	doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

// WriteGLB writes m to path as binary glTF.
func WriteGLB(path string, m *kernel.Mesh) error {
	return errors.Wrapf(gltf.SaveBinary(GLBDocument(m), path), "export: glb %s", path)
}

// Triangles converts m to model3d triangles, one per face.
func Triangles(m *kernel.Mesh) []*model3d.Triangle {
	tris := make([]*model3d.Triangle, 0, m.TriangleCount())
	coord := func(i uint32) model3d.Coord3D {
		return model3d.XYZ(float64(m.Vertices[3*i]), float64(m.Vertices[3*i+1]), float64(m.Vertices[3*i+2]))
	}
	for k := 0; k+2 < len(m.Indices); k += 3 {
		tris = append(tris, &model3d.Triangle{coord(m.Indices[k]), coord(m.Indices[k+1]), coord(m.Indices[k+2])})
	}
	return tris
}

// ToModel3D returns m as a model3d mesh, for volume and manifold queries.
func ToModel3D(m *kernel.Mesh) *model3d.Mesh {
	return model3d.NewMeshTriangles(Triangles(m))
}

// WriteSTL encodes m as binary STL.
func WriteSTL(w io.Writer, m *kernel.Mesh) error {
	return errors.Wrap(model3d.WriteSTL(w, Triangles(m)), "export: stl")
}

// WriteSTLFile writes m to path as binary STL.
func WriteSTLFile(path string, m *kernel.Mesh) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "export: open %s for writing", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "export: close %s", path)
		}
	}()
	return WriteSTL(f, m)
}
