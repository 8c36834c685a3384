package kernel

import "math"

// Mesh is a triangle mesh ready for export or rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
// Meshes straight out of marching cubes are triangle soups whose indices
// are simply 0..n-1; Weld produces shared-vertex meshes.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which job this came from
}

// NewMesh builds a soup mesh from flat triangle vertices, computing flat
// normals and sequential indices.
func NewMesh(name string, vertices []float32) *Mesh {
	n := len(vertices) / 3
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return &Mesh{
		Vertices: vertices,
		Normals:  ComputeNormals(vertices),
		Indices:  indices,
		PartName: name,
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// IsSoup reports whether indices are the identity sequence.
func (m *Mesh) IsSoup() bool {
	if len(m.Indices) != m.VertexCount() {
		return false
	}
	for i, idx := range m.Indices {
		if idx != uint32(i) {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned bounding box of the vertices. NaN
// coordinates are skipped. An empty mesh returns zero boxes.
func (m *Mesh) Bounds() (min, max [3]float32) {
	first := true
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		v := m.Vertices[i : i+3]
		if isNaN(v[0]) || isNaN(v[1]) || isNaN(v[2]) {
			continue
		}
		for j := 0; j < 3; j++ {
			if first || v[j] < min[j] {
				min[j] = v[j]
			}
			if first || v[j] > max[j] {
				max[j] = v[j]
			}
		}
		first = false
	}
	return min, max
}

func isNaN(f float32) bool {
	return math.IsNaN(float64(f))
}
