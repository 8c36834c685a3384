package kernel

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Weld merges vertices that share both position and normal bit patterns
// into one indexed vertex. The triangle count and every triangle's
// positions and normals are unchanged; only the index list differs from
// the soup layout. Flat normals mean vertices only merge within faces that
// are coplanar.
func Weld(m *Mesh) *Mesh {
	out := &Mesh{
		PartName: m.PartName,
		Indices:  make([]uint32, 0, len(m.Indices)),
	}
	seen := make(map[uint64][]uint32, m.VertexCount())

	var key [24]byte
	for _, src := range m.Indices {
		p := m.Vertices[src*3 : src*3+3]
		n := m.Normals[src*3 : src*3+3]
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(key[j*4:], math.Float32bits(p[j]))
			binary.LittleEndian.PutUint32(key[12+j*4:], math.Float32bits(n[j]))
		}
		h := xxhash.Sum64(key[:])

		idx, ok := findVertex(out, seen[h], p, n)
		if !ok {
			idx = uint32(out.VertexCount())
			out.Vertices = append(out.Vertices, p...)
			out.Normals = append(out.Normals, n...)
			seen[h] = append(seen[h], idx)
		}
		out.Indices = append(out.Indices, idx)
	}
	return out
}

// findVertex resolves hash collisions by comparing bit patterns.
func findVertex(m *Mesh, candidates []uint32, p, n []float32) (uint32, bool) {
	for _, c := range candidates {
		if sameBits(m.Vertices[c*3:c*3+3], p) && sameBits(m.Normals[c*3:c*3+3], n) {
			return c, true
		}
	}
	return 0, false
}

func sameBits(a, b []float32) bool {
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}
