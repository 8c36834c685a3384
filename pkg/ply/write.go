// Package ply reads and writes the ASCII PLY dialect used for extracted
// isosurfaces: per-vertex x y z nx ny nz floats followed by triangle faces.
package ply

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/isomesh/pkg/kernel"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// CompressedSuffix marks files that are zstd-compressed PLY.
const CompressedSuffix = ".zst"

// IsCompressed reports whether path names a zstd-compressed file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedSuffix)
}

// Write encodes a mesh. vertices and normals are flat x,y,z triples of equal
// length. With nil indices the mesh is a triangle soup and face k is
// written as "3 3k 3k+1 3k+2"; otherwise indices lists shared-vertex
// triangles. Floats are written in the shortest form that reads back as the
// same float32.
func Write(w io.Writer, vertices, normals []float32, indices []uint32) error {
	if len(vertices)%3 != 0 {
		return errors.Errorf("ply: vertex buffer length %d is not a multiple of 3", len(vertices))
	}
	if len(normals) != len(vertices) {
		return errors.Errorf("ply: %d normal floats for %d vertex floats", len(normals), len(vertices))
	}
	if len(indices)%3 != 0 {
		return errors.Errorf("ply: index buffer length %d is not a multiple of 3", len(indices))
	}

	vertexCount := len(vertices) / 3
	for k, idx := range indices {
		if int64(idx) >= int64(vertexCount) {
			return errors.Errorf("ply: index %d at position %d out of range [0, %d)", idx, k, vertexCount)
		}
	}
	faceCount := len(vertices) / 9
	if indices != nil {
		faceCount = len(indices) / 3
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("ply\n")
	bw.WriteString("format ascii 1.0\n")
	bw.WriteString("element vertex " + strconv.Itoa(vertexCount) + "\n")
	for _, p := range vertexProperties {
		bw.WriteString("property float " + p + "\n")
	}
	bw.WriteString("element face " + strconv.Itoa(faceCount) + "\n")
	bw.WriteString("property list uchar int vertex_indices\n")
	bw.WriteString("end_header\n")

	buf := make([]byte, 0, 128)
	for i := 0; i < len(vertices); i += 3 {
		buf = buf[:0]
		buf = appendFloats(buf, vertices[i:i+3])
		buf = append(buf, ' ')
		buf = appendFloats(buf, normals[i:i+3])
		buf = append(buf, '\n')
		bw.Write(buf)
	}

	for k := 0; k < faceCount; k++ {
		i0, i1, i2 := uint64(3*k), uint64(3*k+1), uint64(3*k+2)
		if indices != nil {
			i0, i1, i2 = uint64(indices[3*k]), uint64(indices[3*k+1]), uint64(indices[3*k+2])
		}
		buf = append(buf[:0], '3', ' ')
		buf = strconv.AppendUint(buf, i0, 10)
		buf = append(buf, ' ')
		buf = strconv.AppendUint(buf, i1, 10)
		buf = append(buf, ' ')
		buf = strconv.AppendUint(buf, i2, 10)
		buf = append(buf, '\n')
		bw.Write(buf)
	}

	return errors.Wrap(bw.Flush(), "ply: write")
}

// WriteMesh encodes m, writing soup meshes in the flat face layout.
func WriteMesh(w io.Writer, m *kernel.Mesh) error {
	var indices []uint32
	if !m.IsSoup() {
		indices = m.Indices
	}
	return Write(w, m.Vertices, m.Normals, indices)
}

// WriteFile writes m to path, compressing with zstd when the path ends in
// ".zst". The file is closed on every path; a failure leaves whatever was
// already flushed.
func WriteFile(path string, m *kernel.Mesh) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "ply: open %s for writing", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "ply: close %s", path)
		}
	}()

	if !IsCompressed(path) {
		return WriteMesh(f, m)
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return errors.Wrap(err, "ply: zstd writer")
	}
	if err := WriteMesh(zw, m); err != nil {
		zw.Close()
		return err
	}
	return errors.Wrapf(zw.Close(), "ply: compress %s", path)
}

func appendFloats(buf []byte, vals []float32) []byte {
	for i, v := range vals {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
	}
	return buf
}
