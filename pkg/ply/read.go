package ply

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Sentinel errors returned (wrapped) by Decode.
var (
	ErrHeader    = errors.New("ply: bad header")
	ErrTruncated = errors.New("ply: truncated data")
	ErrMalformed = errors.New("ply: malformed record")
)

var vertexProperties = []string{"x", "y", "z", "nx", "ny", "nz"}

// Data is a decoded mesh. Normals is nil when the file has no nx ny nz
// properties.
type Data struct {
	Vertices []float32
	Normals  []float32
	Indices  []uint32
}

// VertexCount returns the number of decoded vertices.
func (d *Data) VertexCount() int { return len(d.Vertices) / 3 }

// FaceCount returns the number of decoded faces.
func (d *Data) FaceCount() int { return len(d.Indices) / 3 }

type element struct {
	name  string
	count int
	props []string
}

type header struct {
	elements []element
}

// Read decodes a mesh from r.
func Read(r io.Reader) (*Data, error) {
	d := &Data{}
	if err := Decode(r, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ReadFile decodes the mesh stored at path, decompressing ".zst" files.
func ReadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ply: open %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if IsCompressed(path) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "ply: decompress %s", path)
		}
		defer zr.Close()
		r = zr
	}

	d, err := Read(r)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return d, nil
}

// Decode parses a PLY stream into d, appending to its slices. Header lines
// other than format, element, property and end_header are ignored, as are
// elements other than vertex and face and vertex properties other than
// x y z nx ny nz. On error, the records decoded before the failing one are
// left in d.
func Decode(r io.Reader, d *Data) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	h, err := readHeader(sc)
	if err != nil {
		return err
	}

	vertexCount := 0
	for _, el := range h.elements {
		if el.name == "vertex" {
			vertexCount = el.count
		}
	}

	for _, el := range h.elements {
		switch el.name {
		case "vertex":
			err = decodeVertices(sc, el, d)
		case "face":
			err = decodeFaces(sc, el, vertexCount, d)
		default:
			err = skipRecords(sc, el)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readHeader(sc *bufio.Scanner) (*header, error) {
	magic, ok := nextLine(sc)
	if !ok {
		return nil, errors.Wrap(ErrHeader, "empty input")
	}
	if magic != "ply" {
		return nil, errors.Wrapf(ErrHeader, "expected magic %q, got %q", "ply", magic)
	}

	h := &header{}
	for {
		line, ok := nextLine(sc)
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, errors.Wrap(err, "ply: read header")
			}
			return nil, errors.Wrap(ErrHeader, "missing end_header")
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "end_header":
			return h, nil

		case "format":
			if len(fields) < 3 || fields[1] != "ascii" || fields[2] != "1.0" {
				return nil, errors.Wrapf(ErrHeader, "unsupported format %q", line)
			}

		case "element":
			if len(fields) != 3 {
				return nil, errors.Wrapf(ErrHeader, "element line %q: expected name and count", line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, errors.Wrapf(ErrHeader, "element %s: bad count %q", fields[1], fields[2])
			}
			h.elements = append(h.elements, element{name: fields[1], count: count})

		case "property":
			if len(h.elements) == 0 || len(fields) < 3 {
				continue
			}
			el := &h.elements[len(h.elements)-1]
			el.props = append(el.props, fields[len(fields)-1])
		}
	}
}

func decodeVertices(sc *bufio.Scanner, el element, d *Data) error {
	slot := map[string]int{}
	for i, p := range el.props {
		slot[p] = i
	}
	for _, p := range vertexProperties[:3] {
		if _, ok := slot[p]; !ok {
			return errors.Wrapf(ErrHeader, "vertex element has no %q property", p)
		}
	}
	hasNormals := true
	for _, p := range vertexProperties[3:] {
		if _, ok := slot[p]; !ok {
			hasNormals = false
		}
	}

	values := make([]float32, len(el.props))
	for i := 0; i < el.count; i++ {
		fields, err := nextRecord(sc, "vertex", i, el.count)
		if err != nil {
			return err
		}
		if len(fields) != len(el.props) {
			return errors.Wrapf(ErrMalformed, "vertex %d: expected %d values, got %d", i, len(el.props), len(fields))
		}
		for j, s := range fields {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return errors.Wrapf(ErrMalformed, "vertex %d: property %s: %q is not a number", i, el.props[j], s)
			}
			values[j] = float32(v)
		}
		d.Vertices = append(d.Vertices, values[slot["x"]], values[slot["y"]], values[slot["z"]])
		if hasNormals {
			d.Normals = append(d.Normals, values[slot["nx"]], values[slot["ny"]], values[slot["nz"]])
		}
	}
	return nil
}

func decodeFaces(sc *bufio.Scanner, el element, vertexCount int, d *Data) error {
	for i := 0; i < el.count; i++ {
		fields, err := nextRecord(sc, "face", i, el.count)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return errors.Wrapf(ErrMalformed, "face %d: bad vertex count %q", i, fields[0])
		}
		if n != 3 {
			return errors.Wrapf(ErrMalformed, "face %d: expected 3 vertex indices, got %d", i, n)
		}
		if len(fields) != 4 {
			return errors.Wrapf(ErrMalformed, "face %d: expected 3 vertex indices, found %d", i, len(fields)-1)
		}
		var tri [3]uint32
		for j := 0; j < 3; j++ {
			idx, err := strconv.ParseInt(fields[1+j], 10, 64)
			if err != nil {
				return errors.Wrapf(ErrMalformed, "face %d: bad vertex index %q", i, fields[1+j])
			}
			if idx < 0 || idx >= int64(vertexCount) {
				return errors.Wrapf(ErrMalformed, "face %d: vertex index %d out of range [0, %d)", i, idx, vertexCount)
			}
			tri[j] = uint32(idx)
		}
		d.Indices = append(d.Indices, tri[:]...)
	}
	return nil
}

func skipRecords(sc *bufio.Scanner, el element) error {
	for i := 0; i < el.count; i++ {
		if _, err := nextRecord(sc, el.name, i, el.count); err != nil {
			return err
		}
	}
	return nil
}

// nextRecord returns the fields of the next non-blank body line.
func nextRecord(sc *bufio.Scanner, name string, i, count int) ([]string, error) {
	line, ok := nextLine(sc)
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrapf(err, "ply: read %s %d", name, i)
		}
		return nil, errors.Wrapf(ErrTruncated, "%s %d of %d: unexpected end of file", name, i, count)
	}
	return strings.Fields(line), nil
}

// nextLine returns the next non-blank line, trimmed.
func nextLine(sc *bufio.Scanner) (string, bool) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}
