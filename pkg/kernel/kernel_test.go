package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/isomesh/pkg/field"
	"github.com/chazu/isomesh/pkg/march"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestNewMesh(t *testing.T) {
	verts := march.March(field.Sphere, 0, march.Grid{Min: -2, Max: 2, Step: 0.5})
	m := NewMesh("ball", verts)

	if m.PartName != "ball" {
		t.Errorf("PartName = %q, want %q", m.PartName, "ball")
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Fatalf("normals length %d != vertices length %d", len(m.Normals), len(m.Vertices))
	}
	if m.TriangleCount()*3 != m.VertexCount() {
		t.Fatalf("triangles %d, vertices %d", m.TriangleCount(), m.VertexCount())
	}
	if !m.IsSoup() {
		t.Error("NewMesh should produce a soup mesh")
	}
}

func TestMeshBounds(t *testing.T) {
	nan := float32(math.NaN())
	m := &Mesh{Vertices: []float32{
		1, -2, 3,
		nan, 100, 100,
		-1, 4, 0.5,
	}}
	min, max := m.Bounds()
	if min != [3]float32{-1, -2, 0.5} {
		t.Errorf("min = %v", min)
	}
	if max != [3]float32{1, 4, 3} {
		t.Errorf("max = %v", max)
	}
}

// --- Normals ---

func TestFaceNormal(t *testing.T) {
	tests := []struct {
		name string
		tri  []float32
		want [3]float32
	}{
		{"xy plane ccw", []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, [3]float32{0, 0, 1}},
		{"xy plane cw", []float32{0, 0, 0, 0, 1, 0, 1, 0, 0}, [3]float32{0, 0, -1}},
		{"scaled", []float32{0, 0, 0, 0, 5, 0, 0, 0, 5}, [3]float32{1, 0, 0}},
		{"collinear", []float32{0, 0, 0, 1, 1, 1, 2, 2, 2}, [3]float32{0, 0, 0}},
		{"all same point", []float32{3, 3, 3, 3, 3, 3, 3, 3, 3}, [3]float32{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nx, ny, nz := FaceNormal(tt.tri)
			if got := [3]float32{nx, ny, nz}; got != tt.want {
				t.Errorf("FaceNormal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeNormalsRepeatsPerVertex(t *testing.T) {
	verts := []float32{
		0, 0, 0, 1, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	normals := ComputeNormals(verts)
	want := []float32{
		0, 0, 1, 0, 0, 1, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	if len(normals) != len(want) {
		t.Fatalf("len = %d, want %d", len(normals), len(want))
	}
	for i := range want {
		if normals[i] != want[i] {
			t.Fatalf("normals[%d] = %v, want %v", i, normals[i], want[i])
		}
	}
}

func TestComputeNormalsPropagatesNaN(t *testing.T) {
	nan := float32(math.NaN())
	normals := ComputeNormals([]float32{nan, 0, 0, 1, 0, 0, 0, 1, 0})
	for i, n := range normals {
		if !math.IsNaN(float64(n)) {
			t.Errorf("normals[%d] = %v, want NaN", i, n)
		}
	}
}

func TestSphereNormalsPointOutward(t *testing.T) {
	verts := march.March(field.Sphere, 0, march.Grid{Min: -2, Max: 2, Step: 0.25})
	normals := ComputeNormals(verts)
	for i := 0; i < len(verts); i += 9 {
		var cx, cy, cz float32
		for j := 0; j < 9; j += 3 {
			cx += verts[i+j]
			cy += verts[i+j+1]
			cz += verts[i+j+2]
		}
		dot := cx*normals[i] + cy*normals[i+1] + cz*normals[i+2]
		if dot < 0 {
			t.Fatalf("triangle %d normal points inward", i/9)
		}
	}
}

// --- Weld ---

func TestWeldPreservesTriangles(t *testing.T) {
	soup := NewMesh("wave", march.March(field.Wave, 0, march.Grid{Min: -3, Max: 3, Step: 0.5}))
	welded := Weld(soup)

	if welded.TriangleCount() != soup.TriangleCount() {
		t.Fatalf("welded triangles %d, soup %d", welded.TriangleCount(), soup.TriangleCount())
	}
	if welded.VertexCount() > soup.VertexCount() {
		t.Fatalf("welded has more vertices (%d) than soup (%d)", welded.VertexCount(), soup.VertexCount())
	}
	for i, src := range soup.Indices {
		dst := welded.Indices[i]
		for j := uint32(0); j < 3; j++ {
			if welded.Vertices[dst*3+j] != soup.Vertices[src*3+j] {
				t.Fatalf("corner %d position differs after weld", i)
			}
			if welded.Normals[dst*3+j] != soup.Normals[src*3+j] {
				t.Fatalf("corner %d normal differs after weld", i)
			}
		}
	}
}

func TestWeldMergesSharedCorners(t *testing.T) {
	// Two coplanar triangles forming a unit square share two corners.
	m := NewMesh("quad", []float32{
		0, 0, 0, 1, 0, 0, 1, 1, 0,
		0, 0, 0, 1, 1, 0, 0, 1, 0,
	})
	w := Weld(m)
	if w.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", w.VertexCount())
	}
	if w.IsSoup() {
		t.Error("welded quad should not be a soup")
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable.
type stubKernel struct{}

func (k *stubKernel) Name() string { return "stub" }

func (k *stubKernel) ToMesh(job Job) (*Mesh, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &Mesh{PartName: job.Name}, nil
}

var _ Kernel = (*stubKernel)(nil)

func TestJobValidate(t *testing.T) {
	var k Kernel = &stubKernel{}

	_, err := k.ToMesh(Job{Name: "no-field", Grid: march.Grid{Min: 0, Max: 1, Step: 0.1}})
	if err == nil {
		t.Error("expected error for missing field")
	}

	_, err = k.ToMesh(Job{Name: "bad-grid", Field: field.Sphere, Grid: march.Grid{Min: 0, Max: 1}})
	if !errors.Is(err, march.ErrInvalidGrid) {
		t.Errorf("error = %v, want ErrInvalidGrid", err)
	}

	m, err := k.ToMesh(Job{Name: "ok", Field: field.Sphere, Grid: march.Grid{Min: -1, Max: 1, Step: 0.5}})
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m.PartName != "ok" {
		t.Errorf("PartName = %q, want %q", m.PartName, "ok")
	}
}
