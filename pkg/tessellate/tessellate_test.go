package tessellate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chazu/isomesh/pkg/field"
	"github.com/chazu/isomesh/pkg/kernel"
	"github.com/chazu/isomesh/pkg/kernel/native"
	"github.com/chazu/isomesh/pkg/kernel/sdfx"
	"github.com/chazu/isomesh/pkg/march"
	"github.com/chazu/isomesh/pkg/tessellate"
)

// newKernel returns a fresh native kernel for testing.
func newKernel() kernel.Kernel {
	return native.New(context.Background())
}

func makeJob(name string, f field.Field, iso float64) kernel.Job {
	return kernel.Job{
		Name:     name,
		Field:    f,
		Isovalue: iso,
		Grid:     march.Grid{Min: -2, Max: 2, Step: 0.5},
	}
}

func TestSingleJob(t *testing.T) {
	meshes, err := tessellate.Tessellate([]kernel.Job{makeJob("ball", field.Sphere, 0)}, newKernel())
	if err != nil {
		t.Fatalf("Tessellate error: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.PartName != "ball" {
		t.Errorf("PartName = %q, want %q", m.PartName, "ball")
	}
	if m.IsEmpty() {
		t.Error("sphere mesh should not be empty")
	}
	if m.VertexCount()%3 != 0 || len(m.Normals) != len(m.Vertices) {
		t.Errorf("malformed mesh: %d vertices, %d normal floats", m.VertexCount(), len(m.Normals))
	}
}

func TestJobsKeepOrder(t *testing.T) {
	jobs := []kernel.Job{
		makeJob("a", field.Sphere, 0),
		makeJob("", field.Wave, 0),
		makeJob("c", field.Saddle, -1.5),
	}
	meshes, err := tessellate.Tessellate(jobs, newKernel())
	if err != nil {
		t.Fatalf("Tessellate error: %v", err)
	}
	want := []string{"a", "job-2", "c"}
	if len(meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(meshes))
	}
	for i, m := range meshes {
		if m.PartName != want[i] {
			t.Errorf("mesh %d PartName = %q, want %q", i, m.PartName, want[i])
		}
	}
}

func TestEmptySurfaceIsNotAnError(t *testing.T) {
	meshes, err := tessellate.Tessellate([]kernel.Job{makeJob("flat", field.Constant(10), 0)}, newKernel())
	if err != nil {
		t.Fatalf("Tessellate error: %v", err)
	}
	if !meshes[0].IsEmpty() {
		t.Errorf("constant field should give an empty mesh, got %d triangles", meshes[0].TriangleCount())
	}
}

func TestFirstFailureAborts(t *testing.T) {
	jobs := []kernel.Job{
		makeJob("ok", field.Sphere, 0),
		{Name: "broken", Field: field.Sphere, Grid: march.Grid{Min: 1, Max: -1, Step: 0.5}},
		makeJob("never", field.Sphere, 0),
	}
	meshes, err := tessellate.Tessellate(jobs, newKernel())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, march.ErrInvalidGrid) {
		t.Errorf("error = %v, want ErrInvalidGrid", err)
	}
	if meshes != nil {
		t.Errorf("expected no meshes on failure, got %d", len(meshes))
	}
}

func TestNilKernel(t *testing.T) {
	if _, err := tessellate.Tessellate(nil, nil); err == nil {
		t.Fatal("expected error for nil kernel")
	}
}

func TestNoJobs(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, newKernel())
	if err != nil {
		t.Fatalf("Tessellate error: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(meshes))
	}
}

func TestSdfxKernel(t *testing.T) {
	meshes, err := tessellate.Tessellate([]kernel.Job{makeJob("ball", field.Sphere, 0)}, sdfx.New())
	if err != nil {
		t.Fatalf("Tessellate error: %v", err)
	}
	if meshes[0].IsEmpty() {
		t.Error("sdfx sphere mesh should not be empty")
	}
}
