// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx marching cubes renderer. It serves as an
// independent cross-check of the native extractor.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/isomesh/pkg/field"
	"github.com/chazu/isomesh/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// fieldSDF presents field-isovalue as an sdf.SDF3 so that the region below
// the isovalue is the solid's interior.
type fieldSDF struct {
	f   field.Field
	iso float64
	bb  sdf.Box3
}

// Evaluate returns the shifted field value at p.
func (s *fieldSDF) Evaluate(p v3.Vec) float64 {
	return s.f(p.X, p.Y, p.Z) - s.iso
}

// BoundingBox returns the job's sampling cube.
func (s *fieldSDF) BoundingBox() sdf.Box3 {
	return s.bb
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// Name returns "sdfx".
func (k *SdfxKernel) Name() string { return "sdfx" }

// ToMesh converts a job to a triangle mesh using sdfx marching cubes. The
// renderer's cell count along the longest axis is derived from the grid
// step; sdfx chooses its own sample positions, so vertices will not match
// the native kernel exactly.
func (k *SdfxKernel) ToMesh(job kernel.Job) (*kernel.Mesh, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	g := job.Grid
	s := &fieldSDF{
		f:   job.Field,
		iso: job.Isovalue,
		bb: sdf.Box3{
			Min: v3.Vec{X: g.Min, Y: g.Min, Z: g.Min},
			Max: v3.Vec{X: g.Max, Y: g.Max, Z: g.Max},
		},
	}
	cells := int(math.Round((g.Max - g.Min) / g.Step))
	if cells < 1 {
		return nil, fmt.Errorf("sdfx: job %q: grid too coarse", job.Name)
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	vertices := make([]float32, 0, len(triangles)*9)
	for _, tri := range triangles {
		for _, v := range tri {
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
		}
	}
	return kernel.NewMesh(job.Name, vertices), nil
}
