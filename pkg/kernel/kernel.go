// Package kernel defines the meshing kernel interface and the mesh type
// shared by every backend. Implementations (native marching cubes, sdfx)
// turn a scalar field job into a triangle mesh behind this interface, so
// backends can be swapped without changing the rest of the system.
package kernel

import (
	"fmt"

	"github.com/chazu/isomesh/pkg/field"
	"github.com/chazu/isomesh/pkg/march"
)

// Job describes one isosurface extraction.
type Job struct {
	Name     string
	Field    field.Field
	Isovalue float64
	Grid     march.Grid
	Workers  int // 0 means one per CPU
}

// Validate checks that the job can run.
func (j Job) Validate() error {
	if j.Field == nil {
		return fmt.Errorf("job %q: no field", j.Name)
	}
	if err := j.Grid.Validate(); err != nil {
		return fmt.Errorf("job %q: %w", j.Name, err)
	}
	return nil
}

// Kernel is the abstract meshing interface.
type Kernel interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// ToMesh extracts the job's isosurface.
	ToMesh(job Job) (*Mesh, error)
}
