// Package native implements kernel.Kernel with the package march
// marching cubes extractor.
package native

import (
	"context"
	"fmt"

	"github.com/chazu/isomesh/pkg/kernel"
	"github.com/chazu/isomesh/pkg/march"
)

// Compile-time interface check.
var _ kernel.Kernel = (*NativeKernel)(nil)

// NativeKernel meshes jobs with march.MarchParallel.
type NativeKernel struct {
	ctx  context.Context
	last march.Stats
}

// New returns a NativeKernel bound to ctx. Cancelling ctx aborts meshing.
func New(ctx context.Context) *NativeKernel {
	if ctx == nil {
		ctx = context.Background()
	}
	return &NativeKernel{ctx: ctx}
}

// Name returns "native".
func (k *NativeKernel) Name() string { return "native" }

// Stats returns the traversal counters of the most recent ToMesh.
func (k *NativeKernel) Stats() march.Stats { return k.last }

// ToMesh extracts the surface and computes flat normals.
func (k *NativeKernel) ToMesh(job kernel.Job) (*kernel.Mesh, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	var (
		vertices []float32
		stats    march.Stats
	)
	if job.Workers == 1 {
		vertices, stats = march.MarchStats(job.Field, job.Isovalue, job.Grid)
	} else {
		var err error
		vertices, stats, err = march.MarchParallel(k.ctx, job.Field, job.Isovalue, job.Grid, job.Workers)
		if err != nil {
			return nil, fmt.Errorf("native: job %q: %w", job.Name, err)
		}
	}
	k.last = stats

	return kernel.NewMesh(job.Name, vertices), nil
}
