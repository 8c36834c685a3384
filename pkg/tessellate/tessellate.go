// Package tessellate runs a batch of extraction jobs through a geometry
// kernel. One mesh is produced per job.
package tessellate

import (
	"fmt"
	"log"
	"time"

	"github.com/chazu/isomesh/pkg/kernel"
	"github.com/chazu/isomesh/pkg/march"
)

// statser is implemented by kernels that report traversal counters.
type statser interface {
	Stats() march.Stats
}

// Tessellate meshes every job in order with the provided kernel. The first
// failing job aborts the batch and no meshes are returned. Each mesh's
// PartName is the job name, or "job-N" for unnamed jobs.
func Tessellate(jobs []kernel.Job, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if k == nil {
		return nil, fmt.Errorf("tessellate: nil kernel")
	}

	meshes := make([]*kernel.Mesh, 0, len(jobs))
	for i, job := range jobs {
		if job.Name == "" {
			job.Name = fmt.Sprintf("job-%d", i+1)
		}
		mesh, err := tessellateJob(job, k)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// tessellateJob meshes one job and logs what it produced.
func tessellateJob(job kernel.Job, k kernel.Kernel) (*kernel.Mesh, error) {
	start := time.Now()
	mesh, err := k.ToMesh(job)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for job %q: %w", job.Name, err)
	}
	mesh.PartName = job.Name

	log.Printf("tessellate: %s: %d triangles, %d vertices (%s kernel, step %g, %s)",
		job.Name, mesh.TriangleCount(), mesh.VertexCount(), k.Name(), job.Grid.Step,
		time.Since(start).Round(time.Millisecond))
	if s, ok := k.(statser); ok {
		st := s.Stats()
		log.Printf("tessellate: %s: %d cells, %d empty, %d emitting",
			job.Name, st.Cells, st.Empty, st.Emitting)
	}
	if mesh.IsEmpty() {
		log.Printf("tessellate: %s: no surface at isovalue %g inside [%g, %g]",
			job.Name, job.Isovalue, job.Grid.Min, job.Grid.Max)
	}
	return mesh, nil
}
