// Package march extracts isosurfaces from scalar fields with the marching
// cubes algorithm. The output is a flat triangle soup: every 9 floats are
// the three x,y,z vertices of one triangle, with no vertex sharing.
package march

import "github.com/chazu/isomesh/pkg/field"

// Stats counts what a traversal did.
type Stats struct {
	Cells     int // cells visited
	Empty     int // cells with no surface crossing
	Emitting  int // cells that produced triangles
	Triangles int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Cells += o.Cells
	s.Empty += o.Empty
	s.Emitting += o.Emitting
	s.Triangles += o.Triangles
}

// March samples f on g and returns the triangles of the isovalue surface.
// Cells are visited x-major, then y, with z innermost. A grid with a
// non-positive step yields no triangles.
func March(f field.Field, isovalue float64, g Grid) []float32 {
	vertices, _ := MarchStats(f, isovalue, g)
	return vertices
}

// MarchStats is March plus traversal counters.
func MarchStats(f field.Field, isovalue float64, g Grid) ([]float32, Stats) {
	var (
		out   []float32
		stats Stats
	)
	starts := g.Starts()
	for _, x := range starts {
		out = marchSlab(out, &stats, f, isovalue, g.Step, x, starts)
	}
	return out, stats
}

// marchSlab processes every cell whose base x coordinate is x. Cells depend
// only on their own samples, so slabs can be processed independently.
func marchSlab(dst []float32, stats *Stats, f field.Field, isovalue, step, x float64, starts []float64) []float32 {
	for _, y := range starts {
		for _, z := range starts {
			stats.Cells++

			corners := Corners(x, y, z, step)
			var values [8]float64
			for i, c := range corners {
				values[i] = f(c[0], c[1], c[2])
			}

			config := ConfigIndex(values, isovalue)
			if IsEmpty(config) {
				stats.Empty++
				continue
			}

			before := len(dst)
			dst = Triangulate(dst, config, corners, values, isovalue)
			stats.Emitting++
			stats.Triangles += (len(dst) - before) / 9
		}
	}
	return dst
}
