// Package field defines scalar fields sampled by the isosurface extractor.
// A field is any pure function of a 3D point; parameters are carried by
// closures rather than package state.
package field

import "math"

// Field maps a point to a scalar value. Implementations must be
// deterministic and free of side effects so that extraction is reproducible.
type Field func(x, y, z float64) float64

// Constant returns a field that evaluates to v everywhere.
func Constant(v float64) Field {
	return func(_, _, _ float64) float64 { return v }
}

// Translate moves f so that its origin sits at (dx, dy, dz).
func Translate(f Field, dx, dy, dz float64) Field {
	return func(x, y, z float64) float64 {
		return f(x-dx, y-dy, z-dz)
	}
}

// Scale uniformly scales the domain of f by s. The field values are not
// rescaled, so the isovalue keeps its meaning.
func Scale(f Field, s float64) Field {
	return func(x, y, z float64) float64 {
		return f(x/s, y/s, z/s)
	}
}

// Union combines fields whose interior is below the isovalue.
func Union(a, b Field) Field {
	return func(x, y, z float64) float64 {
		return math.Min(a(x, y, z), b(x, y, z))
	}
}

// Intersect keeps the region inside both a and b.
func Intersect(a, b Field) Field {
	return func(x, y, z float64) float64 {
		return math.Max(a(x, y, z), b(x, y, z))
	}
}

// Negate flips inside and outside around zero.
func Negate(f Field) Field {
	return func(x, y, z float64) float64 {
		return -f(x, y, z)
	}
}
