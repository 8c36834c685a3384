package field

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// FromSDF3 samples an sdfx solid. Signed distance is negative inside, so
// the solid's surface is the zero level set and its interior classifies
// as below an isovalue of 0.
func FromSDF3(s sdf.SDF3) Field {
	return func(x, y, z float64) float64 {
		return s.Evaluate(v3.Vec{X: x, Y: y, Z: z})
	}
}

// Box is a box centered at the origin with the given dimensions and edge
// rounding radius.
func Box(x, y, z, round float64) (Field, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, round)
	if err != nil {
		return nil, err
	}
	return FromSDF3(s), nil
}

// Cylinder is a Z-aligned cylinder centered at the origin.
func Cylinder(height, radius, round float64) (Field, error) {
	s, err := sdf.Cylinder3D(height, radius, round)
	if err != nil {
		return nil, err
	}
	return FromSDF3(s), nil
}
