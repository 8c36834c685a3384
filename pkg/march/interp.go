package march

import "math"

// flatEpsilon is the largest corner value difference treated as a flat edge.
const flatEpsilon = 1e-6

// Alpha returns the fraction along an edge from a corner with value v1 to a
// corner with value v2 where the field crosses isovalue. Edges whose values
// differ by at most 1e-6 return exactly 0.5.
func Alpha(v1, v2, isovalue float64) float64 {
	if math.Abs(v2-v1) <= flatEpsilon {
		return 0.5
	}
	return (isovalue - v1) / (v2 - v1)
}

// Interpolate returns p1 + alpha*(p2-p1).
func Interpolate(p1, p2 [3]float64, alpha float64) [3]float64 {
	return [3]float64{
		p1[0] + alpha*(p2[0]-p1[0]),
		p1[1] + alpha*(p2[1]-p1[1]),
		p1[2] + alpha*(p2[2]-p1[2]),
	}
}

// Triangulate appends the triangles of one cell to dst as flat x,y,z
// triples. Vertices are emitted in the table's order, which determines the
// winding of each triangle.
func Triangulate(dst []float32, config uint8, corners [8][3]float64, values [8]float64, isovalue float64) []float32 {
	entry := &triTable[config]
	for i := 0; i+2 < len(entry) && entry[i] != -1; i += 3 {
		for j := 0; j < 3; j++ {
			c1, c2 := EdgeEndpoints(int(entry[i+j]))
			alpha := Alpha(values[c1], values[c2], isovalue)
			p := Interpolate(corners[c1], corners[c2], alpha)
			dst = append(dst, float32(p[0]), float32(p[1]), float32(p[2]))
		}
	}
	return dst
}
