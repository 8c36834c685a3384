package kernel

import "github.com/chewxy/math32"

// ComputeNormals returns one normal per vertex for a flat triangle list.
// Each triangle gets normalize(cross(v2-v1, v3-v1)), repeated for its three
// vertices. A triangle with zero area gets the zero normal (0,0,0); NaN
// coordinates still produce NaN normals. Trailing floats that do not form a
// whole triangle are ignored, so the result always has len(vertices)
// rounded down to a multiple of 9.
func ComputeNormals(vertices []float32) []float32 {
	normals := make([]float32, 0, len(vertices)-len(vertices)%9)
	for i := 0; i+8 < len(vertices); i += 9 {
		nx, ny, nz := FaceNormal(vertices[i : i+9])
		for j := 0; j < 3; j++ {
			normals = append(normals, nx, ny, nz)
		}
	}
	return normals
}

// FaceNormal returns the unit normal of the triangle stored in tri as
// x1,y1,z1, x2,y2,z2, x3,y3,z3. Degenerate triangles return zero.
func FaceNormal(tri []float32) (nx, ny, nz float32) {
	e1x, e1y, e1z := tri[3]-tri[0], tri[4]-tri[1], tri[5]-tri[2]
	e2x, e2y, e2z := tri[6]-tri[0], tri[7]-tri[1], tri[8]-tri[2]

	nx = e1y*e2z - e1z*e2y
	ny = e1z*e2x - e1x*e2z
	nz = e1x*e2y - e1y*e2x

	length := math32.Sqrt(nx*nx + ny*ny + nz*nz)
	if length == 0 {
		return 0, 0, 0
	}
	return nx / length, ny / length, nz / length
}
