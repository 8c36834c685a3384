package march

// Corners returns the positions of the 8 corners of the cell whose base
// corner is (x, y, z).
func Corners(x, y, z, step float64) [8][3]float64 {
	var corners [8][3]float64
	for i, off := range cornerOffsets {
		corners[i] = [3]float64{
			x + off[0]*step,
			y + off[1]*step,
			z + off[2]*step,
		}
	}
	return corners
}

// ConfigIndex classifies a cell. Bit i is set when corner i is strictly
// below the isovalue.
func ConfigIndex(values [8]float64, isovalue float64) uint8 {
	var config uint8
	for i, v := range values {
		if v < isovalue {
			config |= 1 << uint(i)
		}
	}
	return config
}

// IsEmpty reports whether a configuration produces no triangles.
func IsEmpty(config uint8) bool {
	return triTable[config][0] == -1
}

// EdgeTriangles decodes the edge triples listed for a configuration.
func EdgeTriangles(config uint8) [][3]int {
	entry := &triTable[config]
	var tris [][3]int
	for i := 0; i+2 < len(entry) && entry[i] != -1; i += 3 {
		tris = append(tris, [3]int{int(entry[i]), int(entry[i+1]), int(entry[i+2])})
	}
	return tris
}

// EdgeEndpoints returns the two corners joined by edge e.
func EdgeEndpoints(e int) (c1, c2 int) {
	return edgeEndpoints[e][0], edgeEndpoints[e][1]
}
