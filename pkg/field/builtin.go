package field

import (
	"fmt"
	"math"
	"sort"
)

// Sphere is the unit sphere x²+y²+z²-1.
func Sphere(x, y, z float64) float64 {
	return x*x + y*y + z*z - 1
}

// Saddle is x²-y²-z²-z. The coursework renders it at isovalue -1.5.
func Saddle(x, y, z float64) float64 {
	return x*x - y*y - z*z - z
}

// Wave is the height field y - sin(x)cos(z), rendered at isovalue 0.
func Wave(x, y, z float64) float64 {
	return y - math.Sin(x)*math.Cos(z)
}

// Gyroid is the triply periodic minimal surface approximation.
func Gyroid(x, y, z float64) float64 {
	return math.Sin(x)*math.Cos(y) + math.Sin(y)*math.Cos(z) + math.Sin(z)*math.Cos(x)
}

// Torus returns a torus around the Y axis with major radius R and tube
// radius r. The surface is the zero level set.
func Torus(R, r float64) Field {
	return func(x, y, z float64) float64 {
		q := math.Sqrt(x*x+z*z) - R
		return q*q + y*y - r*r
	}
}

// builtins maps a name to a constructor so that parameterized fields are
// built fresh for every lookup.
var builtins = map[string]func() (Field, error){
	"sphere": func() (Field, error) { return Sphere, nil },
	"saddle": func() (Field, error) { return Saddle, nil },
	"wave":   func() (Field, error) { return Wave, nil },
	"gyroid": func() (Field, error) { return Gyroid, nil },
	"torus":  func() (Field, error) { return Torus(1, 0.4), nil },
	"box":    func() (Field, error) { return Box(1.5, 1.5, 1.5, 0) },
	"rounded-box": func() (Field, error) {
		return Box(1.5, 1.5, 1.5, 0.3)
	},
	"cylinder": func() (Field, error) { return Cylinder(2, 0.75, 0) },
}

// Lookup returns the builtin field registered under name.
func Lookup(name string) (Field, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("field: unknown field %q (known: %v)", name, Names())
	}
	f, err := ctor()
	if err != nil {
		return nil, fmt.Errorf("field: building %q: %w", name, err)
	}
	return f, nil
}

// Names lists the builtin field names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
