package march

import (
	"errors"
	"fmt"
	"math"
)

// Grid is an implicit cubical sampling lattice. Cells start at Min and
// advance by Step on every axis while their start coordinate is strictly
// less than Max. Coordinates accumulate by repeated addition, so when
// Max-Min is not a multiple of Step the sampled volume does not end exactly
// at Max. That boundary quantization is intentional.
type Grid struct {
	Min  float64 `json:"min" toml:"min"`
	Max  float64 `json:"max" toml:"max"`
	Step float64 `json:"step" toml:"step"`
}

// ErrInvalidGrid is returned by Validate for unusable bounds or step sizes.
var ErrInvalidGrid = errors.New("invalid grid")

// Validate reports whether the grid can be traversed.
func (g Grid) Validate() error {
	switch {
	case math.IsNaN(g.Step) || math.IsInf(g.Step, 0) || g.Step <= 0:
		return fmt.Errorf("%w: step must be positive, got %v", ErrInvalidGrid, g.Step)
	case math.IsNaN(g.Min) || math.IsNaN(g.Max) || math.IsInf(g.Min, 0) || math.IsInf(g.Max, 0):
		return fmt.Errorf("%w: bounds must be finite, got [%v, %v]", ErrInvalidGrid, g.Min, g.Max)
	case g.Min >= g.Max:
		return fmt.Errorf("%w: min %v must be less than max %v", ErrInvalidGrid, g.Min, g.Max)
	case g.Min+g.Step == g.Min || g.Max+g.Step == g.Max:
		return fmt.Errorf("%w: step %v is below float resolution at [%v, %v]", ErrInvalidGrid, g.Step, g.Min, g.Max)
	}
	return nil
}

// Starts returns the cell start coordinates along one axis, accumulated by
// repeated addition exactly as the traversal visits them.
func (g Grid) Starts() []float64 {
	if g.Step <= 0 || math.IsNaN(g.Step) {
		return nil
	}
	var starts []float64
	for c := g.Min; c < g.Max; {
		starts = append(starts, c)
		next := c + g.Step
		if next == c {
			break
		}
		c = next
	}
	return starts
}

// Cells returns the number of cells along one axis.
func (g Grid) Cells() int {
	return len(g.Starts())
}

// CellCount returns the total number of cells visited.
func (g Grid) CellCount() int {
	n := g.Cells()
	return n * n * n
}

// Extent returns the coordinate reached by the far side of the last cell.
// It differs from Max when the step does not divide the range.
func (g Grid) Extent() float64 {
	starts := g.Starts()
	if len(starts) == 0 {
		return g.Min
	}
	return starts[len(starts)-1] + g.Step
}
