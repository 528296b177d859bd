package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// TimeIndex is the shared time axis of a simulation. Every column of every
// input grid is aligned against it; simulations without a time index are
// rejected before the first tick.
type TimeIndex []time.Time

// Len returns the number of ticks in the index.
func (ix TimeIndex) Len() int {
	return len(ix)
}

// Validate checks that the index is non-empty and strictly increasing.
func (ix TimeIndex) Validate() error {
	if len(ix) == 0 {
		return errors.New(errors.ErrCodeInvalidTimeIndex, "time index is empty")
	}

	for i := 1; i < len(ix); i++ {
		if !ix[i].After(ix[i-1]) {
			return errors.Newf(errors.ErrCodeInvalidTimeIndex,
				"time index is not strictly increasing at tick %d (%s >= %s)",
				i, ix[i-1].Format(time.RFC3339), ix[i].Format(time.RFC3339))
		}
	}

	return nil
}

// Grid is a tick-by-column matrix of float64 values, row-major. All rows must
// have the same number of columns.
type Grid struct {
	values [][]float64
	cols   int
}

// NewGrid builds a Grid from row-major values and validates that it is rectangular.
func NewGrid(values [][]float64) (Grid, error) {
	if len(values) == 0 {
		return Grid{}, errors.New(errors.ErrCodeNoDataFound, "grid has no rows")
	}

	cols := len(values[0])
	if cols == 0 {
		return Grid{}, errors.New(errors.ErrCodeNoDataFound, "grid has no columns")
	}

	for i, row := range values {
		if len(row) != cols {
			return Grid{}, errors.Newf(errors.ErrCodeLengthMismatch,
				"grid row %d has %d columns, expected %d", i, len(row), cols)
		}
	}

	return Grid{values: values, cols: cols}, nil
}

// NewGridFromColumn builds a single-column Grid from a series.
func NewGridFromColumn(series []float64) (Grid, error) {
	values := make([][]float64, len(series))
	for i, v := range series {
		values[i] = []float64{v}
	}

	return NewGrid(values)
}

// Rows returns the number of ticks.
func (g Grid) Rows() int {
	return len(g.values)
}

// Columns returns the number of columns.
func (g Grid) Columns() int {
	return g.cols
}

// At returns the value at the given tick and column.
func (g Grid) At(tick, col int) float64 {
	return g.values[tick][col]
}

// Column copies one column out of the grid as a series.
func (g Grid) Column(col int) []float64 {
	series := make([]float64, len(g.values))
	for i, row := range g.values {
		series[i] = row[col]
	}

	return series
}

// HasFinite reports whether at least one value in the given column is finite.
func (g Grid) HasFinite(col int) bool {
	for _, row := range g.values {
		if !math.IsNaN(row[col]) && !math.IsInf(row[col], 0) {
			return true
		}
	}

	return false
}

// BoolGrid is a tick-by-column matrix of booleans, used for entry and exit
// signal masks.
type BoolGrid struct {
	values [][]bool
	cols   int
}

// NewBoolGrid builds a BoolGrid from row-major values and validates that it is rectangular.
func NewBoolGrid(values [][]bool) (BoolGrid, error) {
	if len(values) == 0 {
		return BoolGrid{}, errors.New(errors.ErrCodeNoDataFound, "signal grid has no rows")
	}

	cols := len(values[0])
	if cols == 0 {
		return BoolGrid{}, errors.New(errors.ErrCodeNoDataFound, "signal grid has no columns")
	}

	for i, row := range values {
		if len(row) != cols {
			return BoolGrid{}, errors.Newf(errors.ErrCodeLengthMismatch,
				"signal grid row %d has %d columns, expected %d", i, len(row), cols)
		}
	}

	return BoolGrid{values: values, cols: cols}, nil
}

// Rows returns the number of ticks.
func (g BoolGrid) Rows() int {
	return len(g.values)
}

// Columns returns the number of columns.
func (g BoolGrid) Columns() int {
	return g.cols
}

// At returns the value at the given tick and column.
func (g BoolGrid) At(tick, col int) bool {
	return g.values[tick][col]
}

// Column copies one column out of the grid as a series.
func (g BoolGrid) Column(col int) []bool {
	series := make([]bool, len(g.values))
	for i, row := range g.values {
		series[i] = row[col]
	}

	return series
}
