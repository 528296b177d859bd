package main

import (
	"github.com/cinar/indicator"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// GenerateCrossoverSignals builds entry and exit masks from a moving-average
// crossover per column: entry when the fast SMA crosses above the slow one,
// exit when it crosses back below. Used when no signal files are supplied.
func GenerateCrossoverSignals(prices types.Grid, fastPeriod, slowPeriod int) (types.BoolGrid, types.BoolGrid, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || fastPeriod >= slowPeriod {
		return types.BoolGrid{}, types.BoolGrid{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"crossover periods must satisfy 0 < fast < slow, got fast=%d slow=%d", fastPeriod, slowPeriod)
	}

	rows := prices.Rows()
	cols := prices.Columns()

	entries := make([][]bool, rows)
	exits := make([][]bool, rows)

	for i := range entries {
		entries[i] = make([]bool, cols)
		exits[i] = make([]bool, cols)
	}

	for col := 0; col < cols; col++ {
		closes := prices.Column(col)
		fast := indicator.Sma(fastPeriod, closes)
		slow := indicator.Sma(slowPeriod, closes)

		// Skip the warmup range where the slow average is not yet meaningful.
		for tick := slowPeriod; tick < rows; tick++ {
			above := fast[tick] > slow[tick]
			wasAbove := fast[tick-1] > slow[tick-1]

			entries[tick][col] = above && !wasAbove
			exits[tick][col] = !above && wasAbove
		}
	}

	entryGrid, err := types.NewBoolGrid(entries)
	if err != nil {
		return types.BoolGrid{}, types.BoolGrid{}, err
	}

	exitGrid, err := types.NewBoolGrid(exits)
	if err != nil {
		return types.BoolGrid{}, types.BoolGrid{}, err
	}

	return entryGrid, exitGrid, nil
}
