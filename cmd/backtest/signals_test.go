package main

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

type SignalsTestSuite struct {
	suite.Suite
}

func TestSignalsSuite(t *testing.T) {
	suite.Run(t, new(SignalsTestSuite))
}

func (s *SignalsTestSuite) TestInvalidPeriods() {
	grid, err := types.NewGridFromColumn([]float64{1, 2, 3})
	s.Require().NoError(err)

	_, _, err = GenerateCrossoverSignals(grid, 0, 5)
	s.Error(err)

	_, _, err = GenerateCrossoverSignals(grid, 5, 5)
	s.Error(err)

	_, _, err = GenerateCrossoverSignals(grid, 7, 5)
	s.Error(err)
}

func (s *SignalsTestSuite) TestCrossoverShapeMatchesPrices() {
	values := make([][]float64, 50)
	for i := range values {
		values[i] = []float64{float64(i + 1), float64(50 - i)}
	}

	grid, err := types.NewGrid(values)
	s.Require().NoError(err)

	entries, exits, err := GenerateCrossoverSignals(grid, 3, 10)
	s.Require().NoError(err)

	s.Equal(grid.Rows(), entries.Rows())
	s.Equal(grid.Columns(), entries.Columns())
	s.Equal(grid.Rows(), exits.Rows())
	s.Equal(grid.Columns(), exits.Columns())
}

func (s *SignalsTestSuite) TestVShapedSeriesEntersAfterTurn() {
	// Falling then rising prices: the fast average starts below the slow one
	// and crosses above it after the turn.
	prices := make([]float64, 0, 40)
	for p := 20; p > 0; p-- {
		prices = append(prices, float64(p))
	}

	for p := 1; p <= 20; p++ {
		prices = append(prices, float64(p))
	}

	grid, err := types.NewGridFromColumn(prices)
	s.Require().NoError(err)

	entries, exits, err := GenerateCrossoverSignals(grid, 3, 8)
	s.Require().NoError(err)

	entryCount := 0
	for tick := 0; tick < grid.Rows(); tick++ {
		if entries.At(tick, 0) {
			entryCount++
			s.Greater(tick, 20, "entry only after the price turns")
		}

		s.False(entries.At(tick, 0) && exits.At(tick, 0), "no simultaneous signals at tick %d", tick)
	}

	s.Equal(1, entryCount)
}
