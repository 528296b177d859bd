package portfolio

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

type GroupTestSuite struct {
	suite.Suite
}

func TestGroupSuite(t *testing.T) {
	suite.Run(t, new(GroupTestSuite))
}

func (s *GroupTestSuite) mustGrid(values [][]float64) types.Grid {
	grid, err := types.NewGrid(values)
	s.Require().NoError(err)

	return grid
}

func (s *GroupTestSuite) mustBoolGrid(values [][]bool) *types.BoolGrid {
	grid, err := types.NewBoolGrid(values)
	s.Require().NoError(err)

	return &grid
}

func (s *GroupTestSuite) TestResolveCallSeqDefaultsToAscending() {
	seq := resolveCallSeq(GroupSpec{Columns: []int{3, 1, 2}})
	s.Equal([]int{1, 2, 3}, seq)

	seq = resolveCallSeq(GroupSpec{Columns: []int{1, 2}, CallSeq: []int{2, 1}})
	s.Equal([]int{2, 1}, seq)
}

// Two columns sharing one pool, both signaling entry at once: the first in
// call sequence takes the cash and the second is rejected.
func (s *GroupTestSuite) TestSharedCashFirstComeFirstServed() {
	config := TestConfig(1000)

	prices := s.mustGrid([][]float64{{10, 10}, {10, 10}})
	entries := s.mustBoolGrid([][]bool{{true, true}, {false, false}})
	exits := s.mustBoolGrid([][]bool{{false, false}, {false, false}})

	input := groupInput{
		name:    "g",
		callSeq: []int{0, 1},
		prices:  prices,
		entries: entries,
		exits:   exits,
	}

	fills, states := simulateGroup(input, &config)

	s.Require().Len(fills[0], 1)
	s.False(fills[0][0].Rejected)
	s.InDelta(100.0, fills[0][0].Size, 1e-9)

	s.Require().Len(fills[1], 1)
	s.True(fills[1][0].Rejected)
	s.Equal(types.RejectReasonInsufficientCash, fills[1][0].RejectReason)

	// Both columns report the same shared account.
	s.InDelta(0.0, states[0][0].Cash, 1e-9)
	s.InDelta(states[0][0].Cash, states[1][0].Cash, 1e-9)
	s.InDelta(states[0][0].Equity, states[1][0].Equity, 1e-9)
	s.InDelta(1000.0, states[0][0].Equity, 1e-9)
}

func (s *GroupTestSuite) TestCallSeqDecidesWhoGetsTheCash() {
	config := TestConfig(1000)

	prices := s.mustGrid([][]float64{{10, 20}})
	entries := s.mustBoolGrid([][]bool{{true, true}})
	exits := s.mustBoolGrid([][]bool{{false, false}})

	input := groupInput{
		name:    "g",
		callSeq: []int{1, 0},
		prices:  prices,
		entries: entries,
		exits:   exits,
	}

	fills, _ := simulateGroup(input, &config)

	s.Require().Len(fills[1], 1)
	s.False(fills[1][0].Rejected)
	s.InDelta(50.0, fills[1][0].Size, 1e-9)

	s.Require().Len(fills[0], 1)
	s.True(fills[0][0].Rejected)
}

// A staggered rotation: column 0 owns the pool first, frees it, and column 1
// takes over. Group equity stays consistent through the handoff.
func (s *GroupTestSuite) TestRotationThroughSharedPool() {
	config := TestConfig(1000)

	prices := s.mustGrid([][]float64{
		{10, 5},
		{12, 5},
		{12, 4},
	})
	entries := s.mustBoolGrid([][]bool{
		{true, false},
		{false, false},
		{false, true},
	})
	exits := s.mustBoolGrid([][]bool{
		{false, false},
		{true, false},
		{false, false},
	})

	input := groupInput{
		name:    "g",
		callSeq: []int{0, 1},
		prices:  prices,
		entries: entries,
		exits:   exits,
	}

	fills, states := simulateGroup(input, &config)

	// Tick 0: column 0 invests the whole pool at 10.
	s.InDelta(100.0, fills[0][0].Size, 1e-9)
	s.InDelta(1000.0, states[0][0].Equity, 1e-9)

	// Tick 1: sold at 12, pool grows to 1200.
	s.InDelta(-100.0, fills[0][1].Size, 1e-9)
	s.InDelta(1200.0, states[0][1].Equity, 1e-9)
	s.InDelta(1200.0, states[0][1].Cash, 1e-9)

	// Tick 2: column 1 deploys the grown pool at 4.
	s.Require().Len(fills[1], 1)
	s.InDelta(300.0, fills[1][0].Size, 1e-9)
	s.InDelta(0.0, states[1][2].Cash, 1e-9)
	s.InDelta(1200.0, states[1][2].Equity, 1e-9)
}

func (s *GroupTestSuite) TestGroupEquityIdentity() {
	config := TestConfig(1000)
	config.Fees = 0.001
	config.Slippage = 0.001

	prices := s.mustGrid([][]float64{
		{10, 20},
		{11, 19},
		{12, 21},
		{9, 22},
	})
	entries := s.mustBoolGrid([][]bool{
		{true, false},
		{false, true},
		{false, false},
		{false, false},
	})
	exits := s.mustBoolGrid([][]bool{
		{false, false},
		{false, false},
		{true, false},
		{false, true},
	})

	input := groupInput{
		name:    "g",
		callSeq: []int{0, 1},
		prices:  prices,
		entries: entries,
		exits:   exits,
	}

	_, states := simulateGroup(input, &config)

	for tick := 0; tick < prices.Rows(); tick++ {
		expected := states[0][tick].Cash - states[0][tick].Debt
		for col := 0; col < 2; col++ {
			expected += states[col][tick].Shares * prices.At(tick, col)
		}

		s.InDelta(expected, states[0][tick].Equity, 1e-9, "tick %d", tick)
		s.Equal(states[0][tick].Equity, states[1][tick].Equity, "tick %d", tick)
		s.GreaterOrEqual(states[0][tick].Cash, 0.0, "tick %d", tick)
	}
}
