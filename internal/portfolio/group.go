package portfolio

import (
	"math"
	"sort"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

// groupInput carries one shared-cash group's slice of the run. Exactly one of
// signals (entries+exits) or orderFunc is set, same as columnInput.
type groupInput struct {
	name      string
	callSeq   []int
	prices    types.Grid
	entries   *types.BoolGrid
	exits     *types.BoolGrid
	orderFunc OrderFunc
}

// groupAccount is the shared side of a group: one cash pool, one margin loan.
type groupAccount struct {
	cash float64
	debt float64
}

// groupColumn is the per-column side: position and average entry, plus the
// last price the position could be marked at.
type groupColumn struct {
	shares    float64
	avgEntry  float64
	markPrice float64
	hasMark   bool
}

// resolveCallSeq returns the configured call sequence for a group, defaulting
// to ascending column order. The returned order is part of the engine's
// contract: at every tick, later columns see the cash state left by earlier
// ones.
func resolveCallSeq(spec GroupSpec) []int {
	if len(spec.CallSeq) > 0 {
		seq := make([]int, len(spec.CallSeq))
		copy(seq, spec.CallSeq)

		return seq
	}

	seq := make([]int, len(spec.Columns))
	copy(seq, spec.Columns)
	sort.Ints(seq)

	return seq
}

// simulateGroup runs all columns of one shared-cash group, tick-synchronous:
// within a tick, columns execute in call-seq order against the shared pool.
// The whole group is owned by a single goroutine, so no locking is needed.
func simulateGroup(input groupInput, config *Config) (map[int][]types.Fill, map[int][]types.ColumnState) {
	account := groupAccount{cash: config.InitialCash}

	columns := make(map[int]*groupColumn, len(input.callSeq))
	fills := make(map[int][]types.Fill, len(input.callSeq))
	states := make(map[int][]types.ColumnState, len(input.callSeq))

	for _, col := range input.callSeq {
		columns[col] = &groupColumn{}
		fills[col] = make([]types.Fill, 0)
		states[col] = make([]types.ColumnState, 0, input.prices.Rows())
	}

	lastEquity := config.InitialCash

	for tick := 0; tick < input.prices.Rows(); tick++ {
		for _, col := range input.callSeq {
			column := columns[col]
			price := input.prices.At(tick, col)
			priceValid := !math.IsNaN(price) && !math.IsInf(price, 0) && price > 0

			order := groupTickOrder(input, tick, col, column, &account, columns, config, lastEquity)
			if order.IsNone() {
				continue
			}

			view := simState{
				cash:       account.cash,
				shares:     column.shares,
				debt:       account.debt,
				avgEntry:   column.avgEntry,
				otherValue: siblingValue(input.callSeq, columns, col),
			}

			fill := executeOrder(&view, order.Unwrap(), price, priceValid, config)
			fills[col] = append(fills[col], fill)

			account.cash = view.cash
			account.debt = view.debt
			column.shares = view.shares
			column.avgEntry = view.avgEntry

			if !fill.Rejected {
				column.markPrice = fill.Price
				column.hasMark = true
			}
		}

		// Mark every position at this tick's prices before snapshotting.
		for _, col := range input.callSeq {
			column := columns[col]
			price := input.prices.At(tick, col)

			if !math.IsNaN(price) && !math.IsInf(price, 0) && price > 0 {
				column.markPrice = price
				column.hasMark = true
			}
		}

		equity := account.cash - account.debt
		for _, col := range input.callSeq {
			equity += positionValue(columns[col])
		}

		lastEquity = equity

		for _, col := range input.callSeq {
			column := columns[col]
			states[col] = append(states[col], types.ColumnState{
				Tick:          tick,
				Cash:          account.cash,
				Shares:        column.shares,
				Debt:          account.debt,
				AvgEntryPrice: column.avgEntry,
				Equity:        equity,
			})
		}
	}

	return fills, states
}

// groupTickOrder mirrors tickOrder for a grouped column: the callback (or the
// signal translation) sees shared cash and combined equity.
func groupTickOrder(
	input groupInput,
	tick, col int,
	column *groupColumn,
	account *groupAccount,
	columns map[int]*groupColumn,
	config *Config,
	lastEquity float64,
) optional.Option[types.Order] {
	if input.orderFunc != nil {
		return input.orderFunc(OrderContext{
			Column: col,
			Tick:   tick,
			Price:  input.prices.At(tick, col),
			State: types.ColumnState{
				Tick:          tick,
				Cash:          account.cash,
				Shares:        column.shares,
				Debt:          account.debt,
				AvgEntryPrice: column.avgEntry,
				Equity:        lastEquity,
			},
		})
	}

	return signalOrder(col, tick, input.entries.At(tick, col), input.exits.At(tick, col), column.shares, config)
}

// siblingValue sums the marked value of every other position in the group.
// Summation follows call-seq order so repeated runs accumulate floats
// identically.
func siblingValue(callSeq []int, columns map[int]*groupColumn, except int) float64 {
	total := 0.0

	for _, col := range callSeq {
		if col == except {
			continue
		}

		total += positionValue(columns[col])
	}

	return total
}

func positionValue(column *groupColumn) float64 {
	if !column.hasMark {
		return 0
	}

	return column.shares * column.markPrice
}
