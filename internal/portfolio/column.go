package portfolio

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

// cashEpsilon absorbs float rounding when a clipped buy spends cash exactly
// to zero.
const cashEpsilon = 1e-9

// simState is the mutable per-column account during a simulation run. It is
// owned by exactly one goroutine for its whole lifetime.
type simState struct {
	cash     float64
	shares   float64
	debt     float64
	avgEntry float64
	// otherValue is the marked value of sibling positions when this state is
	// a view into a shared-cash group. Zero for ungrouped columns.
	otherValue float64
}

// equityAt returns the accounting identity cash - debt + shares*price, plus
// the value of sibling positions when part of a shared-cash group.
func (s *simState) equityAt(price float64) float64 {
	return s.cash - s.debt + s.shares*price + s.otherValue
}

// applyFill mutates the account for a resolved fill. Buys beyond cash book
// the shortfall as margin debt (only reachable with leverage enabled); sell
// proceeds repay debt before accumulating as cash.
func (s *simState) applyFill(delta, price, fees float64) {
	prev := s.shares
	next := prev + delta

	if delta > 0 {
		cost := delta*price + fees

		s.cash -= cost
		if s.cash < 0 {
			// A fully clipped buy can leave cash a few ulps below zero; only
			// a genuine shortfall becomes margin debt.
			if s.cash < -cashEpsilon {
				s.debt += -s.cash
			}

			s.cash = 0
		}
	} else {
		proceeds := -delta*price - fees

		s.cash += proceeds
		if s.debt > 0 {
			repay := math.Min(s.debt, s.cash)
			s.debt -= repay
			s.cash -= repay
		}
	}

	switch {
	case prev == 0 && next != 0:
		s.avgEntry = price
	case prev*next < 0:
		// Reversal: the surviving position was opened at this fill.
		s.avgEntry = price
	case next == 0:
		s.avgEntry = 0
	case math.Abs(next) > math.Abs(prev):
		s.avgEntry = (s.avgEntry*math.Abs(prev) + price*math.Abs(delta)) / math.Abs(next)
	}

	s.shares = next
}

// OrderContext is what an order-generation callback sees at one tick: the
// column, the tick, the current reference price, and the state left by the
// previous tick. It never exposes data beyond the current tick.
type OrderContext struct {
	Column int
	Tick   int
	Price  float64
	State  types.ColumnState
}

// OrderFunc generates at most one order per tick per column. Returning None
// skips the tick without recording a fill.
type OrderFunc func(ctx OrderContext) optional.Option[types.Order]

// columnInput carries everything one column's simulation needs. Exactly one
// of signals (entries+exits) or orderFunc is set.
type columnInput struct {
	column    int
	prices    []float64
	entries   []bool
	exits     []bool
	orderFunc OrderFunc
}

// signalOrder translates the entry/exit signal pair at one tick into at most
// one order, given the current position. Entry on a flat column opens; entry
// against a short reverses into a long in a single order; exit on a nonzero
// position closes it entirely. Conflicting signals resolve per policy.
func signalOrder(column, tick int, entry, exit bool, shares float64, config *Config) optional.Option[types.Order] {
	if entry && exit {
		switch config.ConflictPolicy {
		case ConflictPolicyPreferExit:
			entry = false
		case ConflictPolicyPreferEntry:
			exit = false
		default:
			return optional.None[types.Order]()
		}
	}

	if exit && shares != 0 {
		// Rebalance to zero closes the whole position in one fill regardless
		// of its sign.
		return optional.Some(types.Order{
			Column:   column,
			Tick:     tick,
			Size:     0,
			SizeType: types.SizeTypeTargetValue,
			Side:     types.OrderSideSell,
		})
	}

	if entry && shares <= 0 {
		if shares < 0 {
			// Reversal must cross zero in one fill, so express the entry as a
			// target instead of an incremental buy.
			return optional.Some(types.Order{
				Column:   column,
				Tick:     tick,
				Size:     config.OrderSize,
				SizeType: targetSizeType(config.OrderSizeType),
				Side:     types.OrderSideBuy,
			})
		}

		return optional.Some(types.Order{
			Column:   column,
			Tick:     tick,
			Size:     config.OrderSize,
			SizeType: config.OrderSizeType,
			Side:     types.OrderSideBuy,
		})
	}

	return optional.None[types.Order]()
}

// targetSizeType maps an incremental size type to its rebalancing equivalent.
func targetSizeType(sizeType types.SizeType) types.SizeType {
	switch sizeType {
	case types.SizeTypePercent:
		return types.SizeTypeTargetPercent
	case types.SizeTypeValue:
		return types.SizeTypeTargetValue
	default:
		return sizeType
	}
}

// simulateColumn runs the sequential per-column state machine. Each tick's
// order resolution is a pure function of the previous tick's state, so the
// loop can never be reordered or vectorized; parallelism lives one level up,
// across columns.
//
// The returned state series has exactly one snapshot per tick; the fill log
// has at most one fill per tick, including rejected fills.
func simulateColumn(input columnInput, config *Config) ([]types.Fill, []types.ColumnState) {
	state := simState{cash: config.InitialCash}

	fills := make([]types.Fill, 0)
	states := make([]types.ColumnState, 0, len(input.prices))

	lastEquity := config.InitialCash

	for tick := 0; tick < len(input.prices); tick++ {
		price := input.prices[tick]
		priceValid := !math.IsNaN(price) && !math.IsInf(price, 0) && price > 0

		order := tickOrder(input, tick, &state, config, lastEquity)

		if order.IsSome() {
			fill := executeOrder(&state, order.Unwrap(), price, priceValid, config)
			fills = append(fills, fill)
		}

		if priceValid {
			lastEquity = state.equityAt(price)
		}

		states = append(states, types.ColumnState{
			Tick:          tick,
			Cash:          state.cash,
			Shares:        state.shares,
			Debt:          state.debt,
			AvgEntryPrice: state.avgEntry,
			Equity:        lastEquity,
		})
	}

	return fills, states
}

// tickOrder determines the order for this column at this tick, from signals
// or from the caller's order-generation callback.
func tickOrder(input columnInput, tick int, state *simState, config *Config, lastEquity float64) optional.Option[types.Order] {
	if input.orderFunc != nil {
		return input.orderFunc(OrderContext{
			Column: input.column,
			Tick:   tick,
			Price:  input.prices[tick],
			State: types.ColumnState{
				Tick:          tick,
				Cash:          state.cash,
				Shares:        state.shares,
				Debt:          state.debt,
				AvgEntryPrice: state.avgEntry,
				Equity:        lastEquity,
			},
		})
	}

	if input.entries != nil {
		return signalOrder(input.column, tick, input.entries[tick], input.exits[tick], state.shares, config)
	}

	return optional.None[types.Order]()
}

// executeOrder resolves and applies a single order, returning the fill record.
// Non-positive or non-finite prices reject the order at this tick instead of
// letting NaN propagate into the account.
func executeOrder(state *simState, order types.Order, price float64, priceValid bool, config *Config) types.Fill {
	refPrice := price
	if order.PriceHint.IsSome() {
		hint := order.PriceHint.Unwrap()
		if !math.IsNaN(hint) && !math.IsInf(hint, 0) && hint > 0 {
			refPrice = hint
			priceValid = true
		}
	}

	if !priceValid {
		return types.Fill{
			Column:       order.Column,
			Tick:         order.Tick,
			Size:         0,
			Price:        price,
			Fees:         0,
			Rejected:     true,
			RejectReason: types.RejectReasonInvalidPrice,
		}
	}

	res := resolveOrder(state, refPrice, order, config)
	if res.rejected() {
		return types.Fill{
			Column:       order.Column,
			Tick:         order.Tick,
			Size:         0,
			Price:        res.price,
			Fees:         0,
			Rejected:     true,
			RejectReason: res.reject,
		}
	}

	fees := config.FixedFees + config.Fees*math.Abs(res.size)*res.price
	side := classifyFill(state.shares, res.size)

	state.applyFill(res.size, res.price, fees)

	return types.Fill{
		Column:       order.Column,
		Tick:         order.Tick,
		Size:         res.size,
		Price:        res.price,
		Fees:         fees,
		Side:         side,
		Clipped:      res.clipped,
		Rejected:     false,
		RejectReason: types.RejectReasonNone,
	}
}
