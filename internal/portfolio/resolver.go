package portfolio

import (
	"math"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

// resolution is the concrete outcome of resolving one order against a
// column's prior state: a signed share delta, the execution price after
// slippage, and whether the request was clipped or rejected.
type resolution struct {
	size    float64
	price   float64
	clipped bool
	reject  types.RejectReason
}

func (r resolution) rejected() bool {
	return r.reject != types.RejectReasonNone
}

func rejectResolution(price float64, reason types.RejectReason) resolution {
	return resolution{size: 0, price: price, clipped: false, reject: reason}
}

// slippedPrice applies proportional slippage in the adverse direction: buys
// fill higher, sells fill lower.
func slippedPrice(price, slippage, direction float64) float64 {
	if direction > 0 {
		return price * (1 + slippage)
	}

	return price * (1 - slippage)
}

// resolveOrder converts an order into a signed share delta against the
// column's prior state, using refPrice as the price reference. Target size
// types rebalance against current exposure and may flip direction; all other
// size types take their direction from the order side.
func resolveOrder(state *simState, refPrice float64, order types.Order, config *Config) resolution {
	if math.IsNaN(order.Size) || math.IsInf(order.Size, 0) {
		return rejectResolution(refPrice, types.RejectReasonZeroSize)
	}

	var delta float64

	var execPrice float64

	switch order.SizeType {
	case types.SizeTypeShares:
		if order.Size <= 0 {
			return rejectResolution(refPrice, types.RejectReasonZeroSize)
		}

		delta = order.Size
		if order.Side == types.OrderSideSell {
			delta = -delta
		}

		execPrice = slippedPrice(refPrice, config.Slippage, delta)

	case types.SizeTypeValue, types.SizeTypePercent:
		if order.Size <= 0 {
			return rejectResolution(refPrice, types.RejectReasonZeroSize)
		}

		direction := 1.0
		if order.Side == types.OrderSideSell {
			direction = -1.0
		}

		execPrice = slippedPrice(refPrice, config.Slippage, direction)

		value := order.Size
		if order.SizeType == types.SizeTypePercent {
			value = state.equityAt(refPrice) * order.Size
		}

		if value <= 0 {
			return rejectResolution(refPrice, types.RejectReasonZeroSize)
		}

		delta = direction * value / execPrice

	case types.SizeTypeTargetValue, types.SizeTypeTargetPercent:
		targetValue := order.Size
		if order.SizeType == types.SizeTypeTargetPercent {
			targetValue = state.equityAt(refPrice) * order.Size
		}

		desired := targetValue / refPrice
		delta = desired - state.shares

		if delta == 0 {
			return rejectResolution(refPrice, types.RejectReasonZeroSize)
		}

		execPrice = slippedPrice(refPrice, config.Slippage, delta)

	default:
		return rejectResolution(refPrice, types.RejectReasonUnknownSizeType)
	}

	if delta > 0 {
		return resolveBuy(state, delta, execPrice, config)
	}

	return resolveSell(state, delta, execPrice, config)
}

// resolveBuy clips the requested quantity to what cash allows when leverage
// is off. A buy that cannot afford a single share is rejected.
func resolveBuy(state *simState, delta, execPrice float64, config *Config) resolution {
	if config.AllowLeverage {
		return resolution{size: delta, price: execPrice, clipped: false, reject: types.RejectReasonNone}
	}

	affordable := (state.cash - config.FixedFees) / (execPrice * (1 + config.Fees))
	if affordable <= 0 {
		return rejectResolution(execPrice, types.RejectReasonInsufficientCash)
	}

	if delta > affordable {
		return resolution{size: affordable, price: execPrice, clipped: true, reject: types.RejectReasonNone}
	}

	return resolution{size: delta, price: execPrice, clipped: false, reject: types.RejectReasonNone}
}

// resolveSell clips a sell that would cross through zero to a full close when
// short selling is off, and rejects sells with no position to reduce. It also
// rejects sells whose fees exceed the proceeds plus available cash, so cash
// can never go negative.
func resolveSell(state *simState, delta, execPrice float64, config *Config) resolution {
	clipped := false

	if !config.AllowShort && state.shares+delta < 0 {
		if state.shares <= 0 {
			return rejectResolution(execPrice, types.RejectReasonShortDisabled)
		}

		delta = -state.shares
		clipped = true
	}

	proceeds := -delta * execPrice
	fees := config.FixedFees + config.Fees*proceeds

	if state.cash+proceeds-fees < 0 {
		return rejectResolution(execPrice, types.RejectReasonInsufficientCash)
	}

	return resolution{size: delta, price: execPrice, clipped: clipped, reject: types.RejectReasonNone}
}

// classifyFill labels a resolved fill by how it moves the position relative
// to the prior share count.
func classifyFill(prevShares, delta float64) types.FillSide {
	newShares := prevShares + delta

	switch {
	case prevShares == 0:
		return types.FillSideOpen
	case prevShares*newShares < 0:
		return types.FillSideReverse
	case math.Abs(newShares) > math.Abs(prevShares):
		return types.FillSideOpen
	default:
		return types.FillSideClose
	}
}
