// Package trade derives round-trip trade records from a column's fill log.
// It is a read-only consumer of a finished simulation: it never mutates fills
// and can be re-run at any time with identical output.
package trade

import (
	"math"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

// sizeEpsilon decides when a reducing fill counts as a full close despite
// float dust left by size arithmetic.
const sizeEpsilon = 1e-12

// openPosition tracks the trade currently being built while scanning fills.
type openPosition struct {
	entryTick int
	qty       float64
	avgEntry  float64
	entryFees float64
	direction types.TradeDirection
}

// Extract scans a column's fill log in order and produces its round-trip
// trades: a position going from zero to nonzero opens a trade, reductions
// close it (partially or fully) at the weighted average entry price, and a
// sign reversal closes the old trade and opens a new one at the same tick.
// A position still held at the end becomes an Open trade with a synthetic
// exit at the final valid price.
//
// Entry fees are attributed to closed portions proportionally, so summed
// trade PnL reconciles with the column's final equity minus initial cash.
func Extract(column int, fills []types.Fill, prices []float64) []types.TradeRecord {
	trades := make([]types.TradeRecord, 0)

	var pos *openPosition

	for _, fill := range fills {
		if fill.Rejected || fill.Size == 0 {
			continue
		}

		if pos == nil {
			pos = openFromFill(fill)

			continue
		}

		sameDirection := (fill.Size > 0) == (pos.direction == types.TradeDirectionLong)
		if sameDirection {
			addToPosition(pos, fill)

			continue
		}

		closed := math.Abs(fill.Size)

		switch {
		case closed < pos.qty-sizeEpsilon*pos.qty:
			// Partial close: split off the closed portion, keep the remainder
			// at the same average entry.
			feeShare := pos.entryFees * closed / pos.qty
			trades = append(trades, closeTrade(column, pos, fill.Tick, fill.Price, closed, feeShare+fill.Fees))
			pos.qty -= closed
			pos.entryFees -= feeShare

		case closed <= pos.qty+sizeEpsilon*pos.qty:
			trades = append(trades, closeTrade(column, pos, fill.Tick, fill.Price, pos.qty, pos.entryFees+fill.Fees))
			pos = nil

		default:
			// Reversal: the fill closes the whole position and opens one of
			// the opposite sign atomically. Exit fees split by size share.
			exitFeeShare := fill.Fees * pos.qty / closed
			trades = append(trades, closeTrade(column, pos, fill.Tick, fill.Price, pos.qty, pos.entryFees+exitFeeShare))

			remaining := closed - pos.qty
			direction := types.TradeDirectionLong

			if fill.Size < 0 {
				direction = types.TradeDirectionShort
			}

			pos = &openPosition{
				entryTick: fill.Tick,
				qty:       remaining,
				avgEntry:  fill.Price,
				entryFees: fill.Fees - exitFeeShare,
				direction: direction,
			}
		}
	}

	if pos != nil && len(prices) > 0 {
		trades = append(trades, closeOpenPosition(column, pos, prices))
	}

	return trades
}

func openFromFill(fill types.Fill) *openPosition {
	direction := types.TradeDirectionLong
	if fill.Size < 0 {
		direction = types.TradeDirectionShort
	}

	return &openPosition{
		entryTick: fill.Tick,
		qty:       math.Abs(fill.Size),
		avgEntry:  fill.Price,
		entryFees: fill.Fees,
		direction: direction,
	}
}

// addToPosition folds an addition into the weighted average entry price.
func addToPosition(pos *openPosition, fill types.Fill) {
	added := math.Abs(fill.Size)
	total := pos.qty + added

	pos.avgEntry = (pos.avgEntry*pos.qty + fill.Price*added) / total
	pos.qty = total
	pos.entryFees += fill.Fees
}

func closeTrade(column int, pos *openPosition, exitTick int, exitPrice, size, fees float64) types.TradeRecord {
	pnl := types.TradePnL(pos.avgEntry, exitPrice, size, pos.direction, fees)

	return types.TradeRecord{
		Column:     column,
		EntryTick:  pos.entryTick,
		ExitTick:   exitTick,
		EntryPrice: pos.avgEntry,
		ExitPrice:  exitPrice,
		Size:       size,
		Direction:  pos.direction,
		Fees:       fees,
		PnL:        pnl,
		ReturnPct:  types.TradeReturnPct(pos.avgEntry, size, pnl),
		Status:     types.TradeStatusClosed,
	}
}

// closeOpenPosition reports the still-held position as an Open trade with a
// synthetic exit at the last valid price. No exit fees apply since nothing
// was sold.
func closeOpenPosition(column int, pos *openPosition, prices []float64) types.TradeRecord {
	exitPrice := lastValidPrice(prices, pos.avgEntry)
	pnl := types.TradePnL(pos.avgEntry, exitPrice, pos.qty, pos.direction, pos.entryFees)

	return types.TradeRecord{
		Column:     column,
		EntryTick:  pos.entryTick,
		ExitTick:   len(prices) - 1,
		EntryPrice: pos.avgEntry,
		ExitPrice:  exitPrice,
		Size:       pos.qty,
		Direction:  pos.direction,
		Fees:       pos.entryFees,
		PnL:        pnl,
		ReturnPct:  types.TradeReturnPct(pos.avgEntry, pos.qty, pnl),
		Status:     types.TradeStatusOpen,
	}
}

// lastValidPrice returns the last finite positive price, falling back when
// the tail of the series is unusable.
func lastValidPrice(prices []float64, fallback float64) float64 {
	for i := len(prices) - 1; i >= 0; i-- {
		p := prices[i]
		if !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0 {
			return p
		}
	}

	return fallback
}
