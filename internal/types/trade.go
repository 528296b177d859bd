package types

import (
	"github.com/shopspring/decimal"
)

type TradeDirection string

type TradeStatus string

const (
	TradeDirectionLong  TradeDirection = "LONG"
	TradeDirectionShort TradeDirection = "SHORT"
)

const (
	TradeStatusClosed TradeStatus = "CLOSED"
	// TradeStatusOpen marks a trade whose position was still held when the
	// simulation ended. Its exit fields are synthetic, valued at the final price.
	TradeStatusOpen TradeStatus = "OPEN"
)

// TradeRecord is one round trip: a position opened and (partially or fully)
// closed, derived from the fill log after a column's simulation completes.
// Records are immutable once built.
type TradeRecord struct {
	Column     int            `yaml:"column" json:"column" csv:"column"`
	EntryTick  int            `yaml:"entry_tick" json:"entry_tick" csv:"entry_tick"`
	ExitTick   int            `yaml:"exit_tick" json:"exit_tick" csv:"exit_tick"`
	EntryPrice float64        `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice  float64        `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Size       float64        `yaml:"size" json:"size" csv:"size"`
	Direction  TradeDirection `yaml:"direction" json:"direction" csv:"direction"`
	Fees       float64        `yaml:"fees" json:"fees" csv:"fees"`
	PnL        float64        `yaml:"pnl" json:"pnl" csv:"pnl"`
	ReturnPct  float64        `yaml:"return_pct" json:"return_pct" csv:"return_pct"`
	Status     TradeStatus    `yaml:"status" json:"status" csv:"status"`
}

// DirectionSign returns +1 for long trades and -1 for short trades.
func (t *TradeRecord) DirectionSign() float64 {
	if t.Direction == TradeDirectionShort {
		return -1
	}

	return 1
}

// Duration returns the number of ticks the trade was held.
func (t *TradeRecord) Duration() int {
	return t.ExitTick - t.EntryTick
}

// TradePnL computes (exitPrice - entryPrice) * size * sign - fees using
// decimal arithmetic. The trade extractor's reconciliation property (summed
// trade PnL equals final equity minus initial cash) depends on this not
// drifting, so it is not done in raw float math.
func TradePnL(entryPrice, exitPrice, size float64, direction TradeDirection, fees float64) float64 {
	sign := decimal.NewFromInt(1)
	if direction == TradeDirectionShort {
		sign = decimal.NewFromInt(-1)
	}

	entryDec := decimal.NewFromFloat(entryPrice)
	exitDec := decimal.NewFromFloat(exitPrice)
	sizeDec := decimal.NewFromFloat(size)

	gross := exitDec.Sub(entryDec).Mul(sizeDec).Mul(sign)
	pnl, _ := gross.Sub(decimal.NewFromFloat(fees)).Float64()

	return pnl
}

// TradeReturnPct computes the trade return relative to the entry value.
// Returns 0 when the entry value is zero.
func TradeReturnPct(entryPrice, size, pnl float64) float64 {
	entryValue := decimal.NewFromFloat(entryPrice).Mul(decimal.NewFromFloat(size))
	if entryValue.IsZero() {
		return 0
	}

	ret, _ := decimal.NewFromFloat(pnl).Div(entryValue).Float64()

	return ret
}
