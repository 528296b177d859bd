package types

// ColumnState is the per-tick snapshot of one column's accounts. One snapshot
// is appended per tick and never revised.
//
// Cash never goes negative: when leverage is enabled and a buy exceeds
// available cash, the shortfall is booked to Debt (a margin loan) and cash
// floors at zero. Short sale proceeds are credited to cash. Under this model
// the accounting identity
//
//	Equity == Cash - Debt + Shares*price
//
// holds exactly at every tick for long, short and levered positions.
type ColumnState struct {
	Tick int     `yaml:"tick" json:"tick" csv:"tick"`
	Cash float64 `yaml:"cash" json:"cash" csv:"cash"`
	// Shares is the signed position: negative when short.
	Shares float64 `yaml:"shares" json:"shares" csv:"shares"`
	// Debt is the outstanding margin loan. Zero unless leverage is enabled.
	Debt float64 `yaml:"debt" json:"debt" csv:"debt"`
	// AvgEntryPrice is the weighted average entry price of the open position.
	// Zero when flat.
	AvgEntryPrice float64 `yaml:"avg_entry_price" json:"avg_entry_price" csv:"avg_entry_price"`
	Equity        float64 `yaml:"equity" json:"equity" csv:"equity"`
}
