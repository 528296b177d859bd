package types

type FillSide string

type RejectReason string

const (
	// FillSideOpen opens or adds to a position.
	FillSideOpen FillSide = "OPEN"
	// FillSideClose reduces or fully closes a position.
	FillSideClose FillSide = "CLOSE"
	// FillSideReverse closes a position and opens one of the opposite sign in
	// a single fill.
	FillSideReverse FillSide = "REVERSE"
)

const (
	RejectReasonNone             RejectReason = ""
	RejectReasonInsufficientCash RejectReason = "insufficient_cash"
	RejectReasonShortDisabled    RejectReason = "short_selling_disabled"
	RejectReasonZeroSize         RejectReason = "zero_or_invalid_size"
	RejectReasonInvalidPrice     RejectReason = "invalid_price"
	RejectReasonUnknownSizeType  RejectReason = "unknown_size_type"
)

// Fill is the resolved outcome of attempting to execute one order at one tick.
// Fills are append-only: at most one fill per processed tick per column, and
// no fill is ever revised after it is recorded. Rejected fills stay in the log
// for auditability.
type Fill struct {
	Column int `yaml:"column" json:"column" csv:"column"`
	Tick   int `yaml:"tick" json:"tick" csv:"tick"`
	// Size is the signed filled quantity: positive for buys, negative for sells.
	// Zero when the fill was rejected.
	Size  float64  `yaml:"size" json:"size" csv:"size"`
	Price float64  `yaml:"price" json:"price" csv:"price"`
	Fees  float64  `yaml:"fees" json:"fees" csv:"fees"`
	Side  FillSide `yaml:"side" json:"side" csv:"side"`
	// Clipped is true when the requested quantity was reduced to what cash or
	// the held position allowed.
	Clipped      bool         `yaml:"clipped" json:"clipped" csv:"clipped"`
	Rejected     bool         `yaml:"rejected" json:"rejected" csv:"rejected"`
	RejectReason RejectReason `yaml:"reject_reason" json:"reject_reason" csv:"reject_reason"`
}
