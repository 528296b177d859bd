package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

type OrderSide string

type SizeType string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	// SizeTypeShares fills exactly the requested quantity of shares.
	SizeTypeShares SizeType = "SHARES"
	// SizeTypeValue converts a monetary amount to shares at the execution price.
	SizeTypeValue SizeType = "VALUE"
	// SizeTypePercent converts a fraction of current equity to shares.
	SizeTypePercent SizeType = "PERCENT"
	// SizeTypeTargetPercent rebalances the position toward a fraction of equity.
	SizeTypeTargetPercent SizeType = "TARGET_PERCENT"
	// SizeTypeTargetValue rebalances the position toward a monetary exposure.
	SizeTypeTargetValue SizeType = "TARGET_VALUE"
)

// AllSizeTypes lists every supported size type, for schema generation and
// configuration validation.
var AllSizeTypes = []any{
	string(SizeTypeShares),
	string(SizeTypeValue),
	string(SizeTypePercent),
	string(SizeTypeTargetPercent),
	string(SizeTypeTargetValue),
}

// Order is a single trading instruction for one column at one tick. Orders are
// immutable once issued; resolution happens at execution time against the
// column's prior state.
type Order struct {
	Column   int       `yaml:"column" json:"column" csv:"column" validate:"gte=0"`
	Tick     int       `yaml:"tick" json:"tick" csv:"tick" validate:"gte=0"`
	Size     float64   `yaml:"size" json:"size" csv:"size"`
	SizeType SizeType  `yaml:"size_type" json:"size_type" csv:"size_type" validate:"required,oneof=SHARES VALUE PERCENT TARGET_PERCENT TARGET_VALUE"`
	Side     OrderSide `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	// PriceHint overrides the tick price as the execution reference when set.
	// Slippage still applies on top of it.
	PriceHint optional.Option[float64] `yaml:"price_hint" json:"price_hint" csv:"price_hint"`
}

// Validate validates the Order struct. Zero or non-finite sizes are not
// structural errors; they surface as rejected fills at execution time.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
