package types

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type OrderTestSuite struct {
	suite.Suite
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func (suite *OrderTestSuite) TestValidOrder() {
	order := Order{
		Column:   0,
		Tick:     5,
		Size:     10,
		SizeType: SizeTypeShares,
		Side:     OrderSideBuy,
	}
	suite.NoError(order.Validate())
}

func (suite *OrderTestSuite) TestValidOrderWithPriceHint() {
	order := Order{
		Column:    1,
		Tick:      0,
		Size:      0.5,
		SizeType:  SizeTypeTargetPercent,
		Side:      OrderSideSell,
		PriceHint: optional.Some(101.5),
	}
	suite.NoError(order.Validate())
}

func (suite *OrderTestSuite) TestInvalidSizeType() {
	order := Order{
		Column:   0,
		Tick:     0,
		Size:     10,
		SizeType: SizeType("LOTS"),
		Side:     OrderSideBuy,
	}
	suite.Error(order.Validate())
}

func (suite *OrderTestSuite) TestInvalidSide() {
	order := Order{
		Column:   0,
		Tick:     0,
		Size:     10,
		SizeType: SizeTypeShares,
		Side:     OrderSide("HOLD"),
	}
	suite.Error(order.Validate())
}

func (suite *OrderTestSuite) TestNegativeColumn() {
	order := Order{
		Column:   -1,
		Tick:     0,
		Size:     10,
		SizeType: SizeTypeShares,
		Side:     OrderSideBuy,
	}
	suite.Error(order.Validate())
}
