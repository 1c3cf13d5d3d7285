package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type AccountTestSuite struct {
	suite.Suite
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(AccountTestSuite))
}

func (suite *AccountTestSuite) TestPositionMarketValue() {
	tests := []struct {
		name     string
		position Position
		expected float64
	}{
		{
			name:     "Long position",
			position: Position{Symbol: "AAPL", Quantity: 100, LastPrice: 10.0},
			expected: 1000.0,
		},
		{
			name:     "Short position",
			position: Position{Symbol: "AAPL", Quantity: -50, LastPrice: 10.0},
			expected: -500.0,
		},
		{
			name:     "Flat position",
			position: Position{Symbol: "AAPL", Quantity: 0, LastPrice: 10.0},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.Equal(tt.expected, tt.position.MarketValue())
		})
	}
}

func (suite *AccountTestSuite) TestPositionUnrealizedPnL() {
	tests := []struct {
		name     string
		position Position
		expected float64
	}{
		{
			name:     "Long in profit",
			position: Position{Quantity: 100, AvgCost: 10.0, LastPrice: 12.5},
			expected: 250.0,
		},
		{
			name:     "Long in loss",
			position: Position{Quantity: 100, AvgCost: 10.0, LastPrice: 9.0},
			expected: -100.0,
		},
		{
			name:     "Short in profit",
			position: Position{Quantity: -100, AvgCost: 10.0, LastPrice: 9.0},
			expected: 100.0,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.InDelta(tt.expected, tt.position.UnrealizedPnL(), 1e-9)
		})
	}
}

func (suite *AccountTestSuite) TestCloneIsIndependent() {
	original := AccountState{
		Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Cash: 50000,
		Positions: map[string]Position{
			"AAPL": {Symbol: "AAPL", Quantity: 5000, AvgCost: 10.0, LastPrice: 10.0},
		},
		TotalAssets: 100000,
	}

	clone := original.Clone()

	// Mutating the clone's map must not bleed into the original.
	clone.Positions["AAPL"] = Position{Symbol: "AAPL", Quantity: 1, AvgCost: 1.0, LastPrice: 1.0}
	clone.Cash = 0

	suite.Equal(int64(5000), original.Positions["AAPL"].Quantity)
	suite.Equal(50000.0, original.Cash)
}

func (suite *AccountTestSuite) TestPositionValue() {
	state := AccountState{
		Positions: map[string]Position{
			"AAPL":  {Quantity: 100, LastPrice: 10.0},
			"GOOGL": {Quantity: -20, LastPrice: 50.0},
		},
	}

	suite.Equal(0.0, state.PositionValue())
}

func (suite *AccountTestSuite) TestOrderSide() {
	buy := Order{Symbol: "AAPL", Quantity: 100}
	sell := Order{Symbol: "AAPL", Quantity: -100}

	suite.Equal(SideBuy, buy.Side())
	suite.Equal(SideSell, sell.Side())
}

func (suite *AccountTestSuite) TestOrderValidate() {
	valid := Order{Symbol: "AAPL", Quantity: 100}
	suite.NoError(valid.Validate())

	zeroQty := Order{Symbol: "AAPL", Quantity: 0}
	suite.Error(zeroQty.Validate())

	noSymbol := Order{Quantity: 100}
	suite.Error(noSymbol.Validate())
}
