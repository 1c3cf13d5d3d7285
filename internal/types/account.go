package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents the current holding of a single instrument.
// Quantity is signed: positive for long, negative for short positions.
// Mutated only by the portfolio ledger in response to fills.
type Position struct {
	Symbol    string  `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity  int64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	AvgCost   float64 `yaml:"avg_cost" json:"avg_cost" csv:"avg_cost"`
	LastPrice float64 `yaml:"last_price" json:"last_price" csv:"last_price"`
}

// MarketValue returns the position value at the last mark price.
func (p *Position) MarketValue() float64 {
	return float64(p.Quantity) * p.LastPrice
}

// UnrealizedPnL returns the profit or loss against the average cost basis.
// Uses decimal arithmetic to avoid accumulating float error on large positions.
func (p *Position) UnrealizedPnL() float64 {
	qty := decimal.NewFromInt(p.Quantity)
	diff := decimal.NewFromFloat(p.LastPrice).Sub(decimal.NewFromFloat(p.AvgCost))

	result, _ := diff.Mul(qty).Float64()

	return result
}

// AccountState is a complete snapshot of the account at one simulated date.
// History entries are AccountState values; they must never alias the live
// ledger, so snapshotting always goes through Clone.
type AccountState struct {
	Date        time.Time           `yaml:"date" json:"date" csv:"date"`
	Cash        float64             `yaml:"cash" json:"cash" csv:"cash"`
	Positions   map[string]Position `yaml:"positions" json:"positions" csv:"-"`
	TotalAssets float64             `yaml:"total_assets" json:"total_assets" csv:"total_assets"`
}

// Clone returns a deep copy with an independent positions map.
func (s AccountState) Clone() AccountState {
	positions := make(map[string]Position, len(s.Positions))
	for symbol, position := range s.Positions {
		positions[symbol] = position
	}

	return AccountState{
		Date:        s.Date,
		Cash:        s.Cash,
		Positions:   positions,
		TotalAssets: s.TotalAssets,
	}
}

// PositionValue returns the summed market value of all positions.
func (s AccountState) PositionValue() float64 {
	total := 0.0
	for _, position := range s.Positions {
		total += position.MarketValue()
	}

	return total
}
