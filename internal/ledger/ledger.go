// Package ledger holds the mutable present of a simulated account: cash and
// per-instrument positions. Orders are applied through it, valuation is
// computed from it, and the immutable past is captured from it as deep-copied
// account snapshots.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chrono-trade/chrono/internal/types"
)

// ApplyOptions carries the execution parameters for one batch of orders.
type ApplyOptions struct {
	// Date stamps the produced fills.
	Date time.Time
	// Prices maps instrument to the step's reference price. Orders whose
	// instrument has no positive reference price are skipped, not errored.
	Prices map[string]float64
	// AllowShort permits net-negative positions. When false, sells are
	// clamped to exactly flatten an existing long; a sell with no long is
	// silently skipped.
	AllowShort bool
	// CommissionRate is applied to the absolute executed notional.
	CommissionRate float64
	// SlippageRate inflates buy prices and deflates sell prices.
	SlippageRate float64
	// Strategy labels the produced fills for attribution.
	Strategy string
}

// Ledger is the account's live state. It is owned by a single run and is
// not safe for concurrent use.
type Ledger struct {
	cash      float64
	positions map[string]types.Position
}

// New creates a ledger seeded with the given cash.
func New(initialCash float64) *Ledger {
	return &Ledger{
		cash:      initialCash,
		positions: make(map[string]types.Position),
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// Position returns the current position for an instrument and whether one
// is held.
func (l *Ledger) Position(symbol string) (types.Position, bool) {
	position, ok := l.positions[symbol]

	return position, ok
}

// Positions returns a copy of all current positions.
func (l *Ledger) Positions() map[string]types.Position {
	out := make(map[string]types.Position, len(l.positions))
	for symbol, position := range l.positions {
		out[symbol] = position
	}

	return out
}

// Apply executes a batch of orders against the reference prices and returns
// one fill per executed order. Orders are processed in slice order; the
// summed effect is what matters for the final state, so callers aggregate
// across strategies before applying. Orders with zero quantity, no known
// price, or a short-clamped quantity of zero are skipped with no side
// effects; failures are never partial because each order is validated
// before any cash or position mutation.
func (l *Ledger) Apply(orders []types.Order, opts ApplyOptions) []types.Fill {
	var fills []types.Fill

	for _, order := range orders {
		if order.Quantity == 0 {
			continue
		}

		reference, ok := opts.Prices[order.Symbol]
		if order.Limit.IsSome() {
			reference, ok = order.Limit.Unwrap(), true
		}

		if !ok || reference <= 0 {
			continue
		}

		quantity := order.Quantity
		if !opts.AllowShort && quantity < 0 {
			quantity = l.clampSell(order.Symbol, quantity)
			if quantity == 0 {
				continue
			}
		}

		execPrice := reference
		if opts.SlippageRate != 0 {
			if quantity > 0 {
				execPrice = reference * (1 + opts.SlippageRate)
			} else {
				execPrice = reference * (1 - opts.SlippageRate)
			}
		}

		fee := commissionFee(execPrice, quantity, opts.CommissionRate)

		l.cash -= execPrice*float64(quantity) + fee
		l.updatePosition(order.Symbol, quantity, execPrice)

		side := types.SideBuy
		if quantity < 0 {
			side = types.SideSell
		}

		fills = append(fills, types.Fill{
			ID:       uuid.New().String(),
			Date:     opts.Date,
			Symbol:   order.Symbol,
			Side:     side,
			Quantity: quantity,
			Price:    execPrice,
			Fee:      fee,
			Strategy: opts.Strategy,
		})
	}

	return fills
}

// clampSell limits a sell to exactly flatten an existing long. Without a
// long to flatten the whole order is dropped; a missing position is treated
// the same as a zero one.
func (l *Ledger) clampSell(symbol string, quantity int64) int64 {
	position, ok := l.positions[symbol]
	if !ok || position.Quantity <= 0 {
		return 0
	}

	if -quantity > position.Quantity {
		return -position.Quantity
	}

	return quantity
}

// updatePosition applies an executed quantity at the execution price.
// Average cost is a running weighted average across same-direction adds;
// reductions keep it unchanged; a reversal through zero resets it to the
// fill price.
func (l *Ledger) updatePosition(symbol string, quantity int64, execPrice float64) {
	position, ok := l.positions[symbol]
	if !ok {
		position = types.Position{Symbol: symbol}
	}

	oldQty := position.Quantity
	newQty := oldQty + quantity

	switch {
	case newQty == 0:
		delete(l.positions, symbol)

		return
	case oldQty == 0 || (oldQty > 0) == (quantity > 0):
		// Opening or adding in the same direction.
		oldNotional := position.AvgCost * absFloat(oldQty)
		addNotional := execPrice * absFloat(quantity)
		position.AvgCost = (oldNotional + addNotional) / absFloat(newQty)
	case (newQty > 0) == (oldQty > 0):
		// Partial reduction: cost basis unchanged.
	default:
		// Reversal through zero: the surviving position starts fresh.
		position.AvgCost = execPrice
	}

	position.Quantity = newQty
	position.LastPrice = execPrice
	l.positions[symbol] = position
}

// MarkToMarket updates the last mark price of held positions. Positions
// whose instrument has no entry in prices keep their previous mark; there
// is no forced liquidation on a trading halt.
func (l *Ledger) MarkToMarket(prices map[string]float64) {
	for symbol, position := range l.positions {
		if price, ok := prices[symbol]; ok && price > 0 {
			position.LastPrice = price
			l.positions[symbol] = position
		}
	}
}

// Equity values the account against the supplied price map: cash plus the
// sum of quantity times price. Instruments with no current price contribute
// zero rather than erroring, which models trading halts.
func (l *Ledger) Equity(prices map[string]float64) float64 {
	total := l.cash

	for symbol, position := range l.positions {
		if price, ok := prices[symbol]; ok {
			total += float64(position.Quantity) * price
		}
	}

	return total
}

// TotalAssets values the account at the positions' last mark prices.
func (l *Ledger) TotalAssets() float64 {
	total := l.cash
	for _, position := range l.positions {
		total += position.MarketValue()
	}

	return total
}

// Snapshot captures the account as a fully independent deep copy dated at
// the given date. Later mutation of the ledger never touches a snapshot.
func (l *Ledger) Snapshot(date time.Time) types.AccountState {
	state := types.AccountState{
		Date:        date,
		Cash:        l.cash,
		Positions:   l.positions,
		TotalAssets: l.TotalAssets(),
	}

	return state.Clone()
}

// Restore replaces the ledger's state with a deep copy of the snapshot.
func (l *Ledger) Restore(state types.AccountState) {
	restored := state.Clone()
	l.cash = restored.Cash
	l.positions = restored.Positions
}

func commissionFee(execPrice float64, quantity int64, rate float64) float64 {
	if rate == 0 {
		return 0
	}

	notional := decimal.NewFromFloat(execPrice).Mul(decimal.NewFromInt(quantity)).Abs()

	fee, _ := notional.Mul(decimal.NewFromFloat(rate)).Float64()

	return fee
}

func absFloat(quantity int64) float64 {
	if quantity < 0 {
		return float64(-quantity)
	}

	return float64(quantity)
}
