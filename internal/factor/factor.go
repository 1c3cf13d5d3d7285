// Package factor defines the decision-rule contract and the built-in rules.
// A factor is the single pluggable unit of strategy logic: given the current
// context and an instrument, it returns a target weight, explicit orders, or
// no opinion at all. Factors must be pure functions of their context plus
// their own trigger state, never of hidden globals, so runs replay exactly.
package factor

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/chrono-trade/chrono/internal/market"
	"github.com/chrono-trade/chrono/internal/types"
)

// Context is everything a factor may observe for one evaluation: the
// simulated date, a snapshot of the account, and the cursor-bounded market
// view. The view's cursor sits at the context date, so factors cannot see
// past it.
type Context struct {
	Date    time.Time
	Account types.AccountState
	View    *market.DataView
}

// Advice is a factor's output for one instrument. Exactly one of the two
// channels is populated: a target weight in [0,1], or a map of explicit
// signed order quantities. A zero Advice means no opinion.
type Advice struct {
	Weight optional.Option[float64]
	Orders map[string]int64
}

// NoOpinion is the advice of a factor that abstains. It is excluded from
// weight averaging downstream, not treated as a zero weight.
func NoOpinion() Advice {
	return Advice{Weight: optional.None[float64](), Orders: nil}
}

// WeightOf wraps a target allocation weight.
func WeightOf(weight float64) Advice {
	return Advice{Weight: optional.Some(weight), Orders: nil}
}

// OrdersOf wraps explicit signed order quantities.
func OrdersOf(orders map[string]int64) Advice {
	return Advice{Weight: optional.None[float64](), Orders: orders}
}

// HasOpinion reports whether the advice carries a weight or any orders.
func (a Advice) HasOpinion() bool {
	return a.Weight.IsSome() || len(a.Orders) > 0
}

// Factor is one named decision rule. Evaluate is called once per instrument
// in the factor's scope on every simulated step.
type Factor interface {
	// Name returns the rule's configured name, used for fill attribution.
	Name() string
	// Evaluate produces advice for one instrument under the given context.
	Evaluate(ctx Context, symbol string) (Advice, error)
}

// Rewinder is implemented by rules that carry trigger state. The engine
// calls Rewind when the simulation steps backward so that a subsequent
// forward pass re-derives every edge from the data. The built-in crossover
// conditions are single-bar predicates that can never be true on two
// consecutive bars, so resetting reproduces the original pass exactly.
type Rewinder interface {
	Rewind()
}

// closeHistory extracts the last n closing prices for an instrument through
// the view, oldest first.
func closeHistory(view *market.DataView, symbol string, n int) []float64 {
	bars := view.History(symbol, n)

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes
}
