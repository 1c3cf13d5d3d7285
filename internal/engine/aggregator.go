package engine

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chrono-trade/chrono/internal/factor"
	"github.com/chrono-trade/chrono/internal/logger"
	"github.com/chrono-trade/chrono/internal/types"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// Diagnostic records one isolated rule failure. Per-rule failures are
// logged and recorded here rather than aborting the run; the rule's output
// for that instrument is treated as no opinion.
type Diagnostic struct {
	Date     time.Time
	Strategy string
	Symbol   string
	Err      error
}

// strategySlot binds an instantiated rule to its instrument scope.
type strategySlot struct {
	rule  factor.Factor
	scope []string
}

// Aggregator evaluates every configured strategy over its instrument scope
// and merges the outputs into a single order batch per date: explicit
// order quantities are summed per instrument, weight opinions are averaged
// across the strategies expressing one, and each resulting order carries
// the names of the strategies that contributed to it. The merge is
// single-threaded so summation order stays deterministic.
type Aggregator struct {
	slots []strategySlot
	log   *logger.Logger
}

// NewAggregator instantiates the configured strategies. A spec with an
// empty symbol scope covers the whole universe.
func NewAggregator(specs []factor.Spec, universe []string, log *logger.Logger) (*Aggregator, error) {
	slots := make([]strategySlot, 0, len(specs))

	for _, spec := range specs {
		rule, err := factor.New(spec)
		if err != nil {
			return nil, err
		}

		scope := spec.Symbols
		if len(scope) == 0 {
			scope = universe
		}

		slots = append(slots, strategySlot{rule: rule, scope: scope})
	}

	return &Aggregator{slots: slots, log: log}, nil
}

// Rewind resets the edge state of every strategy that carries any, so a
// forward pass after a backward step re-derives its signals from the data.
func (a *Aggregator) Rewind() {
	for _, slot := range a.slots {
		if rewinder, ok := slot.rule.(factor.Rewinder); ok {
			rewinder.Rewind()
		}
	}
}

// weightOpinion is one strategy's target weight for one instrument.
type weightOpinion struct {
	strategy string
	weight   float64
}

// Collection is the merged raw output of one evaluation pass.
type Collection struct {
	weights     map[string][]weightOpinion
	orders      map[string]int64
	contributor map[string][]string
	diagnostics []Diagnostic
}

// Collect evaluates every strategy for every instrument in its scope.
// Weight-style rule failures are isolated as diagnostics; trigger failures
// propagate, since triggers drive explicit order placement and swallowing
// one would corrupt the order set.
func (a *Aggregator) Collect(ctx factor.Context) (Collection, error) {
	result := Collection{
		weights:     make(map[string][]weightOpinion),
		orders:      make(map[string]int64),
		contributor: make(map[string][]string),
		diagnostics: nil,
	}

	for _, slot := range a.slots {
		for _, symbol := range slot.scope {
			advice, err := slot.rule.Evaluate(ctx, symbol)
			if err != nil {
				if isTriggerFailure(err) {
					return Collection{}, err
				}

				a.log.Warn("rule evaluation failed, treating as no opinion",
					zap.String("strategy", slot.rule.Name()),
					zap.String("symbol", symbol),
					zap.Error(err),
				)
				result.diagnostics = append(result.diagnostics, Diagnostic{
					Date:     ctx.Date,
					Strategy: slot.rule.Name(),
					Symbol:   symbol,
					Err:      errors.Wrapf(errors.ErrCodeRuleEvaluation, err, "strategy %s failed for %s", slot.rule.Name(), symbol),
				})

				continue
			}

			if advice.Weight.IsSome() {
				result.weights[symbol] = append(result.weights[symbol], weightOpinion{
					strategy: slot.rule.Name(),
					weight:   advice.Weight.Unwrap(),
				})
			}

			for orderSymbol, quantity := range advice.Orders {
				if quantity == 0 {
					continue
				}

				result.orders[orderSymbol] += quantity
				result.contributor[orderSymbol] = append(result.contributor[orderSymbol], slot.rule.Name())
			}
		}
	}

	return result, nil
}

// Resolve turns the merged collection into one deterministic order batch.
// Weight opinions resolve against current equity: the target quantity is
// the lot-floored allocation, the order is the difference from the current
// position. Rules with no opinion are excluded from the average, not
// counted as zero.
func (a *Aggregator) Resolve(
	merged Collection,
	equity float64,
	prices map[string]float64,
	positions map[string]types.Position,
	lotOf func(string) int64,
	universe []string,
) ([]types.Order, map[string]string) {
	quantities := make(map[string]int64, len(merged.orders))
	for symbol, quantity := range merged.orders {
		quantities[symbol] = quantity
	}

	contributors := make(map[string][]string, len(merged.contributor))
	for symbol, names := range merged.contributor {
		contributors[symbol] = append(contributors[symbol], names...)
	}

	for symbol, opinions := range merged.weights {
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			continue
		}

		sum := 0.0
		for _, opinion := range opinions {
			sum += opinion.weight
		}

		average := sum / float64(len(opinions))

		lot := lotOf(symbol)
		target := lot * int64(math.Floor(equity*average/(price*float64(lot))))
		delta := target - positions[symbol].Quantity

		if delta == 0 {
			continue
		}

		quantities[symbol] += delta
		for _, opinion := range opinions {
			contributors[symbol] = append(contributors[symbol], opinion.strategy)
		}
	}

	// Universe order keeps the batch deterministic across runs.
	orders := make([]types.Order, 0, len(quantities))
	attribution := make(map[string]string, len(quantities))

	for _, symbol := range universe {
		quantity, ok := quantities[symbol]
		if !ok || quantity == 0 {
			continue
		}

		orders = append(orders, types.Order{Symbol: symbol, Quantity: quantity})
		attribution[symbol] = attributionLabel(contributors[symbol])
	}

	return orders, attribution
}

// attributionLabel joins the distinct contributing strategy names for one
// combined order.
func attributionLabel(names []string) string {
	seen := make(map[string]bool, len(names))
	distinct := make([]string, 0, len(names))

	for _, name := range names {
		if !seen[name] {
			seen[name] = true

			distinct = append(distinct, name)
		}
	}

	sort.Strings(distinct)

	return strings.Join(distinct, "+")
}

func isTriggerFailure(err error) bool {
	return errors.HasCode(err, errors.ErrCodeTriggerCondition) ||
		errors.HasCode(err, errors.ErrCodeTriggerAction) ||
		errors.HasCode(err, errors.ErrCodeOnBarAction)
}
