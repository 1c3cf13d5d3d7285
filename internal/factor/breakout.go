package factor

import (
	"github.com/chrono-trade/chrono/internal/indicator"
	"github.com/chrono-trade/chrono/internal/trigger"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// SupportResistance buys a fixed quantity when the close crosses above a
// smoothed resistance line and sells it back when the close crosses below
// the smoothed support line. Temperature controls how tightly the lines hug
// the rolling extremes. Like the crossover rules, each instrument gets its
// own trigger engine so edge state stays isolated.
type SupportResistance struct {
	name        string
	window      int
	temperature float64
	quantity    int64
	engines     map[string]*trigger.Engine[*signalContext]
}

// NewSupportResistance creates a breakout rule over smoothed support and
// resistance lines. The temperature must be positive.
func NewSupportResistance(name string, window int, temperature float64, quantity int64) (*SupportResistance, error) {
	if window <= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"support_resistance requires a window of at least 2, got %d", window)
	}

	if temperature <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"support_resistance requires a positive temperature, got %v", temperature)
	}

	if quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"support_resistance requires a positive quantity, got %d", quantity)
	}

	return &SupportResistance{
		name:        name,
		window:      window,
		temperature: temperature,
		quantity:    quantity,
		engines:     make(map[string]*trigger.Engine[*signalContext]),
	}, nil
}

func (f *SupportResistance) Name() string { return f.name }

// Rewind clears the per-instrument edge state after a backward step.
func (f *SupportResistance) Rewind() {
	for _, engine := range f.engines {
		engine.Reset()
	}
}

func (f *SupportResistance) Evaluate(ctx Context, symbol string) (Advice, error) {
	sc := &signalContext{ctx: ctx, symbol: symbol, orders: make(map[string]int64)}

	if err := f.engineFor(symbol).Evaluate(sc); err != nil {
		return Advice{}, err
	}

	if len(sc.orders) == 0 {
		return NoOpinion(), nil
	}

	return OrdersOf(sc.orders), nil
}

func (f *SupportResistance) engineFor(symbol string) *trigger.Engine[*signalContext] {
	if engine, ok := f.engines[symbol]; ok {
		return engine
	}

	engine := trigger.NewEngine[*signalContext]()

	engine.Always("resistance-breakout",
		func(c *signalContext) (bool, error) {
			closes, _, resistance := f.lines(c)

			return trigger.CrossAbove(closes, resistance), nil
		},
		func(c *signalContext) error {
			c.orders[c.symbol] += f.quantity

			return nil
		})

	engine.Always("support-breakdown",
		func(c *signalContext) (bool, error) {
			closes, support, _ := f.lines(c)

			return trigger.CrossBelow(closes, support), nil
		},
		func(c *signalContext) error {
			c.orders[c.symbol] -= f.quantity

			return nil
		})

	f.engines[symbol] = engine

	return engine
}

// lines computes the close series and its smoothed support and resistance
// over just enough history for a two-point crossover comparison.
func (f *SupportResistance) lines(c *signalContext) (closes, support, resistance []float64) {
	closes = closeHistory(c.ctx.View, c.symbol, f.window+1)

	return closes,
		indicator.SupportLine(closes, f.window, f.temperature),
		indicator.ResistanceLine(closes, f.window, f.temperature)
}
