package factor

import (
	"github.com/chrono-trade/chrono/internal/indicator"
	"github.com/chrono-trade/chrono/internal/trigger"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// signalContext is the evaluation context crossover rules hand to their
// trigger engines. Fired actions accumulate orders into it.
type signalContext struct {
	ctx    Context
	symbol string
	orders map[string]int64
}

// sellAll queues a sell of the entire current long for the context symbol.
func (c *signalContext) sellAll() {
	position, ok := c.ctx.Account.Positions[c.symbol]
	if ok && position.Quantity > 0 {
		c.orders[c.symbol] -= position.Quantity
	}
}

// SMACross buys a fixed quantity when the fast moving average crosses above
// the slow one and liquidates the long on the opposite cross. Each
// instrument gets its own trigger engine, created on first evaluation, so
// edge state never bleeds across instruments or rule instances.
type SMACross struct {
	name     string
	fast     int
	slow     int
	quantity int64
	engines  map[string]*trigger.Engine[*signalContext]
}

// NewSMACross creates a moving-average crossover rule. The fast period must
// be positive and strictly shorter than the slow one.
func NewSMACross(name string, fast, slow int, quantity int64) (*SMACross, error) {
	if fast <= 0 || slow <= fast {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"sma_cross requires 0 < fast < slow, got fast=%d slow=%d", fast, slow)
	}

	if quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"sma_cross requires a positive quantity, got %d", quantity)
	}

	return &SMACross{
		name:     name,
		fast:     fast,
		slow:     slow,
		quantity: quantity,
		engines:  make(map[string]*trigger.Engine[*signalContext]),
	}, nil
}

func (f *SMACross) Name() string { return f.name }

// Rewind clears the per-instrument edge state after a backward step.
func (f *SMACross) Rewind() {
	for _, engine := range f.engines {
		engine.Reset()
	}
}

func (f *SMACross) Evaluate(ctx Context, symbol string) (Advice, error) {
	sc := &signalContext{ctx: ctx, symbol: symbol, orders: make(map[string]int64)}

	if err := f.engineFor(symbol).Evaluate(sc); err != nil {
		return Advice{}, err
	}

	if len(sc.orders) == 0 {
		return NoOpinion(), nil
	}

	return OrdersOf(sc.orders), nil
}

func (f *SMACross) engineFor(symbol string) *trigger.Engine[*signalContext] {
	if engine, ok := f.engines[symbol]; ok {
		return engine
	}

	engine := trigger.NewEngine[*signalContext]()

	engine.Always("sma-golden-cross",
		func(c *signalContext) (bool, error) {
			fastLine, slowLine := f.lines(c)

			return trigger.CrossAbove(fastLine, slowLine), nil
		},
		func(c *signalContext) error {
			c.orders[c.symbol] += f.quantity

			return nil
		})

	engine.Always("sma-death-cross",
		func(c *signalContext) (bool, error) {
			fastLine, slowLine := f.lines(c)

			return trigger.CrossBelow(fastLine, slowLine), nil
		},
		func(c *signalContext) error {
			c.sellAll()

			return nil
		})

	f.engines[symbol] = engine

	return engine
}

// lines computes the fast and slow SMA series over just enough history for
// a two-point crossover comparison. Warmup values are NaN, which makes the
// crossover comparisons inert until both averages are defined.
func (f *SMACross) lines(c *signalContext) ([]float64, []float64) {
	closes := closeHistory(c.ctx.View, c.symbol, f.slow+1)

	return indicator.SMA(closes, f.fast), indicator.SMA(closes, f.slow)
}

// MACDCross buys a fixed quantity when the MACD line crosses above its
// signal line and liquidates on the opposite cross.
type MACDCross struct {
	name     string
	fast     int
	slow     int
	signal   int
	quantity int64
	engines  map[string]*trigger.Engine[*signalContext]
}

// NewMACDCross creates a MACD crossover rule.
func NewMACDCross(name string, fast, slow, signal int, quantity int64) (*MACDCross, error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"macd_cross requires 0 < fast < slow and signal > 0, got fast=%d slow=%d signal=%d",
			fast, slow, signal)
	}

	if quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"macd_cross requires a positive quantity, got %d", quantity)
	}

	return &MACDCross{
		name:     name,
		fast:     fast,
		slow:     slow,
		signal:   signal,
		quantity: quantity,
		engines:  make(map[string]*trigger.Engine[*signalContext]),
	}, nil
}

func (f *MACDCross) Name() string { return f.name }

// Rewind clears the per-instrument edge state after a backward step.
func (f *MACDCross) Rewind() {
	for _, engine := range f.engines {
		engine.Reset()
	}
}

func (f *MACDCross) Evaluate(ctx Context, symbol string) (Advice, error) {
	sc := &signalContext{ctx: ctx, symbol: symbol, orders: make(map[string]int64)}

	if err := f.engineFor(symbol).Evaluate(sc); err != nil {
		return Advice{}, err
	}

	if len(sc.orders) == 0 {
		return NoOpinion(), nil
	}

	return OrdersOf(sc.orders), nil
}

func (f *MACDCross) engineFor(symbol string) *trigger.Engine[*signalContext] {
	if engine, ok := f.engines[symbol]; ok {
		return engine
	}

	engine := trigger.NewEngine[*signalContext]()

	engine.Always("macd-cross-up",
		func(c *signalContext) (bool, error) {
			macdLine, signalLine := f.lines(c)

			return trigger.CrossAbove(macdLine, signalLine), nil
		},
		func(c *signalContext) error {
			c.orders[c.symbol] += f.quantity

			return nil
		})

	engine.Always("macd-cross-down",
		func(c *signalContext) (bool, error) {
			macdLine, signalLine := f.lines(c)

			return trigger.CrossBelow(macdLine, signalLine), nil
		},
		func(c *signalContext) error {
			c.sellAll()

			return nil
		})

	f.engines[symbol] = engine

	return engine
}

func (f *MACDCross) lines(c *signalContext) ([]float64, []float64) {
	closes := closeHistory(c.ctx.View, c.symbol, f.slow+f.signal+2)

	return indicator.MACD(closes, f.fast, f.slow, f.signal)
}
