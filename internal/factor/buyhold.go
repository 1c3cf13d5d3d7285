package factor

// BuyHold targets a constant allocation weight for every instrument in its
// scope on every step. With commissions at zero the engine's weight
// resolution converges it to a buy-and-hold position after the first bar.
type BuyHold struct {
	name   string
	weight float64
}

// NewBuyHold creates a constant-weight rule.
func NewBuyHold(name string, weight float64) *BuyHold {
	return &BuyHold{name: name, weight: weight}
}

func (f *BuyHold) Name() string { return f.name }

func (f *BuyHold) Evaluate(ctx Context, symbol string) (Advice, error) {
	// No bar yet means no price to allocate against.
	if ctx.View.Latest(symbol).IsNone() {
		return NoOpinion(), nil
	}

	return WeightOf(f.weight), nil
}

// DoNothing abstains on every evaluation. It exists so a configured strategy
// slot can be disabled without changing any call site.
type DoNothing struct {
	name string
}

// NewDoNothing creates a rule with no opinion.
func NewDoNothing(name string) *DoNothing {
	return &DoNothing{name: name}
}

func (f *DoNothing) Name() string { return f.name }

func (f *DoNothing) Evaluate(ctx Context, symbol string) (Advice, error) {
	return NoOpinion(), nil
}
