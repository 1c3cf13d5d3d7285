package factor

import (
	"github.com/chrono-trade/chrono/internal/indicator"
	"github.com/chrono-trade/chrono/internal/trigger"
)

// Exit liquidates an existing long when its return since entry crosses a
// drawdown or take-profit threshold. Either detector may be disabled; both
// disabled is legal and the rule then never fires. Firing is edge-only, so
// a position that stays in breach after the exit bar does not re-trigger.
type Exit struct {
	name       string
	lookback   int
	drawdown   *trigger.ExitDetector
	takeProfit *trigger.ExitDetector
}

// NewExit creates an exit rule from two detectors. Pass
// trigger.NewDisabled() for a side that should never fire.
func NewExit(name string, lookback int, drawdown, takeProfit *trigger.ExitDetector) *Exit {
	if lookback <= 0 {
		lookback = defaultExitLookback
	}

	return &Exit{
		name:       name,
		lookback:   lookback,
		drawdown:   drawdown,
		takeProfit: takeProfit,
	}
}

const defaultExitLookback = 60

func (f *Exit) Name() string { return f.name }

func (f *Exit) Evaluate(ctx Context, symbol string) (Advice, error) {
	position, ok := ctx.Account.Positions[symbol]
	if !ok || position.Quantity <= 0 || position.AvgCost == 0 {
		return NoOpinion(), nil
	}

	closes := closeHistory(ctx.View, symbol, f.lookback)
	returns := indicator.Returns(closes, position.AvgCost)

	if f.drawdown.FiredAt(returns) || f.takeProfit.FiredAt(returns) {
		return OrdersOf(map[string]int64{symbol: -position.Quantity}), nil
	}

	return NoOpinion(), nil
}
