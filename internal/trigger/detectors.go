package trigger

import (
	"github.com/chrono-trade/chrono/pkg/errors"
)

// CrossAbove reports whether a crossed above b on the last aligned index:
// a ends above b with the previous values ordered a <= b. The pre-state test
// uses <= so equal values do not double-fire. Series shorter than two points
// never cross.
func CrossAbove(a, b []float64) bool {
	n := min(len(a), len(b))
	if n < 2 {
		return false
	}

	ai, bi := a[len(a)-n:], b[len(b)-n:]
	last, prev := n-1, n-2

	return ai[last] > bi[last] && ai[prev] <= bi[prev]
}

// CrossBelow reports whether a crossed below b on the last aligned index,
// with previous values ordered a >= b.
func CrossBelow(a, b []float64) bool {
	n := min(len(a), len(b))
	if n < 2 {
		return false
	}

	ai, bi := a[len(a)-n:], b[len(b)-n:]
	last, prev := n-1, n-2

	return ai[last] < bi[last] && ai[prev] >= bi[prev]
}

type detectorKind int

const (
	detectDrawdown detectorKind = iota
	detectTakeProfit
)

// ExitDetector marks the bars where a return series crosses a drawdown or
// take-profit threshold. Firing is edge-only: the detector marks exactly the
// bar where the threshold is first breached, not every bar that remains in
// breach. A disabled detector never fires; it expresses "no such rule"
// without branching at call sites.
type ExitDetector struct {
	threshold float64
	kind      detectorKind
	disabled  bool
}

// NewDrawdown builds a detector that fires when returns cross from above
// -threshold to at or below -threshold. The threshold must be positive.
func NewDrawdown(threshold float64) (*ExitDetector, error) {
	if threshold <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold,
			"drawdown threshold must be positive, got %v", threshold)
	}

	return &ExitDetector{threshold: threshold, kind: detectDrawdown, disabled: false}, nil
}

// NewTakeProfit builds a detector that fires when returns cross from below
// threshold to at or above threshold. The threshold must be positive.
func NewTakeProfit(threshold float64) (*ExitDetector, error) {
	if threshold <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold,
			"take-profit threshold must be positive, got %v", threshold)
	}

	return &ExitDetector{threshold: threshold, kind: detectTakeProfit, disabled: false}, nil
}

// NewDisabled builds a detector that never fires.
func NewDisabled() *ExitDetector {
	return &ExitDetector{threshold: 0, kind: detectDrawdown, disabled: true}
}

// Disabled reports whether this detector can ever fire.
func (d *ExitDetector) Disabled() bool {
	return d.disabled
}

// Marks returns one flag per input index, true exactly where the threshold
// crossing happens. Index 0 has no previous value and never fires.
func (d *ExitDetector) Marks(returns []float64) []bool {
	marks := make([]bool, len(returns))
	if d.disabled {
		return marks
	}

	for i := 1; i < len(returns); i++ {
		marks[i] = d.breach(returns[i]) && !d.breach(returns[i-1])
	}

	return marks
}

// FiredAt reports whether the detector fires on the last index of returns.
func (d *ExitDetector) FiredAt(returns []float64) bool {
	n := len(returns)
	if d.disabled || n < 2 {
		return false
	}

	return d.breach(returns[n-1]) && !d.breach(returns[n-2])
}

func (d *ExitDetector) breach(r float64) bool {
	if d.kind == detectDrawdown {
		return r <= -d.threshold
	}

	return r >= d.threshold
}
