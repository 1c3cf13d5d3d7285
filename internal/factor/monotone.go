package factor

import (
	"math"

	"github.com/chrono-trade/chrono/internal/indicator"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// MACDMonotone trades three-bar monotone moves of the MACD line instead of
// signal-line crossings: a strictly rising line buys, a strictly falling one
// sells. Order size scales with the line's distance past zero on the
// favorable side, capped by a maximum multiplier, so a rising line deep
// below zero buys more than one that has already recovered. The rule carries
// no edge state and keeps emitting while the move persists.
type MACDMonotone struct {
	name          string
	fast          int
	slow          int
	signal        int
	baseQuantity  int64
	sensitivity   float64
	maxMultiplier float64
}

// NewMACDMonotone creates a monotone-MACD rule.
func NewMACDMonotone(name string, fast, slow, signal int, baseQuantity int64, sensitivity, maxMultiplier float64) (*MACDMonotone, error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"macd_monotone requires 0 < fast < slow and signal > 0, got fast=%d slow=%d signal=%d",
			fast, slow, signal)
	}

	if baseQuantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"macd_monotone requires a positive base quantity, got %d", baseQuantity)
	}

	if sensitivity < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"macd_monotone requires a non-negative sensitivity, got %v", sensitivity)
	}

	if maxMultiplier < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"macd_monotone requires a maximum multiplier of at least 1, got %v", maxMultiplier)
	}

	return &MACDMonotone{
		name:          name,
		fast:          fast,
		slow:          slow,
		signal:        signal,
		baseQuantity:  baseQuantity,
		sensitivity:   sensitivity,
		maxMultiplier: maxMultiplier,
	}, nil
}

func (f *MACDMonotone) Name() string { return f.name }

func (f *MACDMonotone) Evaluate(ctx Context, symbol string) (Advice, error) {
	closes := closeHistory(ctx.View, symbol, f.slow+f.signal+2)

	line, _ := indicator.MACD(closes, f.fast, f.slow, f.signal)

	n := len(line)
	if n < 3 {
		return NoOpinion(), nil
	}

	first, middle, last := line[n-3], line[n-2], line[n-1]
	if math.IsNaN(first) || math.IsNaN(middle) || math.IsNaN(last) {
		return NoOpinion(), nil
	}

	switch {
	case first < middle && middle < last:
		if quantity := f.scaledQuantity(-last); quantity > 0 {
			return OrdersOf(map[string]int64{symbol: quantity}), nil
		}
	case first > middle && middle > last:
		if quantity := f.scaledQuantity(last); quantity > 0 {
			return OrdersOf(map[string]int64{symbol: -quantity}), nil
		}
	}

	return NoOpinion(), nil
}

// scaledQuantity sizes an order from how far the MACD line sits past zero
// in the favorable direction; the caller negates the line for buys.
func (f *MACDMonotone) scaledQuantity(distance float64) int64 {
	if distance < 0 {
		distance = 0
	}

	multiplier := math.Min(1+f.sensitivity*distance, f.maxMultiplier)

	return int64(float64(f.baseQuantity) * multiplier)
}
