// Package indicator provides the series math used by the example decision
// rules. Functions return one value per input index; warmup positions hold
// NaN, which makes crossover comparisons on unwarmed values inert.
package indicator

import "math"

// SMA returns the simple moving average over the given period. The first
// period-1 positions are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0

	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// EMA returns the exponential moving average over the given period, seeded
// with the SMA of the first period values. The first period-1 positions are
// NaN.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}

	ema := seed / float64(period)
	out[period-1] = ema

	multiplier := 2.0 / float64(period+1)

	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}

	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line
// (EMA of the MACD line over the signal period).
func MACD(values []float64, fast, slow, signal int) (macd []float64, signalLine []float64) {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	macd = nanSlice(len(values))
	for i := range values {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// The MACD line starts after the slow warmup; the signal EMA runs over
	// its defined region only.
	start := firstDefined(macd)
	signalLine = nanSlice(len(values))

	if start >= 0 {
		tail := EMA(macd[start:], signal)
		for i, v := range tail {
			signalLine[start+i] = v
		}
	}

	return macd, signalLine
}

// SupportLine returns a temperature-smoothed rolling floor: each position
// is the Boltzmann-weighted average of its trailing window, with weights
// concentrated on the lower values. As the temperature approaches zero the
// line approaches the rolling minimum. The first period-1 positions are NaN,
// as is everything when the temperature is not positive.
func SupportLine(values []float64, period int, temperature float64) []float64 {
	return smoothedExtreme(values, period, temperature, -1)
}

// ResistanceLine is the ceiling counterpart of SupportLine: weights
// concentrate on the higher values, approaching the rolling maximum.
func ResistanceLine(values []float64, period int, temperature float64) []float64 {
	return smoothedExtreme(values, period, temperature, +1)
}

func smoothedExtreme(values []float64, period int, temperature, sign float64) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || temperature <= 0 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]

		// Shift exponents by the window extreme so large values stay finite.
		pivot := window[0]
		for _, v := range window[1:] {
			if sign*v > sign*pivot {
				pivot = v
			}
		}

		weightSum, weighted := 0.0, 0.0

		for _, v := range window {
			w := math.Exp(sign * (v - pivot) / temperature)
			weightSum += w
			weighted += w * v
		}

		out[i] = weighted / weightSum
	}

	return out
}

// Returns returns the fractional change of each value against a base value.
// A zero base yields NaN.
func Returns(values []float64, base float64) []float64 {
	out := nanSlice(len(values))
	if base == 0 {
		return out
	}

	for i, v := range values {
		out[i] = v/base - 1.0
	}

	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}

	return -1
}
