package factor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chrono-trade/chrono/internal/types"
	"github.com/chrono-trade/chrono/pkg/errors"
)

func TestMACDMonotoneBuysWhileLineRisesBelowZero(t *testing.T) {
	// A long decline drives the MACD line deep below zero; the turn on
	// day 6 starts a strictly rising three-bar window from day 7 on. The
	// first buy is size-capped, the second shrinks as the line recovers
	// toward zero.
	view := viewOf(t, "AAA", 10, 9, 8, 7, 6, 6.2, 6.4, 6.6)

	rule, err := NewMACDMonotone("mono", 2, 4, 2, 100, 10.0, 3.0)
	require.NoError(t, err)

	fired := map[int]int64{}

	for d := 1; d <= 8; d++ {
		advice, err := rule.Evaluate(contextAt(view, d, types.AccountState{}), "AAA")
		require.NoError(t, err)

		if len(advice.Orders) > 0 {
			fired[d] = advice.Orders["AAA"]
		}
	}

	require.Equal(t, map[int]int64{7: 300, 8: 266}, fired)
}

func TestMACDMonotoneSellsWhileLineFallsAboveZero(t *testing.T) {
	view := viewOf(t, "AAA", 10, 11, 12, 13, 14, 13.8, 13.6, 13.4)

	rule, err := NewMACDMonotone("mono", 2, 4, 2, 100, 10.0, 3.0)
	require.NoError(t, err)

	fired := map[int]int64{}

	for d := 1; d <= 8; d++ {
		advice, err := rule.Evaluate(contextAt(view, d, types.AccountState{}), "AAA")
		require.NoError(t, err)

		if len(advice.Orders) > 0 {
			fired[d] = advice.Orders["AAA"]
		}
	}

	require.Equal(t, map[int]int64{7: -300, 8: -266}, fired)
}

func TestMACDMonotoneZeroSensitivityUsesBaseQuantity(t *testing.T) {
	view := viewOf(t, "AAA", 10, 9, 8, 7, 6, 6.2, 6.4, 6.6)

	rule, err := NewMACDMonotone("mono", 2, 4, 2, 100, 0, 3.0)
	require.NoError(t, err)

	advice, err := rule.Evaluate(contextAt(view, 7, types.AccountState{}), "AAA")
	require.NoError(t, err)
	require.Equal(t, int64(100), advice.Orders["AAA"])
}

func TestMACDMonotoneAbstainsDuringWarmup(t *testing.T) {
	view := viewOf(t, "AAA", 10, 9, 8, 7, 6)

	rule, err := NewMACDMonotone("mono", 2, 4, 2, 100, 10.0, 3.0)
	require.NoError(t, err)

	// The MACD line needs three defined values; days 1-5 cannot supply them.
	for d := 1; d <= 5; d++ {
		advice, err := rule.Evaluate(contextAt(view, d, types.AccountState{}), "AAA")
		require.NoError(t, err)
		require.False(t, advice.HasOpinion(), "day %d", d)
	}
}

func TestMACDMonotoneRejectsBadParams(t *testing.T) {
	cases := []struct {
		name                       string
		fast, slow, signal         int
		base                       int64
		sensitivity, maxMultiplier float64
	}{
		{"fast not below slow", 4, 4, 2, 100, 10, 3},
		{"zero signal", 2, 4, 0, 100, 10, 3},
		{"zero base quantity", 2, 4, 2, 0, 10, 3},
		{"negative sensitivity", 2, 4, 2, 100, -1, 3},
		{"multiplier below one", 2, 4, 2, 100, 10, 0.5},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMACDMonotone("mono", tt.fast, tt.slow, tt.signal, tt.base, tt.sensitivity, tt.maxMultiplier)
			require.Error(t, err)
			require.True(t, errors.HasCode(err, errors.ErrCodeInvalidFactorParams))
		})
	}
}
