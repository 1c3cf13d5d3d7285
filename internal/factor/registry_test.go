package factor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chrono-trade/chrono/pkg/errors"
)

func TestNewUnknownRule(t *testing.T) {
	_, err := New(Spec{Name: "mystery", Rule: "momentum_of_the_gaps"})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeUnknownFactor))
}

func TestNewBuyHoldDefaultsAndParams(t *testing.T) {
	rule, err := New(Spec{Name: "core", Rule: RuleBuyHold})
	require.NoError(t, err)
	require.Equal(t, "core", rule.Name())

	rule, err = New(Spec{
		Name:   "half",
		Rule:   RuleBuyHold,
		Params: map[string]any{"weight": 0.5},
	})
	require.NoError(t, err)
	require.Equal(t, "half", rule.Name())
}

func TestNewSMACrossFromSpec(t *testing.T) {
	rule, err := New(Spec{
		Name:   "sma",
		Rule:   RuleSMACross,
		Params: map[string]any{"fast": 5, "slow": 20, "quantity": 200},
	})
	require.NoError(t, err)
	require.IsType(t, &SMACross{}, rule)

	// YAML hands integers over as int, floats as float64; both must work.
	_, err = New(Spec{
		Name:   "sma",
		Rule:   RuleSMACross,
		Params: map[string]any{"fast": float64(5), "slow": float64(20)},
	})
	require.NoError(t, err)
}

func TestNewRejectsMalformedParams(t *testing.T) {
	_, err := New(Spec{
		Name:   "sma",
		Rule:   RuleSMACross,
		Params: map[string]any{"fast": "five"},
	})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidFactorParams))

	_, err = New(Spec{
		Name:   "sma",
		Rule:   RuleSMACross,
		Params: map[string]any{"fast": 5.5},
	})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidFactorParams))

	_, err = New(Spec{
		Name:   "bh",
		Rule:   RuleBuyHold,
		Params: map[string]any{"weight": "all of it"},
	})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidFactorParams))
}

func TestNewExitFromSpec(t *testing.T) {
	rule, err := New(Spec{
		Name:   "stop",
		Rule:   RuleExit,
		Params: map[string]any{"drawdown": 0.05, "take_profit": 0.2},
	})
	require.NoError(t, err)
	require.IsType(t, &Exit{}, rule)

	// Omitted thresholds produce disabled detectors, not errors.
	_, err = New(Spec{Name: "noop-exit", Rule: RuleExit})
	require.NoError(t, err)
}

func TestNewExitRejectsNonPositiveThreshold(t *testing.T) {
	_, err := New(Spec{
		Name:   "stop",
		Rule:   RuleExit,
		Params: map[string]any{"drawdown": -0.05},
	})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidThreshold))

	_, err = New(Spec{
		Name:   "tp",
		Rule:   RuleExit,
		Params: map[string]any{"take_profit": 0.0},
	})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidThreshold))
}
