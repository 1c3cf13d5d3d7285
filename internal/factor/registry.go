package factor

import (
	"fmt"

	"github.com/chrono-trade/chrono/internal/trigger"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// Rule identifiers accepted in configuration.
const (
	RuleBuyHold           = "buy_hold"
	RuleDoNothing         = "do_nothing"
	RuleSMACross          = "sma_cross"
	RuleMACDCross         = "macd_cross"
	RuleMACDMonotone      = "macd_monotone"
	RuleSupportResistance = "support_resistance"
	RuleExit              = "exit"
)

// Spec is the configured description of one strategy slot: a display name,
// a rule identifier, an instrument scope, and rule parameters. An empty
// scope means the whole universe.
type Spec struct {
	Name    string         `json:"name"    yaml:"name"    validate:"required"`
	Rule    string         `json:"rule"    yaml:"rule"    validate:"required"`
	Symbols []string       `json:"symbols" yaml:"symbols"`
	Params  map[string]any `json:"params"  yaml:"params"`
}

// Builder instantiates a factor from its configured spec.
type Builder func(spec Spec) (Factor, error)

// builders holds externally registered rules. Registration happens during
// setup, before any run starts; the map is not guarded.
var builders = map[string]Builder{}

// Register makes a custom rule available under the given identifier,
// alongside the built-in ones. A built-in identifier cannot be shadowed.
func Register(rule string, builder Builder) {
	builders[rule] = builder
}

// New instantiates the factor a spec describes. Unknown rule identifiers
// and malformed parameters are configuration errors.
func New(spec Spec) (Factor, error) {
	switch spec.Rule {
	case RuleBuyHold:
		weight, err := floatParam(spec.Params, "weight", 1.0)
		if err != nil {
			return nil, err
		}

		return NewBuyHold(spec.Name, weight), nil

	case RuleDoNothing:
		return NewDoNothing(spec.Name), nil

	case RuleSMACross:
		fast, err := intParam(spec.Params, "fast", 5)
		if err != nil {
			return nil, err
		}

		slow, err := intParam(spec.Params, "slow", 20)
		if err != nil {
			return nil, err
		}

		quantity, err := intParam(spec.Params, "quantity", 100)
		if err != nil {
			return nil, err
		}

		return NewSMACross(spec.Name, fast, slow, int64(quantity))

	case RuleMACDCross:
		fast, err := intParam(spec.Params, "fast", 12)
		if err != nil {
			return nil, err
		}

		slow, err := intParam(spec.Params, "slow", 26)
		if err != nil {
			return nil, err
		}

		signal, err := intParam(spec.Params, "signal", 9)
		if err != nil {
			return nil, err
		}

		quantity, err := intParam(spec.Params, "quantity", 100)
		if err != nil {
			return nil, err
		}

		return NewMACDCross(spec.Name, fast, slow, signal, int64(quantity))

	case RuleMACDMonotone:
		fast, err := intParam(spec.Params, "fast", 12)
		if err != nil {
			return nil, err
		}

		slow, err := intParam(spec.Params, "slow", 26)
		if err != nil {
			return nil, err
		}

		signal, err := intParam(spec.Params, "signal", 9)
		if err != nil {
			return nil, err
		}

		baseQuantity, err := intParam(spec.Params, "base_quantity", 100)
		if err != nil {
			return nil, err
		}

		sensitivity, err := floatParam(spec.Params, "sensitivity", 10.0)
		if err != nil {
			return nil, err
		}

		maxMultiplier, err := floatParam(spec.Params, "max_multiplier", 3.0)
		if err != nil {
			return nil, err
		}

		return NewMACDMonotone(spec.Name, fast, slow, signal, int64(baseQuantity), sensitivity, maxMultiplier)

	case RuleSupportResistance:
		window, err := intParam(spec.Params, "window", 20)
		if err != nil {
			return nil, err
		}

		temperature, err := floatParam(spec.Params, "temperature", 1.0)
		if err != nil {
			return nil, err
		}

		quantity, err := intParam(spec.Params, "quantity", 100)
		if err != nil {
			return nil, err
		}

		return NewSupportResistance(spec.Name, window, temperature, int64(quantity))

	case RuleExit:
		lookback, err := intParam(spec.Params, "lookback", defaultExitLookback)
		if err != nil {
			return nil, err
		}

		drawdown, err := detectorParam(spec.Params, "drawdown", trigger.NewDrawdown)
		if err != nil {
			return nil, err
		}

		takeProfit, err := detectorParam(spec.Params, "take_profit", trigger.NewTakeProfit)
		if err != nil {
			return nil, err
		}

		return NewExit(spec.Name, lookback, drawdown, takeProfit), nil

	default:
		if builder, ok := builders[spec.Rule]; ok {
			return builder(spec)
		}

		return nil, errors.Newf(errors.ErrCodeUnknownFactor, "unknown rule %q for strategy %q", spec.Rule, spec.Name)
	}
}

// detectorParam builds an exit detector from an optional threshold
// parameter; absence yields a disabled detector.
func detectorParam(params map[string]any, key string, build func(float64) (*trigger.ExitDetector, error)) (*trigger.ExitDetector, error) {
	if _, ok := params[key]; !ok {
		return trigger.NewDisabled(), nil
	}

	threshold, err := floatParam(params, key, 0)
	if err != nil {
		return nil, err
	}

	return build(threshold)
}

func floatParam(params map[string]any, key string, fallback float64) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"parameter %q must be numeric, got %s", key, fmt.Sprintf("%T", raw))
	}
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, errors.Newf(errors.ErrCodeInvalidFactorParams,
				"parameter %q must be an integer, got %v", key, v)
		}

		return int(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidFactorParams,
			"parameter %q must be an integer, got %s", key, fmt.Sprintf("%T", raw))
	}
}
