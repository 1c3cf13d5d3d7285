package engine

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/chrono-trade/chrono/internal/factor"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// SimulationConfig is the validated input of one simulation run.
type SimulationConfig struct {
	// Universe lists the instrument ids in scope.
	Universe []string `json:"universe" yaml:"universe" validate:"required,min=1"`
	// StartDate and EndDate bound the trading calendar, inclusive.
	StartDate time.Time `json:"start_date" yaml:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date"   yaml:"end_date"   validate:"required"`
	// InitialCash seeds the account.
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash" validate:"required,gt=0"`
	// CommissionRate applies to absolute executed notional.
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate" validate:"gte=0"`
	// SlippageRate worsens execution prices in the trade's direction.
	SlippageRate float64 `json:"slippage_rate" yaml:"slippage_rate" validate:"gte=0"`
	// AllowShort permits net-negative positions.
	AllowShort bool `json:"allow_short" yaml:"allow_short"`
	// LotSizes overrides the per-instrument trade lot; absent means 1.
	LotSizes map[string]int64 `json:"lot_sizes,omitempty" yaml:"lot_sizes,omitempty"`
	// MoneyMarketRate is the annual rate of the money-market baseline track.
	MoneyMarketRate float64 `json:"money_market_rate" yaml:"money_market_rate" validate:"gte=0"`
	// Strategies are the configured decision rules.
	Strategies []factor.Spec `json:"strategies" yaml:"strategies" validate:"required,min=1,dive"`
}

// ParseConfig parses and validates a YAML configuration document.
func ParseConfig(raw []byte) (SimulationConfig, error) {
	var config SimulationConfig
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return SimulationConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return SimulationConfig{}, err
	}

	return config, nil
}

// Validate checks the config and fails fast with a configuration error.
// Configuration errors are fatal at initialization and never retried.
func (c *SimulationConfig) Validate() error {
	if len(c.Universe) == 0 {
		return errors.New(errors.ErrCodeEmptyUniverse, "universe must not be empty")
	}

	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return errors.New(errors.ErrCodeInvalidDateRange, "start_date and end_date are required")
	}

	if c.StartDate.After(c.EndDate) {
		return errors.Newf(errors.ErrCodeInvalidDateRange,
			"start_date %s is after end_date %s",
			c.StartDate.Format(time.DateOnly), c.EndDate.Format(time.DateOnly))
	}

	if c.InitialCash <= 0 {
		return errors.Newf(errors.ErrCodeInvalidInitialCash, "initial_cash must be positive, got %v", c.InitialCash)
	}

	if c.CommissionRate < 0 || c.SlippageRate < 0 || c.MoneyMarketRate < 0 {
		return errors.New(errors.ErrCodeInvalidRate, "commission, slippage and money-market rates must not be negative")
	}

	for symbol, lot := range c.LotSizes {
		if lot <= 0 {
			return errors.Newf(errors.ErrCodeInvalidLotSize, "lot size for %s must be positive, got %d", symbol, lot)
		}
	}

	if len(c.Strategies) == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "at least one strategy is required")
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "config validation failed", err)
	}

	return nil
}

// LotSize returns the configured trade lot for an instrument, defaulting
// to 1.
func (c *SimulationConfig) LotSize(symbol string) int64 {
	if lot, ok := c.LotSizes[symbol]; ok {
		return lot
	}

	return 1
}

// GenerateSchemaJSON renders the JSON schema of the configuration document.
func GenerateSchemaJSON() (string, error) {
	reflector := new(jsonschema.Reflector)
	reflector.DoNotReference = true
	schema := reflector.Reflect(&SimulationConfig{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(out), nil
}
