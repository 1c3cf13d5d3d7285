package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chrono-trade/chrono/internal/factor"
	"github.com/chrono-trade/chrono/pkg/errors"
)

func validConfig() SimulationConfig {
	return SimulationConfig{
		Universe:    []string{"AAA"},
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		InitialCash: 100_000,
		Strategies:  []factor.Spec{{Name: "core", Rule: factor.RuleBuyHold}},
	}
}

func TestParseConfigYAML(t *testing.T) {
	raw := []byte(`
universe: [AAPL, MSFT]
start_date: 2024-01-01T00:00:00Z
end_date: 2024-06-30T00:00:00Z
initial_cash: 100000
commission_rate: 0.001
slippage_rate: 0.0005
allow_short: false
lot_sizes:
  AAPL: 100
money_market_rate: 0.05
strategies:
  - name: core
    rule: buy_hold
    params:
      weight: 0.5
  - name: sma
    rule: sma_cross
    symbols: [AAPL]
    params:
      fast: 5
      slow: 20
      quantity: 100
`)

	config, err := ParseConfig(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "MSFT"}, config.Universe)
	require.Len(t, config.Strategies, 2)
	require.Equal(t, int64(100), config.LotSize("AAPL"))
	require.Equal(t, int64(1), config.LotSize("MSFT"))
	require.InDelta(t, 0.05, config.MoneyMarketRate, 1e-12)
	require.Equal(t, []string{"AAPL"}, config.Strategies[1].Symbols)
}

func TestParseConfigRejectsMalformedYAML(t *testing.T) {
	_, err := ParseConfig([]byte("universe: ["))
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func TestValidateEmptyUniverse(t *testing.T) {
	config := validConfig()
	config.Universe = nil

	err := config.Validate()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeEmptyUniverse))
	require.True(t, errors.IsConfiguration(err))
}

func TestValidateInvertedDateRange(t *testing.T) {
	config := validConfig()
	config.StartDate, config.EndDate = config.EndDate, config.StartDate

	err := config.Validate()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidDateRange))
}

func TestValidateMissingDates(t *testing.T) {
	config := validConfig()
	config.EndDate = time.Time{}

	err := config.Validate()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidDateRange))
}

func TestValidateNonPositiveCash(t *testing.T) {
	config := validConfig()
	config.InitialCash = 0

	err := config.Validate()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidInitialCash))
}

func TestValidateNegativeRates(t *testing.T) {
	config := validConfig()
	config.SlippageRate = -0.01

	err := config.Validate()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidRate))
}

func TestValidateBadLotSize(t *testing.T) {
	config := validConfig()
	config.LotSizes = map[string]int64{"AAA": 0}

	err := config.Validate()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidLotSize))
}

func TestValidateNoStrategies(t *testing.T) {
	config := validConfig()
	config.Strategies = nil

	err := config.Validate()
	require.Error(t, err)
	require.True(t, errors.IsConfiguration(err))
}

func TestGenerateSchemaJSON(t *testing.T) {
	schema, err := GenerateSchemaJSON()
	require.NoError(t, err)
	require.Contains(t, schema, "universe")
	require.Contains(t, schema, "initial_cash")
	require.Contains(t, schema, "strategies")
}
