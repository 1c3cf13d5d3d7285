package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunStats summarizes a completed simulation run.
type RunStats struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbols in the run's instrument universe.
	Symbols []string `yaml:"symbols"`
	// InitialCash seeded into the account.
	InitialCash float64 `yaml:"initial_cash"`
	// FinalEquity is the total assets on the last trading date.
	FinalEquity float64 `yaml:"final_equity"`
	// TotalReturn is final equity over initial cash, minus one.
	TotalReturn float64 `yaml:"total_return"`
	// MaxDrawdown is the largest peak-to-trough decline of the equity curve,
	// expressed as a non-positive fraction.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// TotalFees paid across all fills.
	TotalFees float64 `yaml:"total_fees"`
	// FillCount is the number of executed fills.
	FillCount int `yaml:"fill_count"`
	// TradingDays is the number of simulated steps.
	TradingDays int `yaml:"trading_days"`
}

// ComputeEquityStats fills TotalReturn and MaxDrawdown from an equity curve.
// An empty curve leaves both at zero.
func (s *RunStats) ComputeEquityStats(equity []float64) {
	if len(equity) == 0 {
		return
	}

	start := equity[0]
	end := equity[len(equity)-1]

	s.FinalEquity = end
	if start != 0 {
		s.TotalReturn = end/start - 1.0
	}

	peak := equity[0]
	maxDD := 0.0

	for _, v := range equity {
		if v > peak {
			peak = v
		}

		if peak != 0 {
			if dd := (v - peak) / peak; dd < maxDD {
				maxDD = dd
			}
		}
	}

	s.MaxDrawdown = maxDD
}

// WriteRunStats writes the stats report as YAML.
func WriteRunStats(path string, stats RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}
