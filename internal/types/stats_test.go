package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StatsTestSuite struct {
	suite.Suite
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsTestSuite))
}

func (suite *StatsTestSuite) TestComputeEquityStats() {
	tests := []struct {
		name           string
		equity         []float64
		expectedReturn float64
		expectedMaxDD  float64
	}{
		{
			name:           "Monotone rise has no drawdown",
			equity:         []float64{100, 110, 120},
			expectedReturn: 0.20,
			expectedMaxDD:  0.0,
		},
		{
			name:           "Peak then trough",
			equity:         []float64{100, 120, 90, 100},
			expectedReturn: 0.0,
			expectedMaxDD:  -0.25,
		},
		{
			name:           "Empty curve",
			equity:         nil,
			expectedReturn: 0.0,
			expectedMaxDD:  0.0,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			stats := RunStats{}
			stats.ComputeEquityStats(tt.equity)
			suite.InDelta(tt.expectedReturn, stats.TotalReturn, 1e-9)
			suite.InDelta(tt.expectedMaxDD, stats.MaxDrawdown, 1e-9)
		})
	}
}

func (suite *StatsTestSuite) TestWriteRunStats() {
	tmpDir := suite.T().TempDir()
	path := filepath.Join(tmpDir, "stats.yaml")

	stats := RunStats{
		ID:          "run-1",
		Timestamp:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Symbols:     []string{"AAPL"},
		InitialCash: 100000,
		FinalEquity: 110000,
		TotalReturn: 0.1,
		TradingDays: 5,
	}

	err := WriteRunStats(path, stats)
	suite.Require().NoError(err)

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), "total_return: 0.1")
	suite.Contains(string(data), "run-1")
}
