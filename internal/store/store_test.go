package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/chrono-trade/chrono/internal/engine"
	"github.com/chrono-trade/chrono/internal/logger"
	"github.com/chrono-trade/chrono/internal/types"
)

type RunStoreTestSuite struct {
	suite.Suite
	store *RunStore
}

func (suite *RunStoreTestSuite) SetupTest() {
	store, err := NewRunStore(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.store = store
}

func (suite *RunStoreTestSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func TestRunStoreSuite(t *testing.T) {
	suite.Run(t, new(RunStoreTestSuite))
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleRun() ([]types.AccountState, []engine.BaselinePoint, []types.Fill) {
	history := []types.AccountState{
		{Date: day(1), Cash: 100_000, TotalAssets: 100_000},
		{
			Date: day(2),
			Cash: 50_000,
			Positions: map[string]types.Position{
				"AAA": {Symbol: "AAA", Quantity: 5000, AvgCost: 10, LastPrice: 10},
			},
			TotalAssets: 100_000,
		},
	}

	points := []engine.BaselinePoint{
		{Date: day(1), BuyHold: map[string]float64{"AAA": 100_000}, MoneyMarket: 100_000, IdleCash: 100_000},
		{Date: day(2), BuyHold: map[string]float64{"AAA": 100_000}, MoneyMarket: 100_013.4, IdleCash: 100_000},
	}

	fills := []types.Fill{
		{
			ID:       uuid.New().String(),
			Date:     day(2),
			Symbol:   "AAA",
			Side:     types.SideBuy,
			Quantity: 5000,
			Price:    10,
			Fee:      50,
			Strategy: "core",
		},
	}

	return history, points, fills
}

func (suite *RunStoreTestSuite) TestSaveAndReadBack() {
	runID := uuid.New().String()
	history, points, fills := sampleRun()

	suite.Require().NoError(suite.store.SaveRun(runID, history, points, fills))

	curve, err := suite.store.EquityCurve(runID)
	suite.Require().NoError(err)
	suite.Require().Len(curve, 2)
	suite.Assert().True(curve[0].Date.Equal(day(1)))
	suite.Assert().InDelta(100_000.0, curve[0].Equity, 1e-9)
	suite.Assert().InDelta(50_000.0, curve[1].Cash, 1e-9)
	suite.Assert().InDelta(50_000.0, curve[1].PositionValue, 1e-9)
	suite.Assert().InDelta(100_013.4, curve[1].MoneyMarket, 1e-9)

	stored, err := suite.store.Fills(runID)
	suite.Require().NoError(err)
	suite.Require().Len(stored, 1)
	suite.Assert().Equal(fills[0].ID, stored[0].ID)
	suite.Assert().Equal(types.SideBuy, stored[0].Side)
	suite.Assert().Equal(int64(5000), stored[0].Quantity)
	suite.Assert().Equal("core", stored[0].Strategy)

	buyHold, err := suite.store.BuyHoldCurve(runID, "AAA")
	suite.Require().NoError(err)
	suite.Require().Len(buyHold, 2)
	suite.Assert().InDelta(100_000.0, buyHold[0].Value, 1e-9)
}

func (suite *RunStoreTestSuite) TestRunsAreIsolatedByID() {
	history, points, fills := sampleRun()

	first := uuid.New().String()
	second := uuid.New().String()

	suite.Require().NoError(suite.store.SaveRun(first, history, points, fills))
	suite.Require().NoError(suite.store.SaveRun(second, history, points, nil))

	firstFills, err := suite.store.Fills(first)
	suite.Require().NoError(err)
	suite.Assert().Len(firstFills, 1)

	secondFills, err := suite.store.Fills(second)
	suite.Require().NoError(err)
	suite.Assert().Empty(secondFills)
}

func (suite *RunStoreTestSuite) TestUnknownRunIsEmpty() {
	curve, err := suite.store.EquityCurve("no-such-run")
	suite.Require().NoError(err)
	suite.Assert().Empty(curve)
}

func (suite *RunStoreTestSuite) TestExportCSV() {
	runID := uuid.New().String()
	history, points, fills := sampleRun()

	suite.Require().NoError(suite.store.SaveRun(runID, history, points, fills))

	dir, err := os.MkdirTemp("", "chrono-export")
	suite.Require().NoError(err)

	defer os.RemoveAll(dir)

	suite.Require().NoError(suite.store.ExportCSV(runID, dir))

	for _, file := range []string{"equity_curve.csv", "fills.csv", "buy_hold.csv"} {
		raw, err := os.ReadFile(filepath.Join(dir, file))
		suite.Require().NoError(err)
		suite.Assert().NotEmpty(raw)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "fills.csv"))
	suite.Require().NoError(err)
	suite.Assert().Contains(string(raw), "AAA")
}
