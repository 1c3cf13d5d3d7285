package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/chrono-trade/chrono/internal/types"
	"github.com/chrono-trade/chrono/pkg/errors"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func barsFor(symbol string, closes map[int]float64, days ...int) []types.Bar {
	bars := make([]types.Bar, 0, len(days))
	for _, d := range days {
		c := closes[d]
		bars = append(bars, types.Bar{
			Symbol: symbol,
			Date:   day(d),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		})
	}

	return bars
}

func constBars(symbol string, close float64, days ...int) []types.Bar {
	closes := make(map[int]float64, len(days))
	for _, d := range days {
		closes[d] = close
	}

	return barsFor(symbol, closes, days...)
}

type DataViewTestSuite struct {
	suite.Suite
	view *DataView
}

func TestDataViewSuite(t *testing.T) {
	suite.Run(t, new(DataViewTestSuite))
}

func (suite *DataViewTestSuite) SetupTest() {
	aapl, err := NewSeries("AAPL", barsFor("AAPL", map[int]float64{2: 10, 3: 11, 4: 12, 5: 13, 8: 14}, 2, 3, 4, 5, 8))
	suite.Require().NoError(err)

	googl, err := NewSeries("GOOGL", barsFor("GOOGL", map[int]float64{3: 100, 4: 101}, 3, 4))
	suite.Require().NoError(err)

	view, err := NewDataView(
		map[string]*Series{"AAPL": aapl, "GOOGL": googl},
		[]string{"AAPL", "GOOGL"},
		day(1), day(31),
	)
	suite.Require().NoError(err)
	suite.view = view
}

func (suite *DataViewTestSuite) TestCalendarIsSortedUnion() {
	calendar := suite.view.Calendar()
	expected := []time.Time{day(2), day(3), day(4), day(5), day(8)}
	suite.Equal(expected, calendar)
}

func (suite *DataViewTestSuite) TestNoLookAhead() {
	// Probe with a cursor earlier than the series tail: nothing after the
	// cursor may ever become visible.
	suite.view.Advance(day(4))

	latest, err := suite.view.Latest("AAPL").Take()
	suite.Require().NoError(err)
	suite.Equal(day(4), latest.Date)

	for _, n := range []int{1, 2, 3, 10} {
		for _, bar := range suite.view.History("AAPL", n) {
			suite.False(bar.Date.After(day(4)), "history returned a bar after the cursor")
		}
	}
}

func (suite *DataViewTestSuite) TestLatestBeforeFirstBarIsNone() {
	suite.view.Advance(day(1))
	suite.True(suite.view.Latest("AAPL").IsNone())
	suite.Nil(suite.view.History("AAPL", 5))
}

func (suite *DataViewTestSuite) TestLatestCarriesForwardOnMissingDate() {
	// GOOGL has no bar on day 5; its latest falls back to day 4.
	suite.view.Advance(day(5))

	latest, err := suite.view.Latest("GOOGL").Take()
	suite.Require().NoError(err)
	suite.Equal(day(4), latest.Date)
	suite.Equal(101.0, latest.Close)
}

func (suite *DataViewTestSuite) TestHistoryOldestFirst() {
	suite.view.Advance(day(8))

	history := suite.view.History("AAPL", 3)
	suite.Require().Len(history, 3)
	suite.Equal(day(4), history[0].Date)
	suite.Equal(day(8), history[2].Date)
}

func (suite *DataViewTestSuite) TestHistoryShorterThanRequested() {
	suite.view.Advance(day(3))

	history := suite.view.History("AAPL", 10)
	suite.Len(history, 2)
}

func (suite *DataViewTestSuite) TestAdvanceBackwardForReplay() {
	suite.view.Advance(day(8))
	suite.view.Advance(day(3))

	latest, err := suite.view.Latest("AAPL").Take()
	suite.Require().NoError(err)
	suite.Equal(day(3), latest.Date)
}

func (suite *DataViewTestSuite) TestUnknownSymbol() {
	suite.view.Advance(day(8))
	suite.True(suite.view.Latest("TSLA").IsNone())
	suite.Nil(suite.view.History("TSLA", 3))
}

func (suite *DataViewTestSuite) TestConstructorValidation() {
	aapl, err := NewSeries("AAPL", constBars("AAPL", 10, 2, 3))
	suite.Require().NoError(err)

	series := map[string]*Series{"AAPL": aapl}

	_, err = NewDataView(series, nil, day(1), day(31))
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyUniverse))

	_, err = NewDataView(series, []string{"MSFT"}, day(1), day(31))
	suite.True(errors.HasCode(err, errors.ErrCodeSeriesNotFound))

	_, err = NewDataView(series, []string{"AAPL"}, day(31), day(1))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDateRange))

	_, err = NewDataView(series, []string{"AAPL"}, day(20), day(31))
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyCalendar))
}
