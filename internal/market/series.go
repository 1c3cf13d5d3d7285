// Package market holds immutable per-instrument OHLCV series and the
// cursor-bounded view the simulation reads them through.
package market

import (
	"time"

	"github.com/chrono-trade/chrono/internal/types"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// Series is an immutable, date-sorted OHLCV series for one instrument.
// Constructed once and handed to the engine read-only.
type Series struct {
	symbol string
	bars   []types.Bar
}

// NewSeries validates and wraps a date-sorted bar slice. Bars must be
// non-empty, strictly ascending by date, and all carry the given symbol.
func NewSeries(symbol string, bars []types.Bar) (*Series, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeEmptySeries, "series symbol must not be empty")
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptySeries, "series for %s has no bars", symbol)
	}

	owned := make([]types.Bar, len(bars))
	copy(owned, bars)

	for i, bar := range owned {
		if bar.Symbol != symbol {
			return nil, errors.Newf(errors.ErrCodeBadSeriesOrder,
				"bar %d of series %s carries symbol %s", i, symbol, bar.Symbol)
		}

		if i > 0 && !owned[i-1].Date.Before(bar.Date) {
			return nil, errors.Newf(errors.ErrCodeBadSeriesOrder,
				"series %s is not strictly ascending at index %d", symbol, i)
		}
	}

	return &Series{symbol: symbol, bars: owned}, nil
}

// Symbol returns the instrument id.
func (s *Series) Symbol() string { return s.symbol }

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.bars) }

// At returns the bar at index i.
func (s *Series) At(i int) types.Bar { return s.bars[i] }

// FirstDate returns the date of the earliest bar.
func (s *Series) FirstDate() time.Time { return s.bars[0].Date }

// LastDate returns the date of the latest bar.
func (s *Series) LastDate() time.Time { return s.bars[len(s.bars)-1].Date }

// Dates returns a copy of all bar dates in order.
func (s *Series) Dates() []time.Time {
	dates := make([]time.Time, len(s.bars))
	for i, bar := range s.bars {
		dates[i] = bar.Date
	}

	return dates
}
