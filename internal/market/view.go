package market

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/chrono-trade/chrono/internal/types"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// DataView exposes market data strictly at or before a movable cursor date.
// Decision rules only ever see market data through a DataView, which is what
// structurally rules out look-ahead: no accessor can observe a bar dated
// after the cursor, no matter how far the underlying series extend.
//
// A DataView is owned by a single run and is not safe for concurrent use.
type DataView struct {
	universe []string
	series   map[string]*Series
	calendar []time.Time
	cursor   time.Time
}

// NewDataView builds a view over the given universe and date range. The
// calendar is the sorted union of every instrument's trading dates clipped
// to [start, end]. Fails fast on an empty universe, a missing series, an
// inverted date range, or an empty resulting calendar.
func NewDataView(series map[string]*Series, universe []string, start, end time.Time) (*DataView, error) {
	if len(universe) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyUniverse, "universe must not be empty")
	}

	if start.After(end) {
		return nil, errors.Newf(errors.ErrCodeInvalidDateRange,
			"start date %s is after end date %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	owned := make(map[string]*Series, len(universe))
	seen := make(map[int64]bool)

	var calendar []time.Time

	for _, symbol := range universe {
		s, ok := series[symbol]
		if !ok || s == nil {
			return nil, errors.Newf(errors.ErrCodeSeriesNotFound, "no series for instrument %s", symbol)
		}

		owned[symbol] = s

		for _, date := range s.Dates() {
			if date.Before(start) || date.After(end) {
				continue
			}

			if key := date.UnixNano(); !seen[key] {
				seen[key] = true

				calendar = append(calendar, date)
			}
		}
	}

	if len(calendar) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyCalendar,
			"no trading dates in the configured range for any instrument")
	}

	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })

	universeCopy := make([]string, len(universe))
	copy(universeCopy, universe)

	return &DataView{
		universe: universeCopy,
		series:   owned,
		calendar: calendar,
		cursor:   calendar[0],
	}, nil
}

// Universe returns the instrument ids in configuration order.
func (v *DataView) Universe() []string {
	out := make([]string, len(v.universe))
	copy(out, v.universe)

	return out
}

// Calendar returns a copy of the unioned trading calendar.
func (v *DataView) Calendar() []time.Time {
	out := make([]time.Time, len(v.calendar))
	copy(out, v.calendar)

	return out
}

// Advance moves the cursor to the given date. Monotonicity is deliberately
// not enforced: backward replay rewinds the cursor through the same call.
func (v *DataView) Advance(date time.Time) {
	v.cursor = date
}

// Cursor returns the current cursor date.
func (v *DataView) Cursor() time.Time {
	return v.cursor
}

// Latest returns the last bar dated at or before the cursor, or None when
// the instrument has no bar at or before the cursor.
func (v *DataView) Latest(symbol string) optional.Option[types.Bar] {
	s, ok := v.series[symbol]
	if !ok {
		return optional.None[types.Bar]()
	}

	idx := v.lastIndexAtOrBefore(s, v.cursor)
	if idx < 0 {
		return optional.None[types.Bar]()
	}

	return optional.Some(s.At(idx))
}

// History returns the last n bars dated at or before the cursor, oldest
// first. Fewer than n are returned when insufficient history exists; nil
// when there is none.
func (v *DataView) History(symbol string, n int) []types.Bar {
	if n <= 0 {
		return nil
	}

	s, ok := v.series[symbol]
	if !ok {
		return nil
	}

	end := v.lastIndexAtOrBefore(s, v.cursor)
	if end < 0 {
		return nil
	}

	start := end - n + 1
	if start < 0 {
		start = 0
	}

	out := make([]types.Bar, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, s.At(i))
	}

	return out
}

// lastIndexAtOrBefore returns the index of the last bar with date <= cutoff,
// or -1 when no such bar exists.
func (v *DataView) lastIndexAtOrBefore(s *Series, cutoff time.Time) int {
	// First index strictly after the cutoff; everything before it is visible.
	idx := sort.Search(s.Len(), func(i int) bool {
		return s.At(i).Date.After(cutoff)
	})

	return idx - 1
}
