package engine

import (
	"math"
	"time"
)

// BaselinePoint is one observation of the non-traded comparison tracks.
type BaselinePoint struct {
	Date time.Time
	// BuyHold values one lot-sized buy-and-hold line per instrument.
	BuyHold map[string]float64
	// MoneyMarket is cash compounding at the configured annual rate.
	MoneyMarket float64
	// IdleCash is cash with no accrual.
	IdleCash float64
}

// buyHoldTrack is the state of one instrument's buy-and-hold line: the
// lot-sized maximum purchase at the instrument's first available price,
// held flat thereafter.
type buyHoldTrack struct {
	started   bool
	startDate time.Time
	shares    int64
	residual  float64
	lastPrice float64
}

// BaselineTracks computes the comparison equity lines alongside a run
// without touching the live ledger.
type BaselineTracks struct {
	initialCash float64
	annualRate  float64
	lotOf       func(string) int64
	universe    []string

	buyHold     map[string]*buyHoldTrack
	moneyMarket float64
	lastDate    time.Time
}

// NewBaselineTracks creates the tracks for a run.
func NewBaselineTracks(initialCash, annualRate float64, universe []string, lotOf func(string) int64) *BaselineTracks {
	tracks := &BaselineTracks{
		initialCash: initialCash,
		annualRate:  annualRate,
		lotOf:       lotOf,
		universe:    universe,
		buyHold:     make(map[string]*buyHoldTrack, len(universe)),
		moneyMarket: initialCash,
		lastDate:    time.Time{},
	}

	for _, symbol := range universe {
		tracks.buyHold[symbol] = &buyHoldTrack{}
	}

	return tracks
}

// AccrualFactor is the growth multiplier for d elapsed calendar days at an
// annual rate r: (1+r)^(d/365). Zero elapsed days yields 1.
func AccrualFactor(annualRate float64, elapsedDays int) float64 {
	if elapsedDays <= 0 {
		return 1
	}

	return math.Pow(1+annualRate, float64(elapsedDays)/365)
}

// elapsedCalendarDays counts whole calendar days between two dates. Counting
// by date rather than by duration keeps a 23-hour DST-shortened day from
// truncating to zero.
func elapsedCalendarDays(from, to time.Time) int {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	return int(end.Sub(start).Hours() / 24)
}

// Observe advances every track to the given date and returns the point.
// Money-market accrual compounds by the calendar days elapsed since the
// previous observation; buy-and-hold lines open at the first date their
// instrument has a price and reprice at every later one.
func (b *BaselineTracks) Observe(date time.Time, prices map[string]float64) BaselinePoint {
	if !b.lastDate.IsZero() {
		b.moneyMarket *= AccrualFactor(b.annualRate, elapsedCalendarDays(b.lastDate, date))
	}

	b.lastDate = date

	point := BaselinePoint{
		Date:        date,
		BuyHold:     make(map[string]float64, len(b.universe)),
		MoneyMarket: b.moneyMarket,
		IdleCash:    b.initialCash,
	}

	for _, symbol := range b.universe {
		track := b.buyHold[symbol]

		price, ok := prices[symbol]
		if ok && price > 0 {
			if !track.started {
				lot := b.lotOf(symbol)
				track.shares = lot * int64(math.Floor(b.initialCash/(price*float64(lot))))
				track.residual = b.initialCash - float64(track.shares)*price
				track.started = true
				track.startDate = date
			}

			track.lastPrice = price
		}

		if track.started {
			point.BuyHold[symbol] = track.residual + float64(track.shares)*track.lastPrice
		} else {
			// No price seen yet: the line is still all cash.
			point.BuyHold[symbol] = b.initialCash
		}
	}

	return point
}

// Rewind restores the tracks to a previously observed point so that
// re-stepping forward reproduces the original observations exactly.
func (b *BaselineTracks) Rewind(point BaselinePoint, prices map[string]float64) {
	b.moneyMarket = point.MoneyMarket
	b.lastDate = point.Date

	for _, symbol := range b.universe {
		track := b.buyHold[symbol]
		if track.started && point.Date.Before(track.startDate) {
			*track = buyHoldTrack{}

			continue
		}

		if price, ok := prices[symbol]; ok && price > 0 {
			track.lastPrice = price
		}
	}
}
