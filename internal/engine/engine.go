// Package engine implements the day-stepping simulation controller: the
// state machine that advances the market view, evaluates decision rules,
// aggregates their outputs into one order batch per date, applies it through
// the ledger, and snapshots the result. It also supports exact backward
// replay over the recorded snapshot history.
package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/chrono-trade/chrono/internal/factor"
	"github.com/chrono-trade/chrono/internal/ledger"
	"github.com/chrono-trade/chrono/internal/logger"
	"github.com/chrono-trade/chrono/internal/market"
	"github.com/chrono-trade/chrono/internal/types"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// State is the engine's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateStepping
	StateReplaying
	StateEnded
)

// StepCallback observes run progress: the completed step index, the total
// step count, and the snapshot the step produced.
type StepCallback func(current, total int, state types.AccountState)

// Engine drives one simulation run. It is strictly single-threaded: each
// Step or Back call fully completes before returning, and nothing else
// touches the ledger, the view cursor, or the history buffer.
type Engine struct {
	config     SimulationConfig
	log        *logger.Logger
	view       *market.DataView
	ledger     *ledger.Ledger
	aggregator *Aggregator
	baselines  *BaselineTracks

	calendar []time.Time
	pointer  int
	state    State

	history        []types.AccountState
	baselinePoints []BaselinePoint
	fills          []types.Fill
	diagnostics    []Diagnostic
}

// NewEngine creates an uninitialized engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{
		log:     log,
		pointer: -1,
		state:   StateUninitialized,
	}
}

// Initialize validates the configuration, builds the market view over the
// pre-materialized series, instantiates the configured strategies, and
// seeds the account at the first available trading date. Fails fast on an
// empty universe, an invalid date range, or an empty resulting calendar;
// no state is produced on failure.
func (e *Engine) Initialize(config SimulationConfig, series map[string]*market.Series) error {
	if err := config.Validate(); err != nil {
		return err
	}

	view, err := market.NewDataView(series, config.Universe, config.StartDate, config.EndDate)
	if err != nil {
		return err
	}

	aggregator, err := NewAggregator(config.Strategies, config.Universe, e.log)
	if err != nil {
		return err
	}

	e.config = config
	e.view = view
	e.aggregator = aggregator
	e.calendar = view.Calendar()
	e.ledger = ledger.New(config.InitialCash)
	e.baselines = NewBaselineTracks(config.InitialCash, config.MoneyMarketRate, config.Universe, config.LotSize)

	first := e.calendar[0]
	e.view.Advance(first)
	e.ledger.MarkToMarket(e.referencePrices())

	e.pointer = 0
	e.history = []types.AccountState{e.ledger.Snapshot(first)}
	e.baselinePoints = []BaselinePoint{e.baselines.Observe(first, e.referencePrices())}
	e.fills = nil
	e.diagnostics = nil
	e.state = StateReady

	e.log.Info("simulation initialized",
		zap.Strings("universe", config.Universe),
		zap.Time("first_date", first),
		zap.Int("calendar_days", len(e.calendar)),
	)

	return nil
}

// Step advances the simulation by one trading date and returns the fresh,
// independently copied snapshot it appended to history. Stepping past the
// last date is a calendar boundary, an expected control signal rather than
// a crash.
func (e *Engine) Step() (types.AccountState, error) {
	if e.state == StateUninitialized {
		return types.AccountState{}, errors.New(errors.ErrCodeNotInitialized, "engine is not initialized")
	}

	if e.pointer >= len(e.calendar)-1 {
		e.state = StateEnded

		return types.AccountState{}, errors.New(errors.ErrCodeEndOfCalendar, "already at the last trading date")
	}

	e.pointer++
	date := e.calendar[e.pointer]
	e.view.Advance(date)

	prices := e.referencePrices()

	// Positions whose instrument has no bar at this date keep their last
	// known mark; there is no forced liquidation on a halt.
	e.ledger.MarkToMarket(prices)

	ctx := factor.Context{
		Date:    date,
		Account: e.ledger.Snapshot(date),
		View:    e.view,
	}

	merged, err := e.aggregator.Collect(ctx)
	if err != nil {
		// A trigger failure: roll the whole step back so it leaves no
		// trace. The pointer and cursor rewind, the ledger drops the marks
		// applied above, and trigger edge state consumed before the
		// failing trigger is reset so a retried step re-fires those edges
		// instead of silently losing their orders.
		e.pointer--
		e.view.Advance(e.calendar[e.pointer])
		e.ledger.Restore(e.history[e.pointer])
		e.aggregator.Rewind()

		return types.AccountState{}, err
	}

	e.diagnostics = append(e.diagnostics, merged.diagnostics...)

	orders, attribution := e.aggregator.Resolve(
		merged,
		e.ledger.Equity(prices),
		prices,
		e.ledger.Positions(),
		e.config.LotSize,
		e.config.Universe,
	)

	fills := e.ledger.Apply(orders, ledger.ApplyOptions{
		Date:           date,
		Prices:         prices,
		AllowShort:     e.config.AllowShort,
		CommissionRate: e.config.CommissionRate,
		SlippageRate:   e.config.SlippageRate,
	})

	for i := range fills {
		fills[i].Strategy = attribution[fills[i].Symbol]
	}

	e.fills = append(e.fills, fills...)

	// Re-mark at the reference prices so valuation reflects the close, not
	// the slippage-adjusted execution prices.
	e.ledger.MarkToMarket(prices)

	snapshot := e.ledger.Snapshot(date)
	e.history = append(e.history, snapshot)
	e.baselinePoints = append(e.baselinePoints, e.baselines.Observe(date, prices))
	e.state = StateStepping

	return snapshot, nil
}

// Back rewinds the simulation by one trading date: the ledger is restored
// from the snapshot already recorded at the earlier date, the view cursor
// is rewound, and the now-undone future snapshot is truncated from history.
// Stepping backward from the first date is a calendar boundary.
func (e *Engine) Back() (types.AccountState, error) {
	if e.state == StateUninitialized {
		return types.AccountState{}, errors.New(errors.ErrCodeNotInitialized, "engine is not initialized")
	}

	if e.pointer <= 0 {
		return types.AccountState{}, errors.New(errors.ErrCodeStartOfCalendar, "already at the first trading date")
	}

	e.pointer--
	restored := e.history[e.pointer]

	e.ledger.Restore(restored)
	e.view.Advance(restored.Date)

	e.history = e.history[:e.pointer+1]
	e.baselinePoints = e.baselinePoints[:e.pointer+1]
	e.baselines.Rewind(e.baselinePoints[e.pointer], e.referencePrices())
	e.aggregator.Rewind()

	// Drop fills dated after the restored date so the fills log matches
	// the truncated history.
	kept := e.fills[:0]

	for _, fill := range e.fills {
		if !fill.Date.After(restored.Date) {
			kept = append(kept, fill)
		}
	}

	e.fills = kept
	e.state = StateReplaying

	return restored.Clone(), nil
}

// RunToEnd steps until the calendar is exhausted and returns the full
// ordered snapshot history. It behaves identically to manual repeated
// stepping; the callback, when present, observes each completed step.
func (e *Engine) RunToEnd(callback optional.Option[StepCallback]) ([]types.AccountState, error) {
	if e.state == StateUninitialized {
		return nil, errors.New(errors.ErrCodeNotInitialized, "engine is not initialized")
	}

	total := len(e.calendar) - 1

	for {
		snapshot, err := e.Step()
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeEndOfCalendar) {
				break
			}

			return nil, err
		}

		if callback.IsSome() {
			callback.Unwrap()(e.pointer, total, snapshot)
		}
	}

	return e.History(), nil
}

// History returns a copy of the recorded snapshot sequence.
func (e *Engine) History() []types.AccountState {
	out := make([]types.AccountState, len(e.history))
	copy(out, e.history)

	return out
}

// BaselinePoints returns a copy of the recorded baseline observations,
// aligned index-for-index with History.
func (e *Engine) BaselinePoints() []BaselinePoint {
	out := make([]BaselinePoint, len(e.baselinePoints))
	copy(out, e.baselinePoints)

	return out
}

// Fills returns a copy of the fills log.
func (e *Engine) Fills() []types.Fill {
	out := make([]types.Fill, len(e.fills))
	copy(out, e.fills)

	return out
}

// Diagnostics returns the run-level list of isolated rule failures.
func (e *Engine) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(e.diagnostics))
	copy(out, e.diagnostics)

	return out
}

// CurrentDate returns the simulated date at the pointer.
func (e *Engine) CurrentDate() time.Time {
	if e.pointer < 0 {
		return time.Time{}
	}

	return e.calendar[e.pointer]
}

// State returns the engine's lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Stats summarizes the run from the recorded history and fills log.
func (e *Engine) Stats(runID string) types.RunStats {
	equity := make([]float64, len(e.history))
	totalFees := 0.0

	for i, state := range e.history {
		equity[i] = state.TotalAssets
	}

	for _, fill := range e.fills {
		totalFees += fill.Fee
	}

	stats := types.RunStats{
		ID:          runID,
		Timestamp:   time.Now().UTC(),
		Symbols:     e.config.Universe,
		InitialCash: e.config.InitialCash,
		TotalFees:   totalFees,
		FillCount:   len(e.fills),
		TradingDays: len(e.history),
	}
	stats.ComputeEquityStats(equity)

	return stats
}

// referencePrices is the step's price map: each instrument's latest close
// at or before the cursor. Instruments with no bar yet are absent.
func (e *Engine) referencePrices() map[string]float64 {
	prices := make(map[string]float64, len(e.config.Universe))

	for _, symbol := range e.config.Universe {
		if bar := e.view.Latest(symbol); bar.IsSome() {
			prices[symbol] = bar.Unwrap().Close
		}
	}

	return prices
}
