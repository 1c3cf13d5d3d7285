// Package store persists run output through an embedded DuckDB database:
// the fills log and the equity curve with its baseline columns. Both tables
// are reproducible from a configuration and a market data snapshot, and
// both export to CSV.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/chrono-trade/chrono/internal/engine"
	"github.com/chrono-trade/chrono/internal/logger"
	"github.com/chrono-trade/chrono/internal/types"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// EquityPoint is one row of the persisted equity curve.
type EquityPoint struct {
	Date          time.Time
	Equity        float64
	Cash          float64
	PositionValue float64
	MoneyMarket   float64
	IdleCash      float64
}

// BuyHoldPoint is one row of the per-instrument buy-and-hold baseline.
type BuyHoldPoint struct {
	Date   time.Time
	Symbol string
	Value  float64
}

// RunStore is the DuckDB-backed sink for run output.
type RunStore struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewRunStore opens an in-memory database and creates the run tables.
func NewRunStore(log *logger.Logger) (*RunStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreInit, "failed to open database", err)
	}

	store := &RunStore{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

func (s *RunStore) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS fills (
			run_id TEXT,
			fill_id TEXT,
			date TIMESTAMP,
			symbol TEXT,
			side TEXT,
			quantity BIGINT,
			price DOUBLE,
			fee DOUBLE,
			strategy TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS equity_curve (
			run_id TEXT,
			date TIMESTAMP,
			equity DOUBLE,
			cash DOUBLE,
			position_value DOUBLE,
			money_market DOUBLE,
			idle_cash DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS buy_hold_curve (
			run_id TEXT,
			date TIMESTAMP,
			symbol TEXT,
			value DOUBLE
		)`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return errors.Wrap(errors.ErrCodeStoreInit, "failed to create run tables", err)
		}
	}

	return nil
}

// SaveRun writes one run's history, baseline observations, and fills log
// in a single transaction.
func (s *RunStore) SaveRun(runID string, history []types.AccountState, points []engine.BaselinePoint, fills []types.Fill) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreQuery, "failed to begin transaction", err)
	}

	for i, state := range history {
		insert := s.sq.
			Insert("equity_curve").
			Columns("run_id", "date", "equity", "cash", "position_value", "money_market", "idle_cash").
			Values(runID, state.Date, state.TotalAssets, state.Cash, state.PositionValue(),
				points[i].MoneyMarket, points[i].IdleCash).
			RunWith(tx)

		if _, err := insert.Exec(); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStoreQuery, "failed to insert equity point", err)
		}

		for symbol, value := range points[i].BuyHold {
			insert := s.sq.
				Insert("buy_hold_curve").
				Columns("run_id", "date", "symbol", "value").
				Values(runID, points[i].Date, symbol, value).
				RunWith(tx)

			if _, err := insert.Exec(); err != nil {
				tx.Rollback()

				return errors.Wrap(errors.ErrCodeStoreQuery, "failed to insert buy-hold point", err)
			}
		}
	}

	for _, fill := range fills {
		insert := s.sq.
			Insert("fills").
			Columns("run_id", "fill_id", "date", "symbol", "side", "quantity", "price", "fee", "strategy").
			Values(runID, fill.ID, fill.Date, fill.Symbol, string(fill.Side), fill.Quantity,
				fill.Price, fill.Fee, fill.Strategy).
			RunWith(tx)

		if _, err := insert.Exec(); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStoreQuery, "failed to insert fill", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreQuery, "failed to commit run", err)
	}

	s.log.Debug("run saved",
		zap.String("run_id", runID),
		zap.Int("equity_points", len(history)),
		zap.Int("fills", len(fills)),
	)

	return nil
}

// Fills reads a run's fills log back, ordered by date.
func (s *RunStore) Fills(runID string) ([]types.Fill, error) {
	query := s.sq.
		Select("fill_id", "date", "symbol", "side", "quantity", "price", "fee", "strategy").
		From("fills").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("date ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to query fills", err)
	}
	defer rows.Close()

	var fills []types.Fill

	for rows.Next() {
		var fill types.Fill

		var side string

		if err := rows.Scan(&fill.ID, &fill.Date, &fill.Symbol, &side,
			&fill.Quantity, &fill.Price, &fill.Fee, &fill.Strategy); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to scan fill", err)
		}

		fill.Side = types.Side(side)
		fills = append(fills, fill)
	}

	return fills, rows.Err()
}

// EquityCurve reads a run's equity curve back, ordered by date.
func (s *RunStore) EquityCurve(runID string) ([]EquityPoint, error) {
	query := s.sq.
		Select("date", "equity", "cash", "position_value", "money_market", "idle_cash").
		From("equity_curve").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("date ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to query equity curve", err)
	}
	defer rows.Close()

	var curve []EquityPoint

	for rows.Next() {
		var point EquityPoint
		if err := rows.Scan(&point.Date, &point.Equity, &point.Cash,
			&point.PositionValue, &point.MoneyMarket, &point.IdleCash); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to scan equity point", err)
		}

		curve = append(curve, point)
	}

	return curve, rows.Err()
}

// BuyHoldCurve reads a run's per-instrument buy-and-hold baseline back.
func (s *RunStore) BuyHoldCurve(runID, symbol string) ([]BuyHoldPoint, error) {
	query := s.sq.
		Select("date", "symbol", "value").
		From("buy_hold_curve").
		Where(squirrel.Eq{"run_id": runID, "symbol": symbol}).
		OrderBy("date ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to query buy-hold curve", err)
	}
	defer rows.Close()

	var curve []BuyHoldPoint

	for rows.Next() {
		var point BuyHoldPoint
		if err := rows.Scan(&point.Date, &point.Symbol, &point.Value); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to scan buy-hold point", err)
		}

		curve = append(curve, point)
	}

	return curve, rows.Err()
}

// ExportCSV writes a run's equity curve and fills log as CSV files into a
// directory. Raw SQL is used because the query builder does not support
// COPY.
func (s *RunStore) ExportCSV(runID, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreExport, "failed to create results folder", err)
	}

	exports := map[string]string{
		"equity_curve.csv": "equity_curve",
		"fills.csv":        "fills",
		"buy_hold.csv":     "buy_hold_curve",
	}

	for file, table := range exports {
		path := filepath.Join(dir, file)
		copyStatement := fmt.Sprintf(
			`COPY (SELECT * FROM %s WHERE run_id = '%s' ORDER BY date ASC) TO '%s' (FORMAT CSV, HEADER)`,
			table, runID, path,
		)

		if _, err := s.db.Exec(copyStatement); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreExport, err, "failed to export %s", table)
		}
	}

	s.log.Info("run exported", zap.String("run_id", runID), zap.String("dir", dir))

	return nil
}

// Close releases the database.
func (s *RunStore) Close() error {
	return s.db.Close()
}
