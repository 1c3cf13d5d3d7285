package market

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/chrono-trade/chrono/internal/logger"
	"github.com/chrono-trade/chrono/internal/types"
	"github.com/chrono-trade/chrono/pkg/errors"
)

// LoadSeriesCSV reads one instrument's bars from a CSV file with a
// date,open,high,low,close,volume header. Parsing goes through DuckDB's CSV
// reader, which also handles type inference for the date column.
func LoadSeriesCSV(path string, symbol string, log *logger.Logger) (*Series, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataLoadFailed, "failed to open in-memory database", err)
	}
	defer db.Close()

	query := fmt.Sprintf(`
		SELECT date, open, high, low, close, volume
		FROM read_csv_auto('%s')
		ORDER BY date ASC
	`, path)

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataLoadFailed, err, "failed to read CSV %s", path)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		bar := types.Bar{Symbol: symbol}

		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataLoadFailed, err, "failed to scan bar from %s", path)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataLoadFailed, err, "error iterating CSV %s", path)
	}

	log.Debug("Loaded market data series",
		zap.String("symbol", symbol),
		zap.String("path", path),
		zap.Int("bars", len(bars)),
	)

	return NewSeries(symbol, bars)
}
