package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/chrono-trade/chrono/internal/engine"
	"github.com/chrono-trade/chrono/internal/logger"
	"github.com/chrono-trade/chrono/internal/market"
	"github.com/chrono-trade/chrono/internal/store"
	"github.com/chrono-trade/chrono/internal/types"
)

// runAction loads the configuration and market data, runs the simulation to
// the end, and writes the run output (equity curve, fills log, stats) into
// the results folder.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataDir := cmd.String("data")
	resultsDir := cmd.String("results")
	showProgress := cmd.Bool("progress")

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config, err := engine.ParseConfig(raw)
	if err != nil {
		return err
	}

	// One CSV per instrument, named <symbol>.csv.
	series := make(map[string]*market.Series, len(config.Universe))

	for _, symbol := range config.Universe {
		path := filepath.Join(dataDir, symbol+".csv")

		s, err := market.LoadSeriesCSV(path, symbol, appLogger)
		if err != nil {
			return err
		}

		series[symbol] = s
	}

	sim := engine.NewEngine(appLogger)
	if err := sim.Initialize(config, series); err != nil {
		return err
	}

	callback := optional.None[engine.StepCallback]()

	if showProgress {
		var bar *progressbar.ProgressBar

		callback = optional.Some[engine.StepCallback](func(current, total int, state types.AccountState) {
			if bar == nil {
				bar = progressbar.Default(int64(total))
			}

			bar.Add(1)
		})
	}

	history, err := sim.RunToEnd(callback)
	if err != nil {
		return err
	}

	runID := uuid.New().String()

	runStore, err := store.NewRunStore(appLogger)
	if err != nil {
		return err
	}
	defer runStore.Close()

	if err := runStore.SaveRun(runID, history, sim.BaselinePoints(), sim.Fills()); err != nil {
		return err
	}

	if err := runStore.ExportCSV(runID, resultsDir); err != nil {
		return err
	}

	stats := sim.Stats(runID)
	if err := types.WriteRunStats(filepath.Join(resultsDir, "stats.yaml"), stats); err != nil {
		return err
	}

	appLogger.Info("run complete",
		zap.String("run_id", runID),
		zap.Int("trading_days", stats.TradingDays),
		zap.Int("fills", stats.FillCount),
		zap.Float64("final_equity", stats.FinalEquity),
		zap.Float64("total_return", stats.TotalReturn),
		zap.Float64("max_drawdown", stats.MaxDrawdown),
		zap.Int("rule_diagnostics", len(sim.Diagnostics())),
	)

	return nil
}

// schemaAction prints the JSON schema of the configuration document.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	schema, err := engine.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "chrono",
		Usage: "Replayable day-stepping trading simulations",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run a simulation from a config file and CSV market data",
				Action: runAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the simulation config YAML",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Directory with one <symbol>.csv per instrument",
						Value:   "./data",
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Directory for the run output",
						Value:   "./results",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Show a progress bar",
						Value: true,
					},
				},
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
