package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-portfolio/internal/ledger"
	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/internal/version"
)

// backtestAction loads the inputs, runs the simulation, and persists the
// results as Parquet files plus a stats.yaml summary.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("schema") {
		config := portfolio.DefaultConfig()

		schemaJSON, err := config.GenerateSchemaJSON()
		if err != nil {
			return err
		}

		fmt.Println(schemaJSON)

		return nil
	}

	appLogger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	engine, err := portfolio.NewPortfolio(config, appLogger)
	if err != nil {
		return err
	}

	if cmd.String("prices") == "" {
		return fmt.Errorf("--prices is required")
	}

	index, prices, names, err := LoadPriceGrid(cmd.String("prices"))
	if err != nil {
		return err
	}

	entries, exits, err := loadOrGenerateSignals(cmd, prices)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	engine.SetProgressCallback(func(completed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Simulating"),
				progressbar.OptionShowCount(),
			)
		}

		bar.Set(completed)
	})

	result, err := engine.RunSignals(index, prices, entries, exits)
	if err != nil {
		return err
	}

	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	outputDir := cmd.String("output")
	if err := persistResult(appLogger, result, config.InitialCash, names, outputDir); err != nil {
		return err
	}

	fmt.Println(result.String())
	fmt.Printf("results written to %s\n", outputDir)

	return nil
}

// persistResult stores the run in the ledger, exports the tables as Parquet,
// and writes the per-column statistics summary next to them.
func persistResult(appLogger *logger.Logger, result *portfolio.Result, initialCash float64, names []string, outputDir string) error {
	// Refuse to overwrite results written by an incompatible library version.
	statsPath := filepath.Join(outputDir, "stats.yaml")
	if existing, err := types.ReadRunStats(statsPath); err == nil {
		if err := version.CheckVersionCompatibility(version.GetVersion(), existing.Version); err != nil {
			return fmt.Errorf("output directory %s holds incompatible results: %w", outputDir, err)
		}
	}

	store, err := ledger.NewResultStore(appLogger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		return err
	}

	if err := store.InsertResult(result); err != nil {
		return err
	}

	stats, err := store.ColumnStats(initialCash)
	if err != nil {
		return err
	}

	for i := range stats {
		if stats[i].Column < len(names) {
			stats[i].Name = names[stats[i].Column]
		}
	}

	paths, err := store.Write(outputDir)
	if err != nil {
		return err
	}

	runStats := types.RunStats{
		ID:                result.ID.String(),
		Timestamp:         time.Now().UTC(),
		Version:           version.GetVersion(),
		InitialCash:       initialCash,
		Columns:           stats,
		FillsFilePath:     paths["fills"],
		StatesFilePath:    paths["states"],
		TradesFilePath:    paths["trades"],
		DrawdownsFilePath: paths["drawdowns"],
	}

	return types.WriteRunStats(statsPath, runStats)
}

func newLogger(debug bool) (*logger.Logger, error) {
	if debug {
		return logger.NewDebugLogger()
	}

	return logger.NewLogger()
}

// loadConfig reads the YAML config file, or falls back to defaults when no
// path is given.
func loadConfig(path string) (portfolio.Config, error) {
	if path == "" {
		return portfolio.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return portfolio.Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var config portfolio.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return portfolio.Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// loadOrGenerateSignals reads the entry and exit CSVs when both are given,
// and otherwise derives signals from a moving-average crossover.
func loadOrGenerateSignals(cmd *cli.Command, prices types.Grid) (types.BoolGrid, types.BoolGrid, error) {
	entriesPath := cmd.String("entries")
	exitsPath := cmd.String("exits")

	if (entriesPath == "") != (exitsPath == "") {
		return types.BoolGrid{}, types.BoolGrid{}, fmt.Errorf("--entries and --exits must be given together")
	}

	if entriesPath != "" {
		entries, err := LoadSignalGrid(entriesPath)
		if err != nil {
			return types.BoolGrid{}, types.BoolGrid{}, err
		}

		exits, err := LoadSignalGrid(exitsPath)
		if err != nil {
			return types.BoolGrid{}, types.BoolGrid{}, err
		}

		return entries, exits, nil
	}

	return GenerateCrossoverSignals(prices, int(cmd.Int("fast")), int(cmd.Int("slow")))
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Simulate a portfolio over a price grid and export the results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "prices",
				Aliases: []string{"p"},
				Usage:   "CSV file with a timestamp column and one price column per asset",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML simulation config; defaults apply when omitted",
			},
			&cli.StringFlag{
				Name:  "entries",
				Usage: "CSV file of entry signals matching the price grid shape",
			},
			&cli.StringFlag{
				Name:  "exits",
				Usage: "CSV file of exit signals matching the price grid shape",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for Parquet exports and stats.yaml",
				Value:   "results",
			},
			&cli.IntFlag{
				Name:  "fast",
				Usage: "Fast SMA period for generated crossover signals",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "slow",
				Usage: "Slow SMA period for generated crossover signals",
				Value: 30,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "schema",
				Usage: "Print the config JSON schema and exit",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
