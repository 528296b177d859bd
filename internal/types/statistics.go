package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeSummary struct {
	// Count of all closed trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of trades with positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of trades with negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate over closed trades.
	WinRate float64 `yaml:"win_rate"`
}

type PnLSummary struct {
	// Realized PnL summed over closed trades.
	RealizedPnL float64 `yaml:"realized_pnl"`
	// Unrealized PnL of trades still open at the end of the run, valued at the
	// final price.
	UnrealizedPnL float64 `yaml:"unrealized_pnl"`
	// TotalPnL is realized plus unrealized.
	TotalPnL float64 `yaml:"total_pnl"`
	// Largest single-trade loss.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Largest single-trade profit.
	MaximumProfit float64 `yaml:"maximum_profit"`
}

// ColumnStats summarizes one column of a finished run.
type ColumnStats struct {
	Column       int          `yaml:"column"`
	Name         string       `yaml:"name,omitempty"`
	TradeSummary TradeSummary `yaml:"trade_summary"`
	PnL          PnLSummary   `yaml:"pnl"`
	TotalFees    float64      `yaml:"total_fees"`
	FinalEquity  float64      `yaml:"final_equity"`
	TotalReturn  float64      `yaml:"total_return"`
	// MaxDrawdown is the deepest equity drawdown, non-positive.
	MaxDrawdown float64 `yaml:"max_drawdown"`
}

// RunStats is the top-level summary written next to the exported Parquet files.
type RunStats struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id"`
	// Timestamp is when the run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// Version is the results-format version of the library that wrote this file.
	Version     string        `yaml:"version"`
	InitialCash float64       `yaml:"initial_cash"`
	Columns     []ColumnStats `yaml:"columns"`
	// FillsFilePath is the path to the fills parquet file.
	FillsFilePath string `yaml:"fills_file_path"`
	// StatesFilePath is the path to the per-tick state parquet file.
	StatesFilePath string `yaml:"states_file_path"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path"`
	// DrawdownsFilePath is the path to the drawdowns parquet file.
	DrawdownsFilePath string `yaml:"drawdowns_file_path"`
}

// WriteRunStats writes run statistics to a YAML file.
func WriteRunStats(path string, stats RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}

// ReadRunStats reads run statistics back from a YAML file.
func ReadRunStats(path string) (RunStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to read run stats file: %w", err)
	}

	var stats RunStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return RunStats{}, fmt.Errorf("failed to unmarshal run stats: %w", err)
	}

	return stats, nil
}
