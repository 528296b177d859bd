package types

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")

	stats := RunStats{
		ID:          "f3b7f6a0-0000-0000-0000-000000000000",
		Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Version:     "1.2.3",
		InitialCash: 10000,
		Columns: []ColumnStats{
			{
				Column: 0,
				Name:   "BTC",
				TradeSummary: TradeSummary{
					NumberOfTrades:        4,
					NumberOfWinningTrades: 3,
					NumberOfLosingTrades:  1,
					WinRate:               0.75,
				},
				PnL: PnLSummary{
					RealizedPnL:   120,
					UnrealizedPnL: -20,
					TotalPnL:      100,
					MaximumLoss:   -50,
					MaximumProfit: 90,
				},
				TotalFees:   4.5,
				FinalEquity: 10100,
				TotalReturn: 0.01,
				MaxDrawdown: -0.12,
			},
		},
		FillsFilePath:     "results/fills.parquet",
		StatesFilePath:    "results/states.parquet",
		TradesFilePath:    "results/trades.parquet",
		DrawdownsFilePath: "results/drawdowns.parquet",
	}

	require.NoError(t, WriteRunStats(path, stats))

	loaded, err := ReadRunStats(path)
	require.NoError(t, err)

	assert.Equal(t, stats.ID, loaded.ID)
	assert.Equal(t, stats.Version, loaded.Version)
	assert.True(t, stats.Timestamp.Equal(loaded.Timestamp))
	require.Len(t, loaded.Columns, 1)
	assert.Equal(t, stats.Columns[0], loaded.Columns[0])
	assert.Equal(t, stats.DrawdownsFilePath, loaded.DrawdownsFilePath)
}

func TestReadRunStatsMissingFile(t *testing.T) {
	_, err := ReadRunStats(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
