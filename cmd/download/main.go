package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

// downloadAction fetches daily closes for every requested ticker and writes
// them as one aligned price-grid CSV ready for the backtest command.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	tickers := splitTickers(cmd.String("tickers"))
	if len(tickers) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}

	client, err := NewPolygonClient(os.Getenv("POLYGON_API_KEY"))
	if err != nil {
		return err
	}

	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")

	bars := make(map[string][]Bar, len(tickers))

	for _, ticker := range tickers {
		tickerBars, err := client.DownloadDaily(ctx, ticker, startDate, endDate)
		if err != nil {
			return err
		}

		bars[ticker] = tickerBars
	}

	dates, rows := AlignToGrid(tickers, bars)

	outputPath := cmd.String("output")
	if err := WriteGridCSV(outputPath, tickers, rows); err != nil {
		return err
	}

	fmt.Printf("wrote %d rows x %d tickers to %s\n", len(dates), len(tickers), outputPath)

	return nil
}

func splitTickers(raw string) []string {
	parts := strings.Split(raw, ",")

	tickers := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tickers = append(tickers, strings.ToUpper(trimmed))
		}
	}

	return tickers
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download daily closes into a price-grid CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tickers",
				Aliases:  []string{"t"},
				Usage:    "Comma-separated ticker symbols, e.g. AAPL,MSFT,GOOG",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the price-grid CSV to write",
				Value:   "data/prices.csv",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
