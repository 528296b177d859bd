package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// AlignToGrid merges per-ticker daily bars into one rectangular grid keyed by
// the union of all dates. Dates a ticker has no bar for are left empty; the
// price loader reads those as missing prices.
func AlignToGrid(tickers []string, bars map[string][]Bar) (dates []time.Time, rows [][]string) {
	seen := make(map[time.Time]bool)

	for _, ticker := range tickers {
		for _, bar := range bars[ticker] {
			if !seen[bar.Date] {
				seen[bar.Date] = true

				dates = append(dates, bar.Date)
			}
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	closeByDate := make(map[string]map[time.Time]float64, len(tickers))

	for _, ticker := range tickers {
		closeByDate[ticker] = make(map[time.Time]float64, len(bars[ticker]))
		for _, bar := range bars[ticker] {
			closeByDate[ticker][bar.Date] = bar.Close
		}
	}

	rows = make([][]string, 0, len(dates))

	for _, date := range dates {
		row := make([]string, 0, len(tickers)+1)
		row = append(row, date.Format("2006-01-02"))

		for _, ticker := range tickers {
			if close, ok := closeByDate[ticker][date]; ok {
				row = append(row, strconv.FormatFloat(close, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}

		rows = append(rows, row)
	}

	return dates, rows
}

// WriteGridCSV writes the aligned grid with a timestamp header plus one
// column per ticker, creating parent directories as needed.
func WriteGridCSV(path string, tickers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create output directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := append([]string{"timestamp"}, tickers...)
	if err := writer.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write header", err)
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write row", err)
		}
	}

	writer.Flush()

	return writer.Error()
}
