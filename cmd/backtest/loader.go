package main

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// timestampLayouts are tried in order when parsing the first CSV column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadPriceGrid reads a CSV whose first column is a timestamp and whose
// remaining columns are per-asset prices. The header row names the columns.
// Empty cells and the literal "nan" become NaN, which the engine treats as a
// missing price.
func LoadPriceGrid(path string) (types.TimeIndex, types.Grid, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, types.Grid{}, nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "cannot open price file %s", path)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, types.Grid{}, nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "cannot parse %s", path)
	}

	if len(records) < 2 {
		return nil, types.Grid{}, nil, errors.Newf(errors.ErrCodeNoDataFound, "%s has no data rows", path)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, types.Grid{}, nil, errors.Newf(errors.ErrCodeMarketDataParseFailed,
			"%s needs a timestamp column plus at least one price column", path)
	}

	names := header[1:]

	index := make(types.TimeIndex, 0, len(records)-1)
	values := make([][]float64, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, types.Grid{}, nil, errors.Newf(errors.ErrCodeMarketDataParseFailed,
				"%s row %d has %d fields, expected %d", path, i+2, len(record), len(header))
		}

		ts, err := parseTimestamp(record[0])
		if err != nil {
			return nil, types.Grid{}, nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
				"%s row %d has a bad timestamp", path, i+2)
		}

		row := make([]float64, len(names))

		for j, cell := range record[1:] {
			row[j], err = parsePrice(cell)
			if err != nil {
				return nil, types.Grid{}, nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
					"%s row %d column %s", path, i+2, names[j])
			}
		}

		index = append(index, ts)
		values = append(values, row)
	}

	grid, err := types.NewGrid(values)
	if err != nil {
		return nil, types.Grid{}, nil, err
	}

	if err := index.Validate(); err != nil {
		return nil, types.Grid{}, nil, err
	}

	return index, grid, names, nil
}

// LoadSignalGrid reads a CSV of 0/1 (or true/false) cells with the same
// layout as the price grid. The timestamp column is present for alignment but
// only its row count is checked here; full shape validation happens in the
// engine.
func LoadSignalGrid(path string) (types.BoolGrid, error) {
	file, err := os.Open(path)
	if err != nil {
		return types.BoolGrid{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "cannot open signal file %s", path)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return types.BoolGrid{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "cannot parse %s", path)
	}

	if len(records) < 2 {
		return types.BoolGrid{}, errors.Newf(errors.ErrCodeNoDataFound, "%s has no data rows", path)
	}

	values := make([][]bool, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) < 2 {
			return types.BoolGrid{}, errors.Newf(errors.ErrCodeMarketDataParseFailed,
				"%s row %d has no signal columns", path, i+2)
		}

		row := make([]bool, len(record)-1)

		for j, cell := range record[1:] {
			row[j], err = parseSignal(cell)
			if err != nil {
				return types.BoolGrid{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
					"%s row %d column %d", path, i+2, j+1)
			}
		}

		values = append(values, row)
	}

	return types.NewBoolGrid(values)
}

func parseTimestamp(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)

	var lastErr error

	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, cell)
		if err == nil {
			return ts, nil
		}

		lastErr = err
	}

	return time.Time{}, lastErr
}

func parsePrice(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}

	return strconv.ParseFloat(cell, 64)
}

func parseSignal(cell string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "1", "true", "t", "yes":
		return true, nil
	case "0", "false", "f", "no", "":
		return false, nil
	default:
		return strconv.ParseBool(cell)
	}
}
