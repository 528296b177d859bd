package main

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"

	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// Bar is one daily close for one ticker.
type Bar struct {
	Date  time.Time
	Close float64
}

// PolygonClient fetches daily aggregates from the Polygon REST API.
type PolygonClient struct {
	client *polygon.Client
}

func NewPolygonClient(apiKey string) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "POLYGON_API_KEY is required")
	}

	return &PolygonClient{client: polygon.New(apiKey)}, nil
}

// DownloadDaily fetches the daily closes for one ticker across the date
// range, showing a progress bar sized by calendar days.
func (c *PolygonClient) DownloadDaily(ctx context.Context, ticker string, startDate, endDate time.Time) ([]Bar, error) {
	totalDays := int(endDate.Sub(startDate).Hours()/24) + 1

	bar := progressbar.NewOptions(totalDays,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)),
		progressbar.OptionShowCount(),
	)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.client.ListAggs(ctx, params)

	bars := make([]Bar, 0, totalDays)

	for iter.Next() {
		agg := iter.Item()
		date := time.Time(agg.Timestamp).UTC().Truncate(24 * time.Hour)

		bars = append(bars, Bar{Date: date, Close: agg.Close})

		bar.Set(int(date.Sub(startDate).Hours() / 24))
	}

	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, iter.Err(),
			"error iterating polygon aggregates for %s", ticker)
	}

	bar.Finish()
	fmt.Println()

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no daily bars returned for %s", ticker)
	}

	return bars, nil
}
