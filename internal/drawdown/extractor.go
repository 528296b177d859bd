// Package drawdown identifies peak-to-valley episodes in an equity series.
package drawdown

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

// episode tracks the drawdown currently in progress during the scan.
type episode struct {
	peakTick   int
	peakValue  float64
	valleyTick int
	valley     float64
}

// Extract scans an equity series with a running peak and emits one record per
// drawdown episode. An episode opens on the first tick strictly below the
// current peak, its valley is the minimum reached, and it recovers on the
// first tick at or above the old peak. An episode still below peak at the end
// of the series is reported as Active with no recovery tick.
//
// NaN values are skipped: they neither advance the peak nor deepen a valley.
func Extract(column int, values []float64) []types.DrawdownRecord {
	records := make([]types.DrawdownRecord, 0)

	var (
		current  *episode
		peak     = math.NaN()
		peakTick = -1
	)

	for tick, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}

		if math.IsNaN(peak) {
			peak = value
			peakTick = tick

			continue
		}

		if value >= peak {
			if current != nil {
				records = append(records, recovered(column, current, tick))
				current = nil
			}

			// A tick merely matching the peak is not a new peak.
			if value > peak {
				peak = value
				peakTick = tick
			}

			continue
		}

		if current == nil {
			current = &episode{
				peakTick:   peakTick,
				peakValue:  peak,
				valleyTick: tick,
				valley:     value,
			}

			continue
		}

		if value < current.valley {
			current.valley = value
			current.valleyTick = tick
		}
	}

	if current != nil {
		records = append(records, types.DrawdownRecord{
			Column:      column,
			PeakTick:    current.peakTick,
			ValleyTick:  current.valleyTick,
			PeakValue:   current.peakValue,
			ValleyValue: current.valley,
			Status:      types.DrawdownStatusActive,
		})
	}

	return records
}

func recovered(column int, e *episode, recoveryTick int) types.DrawdownRecord {
	return types.DrawdownRecord{
		Column:       column,
		PeakTick:     e.peakTick,
		ValleyTick:   e.valleyTick,
		RecoveryTick: optional.Some(recoveryTick),
		PeakValue:    e.peakValue,
		ValleyValue:  e.valley,
		Status:       types.DrawdownStatusRecovered,
	}
}

// MaxDepth returns the deepest drawdown among the records as a negative
// fraction of its peak, or zero when there are none.
func MaxDepth(records []types.DrawdownRecord) float64 {
	depth := 0.0

	for _, record := range records {
		if d := record.Depth(); d < depth {
			depth = d
		}
	}

	return depth
}
