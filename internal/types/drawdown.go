package types

import (
	"github.com/moznion/go-optional"
)

type DrawdownStatus string

const (
	// DrawdownStatusActive marks an episode still below its peak at the end of
	// the series.
	DrawdownStatusActive DrawdownStatus = "ACTIVE"
	// DrawdownStatusRecovered marks an episode closed by a new all-time high.
	DrawdownStatusRecovered DrawdownStatus = "RECOVERED"
)

// DrawdownRecord is one peak-to-trough-to-recovery episode of a series.
// At most one episode is open per column at any point in the scan; it closes
// the moment the series makes a new peak.
type DrawdownRecord struct {
	Column     int `yaml:"column" json:"column" csv:"column"`
	PeakTick   int `yaml:"peak_tick" json:"peak_tick" csv:"peak_tick"`
	ValleyTick int `yaml:"valley_tick" json:"valley_tick" csv:"valley_tick"`
	// RecoveryTick is the tick at which the series regained its peak. None
	// while the episode is still active.
	RecoveryTick optional.Option[int] `yaml:"recovery_tick" json:"recovery_tick" csv:"recovery_tick"`
	PeakValue    float64              `yaml:"peak_value" json:"peak_value" csv:"peak_value"`
	ValleyValue  float64              `yaml:"valley_value" json:"valley_value" csv:"valley_value"`
	Status       DrawdownStatus       `yaml:"status" json:"status" csv:"status"`
}

// Depth returns (valley - peak) / peak, the maximum relative loss of the
// episode. Always non-positive for a valid record.
func (d *DrawdownRecord) Depth() float64 {
	if d.PeakValue == 0 {
		return 0
	}

	return (d.ValleyValue - d.PeakValue) / d.PeakValue
}
