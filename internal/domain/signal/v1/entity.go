package v1

import (
	"fmt"
	"time"

	"github.com/muhammadchandra19/market-signal/pkg/util"
	"github.com/shopspring/decimal"
)

// Better selects which side of a metric wins a best-of merge.
type Better int

const (
	// Higher keeps the larger metric (dwell duration, bursty density).
	Higher Better = iota
	// Lower keeps the smaller metric (stddev, quiet density).
	Lower
)

// Beats reports whether candidate strictly improves on current.
func (b Better) Beats(candidate, current float64) bool {
	if b == Lower {
		return candidate < current
	}
	return candidate > current
}

// Mode selects which side of the density threshold is kept.
type Mode string

const (
	// ModeQuiet keeps buckets at or below the threshold.
	ModeQuiet Mode = "quiet"
	// ModeBursty keeps buckets at or above the threshold.
	ModeBursty Mode = "bursty"
)

// ParseMode validates a configured mode name.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeQuiet, ModeBursty:
		return Mode(name), nil
	default:
		return "", fmt.Errorf("unsupported mode %q, supported: quiet, bursty", name)
	}
}

// RollingMetric is the trailing-window state of one bucket.
type RollingMetric struct {
	TimeBucket    time.Time
	Value         float64
	RollingStdDev float64
	RollingROC    float64
	// ROCDefined is false when the window start value is zero.
	ROCDefined bool
	// TradeCount is the trade count summed over the trailing window.
	TradeCount int64
}

// DensityPoint is one scored bucket.
type DensityPoint struct {
	Time    time.Time
	Price   decimal.Decimal
	Density float64
	// ForwardFilled marks a density inherited from an earlier bucket.
	ForwardFilled bool
}

// Observation is one (price, metric) candidate fed into consolidation.
type Observation struct {
	Time   time.Time
	Price  decimal.Decimal
	Metric float64
	// Seq orders observations by arrival and breaks merge ties.
	Seq int64
}

// ConsolidationZone is the surviving representative of a price neighborhood.
type ConsolidationZone struct {
	PriceLevel      decimal.Decimal
	DurationOrScore float64
	AnchorTime      time.Time
}

// Point converts the zone into an output tuple.
func (z ConsolidationZone) Point() Point {
	return Point{Time: z.AnchorTime, Price: z.PriceLevel, Metric: z.DurationOrScore}
}

// Point is the public output tuple.
type Point struct {
	Time   time.Time
	Price  decimal.Decimal
	Metric float64
}

// Line renders the point as isoTimestamp,isoNow,price,metric.
func (p Point) Line(now time.Time) string {
	return fmt.Sprintf("%s,%s,%.5f,%.2f",
		util.ISOTime(p.Time),
		util.ISOTime(now),
		p.Price.InexactFloat64(),
		p.Metric,
	)
}
