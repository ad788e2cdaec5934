package density

import (
	"math"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/shopspring/decimal"
)

// Options configures the scorer.
type Options struct {
	Mode      signalv1.Mode
	Threshold float64
	// Filter applies the threshold. When false every scored bucket is kept.
	Filter bool
}

// State carries the last defined density across chunks.
type State struct {
	Last    float64
	HasLast bool
}

// Scorer turns trailing trade count and rate of change into ln(count/|roc|).
type Scorer struct {
	opts  Options
	state State
}

// NewScorer creates a scorer.
func NewScorer(opts Options) *Scorer {
	return &Scorer{opts: opts}
}

// Score scores one bucket. Buckets with an undefined or zero rate of change, or
// no trades, inherit the last defined density; with no prior value they are
// dropped. The second return value is false when the bucket is not emitted.
func (s *Scorer) Score(m signalv1.RollingMetric, price decimal.Decimal) (signalv1.DensityPoint, bool) {
	point := signalv1.DensityPoint{Time: m.TimeBucket, Price: price}

	if d, ok := density(m); ok {
		point.Density = d
		s.state.Last = d
		s.state.HasLast = true
	} else if s.state.HasLast {
		point.Density = s.state.Last
		point.ForwardFilled = true
	} else {
		return signalv1.DensityPoint{}, false
	}

	if s.opts.Filter && !s.keep(point.Density) {
		return signalv1.DensityPoint{}, false
	}

	return point, true
}

// State returns the scorer state.
func (s *Scorer) State() State {
	return s.state
}

// Restore replaces the scorer state.
func (s *Scorer) Restore(state State) {
	s.state = state
}

func (s *Scorer) keep(d float64) bool {
	if s.opts.Mode == signalv1.ModeBursty {
		return d >= s.opts.Threshold
	}
	return d <= s.opts.Threshold
}

func density(m signalv1.RollingMetric) (float64, bool) {
	roc := math.Abs(m.RollingROC)
	if !m.ROCDefined || roc == 0 || m.TradeCount <= 0 {
		return 0, false
	}

	d := math.Log(float64(m.TradeCount) / roc)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}

	return d, true
}
