package consolidation

import (
	"cmp"
	"slices"
	"time"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/shopspring/decimal"
)

type dwell struct {
	price    decimal.Decimal
	duration float64
	anchor   time.Time
	seq      int64
}

// DurationAccumulator sums residence time per price bin. Bins are multiples of
// 10 × threshold; only consecutive observations in the same bin add time, so
// leaving a bin and coming back starts a new dwell. The accumulator lives for
// the whole scan and is fed chunk after chunk.
type DurationAccumulator struct {
	step decimal.Decimal
	bins map[string]*dwell

	prevKey  string
	prevTime time.Time
	hasPrev  bool
}

// NewDurationAccumulator creates an accumulator for a relative price threshold.
// A non-positive threshold bins by exact price.
func NewDurationAccumulator(threshold float64) *DurationAccumulator {
	step := decimal.NewFromFloat(threshold).Mul(decimal.NewFromInt(10))
	return &DurationAccumulator{
		step: step,
		bins: make(map[string]*dwell),
	}
}

// Bin returns the representative price of the bin p falls into. Halves round
// to even.
func (a *DurationAccumulator) Bin(p decimal.Decimal) decimal.Decimal {
	if !a.step.IsPositive() {
		return p
	}
	return p.Div(a.step).RoundBank(0).Mul(a.step)
}

// Add records an observation. Observations must arrive in time order.
func (a *DurationAccumulator) Add(o signalv1.Observation) {
	price := a.Bin(o.Price)
	key := price.String()

	b, ok := a.bins[key]
	if !ok {
		b = &dwell{price: price, anchor: o.Time, seq: int64(len(a.bins))}
		a.bins[key] = b
	}

	if a.hasPrev && a.prevKey == key {
		b.duration += o.Time.Sub(a.prevTime).Seconds()
	}
	if o.Time.Before(b.anchor) {
		b.anchor = o.Time
	}

	a.prevKey = key
	a.prevTime = o.Time
	a.hasPrev = true
}

// Len returns the number of bins seen.
func (a *DurationAccumulator) Len() int {
	return len(a.bins)
}

// Observations returns one observation per bin with the accumulated duration
// as metric, ordered by price.
func (a *DurationAccumulator) Observations() []signalv1.Observation {
	out := make([]signalv1.Observation, 0, len(a.bins))
	for _, b := range a.bins {
		out = append(out, signalv1.Observation{
			Time:   b.anchor,
			Price:  b.price,
			Metric: b.duration,
			Seq:    b.seq,
		})
	}

	slices.SortFunc(out, func(x, y signalv1.Observation) int {
		if c := x.Price.Cmp(y.Price); c != 0 {
			return c
		}
		return cmp.Compare(x.Seq, y.Seq)
	})

	return out
}
