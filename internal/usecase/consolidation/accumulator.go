package consolidation

import (
	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
)

// BestOfAccumulator keeps, per exact price, the best observation seen so far.
// Merging the reduced set gives the same zones as merging every observation,
// which keeps memory bounded by distinct prices across a long scan.
type BestOfAccumulator struct {
	better  signalv1.Better
	byPrice map[string]signalv1.Observation
	seq     int64
}

// NewBestOfAccumulator creates an accumulator.
func NewBestOfAccumulator(better signalv1.Better) *BestOfAccumulator {
	return &BestOfAccumulator{
		better:  better,
		byPrice: make(map[string]signalv1.Observation),
	}
}

// Add records an observation in arrival order. Its Seq is reassigned.
func (a *BestOfAccumulator) Add(o signalv1.Observation) {
	o.Seq = a.seq
	a.seq++

	key := o.Price.String()
	current, ok := a.byPrice[key]
	if !ok || a.better.Beats(o.Metric, current.Metric) {
		a.byPrice[key] = o
	}
}

// Len returns the number of distinct prices kept.
func (a *BestOfAccumulator) Len() int {
	return len(a.byPrice)
}

// Observations returns the reduced set in no particular order.
func (a *BestOfAccumulator) Observations() []signalv1.Observation {
	out := make([]signalv1.Observation, 0, len(a.byPrice))
	for _, o := range a.byPrice {
		out = append(out, o)
	}
	return out
}

// Zones merges the reduced set.
func (a *BestOfAccumulator) Zones(opts Options) ([]signalv1.ConsolidationZone, error) {
	opts.Better = a.better
	return BestOf(a.Observations(), opts)
}
