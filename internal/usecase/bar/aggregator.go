package bar

import (
	"iter"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	scanv1 "github.com/muhammadchandra19/market-signal/internal/domain/scan/v1"
	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	"github.com/muhammadchandra19/market-signal/pkg/interval"
	"github.com/shopspring/decimal"
)

// OpenBucket is the partially filled bucket of the most recent trades.
type OpenBucket struct {
	Index      int64
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
	PriceSum   decimal.Decimal
	TradeCount int64
}

// BoundaryState is what the next chunk needs to continue without a spurious gap.
type BoundaryState struct {
	// Seeded is true once LastClose and LastBucket hold a closed bar.
	Seeded     bool
	LastClose  decimal.Decimal
	LastBucket int64
	Open       *OpenBucket
}

// Aggregator turns time-ordered trades into contiguous fixed-interval bars.
// Empty buckets between two trades are filled from the previous close.
type Aggregator struct {
	interval interval.Interval
	state    BoundaryState
}

// NewAggregator creates an aggregator for the given interval.
func NewAggregator(iv interval.Interval) *Aggregator {
	return &Aggregator{interval: iv}
}

// Seed restores the boundary state handed over by a previous chunk.
func (a *Aggregator) Seed(state BoundaryState) {
	if state.Open != nil {
		open := *state.Open
		state.Open = &open
	}
	a.state = state
}

// State returns a copy of the boundary state for the next chunk.
func (a *Aggregator) State() BoundaryState {
	state := a.state
	if state.Open != nil {
		open := *state.Open
		state.Open = &open
	}
	return state
}

// Push adds a trade and returns the bars it closed, gap fills included.
func (a *Aggregator) Push(t tradev1.Trade) []barv1.Bar {
	idx := a.interval.BucketIndex(t.Time)
	if a.state.Seeded && idx <= a.state.LastBucket {
		// Bars already handed out are never reopened.
		idx = a.state.LastBucket + 1
	}
	open := a.state.Open

	if open != nil && idx <= open.Index {
		if idx == open.Index {
			open.Close = t.Price
		}
		// A late trade only widens the range of the open bucket.
		open.add(t)
		return nil
	}

	var out []barv1.Bar
	if open != nil {
		out = append(out, a.closeOpen())
	}

	if a.state.Seeded && idx > a.state.LastBucket {
		for b := a.state.LastBucket + 1; b < idx; b++ {
			start, end := a.interval.GetBucketRange(b)
			out = append(out, barv1.GapFill(start, end, a.state.LastClose))
		}
	}

	a.state.Open = &OpenBucket{
		Index:    idx,
		Open:     t.Price,
		High:     t.Price,
		Low:      t.Price,
		Close:    t.Price,
		Volume:   decimal.Zero,
		PriceSum: decimal.Zero,
	}
	a.state.Open.add(t)

	return out
}

// Flush closes the open bucket. It fails with ErrEmptyInput only when no trade
// was ever pushed and no seed was provided.
func (a *Aggregator) Flush() ([]barv1.Bar, error) {
	if a.state.Open == nil {
		if !a.state.Seeded {
			return nil, scanv1.ErrEmptyInput
		}
		return nil, nil
	}
	return []barv1.Bar{a.closeOpen()}, nil
}

// Stream lazily aggregates trades. The open bucket is flushed when trades is
// exhausted; an empty, unseeded input yields a single ErrEmptyInput.
func (a *Aggregator) Stream(trades iter.Seq[tradev1.Trade]) iter.Seq2[barv1.Bar, error] {
	return func(yield func(barv1.Bar, error) bool) {
		for t := range trades {
			for _, b := range a.Push(t) {
				if !yield(b, nil) {
					return
				}
			}
		}

		bars, err := a.Flush()
		if err != nil {
			yield(barv1.Bar{}, err)
			return
		}
		for _, b := range bars {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Aggregate is the one-shot form of Stream.
func Aggregate(iv interval.Interval, trades []tradev1.Trade) ([]barv1.Bar, error) {
	a := NewAggregator(iv)
	out := make([]barv1.Bar, 0, len(trades))
	for _, t := range trades {
		out = append(out, a.Push(t)...)
	}

	tail, err := a.Flush()
	if err != nil {
		return nil, err
	}

	return append(out, tail...), nil
}

func (a *Aggregator) closeOpen() barv1.Bar {
	o := a.state.Open
	start, end := a.interval.GetBucketRange(o.Index)

	bar := barv1.Bar{
		TimeStart:  start,
		TimeEnd:    end,
		Open:       o.Open,
		High:       o.High,
		Low:        o.Low,
		Close:      o.Close,
		Volume:     o.Volume,
		TradeCount: o.TradeCount,
		Average:    o.PriceSum.Div(decimal.NewFromInt(o.TradeCount)),
	}

	a.state.Seeded = true
	a.state.LastClose = o.Close
	a.state.LastBucket = o.Index
	a.state.Open = nil

	return bar
}

func (o *OpenBucket) add(t tradev1.Trade) {
	if t.Price.GreaterThan(o.High) {
		o.High = t.Price
	}
	if t.Price.LessThan(o.Low) {
		o.Low = t.Price
	}
	o.Volume = o.Volume.Add(t.BaseQty)
	o.PriceSum = o.PriceSum.Add(t.Price)
	o.TradeCount++
}
