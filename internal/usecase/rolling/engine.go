package rolling

import (
	"iter"
	"math"
	"time"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
)

// Options configures the trailing window.
type Options struct {
	// Window is the number of preceding buckets, so a full window holds Window+1 samples.
	Window int
	// AbsoluteROC reports |roc| instead of the signed value.
	AbsoluteROC bool
}

// Sample is one bucket fed into the engine. Start is the value the bucket
// contributes when it is the oldest in the window; bar feeds set it to the
// open price so Window=0 yields the per-bar rate of change.
type Sample struct {
	Bucket time.Time
	Value  float64
	Start  float64
	Count  int64
}

// NewSample builds a sample whose start value equals its value.
func NewSample(bucket time.Time, value float64, count int64) Sample {
	return Sample{Bucket: bucket, Value: value, Start: value, Count: count}
}

// Entry is one buffered sample.
type Entry struct {
	Value float64
	Start float64
	Count int64
}

// State is the complete engine state, oldest entry first. Restoring it into a
// fresh engine continues the sequence bit for bit.
type State struct {
	Entries   []Entry
	Shift     float64
	Shifted   bool
	Sum       float64
	SumSq     float64
	CountSum  int64
	Evictions int
}

// Engine computes trailing population stddev and rate of change in O(1)
// amortized time per bucket. Sums are kept relative to a shift value to limit
// cancellation. Once per window turnover they are recomputed exactly and the
// shift moves to the oldest buffered value.
type Engine struct {
	opts Options
	buf  []Entry
	head int
	size int

	shift     float64
	shifted   bool
	sum       float64
	sumSq     float64
	countSum  int64
	evictions int
}

// NewEngine creates an engine. A negative window is treated as zero.
func NewEngine(opts Options) *Engine {
	if opts.Window < 0 {
		opts.Window = 0
	}
	return &Engine{
		opts: opts,
		buf:  make([]Entry, opts.Window+1),
	}
}

// Push adds the next bucket and returns its trailing metric.
func (e *Engine) Push(s Sample) signalv1.RollingMetric {
	if !e.shifted {
		e.shift = s.Value
		e.shifted = true
	}

	capacity := len(e.buf)
	if e.size == capacity {
		old := e.buf[e.head]
		d := old.Value - e.shift
		e.sum -= d
		e.sumSq -= d * d
		e.countSum -= old.Count
		e.head = (e.head + 1) % capacity
		e.size--
		e.evictions++
	}

	e.buf[(e.head+e.size)%capacity] = Entry{Value: s.Value, Start: s.Start, Count: s.Count}
	e.size++
	d := s.Value - e.shift
	e.sum += d
	e.sumSq += d * d
	e.countSum += s.Count

	if e.evictions >= capacity {
		e.resum()
	}

	n := float64(e.size)
	mean := e.sum / n
	variance := e.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	metric := signalv1.RollingMetric{
		TimeBucket:    s.Bucket,
		Value:         s.Value,
		RollingStdDev: math.Sqrt(variance),
		TradeCount:    e.countSum,
	}

	start := e.buf[e.head].Start
	if start != 0 {
		roc := (s.Value - start) / start
		if e.opts.AbsoluteROC {
			roc = math.Abs(roc)
		}
		metric.RollingROC = roc
		metric.ROCDefined = true
	}

	return metric
}

// Apply pushes every sample in order.
func (e *Engine) Apply(samples iter.Seq[Sample]) iter.Seq[signalv1.RollingMetric] {
	return func(yield func(signalv1.RollingMetric) bool) {
		for s := range samples {
			if !yield(e.Push(s)) {
				return
			}
		}
	}
}

// Len returns the number of samples currently in the window.
func (e *Engine) Len() int {
	return e.size
}

// State returns a copy of the engine state.
func (e *Engine) State() State {
	entries := make([]Entry, e.size)
	for i := range entries {
		entries[i] = e.buf[(e.head+i)%len(e.buf)]
	}
	return State{
		Entries:   entries,
		Shift:     e.shift,
		Shifted:   e.shifted,
		Sum:       e.sum,
		SumSq:     e.sumSq,
		CountSum:  e.countSum,
		Evictions: e.evictions,
	}
}

// Restore replaces the engine state. Entries beyond the window keep only the newest.
func (e *Engine) Restore(state State) {
	entries := state.Entries
	if len(entries) > len(e.buf) {
		entries = entries[len(entries)-len(e.buf):]
	}

	e.head = 0
	e.size = copy(e.buf, entries)
	e.shift = state.Shift
	e.shifted = state.Shifted
	e.sum = state.Sum
	e.sumSq = state.SumSq
	e.countSum = state.CountSum
	e.evictions = state.Evictions

	if len(entries) != len(state.Entries) {
		e.resum()
	}
}

func (e *Engine) resum() {
	if e.size > 0 {
		e.shift = e.buf[e.head].Value
	}
	e.sum, e.sumSq, e.countSum = 0, 0, 0
	for i := 0; i < e.size; i++ {
		entry := e.buf[(e.head+i)%len(e.buf)]
		d := entry.Value - e.shift
		e.sum += d
		e.sumSq += d * d
		e.countSum += entry.Count
	}
	e.evictions = 0
}
