package signal

import (
	"context"
	"slices"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/muhammadchandra19/market-signal/internal/usecase/consolidation"
	"github.com/muhammadchandra19/market-signal/internal/usecase/rolling"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
)

// StdDevMode selects which side of MaxStdDev is reported.
type StdDevMode int

const (
	// StdDevBelow merges quiet buckets into zones, lowest stddev winning.
	StdDevBelow StdDevMode = iota
	// StdDevAbove reports every volatile bucket as is.
	StdDevAbove
)

// StdDevOptions configures the rolling volatility signal.
type StdDevOptions struct {
	Mode StdDevMode
	// Window is the number of preceding buckets in the rolling window.
	Window             int
	MaxStdDev          float64
	PriceDiffThreshold float64
	// SkipGapFills keeps gap-filled buckets out of the window entirely.
	SkipGapFills bool
	AllowEmpty   bool
}

// StdDevSignal computes the rolling population stddev of bucket mean prices.
// Gap-filled buckets never produce an observation.
type StdDevSignal struct {
	opts   StdDevOptions
	engine *rolling.Engine
	best   *consolidation.BestOfAccumulator
	logger logger.Interface
	peaks  []signalv1.Point
	zones  []signalv1.ConsolidationZone
}

var _ BarConsumer = (*StdDevSignal)(nil)

// NewStdDevSignal creates the signal.
func NewStdDevSignal(opts StdDevOptions, log logger.Interface) *StdDevSignal {
	return &StdDevSignal{
		opts:   opts,
		engine: rolling.NewEngine(rolling.Options{Window: opts.Window}),
		best:   consolidation.NewBestOfAccumulator(signalv1.Lower),
		logger: log,
	}
}

// ConsumeBars feeds bars in time order.
func (s *StdDevSignal) ConsumeBars(ctx context.Context, bars []barv1.Bar) error {
	for _, b := range bars {
		if b.Filled && s.opts.SkipGapFills {
			continue
		}

		m := s.engine.Push(rolling.NewSample(b.TimeStart, b.Average.InexactFloat64(), b.TradeCount))
		if b.Filled {
			continue
		}

		switch s.opts.Mode {
		case StdDevAbove:
			if m.RollingStdDev > s.opts.MaxStdDev {
				s.peaks = append(s.peaks, signalv1.Point{Time: b.TimeStart, Price: b.Average, Metric: m.RollingStdDev})
			}
		default:
			if m.RollingStdDev < s.opts.MaxStdDev {
				s.best.Add(signalv1.Observation{Time: b.TimeStart, Price: b.Average, Metric: m.RollingStdDev})
			}
		}
	}
	return nil
}

// Finalize merges quiet buckets. Peak mode has nothing to merge.
func (s *StdDevSignal) Finalize(ctx context.Context) error {
	if s.opts.Mode == StdDevAbove {
		s.logger.InfoContext(ctx, "volatility peaks collected", logger.NewField("points", len(s.peaks)))
		return nil
	}

	s.logger.InfoContext(ctx, "merging quiet buckets", logger.NewField("prices", s.best.Len()))

	zones, err := s.best.Zones(consolidation.Options{
		Threshold:  s.opts.PriceDiffThreshold,
		AllowEmpty: s.opts.AllowEmpty,
	})
	if err != nil {
		return errors.TracerFromError(err)
	}

	s.zones = zones
	return nil
}

// Points returns merged zones ordered by price, or raw peaks ordered by time.
func (s *StdDevSignal) Points() []signalv1.Point {
	if s.opts.Mode == StdDevAbove {
		return slices.Clone(s.peaks)
	}
	return zonePoints(s.zones)
}
