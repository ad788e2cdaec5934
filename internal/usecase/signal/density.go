package signal

import (
	"context"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/muhammadchandra19/market-signal/internal/usecase/consolidation"
	"github.com/muhammadchandra19/market-signal/internal/usecase/density"
	"github.com/muhammadchandra19/market-signal/internal/usecase/rolling"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
)

// DensityOptions configures the trade density signal.
type DensityOptions struct {
	Mode signalv1.Mode
	// Window is the number of preceding buckets summed into count and ROC.
	Window int
	// Threshold is the fixed density cut. Ignored when ThresholdSigma is set.
	Threshold float64
	// ThresholdSigma derives the cut from the buckets with a defined density:
	// mean + k·σ in bursty mode, mean − k·σ in quiet mode.
	ThresholdSigma float64
	// MinTrades drops buckets with fewer trades before scoring.
	MinTrades          int64
	PriceDiffThreshold float64
	AllowEmpty         bool
}

// DensitySignal scores ln(count/|roc|) per bucket and keeps the most extreme
// bucket per price neighborhood: the densest in bursty mode, the thinnest in
// quiet mode.
type DensitySignal struct {
	opts   DensityOptions
	engine *rolling.Engine
	scorer *density.Scorer
	stats  density.Stats
	best   *consolidation.BestOfAccumulator
	logger logger.Interface
	zones  []signalv1.ConsolidationZone
}

var _ BarConsumer = (*DensitySignal)(nil)

// NewDensitySignal creates the signal.
func NewDensitySignal(opts DensityOptions, log logger.Interface) *DensitySignal {
	better := signalv1.Lower
	if opts.Mode == signalv1.ModeBursty {
		better = signalv1.Higher
	}

	return &DensitySignal{
		opts:   opts,
		engine: rolling.NewEngine(rolling.Options{Window: opts.Window, AbsoluteROC: true}),
		scorer: density.NewScorer(density.Options{
			Mode:      opts.Mode,
			Threshold: opts.Threshold,
			Filter:    opts.ThresholdSigma <= 0,
		}),
		best:   consolidation.NewBestOfAccumulator(better),
		logger: log,
	}
}

// ConsumeBars feeds bars in time order.
func (s *DensitySignal) ConsumeBars(ctx context.Context, bars []barv1.Bar) error {
	for _, b := range bars {
		m := s.engine.Push(rolling.Sample{
			Bucket: b.TimeStart,
			Value:  b.Close.InexactFloat64(),
			Start:  b.Open.InexactFloat64(),
			Count:  b.TradeCount,
		})
		if b.TradeCount < s.opts.MinTrades {
			continue
		}

		point, ok := s.scorer.Score(m, b.Close)
		if !ok {
			continue
		}

		if !point.ForwardFilled {
			s.stats.Add(point.Density)
		}
		s.best.Add(signalv1.Observation{Time: point.Time, Price: point.Price, Metric: point.Density})
	}
	return nil
}

// Threshold returns the density cut in effect.
func (s *DensitySignal) Threshold() float64 {
	if s.opts.ThresholdSigma > 0 {
		return s.stats.Cut(s.opts.Mode, s.opts.ThresholdSigma)
	}
	return s.opts.Threshold
}

// Finalize applies a derived threshold if configured and merges the survivors.
// Per-price reduction keeps the most extreme density, which is the one that
// survives the threshold if any does, so filtering after reduction is exact.
func (s *DensitySignal) Finalize(ctx context.Context) error {
	threshold := s.Threshold()
	observations := s.best.Observations()

	if s.opts.ThresholdSigma > 0 {
		kept := observations[:0]
		for _, o := range observations {
			if s.keep(o.Metric, threshold) {
				kept = append(kept, o)
			}
		}
		observations = kept
	}

	s.logger.InfoContext(ctx, "merging density buckets",
		logger.NewField("scored", s.stats.Count()),
		logger.NewField("mean", s.stats.Mean()),
		logger.NewField("stddev", s.stats.StdDev()),
		logger.NewField("threshold", threshold),
		logger.NewField("prices", len(observations)),
	)

	better := signalv1.Lower
	if s.opts.Mode == signalv1.ModeBursty {
		better = signalv1.Higher
	}

	zones, err := consolidation.BestOf(observations, consolidation.Options{
		Threshold:  s.opts.PriceDiffThreshold,
		Better:     better,
		AllowEmpty: s.opts.AllowEmpty,
	})
	if err != nil {
		return errors.TracerFromError(err)
	}

	s.zones = zones
	return nil
}

// Points returns the zones ordered by price.
func (s *DensitySignal) Points() []signalv1.Point {
	return zonePoints(s.zones)
}

func (s *DensitySignal) keep(d, threshold float64) bool {
	if s.opts.Mode == signalv1.ModeBursty {
		return d >= threshold
	}
	return d <= threshold
}
