package signal

import (
	"context"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/muhammadchandra19/market-signal/internal/usecase/consolidation"
	"github.com/muhammadchandra19/market-signal/internal/usecase/rolling"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
)

// ROCOptions configures the low rate-of-change signal.
type ROCOptions struct {
	// Window is the number of preceding bars the change is measured over.
	// Zero compares each bar's close with its own open.
	Window int
	// MaxROC keeps bars whose signed change is below it.
	MaxROC float64
	// PriceDiffThreshold is the relative distance between kept zones.
	PriceDiffThreshold float64
	AllowEmpty         bool
}

// ROCSignal finds price levels where bars barely moved for the longest time.
// Calm bars are binned by open price and their dwell time summed, then the
// longest dwell per neighborhood is kept.
type ROCSignal struct {
	opts      ROCOptions
	engine    *rolling.Engine
	durations *consolidation.DurationAccumulator
	logger    logger.Interface
	zones     []signalv1.ConsolidationZone
	calm      int
}

var _ BarConsumer = (*ROCSignal)(nil)

// NewROCSignal creates the signal.
func NewROCSignal(opts ROCOptions, log logger.Interface) *ROCSignal {
	return &ROCSignal{
		opts:      opts,
		engine:    rolling.NewEngine(rolling.Options{Window: opts.Window}),
		durations: consolidation.NewDurationAccumulator(opts.PriceDiffThreshold),
		logger:    log,
	}
}

// ConsumeBars feeds bars in time order.
func (s *ROCSignal) ConsumeBars(ctx context.Context, bars []barv1.Bar) error {
	for _, b := range bars {
		m := s.engine.Push(rolling.Sample{
			Bucket: b.TimeStart,
			Value:  b.Close.InexactFloat64(),
			Start:  b.Open.InexactFloat64(),
			Count:  b.TradeCount,
		})
		if !m.ROCDefined || m.RollingROC >= s.opts.MaxROC {
			continue
		}

		s.calm++
		s.durations.Add(signalv1.Observation{Time: b.TimeStart, Price: b.Open})
	}
	return nil
}

// Finalize merges the accumulated dwell times. With no calm bar it fails with
// ErrEmptyInput unless empty results are allowed.
func (s *ROCSignal) Finalize(ctx context.Context) error {
	s.logger.InfoContext(ctx, "merging consolidations",
		logger.NewField("calm_bars", s.calm),
		logger.NewField("bins", s.durations.Len()),
	)

	zones, err := consolidation.BestOf(s.durations.Observations(), consolidation.Options{
		Threshold:  s.opts.PriceDiffThreshold,
		Better:     signalv1.Higher,
		AllowEmpty: s.opts.AllowEmpty,
	})
	if err != nil {
		return errors.TracerFromError(err)
	}

	s.zones = zones
	return nil
}

// Points returns the zones ordered by price.
func (s *ROCSignal) Points() []signalv1.Point {
	return zonePoints(s.zones)
}

func zonePoints(zones []signalv1.ConsolidationZone) []signalv1.Point {
	points := make([]signalv1.Point, len(zones))
	for i, z := range zones {
		points[i] = z.Point()
	}
	return points
}
