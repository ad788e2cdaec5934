package signal

import (
	"context"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
)

// BarSink persists aggregated bars to the bar store and an optional exporter.
type BarSink struct {
	repo     barv1.BarRepository
	exporter barv1.Exporter
	logger   logger.Interface
	stored   int
}

var _ BarConsumer = (*BarSink)(nil)

// NewBarSink creates the sink. exporter may be nil.
func NewBarSink(repo barv1.BarRepository, exporter barv1.Exporter, log logger.Interface) *BarSink {
	return &BarSink{
		repo:     repo,
		exporter: exporter,
		logger:   log,
	}
}

// ConsumeBars stores the bars as one batch.
func (s *BarSink) ConsumeBars(ctx context.Context, bars []barv1.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	if err := s.repo.StoreBatch(ctx, bars); err != nil {
		return errors.TracerFromError(err)
	}

	if s.exporter != nil {
		if err := s.exporter.Write(bars); err != nil {
			return errors.TracerFromError(err)
		}
	}

	s.stored += len(bars)
	return nil
}

// Finalize closes the exporter.
func (s *BarSink) Finalize(ctx context.Context) error {
	s.logger.InfoContext(ctx, "bars stored", logger.NewField("bars", s.stored))

	if s.exporter == nil {
		return nil
	}
	if err := s.exporter.Close(); err != nil {
		return errors.TracerFromError(err)
	}
	return nil
}

// Stored returns the number of bars written so far.
func (s *BarSink) Stored() int {
	return s.stored
}
