package signal

import (
	"context"
	stderrors "errors"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	scanv1 "github.com/muhammadchandra19/market-signal/internal/domain/scan/v1"
	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	"github.com/muhammadchandra19/market-signal/internal/usecase/bar"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/interval"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
)

// BarConsumer receives contiguous bars in time order.
type BarConsumer interface {
	ConsumeBars(ctx context.Context, bars []barv1.Bar) error
	Finalize(ctx context.Context) error
}

// BarFeed aggregates trade chunks into bars and fans them out to consumers.
// The aggregator carries the open bucket and last close across chunks.
type BarFeed struct {
	aggregator *bar.Aggregator
	consumers  []BarConsumer
	logger     logger.Interface
	bars       int
}

var _ scanv1.ChunkProcessor[tradev1.Trade] = (*BarFeed)(nil)

// NewBarFeed creates a feed for the given interval.
func NewBarFeed(iv interval.Interval, log logger.Interface, consumers ...BarConsumer) *BarFeed {
	return &BarFeed{
		aggregator: bar.NewAggregator(iv),
		consumers:  consumers,
		logger:     log,
	}
}

// Seed continues from the boundary of an earlier scan.
func (f *BarFeed) Seed(state bar.BoundaryState) {
	f.aggregator.Seed(state)
}

// ProcessChunk pushes the chunk's trades and forwards every closed bar.
func (f *BarFeed) ProcessChunk(ctx context.Context, chunk scanv1.Chunk[tradev1.Trade]) error {
	var closed []barv1.Bar
	for _, t := range chunk.Rows {
		closed = append(closed, f.aggregator.Push(t)...)
	}
	return f.forward(ctx, closed)
}

// Finalize flushes the open bucket and finalizes every consumer. An empty
// scan is not an error; consumers decide what an empty result means.
func (f *BarFeed) Finalize(ctx context.Context) error {
	tail, err := f.aggregator.Flush()
	if err != nil && !stderrors.Is(err, scanv1.ErrEmptyInput) {
		return errors.TracerFromError(err)
	}
	if err != nil {
		f.logger.WarnContext(ctx, "no trades in range")
	}

	if err := f.forward(ctx, tail); err != nil {
		return err
	}

	f.logger.InfoContext(ctx, "bars aggregated", logger.NewField("bars", f.bars))

	for _, c := range f.consumers {
		if err := c.Finalize(ctx); err != nil {
			return errors.TracerFromError(err)
		}
	}
	return nil
}

func (f *BarFeed) forward(ctx context.Context, bars []barv1.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	f.bars += len(bars)
	for _, c := range f.consumers {
		if err := c.ConsumeBars(ctx, bars); err != nil {
			return err
		}
	}
	return nil
}

// BarChunks adapts consumers to chunks read from the bar store.
type BarChunks struct {
	consumers []BarConsumer
}

var _ scanv1.ChunkProcessor[barv1.Bar] = (*BarChunks)(nil)

// NewBarChunks creates the adapter.
func NewBarChunks(consumers ...BarConsumer) *BarChunks {
	return &BarChunks{consumers: consumers}
}

// ProcessChunk forwards the chunk's bars.
func (b *BarChunks) ProcessChunk(ctx context.Context, chunk scanv1.Chunk[barv1.Bar]) error {
	for _, c := range b.consumers {
		if err := c.ConsumeBars(ctx, chunk.Rows); err != nil {
			return err
		}
	}
	return nil
}

// Finalize finalizes every consumer.
func (b *BarChunks) Finalize(ctx context.Context) error {
	for _, c := range b.consumers {
		if err := c.Finalize(ctx); err != nil {
			return errors.TracerFromError(err)
		}
	}
	return nil
}
