package bootstrap

import (
	"context"
	stderrors "errors"
	"time"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	scanv1 "github.com/muhammadchandra19/market-signal/internal/domain/scan/v1"
	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	parquetBar "github.com/muhammadchandra19/market-signal/internal/infrastructure/parquet/bar"
	"github.com/muhammadchandra19/market-signal/internal/usecase/scan"
	signalUc "github.com/muhammadchandra19/market-signal/internal/usecase/signal"
	"github.com/muhammadchandra19/market-signal/pkg/config"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/interval"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/muhammadchandra19/market-signal/pkg/util"
)

// Signal consumes bars and yields output points once finalized.
type Signal interface {
	signalUc.BarConsumer
	Points() []signalv1.Point
}

type runner interface {
	Run(ctx context.Context) error
	Resume(ctx context.Context) error
	Progress() scanv1.Progress
}

// RunSignal scans the configured range into sig and publishes its points. An
// empty result is logged and publishes nothing.
func (b *Bootstrap) RunSignal(ctx context.Context, name string, iv interval.Interval, sig Signal) error {
	r := b.newRunner(name, iv, sig)

	err := b.drive(ctx, r)
	if stderrors.Is(err, scanv1.ErrEmptyInput) {
		b.Logger.WarnContext(util.WithRequestID(ctx, r.Progress().ScanID), "no signal points in range",
			logger.NewField("signal", name),
		)
		return nil
	}
	if err != nil {
		return err
	}

	points := sig.Points()
	b.Logger.InfoContext(ctx, "publishing signal points",
		logger.NewField("signal", name),
		logger.NewField("points", len(points)),
	)

	ctx = util.WithRequestID(ctx, r.Progress().ScanID)
	if err := b.Sink.Publish(ctx, name, points, time.Now().UTC()); err != nil {
		return errors.TracerFromError(err)
	}
	return nil
}

// RunAggregate turns trades into bars and stores them, optionally exporting
// them to a parquet file as well.
func (b *Bootstrap) RunAggregate(ctx context.Context, iv interval.Interval, parquetPath string) error {
	if err := b.Repository.Bar.EnsureTable(ctx); err != nil {
		return errors.TracerFromError(err)
	}

	var exporter barv1.Exporter
	if parquetPath != "" {
		e, err := parquetBar.NewExporter(parquetPath)
		if err != nil {
			return errors.TracerFromError(err)
		}
		exporter = e
		// Finalize closes it after a complete scan; this covers failed ones.
		defer func() {
			if err := e.Close(); err != nil {
				b.Logger.ErrorContext(ctx, err, logger.NewField("path", parquetPath))
			}
		}()
	}

	sink := signalUc.NewBarSink(b.Repository.Bar, exporter, b.Logger)
	feed := signalUc.NewBarFeed(iv, b.Logger, sink)
	r := scan.NewOrchestrator[tradev1.Trade](b.Repository.Trade, feed, b.scanConfig("aggregate"), b.Logger, b.recorder())

	return b.drive(ctx, r)
}

func (b *Bootstrap) newRunner(name string, iv interval.Interval, sig Signal) runner {
	cfg := b.scanConfig(name)
	if b.Config.Scan.Source == config.SourceBars {
		return scan.NewOrchestrator[barv1.Bar](b.Repository.Bar, signalUc.NewBarChunks(sig), cfg, b.Logger, b.recorder())
	}
	return scan.NewOrchestrator[tradev1.Trade](b.Repository.Trade, signalUc.NewBarFeed(iv, b.Logger, sig), cfg, b.Logger, b.recorder())
}

func (b *Bootstrap) scanConfig(name string) scan.Config {
	return scan.Config{
		Signal: name,
		Filter: tradev1.RangeFilter{
			Symbol: b.Config.Scan.Symbol,
			Start:  b.Config.Scan.Start,
			End:    b.Config.Scan.End,
		},
		ChunkSize:   b.Config.Scan.ChunkSize,
		Parallelism: b.Config.Scan.Parallelism,
	}
}

// drive runs the scan and resumes it after store failures, backing off a
// little longer each time.
func (b *Bootstrap) drive(ctx context.Context, r runner) error {
	err := r.Run(ctx)

	for attempt := 1; err != nil && attempt <= b.Config.Scan.MaxResumes; attempt++ {
		if !stderrors.Is(err, scanv1.ErrStoreUnavailable) {
			return err
		}

		p := r.Progress()
		wait := b.Config.Scan.ResumeBackoff * time.Duration(attempt)
		b.Logger.WarnContext(util.WithRequestID(ctx, p.ScanID), "resuming scan",
			logger.NewField("attempt", attempt),
			logger.NewField("offset", p.Offset),
			logger.NewField("wait", wait.String()),
		)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}

		err = r.Resume(ctx)
	}

	return err
}
