package signal

import (
	"context"
	"time"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/muhammadchandra19/market-signal/pkg/config"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/muhammadchandra19/market-signal/pkg/redis"
	"github.com/muhammadchandra19/market-signal/pkg/util"
	v9 "github.com/redis/go-redis/v9"
)

// Sink appends one stream entry per point.
type Sink struct {
	client redis.Client
	cfg    config.RedisStreamConfig
	logger logger.Interface
}

var _ signalv1.Sink = (*Sink)(nil)

// NewSink creates a sink over a connected client.
func NewSink(client redis.Client, cfg config.RedisStreamConfig, log logger.Interface) *Sink {
	return &Sink{client: client, cfg: cfg, logger: log}
}

// Publish appends the points in order. It stops at the first failed entry.
func (s *Sink) Publish(ctx context.Context, signal string, points []signalv1.Point, now time.Time) error {
	for i, p := range points {
		args := &v9.XAddArgs{
			Stream: s.cfg.Name,
			MaxLen: s.cfg.MaxLen,
			Approx: s.cfg.MaxLen > 0,
			Values: map[string]any{
				"signal":  signal,
				"scan_id": util.GetRequestID(ctx),
				"time":    util.ISOTime(p.Time),
				"price":   p.Price.String(),
				"metric":  p.Metric,
				"line":    p.Line(now),
			},
		}

		if _, err := s.client.XAdd(ctx, args); err != nil {
			s.logger.ErrorContext(ctx, errors.TracerFromError(err),
				logger.NewField("signal", signal),
				logger.NewField("published", i),
			)
			return errors.NewErrorDetails("failed to publish signal points", string(errors.SinkPublishError), "redis")
		}
	}

	s.logger.DebugContext(ctx, "signal points appended",
		logger.NewField("stream", s.cfg.Name),
		logger.NewField("points", len(points)),
	)
	return nil
}

// Close disconnects the client.
func (s *Sink) Close() error {
	return s.client.Disconnect(context.Background())
}
