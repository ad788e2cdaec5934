package signal

import (
	"context"
	"time"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/muhammadchandra19/market-signal/pkg/config"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/muhammadchandra19/market-signal/pkg/util"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink publishes one message per point, keyed by signal name.
type Sink struct {
	writer messageWriter
	logger logger.Interface
}

var _ signalv1.Sink = (*Sink)(nil)

// NewSink creates a sink writing to the configured topic.
func NewSink(cfg config.KafkaConfig, log logger.Interface) *Sink {
	return newSink(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
	}, log)
}

func newSink(w messageWriter, log logger.Interface) *Sink {
	return &Sink{writer: w, logger: log}
}

// Publish writes the points as a single batch.
func (s *Sink) Publish(ctx context.Context, signal string, points []signalv1.Point, now time.Time) error {
	if len(points) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(points))
	for i, p := range points {
		msgs[i] = kafka.Message{
			Key:   []byte(signal),
			Value: []byte(p.Line(now)),
			Headers: []kafka.Header{
				{Key: "signal", Value: []byte(signal)},
				{Key: "scan_id", Value: []byte(util.GetRequestID(ctx))},
			},
		}
	}

	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		s.logger.ErrorContext(ctx, errors.TracerFromError(err),
			logger.NewField("signal", signal),
			logger.NewField("points", len(points)),
		)
		return errors.NewErrorDetails("failed to publish signal points", string(errors.SinkPublishError), "kafka")
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}
