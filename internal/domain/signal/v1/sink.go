package v1

import (
	"context"
	"time"
)

//go:generate mockgen -source=sink.go -destination=mock/sink_mock.go -package=mock

// Sink delivers rendered output points to a downstream consumer.
type Sink interface {
	Publish(ctx context.Context, signal string, points []Point, now time.Time) error
	Close() error
}
