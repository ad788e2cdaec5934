package bootstrap

import (
	"context"
	"os"

	kafkaSink "github.com/muhammadchandra19/market-signal/internal/infrastructure/kafka/signal"
	logSink "github.com/muhammadchandra19/market-signal/internal/infrastructure/log/signal"
	redisSink "github.com/muhammadchandra19/market-signal/internal/infrastructure/redis/signal"
	"github.com/muhammadchandra19/market-signal/pkg/config"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/redis"
)

// registerSink builds the configured output sink.
func (b *Bootstrap) registerSink(ctx context.Context) error {
	switch b.Config.Output.Sink {
	case config.SinkKafka:
		b.Sink = kafkaSink.NewSink(b.Config.Kafka, b.Logger)
	case config.SinkRedis:
		client := redis.NewClient(b.Logger, &b.Config.Redis)
		if err := client.Connect(ctx); err != nil {
			return errors.TracerFromError(err)
		}
		b.Sink = redisSink.NewSink(client, b.Config.RedisStream, b.Logger)
	default:
		b.Sink = logSink.NewSink(os.Stdout)
	}
	return nil
}
