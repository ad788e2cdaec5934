package redis

import (
	"context"
	"fmt"

	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type client struct {
	logger logger.Interface
	config *Config
	rdb    redis.UniversalClient
}

// NewClient creates a new Redis client with the provided logger and configuration.
func NewClient(logger logger.Interface, config *Config) Client {
	return &client{
		logger: logger,
		config: config,
	}
}

func validate(c *Config) error {
	if c == nil {
		return errors.NewErrorDetails("Redis config is nil", string(errors.RedisConfigError), "connect")
	}
	if len(c.Addrs) == 0 {
		return errors.NewErrorDetails("Redis addresses are empty", string(errors.RedisConfigError), "addrs")
	}
	if c.Mode != Standalone && c.Mode != Cluster {
		return errors.NewErrorDetails("Invalid Redis mode", string(errors.RedisConfigError), "mode")
	}
	if c.ConnectTimeout <= 0 {
		return errors.NewErrorDetails("Invalid Redis connect timeout", string(errors.RedisConfigError), "connect_timeout")
	}
	if c.PoolSize <= 0 {
		return errors.NewErrorDetails("Invalid Redis pool size", string(errors.RedisConfigError), "pool_size")
	}
	if c.PoolTimeout <= 0 {
		return errors.NewErrorDetails("Invalid Redis pool timeout", string(errors.RedisConfigError), "pool_timeout")
	}
	if c.MaxRetries < 0 {
		return errors.NewErrorDetails("Invalid Redis max retries", string(errors.RedisConfigError), "max_retries")
	}
	if c.MinRetryBackoff < 0 || c.MaxRetryBackoff < 0 {
		return errors.NewErrorDetails("Invalid Redis retry backoff", string(errors.RedisConfigError), "retry_backoff")
	}
	return nil
}

func (c *client) Connect(ctx context.Context) error {
	if err := validate(c.config); err != nil {
		return err
	}

	opts := &redis.UniversalOptions{
		Addrs:           c.config.Addrs,
		Username:        c.config.Username,
		Password:        c.config.Password,
		MaxRetries:      c.config.MaxRetries,
		MinRetryBackoff: c.config.MinRetryBackoff,
		MaxRetryBackoff: c.config.MaxRetryBackoff,
		DialTimeout:     c.config.ConnectTimeout,
		ReadTimeout:     c.config.ConnectTimeout,
		WriteTimeout:    c.config.ConnectTimeout,
		PoolSize:        c.config.PoolSize,
		PoolTimeout:     c.config.PoolTimeout,
	}

	switch c.config.Mode {
	case Standalone:
		opts.Addrs = c.config.Addrs[:1]
		opts.DB = c.config.DB
		c.rdb = redis.NewClient(opts.Simple())
	case Cluster:
		c.rdb = redis.NewClusterClient(opts.Cluster())
	}

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.NewErrorDetails(fmt.Sprintf("Failed to connect to Redis: %s", err), string(errors.RedisConnectionError), "connect")
	}

	c.logger.InfoContext(ctx, "connected to redis",
		logger.NewField("mode", c.config.Mode),
		logger.NewField("addrs", c.config.Addrs),
	)
	return nil
}

func (c *client) Disconnect(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		return errors.NewErrorDetails("Failed to disconnect from Redis", string(errors.RedisDisconnectionError), "disconnect")
	}
	return nil
}

func (c *client) Ping(ctx context.Context) error {
	if c.rdb == nil || c.rdb.Ping(ctx).Err() != nil {
		return errors.NewErrorDetails("Failed to ping Redis", string(errors.RedisPingError), "ping")
	}
	return nil
}

func (c *client) XAdd(ctx context.Context, args *redis.XAddArgs) (string, error) {
	if c.rdb == nil {
		return "", errors.NewErrorDetails("Redis is not connected", string(errors.RedisXAddError), "xadd")
	}

	stream := *args
	stream.Stream = c.config.PrefixKey + args.Stream

	id, err := c.rdb.XAdd(ctx, &stream).Result()
	if err != nil || id == "" {
		return "", errors.NewErrorDetails("Failed to add entry to stream", string(errors.RedisXAddError), "xadd")
	}
	return id, nil
}

func (c *client) XLen(ctx context.Context, stream string) (int64, error) {
	if c.rdb == nil {
		return 0, errors.NewErrorDetails("Redis is not connected", string(errors.RedisXLenError), "xlen")
	}

	length, err := c.rdb.XLen(ctx, c.config.PrefixKey+stream).Result()
	if err != nil {
		return 0, errors.NewErrorDetails("Failed to get stream length", string(errors.RedisXLenError), "xlen")
	}
	return length, nil
}
