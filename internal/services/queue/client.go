package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/cabin-escape/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis client for queue operations
type Client struct {
	rdb    *redis.Client
	logger *slog.Logger
	owned  bool
}

// NewClient connects to redisURL for queue operations
func NewClient(ctx context.Context, redisURL string, logger *slog.Logger) (*Client, error) {
	opts, err := storage.RedisOptions(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Test connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to Redis for queue service", "addr", opts.Addr)

	return &Client{
		rdb:    rdb,
		logger: logger,
		owned:  true,
	}, nil
}

// NewClientFromRedis shares an existing connection, e.g. the storage client.
// Close leaves a shared connection open.
func NewClientFromRedis(rdb *redis.Client, logger *slog.Logger) *Client {
	return &Client{
		rdb:    rdb,
		logger: logger,
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}
	return c.rdb.Close()
}

// GetRedisClient returns the underlying Redis client for direct operations
func (c *Client) GetRedisClient() *redis.Client {
	return c.rdb
}
