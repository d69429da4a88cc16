package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps the save slot as a JSON blob in Redis.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port. A zero ttl keeps the save forever.
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opts, err := RedisOptions(redisURL)
	if err != nil {
		return nil, err
	}

	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
		ttl:    ttl,
	}, nil
}

// RedisOptions accepts either a redis:// URL or a bare host:port.
func RedisOptions(redisURL string) (*redis.Options, error) {
	if !strings.Contains(redisURL, "://") {
		return &redis.Options{Addr: redisURL}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return opts, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// GetClient returns the underlying client for pub/sub.
func (r *RedisStorage) GetClient() *redis.Client {
	return r.client
}

func (r *RedisStorage) SaveGameState(ctx context.Context, gs *state.GameState) error {
	data, err := encodeSave(gs)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, storage.SaveSlotKey, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save gamestate", "key", storage.SaveSlotKey, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context) (*state.GameState, error) {
	data, err := r.client.Get(ctx, storage.SaveSlotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load gamestate", "key", storage.SaveSlotKey, "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}
	return decodeSave(data)
}

func (r *RedisStorage) DeleteGameState(ctx context.Context) error {
	if err := r.client.Del(ctx, storage.SaveSlotKey).Err(); err != nil {
		r.logger.Error("Failed to delete gamestate", "key", storage.SaveSlotKey, "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}
