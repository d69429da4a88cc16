package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/cabin-escape/internal/config"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
)

// Open builds the backend named by cfg.StorageBackend. The redis backend
// waits for the server to come up before returning.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		r, err := NewRedisStorage(cfg.RedisURL, cfg.SaveTTL, logger)
		if err != nil {
			return nil, err
		}
		if err := r.WaitForConnection(ctx, 30, 2*time.Second); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	case config.BackendSQLite:
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	case config.BackendFile:
		return NewFileStorage(cfg.SaveFile, logger)
	case config.BackendMemory:
		return storage.NewMockStorage(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
