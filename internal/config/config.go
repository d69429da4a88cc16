package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelString string        `env:"LOG_LEVEL" envDefault:"info"`
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"redis"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	SaveTTL        time.Duration `env:"SAVE_TTL" envDefault:"0s"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"./data/cabin-escape.db"`
	SaveFile       string        `env:"SAVE_FILE" envDefault:"./data/save.json"`
	EscapeDelay    time.Duration `env:"ESCAPE_DELAY" envDefault:"450ms"`
	// IntentQueue starts the Redis intent queue worker (redis backend only).
	IntentQueue bool   `env:"INTENT_QUEUE" envDefault:"true"`
	WorkerID    string `env:"WORKER_ID"`

	LogLevel slog.Level
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelString)
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	switch cfg.StorageBackend {
	case BackendRedis, BackendSQLite, BackendFile, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if cfg.SaveTTL < 0 {
		return nil, fmt.Errorf("SAVE_TTL must not be negative, got %s", cfg.SaveTTL)
	}
	if cfg.EscapeDelay < 0 {
		return nil, fmt.Errorf("ESCAPE_DELAY must not be negative, got %s", cfg.EscapeDelay)
	}
	return &cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
