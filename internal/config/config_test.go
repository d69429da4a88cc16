package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "STORAGE_BACKEND", "REDIS_URL", "SAVE_TTL", "SQLITE_PATH", "SAVE_FILE", "ESCAPE_DELAY", "INTENT_QUEUE", "WORKER_ID"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, time.Duration(0), cfg.SaveTTL)
	assert.Equal(t, 450*time.Millisecond, cfg.EscapeDelay)
	assert.True(t, cfg.IntentQueue)
	assert.Empty(t, cfg.WorkerID)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORAGE_BACKEND", " SQLite ")
	t.Setenv("SAVE_TTL", "24h")
	t.Setenv("ESCAPE_DELAY", "0s")
	t.Setenv("INTENT_QUEUE", "false")
	t.Setenv("WORKER_ID", "kiosk-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, 24*time.Hour, cfg.SaveTTL)
	assert.Equal(t, time.Duration(0), cfg.EscapeDelay)
	assert.False(t, cfg.IntentQueue)
	assert.Equal(t, "kiosk-1", cfg.WorkerID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown backend", key: "STORAGE_BACKEND", value: "postgres"},
		{name: "bad duration", key: "ESCAPE_DELAY", value: "soon"},
		{name: "negative ttl", key: "SAVE_TTL", value: "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"loud":    slog.LevelInfo,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, parseLogLevel(input), input)
	}
}
