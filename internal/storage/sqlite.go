package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
	_ "modernc.org/sqlite"
)

const createSaveSlots = `
CREATE TABLE IF NOT EXISTS save_slots (
	slot       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStorage keeps the save slot as a row in a local SQLite database.
type SQLiteStorage struct {
	sqlDB  *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStorage implements Storage interface
var _ storage.Storage = (*SQLiteStorage)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// NewSQLiteStorage opens (creating if needed) the database at path.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(createSaveSlots); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create save_slots: %w", err)
	}

	logger.Info("SQLite storage ready", "path", cleanPath)
	return &SQLiteStorage{sqlDB: sqlDB, logger: logger}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteStorage) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStorage) SaveGameState(ctx context.Context, gs *state.GameState) error {
	data, err := encodeSave(gs)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO save_slots (slot, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		storage.SaveSlotKey, string(data), toMillis(time.Now()))
	if err != nil {
		s.logger.Error("Failed to save gamestate", "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadGameState(ctx context.Context) (*state.GameState, error) {
	var data string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT data FROM save_slots WHERE slot = ?`, storage.SaveSlotKey).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}
	return decodeSave([]byte(data))
}

func (s *SQLiteStorage) DeleteGameState(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM save_slots WHERE slot = ?`, storage.SaveSlotKey); err != nil {
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}
