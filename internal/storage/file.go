package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
)

// FileStorage keeps the save slot in a single JSON file.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// Ensure FileStorage implements Storage interface
var _ storage.Storage = (*FileStorage)(nil)

// NewFileStorage creates the parent directory of path if needed.
func NewFileStorage(path string, logger *slog.Logger) (*FileStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("save file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStorage{path: path, logger: logger}, nil
}

// Ping checks that the save directory is still there.
func (f *FileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(filepath.Dir(f.path))
	if err != nil {
		return fmt.Errorf("save directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("save directory unavailable: %s is not a directory", filepath.Dir(f.path))
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

// SaveGameState writes to a temp file in the same directory and renames it
// over the slot so a crash never leaves a half-written save.
func (f *FileStorage) SaveGameState(ctx context.Context, gs *state.GameState) error {
	data, err := encodeSave(gs)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("failed to format gamestate: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".save-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp save: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace save: %w", err)
	}
	return nil
}

func (f *FileStorage) LoadGameState(ctx context.Context) (*state.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read save: %w", err)
	}
	return decodeSave(data)
}

func (f *FileStorage) DeleteGameState(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	return nil
}
