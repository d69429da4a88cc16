package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for testing and for
// the memory backend.
type MockStorage struct {
	mu        sync.RWMutex
	slot      *state.GameState
	saves     int
	pingError error
	saveError error
	loadError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage with an empty slot
func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError configures the mock to fail on load with the given error
func (m *MockStorage) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// Saves returns how many successful saves the mock has seen
func (m *MockStorage) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGameState stores a copy of gs in the slot
func (m *MockStorage) SaveGameState(ctx context.Context, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	saved := gs.Clone()
	saved.UpdatedAt = time.Now()
	m.slot = &saved
	m.saves++
	return nil
}

// LoadGameState returns a copy of the slot, or nil when empty
func (m *MockStorage) LoadGameState(ctx context.Context) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	if m.slot == nil {
		return nil, nil
	}
	loaded := m.slot.Clone()
	return &loaded, nil
}

// DeleteGameState empties the slot
func (m *MockStorage) DeleteGameState(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot = nil
	return nil
}
