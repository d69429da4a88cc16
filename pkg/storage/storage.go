package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/cabin-escape/pkg/state"
)

// SaveSlotKey names the single save slot shared by every backend.
const SaveSlotKey = "cabin-escape-save-v1"

// ErrCorruptSave is returned by LoadGameState when the slot holds data that
// cannot be decoded into a usable game state.
var ErrCorruptSave = errors.New("corrupt save data")

// Storage defines the persistence collaborator of the game engine.
// There is exactly one save slot; no method takes an id.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveGameState overwrites the save slot.
	SaveGameState(ctx context.Context, gs *state.GameState) error

	// LoadGameState reads the save slot.
	// Returns nil, nil if the slot is empty.
	LoadGameState(ctx context.Context) (*state.GameState, error)

	// DeleteGameState empties the save slot.
	DeleteGameState(ctx context.Context) error
}
