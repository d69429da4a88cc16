package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
)

// encodeSave stamps UpdatedAt on a copy of gs and marshals it.
func encodeSave(gs *state.GameState) ([]byte, error) {
	if gs == nil {
		return nil, errors.New("gamestate cannot be nil")
	}
	saved := gs.Clone()
	saved.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	return data, nil
}

// decodeSave unmarshals a slot payload. Anything unreadable, including a
// payload with no scene, is reported as storage.ErrCorruptSave.
func decodeSave(data []byte) (*state.GameState, error) {
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrCorruptSave, err)
	}
	if gs.Scene == "" {
		return nil, fmt.Errorf("%w: missing scene", storage.ErrCorruptSave)
	}
	if gs.Inventory == nil {
		gs.Inventory = []state.Item{}
	}
	return &gs, nil
}
