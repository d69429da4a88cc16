package state

import (
	"slices"
	"time"
)

// GameState is the complete state of an escape session. Transitions never
// modify a GameState in place; they return a new snapshot.
type GameState struct {
	Scene     Scene     `json:"scene"`
	Inventory []Item    `json:"inventory"`
	Equipped  Item      `json:"equipped,omitempty"`
	Flags     FlagSet   `json:"flags"`
	LastRoom  Scene     `json:"last_room,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Initial returns the fixed starting state.
func Initial() GameState {
	return GameState{
		Scene:     SceneHome,
		Inventory: []Item{},
	}
}

// Clone returns a deep copy of gs.
func (gs GameState) Clone() GameState {
	out := gs
	out.Inventory = make([]Item, len(gs.Inventory))
	copy(out.Inventory, gs.Inventory)
	return out
}

// Has reports whether item is in the inventory.
func (gs GameState) Has(item Item) bool {
	return slices.Contains(gs.Inventory, item)
}

// Equal compares the game-relevant fields of two states, ignoring UpdatedAt.
func (gs GameState) Equal(other GameState) bool {
	return gs.Scene == other.Scene &&
		gs.Equipped == other.Equipped &&
		gs.Flags == other.Flags &&
		gs.LastRoom == other.LastRoom &&
		slices.Equal(gs.Inventory, other.Inventory)
}

// AddItem grants item. Holding it already is a no-op.
func (gs GameState) AddItem(item Item) GameState {
	if item == ItemNone || gs.Has(item) {
		return gs
	}
	out := gs.Clone()
	out.Inventory = append(out.Inventory, item)
	return out
}

// RemoveItem drops item and unequips it if it was the active tool.
func (gs GameState) RemoveItem(item Item) GameState {
	if !gs.Has(item) {
		return gs
	}
	out := gs.Clone()
	out.Inventory = slices.DeleteFunc(out.Inventory, func(i Item) bool { return i == item })
	if out.Equipped == item {
		out.Equipped = ItemNone
	}
	return out
}

// Equip selects item as the active tool. Selecting the equipped item again,
// or ItemNone, clears the slot. Items not in the inventory are ignored.
func (gs GameState) Equip(item Item) GameState {
	if item == ItemNone || item == gs.Equipped {
		if gs.Equipped == ItemNone {
			return gs
		}
		out := gs.Clone()
		out.Equipped = ItemNone
		return out
	}
	if !gs.Has(item) {
		return gs
	}
	out := gs.Clone()
	out.Equipped = item
	return out
}

// Exits resolves the neighbors of the current scene.
func (gs GameState) Exits() Exits {
	return ExitsFor(gs.Scene, gs.Flags)
}

// Navigate moves one room in direction d. A missing exit is a no-op.
func (gs GameState) Navigate(d Direction) GameState {
	target, ok := gs.Exits().Target(d)
	if !ok {
		return gs
	}
	return gs.WithScene(target)
}

// GoHome returns to the home screen from anywhere.
func (gs GameState) GoHome() GameState {
	return gs.WithScene(SceneHome)
}

// StartNewGame enters the dining room without touching progress.
func (gs GameState) StartNewGame() GameState {
	return gs.WithScene(SceneDining)
}

// WithScene sets the scene and remembers it as the last room when playable.
func (gs GameState) WithScene(s Scene) GameState {
	if gs.Scene == s {
		return gs
	}
	out := gs.Clone()
	out.Scene = s
	if s.Playable() {
		out.LastRoom = s
	}
	return out
}

// Normalize repairs a state read from storage so the invariants hold again.
// It reports false when the scene is unknown and the state cannot be used.
func (gs GameState) Normalize() (GameState, bool) {
	if !gs.Scene.Valid() {
		return GameState{}, false
	}
	out := gs.Clone()
	out.Inventory = out.Inventory[:0]
	for _, item := range gs.Inventory {
		if item.Valid() && !slices.Contains(out.Inventory, item) {
			out.Inventory = append(out.Inventory, item)
		}
	}
	if out.Equipped != ItemNone && !slices.Contains(out.Inventory, out.Equipped) {
		out.Equipped = ItemNone
	}
	if out.LastRoom != "" && !out.LastRoom.Playable() {
		out.LastRoom = ""
	}
	// escaped is only reachable once the boards are down
	if out.Scene == SceneEscaped && !out.Flags.Has(FlagBoardsCleared) {
		out.Scene = SceneExit
	}
	return out, true
}
