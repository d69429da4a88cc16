package state

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestInitial(t *testing.T) {
	gs := Initial()
	if gs.Scene != SceneHome {
		t.Errorf("Expected scene %q, got %q", SceneHome, gs.Scene)
	}
	if len(gs.Inventory) != 0 {
		t.Errorf("Expected empty inventory, got %v", gs.Inventory)
	}
	if gs.Equipped != ItemNone {
		t.Errorf("Expected nothing equipped, got %q", gs.Equipped)
	}
	if gs.Flags.Len() != 0 {
		t.Errorf("Expected no flags, got %v", gs.Flags.List())
	}
}

func TestGameState_AddItem(t *testing.T) {
	gs := Initial().AddItem(ItemKey)
	gs = gs.AddItem(ItemKey)
	gs = gs.AddItem(ItemCoin)

	expected := []Item{ItemKey, ItemCoin}
	if !slices.Equal(gs.Inventory, expected) {
		t.Errorf("Expected inventory %v, got %v", expected, gs.Inventory)
	}

	if got := gs.AddItem(ItemNone); !slices.Equal(got.Inventory, expected) {
		t.Errorf("Adding ItemNone should be a no-op, got %v", got.Inventory)
	}
}

func TestGameState_AddItemDoesNotAlias(t *testing.T) {
	base := Initial().AddItem(ItemKey)
	a := base.AddItem(ItemCoin)
	b := base.AddItem(ItemAxe)

	if !slices.Equal(base.Inventory, []Item{ItemKey}) {
		t.Errorf("Base snapshot was modified: %v", base.Inventory)
	}
	if !slices.Equal(a.Inventory, []Item{ItemKey, ItemCoin}) {
		t.Errorf("Unexpected inventory for a: %v", a.Inventory)
	}
	if !slices.Equal(b.Inventory, []Item{ItemKey, ItemAxe}) {
		t.Errorf("Unexpected inventory for b: %v", b.Inventory)
	}
}

func TestGameState_RemoveItem(t *testing.T) {
	tests := []struct {
		name             string
		start            GameState
		remove           Item
		expectedItems    []Item
		expectedEquipped Item
	}{
		{
			name:          "remove held item",
			start:         Initial().AddItem(ItemKey).AddItem(ItemCoin),
			remove:        ItemKey,
			expectedItems: []Item{ItemCoin},
		},
		{
			name:             "remove equipped item clears equip",
			start:            Initial().AddItem(ItemKey).AddItem(ItemCoin).Equip(ItemCoin),
			remove:           ItemCoin,
			expectedItems:    []Item{ItemKey},
			expectedEquipped: ItemNone,
		},
		{
			name:             "remove other item keeps equip",
			start:            Initial().AddItem(ItemKey).AddItem(ItemCoin).Equip(ItemKey),
			remove:           ItemCoin,
			expectedItems:    []Item{ItemKey},
			expectedEquipped: ItemKey,
		},
		{
			name:          "remove missing item",
			start:         Initial().AddItem(ItemKey),
			remove:        ItemAxe,
			expectedItems: []Item{ItemKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.RemoveItem(tt.remove)
			if !slices.Equal(got.Inventory, tt.expectedItems) {
				t.Errorf("Expected inventory %v, got %v", tt.expectedItems, got.Inventory)
			}
			if got.Equipped != tt.expectedEquipped {
				t.Errorf("Expected equipped %q, got %q", tt.expectedEquipped, got.Equipped)
			}
		})
	}
}

func TestGameState_Equip(t *testing.T) {
	held := Initial().AddItem(ItemKey).AddItem(ItemKnife)

	tests := []struct {
		name     string
		start    GameState
		equip    Item
		expected Item
	}{
		{"equip held item", held, ItemKey, ItemKey},
		{"switch tool", held.Equip(ItemKey), ItemKnife, ItemKnife},
		{"toggle off", held.Equip(ItemKey), ItemKey, ItemNone},
		{"clear with none", held.Equip(ItemKnife), ItemNone, ItemNone},
		{"unheld item ignored", held, ItemAxe, ItemNone},
		{"unheld item keeps current", held.Equip(ItemKey), ItemAxe, ItemKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Equip(tt.equip)
			if got.Equipped != tt.expected {
				t.Errorf("Expected equipped %q, got %q", tt.expected, got.Equipped)
			}
			if got.Equipped != ItemNone && !got.Has(got.Equipped) {
				t.Errorf("Equipped item %q is not in inventory %v", got.Equipped, got.Inventory)
			}
		})
	}
}

func TestGameState_Navigate(t *testing.T) {
	unlocked := Initial().Flags.With(FlagBasementUnlocked)

	tests := []struct {
		name     string
		scene    Scene
		flags    FlagSet
		dir      Direction
		expected Scene
	}{
		{"dining left", SceneDining, 0, Left, SceneBedroom},
		{"dining right", SceneDining, 0, Right, SceneBasementDoor},
		{"bedroom left", SceneBedroom, 0, Left, SceneBathroom},
		{"bedroom right", SceneBedroom, 0, Right, SceneDining},
		{"bathroom left is a dead end", SceneBathroom, 0, Left, SceneBathroom},
		{"bathroom right", SceneBathroom, 0, Right, SceneBedroom},
		{"basement door left", SceneBasementDoor, 0, Left, SceneDining},
		{"basement door right locked", SceneBasementDoor, 0, Right, SceneBasementDoor},
		{"basement door right unlocked", SceneBasementDoor, unlocked, Right, SceneWashing},
		{"washing left", SceneWashing, unlocked, Left, SceneBasementDoor},
		{"washing right", SceneWashing, unlocked, Right, SceneExit},
		{"exit left", SceneExit, unlocked, Left, SceneWashing},
		{"exit right is a dead end", SceneExit, unlocked, Right, SceneExit},
		{"home has no exits", SceneHome, 0, Right, SceneHome},
		{"escaped has no exits", SceneEscaped, unlocked, Left, SceneEscaped},
		{"unknown direction", SceneDining, 0, Direction("up"), SceneDining},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := Initial()
			gs.Scene = tt.scene
			gs.Flags = tt.flags
			got := gs.Navigate(tt.dir)
			if got.Scene != tt.expected {
				t.Errorf("Expected scene %q, got %q", tt.expected, got.Scene)
			}
		})
	}
}

func TestGameState_LastRoom(t *testing.T) {
	gs := Initial().StartNewGame().Navigate(Left)
	if gs.LastRoom != SceneBedroom {
		t.Fatalf("Expected last room %q, got %q", SceneBedroom, gs.LastRoom)
	}
	gs = gs.GoHome()
	if gs.Scene != SceneHome {
		t.Errorf("Expected home, got %q", gs.Scene)
	}
	if gs.LastRoom != SceneBedroom {
		t.Errorf("Going home should keep last room, got %q", gs.LastRoom)
	}
}

func TestGameState_StartNewGameKeepsProgress(t *testing.T) {
	gs := Initial().AddItem(ItemKey).Equip(ItemKey)
	gs.Flags = gs.Flags.With(FlagSinkSearched)

	got := gs.StartNewGame()
	if got.Scene != SceneDining {
		t.Errorf("Expected dining, got %q", got.Scene)
	}
	if !got.Has(ItemKey) || got.Equipped != ItemKey || !got.Flags.Has(FlagSinkSearched) {
		t.Errorf("Progress was altered: %+v", got)
	}
}

func TestGameState_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    GameState
		ok       bool
		expected GameState
	}{
		{
			name:  "unknown scene",
			input: GameState{Scene: "attic"},
			ok:    false,
		},
		{
			name:     "duplicates and unknown items dropped",
			input:    GameState{Scene: SceneDining, Inventory: []Item{ItemKey, "spoon", ItemKey, ItemCoin}},
			ok:       true,
			expected: GameState{Scene: SceneDining, Inventory: []Item{ItemKey, ItemCoin}},
		},
		{
			name:     "equipped without possession cleared",
			input:    GameState{Scene: SceneDining, Inventory: []Item{ItemKey}, Equipped: ItemAxe},
			ok:       true,
			expected: GameState{Scene: SceneDining, Inventory: []Item{ItemKey}},
		},
		{
			name:     "escaped without boards falls back to exit",
			input:    GameState{Scene: SceneEscaped, Inventory: []Item{}},
			ok:       true,
			expected: GameState{Scene: SceneExit, Inventory: []Item{}},
		},
		{
			name:     "meta last room dropped",
			input:    GameState{Scene: SceneHome, Inventory: []Item{}, LastRoom: SceneEscaped},
			ok:       true,
			expected: GameState{Scene: SceneHome, Inventory: []Item{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.input.Normalize()
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && !got.Equal(tt.expected) {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestGameState_JSONMatchesSaveFormat(t *testing.T) {
	raw := `{
		"scene": "basementDoor",
		"inventory": ["key"],
		"equipped": "key",
		"flags": {
			"sinkSearched": true,
			"cushionCut": false,
			"gotCoin": false,
			"safeOpened": false,
			"basementUnlocked": true,
			"gotKnife": false,
			"gotAxe": false,
			"boardsCleared": false
		}
	}`

	var gs GameState
	if err := json.Unmarshal([]byte(raw), &gs); err != nil {
		t.Fatalf("Failed to unmarshal save: %v", err)
	}
	if gs.Scene != SceneBasementDoor || gs.Equipped != ItemKey {
		t.Errorf("Unexpected state: %+v", gs)
	}
	if !gs.Flags.Has(FlagSinkSearched) || !gs.Flags.Has(FlagBasementUnlocked) || gs.Flags.Len() != 2 {
		t.Errorf("Unexpected flags: %v", gs.Flags.List())
	}

	data, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("Failed to unmarshal generic: %v", err)
	}
	flags, ok := generic["flags"].(map[string]any)
	if !ok {
		t.Fatalf("Expected flags object, got %T", generic["flags"])
	}
	if len(flags) != len(Flags) {
		t.Errorf("Expected %d flag entries, got %d", len(Flags), len(flags))
	}
	if flags["gotAxe"] != false || flags["basementUnlocked"] != true {
		t.Errorf("Unexpected flag values: %v", flags)
	}
	if _, ok := generic["updated_at"]; ok {
		t.Error("Zero UpdatedAt should be omitted")
	}
}
