package state

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Scene identifies a navigable room or one of the two meta screens (home, escaped).
type Scene string

const (
	SceneHome         Scene = "home"
	SceneDining       Scene = "dining"
	SceneBedroom      Scene = "bedroom"
	SceneBathroom     Scene = "bathroom"
	SceneBasementDoor Scene = "basementDoor"
	SceneWashing      Scene = "washing"
	SceneExit         Scene = "exit"
	SceneEscaped      Scene = "escaped"
)

// Scenes lists every scene in display order.
var Scenes = []Scene{
	SceneHome,
	SceneDining,
	SceneBedroom,
	SceneBathroom,
	SceneBasementDoor,
	SceneWashing,
	SceneExit,
	SceneEscaped,
}

var sceneTitles = map[Scene]string{
	SceneHome:         "cabin escape",
	SceneDining:       "dining room",
	SceneBedroom:      "bedroom",
	SceneBathroom:     "bathroom",
	SceneBasementDoor: "basement door",
	SceneWashing:      "washing room",
	SceneExit:         "exit",
	SceneEscaped:      "escaped",
}

var sceneDescriptions = map[Scene]string{
	SceneHome:         "A small cabin in the woods. Tap items to pick them up, equip one from your inventory, then tap objects in rooms to use it.",
	SceneDining:       "A long table with two chairs. The chair on the right has a plump red cushion.",
	SceneBedroom:      "A three-level shelf stands against the wall. On the top level sits a safe with a coin-shaped lock.",
	SceneBathroom:     "A sink, a toilet and a shower. The sink looks like it might hide something.",
	SceneBasementDoor: "A heavy wooden door leads down to the basement.",
	SceneWashing:      "A washer and dryer hum in the corner. There is a small table by the wall.",
	SceneExit:         "The way out is nailed shut with thick boards.",
	SceneEscaped:      "You broke through the boards and stepped out into the fresh air. You escaped!",
}

// Valid reports whether s is a known scene.
func (s Scene) Valid() bool {
	_, ok := sceneTitles[s]
	return ok
}

// Playable reports whether s is one of the six rooms the player can walk between.
func (s Scene) Playable() bool {
	switch s {
	case SceneDining, SceneBedroom, SceneBathroom, SceneBasementDoor, SceneWashing, SceneExit:
		return true
	}
	return false
}

// Title is the display name of the scene.
func (s Scene) Title() string {
	t, ok := sceneTitles[s]
	if !ok {
		t = string(s)
	}
	// Casers carry state and cannot be shared between goroutines.
	return cases.Title(language.English).String(t)
}

// Description is the flavor text shown when the player is in the scene.
func (s Scene) Description() string {
	return sceneDescriptions[s]
}

// Direction is a navigation arrow.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// Valid reports whether d is left or right.
func (d Direction) Valid() bool {
	return d == Left || d == Right
}

// Exits holds the resolved neighbors of a scene. An empty Scene means no exit.
type Exits struct {
	Left  Scene `json:"left,omitempty"`
	Right Scene `json:"right,omitempty"`
}

// Target returns the neighbor in direction d, if any.
func (e Exits) Target(d Direction) (Scene, bool) {
	var s Scene
	switch d {
	case Left:
		s = e.Left
	case Right:
		s = e.Right
	}
	return s, s != ""
}

// ExitsFor resolves the adjacency of scene for the given progress flags.
// The basement door only opens to the right once the basement is unlocked.
func ExitsFor(scene Scene, flags FlagSet) Exits {
	switch scene {
	case SceneDining:
		return Exits{Left: SceneBedroom, Right: SceneBasementDoor}
	case SceneBedroom:
		return Exits{Left: SceneBathroom, Right: SceneDining}
	case SceneBathroom:
		return Exits{Right: SceneBedroom}
	case SceneBasementDoor:
		e := Exits{Left: SceneDining}
		if flags.Has(FlagBasementUnlocked) {
			e.Right = SceneWashing
		}
		return e
	case SceneWashing:
		return Exits{Left: SceneBasementDoor, Right: SceneExit}
	case SceneExit:
		return Exits{Left: SceneWashing}
	}
	return Exits{}
}
