package state

// RuleID names a puzzle interaction the player can trigger on a room object.
type RuleID string

const (
	RuleSearchSink     RuleID = "searchSink"
	RuleCutCushion     RuleID = "cutCushion"
	RuleUnlockBasement RuleID = "unlockBasement"
	RulePickUpKnife    RuleID = "pickUpKnife"
	RuleOpenSafe       RuleID = "openSafe"
	RuleBreakBoards    RuleID = "breakBoards"
)

// Rule is a guarded one-shot transition. Once Done is recorded the rule can
// never fire again, which makes every rule idempotent.
type Rule struct {
	ID     RuleID `json:"id"`
	Object string `json:"object"`
	// Scene is the required scene; empty means anywhere.
	Scene Scene `json:"scene,omitempty"`
	// Tool is the item that must be equipped.
	Tool Item `json:"tool,omitempty"`
	// Done is the one-shot guard.
	Done  Flag `json:"done"`
	Grant Item `json:"grant,omitempty"`
	// Once guards Grant. When empty the item is granted only if not held.
	Once   Flag `json:"once,omitempty"`
	Escape bool `json:"escape,omitempty"`
}

// Rules is the puzzle chain in critical-path order.
var Rules = []Rule{
	{ID: RuleSearchSink, Object: "sink", Scene: SceneBathroom, Done: FlagSinkSearched, Grant: ItemKey},
	{ID: RuleUnlockBasement, Object: "basement door", Tool: ItemKey, Done: FlagBasementUnlocked},
	{ID: RulePickUpKnife, Object: "knife", Scene: SceneWashing, Done: FlagGotKnife, Grant: ItemKnife, Once: FlagGotKnife},
	{ID: RuleCutCushion, Object: "red cushion", Scene: SceneDining, Tool: ItemKnife, Done: FlagCushionCut, Grant: ItemCoin, Once: FlagGotCoin},
	{ID: RuleOpenSafe, Object: "safe", Scene: SceneBedroom, Tool: ItemCoin, Done: FlagSafeOpened, Grant: ItemAxe, Once: FlagGotAxe},
	{ID: RuleBreakBoards, Object: "boards", Scene: SceneExit, Tool: ItemAxe, Done: FlagBoardsCleared, Escape: true},
}

// LookupRule finds a rule by id.
func LookupRule(id RuleID) (Rule, bool) {
	for _, r := range Rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// RuleAt returns the interactive object placed in scene, if any.
func RuleAt(scene Scene) (Rule, bool) {
	if scene == SceneBasementDoor {
		return LookupRule(RuleUnlockBasement)
	}
	for _, r := range Rules {
		if r.Scene != "" && r.Scene == scene {
			return r, true
		}
	}
	return Rule{}, false
}

// Ready reports whether the rule's precondition holds in gs.
func (r Rule) Ready(gs GameState) bool {
	if gs.Flags.Has(r.Done) {
		return false
	}
	if r.Scene != "" && gs.Scene != r.Scene {
		return false
	}
	if r.Tool != ItemNone && gs.Equipped != r.Tool {
		return false
	}
	return true
}

// Outcome describes what a rule application changed.
type Outcome struct {
	Rule    RuleID `json:"rule"`
	Applied bool   `json:"applied"`
	Granted Item   `json:"granted,omitempty"`
	Escape  bool   `json:"escape,omitempty"`
}

// Apply fires rule id against gs. Unknown rules and unmet preconditions
// return gs unchanged with Applied false.
func Apply(gs GameState, id RuleID) (GameState, Outcome) {
	out := Outcome{Rule: id}
	r, ok := LookupRule(id)
	if !ok || !r.Ready(gs) {
		return gs, out
	}

	grant := r.Grant != ItemNone && (r.Once == "" || !gs.Flags.Has(r.Once))

	next := gs.Clone()
	next.Flags = next.Flags.With(r.Done)
	if grant {
		if !next.Has(r.Grant) {
			next = next.AddItem(r.Grant)
			out.Granted = r.Grant
		}
		if r.Once != "" {
			next.Flags = next.Flags.With(r.Once)
		}
	}

	out.Applied = true
	out.Escape = r.Escape
	return next, out
}
