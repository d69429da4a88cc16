package engine

import (
	"context"

	"github.com/jwebster45206/cabin-escape/pkg/state"
)

// View is the read-only projection a presentation client renders.
type View struct {
	State         state.GameState `json:"state"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Exits         state.Exits     `json:"exits"`
	Object        string          `json:"object,omitempty"`
	Rule          state.RuleID    `json:"rule,omitempty"`
	Hint          string          `json:"hint"`
	EscapePending bool            `json:"escape_pending"`
	Outcome       *state.Outcome  `json:"outcome,omitempty"`
}

// NewView projects gs for display.
func NewView(gs state.GameState, escapePending bool) View {
	v := View{
		State:         gs,
		Title:         gs.Scene.Title(),
		Description:   gs.DescribeLocation(),
		Exits:         gs.Exits(),
		Hint:          gs.Hint(),
		EscapePending: escapePending,
	}
	if r, ok := state.RuleAt(gs.Scene); ok {
		v.Object = r.Object
		v.Rule = r.ID
	}
	return v
}

// View returns the current projection.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return NewView(e.gs.Clone(), e.escape != nil)
}

// Dispatch runs a decoded intent. The only errors are malformed intents;
// a valid intent that changes nothing is not an error.
func (e *Engine) Dispatch(ctx context.Context, in Intent) (View, error) {
	if err := in.Validate(); err != nil {
		return View{}, err
	}

	var outcome *state.Outcome
	switch in.Type {
	case IntentNavigate:
		e.Navigate(ctx, in.Direction)
	case IntentHome:
		e.GoHome(ctx)
	case IntentNew:
		e.StartNewGame(ctx)
	case IntentContinue:
		e.ContinueGame(ctx)
	case IntentReset:
		e.Reset(ctx)
	case IntentEquip:
		e.Equip(ctx, in.Item)
	case IntentUse:
		rule := in.Rule
		if rule == "" {
			if r, ok := state.RuleAt(e.State().Scene); ok {
				rule = r.ID
			}
		}
		_, out := e.UseOn(ctx, rule)
		outcome = &out
	}

	v := e.View()
	v.Outcome = outcome
	return v, nil
}
