package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/cabin-escape/pkg/state"
)

// IntentType is a player action forwarded by a presentation client.
type IntentType string

const (
	IntentNavigate IntentType = "navigate"
	IntentHome     IntentType = "home"
	IntentEquip    IntentType = "equip"
	IntentUse      IntentType = "use"
	IntentReset    IntentType = "reset"
	IntentNew      IntentType = "new"
	IntentContinue IntentType = "continue"
)

// ErrUnknownIntent is returned for intents that cannot be decoded.
var ErrUnknownIntent = errors.New("unknown intent")

// Intent is the wire form of a player action.
type Intent struct {
	Type      IntentType      `json:"type"`
	Direction state.Direction `json:"direction,omitempty"`
	Item      state.Item      `json:"item,omitempty"`
	// Rule names the object to use. Empty means the object in the current room.
	Rule state.RuleID `json:"rule,omitempty"`
}

// Validate checks the shape of the intent. It does not check whether the
// action would have any effect.
func (in Intent) Validate() error {
	switch in.Type {
	case IntentNavigate:
		if !in.Direction.Valid() {
			return fmt.Errorf("%w: navigate needs direction left or right, got %q", ErrUnknownIntent, in.Direction)
		}
	case IntentEquip:
		if in.Item != state.ItemNone && !in.Item.Valid() {
			return fmt.Errorf("%w: unknown item %q", ErrUnknownIntent, in.Item)
		}
	case IntentUse:
		if in.Rule != "" {
			if _, ok := state.LookupRule(in.Rule); !ok {
				return fmt.Errorf("%w: unknown rule %q", ErrUnknownIntent, in.Rule)
			}
		}
	case IntentHome, IntentReset, IntentNew, IntentContinue:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntent, in.Type)
	}
	return nil
}

// ParseIntent reads the short text form used by the console and the CLI:
// "left", "right", "home", "new", "continue", "reset", "equip:<item>",
// "unequip", "use" and "use:<rule>". Single-letter aliases are accepted.
func ParseIntent(input string) (Intent, error) {
	trimmed := strings.TrimSpace(input)
	verb, arg, _ := strings.Cut(trimmed, ":")
	verb = strings.ToLower(verb)

	var in Intent
	switch verb {
	case "left", "l", "<":
		in = Intent{Type: IntentNavigate, Direction: state.Left}
	case "right", "r", ">":
		in = Intent{Type: IntentNavigate, Direction: state.Right}
	case "home", "h":
		in = Intent{Type: IntentHome}
	case "new", "n":
		in = Intent{Type: IntentNew}
	case "continue", "c":
		in = Intent{Type: IntentContinue}
	case "reset":
		in = Intent{Type: IntentReset}
	case "equip", "e":
		in = Intent{Type: IntentEquip, Item: state.Item(strings.ToLower(arg))}
	case "unequip":
		in = Intent{Type: IntentEquip}
	case "use", "u":
		in = Intent{Type: IntentUse, Rule: state.RuleID(arg)}
	default:
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, trimmed)
	}
	if err := in.Validate(); err != nil {
		return Intent{}, err
	}
	return in, nil
}
