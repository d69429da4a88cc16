package state

import "strings"

// Hint returns the context tip for the currently equipped item.
func (gs GameState) Hint() string {
	switch gs.Equipped {
	case ItemKey:
		return "Try the key on the basement door."
	case ItemKnife:
		return "Cut the red cushion in the Dining Room."
	case ItemCoin:
		return "Use the coin on the Bedroom safe."
	case ItemAxe:
		return "Break the boards at the Exit."
	}
	return "Equip an item to use it on objects."
}

// DescribeLocation returns the room text, including the state of its object.
func (gs GameState) DescribeLocation() string {
	desc := gs.Scene.Description()
	if desc == "" {
		return "You are in an unknown location."
	}
	r, ok := RuleAt(gs.Scene)
	if !ok {
		return desc
	}
	if gs.Flags.Has(r.Done) {
		return desc + " " + solvedText[r.ID]
	}
	return desc
}

var solvedText = map[RuleID]string{
	RuleSearchSink:     "You already found the key in the sink.",
	RuleUnlockBasement: "The door is unlocked.",
	RulePickUpKnife:    "The table is empty now.",
	RuleCutCushion:     "The cushion has been cut open.",
	RuleOpenSafe:       "The safe stands open.",
	RuleBreakBoards:    "The boards are broken. The exit is open!",
}

// DescribeInventory lists the carried items, marking the equipped one.
func (gs GameState) DescribeInventory() string {
	if len(gs.Inventory) == 0 {
		return "Your inventory is empty."
	}
	lines := make([]string, 0, len(gs.Inventory))
	for _, item := range gs.Inventory {
		line := item.Label()
		if info, ok := item.Info(); ok {
			line = info.Icon + " " + info.Label
		}
		if item == gs.Equipped {
			line += " (equipped)"
		}
		lines = append(lines, line)
	}
	return "You have:\n- " + strings.Join(lines, "\n- ")
}
