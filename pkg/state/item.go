package state

// Item identifies something the player can carry.
type Item string

const (
	ItemNone  Item = ""
	ItemCoin  Item = "coin"
	ItemKey   Item = "key"
	ItemKnife Item = "knife"
	ItemAxe   Item = "axe"
)

// ItemInfo is the static display data for an item.
type ItemInfo struct {
	ID    Item   `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var catalog = []ItemInfo{
	{ID: ItemCoin, Label: "Coin", Icon: "🪙"},
	{ID: ItemKey, Label: "Basement Key", Icon: "🗝️"},
	{ID: ItemKnife, Label: "Knife", Icon: "🔪"},
	{ID: ItemAxe, Label: "Axe", Icon: "🪓"},
}

// Catalog returns a copy of the item catalog.
func Catalog() []ItemInfo {
	out := make([]ItemInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Valid reports whether i is a catalog item.
func (i Item) Valid() bool {
	_, ok := i.Info()
	return ok
}

// Info looks up the display data for i.
func (i Item) Info() (ItemInfo, bool) {
	for _, info := range catalog {
		if info.ID == i {
			return info, true
		}
	}
	return ItemInfo{}, false
}

// Label returns the display label, or the raw id for unknown items.
func (i Item) Label() string {
	if info, ok := i.Info(); ok {
		return info.Label
	}
	return string(i)
}
