package state

import (
	"encoding/json"
	"fmt"
)

// Flag names a one-shot progress event.
type Flag string

const (
	FlagSinkSearched     Flag = "sinkSearched"
	FlagCushionCut       Flag = "cushionCut"
	FlagGotCoin          Flag = "gotCoin"
	FlagSafeOpened       Flag = "safeOpened"
	FlagBasementUnlocked Flag = "basementUnlocked"
	FlagGotKnife         Flag = "gotKnife"
	FlagGotAxe           Flag = "gotAxe"
	FlagBoardsCleared    Flag = "boardsCleared"
)

// Flags lists every flag in save-file order.
var Flags = []Flag{
	FlagSinkSearched,
	FlagCushionCut,
	FlagGotCoin,
	FlagSafeOpened,
	FlagBasementUnlocked,
	FlagGotKnife,
	FlagGotAxe,
	FlagBoardsCleared,
}

func (f Flag) bit() (FlagSet, bool) {
	for i, known := range Flags {
		if known == f {
			return 1 << i, true
		}
	}
	return 0, false
}

// FlagSet is the set of completed progress events. It has no operation that
// removes a member; the only way back to the empty set is a fresh state.
type FlagSet uint16

// Has reports whether f has been recorded.
func (fs FlagSet) Has(f Flag) bool {
	b, ok := f.bit()
	return ok && fs&b != 0
}

// With returns the set with f recorded. Unknown flags are ignored.
func (fs FlagSet) With(f Flag) FlagSet {
	b, ok := f.bit()
	if !ok {
		return fs
	}
	return fs | b
}

// List returns the recorded flags in save-file order.
func (fs FlagSet) List() []Flag {
	var out []Flag
	for _, f := range Flags {
		if fs.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Len is the number of recorded flags.
func (fs FlagSet) Len() int {
	return len(fs.List())
}

// MarshalJSON writes every flag name with its boolean value.
func (fs FlagSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, len(Flags))
	for _, f := range Flags {
		m[string(f)] = fs.Has(f)
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the boolean object form. Unknown names and false values
// are ignored.
func (fs *FlagSet) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	var out FlagSet
	for name, set := range m {
		if set {
			out = out.With(Flag(name))
		}
	}
	*fs = out
	return nil
}
