package engine

import (
	"testing"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		input    string
		expected Intent
		wantErr  bool
	}{
		{input: "left", expected: Intent{Type: IntentNavigate, Direction: state.Left}},
		{input: " R ", expected: Intent{Type: IntentNavigate, Direction: state.Right}},
		{input: "<", expected: Intent{Type: IntentNavigate, Direction: state.Left}},
		{input: "home", expected: Intent{Type: IntentHome}},
		{input: "n", expected: Intent{Type: IntentNew}},
		{input: "continue", expected: Intent{Type: IntentContinue}},
		{input: "reset", expected: Intent{Type: IntentReset}},
		{input: "equip:Knife", expected: Intent{Type: IntentEquip, Item: state.ItemKnife}},
		{input: "e:axe", expected: Intent{Type: IntentEquip, Item: state.ItemAxe}},
		{input: "unequip", expected: Intent{Type: IntentEquip}},
		{input: "use", expected: Intent{Type: IntentUse}},
		{input: "u:openSafe", expected: Intent{Type: IntentUse, Rule: state.RuleOpenSafe}},
		{input: "equip:spoon", wantErr: true},
		{input: "use:dance", wantErr: true},
		{input: "jump", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIntent(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownIntent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIntent_Validate(t *testing.T) {
	assert.NoError(t, Intent{Type: IntentEquip}.Validate())
	assert.NoError(t, Intent{Type: IntentUse, Rule: state.RuleBreakBoards}.Validate())
	assert.Error(t, Intent{Type: IntentNavigate}.Validate())
	assert.Error(t, Intent{}.Validate())
}

func TestManualScheduler(t *testing.T) {
	s := NewManualScheduler()
	var order []int

	s.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })
	s.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	stopped := s.AfterFunc(15*time.Millisecond, func() { order = append(order, 99) })

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())
	assert.Equal(t, 2, s.Pending())

	s.Advance(5 * time.Millisecond)
	assert.Empty(t, order)

	s.Advance(15 * time.Millisecond)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 0, s.Pending())
}
