package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCheck(t *testing.T) {
	state := &Snapshot{CurrentBet: 50}

	t.Run("matched bet allows check", func(t *testing.T) {
		p := &Player{ID: "p1", Status: StatusActive, CurrentBet: 50, Chips: 100}
		assert.NoError(t, Validate(p, ActionCheck, 0, state))
	})

	t.Run("outstanding bet forbids check", func(t *testing.T) {
		p := &Player{ID: "p1", Status: StatusActive, CurrentBet: 20, Chips: 100}
		assert.ErrorIs(t, Validate(p, ActionCheck, 0, state), ErrCheckNotAllowed)
	})
}

func TestValidateCall(t *testing.T) {
	t.Run("outstanding bet allows call", func(t *testing.T) {
		state := &Snapshot{CurrentBet: 50}
		p := &Player{ID: "p1", Status: StatusActive, CurrentBet: 20, Chips: 100}
		assert.NoError(t, Validate(p, ActionCall, 0, state))
	})

	t.Run("nothing to call", func(t *testing.T) {
		state := &Snapshot{CurrentBet: 20}
		p := &Player{ID: "p1", Status: StatusActive, CurrentBet: 20, Chips: 100}
		assert.ErrorIs(t, Validate(p, ActionCall, 0, state), ErrNothingToCall)
	})
}

func TestValidateRaise(t *testing.T) {
	state := &Snapshot{CurrentBet: 50}
	p := &Player{ID: "p1", Status: StatusActive, CurrentBet: 0, Chips: 100}

	tests := []struct {
		name   string
		amount float64
		want   error
	}{
		{"zero amount", 0, ErrInvalidRaiseAmount},
		{"negative amount", -10, ErrInvalidRaiseAmount},
		{"more than stack", 150, ErrInsufficientChips},
		{"exactly stack", 100, nil},
		{"within stack", 60, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(p, ActionRaise, tt.amount, state)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestValidatePlayerCannotAct(t *testing.T) {
	state := &Snapshot{}

	assert.ErrorIs(t, Validate(nil, ActionCheck, 0, state), ErrPlayerCannotAct)

	folded := &Player{ID: "p1", Status: StatusFolded, Chips: 100}
	// The player-status rule wins over any action-specific rule.
	assert.ErrorIs(t, Validate(folded, ActionFold, 0, state), ErrPlayerCannotAct)
}

func TestValidateFoldAndAllIn(t *testing.T) {
	state := &Snapshot{CurrentBet: 500}
	p := &Player{ID: "p1", Status: StatusActive, Chips: 10}

	// No local side conditions; the server is authoritative on timing.
	assert.NoError(t, Validate(p, ActionFold, 0, state))
	assert.NoError(t, Validate(p, ActionAllIn, 0, state))
}

func TestActionStrings(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionCheck, "check"},
		{ActionCall, "call"},
		{ActionRaise, "raise"},
		{ActionFold, "fold"},
		{ActionAllIn, "all_in"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.action.String())

		parsed, ok := ActionFromString(tt.want)
		assert.True(t, ok)
		assert.Equal(t, tt.action, parsed)
	}

	_, ok := ActionFromString("limp")
	assert.False(t, ok)
}
