// Package game holds the client-side poker data model: the snapshot of
// server game state mirrored by a session, and the pure helpers that decide
// which actions a player may attempt locally before the server confirms
// them. The server remains authoritative for every rule; nothing in this
// package decides outcomes.
package game

// Action represents the type of action a player can take
type Action int

const (
	// ActionCheck passes action with no bet to match
	ActionCheck Action = iota
	// ActionCall matches the current bet
	ActionCall
	// ActionRaise increases the current bet
	ActionRaise
	// ActionFold discards the hand and forfeits interest in the pot
	ActionFold
	// ActionAllIn bets all remaining chips
	ActionAllIn
)

// String returns the wire representation of an action
func (a Action) String() string {
	switch a {
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionRaise:
		return "raise"
	case ActionFold:
		return "fold"
	case ActionAllIn:
		return "all_in"
	default:
		return "unknown"
	}
}

// ActionFromString converts a wire string to an Action
func ActionFromString(s string) (Action, bool) {
	switch s {
	case "check":
		return ActionCheck, true
	case "call":
		return ActionCall, true
	case "raise":
		return ActionRaise, true
	case "fold":
		return ActionFold, true
	case "all_in", "all-in", "allin":
		return ActionAllIn, true
	default:
		return ActionFold, false
	}
}

// Phase represents a betting round stage
type Phase int

const (
	// PreFlop before any community cards
	PreFlop Phase = iota
	// Flop after the first 3 community cards
	Flop
	// Turn after the 4th community card
	Turn
	// River after the 5th community card
	River
	// Showdown when cards are revealed; terminal for a hand
	Showdown
)

// String returns the wire representation of a phase
func (p Phase) String() string {
	switch p {
	case PreFlop:
		return "pre-flop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// PhaseFromString converts a wire string to a Phase. Unknown strings report
// ok=false and map to Showdown, matching NextPhase's treatment of phases it
// does not recognize.
func PhaseFromString(s string) (Phase, bool) {
	switch s {
	case "pre-flop", "preflop":
		return PreFlop, true
	case "flop":
		return Flop, true
	case "turn":
		return Turn, true
	case "river":
		return River, true
	case "showdown":
		return Showdown, true
	default:
		return Showdown, false
	}
}

// PlayerStatus represents a player's standing within the current hand
type PlayerStatus int

const (
	// StatusActive player can still act
	StatusActive PlayerStatus = iota
	// StatusFolded player is out of the hand
	StatusFolded
	// StatusAllIn player has committed all chips
	StatusAllIn
)

// String returns the wire representation of a player status
func (s PlayerStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFolded:
		return "folded"
	case StatusAllIn:
		return "all_in"
	default:
		return "unknown"
	}
}

// StatusFromString converts a wire string to a PlayerStatus. Unknown strings
// default to active so a new server status never locks a player out locally.
func StatusFromString(s string) PlayerStatus {
	switch s {
	case "folded":
		return StatusFolded
	case "all_in", "all-in":
		return StatusAllIn
	default:
		return StatusActive
	}
}

// ActionRecord describes the most recent action taken in the hand
type ActionRecord struct {
	PlayerID string
	Action   Action
	Amount   float64
}

// Player is the client's view of a single player at the table
type Player struct {
	ID         string
	Name       string
	Chips      float64
	CurrentBet float64
	Status     PlayerStatus
	Cards      []string
	LastAction *ActionRecord
}
