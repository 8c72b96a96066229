package game

import "errors"

// Validation errors returned by Validate. These gate actions locally; the
// server still has the final say on legality.
var (
	ErrPlayerCannotAct    = errors.New("player cannot act")
	ErrCheckNotAllowed    = errors.New("cannot check, there is a bet to match")
	ErrNothingToCall      = errors.New("there is no bet to call")
	ErrInvalidRaiseAmount = errors.New("raise amount must be greater than zero")
	ErrInsufficientChips  = errors.New("not enough chips")
	ErrUnknownAction      = errors.New("unknown action")
)

// Validate decides whether a proposed action is locally legal given the
// current snapshot. Rules are evaluated in order and the first failing rule
// wins. It is pure: no I/O, no shared state, safe to call concurrently.
func Validate(player *Player, action Action, amount float64, state *Snapshot) error {
	if player == nil || player.Status == StatusFolded {
		return ErrPlayerCannotAct
	}

	switch action {
	case ActionCheck:
		if state.CurrentBet > player.CurrentBet {
			return ErrCheckNotAllowed
		}
		return nil

	case ActionCall:
		if state.CurrentBet <= player.CurrentBet {
			return ErrNothingToCall
		}
		return nil

	case ActionRaise:
		if amount <= 0 {
			return ErrInvalidRaiseAmount
		}
		if amount > player.Chips {
			return ErrInsufficientChips
		}
		return nil

	case ActionFold, ActionAllIn:
		// Always locally valid; the server decides all-in timing.
		return nil

	default:
		return ErrUnknownAction
	}
}
