package game

// phaseOrder is the fixed forward sequence of betting phases.
var phaseOrder = []Phase{PreFlop, Flop, Turn, River, Showdown}

// NextPhase returns the phase that follows current in the fixed order.
// Unrecognized phases and the final phase both advance to Showdown, so a
// hand can always terminate (e.g. on early fold-out).
func NextPhase(current Phase) Phase {
	for i, p := range phaseOrder {
		if p == current {
			if i == len(phaseOrder)-1 {
				return Showdown
			}
			return phaseOrder[i+1]
		}
	}
	return Showdown
}

// AllActed reports whether every active-and-able player has acted in the
// current phase. Players who folded, are all-in, or have no chips left are
// not expected to act. An empty active set returns true, which allows the
// phase to advance when everyone remaining is folded or all-in.
func AllActed(players []Player, acted map[string]struct{}) bool {
	for _, p := range players {
		if p.Status == StatusFolded || p.Status == StatusAllIn || p.Chips <= 0 {
			continue
		}
		if _, ok := acted[p.ID]; !ok {
			return false
		}
	}
	return true
}
