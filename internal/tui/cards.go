package tui

import "strings"

// isRedCard reports whether a wire-format card ("AH", "10♦", "KD") belongs
// to a red suit.
func isRedCard(card string) bool {
	if card == "" {
		return false
	}
	if strings.ContainsAny(card, "♥♦") {
		return true
	}
	switch card[len(card)-1] {
	case 'H', 'h', 'D', 'd':
		return true
	}
	return false
}

// formatCards renders a card list with suit coloring when the terminal
// supports it.
func formatCards(cards []string) string {
	if len(cards) == 0 {
		return InfoStyle.Render("(hidden)")
	}

	colored := colorCapable()
	formatted := make([]string, len(cards))
	for i, card := range cards {
		switch {
		case !colored:
			formatted[i] = card
		case isRedCard(card):
			formatted[i] = RedCardStyle.Render(card)
		default:
			formatted[i] = BlackCardStyle.Render(card)
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}
