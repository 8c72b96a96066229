package game

// MaxCommunityCards is the most cards a board can ever show.
const MaxCommunityCards = 5

// Snapshot is the client's current best-known view of server game state.
// It is updated by merging server patches and is never authoritative.
type Snapshot struct {
	RoomID         string
	Players        []Player
	CurrentPlayer  string // empty means not yet assigned
	Pot            float64
	CurrentBet     float64
	CommunityCards []string
	Phase          Phase
	LastAction     *ActionRecord
	Message        string
}

// Patch is a partial snapshot. Nil fields are absent and leave the
// corresponding snapshot field untouched on Apply.
type Patch struct {
	CurrentPlayer  *string
	Pot            *float64
	CurrentBet     *float64
	Players        []Player
	Phase          *Phase
	CommunityCards []string
	LastAction     *ActionRecord
	Message        *string
}

// Apply merges the present fields of a patch into the snapshot. The
// community card list is clamped to five entries regardless of what the
// server sends.
func (s *Snapshot) Apply(p Patch) {
	if p.CurrentPlayer != nil {
		s.CurrentPlayer = *p.CurrentPlayer
	}
	if p.Pot != nil {
		s.Pot = *p.Pot
	}
	if p.CurrentBet != nil {
		s.CurrentBet = *p.CurrentBet
	}
	if p.Players != nil {
		s.setPlayers(p.Players)
	}
	if p.Phase != nil {
		s.Phase = *p.Phase
	}
	if p.CommunityCards != nil {
		cards := p.CommunityCards
		if len(cards) > MaxCommunityCards {
			cards = cards[:MaxCommunityCards]
		}
		s.CommunityCards = cards
	}
	if p.LastAction != nil {
		s.LastAction = p.LastAction
	}
	if p.Message != nil {
		s.Message = *p.Message
	}
}

// setPlayers replaces the player list, keeping order and dropping
// duplicate ids.
func (s *Snapshot) setPlayers(players []Player) {
	seen := make(map[string]struct{}, len(players))
	out := players[:0:0]
	for _, p := range players {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	s.Players = out
}

// FindPlayer returns the player with the given id, or nil.
func (s *Snapshot) FindPlayer(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// UpsertPlayer merges a player into the list by id, appending when absent.
func (s *Snapshot) UpsertPlayer(p Player) {
	if existing := s.FindPlayer(p.ID); existing != nil {
		*existing = p
		return
	}
	s.Players = append(s.Players, p)
}

// Clone returns a deep copy so callers can hand the snapshot to other
// goroutines without sharing mutable slices.
func (s *Snapshot) Clone() Snapshot {
	out := *s
	out.Players = append([]Player(nil), s.Players...)
	for i := range out.Players {
		out.Players[i].Cards = append([]string(nil), out.Players[i].Cards...)
	}
	out.CommunityCards = append([]string(nil), s.CommunityCards...)
	if s.LastAction != nil {
		la := *s.LastAction
		out.LastAction = &la
	}
	return out
}
