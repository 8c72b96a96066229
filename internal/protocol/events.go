package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pokerroom/pokerroom/internal/game"
)

// Event is an inbound server message decoded into one of a closed set of
// kinds. Unrecognized shapes land in StatePatch when they carry a partial
// game state, and in Unknown otherwise, so a new server message never
// silently mis-merges.
type Event interface {
	isEvent()
}

// GameStarted announces a freshly dealt hand.
type GameStarted struct {
	State game.Patch
}

// GameState is the reply to a get_game_state command.
type GameState struct {
	State game.Patch
}

// PlayerActed reports another player's confirmed move.
type PlayerActed struct {
	State  game.Patch
	Player game.Player
	Action game.ActionRecord
}

// PhaseChanged reports the table advancing to a new betting phase.
type PhaseChanged struct {
	State game.Patch
}

// StatePatch is the generic fallback: any message carrying a partial
// game_state object. NextPhase signals that the acted-set should reset.
type StatePatch struct {
	State     game.Patch
	NextPhase bool
}

// Unknown is a message the client cannot interpret at all.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (GameStarted) isEvent()  {}
func (GameState) isEvent()    {}
func (PlayerActed) isEvent()  {}
func (PhaseChanged) isEvent() {}
func (StatePatch) isEvent()   {}
func (Unknown) isEvent()      {}

// stringID decodes an id that the server may send as either a JSON string
// or a bare number.
type stringID string

func (s *stringID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = stringID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = stringID(n.String())
	return nil
}

type wirePlayer struct {
	ID         stringID `json:"id"`
	Name       string   `json:"name"`
	Chips      float64  `json:"chips"`
	CurrentBet float64  `json:"current_bet"`
	Status     string   `json:"status"`
	Cards      []string `json:"cards"`
}

func (w wirePlayer) toGame() game.Player {
	return game.Player{
		ID:         string(w.ID),
		Name:       w.Name,
		Chips:      w.Chips,
		CurrentBet: w.CurrentBet,
		Status:     game.StatusFromString(w.Status),
		Cards:      w.Cards,
	}
}

func toGamePlayers(ws []wirePlayer) []game.Player {
	if ws == nil {
		return nil
	}
	out := make([]game.Player, len(ws))
	for i, w := range ws {
		out[i] = w.toGame()
	}
	return out
}

// wireState is a partial game state as the server sends it.
type wireState struct {
	CurrentPlayer  *stringID    `json:"current_player"`
	Pot            *float64     `json:"pot"`
	CurrentBet     *float64     `json:"current_bet"`
	Players        []wirePlayer `json:"players"`
	Phase          *string      `json:"phase"`
	CommunityCards []string     `json:"community_cards"`
	Message        *string      `json:"message"`
}

func (w wireState) patch() game.Patch {
	p := game.Patch{
		Pot:            w.Pot,
		CurrentBet:     w.CurrentBet,
		Players:        toGamePlayers(w.Players),
		CommunityCards: w.CommunityCards,
		Message:        w.Message,
	}
	if w.CurrentPlayer != nil {
		id := string(*w.CurrentPlayer)
		p.CurrentPlayer = &id
	}
	if w.Phase != nil {
		phase, _ := game.PhaseFromString(*w.Phase)
		p.Phase = &phase
	}
	return p
}

// Decode parses a raw inbound frame into an Event. It only fails on
// malformed JSON; shape surprises degrade to StatePatch or Unknown instead
// of errors so a protocol drift never kills the stream.
func Decode(raw []byte) (Event, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`

		// phase_change and generic patches sometimes put their fields at
		// the top level instead of under data.
		Phase          *string         `json:"phase"`
		Pot            *float64        `json:"pot"`
		CommunityCards []string        `json:"community_cards"`
		GameState      json.RawMessage `json:"game_state"`
		NextPhase      bool            `json:"next_phase"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch env.Type {
	case "game_started":
		return decodeGameStarted(env.Data)
	case "game_state_response":
		return decodeGameState(env.Data)
	case "player_action":
		return decodePlayerAction(env.Data)
	case "phase_changed", "phase_change":
		return decodePhaseChanged(env.Data, env.Phase, env.CommunityCards, env.Pot)
	default:
		// Generic fallback: a partial snapshot under data.game_state or at
		// the top level.
		if env.Data != nil {
			var body struct {
				GameState json.RawMessage `json:"game_state"`
				NextPhase bool            `json:"next_phase"`
			}
			if err := json.Unmarshal(env.Data, &body); err == nil && body.GameState != nil {
				return decodeStatePatch(body.GameState, body.NextPhase)
			}
		}
		if env.GameState != nil {
			return decodeStatePatch(env.GameState, env.NextPhase)
		}
		return Unknown{Type: env.Type, Raw: raw}, nil
	}
}

func decodeGameStarted(data json.RawMessage) (Event, error) {
	var body struct {
		InitialState struct {
			CurrentPlayer *stringID `json:"current_player"`
		} `json:"initial_state"`
		Game struct {
			Pot *float64 `json:"pot"`
		} `json:"game"`
		Players      []wirePlayer `json:"players"`
		CurrentPhase struct {
			Phase          *string  `json:"phase"`
			CommunityCards []string `json:"community_cards"`
		} `json:"current_phase"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("malformed game_started: %w", err)
	}

	p := game.Patch{
		Pot:            body.Game.Pot,
		Players:        toGamePlayers(body.Players),
		CommunityCards: body.CurrentPhase.CommunityCards,
	}
	if body.InitialState.CurrentPlayer != nil {
		id := string(*body.InitialState.CurrentPlayer)
		p.CurrentPlayer = &id
	}
	if body.CurrentPhase.Phase != nil {
		phase, _ := game.PhaseFromString(*body.CurrentPhase.Phase)
		p.Phase = &phase
	}
	return GameStarted{State: p}, nil
}

func decodeGameState(data json.RawMessage) (Event, error) {
	var body wireState
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("malformed game_state_response: %w", err)
	}
	return GameState{State: body.patch()}, nil
}

func decodePlayerAction(data json.RawMessage) (Event, error) {
	var body struct {
		GameState wireState `json:"game_state"`
		Player    struct {
			ID    stringID `json:"id"`
			Chips float64  `json:"chips"`
			Name  string   `json:"name"`
		} `json:"player"`
		Action struct {
			ActionType string  `json:"action_type"`
			Amount     float64 `json:"amount"`
		} `json:"action"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("malformed player_action: %w", err)
	}

	action, _ := game.ActionFromString(body.Action.ActionType)
	return PlayerActed{
		State: body.GameState.patch(),
		Player: game.Player{
			ID:    string(body.Player.ID),
			Name:  body.Player.Name,
			Chips: body.Player.Chips,
		},
		Action: game.ActionRecord{
			PlayerID: string(body.Player.ID),
			Action:   action,
			Amount:   body.Action.Amount,
		},
	}, nil
}

func decodePhaseChanged(data json.RawMessage, topPhase *string, topCards []string, topPot *float64) (Event, error) {
	phase := topPhase
	cards := topCards
	pot := topPot

	if data != nil {
		var body struct {
			Phase          *string  `json:"phase"`
			CommunityCards []string `json:"community_cards"`
			Pot            *float64 `json:"pot"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("malformed phase_changed: %w", err)
		}
		if body.Phase != nil {
			phase = body.Phase
		}
		if body.CommunityCards != nil {
			cards = body.CommunityCards
		}
		if body.Pot != nil {
			pot = body.Pot
		}
	}

	p := game.Patch{CommunityCards: cards, Pot: pot}
	if phase != nil {
		parsed, _ := game.PhaseFromString(*phase)
		p.Phase = &parsed
	}
	return PhaseChanged{State: p}, nil
}

func decodeStatePatch(state json.RawMessage, nextPhase bool) (Event, error) {
	var body wireState
	if err := json.Unmarshal(state, &body); err != nil {
		return nil, fmt.Errorf("malformed game_state patch: %w", err)
	}
	return StatePatch{State: body.patch(), NextPhase: nextPhase}, nil
}
