// Package api is the HTTP client for the poker server's lifecycle
// endpoints: players, rooms and game control. The realtime game stream is
// handled separately by the channel package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pokerroom/pokerroom/internal/game"
)

// Error is a normalized REST failure. The message comes from the response
// body's message field when present, otherwise from a per-endpoint
// fallback. The client never retries; that is the caller's call.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Client talks to the poker server's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger.WithPrefix("api") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates an API client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  log.Default().WithPrefix("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireID tolerates ids sent as either JSON strings or numbers.
type wireID string

func (w *wireID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*w = wireID(n.String())
	return nil
}

type wirePlayer struct {
	ID         wireID   `json:"id"`
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
	out := make([]game.Player, len(ws))
	for i, w := range ws {
		out[i] = w.toGame()
	}
	return out
}

// Player is a registered player identity.
type Player struct {
	ID    string
	Name  string
	Chips float64
}

// Room is a lobby grouping players before and during a hand.
type Room struct {
	ID      string
	Name    string
	Players []game.Player
	Phase   game.Phase
}

type wireRoom struct {
	ID        wireID       `json:"id"`
	Name      string       `json:"name"`
	Players   []wirePlayer `json:"players"`
	GamePhase string       `json:"game_phase"`
}

func (w wireRoom) toRoom() Room {
	phase := game.PreFlop
	if w.GamePhase != "" {
		phase, _ = game.PhaseFromString(w.GamePhase)
	}
	return Room{
		ID:      string(w.ID),
		Name:    w.Name,
		Players: toGamePlayers(w.Players),
		Phase:   phase,
	}
}

// GameStart is the initial game data returned when a hand is dealt.
type GameStart struct {
	Pot            float64
	CurrentPlayer  string
	Players        []game.Player
	Phase          game.Phase
	CommunityCards []string
}

// CreatePlayer registers a new player.
func (c *Client) CreatePlayer(ctx context.Context, name string) (*Player, error) {
	var out struct {
		ID    wireID  `json:"id"`
		Name  string  `json:"name"`
		Chips float64 `json:"chips"`
	}
	err := c.do(ctx, http.MethodPost, "/players", map[string]string{"name": name}, &out, "failed to create player")
	if err != nil {
		return nil, err
	}
	return &Player{ID: string(out.ID), Name: out.Name, Chips: out.Chips}, nil
}

// DeletePlayer removes a player registration.
func (c *Client) DeletePlayer(ctx context.Context, playerID string) error {
	return c.do(ctx, http.MethodDelete, "/players/"+playerID, nil, nil, "failed to delete player")
}

// ListRooms fetches the lobby's room list.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var out []wireRoom
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &out, "failed to list rooms"); err != nil {
		return nil, err
	}
	rooms := make([]Room, len(out))
	for i, w := range out {
		rooms[i] = w.toRoom()
	}
	return rooms, nil
}

// CreateRoom creates a new room.
func (c *Client) CreateRoom(ctx context.Context, name string) (*Room, error) {
	var out wireRoom
	err := c.do(ctx, http.MethodPost, "/rooms", map[string]string{"name": name}, &out, "failed to create room")
	if err != nil {
		return nil, err
	}
	room := out.toRoom()
	return &room, nil
}

// JoinRoom seats the player in the room.
func (c *Client) JoinRoom(ctx context.Context, roomID, playerID string) (*Room, error) {
	var out wireRoom
	err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/join", map[string]string{"player_id": playerID}, &out, "failed to join room")
	if err != nil {
		return nil, err
	}
	room := out.toRoom()
	return &room, nil
}

// LeaveRoom removes the player from the room.
func (c *Client) LeaveRoom(ctx context.Context, roomID, playerID string) error {
	return c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/leave", map[string]string{"player_id": playerID}, nil, "failed to leave room")
}

// StartGame deals a new hand in the room.
func (c *Client) StartGame(ctx context.Context, roomID string) (*GameStart, error) {
	var out struct {
		Game struct {
			Pot float64 `json:"pot"`
		} `json:"game"`
		InitialState struct {
			CurrentPlayer wireID       `json:"current_player"`
			Players       []wirePlayer `json:"players"`
		} `json:"initial_state"`
		CurrentPhase struct {
			Phase          string   `json:"phase"`
			CommunityCards []string `json:"community_cards"`
		} `json:"current_phase"`
	}
	if err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/start", nil, &out, "failed to start game"); err != nil {
		return nil, err
	}

	phase := game.PreFlop
	if out.CurrentPhase.Phase != "" {
		phase, _ = game.PhaseFromString(out.CurrentPhase.Phase)
	}
	return &GameStart{
		Pot:            out.Game.Pot,
		CurrentPlayer:  string(out.InitialState.CurrentPlayer),
		Players:        toGamePlayers(out.InitialState.Players),
		Phase:          phase,
		CommunityCards: out.CurrentPhase.CommunityCards,
	}, nil
}

// SendAction submits a poker move over HTTP. The realtime channel is the
// primary action path; this endpoint exists for parity with the server API.
func (c *Client) SendAction(ctx context.Context, roomID, playerID string, action game.Action, amount float64) (game.Patch, error) {
	body := map[string]interface{}{
		"player_id": playerID,
		"action":    action.String(),
		"amount":    amount,
	}
	var out struct {
		GameState struct {
			Pot *float64 `json:"pot"`
		} `json:"game_state"`
	}
	if err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/action", body, &out, "failed to send action"); err != nil {
		return game.Patch{}, err
	}
	return game.Patch{Pot: out.GameState.Pot}, nil
}

// NextPhase advances the room to the next betting phase.
func (c *Client) NextPhase(ctx context.Context, roomID string) (game.Patch, error) {
	var out struct {
		Phase          string   `json:"phase"`
		Pot            *float64 `json:"pot"`
		CommunityCards []string `json:"community_cards"`
	}
	if err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/next-phase", nil, &out, "failed to advance phase"); err != nil {
		return game.Patch{}, err
	}

	p := game.Patch{Pot: out.Pot, CommunityCards: out.CommunityCards}
	if out.Phase != "" {
		phase, _ := game.PhaseFromString(out.Phase)
		p.Phase = &phase
	}
	return p, nil
}

// EndGame finishes the hand and reveals the board.
func (c *Client) EndGame(ctx context.Context, roomID string) (game.Patch, error) {
	var out struct {
		CommunityCards []string `json:"community_cards"`
	}
	if err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/end", nil, &out, "failed to end game"); err != nil {
		return game.Patch{}, err
	}

	showdown := game.Showdown
	return game.Patch{Phase: &showdown, CommunityCards: out.CommunityCards}, nil
}

// do performs one request and normalizes failures into *Error.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, fallback string) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fallback
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Message != "" {
			message = errBody.Message
		}
		c.logger.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode, "message", message)
		return &Error{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
