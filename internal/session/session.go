// Package session owns the in-memory game-state snapshot for one
// room/player pairing. It wires inbound channel events into snapshot
// merges and gates outbound actions through the local validator before
// they reach the wire.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/pokerroom/pokerroom/internal/channel"
	"github.com/pokerroom/pokerroom/internal/game"
	"github.com/pokerroom/pokerroom/internal/protocol"
)

const (
	// DefaultAdvanceDelay is how long the session waits after the last
	// player acts before asking the server for the next phase, giving
	// in-flight confirmations time to land.
	DefaultAdvanceDelay = time.Second

	// defaultChips seeds a synthesized self entry when the server has not
	// yet echoed the local player back.
	defaultChips = 1000

	advanceTimeout = 10 * time.Second
)

// Channel is the realtime connection a session drives. Implemented by
// *channel.Client.
type Channel interface {
	Bind(channel.Handler)
	Create(ctx context.Context, roomID, playerID string) (*channel.Subscription, error)
	Send(protocol.Command)
	Cleanup()
}

// PhaseAdvancer moves the room forward over REST once every active player
// has acted. Implemented by *api.Client.
type PhaseAdvancer interface {
	NextPhase(ctx context.Context, roomID string) (game.Patch, error)
	EndGame(ctx context.Context, roomID string) (game.Patch, error)
}

// RoomInfo is the room metadata a session starts from.
type RoomInfo struct {
	ID      string
	Name    string
	Players []game.Player
	Phase   game.Phase
}

// LocalPlayer identifies the player this session acts for, with whatever
// chip and card data the initial game payload provided.
type LocalPlayer struct {
	ID    string
	Name  string
	Chips float64
	Cards []string
}

// Session orchestrates one player's view of one room.
type Session struct {
	logger       *log.Logger
	ch           Channel
	advancer     PhaseAdvancer
	clock        quartz.Clock
	advanceDelay time.Duration
	onUpdate     func(game.Snapshot)

	roomID string
	local  LocalPlayer

	mu             sync.Mutex
	snap           game.Snapshot
	acted          map[string]struct{}
	keepAlive      bool
	advancePending bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger.WithPrefix("session") }
}

// WithClock overrides the clock used for the phase-advance delay.
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithAdvancer enables automatic phase advancement through the given REST
// collaborator.
func WithAdvancer(a PhaseAdvancer) Option {
	return func(s *Session) { s.advancer = a }
}

// WithAdvanceDelay tunes the delay before an automatic phase advance.
func WithAdvanceDelay(d time.Duration) Option {
	return func(s *Session) { s.advanceDelay = d }
}

// WithOnUpdate registers a callback invoked with a snapshot copy after
// every merge. The copy is safe to hand to another goroutine.
func WithOnUpdate(fn func(game.Snapshot)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// New builds a session from room metadata. The snapshot starts with the
// room's players and phase, an empty board, and a waiting message.
func New(ch Channel, room RoomInfo, local LocalPlayer, opts ...Option) *Session {
	s := &Session{
		logger:       log.Default().WithPrefix("session"),
		ch:           ch,
		clock:        quartz.NewReal(),
		advanceDelay: DefaultAdvanceDelay,
		roomID:       room.ID,
		local:        local,
		acted:        make(map[string]struct{}),
		snap: game.Snapshot{
			RoomID:  room.ID,
			Players: room.Players,
			Phase:   room.Phase,
			Message: "Waiting for players...",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the inbound handler, opens the channel and announces the
// player to the room. Commands issued while the dial is still failing are
// queued by the channel and replayed once it settles.
func (s *Session) Start(ctx context.Context) error {
	s.ch.Bind(s.handleEvent)

	_, err := s.ch.Create(ctx, s.roomID, s.local.ID)

	s.ch.Send(protocol.Authenticate(s.local.ID))
	s.ch.Send(protocol.JoinRoom(s.roomID))
	s.ch.Send(protocol.GetGameState(s.roomID, s.local.ID))

	return err
}

// Snapshot returns a copy of the current snapshot.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// IsMyTurn reports whether the local player should act: either the server
// assigned them the turn, or no turn is assigned yet and they have not
// acted this phase (first-mover heuristic before the server decides).
func (s *Session) IsMyTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.CurrentPlayer == s.local.ID {
		return true
	}
	if s.snap.CurrentPlayer == "" {
		_, acted := s.acted[s.local.ID]
		return !acted
	}
	return false
}

// RequestStart asks the server to deal a hand in this room.
func (s *Session) RequestStart() {
	s.ch.Send(protocol.StartGame(s.roomID))
}

// Refresh requests a full state resync.
func (s *Session) Refresh() {
	s.ch.Send(protocol.GetGameState(s.roomID, s.local.ID))
}

// SendAction validates the intent locally and, when legal, transmits it
// over the channel. Validation failures are merged into the snapshot as an
// error message and nothing is sent; the returned error mirrors that
// message for callers that want it. Confirmation arrives asynchronously
// through the inbound handler.
func (s *Session) SendAction(action game.Action, amount float64) error {
	s.mu.Lock()

	player := s.snap.FindPlayer(s.local.ID)
	if err := game.Validate(player, action, amount, &s.snap); err != nil {
		s.logger.Warn("rejected action", "action", action, "error", err)
		s.snap.Message = "Error: " + err.Error()
		s.notifyLocked()
		s.mu.Unlock()
		return err
	}

	s.acted[s.local.ID] = struct{}{}
	s.snap.Message = "Sending: " + describeAction(s.local.Name, action, amount)

	shouldAdvance := s.advancer != nil && game.AllActed(s.snap.Players, s.acted)
	phase := s.snap.Phase
	if shouldAdvance {
		s.scheduleAdvanceLocked(phase)
	}
	s.notifyLocked()
	s.mu.Unlock()

	s.ch.Send(protocol.PlayerAction(s.roomID, s.local.ID, action, amount))
	return nil
}

// MarkTransition flags that the next teardown belongs to a screen
// transition reusing this connection (e.g. room to table on game start),
// so Close must not destroy the socket the next screen needs.
func (s *Session) MarkTransition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keepAlive = true
}

// Close releases the channel unless a transition is pending, in which case
// the flag is consumed and the connection survives for the next session.
func (s *Session) Close() {
	s.mu.Lock()
	if s.keepAlive {
		s.keepAlive = false
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.ch.Cleanup()
}

// handleEvent merges one inbound event into the snapshot. Events arrive in
// order from the channel's read loop; there is only ever one writer at a
// time.
func (s *Session) handleEvent(ev protocol.Event) {
	s.mu.Lock()

	switch e := ev.(type) {
	case protocol.GameStarted:
		s.snap.Apply(e.State)
		s.acted = make(map[string]struct{})

	case protocol.GameState:
		s.snap.Apply(e.State)

	case protocol.PlayerActed:
		s.applyPlayerActedLocked(e)

	case protocol.PhaseChanged:
		s.snap.Apply(e.State)
		s.acted = make(map[string]struct{})

	case protocol.StatePatch:
		s.snap.Apply(e.State)
		if e.NextPhase {
			s.acted = make(map[string]struct{})
		}

	case protocol.Unknown:
		s.logger.Debug("ignoring unrecognized message", "type", e.Type)
		s.mu.Unlock()
		return
	}

	s.ensureSelfLocked()
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Session) applyPlayerActedLocked(e protocol.PlayerActed) {
	s.snap.Apply(e.State)

	if e.Player.ID != "" {
		if p := s.snap.FindPlayer(e.Player.ID); p != nil {
			p.Chips = e.Player.Chips
			if e.Player.Name != "" {
				p.Name = e.Player.Name
			}
		} else {
			player := e.Player
			player.Status = game.StatusActive
			s.snap.UpsertPlayer(player)
		}
		s.acted[e.Player.ID] = struct{}{}
	}

	record := e.Action
	s.snap.LastAction = &record
	name := e.Player.Name
	if name == "" {
		name = e.Player.ID
	}
	s.snap.Message = describeAction(name, e.Action.Action, e.Action.Amount)
}

// ensureSelfLocked reconciles the snapshot so the UI never observes a
// missing local player, synthesizing an entry from initial game data when
// the server has not echoed them back yet (e.g. after a mid-hand
// reconnect). This runs once per inbound update, never as a read-time side
// effect.
func (s *Session) ensureSelfLocked() {
	if s.snap.FindPlayer(s.local.ID) != nil {
		return
	}

	chips := s.local.Chips
	if chips <= 0 {
		chips = defaultChips
	}
	s.snap.UpsertPlayer(game.Player{
		ID:     s.local.ID,
		Name:   s.local.Name,
		Chips:  chips,
		Cards:  s.local.Cards,
		Status: game.StatusActive,
	})
}

// scheduleAdvanceLocked arms a one-shot phase advance. At most one is
// pending at a time.
func (s *Session) scheduleAdvanceLocked(phase game.Phase) {
	if s.advancePending {
		return
	}
	s.advancePending = true
	s.clock.AfterFunc(s.advanceDelay, func() {
		s.advancePhase(phase)
	})
}

// advancePhase asks the server for the next phase, or ends the hand after
// the river. Failures are logged; the server's own broadcasts remain the
// source of truth either way.
func (s *Session) advancePhase(phase game.Phase) {
	ctx, cancel := context.WithTimeout(context.Background(), advanceTimeout)
	defer cancel()

	var (
		patch game.Patch
		err   error
	)
	if phase == game.River {
		patch, err = s.advancer.EndGame(ctx, s.roomID)
	} else {
		patch, err = s.advancer.NextPhase(ctx, s.roomID)
	}

	s.mu.Lock()
	s.advancePending = false
	if err != nil {
		s.logger.Error("failed to advance phase", "from", phase, "error", err)
		s.mu.Unlock()
		return
	}

	s.snap.Apply(patch)
	s.acted = make(map[string]struct{})
	s.ensureSelfLocked()
	s.notifyLocked()
	s.mu.Unlock()
}

// notifyLocked hands a snapshot copy to the update callback. Callers hold
// s.mu; the callback itself runs with the copy only.
func (s *Session) notifyLocked() {
	if s.onUpdate == nil {
		return
	}
	snap := s.snap.Clone()
	cb := s.onUpdate
	go cb(snap)
}

func describeAction(name string, action game.Action, amount float64) string {
	if amount > 0 {
		return fmt.Sprintf("%s: %s $%.2f", name, action, amount)
	}
	return fmt.Sprintf("%s: %s", name, action)
}
