// Package channel manages the single logical realtime subscription a game
// session holds against the poker server: connection lifecycle, teardown of
// stale subscriptions, command queueing while disconnected, and dispatch of
// inbound events to a bound handler.
package channel

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pokerroom/pokerroom/internal/protocol"
)

// DefaultSettleDelay is how long the client waits after connecting before
// replaying queued commands. It papers over the race with the server-side
// room-join acknowledgement; if the protocol ever grows an explicit ready
// ack, flushPending is the single place to move behind it.
const DefaultSettleDelay = 1500 * time.Millisecond

// Handler receives decoded inbound events in arrival order.
type Handler func(protocol.Event)

// Subscription identifies one logical channel for a (room, player) pairing.
// At most one subscription is current at any time; messages tagged with a
// stale id are discarded by comparing ids, not handles.
type Subscription struct {
	ID        string
	RoomID    string
	PlayerID  string
	CreatedAt time.Time
}

// Client is a realtime channel client. Transport failures are logged and
// swallowed; command delivery is best effort, not guaranteed.
type Client struct {
	url    string
	dial   Dialer
	logger *log.Logger
	clock  quartz.Clock
	settle time.Duration

	mu          sync.Mutex
	current     *Subscription
	conn        Transport
	connected   bool
	pending     []protocol.Command
	handler     Handler
	settleTimer *quartz.Timer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger.WithPrefix("channel") }
}

// WithDialer overrides the transport dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dial = d }
}

// WithClock overrides the clock used for the settle timer.
func WithClock(clock quartz.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithSettleDelay tunes the post-connect delay before queued commands flush.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Client) { c.settle = d }
}

// New creates a channel client for the given server URL.
func New(serverURL string, opts ...Option) *Client {
	c := &Client{
		url:    serverURL,
		dial:   WebSocketDialer(),
		logger: log.Default().WithPrefix("channel"),
		clock:  quartz.NewReal(),
		settle: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind registers the handler invoked for every inbound event. Passing nil
// unregisters it.
func (c *Client) Bind(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Connected reports whether a transport is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Current returns the current subscription, or nil.
func (c *Client) Current() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	sub := *c.current
	return &sub
}

// Create opens a new subscription for the room and player, tearing down any
// previous one first. Commands queued before the connection settles are
// replayed in FIFO order.
func (c *Client) Create(ctx context.Context, roomID, playerID string) (*Subscription, error) {
	sub := &Subscription{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		PlayerID:  playerID,
		CreatedAt: c.clock.Now(),
	}

	c.mu.Lock()
	c.teardownLocked()
	// The new identity is current before dialing, so anything still in
	// flight from the old transport already compares stale.
	c.current = sub
	c.mu.Unlock()

	conn, err := c.dial(ctx, c.url)
	if err != nil {
		c.mu.Lock()
		if c.current != nil && c.current.ID == sub.ID {
			c.current = nil
		}
		c.mu.Unlock()
		c.logger.Error("failed to open channel", "room", roomID, "error", err)
		return nil, err
	}

	c.mu.Lock()
	if c.current == nil || c.current.ID != sub.ID {
		// A newer Create or Cleanup won the race while we were dialing.
		c.mu.Unlock()
		_ = conn.Close()
		return nil, context.Canceled
	}
	c.conn = conn
	c.connected = true
	c.settleTimer = c.clock.AfterFunc(c.settle, func() {
		c.flushPending(sub.ID)
	})
	c.mu.Unlock()

	go c.readPump(conn, sub.ID)

	c.logger.Info("channel open", "room", roomID, "player", playerID, "subscription", sub.ID)
	return sub, nil
}

// Send transmits a command immediately when connected, and otherwise queues
// it for replay once the connection settles. Errors are logged, never
// returned: delivery is best effort.
func (c *Client) Send(cmd protocol.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		c.pending = append(c.pending, cmd)
		c.logger.Debug("queued command while disconnected", "action", cmd.Action, "queued", len(c.pending))
		return
	}

	if err := c.conn.WriteJSON(cmd); err != nil {
		c.logger.Error("failed to send command", "action", cmd.Action, "error", err)
	}
}

// Cleanup closes the current subscription and clears all queued commands
// and identity state. Safe to call repeatedly.
func (c *Client) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.pending = nil
}

// teardownLocked closes the current transport best-effort and invalidates
// the subscription identity. Callers hold c.mu.
func (c *Client) teardownLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
	if c.conn != nil {
		// Teardown errors are swallowed; the subscription is gone either way.
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.current = nil
}

// flushPending replays the queued commands in enqueue order. The queue is
// taken exactly once so a command can never be replayed twice.
func (c *Client) flushPending(subID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil || c.current == nil || c.current.ID != subID {
		return
	}

	queue := c.pending
	c.pending = nil
	for _, cmd := range queue {
		if err := c.conn.WriteJSON(cmd); err != nil {
			c.logger.Error("failed to replay queued command", "action", cmd.Action, "error", err)
		}
	}
	if len(queue) > 0 {
		c.logger.Debug("flushed pending commands", "count", len(queue))
	}
}

// readPump reads frames until the transport fails, dispatching events to
// the bound handler. Every dispatch re-checks the subscription identity so
// messages racing a teardown are dropped.
func (c *Client) readPump(conn Transport, subID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("channel read failed", "error", err)
			}
			c.markDisconnected(subID)
			return
		}

		ev, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("dropping malformed message", "error", err)
			continue
		}

		c.mu.Lock()
		stale := c.current == nil || c.current.ID != subID
		handler := c.handler
		c.mu.Unlock()

		if stale {
			c.logger.Debug("dropping message for stale subscription", "subscription", subID)
			continue
		}
		if handler != nil {
			handler(ev)
		}
	}
}

func (c *Client) markDisconnected(subID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.ID == subID {
		c.connected = false
	}
}
