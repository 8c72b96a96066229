package channel

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerroom/pokerroom/internal/protocol"
)

// fakeConn is a scriptable Transport. Frames pushed onto the read channel
// come back from ReadMessage; writes are recorded for assertions.
type fakeConn struct {
	mu     sync.Mutex
	writes []protocol.Command
	frames chan []byte

	// When true, Close leaves the read channel open, simulating a transport
	// whose reader has not yet observed the teardown.
	lingerOnClose bool
	closeOnce     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16)}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	cmd, ok := v.(protocol.Command)
	if !ok {
		return errors.New("unexpected write type")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, cmd)
	return nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error { return nil }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.frames
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, data, nil
}

func (f *fakeConn) Close() error {
	if !f.lingerOnClose {
		f.closeOnce.Do(func() { close(f.frames) })
	}
	return nil
}

func (f *fakeConn) sentActions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	actions := make([]string, len(f.writes))
	for i, cmd := range f.writes {
		actions[i] = cmd.Action
	}
	return actions
}

// fakeDialer hands out the given conns in order.
func fakeDialer(conns ...*fakeConn) Dialer {
	i := 0
	return func(ctx context.Context, rawURL string) (Transport, error) {
		if i >= len(conns) {
			return nil, errors.New("no more conns")
		}
		conn := conns[i]
		i++
		return conn, nil
	}
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestSendQueuesWhileDisconnectedAndFlushesInOrder(t *testing.T) {
	ctx := context.Background()
	conn := newFakeConn()
	mock := quartz.NewMock(t)

	c := New("ws://test",
		WithLogger(testLogger()),
		WithDialer(fakeDialer(conn)),
		WithClock(mock),
	)

	c.Send(protocol.JoinRoom("room-1"))
	c.Send(protocol.GetGameState("room-1", "p1"))
	c.Send(protocol.StartGame("room-1"))

	_, err := c.Create(ctx, "room-1", "p1")
	require.NoError(t, err)

	// Nothing replays before the settle delay elapses.
	assert.Empty(t, conn.sentActions())

	mock.Advance(DefaultSettleDelay).MustWait(ctx)

	assert.Equal(t, []string{"join_room", "get_game_state", "start_game"}, conn.sentActions())

	// A second settle tick must not replay anything again.
	mock.Advance(DefaultSettleDelay).MustWait(ctx)
	assert.Len(t, conn.sentActions(), 3)
}

func TestSendTransmitsImmediatelyWhenConnected(t *testing.T) {
	conn := newFakeConn()
	mock := quartz.NewMock(t)

	c := New("ws://test",
		WithLogger(testLogger()),
		WithDialer(fakeDialer(conn)),
		WithClock(mock),
	)

	_, err := c.Create(context.Background(), "room-1", "p1")
	require.NoError(t, err)
	require.True(t, c.Connected())

	c.Send(protocol.Authenticate("p1"))
	assert.Equal(t, []string{"authenticate"}, conn.sentActions())
}

func TestCreateInvalidatesPreviousSubscription(t *testing.T) {
	connA := newFakeConn()
	connA.lingerOnClose = true // keep A's read loop alive past teardown
	connB := newFakeConn()
	mock := quartz.NewMock(t)

	c := New("ws://test",
		WithLogger(testLogger()),
		WithDialer(fakeDialer(connA, connB)),
		WithClock(mock),
	)

	events := make(chan protocol.Event, 16)
	c.Bind(func(ev protocol.Event) { events <- ev })

	subA, err := c.Create(context.Background(), "room-1", "p1")
	require.NoError(t, err)

	subB, err := c.Create(context.Background(), "room-1", "p1")
	require.NoError(t, err)
	require.NotEqual(t, subA.ID, subB.ID)

	// An in-flight frame still arriving on the stale transport must be
	// dropped by identity comparison.
	connA.frames <- []byte(`{"type":"game_state_response","data":{"pot":999}}`)
	// A frame on the current transport flows through.
	connB.frames <- []byte(`{"type":"game_state_response","data":{"pot":5}}`)

	select {
	case ev := <-events:
		state, ok := ev.(protocol.GameState)
		require.True(t, ok, "expected GameState, got %T", ev)
		assert.Equal(t, 5.0, *state.State.Pot)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event from current subscription")
	}

	select {
	case ev := <-events:
		t.Fatalf("received event from stale subscription: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	conn := newFakeConn()
	mock := quartz.NewMock(t)

	c := New("ws://test",
		WithLogger(testLogger()),
		WithDialer(fakeDialer(conn)),
		WithClock(mock),
	)

	c.Send(protocol.JoinRoom("room-1"))

	_, err := c.Create(context.Background(), "room-1", "p1")
	require.NoError(t, err)

	c.Cleanup()
	assert.False(t, c.Connected())
	assert.Nil(t, c.Current())
	assert.Empty(t, c.pending)

	// Second cleanup on an already-clean client is a no-op.
	c.Cleanup()
	assert.False(t, c.Connected())
	assert.Nil(t, c.Current())
	assert.Empty(t, c.pending)
}

func TestCleanupDropsQueuedCommands(t *testing.T) {
	conn := newFakeConn()
	mock := quartz.NewMock(t)

	c := New("ws://test",
		WithLogger(testLogger()),
		WithDialer(fakeDialer(conn)),
		WithClock(mock),
	)

	c.Send(protocol.JoinRoom("room-1"))
	c.Send(protocol.StartGame("room-1"))
	c.Cleanup()

	_, err := c.Create(context.Background(), "room-1", "p1")
	require.NoError(t, err)

	mock.Advance(DefaultSettleDelay).MustWait(context.Background())

	// The queue was cleared before connecting, so nothing replays.
	assert.Empty(t, conn.sentActions())
}

func TestDialFailureLeavesClientQueueing(t *testing.T) {
	mock := quartz.NewMock(t)

	c := New("ws://test",
		WithLogger(testLogger()),
		WithDialer(func(ctx context.Context, rawURL string) (Transport, error) {
			return nil, errors.New("connection refused")
		}),
		WithClock(mock),
	)

	_, err := c.Create(context.Background(), "room-1", "p1")
	require.Error(t, err)
	assert.False(t, c.Connected())

	// Commands keep queueing rather than erroring.
	c.Send(protocol.JoinRoom("room-1"))
	assert.Len(t, c.pending, 1)
}
