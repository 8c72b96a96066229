package channel

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Transport is the duplex connection a channel client talks through. It is
// satisfied by *websocket.Conn; tests substitute fakes.
type Transport interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens a Transport to the given URL.
type Dialer func(ctx context.Context, rawURL string) (Transport, error)

// WebSocketDialer returns a Dialer backed by gorilla/websocket. http and
// https URLs are rewritten to their websocket schemes.
func WebSocketDialer() Dialer {
	return func(ctx context.Context, rawURL string) (Transport, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid server URL: %w", err)
		}

		switch u.Scheme {
		case "http":
			u.Scheme = "ws"
		case "https":
			u.Scheme = "wss"
		case "ws", "wss":
		default:
			u.Scheme = "ws"
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		return conn, nil
	}
}
