package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/probenraum/souffleur/internal/session/wire"
)

// WebSocketTransport dials the session service over WebSocket.
type WebSocketTransport struct {
	// BaseURL is the session service endpoint, e.g. "ws://localhost:8086".
	BaseURL string
	// Origin is the origin header sent on dial. Defaults to BaseURL with an
	// http scheme.
	Origin string
}

// Dial opens one WebSocket connection to the session endpoint.
func (t *WebSocketTransport) Dial(ctx context.Context, productionID string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("session base url is required")
	}

	origin := strings.TrimSpace(t.Origin)
	if origin == "" {
		origin = strings.Replace(base, "ws", "http", 1)
	}
	endpoint := base + "/ws"
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("parse session url: %w", err)
	}

	conn, err := websocket.Dial(endpoint, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return newWSConn(conn), nil
}

type wsConn struct {
	conn    *websocket.Conn
	decoder *json.Decoder

	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn:    conn,
		decoder: json.NewDecoder(conn),
		encoder: json.NewEncoder(conn),
	}
}

func (c *wsConn) Send(frame wire.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoder.Encode(frame)
}

func (c *wsConn) Receive() (wire.Frame, error) {
	var frame wire.Frame
	if err := c.decoder.Decode(&frame); err != nil {
		return wire.Frame{}, err
	}
	return frame, nil
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
