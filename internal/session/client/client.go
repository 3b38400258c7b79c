// Package client implements the session synchronization peer used by
// viewers: it holds the connection, the director role, and the shared
// reading marker for one production.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/probenraum/souffleur/internal/session/domain"
	"github.com/probenraum/souffleur/internal/session/wire"
)

// ErrNotDirector is returned when a marker operation is attempted without
// holding the director role.
var ErrNotDirector = errors.New("not the current director")

// ErrNotConnected is returned when an operation requires an open connection.
var ErrNotConnected = errors.New("session is not connected")

// Conn is one established session connection.
type Conn interface {
	Send(frame wire.Frame) error
	Receive() (wire.Frame, error)
	Close() error
}

// Transport dials session connections scoped to a production.
type Transport interface {
	Dial(ctx context.Context, productionID string) (Conn, error)
}

// Client is a session handle owned by one view. One handle owns one
// connection and one set of subscriptions, disposed together.
type Client struct {
	transport Transport

	mu           sync.Mutex
	generation   uint64
	conn         Conn
	readDone     chan struct{}
	productionID string
	creds        domain.Credentials
	state        domain.State
}

// New creates a session client over the given transport.
func New(transport Transport) *Client {
	return &Client{transport: transport}
}

// Initialize connects to a production's session. Calling it again first
// fully disposes the previous connection, so no listener outlives its
// production.
func (c *Client) Initialize(ctx context.Context, productionID string) error {
	productionID = strings.TrimSpace(productionID)
	if productionID == "" {
		return errors.New("production id is required")
	}

	c.dispose()

	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.productionID = productionID
	c.state = domain.State{Conn: domain.Connecting}
	c.mu.Unlock()

	conn, err := c.transport.Dial(ctx, productionID)
	if err != nil {
		c.mu.Lock()
		if c.generation == generation {
			c.state.Conn = domain.Disconnected
		}
		c.mu.Unlock()
		return fmt.Errorf("dial session: %w", err)
	}

	join := wire.Frame{
		Type:    wire.TypeJoin,
		Payload: wire.MustPayload(wire.JoinPayload{ProductionID: productionID}),
	}
	if err := conn.Send(join); err != nil {
		_ = conn.Close()
		c.mu.Lock()
		if c.generation == generation {
			c.state.Conn = domain.Disconnected
		}
		c.mu.Unlock()
		return fmt.Errorf("send join: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	if c.generation != generation {
		// A newer Initialize or Close won while dialing.
		c.mu.Unlock()
		_ = conn.Close()
		close(done)
		return errors.New("initialize superseded")
	}
	c.conn = conn
	c.readDone = done
	c.apply(domain.ConnectedEvent{})
	c.mu.Unlock()

	go c.readLoop(conn, generation, done)
	return nil
}

// Close disposes the connection and stops the read loop deterministically.
func (c *Client) Close() {
	c.dispose()
	c.mu.Lock()
	c.state = domain.State{}
	c.productionID = ""
	c.mu.Unlock()
}

func (c *Client) dispose() {
	c.mu.Lock()
	c.generation++
	conn := c.conn
	done := c.readDone
	c.conn = nil
	c.readDone = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
}

func (c *Client) readLoop(conn Conn, generation uint64, done chan struct{}) {
	defer close(done)
	for {
		frame, err := conn.Receive()
		if err != nil {
			c.mu.Lock()
			if c.generation == generation {
				c.apply(domain.ConnectionLostEvent{})
			}
			c.mu.Unlock()
			return
		}
		event, ok := decodeEvent(frame)
		if !ok {
			// Malformed or unknown frames are dropped, prior state kept.
			continue
		}
		c.mu.Lock()
		if c.generation == generation {
			c.apply(event)
		}
		c.mu.Unlock()
	}
}

// apply must be called with c.mu held.
func (c *Client) apply(event domain.Event) {
	c.state = domain.Apply(c.state, c.creds, event)
}

// State returns a snapshot of the session state.
func (c *Client) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ProductionID returns the production the client is initialized for.
func (c *Client) ProductionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.productionID
}

// RequestDirector emits a director claim. Success is signaled only by a
// later director-set event naming the claimant; until then PendingClaim
// stays set.
func (c *Client) RequestDirector(name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("director name is required")
	}

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.creds = domain.Credentials{Name: name, Password: password}
	c.state.PendingClaim = true
	c.mu.Unlock()

	frame := wire.Frame{
		Type:    wire.TypeClaimDirector,
		Payload: wire.MustPayload(wire.ClaimDirectorPayload{Name: name, Password: password}),
	}
	if err := conn.Send(frame); err != nil {
		return fmt.Errorf("send claim: %w", err)
	}
	return nil
}

// ReleaseDirector emits a release request. The local role reverts only on
// the confirming director-unset event, not optimistically.
func (c *Client) ReleaseDirector() error {
	c.mu.Lock()
	conn := c.conn
	name := c.creds.Name
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("no director claim to release")
	}

	frame := wire.Frame{
		Type:    wire.TypeReleaseDirector,
		Payload: wire.MustPayload(wire.ReleaseDirectorPayload{Name: name}),
	}
	if err := conn.Send(frame); err != nil {
		return fmt.Errorf("send release: %w", err)
	}
	return nil
}

// SetMarker broadcasts a new shared reading position. Only the director may
// move the marker.
func (c *Client) SetMarker(position int) error {
	if position < 0 {
		return errors.New("marker position must be >= 0")
	}

	c.mu.Lock()
	conn := c.conn
	local := c.state.LocalDirector
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if !local {
		return ErrNotDirector
	}

	frame := wire.Frame{
		Type:    wire.TypeSetMarker,
		Payload: wire.MustPayload(wire.MarkerPayload{Position: position}),
	}
	if err := conn.Send(frame); err != nil {
		return fmt.Errorf("send marker: %w", err)
	}
	return nil
}

// ClearMarker removes the shared cursor.
func (c *Client) ClearMarker() error {
	c.mu.Lock()
	conn := c.conn
	local := c.state.LocalDirector
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if !local {
		return ErrNotDirector
	}

	frame := wire.Frame{
		Type:    wire.TypeClearMarker,
		Payload: wire.MustPayload(struct{}{}),
	}
	if err := conn.Send(frame); err != nil {
		return fmt.Errorf("send clear marker: %w", err)
	}
	return nil
}

func decodeEvent(frame wire.Frame) (domain.Event, bool) {
	switch frame.Type {
	case wire.TypeDirectorSet:
		var payload wire.DirectorPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return nil, false
		}
		return domain.DirectorSetEvent{Name: payload.Name}, true
	case wire.TypeDirectorUnset:
		var payload wire.DirectorPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return nil, false
		}
		return domain.DirectorUnsetEvent{Name: payload.Name}, true
	case wire.TypeDirectorChanged:
		var payload wire.DirectorPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return nil, false
		}
		return domain.DirectorChangedEvent{Name: payload.Name}, true
	case wire.TypeMarkerSet:
		var payload wire.MarkerPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return nil, false
		}
		return domain.MarkerSetEvent{Position: payload.Position}, true
	case wire.TypeMarkerCleared:
		return domain.MarkerClearedEvent{}, true
	default:
		return nil, false
	}
}
