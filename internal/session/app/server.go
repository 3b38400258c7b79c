// Package server hosts the realtime session service: a WebSocket hub that
// arbitrates one director and one shared reading marker per production.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/probenraum/souffleur/internal/platform/timeouts"
	"github.com/probenraum/souffleur/internal/session/wire"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3
)

// Config defines the inputs for the session transport boundary.
type Config struct {
	HTTPAddr string
	// DirectorPassword guards director claims. An empty password accepts
	// any claim, for rehearsals without access control.
	DirectorPassword  string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the session HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wire.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

type roomHub struct {
	mu       sync.Mutex
	password string
	rooms    map[string]*productionRoom
}

func newRoomHub(password string) *roomHub {
	return &roomHub{
		password: password,
		rooms:    make(map[string]*productionRoom),
	}
}

func (h *roomHub) room(productionID string) *productionRoom {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[productionID]
	if ok {
		return room
	}

	room = newProductionRoom(productionID)
	h.rooms[productionID] = room
	return room
}

// productionRoom is the authoritative session state for one production:
// the current director, the current marker, and the subscribed peers.
type productionRoom struct {
	mu           sync.Mutex
	productionID string
	directorName string
	directorPeer *wsPeer
	marker       *int
	subscribers  map[*wsPeer]struct{}
}

func newProductionRoom(productionID string) *productionRoom {
	return &productionRoom{
		productionID: productionID,
		subscribers:  make(map[*wsPeer]struct{}),
	}
}

// join subscribes a peer and returns the frames replaying current state, so
// late joiners see the director and marker immediately.
func (r *productionRoom) join(peer *wsPeer) []wire.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers[peer] = struct{}{}

	var replay []wire.Frame
	if r.directorName != "" {
		replay = append(replay, wire.Frame{
			Type:    wire.TypeDirectorSet,
			Payload: wire.MustPayload(wire.DirectorPayload{Name: r.directorName}),
		})
	}
	if r.marker != nil {
		replay = append(replay, wire.Frame{
			Type:    wire.TypeMarkerSet,
			Payload: wire.MustPayload(wire.MarkerPayload{Position: *r.marker}),
		})
	}
	return replay
}

// leave unsubscribes a peer. The director name survives a dropped director
// connection so a reconnecting director can reclaim without a takeover.
func (r *productionRoom) leave(peer *wsPeer) {
	r.mu.Lock()
	delete(r.subscribers, peer)
	if r.directorPeer == peer {
		r.directorPeer = nil
	}
	r.mu.Unlock()
}

// claim makes the peer the director. Last claim wins; the returned frame is
// director-changed when this displaces a different director, director-set
// otherwise.
func (r *productionRoom) claim(peer *wsPeer, name string) (wire.Frame, []*wsPeer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameType := wire.TypeDirectorSet
	if r.directorName != "" && r.directorName != name {
		frameType = wire.TypeDirectorChanged
	}
	r.directorName = name
	r.directorPeer = peer

	return wire.Frame{
		Type:    frameType,
		Payload: wire.MustPayload(wire.DirectorPayload{Name: name}),
	}, r.snapshotSubscribersLocked()
}

// release clears the director when the name matches the current holder.
func (r *productionRoom) release(name string) (wire.Frame, []*wsPeer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.directorName == "" || r.directorName != name {
		return wire.Frame{}, nil, false
	}
	r.directorName = ""
	r.directorPeer = nil

	return wire.Frame{
		Type:    wire.TypeDirectorUnset,
		Payload: wire.MustPayload(wire.DirectorPayload{Name: name}),
	}, r.snapshotSubscribersLocked(), true
}

// setMarker records the shared cursor when the peer holds the director role.
func (r *productionRoom) setMarker(peer *wsPeer, position int) (wire.Frame, []*wsPeer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.directorPeer != peer {
		return wire.Frame{}, nil, false
	}
	r.marker = &position

	return wire.Frame{
		Type:    wire.TypeMarkerSet,
		Payload: wire.MustPayload(wire.MarkerPayload{Position: position}),
	}, r.snapshotSubscribersLocked(), true
}

// clearMarker removes the shared cursor when the peer holds the director role.
func (r *productionRoom) clearMarker(peer *wsPeer) (wire.Frame, []*wsPeer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.directorPeer != peer {
		return wire.Frame{}, nil, false
	}
	r.marker = nil

	return wire.Frame{
		Type:    wire.TypeMarkerCleared,
		Payload: wire.MustPayload(struct{}{}),
	}, r.snapshotSubscribersLocked(), true
}

func (r *productionRoom) snapshotSubscribersLocked() []*wsPeer {
	subscribers := make([]*wsPeer, 0, len(r.subscribers))
	for subscriber := range r.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	return subscribers
}

type wsSession struct {
	mu   sync.Mutex
	room *productionRoom
	peer *wsPeer
}

func (s *wsSession) setRoom(next *productionRoom) *productionRoom {
	s.mu.Lock()
	previous := s.room
	s.room = next
	s.mu.Unlock()
	return previous
}

func (s *wsSession) currentRoom() *productionRoom {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	return room
}

// NewHandler creates the session routes.
func NewHandler(directorPassword string) http.Handler {
	hub := newRoomHub(strings.TrimSpace(directorPassword))
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, hub)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

func handleWSConn(conn *websocket.Conn, hub *roomHub) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	session := &wsSession{peer: newWSPeer(json.NewEncoder(conn))}
	defer func() {
		if room := session.currentRoom(); room != nil {
			room.leave(session.peer)
		}
	}()

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wire.Frame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(session.peer, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(session.peer, frame.RequestID, "RESOURCE_EXHAUSTED", "rate limit exceeded")
			return
		}

		switch frame.Type {
		case wire.TypeJoin:
			handleJoinFrame(session, hub, frame)
		case wire.TypeClaimDirector:
			handleClaimFrame(session, hub, frame)
		case wire.TypeReleaseDirector:
			handleReleaseFrame(session, frame)
		case wire.TypeSetMarker:
			handleSetMarkerFrame(session, frame)
		case wire.TypeClearMarker:
			handleClearMarkerFrame(session, frame)
		default:
			_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

func handleJoinFrame(session *wsSession, hub *roomHub, frame wire.Frame) {
	var payload wire.JoinPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid join payload")
		return
	}
	productionID := strings.TrimSpace(payload.ProductionID)
	if productionID == "" {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "productionId is required")
		return
	}

	room := hub.room(productionID)
	previous := session.setRoom(room)
	if previous != nil && previous != room {
		previous.leave(session.peer)
	}

	for _, replayFrame := range room.join(session.peer) {
		_ = session.peer.writeFrame(replayFrame)
	}
}

func handleClaimFrame(session *wsSession, hub *roomHub, frame wire.Frame) {
	var payload wire.ClaimDirectorPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid claim payload")
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "name is required")
		return
	}

	room := session.currentRoom()
	if room == nil {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "must join a production before claiming")
		return
	}
	if hub.password != "" && payload.Password != hub.password {
		log.Printf("session: rejected director claim name=%q production=%q", name, room.productionID)
		_ = writeWSError(session.peer, frame.RequestID, "FORBIDDEN", "invalid director password")
		return
	}

	broadcast, subscribers := room.claim(session.peer, name)
	log.Printf("session: director %q claimed production %q", name, room.productionID)
	for _, subscriber := range subscribers {
		_ = subscriber.writeFrame(broadcast)
	}
}

func handleReleaseFrame(session *wsSession, frame wire.Frame) {
	var payload wire.ReleaseDirectorPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid release payload")
		return
	}

	room := session.currentRoom()
	if room == nil {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "must join a production before releasing")
		return
	}

	// A release for a name that no longer directs is stale, not an error.
	broadcast, subscribers, ok := room.release(strings.TrimSpace(payload.Name))
	if !ok {
		return
	}
	for _, subscriber := range subscribers {
		_ = subscriber.writeFrame(broadcast)
	}
}

func handleSetMarkerFrame(session *wsSession, frame wire.Frame) {
	var payload wire.MarkerPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid marker payload")
		return
	}
	if payload.Position < 0 {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "position must be >= 0")
		return
	}

	room := session.currentRoom()
	if room == nil {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "must join a production before marking")
		return
	}

	broadcast, subscribers, ok := room.setMarker(session.peer, payload.Position)
	if !ok {
		_ = writeWSError(session.peer, frame.RequestID, "FORBIDDEN", "only the director may move the marker")
		return
	}
	for _, subscriber := range subscribers {
		_ = subscriber.writeFrame(broadcast)
	}
}

func handleClearMarkerFrame(session *wsSession, frame wire.Frame) {
	room := session.currentRoom()
	if room == nil {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "must join a production before marking")
		return
	}

	broadcast, subscribers, ok := room.clearMarker(session.peer)
	if !ok {
		_ = writeWSError(session.peer, frame.RequestID, "FORBIDDEN", "only the director may clear the marker")
		return
	}
	for _, subscriber := range subscribers {
		_ = subscriber.writeFrame(broadcast)
	}
}

func writeWSError(peer *wsPeer, requestID string, code string, message string) error {
	return peer.writeFrame(wire.Frame{
		Type:      wire.TypeError,
		RequestID: requestID,
		Payload: wire.MustPayload(wire.ErrorEnvelope{
			Error: wire.Error{
				Code:      code,
				Message:   message,
				Retryable: false,
			},
		}),
	})
}

// NewServer builds a configured session server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(config.DirectorPassword),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
	}, nil
}

// Run creates and serves a session server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init session server: %w", err)
	}
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve session: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("session server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("session server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
