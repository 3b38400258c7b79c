// Package domain models the session synchronization state machine shared by
// every connected viewer: one server-arbitrated director, one shared reading
// marker, last-value-wins on both.
package domain

import "strings"

// ConnState tracks the transport lifecycle for one client.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Reconnecting
)

// String returns the lowercase state name.
func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Credentials identify the local user for director claims. The name is
// compared against server-pushed director events to decide whether the local
// client holds the role.
type Credentials struct {
	Name     string
	Password string
}

// State is the full per-client session state. It is a value; the reducer
// returns a new State rather than mutating in place.
type State struct {
	Conn          ConnState
	DirectorName  string
	LocalDirector bool
	Marker        *int

	// PendingClaim is set while a claim request awaits its confirming
	// director event. There is no timeout; any director event clears it.
	PendingClaim bool
}

// Event is one inbound session notification. Exactly one concrete type below
// implements it.
type Event interface {
	sessionEvent()
}

// ConnectedEvent signals the transport established a connection.
type ConnectedEvent struct{}

// ConnectionLostEvent signals the transport dropped; a reconnect cycle is
// assumed to follow.
type ConnectionLostEvent struct{}

// DirectorSetEvent announces the authoritative director.
type DirectorSetEvent struct{ Name string }

// DirectorUnsetEvent announces that nobody directs.
type DirectorUnsetEvent struct{ Name string }

// DirectorChangedEvent announces a takeover.
type DirectorChangedEvent struct{ Name string }

// MarkerSetEvent announces the shared reading position.
type MarkerSetEvent struct{ Position int }

// MarkerClearedEvent announces the shared cursor was removed.
type MarkerClearedEvent struct{}

func (ConnectedEvent) sessionEvent()       {}
func (ConnectionLostEvent) sessionEvent()  {}
func (DirectorSetEvent) sessionEvent()     {}
func (DirectorUnsetEvent) sessionEvent()   {}
func (DirectorChangedEvent) sessionEvent() {}
func (MarkerSetEvent) sessionEvent()       {}
func (MarkerClearedEvent) sessionEvent()   {}

// Apply advances the state by one event. Malformed events leave the state
// unchanged; marker and director events are last-value-wins, so duplicate
// delivery is idempotent.
func Apply(state State, creds Credentials, event Event) State {
	switch e := event.(type) {
	case ConnectedEvent:
		state.Conn = Connected
	case ConnectionLostEvent:
		// Marker and director are retained; only authoritative events
		// after reconnect may overwrite them.
		if state.Conn == Connected {
			state.Conn = Reconnecting
		} else {
			state.Conn = Disconnected
		}
	case DirectorSetEvent:
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return state
		}
		state.DirectorName = name
		state.LocalDirector = name == strings.TrimSpace(creds.Name) && creds.Name != ""
		state.PendingClaim = false
	case DirectorChangedEvent:
		// Takeover is unconditional: a different name revokes the local
		// role even mid-session.
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return state
		}
		state.DirectorName = name
		state.LocalDirector = name == strings.TrimSpace(creds.Name) && creds.Name != ""
		state.PendingClaim = false
	case DirectorUnsetEvent:
		state.DirectorName = ""
		state.LocalDirector = false
		state.PendingClaim = false
	case MarkerSetEvent:
		if e.Position < 0 {
			return state
		}
		position := e.Position
		state.Marker = &position
	case MarkerClearedEvent:
		state.Marker = nil
	}
	return state
}
