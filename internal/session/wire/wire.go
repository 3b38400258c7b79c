// Package wire defines the JSON frame format exchanged between session
// clients and the session service.
package wire

import (
	"encoding/json"
	"fmt"
)

// Frame types sent by clients.
const (
	TypeJoin            = "join"
	TypeClaimDirector   = "claim-director"
	TypeReleaseDirector = "release-director"
	TypeSetMarker       = "set-marker"
	TypeClearMarker     = "clear-marker"
)

// Frame types pushed by the server.
const (
	TypeDirectorSet     = "director-set"
	TypeDirectorUnset   = "director-unset"
	TypeDirectorChanged = "director-changed"
	TypeMarkerSet       = "marker-set"
	TypeMarkerCleared   = "marker-cleared"
	TypeError           = "error"
)

// Frame is one wire message in either direction.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload subscribes a connection to one production's session.
type JoinPayload struct {
	ProductionID string `json:"productionId"`
}

// ClaimDirectorPayload requests the director role.
type ClaimDirectorPayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// ReleaseDirectorPayload relinquishes the director role.
type ReleaseDirectorPayload struct {
	Name string `json:"name"`
}

// DirectorPayload carries a director name on authoritative events.
type DirectorPayload struct {
	Name string `json:"name"`
}

// MarkerPayload carries the shared reading position.
type MarkerPayload struct {
	Position int `json:"position"`
}

// ErrorEnvelope wraps an Error in a pushed error frame.
type ErrorEnvelope struct {
	Error Error `json:"error"`
}

// Error describes a rejected frame.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// MustPayload marshals a payload for a frame. The payload types above
// cannot fail to marshal.
func MustPayload(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal wire payload: %v", err))
	}
	return b
}
