// Package storage defines the persistence interfaces for plays, scripts,
// and rehearsal notes.
package storage

import (
	"context"
	"errors"

	"github.com/probenraum/souffleur/internal/script/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Play identifies one production.
type Play struct {
	ID   string
	Name string
}

// Note is a free-text annotation attached to one line of a play.
type Note struct {
	PlayID string `json:"playId"`
	LineID string `json:"lineId"`
	Body   string `json:"body"`
}

// PlayStore persists plays and their scripts.
type PlayStore interface {
	// PutPlay creates or replaces a play record.
	PutPlay(ctx context.Context, play Play) error

	// ListPlays returns all plays ordered by name.
	ListPlays(ctx context.Context) ([]Play, error)

	// PutScript replaces the stored script for a play, preserving row order.
	PutScript(ctx context.Context, playID string, script domain.Script) error

	// GetScript returns the stored script for a play. Returns ErrNotFound
	// when the play has no script.
	GetScript(ctx context.Context, playID string) (domain.Script, error)
}

// NoteStore persists per-line notes.
type NoteStore interface {
	// PutNote creates or replaces a note. An empty body deletes the note.
	PutNote(ctx context.Context, note Note) error

	// GetNote returns one note. Returns ErrNotFound when absent.
	GetNote(ctx context.Context, playID, lineID string) (Note, error)

	// ListNotes returns all notes for a play.
	ListNotes(ctx context.Context, playID string) ([]Note, error)

	// DeleteNote removes a note. Deleting an absent note is not an error.
	DeleteNote(ctx context.Context, playID, lineID string) error
}
