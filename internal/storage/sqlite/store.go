// Package sqlite provides a SQLite-backed play and note store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/probenraum/souffleur/internal/platform/storage/sqlitemigrate"
	"github.com/probenraum/souffleur/internal/script/domain"
	"github.com/probenraum/souffleur/internal/storage"
	"github.com/probenraum/souffleur/internal/storage/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// Store persists plays, scripts, and notes in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path and applies embedded
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutPlay creates or replaces a play record.
func (s *Store) PutPlay(ctx context.Context, play storage.Play) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(play.ID)
	if id == "" {
		return fmt.Errorf("play id is required")
	}
	name := strings.TrimSpace(play.Name)
	if name == "" {
		name = id
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO plays (id, name) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		id,
		name,
	)
	if err != nil {
		return fmt.Errorf("put play: %w", err)
	}
	return nil
}

// ListPlays returns all plays ordered by name.
func (s *Store) ListPlays(ctx context.Context) ([]storage.Play, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name FROM plays ORDER BY name ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list plays: %w", err)
	}
	defer rows.Close()

	var plays []storage.Play
	for rows.Next() {
		var play storage.Play
		if err := rows.Scan(&play.ID, &play.Name); err != nil {
			return nil, fmt.Errorf("list plays: %w", err)
		}
		plays = append(plays, play)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plays: %w", err)
	}
	return plays, nil
}

// PutScript replaces the stored script for a play, preserving row order.
func (s *Store) PutScript(ctx context.Context, playID string, script domain.Script) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	playID = strings.TrimSpace(playID)
	if playID == "" {
		return fmt.Errorf("play id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put script: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM script_rows WHERE play_id = ?`, playID); err != nil {
		return fmt.Errorf("put script: clear rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM actors WHERE play_id = ?`, playID); err != nil {
		return fmt.Errorf("put script: clear actors: %w", err)
	}

	for pos, row := range script.Rows {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO script_rows (play_id, pos, scene, category, character, microphone, text)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			playID,
			pos,
			row.Scene,
			row.Category,
			row.Character,
			row.Microphone,
			row.Text,
		); err != nil {
			return fmt.Errorf("put script: row %d: %w", pos, err)
		}
	}
	for pos, actor := range script.Actors {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO actors (play_id, pos, role, name) VALUES (?, ?, ?, ?)`,
			playID,
			pos,
			actor.Role,
			actor.Name,
		); err != nil {
			return fmt.Errorf("put script: actor %d: %w", pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put script: %w", err)
	}
	return nil
}

// GetScript returns the stored script for a play in insertion order. Returns
// storage.ErrNotFound when the play has no script rows.
func (s *Store) GetScript(ctx context.Context, playID string) (domain.Script, error) {
	if err := ctx.Err(); err != nil {
		return domain.Script{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Script{}, fmt.Errorf("storage is not configured")
	}
	playID = strings.TrimSpace(playID)
	if playID == "" {
		return domain.Script{}, fmt.Errorf("play id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT scene, category, character, microphone, text
		   FROM script_rows
		  WHERE play_id = ?
		  ORDER BY pos ASC`,
		playID,
	)
	if err != nil {
		return domain.Script{}, fmt.Errorf("get script: %w", err)
	}
	defer rows.Close()

	var script domain.Script
	for rows.Next() {
		var row domain.Row
		var category string
		if err := rows.Scan(&row.Scene, &category, &row.Character, &row.Microphone, &row.Text); err != nil {
			return domain.Script{}, fmt.Errorf("get script: %w", err)
		}
		row.Category = domain.Category(category)
		script.Rows = append(script.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.Script{}, fmt.Errorf("get script: %w", err)
	}
	if len(script.Rows) == 0 {
		return domain.Script{}, storage.ErrNotFound
	}

	actorRows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT role, name FROM actors WHERE play_id = ? ORDER BY pos ASC`,
		playID,
	)
	if err != nil {
		return domain.Script{}, fmt.Errorf("get script: actors: %w", err)
	}
	defer actorRows.Close()

	for actorRows.Next() {
		var actor domain.Actor
		if err := actorRows.Scan(&actor.Role, &actor.Name); err != nil {
			return domain.Script{}, fmt.Errorf("get script: actors: %w", err)
		}
		script.Actors = append(script.Actors, actor)
	}
	if err := actorRows.Err(); err != nil {
		return domain.Script{}, fmt.Errorf("get script: actors: %w", err)
	}
	return script, nil
}

// PutNote creates or replaces a note. An empty body deletes the note.
func (s *Store) PutNote(ctx context.Context, note storage.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	playID := strings.TrimSpace(note.PlayID)
	lineID := strings.TrimSpace(note.LineID)
	if playID == "" {
		return fmt.Errorf("play id is required")
	}
	if lineID == "" {
		return fmt.Errorf("line id is required")
	}
	if strings.TrimSpace(note.Body) == "" {
		return s.DeleteNote(ctx, playID, lineID)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO notes (play_id, line_id, body, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (play_id, line_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		playID,
		lineID,
		note.Body,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put note: %w", err)
	}
	return nil
}

// GetNote returns one note. Returns storage.ErrNotFound when absent.
func (s *Store) GetNote(ctx context.Context, playID, lineID string) (storage.Note, error) {
	if err := ctx.Err(); err != nil {
		return storage.Note{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Note{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT play_id, line_id, body FROM notes WHERE play_id = ? AND line_id = ?`,
		strings.TrimSpace(playID),
		strings.TrimSpace(lineID),
	)

	var note storage.Note
	if err := row.Scan(&note.PlayID, &note.LineID, &note.Body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Note{}, storage.ErrNotFound
		}
		return storage.Note{}, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// ListNotes returns all notes for a play ordered by line ID.
func (s *Store) ListNotes(ctx context.Context, playID string) ([]storage.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT play_id, line_id, body FROM notes WHERE play_id = ? ORDER BY line_id ASC`,
		strings.TrimSpace(playID),
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []storage.Note
	for rows.Next() {
		var note storage.Note
		if err := rows.Scan(&note.PlayID, &note.LineID, &note.Body); err != nil {
			return nil, fmt.Errorf("list notes: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// DeleteNote removes a note. Deleting an absent note is not an error.
func (s *Store) DeleteNote(ctx context.Context, playID, lineID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM notes WHERE play_id = ? AND line_id = ?`,
		strings.TrimSpace(playID),
		strings.TrimSpace(lineID),
	)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

var _ storage.PlayStore = (*Store)(nil)
var _ storage.NoteStore = (*Store)(nil)
