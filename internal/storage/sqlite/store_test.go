package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/probenraum/souffleur/internal/script/domain"
	"github.com/probenraum/souffleur/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "souffleur.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestPutScriptRoundTripPreservesOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutPlay(ctx, storage.Play{ID: "probe", Name: "Die Probe"}); err != nil {
		t.Fatalf("PutPlay: %v", err)
	}

	script := domain.Script{
		Rows: []domain.Row{
			{Scene: "1", Category: domain.CategorySceneStart, Text: "Szene 1"},
			{Scene: "1", Category: domain.CategoryActorLine, Character: "ANNA", Microphone: "3", Text: "Hallo"},
			{Scene: "1", Category: domain.CategoryStageDirection, Character: "BERT", Text: "BERT tritt auf"},
		},
		Actors: []domain.Actor{
			{Role: "ANNA", Name: "A. Beispiel"},
			{Role: "BERT", Name: "B. Beispiel"},
		},
	}
	if err := store.PutScript(ctx, "probe", script); err != nil {
		t.Fatalf("PutScript: %v", err)
	}

	got, err := store.GetScript(ctx, "probe")
	if err != nil {
		t.Fatalf("GetScript: %v", err)
	}
	if len(got.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got.Rows))
	}
	for i := range script.Rows {
		if got.Rows[i] != script.Rows[i] {
			t.Fatalf("row %d = %+v, want %+v", i, got.Rows[i], script.Rows[i])
		}
	}
	if len(got.Actors) != 2 || got.Actors[0].Role != "ANNA" || got.Actors[1].Role != "BERT" {
		t.Fatalf("unexpected actors %+v", got.Actors)
	}
}

func TestPutScriptReplacesPreviousRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutPlay(ctx, storage.Play{ID: "probe"}); err != nil {
		t.Fatalf("PutPlay: %v", err)
	}
	first := domain.Script{Rows: []domain.Row{
		{Scene: "1", Category: domain.CategoryActorLine, Character: "ANNA", Text: "Alt"},
		{Scene: "1", Category: domain.CategoryActorLine, Character: "BERT", Text: "Alt"},
	}}
	if err := store.PutScript(ctx, "probe", first); err != nil {
		t.Fatalf("PutScript: %v", err)
	}

	second := domain.Script{Rows: []domain.Row{
		{Scene: "1", Category: domain.CategoryActorLine, Character: "ANNA", Text: "Neu"},
	}}
	if err := store.PutScript(ctx, "probe", second); err != nil {
		t.Fatalf("PutScript replace: %v", err)
	}

	got, err := store.GetScript(ctx, "probe")
	if err != nil {
		t.Fatalf("GetScript: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].Text != "Neu" {
		t.Fatalf("expected replaced script, got %+v", got.Rows)
	}
}

func TestGetScriptNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetScript(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPlaysOrdersByName(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, play := range []storage.Play{
		{ID: "z", Name: "Zwischenspiel"},
		{ID: "a", Name: "Abendstück"},
	} {
		if err := store.PutPlay(ctx, play); err != nil {
			t.Fatalf("PutPlay(%s): %v", play.ID, err)
		}
	}

	plays, err := store.ListPlays(ctx)
	if err != nil {
		t.Fatalf("ListPlays: %v", err)
	}
	if len(plays) != 2 || plays[0].ID != "a" || plays[1].ID != "z" {
		t.Fatalf("unexpected order %+v", plays)
	}
}

func TestNoteLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	note := storage.Note{PlayID: "probe", LineID: "1-ANNA-4-12", Body: "lauter sprechen"}
	if err := store.PutNote(ctx, note); err != nil {
		t.Fatalf("PutNote: %v", err)
	}

	got, err := store.GetNote(ctx, "probe", "1-ANNA-4-12")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Body != "lauter sprechen" {
		t.Fatalf("unexpected note %+v", got)
	}

	note.Body = "leiser"
	if err := store.PutNote(ctx, note); err != nil {
		t.Fatalf("PutNote update: %v", err)
	}
	got, err = store.GetNote(ctx, "probe", "1-ANNA-4-12")
	if err != nil {
		t.Fatalf("GetNote after update: %v", err)
	}
	if got.Body != "leiser" {
		t.Fatalf("expected updated body, got %q", got.Body)
	}

	notes, err := store.ListNotes(ctx, "probe")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}

	if err := store.DeleteNote(ctx, "probe", "1-ANNA-4-12"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := store.GetNote(ctx, "probe", "1-ANNA-4-12"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteNote(ctx, "probe", "1-ANNA-4-12"); err != nil {
		t.Fatalf("DeleteNote absent: %v", err)
	}
}

func TestPutNoteEmptyBodyDeletes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	note := storage.Note{PlayID: "probe", LineID: "2-BERT-0-5", Body: "Pause"}
	if err := store.PutNote(ctx, note); err != nil {
		t.Fatalf("PutNote: %v", err)
	}
	note.Body = "  "
	if err := store.PutNote(ctx, note); err != nil {
		t.Fatalf("PutNote empty body: %v", err)
	}
	if _, err := store.GetNote(ctx, "probe", "2-BERT-0-5"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected note deleted, got %v", err)
	}
}
