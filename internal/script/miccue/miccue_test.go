package miccue

import (
	"reflect"
	"testing"

	"github.com/probenraum/souffleur/internal/script/domain"
)

func direction(scene, text string) domain.Row {
	return domain.Row{Scene: scene, Category: domain.CategoryStageDirection, Text: text}
}

func line(scene, character, text string) domain.Row {
	return domain.Row{Scene: scene, Category: domain.CategoryActorLine, Character: character, Text: text}
}

func lineWithMic(scene, character, mic, text string) domain.Row {
	row := line(scene, character, text)
	row.Microphone = mic
	return row
}

func TestDeriveEntranceAndExitCues(t *testing.T) {
	rows := []domain.Row{
		direction("1", "ANNA kommt herein"),
		line("1", "ANNA", "Hallo"),
	}

	got := Derive(rows)
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(got), got)
	}
	on := got[1]
	if !on.Synthesized || on.Category != domain.CategoryMicrophone || on.CuePolarity != domain.CueOn {
		t.Fatalf("expected EIN cue after entrance direction, got %+v", on)
	}
	if on.Text != "ANNA EIN" {
		t.Fatalf("unexpected EIN cue text %q", on.Text)
	}
	off := got[3]
	if !off.Synthesized || off.CuePolarity != domain.CueOff {
		t.Fatalf("expected AUS cue after last line, got %+v", off)
	}
	if off.Text != "ANNA AUS" {
		t.Fatalf("unexpected AUS cue text %q", off.Text)
	}
}

func TestDeriveGroupsActorsSharingAnchor(t *testing.T) {
	rows := []domain.Row{
		direction("1", "ANNA und BERT treten auf"),
		lineWithMic("1", "Anna", "3", "Hallo"),
		lineWithMic("1", "Bert", "7", "Tag"),
	}

	got := Derive(rows)

	var onCues []domain.Row
	for _, row := range got {
		if row.Synthesized && row.CuePolarity == domain.CueOn {
			onCues = append(onCues, row)
		}
	}
	if len(onCues) != 1 {
		t.Fatalf("expected exactly one EIN cue, got %d", len(onCues))
	}
	if onCues[0].Text != "ANNA (3), BERT (7) EIN" {
		t.Fatalf("unexpected grouped cue text %q", onCues[0].Text)
	}
	if got[1] != onCues[0] {
		t.Fatalf("expected EIN cue immediately after the shared direction, got %+v", got[1])
	}
}

func TestDeriveOnPrecedesOffAtSharedAnchor(t *testing.T) {
	rows := []domain.Row{
		line("1", "ANNA", "Ich gehe."),
		direction("1", "ANNA ab, BERT tritt auf"),
		line("1", "BERT", "Und ich komme."),
	}

	got := Derive(rows)
	// Expected: ANNA line, ANNA EIN (scene-start fallback), direction,
	// BERT EIN, ANNA AUS, BERT line, BERT AUS.
	if len(got) != 7 {
		t.Fatalf("expected 7 rows, got %d: %+v", len(got), got)
	}
	if got[1].CuePolarity != domain.CueOn || got[1].Text != "ANNA EIN" {
		t.Fatalf("expected scene-start EIN fallback, got %+v", got[1])
	}
	if got[3].CuePolarity != domain.CueOn || got[3].Text != "BERT EIN" {
		t.Fatalf("expected BERT EIN before ANNA AUS at shared anchor, got %+v", got[3])
	}
	if got[4].CuePolarity != domain.CueOff || got[4].Text != "ANNA AUS" {
		t.Fatalf("expected ANNA AUS after BERT EIN, got %+v", got[4])
	}
}

func TestDerivePreservesSourceOrder(t *testing.T) {
	rows := []domain.Row{
		{Scene: "", Category: domain.CategoryTechnical, Text: "Saallicht aus"},
		{Scene: "1", Category: domain.CategorySceneStart, Text: "Szene 1"},
		line("1", "ANNA", "Hallo"),
		direction("1", "Umbau"),
		{Scene: "2", Category: domain.CategorySceneStart, Text: "Szene 2"},
		line("2", "BERT", "Tag"),
	}

	got := Derive(rows)

	var sourceRows []domain.Row
	for _, row := range got {
		if !row.Synthesized {
			sourceRows = append(sourceRows, row)
		}
	}
	if !reflect.DeepEqual(sourceRows, rows) {
		t.Fatalf("source rows reordered:\n got %+v\nwant %+v", sourceRows, rows)
	}
}

func TestDeriveIdempotent(t *testing.T) {
	rows := []domain.Row{
		direction("1", "ANNA kommt herein"),
		line("1", "ANNA", "Hallo"),
		line("1", "ANNA", "Noch was"),
	}

	once := Derive(rows)
	twice := Derive(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("derivation not idempotent:\n once %+v\ntwice %+v", once, twice)
	}
}

func TestDeriveSkipsFrontMatterScenes(t *testing.T) {
	rows := []domain.Row{
		line("0", "MODERATOR", "Willkommen"),
		line("1", "ANNA", "Hallo"),
	}

	got := Derive(rows)
	for _, row := range got {
		if row.Synthesized && row.Scene == "0" {
			t.Fatalf("expected no cues for front-matter scene, got %+v", row)
		}
	}
	// ANNA still gets both cues in scene 1.
	cues := 0
	for _, row := range got {
		if row.Synthesized {
			cues++
		}
	}
	if cues != 2 {
		t.Fatalf("expected 2 cues for scene 1, got %d", cues)
	}
}

func TestDeriveLastSeenMicrophoneWins(t *testing.T) {
	rows := []domain.Row{
		lineWithMic("1", "ANNA", "3", "Hallo"),
		lineWithMic("1", "ANNA", "5", "Jetzt auf Funk fünf"),
	}

	got := Derive(rows)
	if got[1].Text != "ANNA (5) EIN" {
		t.Fatalf("expected last-seen mic in cue, got %q", got[1].Text)
	}
}

func TestDeriveEmptyScript(t *testing.T) {
	if got := Derive(nil); len(got) != 0 {
		t.Fatalf("expected empty output, got %+v", got)
	}
}
