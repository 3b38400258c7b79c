package visibility

import (
	"testing"

	"github.com/probenraum/souffleur/internal/script/domain"
)

func actorLine(character string) domain.Row {
	return domain.Row{Scene: "1", Category: domain.CategoryActorLine, Character: character, Text: "…"}
}

func technical() domain.Row {
	return domain.Row{Scene: "1", Category: domain.CategoryTechnical, Text: "Nebelmaschine"}
}

func TestComputeDirectVisibility(t *testing.T) {
	rows := []domain.Row{
		actorLine("ANNA"),
		technical(),
		{Scene: "1", Category: domain.CategoryLighting, Text: "Blau"},
	}
	config := Config{
		ActorText: true,
		Technical: Filter{Enabled: false},
		Lighting:  Filter{Enabled: true},
	}

	states := Compute(rows, config)
	if !states[0].Shown {
		t.Fatal("expected actor line shown")
	}
	if states[1].Rendered() {
		t.Fatal("expected disabled technical row hidden")
	}
	if !states[2].Shown {
		t.Fatal("expected lighting row shown")
	}
}

func TestComputeContextSymmetry(t *testing.T) {
	rows := make([]domain.Row, 7)
	for i := range rows {
		rows[i] = actorLine("ANNA")
	}
	rows[3] = technical()

	config := Config{Technical: Filter{Enabled: true, Context: 2}}
	states := Compute(rows, config)

	for i := 1; i <= 5; i++ {
		if !states[i].Rendered() {
			t.Fatalf("expected row %d rendered inside radius", i)
		}
	}
	if states[0].Rendered() || states[6].Rendered() {
		t.Fatal("expected rows outside radius hidden")
	}
	for _, i := range []int{1, 2, 4, 5} {
		if !states[i].Deemphasized() {
			t.Fatalf("expected row %d de-emphasized context", i)
		}
	}
	if states[3].Deemphasized() {
		t.Fatal("expected the shown row itself not de-emphasized")
	}
}

func TestComputeZeroRadiusNoBleed(t *testing.T) {
	rows := []domain.Row{actorLine("ANNA"), technical(), actorLine("BERT")}
	config := Config{Technical: Filter{Enabled: true, Context: 0}}

	states := Compute(rows, config)
	if states[0].Rendered() || states[2].Rendered() {
		t.Fatal("expected no context bleed at radius 0")
	}
	if !states[1].Shown {
		t.Fatal("expected technical row shown")
	}
}

func TestComputeShownWinsOverContext(t *testing.T) {
	rows := []domain.Row{technical(), technical()}
	config := Config{Technical: Filter{Enabled: true, Context: 1}}

	states := Compute(rows, config)
	for i, state := range states {
		if !state.Shown {
			t.Fatalf("expected row %d shown", i)
		}
		if state.Deemphasized() {
			t.Fatalf("expected row %d not de-emphasized while shown", i)
		}
	}
}

func TestComputeSceneStartAlwaysExcluded(t *testing.T) {
	rows := []domain.Row{
		technical(),
		{Scene: "1", Category: domain.CategorySceneStart, Text: "Szene 1: Auf dem Markt"},
		technical(),
	}
	config := Config{Technical: Filter{Enabled: true, Context: 3}}

	states := Compute(rows, config)
	if states[1].Rendered() {
		t.Fatal("expected scene-start row excluded even inside a context radius")
	}
}

func TestComputeUnrecognizedCategoryFailsClosed(t *testing.T) {
	rows := []domain.Row{{Scene: "1", Category: "Einblendung", Text: "Logo"}}

	states := Compute(rows, ShowAll())
	if states[0].Shown {
		t.Fatal("expected unrecognized category hidden by every toggle")
	}
}

func TestComputeActorLineRequiresCharacter(t *testing.T) {
	rows := []domain.Row{{Scene: "1", Category: domain.CategoryActorLine, Text: "…"}}

	states := Compute(rows, ShowAll())
	if states[0].Shown {
		t.Fatal("expected characterless actor line hidden")
	}
}

func TestComputeSynthesizedCuesFollowMicrophoneFilter(t *testing.T) {
	rows := []domain.Row{{
		Scene:       "1",
		Category:    domain.CategoryMicrophone,
		Text:        "ANNA EIN",
		Synthesized: true,
		CuePolarity: domain.CueOn,
	}}

	states := Compute(rows, Config{Microphone: Filter{Enabled: true}})
	if !states[0].Shown {
		t.Fatal("expected synthesized cue governed by the microphone filter")
	}
}
