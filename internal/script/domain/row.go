package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category labels a transcript row. The values are the German labels used by
// the script source; unrecognized values are preserved as-is, never rejected.
type Category = string

const (
	// CategoryActorLine is a spoken line.
	CategoryActorLine Category = "Schauspieltext"
	// CategoryActorLineAlt is the legacy label some exports use for spoken lines.
	CategoryActorLineAlt Category = "Schauspieler"
	// CategoryStageDirection is a stage direction.
	CategoryStageDirection Category = "Anweisung"
	// CategoryStageDirectionAlt is the long-form stage direction label.
	CategoryStageDirectionAlt Category = "Regieanweisung"
	// CategorySceneStart carries the scene synopsis; it is never rendered inline.
	CategorySceneStart Category = "Szenenbeginn"
	// CategoryTechnical is a technical cue.
	CategoryTechnical Category = "Technik"
	// CategoryLighting is a lighting cue.
	CategoryLighting Category = "Licht"
	// CategoryAudio is a sound or playback cue.
	CategoryAudio Category = "Einspieler"
	// CategoryProps is a prop handling note.
	CategoryProps Category = "Requisite"
	// CategoryMicrophone is a microphone cue, synthesized or hand-written.
	CategoryMicrophone Category = "Mikrofon"
)

// CuePolarity distinguishes microphone-on from microphone-off cues.
type CuePolarity string

const (
	// CueOn marks microphones live.
	CueOn CuePolarity = "EIN"
	// CueOff marks microphones muted.
	CueOff CuePolarity = "AUS"
)

// Row is one transcript unit. The JSON field names follow the script source
// contract so loaded rows round-trip without translation.
type Row struct {
	Scene      string   `json:"Szene"`
	Category   Category `json:"Kategorie"`
	Character  string   `json:"Charakter"`
	Microphone string   `json:"Mikrofon"`
	Text       string   `json:"Text/Anweisung"`

	// Synthesized marks rows inserted by cue derivation rather than loaded
	// from the source. CuePolarity is only meaningful on synthesized rows.
	Synthesized bool        `json:"isAutoMic,omitempty"`
	CuePolarity CuePolarity `json:"micCueType,omitempty"`
}

// IsActorLine reports whether the category denotes a spoken line.
func IsActorLine(category Category) bool {
	return category == CategoryActorLine || category == CategoryActorLineAlt
}

// IsStageDirection reports whether the category denotes a stage direction.
func IsStageDirection(category Category) bool {
	return category == CategoryStageDirection || category == CategoryStageDirectionAlt
}

// InPlay reports whether a scene identifier denotes an actual scene. Empty
// identifiers and non-positive numbers mark front matter, which is excluded
// from scene-keyed features.
func InPlay(scene string) bool {
	scene = strings.TrimSpace(scene)
	if scene == "" {
		return false
	}
	if n, err := strconv.Atoi(scene); err == nil {
		return n > 0
	}
	return true
}

var parenthetical = regexp.MustCompile(`\(.*\)`)

var upperGerman = cases.Upper(language.German)

// CanonicalActor normalizes a character name for cross-row comparison:
// parenthetical notes are stripped, surrounding space trimmed, and the rest
// uppercased with German case mapping.
func CanonicalActor(name string) string {
	name = parenthetical.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return upperGerman.String(name)
}

// MentionsActor reports whether text contains the actor's name as a
// case-insensitive whole word. Entrance and exit cues anchor on the stage
// directions directors already write ("ANNA kommt herein", "ANNA ab").
func MentionsActor(text, actor string) bool {
	if text == "" || actor == "" {
		return false
	}
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(actor) + `\b`)
	if err != nil {
		return false
	}
	return pattern.MatchString(text)
}

// LineID derives the identity key used for per-line notes. The key is built
// from positional data and is known to go stale when cue derivation or script
// edits shift positions or text lengths.
func LineID(scene, character string, position, textLength int) string {
	return fmt.Sprintf("%s-%s-%d-%d", scene, character, position, textLength)
}

// Actor is one roster entry from the script source.
type Actor struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// Script bundles the ordered transcript with the actor roster, matching the
// script source response shape.
type Script struct {
	Rows   []Row   `json:"rows"`
	Actors []Actor `json:"actors"`
}
