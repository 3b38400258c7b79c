// Package miccue augments a transcript with inferred microphone cues.
//
// For every actor speaking in a scene the deriver finds the stage direction
// announcing their entrance and the one announcing their exit, then splices a
// synthesized "EIN" cue after the entrance and an "AUS" cue after the exit.
// Actors sharing an anchor share one cue row, so a transition point stays a
// single line no matter how many actors cross it.
package miccue

import (
	"strings"

	"github.com/probenraum/souffleur/internal/script/domain"
	"github.com/probenraum/souffleur/internal/script/sceneindex"
)

type speakingInterval struct {
	actor     string
	firstLine int
	lastLine  int
	mic       string
}

type cueGroup struct {
	on  []speakingInterval
	off []speakingInterval
}

// Derive returns the transcript with synthesized microphone cue rows spliced
// in. The input is never mutated; every source row appears in the output in
// its original relative order. Synthesized rows already present in the input
// are discarded and regenerated, which makes Derive idempotent.
func Derive(rows []domain.Row) []domain.Row {
	source := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		if row.Synthesized {
			continue
		}
		source = append(source, row)
	}
	if len(source) == 0 {
		return source
	}

	boundaries := sceneindex.Boundaries(source)

	result := make([]domain.Row, 0, len(source))
	emitted := 0
	for _, boundary := range boundaries {
		// Front matter between scenes is carried over verbatim.
		result = append(result, source[emitted:boundary.Start]...)
		result = append(result, deriveScene(source, boundary)...)
		emitted = boundary.End + 1
	}
	result = append(result, source[emitted:]...)

	return result
}

func deriveScene(rows []domain.Row, boundary sceneindex.Boundary) []domain.Row {
	sceneRows := rows[boundary.Start : boundary.End+1]
	if !domain.InPlay(boundary.ID) {
		return sceneRows
	}

	insertions := make(map[int]*cueGroup)
	for _, interval := range speakingIntervals(rows, boundary) {
		onAnchor := entranceAnchor(rows, boundary.Start, interval)
		offAnchor := exitAnchor(rows, boundary.End, interval)

		group := groupAt(insertions, onAnchor)
		group.on = append(group.on, interval)

		group = groupAt(insertions, offAnchor)
		group.off = append(group.off, interval)
	}

	result := make([]domain.Row, 0, len(sceneRows))
	for i := boundary.Start; i <= boundary.End; i++ {
		result = append(result, rows[i])
		group, ok := insertions[i]
		if !ok {
			continue
		}
		// Entering actors go live before exiting actors are muted.
		if len(group.on) > 0 {
			result = append(result, cueRow(boundary.ID, group.on, domain.CueOn))
		}
		if len(group.off) > 0 {
			result = append(result, cueRow(boundary.ID, group.off, domain.CueOff))
		}
	}
	return result
}

// speakingIntervals collects, in order of first appearance, every actor with
// at least one spoken line inside the boundary, their first and last line,
// and the microphone number last seen for them.
func speakingIntervals(rows []domain.Row, boundary sceneindex.Boundary) []speakingInterval {
	var intervals []speakingInterval
	index := make(map[string]int)

	for i := boundary.Start; i <= boundary.End; i++ {
		row := rows[i]
		if !domain.IsActorLine(row.Category) {
			continue
		}
		actor := domain.CanonicalActor(row.Character)
		if actor == "" {
			continue
		}

		at, ok := index[actor]
		if !ok {
			index[actor] = len(intervals)
			intervals = append(intervals, speakingInterval{
				actor:     actor,
				firstLine: i,
				lastLine:  i,
				mic:       strings.TrimSpace(row.Microphone),
			})
			continue
		}
		intervals[at].lastLine = i
		if mic := strings.TrimSpace(row.Microphone); mic != "" {
			intervals[at].mic = mic
		}
	}

	return intervals
}

// entranceAnchor scans backward from the first spoken line for the nearest
// stage direction mentioning the actor. Without one the scene start anchors
// the cue.
func entranceAnchor(rows []domain.Row, sceneStart int, interval speakingInterval) int {
	for i := interval.firstLine - 1; i >= sceneStart; i-- {
		if domain.IsStageDirection(rows[i].Category) && domain.MentionsActor(rows[i].Text, interval.actor) {
			return i
		}
	}
	return sceneStart
}

// exitAnchor scans forward from the last spoken line for the nearest stage
// direction mentioning the actor. Without one the last line anchors the cue.
func exitAnchor(rows []domain.Row, sceneEnd int, interval speakingInterval) int {
	for i := interval.lastLine + 1; i <= sceneEnd; i++ {
		if domain.IsStageDirection(rows[i].Category) && domain.MentionsActor(rows[i].Text, interval.actor) {
			return i
		}
	}
	return interval.lastLine
}

func groupAt(insertions map[int]*cueGroup, anchor int) *cueGroup {
	group, ok := insertions[anchor]
	if !ok {
		group = &cueGroup{}
		insertions[anchor] = group
	}
	return group
}

func cueRow(scene string, intervals []speakingInterval, polarity domain.CuePolarity) domain.Row {
	parts := make([]string, 0, len(intervals))
	for _, interval := range intervals {
		if interval.mic != "" {
			parts = append(parts, interval.actor+" ("+interval.mic+")")
		} else {
			parts = append(parts, interval.actor)
		}
	}

	return domain.Row{
		Scene:       scene,
		Category:    domain.CategoryMicrophone,
		Text:        strings.Join(parts, ", ") + " " + string(polarity),
		Synthesized: true,
		CuePolarity: polarity,
	}
}
