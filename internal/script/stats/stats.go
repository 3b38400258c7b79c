// Package stats aggregates per-actor speaking statistics for a transcript.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/probenraum/souffleur/internal/script/domain"
)

// Ensemble names and song markers that would skew per-actor numbers.
var blacklist = map[string]struct{}{
	"OFFTEXT": {},
	"ALLE":    {},
	"LIED":    {},
	"[LIED]":  {},
	"CHOR":    {},
}

// ActorStats summarizes one actor's share of the script.
type ActorStats struct {
	Name        string  `json:"name"`
	Occurrences int     `json:"occurrences"`
	Words       int     `json:"words"`
	Percent     float64 `json:"percent"`
}

// ScriptStats summarizes a whole transcript.
type ScriptStats struct {
	Actors      []ActorStats `json:"actors"`
	TotalActors int          `json:"totalActors"`
	TotalWords  int          `json:"totalWords"`
	TotalScenes int          `json:"totalScenes"`
	AvgWords    int          `json:"avgWords"`
}

// Calculate tallies spoken lines per canonicalized actor, sorted by word
// count descending. Ensemble markers are excluded.
func Calculate(rows []domain.Row) ScriptStats {
	type tally struct {
		occurrences int
		words       int
	}
	actors := make(map[string]*tally)
	scenes := make(map[string]struct{})

	for _, row := range rows {
		if strings.TrimSpace(row.Scene) != "" {
			scenes[strings.TrimSpace(row.Scene)] = struct{}{}
		}
		if !domain.IsActorLine(row.Category) {
			continue
		}
		actor := domain.CanonicalActor(row.Character)
		if actor == "" {
			continue
		}
		if _, banned := blacklist[actor]; banned {
			continue
		}

		words := len(strings.Fields(row.Text))
		entry, ok := actors[actor]
		if !ok {
			entry = &tally{}
			actors[actor] = entry
		}
		entry.occurrences++
		entry.words += words
	}

	totalWords := 0
	for _, entry := range actors {
		totalWords += entry.words
	}

	result := make([]ActorStats, 0, len(actors))
	for name, entry := range actors {
		percent := 0.0
		if totalWords > 0 {
			percent = math.Round(float64(entry.words)/float64(totalWords)*1000) / 10
		}
		result = append(result, ActorStats{
			Name:        name,
			Occurrences: entry.occurrences,
			Words:       entry.words,
			Percent:     percent,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Words != result[j].Words {
			return result[i].Words > result[j].Words
		}
		return result[i].Name < result[j].Name
	})

	avgWords := 0
	if len(result) > 0 {
		avgWords = int(math.Round(float64(totalWords) / float64(len(result))))
	}

	return ScriptStats{
		Actors:      result,
		TotalActors: len(result),
		TotalWords:  totalWords,
		TotalScenes: len(scenes),
		AvgWords:    avgWords,
	}
}
