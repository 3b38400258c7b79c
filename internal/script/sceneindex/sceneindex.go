// Package sceneindex derives scene boundaries, per-scene casts, and scene
// availability from an ordered transcript.
package sceneindex

import (
	"math"
	"sort"
	"strings"

	"github.com/probenraum/souffleur/internal/script/domain"
)

// Boundary is the extent of one scene: the maximal contiguous run of rows
// carrying its identifier. Rows with an empty scene value continue the scene
// that precedes them.
type Boundary struct {
	ID    string
	Start int
	End   int
}

// Boundaries returns scene extents in script order. Rows before the first
// scene identifier belong to no scene and are not covered by any boundary.
func Boundaries(rows []domain.Row) []Boundary {
	var boundaries []Boundary
	current := ""

	for i, row := range rows {
		scene := strings.TrimSpace(row.Scene)
		if scene == "" || scene == current {
			continue
		}
		if len(boundaries) > 0 {
			boundaries[len(boundaries)-1].End = i - 1
		}
		current = scene
		boundaries = append(boundaries, Boundary{ID: scene, Start: i, End: len(rows) - 1})
	}

	return boundaries
}

// ActorsInScene returns the unique character names appearing in a scene, in
// order of first appearance. Names are trimmed but not canonicalized so the
// result matches the roster spelling.
func ActorsInScene(rows []domain.Row, sceneID string) []string {
	var actors []string
	seen := make(map[string]struct{})

	for _, boundary := range Boundaries(rows) {
		if boundary.ID != sceneID {
			continue
		}
		for i := boundary.Start; i <= boundary.End && i < len(rows); i++ {
			name := strings.TrimSpace(rows[i].Character)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			actors = append(actors, name)
		}
	}

	return actors
}

// Availability describes whether a scene can be rehearsed with the actors at
// hand.
type Availability struct {
	Percentage int
	Missing    []string
	Playable   bool
}

// SceneAvailability computes how much of a scene's cast is present. A scene
// with no actors is fully playable.
func SceneAvailability(sceneActors []string, present map[string]bool) Availability {
	if len(sceneActors) == 0 {
		return Availability{Percentage: 100, Playable: true}
	}

	presentCount := 0
	var missing []string
	for _, actor := range sceneActors {
		if present[actor] {
			presentCount++
		} else {
			missing = append(missing, actor)
		}
	}

	percentage := int(math.Round(float64(presentCount) / float64(len(sceneActors)) * 100))
	return Availability{
		Percentage: percentage,
		Missing:    missing,
		Playable:   len(missing) == 0,
	}
}

// UniqueActors returns every character name seen inside an actual scene,
// sorted lexically. Front-matter rows are skipped.
func UniqueActors(rows []domain.Row) []string {
	seen := make(map[string]struct{})
	var actors []string
	for _, row := range rows {
		if !domain.InPlay(row.Scene) {
			continue
		}
		name := strings.TrimSpace(row.Character)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		actors = append(actors, name)
	}
	sort.Strings(actors)
	return actors
}
