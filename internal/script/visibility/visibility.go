// Package visibility classifies transcript rows for rendering under
// per-category filters with context radii.
package visibility

import "github.com/probenraum/souffleur/internal/script/domain"

// Filter configures one category: whether it is shown directly and how many
// neighboring rows it pulls in as context.
type Filter struct {
	Enabled bool
	Context int
}

// Config holds the per-viewer filter settings. Spoken lines share the single
// ActorText toggle; every other known category has its own filter.
type Config struct {
	ActorText  bool
	Directions Filter
	Technical  Filter
	Lighting   Filter
	Audio      Filter
	Props      Filter
	Microphone Filter
}

// LineState is the visibility classification of one row.
type LineState struct {
	// Shown is true when the row's own category filter selects it.
	Shown bool
	// ContextOnly is true when the row is pulled in by a neighbor's radius
	// without being selected itself.
	ContextOnly bool
}

// Rendered reports whether the row appears at all.
func (s LineState) Rendered() bool {
	return s.Shown || s.ContextOnly
}

// Deemphasized reports whether the row renders as context.
func (s LineState) Deemphasized() bool {
	return s.ContextOnly && !s.Shown
}

// Compute classifies every row. It is pure and safe to recompute on every
// configuration change.
//
// Two passes keep context marking independent of row order: the first decides
// direct visibility, the second spreads each shown row's radius. Scene-start
// rows never render; their synopsis is surfaced separately. Unrecognized
// categories fail closed.
func Compute(rows []domain.Row, config Config) []LineState {
	states := make([]LineState, len(rows))

	for i, row := range rows {
		filter, known := config.filterFor(row)
		if !known {
			continue
		}
		states[i].Shown = filter.Enabled
	}

	for i, row := range rows {
		if !states[i].Shown {
			continue
		}
		filter, _ := config.filterFor(row)
		if filter.Context <= 0 {
			continue
		}
		lo := max(0, i-filter.Context)
		hi := min(len(rows)-1, i+filter.Context)
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			if rows[j].Category == domain.CategorySceneStart {
				continue
			}
			states[j].ContextOnly = true
		}
	}

	return states
}

// filterFor resolves the filter governing a row. The second return value is
// false for scene starts, unrecognized categories, and spoken lines without a
// character.
func (c Config) filterFor(row domain.Row) (Filter, bool) {
	switch {
	case domain.IsActorLine(row.Category):
		if row.Character == "" {
			return Filter{}, false
		}
		return Filter{Enabled: c.ActorText}, true
	case domain.IsStageDirection(row.Category):
		return c.Directions, true
	case row.Category == domain.CategoryTechnical:
		return c.Technical, true
	case row.Category == domain.CategoryLighting:
		return c.Lighting, true
	case row.Category == domain.CategoryAudio:
		return c.Audio, true
	case row.Category == domain.CategoryProps:
		return c.Props, true
	case row.Category == domain.CategoryMicrophone:
		return c.Microphone, true
	default:
		return Filter{}, false
	}
}

// ShowAll returns a configuration with every category enabled and no context
// bleed, the default viewer state.
func ShowAll() Config {
	enabled := Filter{Enabled: true}
	return Config{
		ActorText:  true,
		Directions: enabled,
		Technical:  enabled,
		Lighting:   enabled,
		Audio:      enabled,
		Props:      enabled,
		Microphone: enabled,
	}
}
