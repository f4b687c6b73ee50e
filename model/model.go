// Package model defines the data structures shared across the aggregation
// pipeline: raw platform items, keyword rules, deduplicated stories, and the
// per-run report handed to renderers and notifiers.
package model

import "time"

// Mode selects the aggregation window and output behavior of a run.
type Mode string

const (
	// ModeDaily aggregates every batch captured since local day start.
	ModeDaily Mode = "daily"
	// ModeCurrent aggregates only the most recent batch.
	ModeCurrent Mode = "current"
	// ModeIncremental aggregates the day window but only surfaces stories
	// that have not been notified before.
	ModeIncremental Mode = "incremental"
)

// Valid reports whether m is one of the three supported run modes.
func (m Mode) Valid() bool {
	return m == ModeDaily || m == ModeCurrent || m == ModeIncremental
}

// RawItem is a single entry reported by a source for one platform at one
// point in time. Items are immutable once produced by a source adapter.
type RawItem struct {
	Title      string
	URL        string
	MobileURL  string
	PlatformID string
	Rank       int // 1 = top of the board
	CapturedAt time.Time
}

// KeywordRule is one configured filter. A title matches iff at least one
// plain term appears (or there are no plain terms), every required term
// appears, and no excluded term appears.
type KeywordRule struct {
	GroupLabel string
	Plain      []string
	Required   []string
	Excluded   []string
}

// Identity is the deduplication key for a story. URL may be empty, in which
// case the title alone identifies the story.
type Identity struct {
	Title string
	URL   string
}

// Sighting is one observation of a story: the rank it held and when.
type Sighting struct {
	Rank       int
	CapturedAt time.Time
}

// Story is a deduplicated item tracked across sightings within a run window.
type Story struct {
	Identity   Identity
	PlatformID string // platform of the first sighting
	MobileURL  string
	FirstSeen  time.Time
	Sightings  []Sighting // chronological, one per sighting

	// PlatformBestRank records the best (lowest) rank observed per platform.
	PlatformBestRank map[string]int

	// Score is the weighted score computed by the scorer.
	Score float64
}

// Occurrences is the number of sightings merged into the story.
func (s *Story) Occurrences() int {
	return len(s.Sightings)
}

// BestRank returns the lowest rank the story ever held, or 0 when the story
// has no sightings.
func (s *Story) BestRank() int {
	best := 0
	for _, sg := range s.Sightings {
		if best == 0 || sg.Rank < best {
			best = sg.Rank
		}
	}
	return best
}

// GroupResult is the aggregated outcome for one keyword rule over one run.
type GroupResult struct {
	GroupLabel    string
	Stories       []*Story
	TotalWeighted float64
	Percentage    float64 // share of the run total, in [0,100]
}

// RunReport is the top-level output of one aggregation run. Groups are
// sorted by TotalWeighted descending; ties keep configuration order.
type RunReport struct {
	GeneratedAt   time.Time
	Mode          Mode
	Groups        []GroupResult
	TotalStories  int // distinct stories across all groups
	Skipped       int // malformed raw items dropped during aggregation
	FailedSources []string
}
