// Package tracker collapses repeated sightings of the same story across
// capture batches into one record per identity.
package tracker

import (
	"trendwatch/model"
)

// Tracker merges raw items into stories keyed by (title, url). A missing URL
// falls back to title-only identity, accepting the risk of merging two
// same-titled stories from different platforms that both lack a URL.
type Tracker struct {
	stories map[model.Identity]*model.Story
	order   []model.Identity // insertion order, for deterministic output
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{stories: make(map[model.Identity]*model.Story)}
}

// Add records one sighting. Items must be fed in arrival order; the tracker
// trusts ranks and timestamps verbatim and never deduplicates identical
// sightings (filtering a double-counted fetch is the adapter's job).
func (t *Tracker) Add(item model.RawItem) {
	key := model.Identity{Title: item.Title, URL: item.URL}

	story, ok := t.stories[key]
	if !ok {
		story = &model.Story{
			Identity:         key,
			PlatformID:       item.PlatformID,
			MobileURL:        item.MobileURL,
			FirstSeen:        item.CapturedAt,
			PlatformBestRank: make(map[string]int),
		}
		t.stories[key] = story
		t.order = append(t.order, key)
	}

	story.Sightings = append(story.Sightings, model.Sighting{
		Rank:       item.Rank,
		CapturedAt: item.CapturedAt,
	})

	if best, seen := story.PlatformBestRank[item.PlatformID]; !seen || item.Rank < best {
		story.PlatformBestRank[item.PlatformID] = item.Rank
	}
}

// Stories returns the tracked stories in first-seen order.
func (t *Tracker) Stories() []*model.Story {
	out := make([]*model.Story, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.stories[key])
	}
	return out
}

// Len is the number of distinct stories tracked so far.
func (t *Tracker) Len() int {
	return len(t.stories)
}
