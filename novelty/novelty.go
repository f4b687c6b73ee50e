// Package novelty filters an aggregated report down to stories that have not
// been notified in a previous run.
package novelty

import (
	"time"

	"trendwatch/model"
)

// Seen maps previously notified story identities to the time they were first
// notified. Implementations load and persist it through the storage layer;
// this package only consumes it as an in-memory set.
type Seen map[model.Identity]time.Time

// Clone returns an independent copy of s.
func (s Seen) Clone() Seen {
	out := make(Seen, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FilterNew returns a copy of report containing only stories whose identity
// is absent from seen, and the grown seen set including every story in the
// report. Groups left with no new story are dropped entirely. The input
// report and seen set are not modified.
func FilterNew(report model.RunReport, seen Seen, now time.Time) (model.RunReport, Seen) {
	updated := seen.Clone()

	filtered := report
	filtered.Groups = nil

	distinct := make(map[model.Identity]struct{})

	for _, group := range report.Groups {
		var fresh []*model.Story
		for _, story := range group.Stories {
			if _, ok := seen[story.Identity]; !ok {
				fresh = append(fresh, story)
				distinct[story.Identity] = struct{}{}
			}
			if _, ok := updated[story.Identity]; !ok {
				updated[story.Identity] = now
			}
		}
		if len(fresh) == 0 {
			continue
		}

		kept := group
		kept.Stories = fresh
		total := 0.0
		for _, s := range fresh {
			total += s.Score
		}
		kept.TotalWeighted = total
		filtered.Groups = append(filtered.Groups, kept)
	}

	filtered.TotalStories = len(distinct)
	return filtered, updated
}
