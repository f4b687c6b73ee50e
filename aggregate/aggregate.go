// Package aggregate orchestrates matching, occurrence tracking, and scoring
// across all configured keyword rules for one run.
package aggregate

import (
	"sort"
	"time"

	"trendwatch/matcher"
	"trendwatch/model"
	"trendwatch/scorer"
	"trendwatch/tracker"
)

// Input carries everything the aggregator needs for one run.
type Input struct {
	Items []model.RawItem // arrival order, already scoped to the mode's window
	Rules []model.KeywordRule
	Mode  model.Mode

	// BatchCount is the number of fetch batches completed in the window,
	// used as the frequency denominator.
	BatchCount int

	FailedSources []string
}

// Run produces the ranked report for one aggregation run. Each rule is
// evaluated independently in configuration order; an item matching several
// rules contributes its full weight to each (groups are topical
// cross-sections, not a partition). Malformed items are skipped and tallied,
// never fatal.
func Run(in Input) model.RunReport {
	report := model.RunReport{
		GeneratedAt:   time.Now(),
		Mode:          in.Mode,
		FailedSources: in.FailedSources,
	}

	valid := make([]model.RawItem, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Title == "" || item.Rank < 1 {
			report.Skipped++
			continue
		}
		valid = append(valid, item)
	}

	distinct := make(map[model.Identity]struct{})

	for _, rule := range in.Rules {
		tr := tracker.New()
		for _, item := range valid {
			if matcher.Match(item.Title, rule) {
				tr.Add(item)
			}
		}

		stories := tr.Stories()
		total := scorer.ScoreGroup(stories, in.BatchCount)
		for _, s := range stories {
			distinct[s.Identity] = struct{}{}
		}

		report.Groups = append(report.Groups, model.GroupResult{
			GroupLabel:    rule.GroupLabel,
			Stories:       stories,
			TotalWeighted: total,
		})
	}

	scorer.ApplyPercentages(report.Groups)

	// Stable sort keeps configuration order for equal totals.
	sort.SliceStable(report.Groups, func(i, j int) bool {
		return report.Groups[i].TotalWeighted > report.Groups[j].TotalWeighted
	})

	report.TotalStories = len(distinct)
	return report
}
