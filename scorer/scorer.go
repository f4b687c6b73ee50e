// Package scorer converts rank histories into weighted story scores and
// group-level shares.
package scorer

import (
	"trendwatch/model"
)

// Fixed blend weights: rank prominence dominates, repetition across batches
// is secondary, cross-platform heat breaks ties.
const (
	RankWeight      = 0.6
	FrequencyWeight = 0.3
	HeatWeight      = 0.1
)

// StoryScore computes the weighted score for one story given the number of
// fetch batches completed in the window. A window with zero batches leaves
// the score undefined and returns 0.
//
//	rank score      = 1 / best rank
//	frequency score = occurrences / batchCount
//	heat score      = 1 / (1 + platforms reporting worse than the best rank)
func StoryScore(story *model.Story, batchCount int) float64 {
	if batchCount <= 0 || story.Occurrences() == 0 {
		return 0
	}

	best := story.BestRank()
	if best < 1 {
		return 0
	}
	rankScore := 1.0 / float64(best)

	frequency := float64(story.Occurrences()) / float64(batchCount)

	return RankWeight*rankScore + FrequencyWeight*frequency + HeatWeight*heat(story, best)
}

// heat rewards stories whose prominence is concentrated: each additional
// platform that only ever reported the story below its best rank dilutes the
// term. A story seen on a single platform scores full heat.
func heat(story *model.Story, best int) float64 {
	if len(story.PlatformBestRank) <= 1 {
		return 1.0
	}
	worse := 0
	for _, rank := range story.PlatformBestRank {
		if rank > best {
			worse++
		}
	}
	return 1.0 / float64(1+worse)
}

// ScoreGroup fills in Score on every story and returns the group's total
// weighted count.
func ScoreGroup(stories []*model.Story, batchCount int) float64 {
	total := 0.0
	for _, story := range stories {
		story.Score = StoryScore(story, batchCount)
		total += story.Score
	}
	return total
}

// ApplyPercentages computes each group's share of the run total. When no
// group matched anything the shares are all 0 rather than NaN.
func ApplyPercentages(groups []model.GroupResult) {
	total := 0.0
	for _, g := range groups {
		total += g.TotalWeighted
	}
	for i := range groups {
		if total > 0 {
			groups[i].Percentage = 100 * groups[i].TotalWeighted / total
		} else {
			groups[i].Percentage = 0
		}
	}
}
