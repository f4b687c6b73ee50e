package aggregate

import (
	"math"
	"testing"
	"time"

	"trendwatch/model"
)

func fixtureItems() []model.RawItem {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []model.RawItem{
		{Title: "AI 芯片突破", URL: "http://a", PlatformID: "weibo", Rank: 1, CapturedAt: at},
		{Title: "AI 芯片突破", URL: "http://a", PlatformID: "weibo", Rank: 2, CapturedAt: at.Add(time.Hour)},
		{Title: "新能源汽车销量", URL: "http://b", PlatformID: "zhihu", Rank: 3, CapturedAt: at},
		{Title: "AI培训班招生", URL: "http://c", PlatformID: "weibo", Rank: 5, CapturedAt: at},
	}
}

func fixtureRules() []model.KeywordRule {
	return []model.KeywordRule{
		{GroupLabel: "AI", Plain: []string{"AI"}, Excluded: []string{"培训"}},
		{GroupLabel: "新能源", Plain: []string{"新能源"}},
	}
}

func TestRun_GroupsAndSorting(t *testing.T) {
	report := Run(Input{
		Items:      fixtureItems(),
		Rules:      fixtureRules(),
		Mode:       model.ModeDaily,
		BatchCount: 2,
	})

	if len(report.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(report.Groups))
	}
	// AI group: one story, best rank 1 → must sort first.
	if report.Groups[0].GroupLabel != "AI" {
		t.Errorf("expected AI group first, got %s", report.Groups[0].GroupLabel)
	}
	if len(report.Groups[0].Stories) != 1 {
		t.Errorf("excluded term leaked into AI group: %d stories", len(report.Groups[0].Stories))
	}
	if report.TotalStories != 2 {
		t.Errorf("expected 2 distinct stories, got %d", report.TotalStories)
	}
	for i := 1; i < len(report.Groups); i++ {
		if report.Groups[i-1].TotalWeighted < report.Groups[i].TotalWeighted {
			t.Errorf("groups not sorted by total weighted count descending")
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	in := Input{Items: fixtureItems(), Rules: fixtureRules(), Mode: model.ModeDaily, BatchCount: 2}

	a := Run(in)
	b := Run(in)

	if len(a.Groups) != len(b.Groups) {
		t.Fatalf("group counts differ: %d vs %d", len(a.Groups), len(b.Groups))
	}
	for i := range a.Groups {
		if a.Groups[i].GroupLabel != b.Groups[i].GroupLabel ||
			a.Groups[i].TotalWeighted != b.Groups[i].TotalWeighted ||
			a.Groups[i].Percentage != b.Groups[i].Percentage ||
			len(a.Groups[i].Stories) != len(b.Groups[i].Stories) {
			t.Errorf("group %d differs between identical runs", i)
		}
	}
	if a.TotalStories != b.TotalStories || a.Skipped != b.Skipped {
		t.Errorf("report totals differ between identical runs")
	}
}

func TestRun_PercentageClosure(t *testing.T) {
	report := Run(Input{Items: fixtureItems(), Rules: fixtureRules(), Mode: model.ModeDaily, BatchCount: 2})

	sum := 0.0
	for _, g := range report.Groups {
		sum += g.Percentage
	}
	if math.Abs(sum-100) > 1e-6 {
		t.Errorf("percentage shares sum to %.8f, want 100", sum)
	}
}

func TestRun_MultiGroupCounting(t *testing.T) {
	at := time.Now()
	items := []model.RawItem{
		{Title: "AI 芯片新品发布", URL: "http://x", PlatformID: "weibo", Rank: 1, CapturedAt: at},
	}
	rules := []model.KeywordRule{
		{GroupLabel: "AI", Plain: []string{"AI"}},
		{GroupLabel: "芯片", Plain: []string{"芯片"}},
	}

	report := Run(Input{Items: items, Rules: rules, Mode: model.ModeDaily, BatchCount: 1})

	// The single story matches both rules and contributes its full score to each.
	if report.Groups[0].TotalWeighted != report.Groups[1].TotalWeighted {
		t.Errorf("multi-group story must carry full weight in each group: %.4f vs %.4f",
			report.Groups[0].TotalWeighted, report.Groups[1].TotalWeighted)
	}
	if report.Groups[0].Percentage != 50 || report.Groups[1].Percentage != 50 {
		t.Errorf("expected 50/50 shares, got %.2f/%.2f",
			report.Groups[0].Percentage, report.Groups[1].Percentage)
	}
	if report.TotalStories != 1 {
		t.Errorf("distinct story count = %d, want 1", report.TotalStories)
	}
}

func TestRun_EqualTotalsKeepConfigurationOrder(t *testing.T) {
	at := time.Now()
	items := []model.RawItem{
		{Title: "alpha topic", URL: "http://1", PlatformID: "p", Rank: 2, CapturedAt: at},
		{Title: "beta topic", URL: "http://2", PlatformID: "p", Rank: 2, CapturedAt: at},
	}
	rules := []model.KeywordRule{
		{GroupLabel: "second-configured", Plain: []string{"beta"}},
		{GroupLabel: "first-configured", Plain: []string{"alpha"}},
	}

	report := Run(Input{Items: items, Rules: rules, Mode: model.ModeCurrent, BatchCount: 1})

	if report.Groups[0].GroupLabel != "second-configured" {
		t.Errorf("tie must preserve configuration order, got %s first", report.Groups[0].GroupLabel)
	}
}

func TestRun_MalformedItemsSkipped(t *testing.T) {
	at := time.Now()
	items := []model.RawItem{
		{Title: "", URL: "http://1", PlatformID: "p", Rank: 1, CapturedAt: at},
		{Title: "valid AI story", URL: "http://2", PlatformID: "p", Rank: 0, CapturedAt: at},
		{Title: "valid AI story", URL: "http://2", PlatformID: "p", Rank: 3, CapturedAt: at},
	}
	rules := []model.KeywordRule{{GroupLabel: "AI", Plain: []string{"AI"}}}

	report := Run(Input{Items: items, Rules: rules, Mode: model.ModeDaily, BatchCount: 1})

	if report.Skipped != 2 {
		t.Errorf("skipped tally = %d, want 2", report.Skipped)
	}
	if len(report.Groups[0].Stories) != 1 {
		t.Errorf("expected the one well-formed item to survive, got %d stories", len(report.Groups[0].Stories))
	}
}

func TestRun_EmptyRuleSet(t *testing.T) {
	report := Run(Input{Items: fixtureItems(), Mode: model.ModeDaily, BatchCount: 1})

	if len(report.Groups) != 0 {
		t.Errorf("empty rule set must yield zero groups, got %d", len(report.Groups))
	}
	if report.TotalStories != 0 {
		t.Errorf("expected no tracked stories, got %d", report.TotalStories)
	}
}
