package tracker

import (
	"testing"
	"time"

	"trendwatch/model"
)

func item(title, url, platform string, rank int, at time.Time) model.RawItem {
	return model.RawItem{Title: title, URL: url, PlatformID: platform, Rank: rank, CapturedAt: at}
}

func TestAdd_MergesSameIdentity(t *testing.T) {
	tr := New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tr.Add(item("示例新闻", "http://x", "weibo", 5, base))
	tr.Add(item("示例新闻", "http://x", "weibo", 3, base.Add(30*time.Minute)))
	tr.Add(item("示例新闻", "http://x", "weibo", 3, base.Add(time.Hour)))

	if tr.Len() != 1 {
		t.Fatalf("expected 1 story, got %d", tr.Len())
	}
	story := tr.Stories()[0]
	if story.Occurrences() != 3 {
		t.Errorf("expected 3 occurrences, got %d", story.Occurrences())
	}
	if story.BestRank() != 3 {
		t.Errorf("expected best rank 3, got %d", story.BestRank())
	}
	if !story.FirstSeen.Equal(base) {
		t.Errorf("expected first seen %v, got %v", base, story.FirstSeen)
	}
}

func TestAdd_DistinctURLsAreDistinctStories(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.Add(item("同名新闻", "http://a", "weibo", 1, now))
	tr.Add(item("同名新闻", "http://b", "zhihu", 2, now))

	if tr.Len() != 2 {
		t.Fatalf("identical titles with different URLs must stay distinct, got %d stories", tr.Len())
	}
}

func TestAdd_EmptyURLFallsBackToTitleIdentity(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.Add(item("无链接新闻", "", "weibo", 4, now))
	tr.Add(item("无链接新闻", "", "zhihu", 7, now.Add(time.Minute)))

	if tr.Len() != 1 {
		t.Fatalf("empty-URL items with the same title must merge, got %d stories", tr.Len())
	}
	story := tr.Stories()[0]
	if story.Occurrences() != 2 {
		t.Errorf("expected 2 occurrences, got %d", story.Occurrences())
	}
	// Platform of the first sighting wins.
	if story.PlatformID != "weibo" {
		t.Errorf("expected platform weibo, got %s", story.PlatformID)
	}
}

func TestAdd_IdenticalSightingsAreNotDeduplicated(t *testing.T) {
	tr := New()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tr.Add(item("重复抓取", "http://x", "weibo", 2, at))
	tr.Add(item("重复抓取", "http://x", "weibo", 2, at))

	if got := tr.Stories()[0].Occurrences(); got != 2 {
		t.Errorf("identical sightings must both be kept, got %d", got)
	}
}

func TestAdd_TracksBestRankPerPlatform(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.Add(item("跨平台新闻", "http://x", "weibo", 5, now))
	tr.Add(item("跨平台新闻", "http://x", "weibo", 2, now.Add(time.Minute)))
	tr.Add(item("跨平台新闻", "http://x", "zhihu", 8, now.Add(2*time.Minute)))

	story := tr.Stories()[0]
	if story.PlatformBestRank["weibo"] != 2 {
		t.Errorf("weibo best rank = %d, want 2", story.PlatformBestRank["weibo"])
	}
	if story.PlatformBestRank["zhihu"] != 8 {
		t.Errorf("zhihu best rank = %d, want 8", story.PlatformBestRank["zhihu"])
	}
}

func TestStories_PreservesFirstSeenOrder(t *testing.T) {
	tr := New()
	now := time.Now()

	tr.Add(item("first", "http://1", "p", 1, now))
	tr.Add(item("second", "http://2", "p", 2, now))
	tr.Add(item("first", "http://1", "p", 3, now.Add(time.Minute)))
	tr.Add(item("third", "http://3", "p", 4, now.Add(time.Minute)))

	stories := tr.Stories()
	want := []string{"first", "second", "third"}
	if len(stories) != len(want) {
		t.Fatalf("expected %d stories, got %d", len(want), len(stories))
	}
	for i, title := range want {
		if stories[i].Identity.Title != title {
			t.Errorf("story %d = %q, want %q", i, stories[i].Identity.Title, title)
		}
	}
}
