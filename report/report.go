// Package report renders aggregated run reports for each notification
// channel and writes the HTML file report.
package report

import (
	"fmt"
	"sort"
	"strings"

	"trendwatch/model"
)

// Format selects the markup conventions of a destination channel.
type Format string

const (
	FormatHTML     Format = "html"
	FormatTelegram Format = "telegram"
	FormatFeishu   Format = "feishu"
	FormatDingTalk Format = "dingtalk"
	FormatWeWork   Format = "wework"
	FormatNtfy     Format = "ntfy"
)

var modeLabels = map[model.Mode]string{
	model.ModeDaily:       "当日汇总",
	model.ModeCurrent:     "当前榜单",
	model.ModeIncremental: "增量监控",
}

// ModeLabel returns the display label for a run mode.
func ModeLabel(mode model.Mode) string {
	if label, ok := modeLabels[mode]; ok {
		return label
	}
	return string(mode)
}

// RankDisplay formats a story's rank history as "[best]" or "[best - worst]"
// over the distinct ranks it held, highlighted in the channel's markup when
// the best rank is at or above the threshold.
func RankDisplay(ranks []int, threshold int, format Format) string {
	if len(ranks) == 0 {
		return ""
	}

	unique := make([]int, 0, len(ranks))
	seen := make(map[int]bool, len(ranks))
	for _, r := range ranks {
		if !seen[r] {
			seen[r] = true
			unique = append(unique, r)
		}
	}
	sort.Ints(unique)

	minRank := unique[0]
	maxRank := unique[len(unique)-1]

	text := fmt.Sprintf("[%d]", minRank)
	if minRank != maxRank {
		text = fmt.Sprintf("[%d - %d]", minRank, maxRank)
	}

	if minRank > threshold {
		return text
	}

	switch format {
	case FormatHTML:
		return "<font color='red'><strong>" + text + "</strong></font>"
	case FormatFeishu:
		return "<font color='red'>**" + text + "**</font>"
	case FormatTelegram:
		return "<b>" + text + "</b>"
	case FormatNtfy:
		return text
	default: // dingtalk, wework
		return "**" + text + "**"
	}
}

// storyRanks flattens a story's sighting ranks.
func storyRanks(s *model.Story) []int {
	ranks := make([]int, 0, len(s.Sightings))
	for _, sg := range s.Sightings {
		ranks = append(ranks, sg.Rank)
	}
	return ranks
}

// storyLine renders one story entry for a text channel.
func storyLine(idx int, s *model.Story, threshold int, format Format) string {
	rankText := RankDisplay(storyRanks(s), threshold, format)
	title := s.Identity.Title
	url := s.Identity.URL

	switch format {
	case FormatTelegram:
		if url != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, url, escapeHTML(s.Identity.Title))
		} else {
			title = escapeHTML(title)
		}
	case FormatFeishu, FormatDingTalk, FormatWeWork:
		if url != "" {
			title = fmt.Sprintf("[%s](%s)", title, url)
		}
	case FormatNtfy:
		if url != "" {
			title = fmt.Sprintf("%s (%s)", title, url)
		}
	}

	line := fmt.Sprintf("%d. %s %s", idx, title, rankText)
	if n := s.Occurrences(); n > 1 {
		line += fmt.Sprintf(" (%d次)", n)
	}
	return line
}

// Render produces the full notification text for one channel.
func Render(report model.RunReport, threshold int, format Format) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s · %s", ModeLabel(report.Mode), report.GeneratedAt.Format("2006-01-02 15:04"))
	switch format {
	case FormatTelegram:
		fmt.Fprintf(&sb, "<b>%s</b>\n\n", header)
	case FormatNtfy:
		fmt.Fprintf(&sb, "%s\n\n", header)
	default:
		fmt.Fprintf(&sb, "**%s**\n\n", header)
	}

	for _, group := range report.Groups {
		if len(group.Stories) == 0 {
			continue
		}
		label := fmt.Sprintf("%s (%.1f%%)", group.GroupLabel, group.Percentage)
		switch format {
		case FormatTelegram:
			fmt.Fprintf(&sb, "<b>%s</b>\n", escapeHTML(label))
		case FormatNtfy:
			fmt.Fprintf(&sb, "%s\n", label)
		default:
			fmt.Fprintf(&sb, "**%s**\n", label)
		}

		for i, story := range group.Stories {
			sb.WriteString(storyLine(i+1, story, threshold, format))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	if len(report.FailedSources) > 0 {
		fmt.Fprintf(&sb, "抓取失败: %s\n", strings.Join(report.FailedSources, ", "))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
