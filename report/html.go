package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"trendwatch/model"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>{{.ModeLabel}} · {{.Generated}}</title>
<style>
body { font-family: -apple-system, "PingFang SC", "Microsoft YaHei", sans-serif; max-width: 760px; margin: 2em auto; color: #222; }
h1 { font-size: 1.3em; border-bottom: 2px solid #e33; padding-bottom: 0.3em; }
h2 { font-size: 1.05em; margin-top: 1.4em; }
.share { color: #888; font-weight: normal; font-size: 0.85em; }
ol { padding-left: 1.5em; }
li { margin: 0.35em 0; }
.hot { color: #e33; font-weight: bold; }
.count { color: #888; font-size: 0.85em; }
.failed { color: #b00; margin-top: 2em; font-size: 0.9em; }
</style>
</head>
<body>
<h1>{{.ModeLabel}} · {{.Generated}}</h1>
{{range .Groups}}
<h2>{{.Label}} <span class="share">{{printf "%.1f%%" .Percentage}}</span></h2>
<ol>
{{range .Stories}}<li>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}} {{if .Hot}}<span class="hot">{{.RankText}}</span>{{else}}{{.RankText}}{{end}}{{if gt .Count 1}} <span class="count">({{.Count}}次)</span>{{end}}</li>
{{end}}</ol>
{{end}}
{{if .Failed}}<p class="failed">抓取失败: {{.Failed}}</p>{{end}}
</body>
</html>
`

var htmlTmpl = template.Must(template.New("report").Parse(htmlTemplate))

type htmlStory struct {
	Title    string
	URL      string
	RankText string
	Hot      bool
	Count    int
}

type htmlGroup struct {
	Label      string
	Percentage float64
	Stories    []htmlStory
}

type htmlData struct {
	ModeLabel string
	Generated string
	Groups    []htmlGroup
	Failed    string
}

// WriteHTML renders the report to an HTML file under dir, in a per-day
// folder named after the generation date, and returns the file path.
func WriteHTML(report model.RunReport, threshold int, dir string) (string, error) {
	data := htmlData{
		ModeLabel: ModeLabel(report.Mode),
		Generated: report.GeneratedAt.Format("2006-01-02 15:04"),
	}
	for _, group := range report.Groups {
		if len(group.Stories) == 0 {
			continue
		}
		hg := htmlGroup{Label: group.GroupLabel, Percentage: group.Percentage}
		for _, story := range group.Stories {
			ranks := storyRanks(story)
			hg.Stories = append(hg.Stories, htmlStory{
				Title:    story.Identity.Title,
				URL:      story.Identity.URL,
				RankText: RankDisplay(ranks, threshold, FormatNtfy),
				Hot:      story.BestRank() <= threshold,
				Count:    story.Occurrences(),
			})
		}
		data.Groups = append(data.Groups, hg)
	}
	if len(report.FailedSources) > 0 {
		for i, id := range report.FailedSources {
			if i > 0 {
				data.Failed += ", "
			}
			data.Failed += id
		}
	}

	dayDir := filepath.Join(dir, report.GeneratedAt.Format("2006-01-02"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	path := filepath.Join(dayDir, report.GeneratedAt.Format("150405")+".html")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := htmlTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("rendering html report: %w", err)
	}
	return path, nil
}
