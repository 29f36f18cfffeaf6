// Package visuals renders analysis results as Mermaid charts and a standalone HTML dashboard.
package visuals

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"agile-metrics/internal/stats"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
)

const mermaidCDN = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"

var page = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Team}} - Agile Metrics</title>
<script src="{{.Script}}"></script>
<style>
body { font-family: sans-serif; margin: 2em; background: #fafafa; }
h1 { color: #2E86AB; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(480px, 1fr)); gap: 1.5em; }
.card { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 1em; }
</style>
</head>
<body>
<h1>{{.Team}}</h1>
<p>{{.TeamType}} team, {{.Sprints}} sprints, {{.Delivered}} tasks delivered.</p>
<h2>Sprints</h2>
<div class="grid">
{{range .SprintCharts}}<div class="card"><pre class="mermaid">{{.}}</pre></div>
{{end}}</div>
{{if .MonthCharts}}<h2>Months</h2>
<div class="grid">
{{range .MonthCharts}}<div class="card"><pre class="mermaid">{{.}}</pre></div>
{{end}}</div>{{end}}
<script>mermaid.initialize({ startOnLoad: true });</script>
</body>
</html>
`))

type pageData struct {
	Team         string
	TeamType     string
	Sprints      int
	Delivered    int
	Script       string
	SprintCharts []string
	MonthCharts  []string
}

// chartBody strips the markdown fence from a chart.
func chartBody(chart string) string {
	body := strings.TrimPrefix(chart, "```mermaid\n")
	return strings.TrimSuffix(body, "```")
}

func bodies(charts []string) []string {
	out := make([]string, len(charts))
	for i, c := range charts {
		out[i] = chartBody(c)
	}
	return out
}

// RenderHTML writes the dashboard page of an analysis.
func RenderHTML(w io.Writer, a *stats.Analysis) error {
	data := pageData{
		Team:         a.Team,
		TeamType:     a.TeamType,
		Sprints:      a.Summary.TotalSprints,
		Delivered:    a.Summary.TotalDelivered,
		Script:       mermaidCDN,
		SprintCharts: bodies(SprintDashboard(a)),
		MonthCharts:  bodies(MonthDashboard(a)),
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

// WriteHTML writes the dashboard page to path.
func WriteHTML(path string, a *stats.Analysis) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}
	defer func() { _ = file.Close() }()
	return RenderHTML(file, a)
}

// WriteMarkdown writes both chart dashboards as a markdown document to path.
func WriteMarkdown(path string, a *stats.Analysis) error {
	if err := os.WriteFile(path, []byte(Markdown(a)), 0o644); err != nil {
		return fmt.Errorf("failed to write charts: %w", err)
	}
	return nil
}

// OpenDashboard opens a written dashboard in the default browser. Failure is logged only.
func OpenDashboard(path string) {
	if err := browser.OpenFile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not open dashboard in browser")
	}
}
