package visuals

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agile-metrics/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func sample() *stats.Analysis {
	return &stats.Analysis{
		Team:     "Core",
		TeamType: "Productivo",
		Sprints: []stats.SprintMetrics{
			{Sprint: "Sprint 7", Throughput: 3, Velocity: 9.5, CommittedPoints: 20, Predictability: f(40), CycleTimeAvg: f(4), CycleTimeMedian: f(3)},
			{Sprint: "Sprint 8", Throughput: 0},
		},
		Months: []stats.MonthMetrics{
			{Month: "Octubre", ThroughputTotal: 3, VelocityAvg: 4.75, Predictability: f(40), CycleTimeAvg: f(4)},
		},
		Summary: stats.Summary{TotalSprints: 2, TotalDelivered: 3},
	}
}

func TestGenerateSprintThroughputChart(t *testing.T) {
	chart := GenerateSprintThroughputChart(sample().Sprints)

	assert.True(t, strings.HasPrefix(chart, "```mermaid\nxychart-beta\n"))
	assert.Contains(t, chart, `x-axis ["Sprint 7", "Sprint 8"]`)
	assert.Contains(t, chart, "bar [3.0, 0.0]")
	assert.Contains(t, chart, `y-axis "Tasks Delivered" 0 --> 4`)
}

func TestMissingValuesDrawnAsZero(t *testing.T) {
	chart := GenerateSprintPredictabilityChart(sample().Sprints)
	assert.Contains(t, chart, "line [40.0, 0]")
}

func TestEmptyChartsAreOmitted(t *testing.T) {
	a := sample()
	a.Months = nil

	assert.Empty(t, GenerateMonthThroughputChart(nil))
	assert.Len(t, SprintDashboard(a), 4)
	assert.Empty(t, MonthDashboard(a))
	assert.NotContains(t, Markdown(a), "## Months")
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, sample()))

	out := buf.String()
	assert.Contains(t, out, "<h1>Core</h1>")
	assert.Contains(t, out, `<pre class="mermaid">xychart-beta`)
	assert.NotContains(t, out, "```")
	assert.Equal(t, 8, strings.Count(out, `class="mermaid"`))
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.html")
	require.NoError(t, WriteHTML(path, sample()))
	assert.FileExists(t, path)
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.md")
	require.NoError(t, WriteMarkdown(path, sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, "# Core\n"))
	assert.Contains(t, out, "## Months")
	assert.Equal(t, 8, strings.Count(out, "```mermaid"))
}
