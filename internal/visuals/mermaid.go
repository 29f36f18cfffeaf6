package visuals

import (
	"fmt"
	"math"
	"strings"

	"agile-metrics/internal/stats"
)

// series is one plotted line or bar set. Missing values are drawn as 0.
type series struct {
	kind   string // "bar" or "line"
	values []*float64
}

func quoted(labels []string) string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = fmt.Sprintf("\"%s\"", strings.ReplaceAll(l, "\"", "'"))
	}
	return strings.Join(out, ", ")
}

func xychart(title, yLabel string, labels []string, set ...series) string {
	if len(labels) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, s := range set {
		for _, v := range s.values {
			if v != nil && *v > maxVal {
				maxVal = *v
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", quoted(labels)))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" 0 --> %d\n", yLabel, int(math.Ceil(math.Max(1, maxVal*1.2)))))
	for _, s := range set {
		values := make([]string, len(s.values))
		for i, v := range s.values {
			if v == nil {
				values[i] = "0"
				continue
			}
			values[i] = fmt.Sprintf("%.1f", *v)
		}
		sb.WriteString(fmt.Sprintf("    %s [%s]\n", s.kind, strings.Join(values, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

func ints(values []int) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		f := float64(v)
		out[i] = &f
	}
	return out
}

func floats(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

// GenerateSprintThroughputChart creates a bar chart of delivered tasks per sprint.
func GenerateSprintThroughputChart(sprints []stats.SprintMetrics) string {
	labels := make([]string, len(sprints))
	values := make([]int, len(sprints))
	for i, s := range sprints {
		labels[i] = s.Sprint
		values[i] = s.Throughput
	}
	return xychart("Throughput per Sprint", "Tasks Delivered", labels, series{"bar", ints(values)})
}

// GenerateSprintVelocityChart plots velocity against committed points.
func GenerateSprintVelocityChart(sprints []stats.SprintMetrics) string {
	labels := make([]string, len(sprints))
	velocity := make([]float64, len(sprints))
	committed := make([]float64, len(sprints))
	for i, s := range sprints {
		labels[i] = s.Sprint
		velocity[i] = s.Velocity
		committed[i] = s.CommittedPoints
	}
	return xychart("Velocity vs Commitment", "Points", labels,
		series{"bar", floats(velocity)}, series{"line", floats(committed)})
}

// GenerateSprintPredictabilityChart plots predictability for all tasks and for the focus type.
func GenerateSprintPredictabilityChart(sprints []stats.SprintMetrics) string {
	labels := make([]string, len(sprints))
	all := make([]*float64, len(sprints))
	focus := make([]*float64, len(sprints))
	for i, s := range sprints {
		labels[i] = s.Sprint
		all[i] = s.Predictability
		focus[i] = s.PredictabilityHDU
	}
	return xychart("Predictability (%)", "Percent", labels, series{"line", all}, series{"line", focus})
}

// GenerateSprintCycleTimeChart plots mean and median cycle time in business days.
func GenerateSprintCycleTimeChart(sprints []stats.SprintMetrics) string {
	labels := make([]string, len(sprints))
	avg := make([]*float64, len(sprints))
	median := make([]*float64, len(sprints))
	for i, s := range sprints {
		labels[i] = s.Sprint
		avg[i] = s.CycleTimeAvg
		median[i] = s.CycleTimeMedian
	}
	return xychart("Cycle Time (Business Days)", "Days", labels, series{"bar", avg}, series{"line", median})
}

// GenerateMonthThroughputChart creates a bar chart of delivered tasks per month.
func GenerateMonthThroughputChart(months []stats.MonthMetrics) string {
	labels := make([]string, len(months))
	values := make([]int, len(months))
	for i, m := range months {
		labels[i] = m.Month
		values[i] = m.ThroughputTotal
	}
	return xychart("Throughput per Month", "Tasks Delivered", labels, series{"bar", ints(values)})
}

// GenerateMonthVelocityChart plots the average sprint velocity of each month.
func GenerateMonthVelocityChart(months []stats.MonthMetrics) string {
	labels := make([]string, len(months))
	values := make([]float64, len(months))
	for i, m := range months {
		labels[i] = m.Month
		values[i] = m.VelocityAvg
	}
	return xychart("Average Velocity per Month", "Points", labels, series{"bar", floats(values)})
}

// GenerateMonthPredictabilityChart plots the monthly predictability.
func GenerateMonthPredictabilityChart(months []stats.MonthMetrics) string {
	labels := make([]string, len(months))
	values := make([]*float64, len(months))
	for i, m := range months {
		labels[i] = m.Month
		values[i] = m.Predictability
	}
	return xychart("Predictability per Month (%)", "Percent", labels, series{"line", values})
}

// GenerateMonthCycleTimeChart plots the monthly mean cycle time.
func GenerateMonthCycleTimeChart(months []stats.MonthMetrics) string {
	labels := make([]string, len(months))
	values := make([]*float64, len(months))
	for i, m := range months {
		labels[i] = m.Month
		values[i] = m.CycleTimeAvg
	}
	return xychart("Cycle Time per Month (Business Days)", "Days", labels, series{"bar", values})
}

// SprintDashboard returns the sprint charts of an analysis. Charts without data are omitted.
func SprintDashboard(a *stats.Analysis) []string {
	return nonEmpty(
		GenerateSprintThroughputChart(a.Sprints),
		GenerateSprintVelocityChart(a.Sprints),
		GenerateSprintPredictabilityChart(a.Sprints),
		GenerateSprintCycleTimeChart(a.Sprints),
	)
}

// MonthDashboard returns the month charts of an analysis.
func MonthDashboard(a *stats.Analysis) []string {
	return nonEmpty(
		GenerateMonthThroughputChart(a.Months),
		GenerateMonthVelocityChart(a.Months),
		GenerateMonthPredictabilityChart(a.Months),
		GenerateMonthCycleTimeChart(a.Months),
	)
}

// Markdown joins both dashboards into one markdown document.
func Markdown(a *stats.Analysis) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n## Sprints\n\n", a.Team))
	for _, c := range SprintDashboard(a) {
		sb.WriteString(c)
		sb.WriteString("\n\n")
	}
	if months := MonthDashboard(a); len(months) > 0 {
		sb.WriteString("## Months\n\n")
		for _, c := range months {
			sb.WriteString(c)
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func nonEmpty(charts ...string) []string {
	out := make([]string, 0, len(charts))
	for _, c := range charts {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
