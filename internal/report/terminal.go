package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"agile-metrics/internal/batch"
	"agile-metrics/internal/config"
	"agile-metrics/internal/monday"
	"agile-metrics/internal/stats"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

func render(table *tablewriter.Table, data [][]string) error {
	defer func() { _ = table.Close() }()
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintSummary writes the executive summary of one team.
func PrintSummary(w io.Writer, a *stats.Analysis, th config.Thresholds) error {
	s := a.Summary
	if _, err := fmt.Fprintf(w, "\n%s (%s, %d members)\n", a.Team, a.TeamType, s.TeamSize); err != nil {
		return err
	}

	data := [][]string{
		{"Sprints", strconv.Itoa(s.TotalSprints)},
		{"Total tasks", strconv.Itoa(s.TotalTasks)},
		{"Delivered tasks", strconv.Itoa(s.TotalDelivered)},
		{"Avg throughput", formatOpt(s.AvgThroughput, "%.1f")},
		{"Avg velocity", formatOpt(s.AvgVelocity, "%.1f")},
		{"Avg cycle time", StatusLabel(CycleTime, s.AvgCycleTime, th, "%.1f days")},
		{"Avg cycle time HDU", StatusLabel(CycleTime, s.AvgCycleTimeHDU, th, "%.1f days")},
		{"Avg predictability", StatusLabel(Predictability, s.AvgPredictability, th, "%.1f%%")},
		{"Avg predictability HDU", StatusLabel(Predictability, s.AvgPredictabilityHDU, th, "%.1f%%")},
		{"Avg efficiency", StatusLabel(Efficiency, s.AvgEfficiency, th, "%.2f")},
		{"Avg rework", StatusLabel(Rework, s.AvgRework, th, "%.1f%%")},
		{"Avg rework on velocity", StatusLabel(Rework, s.AvgReworkOnVelocity, th, "%.1f%%")},
	}
	if s.BestSprint != nil {
		data = append(data, []string{"Best sprint", refText(s.BestSprint)})
	}
	if s.WorstSprint != nil {
		data = append(data, []string{"Worst sprint", refText(s.WorstSprint)})
	}
	for _, tt := range a.TaskTypes {
		data = append(data, []string{tt + " delivered", strconv.Itoa(s.TaskTypeTotals[tt])})
	}
	return render(newTable(w, []string{"Metric", "Value"}), data)
}

// PrintSprints writes one row per unified sprint.
func PrintSprints(w io.Writer, a *stats.Analysis, th config.Thresholds) error {
	table := newTable(w, []string{
		"Sprint", "Month", "Tasks", "Throughput", "Velocity", "Cycle time",
		"Predictability", "Efficiency", "Rework",
	})
	data := make([][]string, 0, len(a.Sprints))
	for _, sm := range a.Sprints {
		data = append(data, []string{
			sm.Sprint,
			sm.Month,
			strconv.Itoa(sm.TotalTasks),
			strconv.Itoa(sm.Throughput),
			fmt.Sprintf("%.1f", sm.Velocity),
			StatusLabel(CycleTime, sm.CycleTimeAvg, th, "%.1f"),
			StatusLabel(Predictability, sm.Predictability, th, "%.1f%%"),
			StatusLabel(Efficiency, sm.Efficiency, th, "%.2f"),
			StatusLabel(Rework, sm.Rework, th, "%.1f%%"),
		})
	}
	return render(table, data)
}

// PrintMonths writes one row per month.
func PrintMonths(w io.Writer, a *stats.Analysis, th config.Thresholds) error {
	if len(a.Months) == 0 {
		_, err := fmt.Fprintln(w, "No sprint could be mapped to a month.")
		return err
	}
	table := newTable(w, []string{
		"Month", "Sprints", "Throughput", "Velocity", "Cycle time",
		"Predictability", "Efficiency", "Rework",
	})
	data := make([][]string, 0, len(a.Months))
	for _, m := range a.Months {
		data = append(data, []string{
			m.Month,
			strings.Join(m.Sprints, ", "),
			strconv.Itoa(m.ThroughputTotal),
			fmt.Sprintf("%.1f", m.VelocityTotal),
			StatusLabel(CycleTime, m.CycleTimeAvg, th, "%.1f"),
			StatusLabel(Predictability, m.Predictability, th, "%.1f%%"),
			StatusLabel(Efficiency, m.Efficiency, th, "%.2f"),
			StatusLabel(Rework, m.Rework, th, "%.1f%%"),
		})
	}
	return render(table, data)
}

// PrintBatch writes the outcome of every team in a batch run.
func PrintBatch(w io.Writer, results []batch.TeamResult) error {
	table := newTable(w, []string{"Team", "Type", "Size", "Status", "Sprints", "Delivered", "Detail"})
	data := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{r.Spec.Name, r.Spec.Variant.TeamType(), strconv.Itoa(r.Spec.Size)}
		if r.Success {
			row = append(row,
				GoodColor.Sprint("ok"),
				strconv.Itoa(r.Analysis.Summary.TotalSprints),
				strconv.Itoa(r.Analysis.Summary.TotalDelivered),
				r.Duration.Round(time.Millisecond).String(),
			)
		} else {
			row = append(row, DangerColor.Sprint("failed"), "-", "-", r.Error)
		}
		data = append(data, row)
	}
	if err := render(table, data); err != nil {
		return err
	}
	ok, failed := batch.Tally(results)
	_, err := fmt.Fprintf(w, "Teams processed: %d, failed: %d\n", ok, failed)
	return err
}

// PrintValidation writes the column completion of an export.
func PrintValidation(w io.Writer, rep monday.ValidationReport) error {
	if _, err := fmt.Fprintf(w, "\n%s: %d rows (%d blank rows dropped)\n", rep.Source, rep.TotalRows, rep.DroppedEmpty); err != nil {
		return err
	}

	table := newTable(w, []string{"Column", "Present", "Complete", "Missing", "Completion"})
	data := make([][]string, 0, len(rep.Completion))
	for _, c := range rep.Completion {
		present := "yes"
		if !c.Present {
			present = DangerColor.Sprint("no")
		}
		data = append(data, []string{
			c.Column, present, strconv.Itoa(c.Complete), strconv.Itoa(c.Missing),
			fmt.Sprintf("%.1f%%", c.Percentage),
		})
	}
	if err := render(table, data); err != nil {
		return err
	}

	if rep.Valid {
		_, err := fmt.Fprintln(w, GoodColor.Sprint("Export is valid"))
		return err
	}
	_, err := fmt.Fprintln(w, DangerColor.Sprint("Export is invalid: "+rep.Error))
	return err
}
