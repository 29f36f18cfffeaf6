package report

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"agile-metrics/internal/batch"
	"agile-metrics/internal/config"
	"agile-metrics/internal/stats"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the generated workbooks.
const (
	SummarySheet    = "Summary"
	SprintSheet     = "Sprint Metrics"
	MonthSheet      = "Month Metrics"
	ComparisonSheet = "Team Comparison"

	maxSheetName = 31
)

// sheetWriter wraps a workbook with the styles shared by every sheet.
type sheetWriter struct {
	f      *excelize.File
	th     config.Thresholds
	header int
	title  int
	fills  map[Status]int
}

func newSheetWriter(th config.Thresholds) (*sheetWriter, error) {
	f := excelize.NewFile()
	w := &sheetWriter{f: f, th: th, fills: make(map[Status]int)}

	var err error
	w.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: headerFont},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, s := range []Status{StatusGood, StatusWarning, StatusDanger} {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{s.fill()}, Pattern: 1},
		})
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		w.fills[s] = id
	}
	return w, nil
}

// sheet creates a sheet, reusing the default first sheet for the first call.
func (w *sheetWriter) sheet(name string) error {
	if first := w.f.GetSheetName(0); first == "Sheet1" && len(w.f.GetSheetList()) == 1 {
		return w.f.SetSheetName(first, name)
	}
	_, err := w.f.NewSheet(name)
	return err
}

func (w *sheetWriter) row(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) headerRow(sheet string, row int, headers []string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := w.row(sheet, row, values); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	if err := w.f.SetCellStyle(sheet, first, last, w.header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return w.f.SetColWidth(sheet, "A", lastCol, 16)
}

func (w *sheetWriter) titleRow(sheet, text string) error {
	if err := w.f.SetCellValue(sheet, "A1", text); err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, "A1", "A1", w.title)
}

// grade colors one cell by the status of its value.
func (w *sheetWriter) grade(sheet string, col, row int, m Metric, v *float64) error {
	id, ok := w.fills[Classify(m, v, w.th)]
	if !ok {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, cell, cell, id)
}

func (w *sheetWriter) save(path string) error {
	defer func() { _ = w.f.Close() }()
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// opt renders a nullable metric as a blank cell or a value rounded to two decimals.
func opt(v *float64) any {
	if v == nil {
		return nil
	}
	return round2(*v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func refText(r *stats.SprintRef) string {
	if r == nil {
		return ""
	}
	return sprintRef(r.Name, r.Throughput)
}

// WriteTeamWorkbook writes the summary, sprint and month sheets of one team.
func WriteTeamWorkbook(path string, a *stats.Analysis, th config.Thresholds) error {
	w, err := newSheetWriter(th)
	if err != nil {
		return err
	}

	if err := w.summarySheet(a); err != nil {
		_ = w.f.Close()
		return err
	}
	if err := w.sprintSheet(SprintSheet, a, 1); err != nil {
		_ = w.f.Close()
		return err
	}
	if err := w.monthSheet(a); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.save(path)
}

func (w *sheetWriter) summarySheet(a *stats.Analysis) error {
	if err := w.sheet(SummarySheet); err != nil {
		return err
	}
	if err := w.titleRow(SummarySheet, "Executive summary: "+a.Team); err != nil {
		return err
	}

	s := a.Summary
	type line struct {
		label  string
		value  any
		metric Metric
		graded *float64
	}
	lines := []line{
		{label: "Team type", value: a.TeamType},
		{label: "Delivery policy", value: string(a.Variant)},
		{label: "Team size", value: s.TeamSize},
		{label: "Sprints", value: s.TotalSprints},
		{label: "Total tasks", value: s.TotalTasks},
		{label: "Delivered tasks", value: s.TotalDelivered},
		{label: "Avg throughput", value: opt(s.AvgThroughput)},
		{label: "Avg velocity", value: opt(s.AvgVelocity)},
		{label: "Avg cycle time (days)", value: opt(s.AvgCycleTime), metric: CycleTime, graded: s.AvgCycleTime},
		{label: "Avg cycle time HDU (days)", value: opt(s.AvgCycleTimeHDU), metric: CycleTime, graded: s.AvgCycleTimeHDU},
		{label: "Avg predictability (%)", value: opt(s.AvgPredictability), metric: Predictability, graded: s.AvgPredictability},
		{label: "Avg predictability HDU (%)", value: opt(s.AvgPredictabilityHDU), metric: Predictability, graded: s.AvgPredictabilityHDU},
		{label: "Avg efficiency", value: opt(s.AvgEfficiency), metric: Efficiency, graded: s.AvgEfficiency},
		{label: "Avg rework (%)", value: opt(s.AvgRework), metric: Rework, graded: s.AvgRework},
		{label: "Avg rework on velocity (%)", value: opt(s.AvgReworkOnVelocity), metric: Rework, graded: s.AvgReworkOnVelocity},
		{label: "Best sprint", value: refText(s.BestSprint)},
		{label: "Worst sprint", value: refText(s.WorstSprint)},
	}
	for _, tt := range a.TaskTypes {
		lines = append(lines, line{label: tt + " delivered", value: s.TaskTypeTotals[tt]})
	}

	if err := w.headerRow(SummarySheet, 3, []string{"Metric", "Value"}); err != nil {
		return err
	}
	for i, l := range lines {
		row := i + 4
		if err := w.row(SummarySheet, row, []any{l.label, l.value}); err != nil {
			return err
		}
		if l.graded != nil {
			if err := w.grade(SummarySheet, 2, row, l.metric, l.graded); err != nil {
				return err
			}
		}
	}
	return w.f.SetColWidth(SummarySheet, "A", "A", 30)
}

func sprintHeaders(taskTypes []string) []string {
	h := []string{
		"Sprint", "Original sprints", "Month", "Total tasks", "Throughput",
		"Committed points", "Delivered points", "Velocity",
		"Cycle time avg", "Cycle time median", "Cycle time HDU avg", "Cycle time HDU median",
		"Predictability (%)", "Predictability HDU (%)", "Efficiency",
		"Rework (%)", "Rework on velocity (%)", "Rework on velocity effective (%)",
		"Carry over", "Copies",
	}
	return append(h, taskTypes...)
}

// sprintSheet writes the sprint table starting at headerRow.
func (w *sheetWriter) sprintSheet(sheet string, a *stats.Analysis, headerRow int) error {
	if headerRow == 1 {
		if err := w.sheet(sheet); err != nil {
			return err
		}
	}
	if err := w.headerRow(sheet, headerRow, sprintHeaders(a.TaskTypes)); err != nil {
		return err
	}

	for i, sm := range a.Sprints {
		row := headerRow + 1 + i
		values := []any{
			sm.Sprint, strings.Join(sm.OriginalSprints, ", "), sm.Month, sm.TotalTasks, sm.Throughput,
			round2(sm.CommittedPoints), round2(sm.DeliveredPoints), round2(sm.Velocity),
			opt(sm.CycleTimeAvg), opt(sm.CycleTimeMedian), opt(sm.CycleTimeHDUAvg), opt(sm.CycleTimeHDUMedian),
			opt(sm.Predictability), opt(sm.PredictabilityHDU), opt(sm.Efficiency),
			opt(sm.Rework), opt(sm.ReworkOnVelocity), opt(sm.ReworkVelocityEffective),
			sm.CarryOverTasks, sm.CopyTasks,
		}
		for _, tt := range a.TaskTypes {
			values = append(values, sm.TaskTypeCounts[tt])
		}
		if err := w.row(sheet, row, values); err != nil {
			return err
		}

		graded := []struct {
			col    int
			metric Metric
			v      *float64
		}{
			{9, CycleTime, sm.CycleTimeAvg},
			{13, Predictability, sm.Predictability},
			{14, Predictability, sm.PredictabilityHDU},
			{15, Efficiency, sm.Efficiency},
			{16, Rework, sm.Rework},
		}
		for _, g := range graded {
			if err := w.grade(sheet, g.col, row, g.metric, g.v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *sheetWriter) monthSheet(a *stats.Analysis) error {
	if err := w.sheet(MonthSheet); err != nil {
		return err
	}
	headers := []string{
		"Month", "Sprints", "Num sprints", "Total tasks", "Throughput total", "Throughput avg",
		"Velocity total", "Velocity avg", "Cycle time avg", "Cycle time median",
		"Cycle time HDU avg", "Cycle time HDU median", "Predictability (%)", "Predictability HDU (%)",
		"Efficiency", "Rework (%)", "Rework on velocity (%)", "Rework on velocity effective (%)",
	}
	headers = append(headers, a.TaskTypes...)
	if err := w.headerRow(MonthSheet, 1, headers); err != nil {
		return err
	}

	for i, m := range a.Months {
		row := i + 2
		values := []any{
			m.Month, strings.Join(m.Sprints, ", "), m.NumSprints, m.TotalTasks,
			m.ThroughputTotal, round2(m.ThroughputAvg), round2(m.VelocityTotal), round2(m.VelocityAvg),
			opt(m.CycleTimeAvg), opt(m.CycleTimeMedian), opt(m.CycleTimeHDUAvg), opt(m.CycleTimeHDUMedian),
			opt(m.Predictability), opt(m.PredictabilityHDU), opt(m.Efficiency),
			opt(m.Rework), opt(m.ReworkOnVelocity), opt(m.ReworkVelocityEffective),
		}
		for _, tt := range a.TaskTypes {
			values = append(values, m.TaskTypeCounts[tt])
		}
		if err := w.row(MonthSheet, row, values); err != nil {
			return err
		}
		if err := w.grade(MonthSheet, 9, row, CycleTime, m.CycleTimeAvg); err != nil {
			return err
		}
		if err := w.grade(MonthSheet, 13, row, Predictability, m.Predictability); err != nil {
			return err
		}
		if err := w.grade(MonthSheet, 16, row, Rework, m.Rework); err != nil {
			return err
		}
	}
	return nil
}

// MergeTaskTypes lists every task type of the successful teams: preferred types first,
// then the rest alphabetically.
func MergeTaskTypes(results []batch.TeamResult, preferred []string) []string {
	seen := make(map[string]bool)
	for _, r := range batch.Successful(results) {
		for _, tt := range r.Analysis.TaskTypes {
			seen[tt] = true
		}
	}
	var out []string
	for _, p := range preferred {
		if seen[p] {
			out = append(out, p)
			delete(seen, p)
		}
	}
	rest := make([]string, 0, len(seen))
	for tt := range seen {
		rest = append(rest, tt)
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// WriteConsolidatedWorkbook writes the team comparison sheet and one detail sheet per
// successful team. Failed teams are listed with their error below the comparison.
func WriteConsolidatedWorkbook(path string, results []batch.TeamResult, s config.Settings) error {
	w, err := newSheetWriter(s.Thresholds)
	if err != nil {
		return err
	}
	if err := w.comparisonSheet(results, MergeTaskTypes(results, s.TaskTypeOrder)); err != nil {
		_ = w.f.Close()
		return err
	}

	used := map[string]bool{ComparisonSheet: true}
	for _, r := range sortedByTeam(batch.Successful(results)) {
		name := sheetName(r.Spec.Name, used)
		if _, err := w.f.NewSheet(name); err != nil {
			_ = w.f.Close()
			return err
		}
		if err := w.titleRow(name, fmt.Sprintf("%s (%s, %d members)", r.Spec.Name, r.Analysis.TeamType, r.Spec.Size)); err != nil {
			_ = w.f.Close()
			return err
		}
		if err := w.sprintSheet(name, r.Analysis, 3); err != nil {
			_ = w.f.Close()
			return err
		}
	}
	return w.save(path)
}

func (w *sheetWriter) comparisonSheet(results []batch.TeamResult, taskTypes []string) error {
	if err := w.sheet(ComparisonSheet); err != nil {
		return err
	}
	if err := w.titleRow(ComparisonSheet, "Team comparison"); err != nil {
		return err
	}

	headers := []string{
		"Team", "Team type", "Size", "Sprints", "Avg throughput", "Avg velocity", "Avg cycle time",
		"Avg predictability (%)", "Avg predictability HDU (%)", "Avg efficiency", "Avg rework (%)",
		"Total delivered",
	}
	headers = append(headers, taskTypes...)
	headers = append(headers, "Best sprint", "Worst sprint")
	if err := w.headerRow(ComparisonSheet, 3, headers); err != nil {
		return err
	}
	if err := w.f.SetColWidth(ComparisonSheet, "A", "A", 25); err != nil {
		return err
	}

	ok := sortedByTeam(batch.Successful(results))
	row := 4
	var (
		throughput, velocity, cycle, pred, predFocus, eff, rework []*float64
		delivered                                                 int
	)
	typeTotals := make(map[string]int, len(taskTypes))

	for _, r := range ok {
		s := r.Analysis.Summary
		values := []any{
			r.Spec.Name, r.Analysis.TeamType, r.Spec.Size, s.TotalSprints,
			opt(s.AvgThroughput), opt(s.AvgVelocity), opt(s.AvgCycleTime),
			opt(s.AvgPredictability), opt(s.AvgPredictabilityHDU), opt(s.AvgEfficiency), opt(s.AvgRework),
			s.TotalDelivered,
		}
		for _, tt := range taskTypes {
			values = append(values, s.TaskTypeTotals[tt])
			typeTotals[tt] += s.TaskTypeTotals[tt]
		}
		values = append(values, refText(s.BestSprint), refText(s.WorstSprint))
		if err := w.row(ComparisonSheet, row, values); err != nil {
			return err
		}
		if err := w.gradeSummary(row, s); err != nil {
			return err
		}

		throughput = append(throughput, s.AvgThroughput)
		velocity = append(velocity, s.AvgVelocity)
		cycle = append(cycle, s.AvgCycleTime)
		pred = append(pred, s.AvgPredictability)
		predFocus = append(predFocus, s.AvgPredictabilityHDU)
		eff = append(eff, s.AvgEfficiency)
		rework = append(rework, s.AvgRework)
		delivered += s.TotalDelivered
		row++
	}

	if len(ok) > 0 {
		row++
		overall := stats.Summary{
			AvgThroughput:        stats.MeanOf(throughput),
			AvgVelocity:          stats.MeanOf(velocity),
			AvgCycleTime:         stats.MeanOf(cycle),
			AvgPredictability:    stats.MeanOf(pred),
			AvgPredictabilityHDU: stats.MeanOf(predFocus),
			AvgEfficiency:        stats.MeanOf(eff),
			AvgRework:            stats.MeanOf(rework),
		}
		values := []any{
			"Overall average", "", "", "",
			opt(overall.AvgThroughput), opt(overall.AvgVelocity), opt(overall.AvgCycleTime),
			opt(overall.AvgPredictability), opt(overall.AvgPredictabilityHDU), opt(overall.AvgEfficiency),
			opt(overall.AvgRework), delivered,
		}
		for _, tt := range taskTypes {
			values = append(values, typeTotals[tt])
		}
		if err := w.row(ComparisonSheet, row, values); err != nil {
			return err
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := w.f.SetCellStyle(ComparisonSheet, first, first, w.header); err != nil {
			return err
		}
		if err := w.gradeSummary(row, overall); err != nil {
			return err
		}
		row++
	}

	failed := failedTeams(results)
	if len(failed) == 0 {
		return nil
	}
	row++
	if err := w.headerRow(ComparisonSheet, row, []string{"Failed team", "Error"}); err != nil {
		return err
	}
	for _, r := range failed {
		row++
		if err := w.row(ComparisonSheet, row, []any{r.Spec.Name, r.Error}); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) gradeSummary(row int, s stats.Summary) error {
	graded := []struct {
		col    int
		metric Metric
		v      *float64
	}{
		{7, CycleTime, s.AvgCycleTime},
		{8, Predictability, s.AvgPredictability},
		{9, Predictability, s.AvgPredictabilityHDU},
		{10, Efficiency, s.AvgEfficiency},
		{11, Rework, s.AvgRework},
	}
	for _, g := range graded {
		if err := w.grade(ComparisonSheet, g.col, row, g.metric, g.v); err != nil {
			return err
		}
	}
	return nil
}

func sortedByTeam(results []batch.TeamResult) []batch.TeamResult {
	out := slices.Clone(results)
	slices.SortStableFunc(out, func(a, b batch.TeamResult) int {
		return strings.Compare(a.Spec.Name, b.Spec.Name)
	})
	return out
}

func failedTeams(results []batch.TeamResult) []batch.TeamResult {
	var out []batch.TeamResult
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}

// sheetName makes a valid, unique sheet name: forbidden characters replaced and
// the name cut to the 31-character limit.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "Team"
	}

	candidate := truncateRunes(clean, maxSheetName)
	for i := 2; used[candidate]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		candidate = truncateRunes(clean, maxSheetName-len(suffix)) + suffix
	}
	used[candidate] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
