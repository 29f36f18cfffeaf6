package report

import (
	"path/filepath"
	"strings"
	"testing"

	"agile-metrics/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func openWorkbook(t *testing.T, path string) *excelize.File {
	t.Helper()
	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestWriteTeamWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.xlsx")
	require.NoError(t, WriteTeamWorkbook(path, sampleAnalysis("Core"), testThresholds()))

	wb := openWorkbook(t, path)
	assert.Equal(t, []string{SummarySheet, SprintSheet, MonthSheet}, wb.GetSheetList())

	title, err := wb.GetCellValue(SummarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Executive summary: Core", title)

	rows, err := wb.GetRows(SprintSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sprint", rows[0][0])
	assert.Equal(t, "HDU", rows[0][20])
	assert.Equal(t, "Sprint 7", rows[1][0])
	assert.Equal(t, "Sprint 07 Core, Sprint 7", rows[1][1])
	assert.Equal(t, "9.5", rows[1][7])
	assert.Equal(t, "40", rows[1][12])

	// Nullable metrics stay blank and ungraded.
	blank, err := wb.GetCellValue(SprintSheet, "M3")
	require.NoError(t, err)
	assert.Empty(t, blank)
	style, err := wb.GetCellStyle(SprintSheet, "M3")
	require.NoError(t, err)
	assert.Zero(t, style)

	graded, err := wb.GetCellStyle(SprintSheet, "M2")
	require.NoError(t, err)
	assert.NotZero(t, graded)

	months, err := wb.GetRows(MonthSheet)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "Octubre", months[1][0])
	assert.Equal(t, "Sprint 7, Sprint 8", months[1][1])
}

func TestWriteConsolidatedWorkbook(t *testing.T) {
	s := config.DefaultSettings()
	path := filepath.Join(t.TempDir(), "consolidated.xlsx")
	require.NoError(t, WriteConsolidatedWorkbook(path, sampleResults(), s))

	wb := openWorkbook(t, path)
	assert.Equal(t, []string{ComparisonSheet, "Core", "Payments"}, wb.GetSheetList())

	rows, err := wb.GetRows(ComparisonSheet)
	require.NoError(t, err)

	var teams, failed []string
	var overall []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		switch {
		case row[0] == "Overall average":
			overall = row
		case row[0] == "Failed team":
			for _, r := range rows[i+1:] {
				failed = append(failed, strings.Join(r, "|"))
			}
		case row[0] == "Core" || row[0] == "Payments":
			teams = append(teams, row[0])
		}
	}
	assert.Equal(t, []string{"Core", "Payments"}, teams)
	require.NotNil(t, overall)
	assert.Equal(t, "1.5", overall[4])
	assert.Equal(t, "6", overall[11])
	assert.Equal(t, []string{"Broken|missing required columns: Sprint"}, failed)

	detail, err := wb.GetCellValue("Core", "A4")
	require.NoError(t, err)
	assert.Equal(t, "Sprint 7", detail)
}

func TestMergeTaskTypes(t *testing.T) {
	results := sampleResults()
	results[2].Analysis.TaskTypes = []string{"Solicitud", "Spike", "HDU"}

	assert.Equal(t, []string{"HDU", "Bug", "Solicitud", "Spike"}, MergeTaskTypes(results, []string{"HDU", "Bug", "Solicitud"}))
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("a", 40)

	first := sheetName(long, used)
	assert.Len(t, first, 31)
	second := sheetName(long, used)
	assert.Len(t, second, 31)
	assert.True(t, strings.HasSuffix(second, "_2"))
	assert.NotEqual(t, first, second)

	assert.Equal(t, "Ops_Infra", sheetName("Ops/Infra", used))
	assert.Equal(t, "Team", sheetName("  ", used))
}
