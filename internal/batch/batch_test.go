package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"agile-metrics/internal/config"
	"agile-metrics/internal/monday/mondaytest"
	"agile-metrics/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTeam(t *testing.T, dir, team string) string {
	t.Helper()
	path := filepath.Join(dir, "Backlog_Planning_"+team+"_All_Tasks_1712.xlsx")
	mondaytest.WriteWorkbook(t, path, mondaytest.StandardHeaders, [][]any{
		{"Login", "13. Producción", "HDU", 5, "", "2024-10-07", "2024-10-11", "", "Sprint 07 FIDSIN", "v", ""},
		{"Crash", "13. Producción", "Bug", 2, "", "2024-10-07", "2024-10-08", "", "Sprint 07 Auto3P", "v", ""},
		{"Report", "3. In Development", "Solicitud", 3, 1, "2024-10-07", "", "", "Sprint 08", "v", "v"},
	})
	return path
}

func TestProcessAllIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeTeam(t, dir, "Core")
	writeTeam(t, dir, "Payments")
	mondaytest.WriteWorkbook(t, filepath.Join(dir, "Backlog_Planning_Broken_All_Tasks_9.xlsx"),
		[]string{"Foo", "Bar"}, [][]any{{"x", "y"}})

	results, err := ProcessAll(dir, config.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, results, 3)

	ok, failed := Tally(results)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)

	// Sorted by file name.
	broken := results[0]
	assert.Equal(t, "Broken", broken.Spec.Name)
	assert.False(t, broken.Success)
	assert.Contains(t, broken.Error, "missing required columns")
	assert.Nil(t, broken.Analysis)

	core := results[1]
	assert.Equal(t, "Core", core.Spec.Name)
	require.True(t, core.Success, core.Error)
	require.NotNil(t, core.Analysis)
	assert.Equal(t, 2, core.Analysis.Summary.TotalDelivered)
	require.Len(t, core.Analysis.Sprints, 2)
	assert.Equal(t, "Sprint 7", core.Analysis.Sprints[0].Sprint)
	assert.Equal(t, 1.0, core.Analysis.Sprints[1].Velocity)

	assert.Len(t, Successful(results), 2)
}

func TestProcessAllWithoutTeamFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	_, err := ProcessAll(dir, config.DefaultSettings())
	assert.True(t, errors.Is(err, ErrNoTeamFiles))

	_, err = ProcessAll(filepath.Join(dir, "missing"), config.DefaultSettings())
	assert.Error(t, err)
}

func TestDiscoverSkipsUnmatchedNames(t *testing.T) {
	dir := t.TempDir()
	writeTeam(t, dir, "Core")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$Backlog_Planning_Core_All_Tasks_1712.xlsx"), []byte("lock"), 0o600))

	s := config.DefaultSettings()
	s.Batch.FilePatterns = []string{"*.xlsx"}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.xlsx"), []byte("x"), 0o600))

	files, err := Discover(dir, s)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Core", files[0].Team)
}

func TestResolveTeam(t *testing.T) {
	s := config.DefaultSettings()
	s.DevelopmentTeams = []string{"Auto3P"}
	s.TeamSizes = map[string]int{"payments": 8}

	dev := ResolveTeam("Equipo Auto3P", s)
	assert.Equal(t, stats.DeliveryExtended, dev.Variant)
	assert.Equal(t, 5, dev.Size)

	prod := ResolveTeam("Payments", s)
	assert.Equal(t, stats.DeliveryComplete, prod.Variant)
	assert.Equal(t, 8, prod.Size)
}

func TestTeamFromFilename(t *testing.T) {
	s := config.DefaultSettings()
	assert.Equal(t, "Core", TeamFromFilename("/tmp/Backlog_Planning_Core_All_Tasks_1712.xlsx", s))
	assert.Equal(t, "export", TeamFromFilename("data/export.csv", s))
}

func TestProcessTeamWithConfiguredDateColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Backlog_Planning_Core_All_Tasks_1712.xlsx")
	mondaytest.WriteWorkbook(t, path,
		[]string{"Name", "Estado", "Tipo Tarea", "Estimación Original", "Fecha Inicio", "Sprint", "Delivered On"},
		[][]any{
			{"Login", "13. Producción", "HDU", 5, "2024-10-07", "Sprint 7", "2024-10-11"},
		})

	s := config.DefaultSettings()
	s.Delivery.Complete.DateColumns = []string{"Delivered On"}

	a, err := ProcessTeam(path, ResolveTeam("Core", s), s)
	require.NoError(t, err)
	assert.Equal(t, "Delivered On", a.DeliveryColumn)
	require.Len(t, a.Sprints, 1)
	require.NotNil(t, a.Sprints[0].CycleTimeAvg)
	assert.Equal(t, 5.0, *a.Sprints[0].CycleTimeAvg)
}
