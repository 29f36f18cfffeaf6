package config

import (
	"os"
	"path/filepath"
	"testing"

	"agile-metrics/internal/monday"
	"agile-metrics/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, stats.DefaultSprintMapping(), s.SprintMapping)
	assert.Equal(t, 5, s.DefaultTeamSize)
	assert.Equal(t, 3, s.HeaderRow)
	assert.False(t, s.OnlyCompletedSprints)
	assert.Equal(t, "HDU", s.FocusTaskType)
	assert.Equal(t, 70.0, s.Thresholds.PredictabilityGood)
	assert.Equal(t, 14.0, s.Thresholds.CycleTimeWarning)
	assert.Equal(t, []string{"Backlog_Planning_*_All_Tasks_*.xlsx"}, s.Batch.FilePatterns)
	assert.Len(t, s.Holidays, 9)
	assert.Equal(t, monday.ColCompletionDate, s.Delivery.CompletionColumn)
	assert.Equal(t, stats.DefaultDeliveryStates(stats.DeliveryExtended), s.Delivery.Extended.States)
}

func TestLoadSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
default_team_size: 7
team_sizes:
  Core: 3
development_teams: [Auto3P]
sprint_mapping:
  - sprint: Sprint 10
    month: Diciembre
  - sprint: Sprint 1
    month: Junio
holidays: ["2024-12-24"]
thresholds:
  predictability_good: 80
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsName+".yaml"), []byte(content), 0o600))

	s, err := LoadSettings("", dir)
	require.NoError(t, err)

	assert.Equal(t, 7, s.DefaultTeamSize)
	assert.Equal(t, 3, s.TeamSize("Core"))
	assert.Equal(t, 7, s.TeamSize("Payments"))
	assert.Equal(t, []stats.MonthMapping{
		{Sprint: "Sprint 10", Month: "Diciembre"},
		{Sprint: "Sprint 1", Month: "Junio"},
	}, s.SprintMapping)
	assert.Equal(t, 80.0, s.Thresholds.PredictabilityGood)
	assert.Equal(t, 40.0, s.Thresholds.PredictabilityWarning)
	assert.True(t, s.IsDevelopmentTeam("Equipo AUTO3P Norte"))
	assert.False(t, s.IsDevelopmentTeam("Core"))
	assert.Equal(t, 1, s.Calendar().Holidays())
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	t.Setenv("AGILE_DEFAULT_TEAM_SIZE", "9")
	t.Setenv("AGILE_HEADER_ROW", "2")

	s, err := LoadSettings("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 9, s.DefaultTeamSize)
	assert.Equal(t, 2, s.HeaderRow)
}

func TestLoadSettingsErrors(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_team_size: 0\n"), 0o600))
	_, err = LoadSettings(path)
	assert.ErrorContains(t, err, "team size must be a positive number")

	path = filepath.Join(t.TempDir(), "regex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch:\n  team_name_regex: \"(unclosed\"\n"), 0o600))
	_, err = LoadSettings(path)
	assert.ErrorContains(t, err, "team_name_regex")
}

func TestParseSprintMapping(t *testing.T) {
	m, err := ParseSprintMapping("Sprint 2:Julio, Sprint 3 : Agosto,")
	require.NoError(t, err)
	assert.Equal(t, []stats.MonthMapping{
		{Sprint: "Sprint 2", Month: "Julio"},
		{Sprint: "Sprint 3", Month: "Agosto"},
	}, m)

	_, err = ParseSprintMapping("Sprint 2=Julio")
	assert.Error(t, err)
	_, err = ParseSprintMapping(" , ")
	assert.Error(t, err)
}

func TestValidateTeamSize(t *testing.T) {
	assert.NoError(t, ValidateTeamSize(1))
	assert.Error(t, ValidateTeamSize(0))
	assert.Error(t, ValidateTeamSize(-3))
}

func TestStatsConfig(t *testing.T) {
	s := DefaultSettings()
	cfg := s.StatsConfig(stats.DeliveryExtended, 4)

	assert.Equal(t, stats.DeliveryExtended, cfg.Policy.Variant)
	assert.True(t, cfg.Policy.IsDelivered(stats.CertifiedState))
	assert.Equal(t, monday.ColCertifiedDate, cfg.Policy.DateColumns[0])
	assert.Equal(t, 4, cfg.TeamSize)
	assert.Equal(t, 9, cfg.Calendar.Holidays())
	assert.Equal(t, "HDU", cfg.FocusType)
	assert.Equal(t, 3, s.ReadOptions().HeaderRow)
}

func TestReadOptionsParseEveryDeliveryDateColumn(t *testing.T) {
	s := DefaultSettings()
	s.Delivery.Complete.DateColumns = []string{"Delivered On", monday.ColReadyDate}
	s.Delivery.Extended.DateColumns = []string{monday.ColReadyDate}
	s.Delivery.CompletionColumn = "Closed"

	assert.Equal(t, []string{"Delivered On", monday.ColReadyDate, "Closed"}, s.ReadOptions().DateColumns)
}
