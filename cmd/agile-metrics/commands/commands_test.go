package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agile-metrics/internal/monday"
	"agile-metrics/internal/monday/mondaytest"
	"agile-metrics/internal/stats"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LOGS_FOLDER", filepath.Join(dir, "logs"))
	t.Setenv("DATA_PATH", dir)
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "reports"))
	t.Setenv("AGILE_SETTINGS", "")
	t.Setenv("ARCHIVE_BACKEND", "none")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")
	t.Setenv("OPEN_DASHBOARD", "false")
	return dir
}

// resetFlags restores every flag to its default, since the command tree is shared by all tests.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := Execute()
	return out.String(), err
}

func writeExport(t *testing.T, dir, team string) string {
	t.Helper()
	path := filepath.Join(dir, "Backlog_Planning_"+team+"_All_Tasks_1712.xlsx")
	mondaytest.WriteWorkbook(t, path, mondaytest.StandardHeaders, [][]any{
		{"Login", "13. Producción", "HDU", 5, "", "2024-10-07", "2024-10-11", "", "Sprint 07 FIDSIN", "v", ""},
		{"Crash", "13. Producción", "Bug", 2, "", "2024-10-07", "2024-10-08", "", "Sprint 07 Auto3P", "v", ""},
		{"Report", "3. In Development", "Solicitud", 3, 1, "2024-10-07", "", "", "Sprint 08", "v", "v"},
	})
	return path
}

func TestDaysCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "days", "2024-10-07", "2024-10-14")
	require.NoError(t, err)
	assert.Equal(t, "6", strings.TrimSpace(out))

	out, err = run(t, "days", "2024-10-14", "2024-10-07")
	require.NoError(t, err)
	assert.Equal(t, "0", strings.TrimSpace(out))

	_, err = run(t, "days", "yesterday", "2024-10-07")
	assert.Error(t, err)
}

func TestAnalyzeCommandJSON(t *testing.T) {
	dir := setupEnv(t)
	path := writeExport(t, dir, "Core")

	out, err := run(t, "analyze", path, "--format", "json", "--no-files")
	require.NoError(t, err)

	var a stats.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "Core", a.Team)
	assert.Equal(t, stats.DeliveryComplete, a.Variant)
	assert.Equal(t, 2, a.Summary.TotalDelivered)

	_, err = os.Stat(filepath.Join(dir, "reports", "metrics_Core.xlsx"))
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyzeCommandWritesReports(t *testing.T) {
	dir := setupEnv(t)
	path := writeExport(t, dir, "Core")

	out, err := run(t, "analyze", path, "--team", "Mobile", "--team-size", "3", "--development")
	require.NoError(t, err)
	assert.Contains(t, out, "Mobile")
	assert.Contains(t, out, "Reports:")

	for _, name := range []string{"metrics_Mobile.xlsx", "metrics_Mobile.json", "dashboard_Mobile.html", "charts_Mobile.md"} {
		assert.FileExists(t, filepath.Join(dir, "reports", name))
	}
}

func TestAnalyzeCommandPolicyFlag(t *testing.T) {
	dir := setupEnv(t)
	path := writeExport(t, dir, "Core")

	out, err := run(t, "analyze", path, "--policy", "desarrollo", "--format", "json", "--no-files")
	require.NoError(t, err)
	var a stats.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, stats.DeliveryExtended, a.Variant)

	_, err = run(t, "analyze", path, "--policy", "someday", "--no-files")
	assert.ErrorContains(t, err, "unknown delivery policy")

	_, err = run(t, "analyze", path, "--policy", "complete", "--development", "--no-files")
	assert.Error(t, err)
}

func TestAnalyzeCommandPointsToValidate(t *testing.T) {
	dir := setupEnv(t)
	bad := filepath.Join(dir, "Backlog_Planning_Core_All_Tasks_1712.xlsx")
	mondaytest.WriteWorkbook(t, bad, []string{"Name", "Estado"}, [][]any{{"Login", "13. Producción"}})

	_, err := run(t, "analyze", bad, "--no-files")
	require.Error(t, err)
	assert.True(t, monday.IsValidationError(err))
	assert.Contains(t, err.Error(), "agile-metrics validate")
}

func TestAnalyzeCommandRejectsBadInput(t *testing.T) {
	dir := setupEnv(t)
	path := writeExport(t, dir, "Core")

	_, err := run(t, "analyze", path, "--team-size", "0", "--no-files")
	assert.Error(t, err)

	_, err = run(t, "analyze", path, "--format", "yaml")
	assert.Error(t, err)

	_, err = run(t, "analyze", filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := setupEnv(t)
	in := filepath.Join(dir, "exports")
	require.NoError(t, os.MkdirAll(in, 0o755))
	writeExport(t, in, "Core")
	writeExport(t, in, "Payments")

	out, err := run(t, "batch", in, "--out", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "Teams processed: 2, failed: 0")
	assert.FileExists(t, filepath.Join(dir, "out", "consolidated_metrics.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "out", "metrics_Payments.xlsx"))
}

func TestBatchCommandEmptyFolder(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "batch", dir, "--no-files")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := setupEnv(t)
	path := writeExport(t, dir, "Core")

	out, err := run(t, "validate", path, "--format", "json")
	require.NoError(t, err)
	var rep monday.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.Valid)
	assert.Equal(t, 3, rep.TotalRows)

	bad := filepath.Join(dir, "bad.xlsx")
	mondaytest.WriteWorkbook(t, bad, []string{"Name", "Estado"}, [][]any{{"Login", "13. Producción"}})
	_, err = run(t, "validate", bad, "--format", "table")
	assert.ErrorIs(t, err, errInvalidExport)
}
