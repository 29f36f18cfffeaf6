package stats

import (
	"errors"
	"testing"

	"agile-metrics/internal/monday"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeBestAndWorstTieBreak(t *testing.T) {
	sprints := []SprintMetrics{
		{Sprint: "Sprint 2", Throughput: 4},
		{Sprint: "Sprint 3", Throughput: 1},
		{Sprint: "Sprint 4", Throughput: 4},
		{Sprint: "Sprint 5", Throughput: 1},
	}

	s := Summarize(sprints, nil, nil, testConfig())
	require.NotNil(t, s.BestSprint)
	require.NotNil(t, s.WorstSprint)
	assert.Equal(t, SprintRef{Name: "Sprint 2", Throughput: 4}, *s.BestSprint)
	assert.Equal(t, SprintRef{Name: "Sprint 3", Throughput: 1}, *s.WorstSprint)
	assert.Equal(t, 10, s.TotalDelivered)
	assert.Equal(t, 4, s.TotalSprints)
	require.NotNil(t, s.AvgThroughput)
	assert.Equal(t, 2.5, *s.AvgThroughput)
}

func TestSummarizeExcludesNilFromAverages(t *testing.T) {
	sprints := []SprintMetrics{
		{Sprint: "Sprint 2", Predictability: f(40), Rework: nil},
		{Sprint: "Sprint 3", Predictability: nil, Rework: nil},
		{Sprint: "Sprint 4", Predictability: f(80), Rework: f(10)},
	}

	s := Summarize(sprints, nil, nil, testConfig())
	require.NotNil(t, s.AvgPredictability)
	assert.InDelta(t, 60.0, *s.AvgPredictability, 1e-9)
	require.NotNil(t, s.AvgRework)
	assert.InDelta(t, 10.0, *s.AvgRework, 1e-9)
	assert.Nil(t, s.AvgCycleTime)
}

func TestSummarizeWithoutSprints(t *testing.T) {
	s := Summarize(nil, nil, nil, testConfig())
	assert.Nil(t, s.BestSprint)
	assert.Nil(t, s.WorstSprint)
	assert.Nil(t, s.AvgVelocity)
	assert.Equal(t, 0, s.TotalDelivered)
}

func TestSummaryTaskTypeTotals(t *testing.T) {
	a := analyze(t, []monday.Record{
		rec("Sprint 7", stateDone, "HDU", f(1), nil),
		rec("Sprint 7", stateDone, "Solicitud", f(1), nil),
		rec("Sprint 8", stateDone, "Bug", f(1), nil),
		rec("Sprint 8", stateDone, "HDU", f(1), nil),
		rec("Sprint 8", stateWIP, "Bug", f(1), nil),
	}, testConfig())

	assert.Equal(t, map[string]int{"HDU": 2, "Bug": 1, "Solicitud": 1}, a.Summary.TaskTypeTotals)
	assert.Equal(t, 3, a.Summary.FeatureDelivered)
	assert.Equal(t, 1, a.Summary.BugDelivered)
	assert.Equal(t, 4, a.Summary.TotalDelivered)
	assert.Equal(t, 5, a.Summary.TotalTasks)
	assert.Equal(t, 5, a.Summary.TeamSize)
}

func TestAnalyzeWithoutTasks(t *testing.T) {
	_, err := Analyze("Core", []monday.Record{rec("", stateDone, "HDU", f(1), nil)}, testConfig())
	assert.True(t, errors.Is(err, ErrNoTasks))
}

func TestAnalysisProcessingStats(t *testing.T) {
	copied := rec("Sprint 7", stateDone, "HDU", f(1), nil)
	copied.Name = "Login (copy)"
	copied.CarryOver = true

	a := analyze(t, []monday.Record{
		copied,
		rec("Sprint 7", stateWIP, "HDU", f(1), nil),
		rec("", stateWIP, "HDU", f(1), nil),
	}, testConfig())

	assert.Equal(t, 3, a.Processing.InputRecords)
	assert.Equal(t, 2, a.Processing.Tasks)
	assert.Equal(t, 1, a.Processing.Delivered)
	assert.Equal(t, 1, a.Processing.Copies)
	assert.Equal(t, 1, a.Processing.CarryOver)
	assert.Equal(t, 1, a.Processing.Excluded.MissingSprint)
	assert.Equal(t, DeliveryComplete, a.Variant)
	assert.Equal(t, "Productivo", a.TeamType)
	assert.Equal(t, 1, a.Sprints[0].CopyTasks)
	assert.Equal(t, 1, a.Sprints[0].CarryOverTasks)
}
