package stats

import (
	"testing"

	"agile-metrics/internal/monday"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisSession_Result(t *testing.T) {
	copied := rec("Sprint 7", stateDone, "HDU", f(2), nil)
	copied.Name = "Login (copia)"
	carried := rec("Sprint 7", stateWIP, "Bug", f(1), nil)
	carried.CarryOver = true

	records := []monday.Record{
		dated(rec("Sprint 7", stateDone, "HDU", f(3), nil), "2024-10-07", "2024-10-09"),
		copied,
		carried,
		rec("", stateDone, "HDU", f(5), nil),
	}

	session := NewAnalysisSession("Core", records, testConfig())
	a, err := session.Result()
	require.NoError(t, err)

	assert.Equal(t, "Core", a.Team)
	assert.Equal(t, DeliveryComplete, a.Variant)
	assert.Equal(t, 4, a.Processing.InputRecords)
	assert.Equal(t, 3, a.Processing.Tasks)
	assert.Equal(t, 2, a.Processing.Delivered)
	assert.Equal(t, 1, a.Processing.Copies)
	assert.Equal(t, 1, a.Processing.CarryOver)
	assert.Equal(t, 1, a.Processing.Excluded.MissingSprint)
	assert.Len(t, a.Tasks, 3)
	require.Len(t, a.Sprints, 1)
	assert.Equal(t, "Sprint 7", a.Sprints[0].Sprint)

	// Projection is cached: a second result carries the same records.
	again, err := session.Result()
	require.NoError(t, err)
	assert.Equal(t, a.Sprints, again.Sprints)
	assert.Equal(t, a.Months, again.Months)
}

func TestAnalysisSession_NoTasks(t *testing.T) {
	session := NewAnalysisSession("Core", []monday.Record{rec("", stateDone, "HDU", f(1), nil)}, testConfig())

	_, err := session.Result()
	assert.ErrorIs(t, err, ErrNoTasks)
	_, err = session.Result()
	assert.ErrorIs(t, err, ErrNoTasks)
}
