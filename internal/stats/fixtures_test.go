package stats

import (
	"time"

	"agile-metrics/internal/monday"
)

const (
	stateDone = "13. Producción"
	stateWIP  = "3. In Development"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func rec(sprint, status, taskType string, estimated, achieved *float64) monday.Record {
	return monday.Record{
		Name:      taskType + " in " + sprint,
		Sprint:    sprint,
		Status:    status,
		TaskType:  taskType,
		Estimated: estimated,
		Achieved:  achieved,
		Dates:     map[string]*time.Time{},
	}
}

// dated sets the start date and the ready-for-production date of r.
func dated(r monday.Record, start, ready string) monday.Record {
	if start != "" {
		r.StartDate = day(start)
	}
	if ready != "" {
		r.Dates[monday.ColReadyDate] = day(ready)
	}
	return r
}

func testConfig() Config {
	return DefaultConfig(DeliveryComplete)
}
