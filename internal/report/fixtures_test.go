package report

import (
	"agile-metrics/internal/batch"
	"agile-metrics/internal/config"
	"agile-metrics/internal/stats"
)

func f(v float64) *float64 { return &v }

func testThresholds() config.Thresholds {
	return config.Thresholds{
		PredictabilityGood:    70,
		PredictabilityWarning: 40,
		EfficiencyGood:        8,
		EfficiencyWarning:     5,
		ReworkGood:            15,
		ReworkWarning:         30,
		CycleTimeGood:         7,
		CycleTimeWarning:      14,
	}
}

func sampleAnalysis(team string) *stats.Analysis {
	return &stats.Analysis{
		Team:      team,
		Variant:   stats.DeliveryComplete,
		TeamType:  stats.DeliveryComplete.TeamType(),
		TaskTypes: []string{"HDU", "Bug"},
		Sprints: []stats.SprintMetrics{
			{
				Sprint:          "Sprint 7",
				OriginalSprints: []string{"Sprint 07 Core", "Sprint 7"},
				Month:           "Octubre",
				TotalTasks:      4,
				Throughput:      3,
				CommittedPoints: 20,
				DeliveredPoints: 8,
				Velocity:        9.5,
				CycleTimeAvg:    f(4),
				CycleTimeMedian: f(3),
				Predictability:  f(40),
				Efficiency:      f(1.9),
				Rework:          f(33.333),
				TaskTypeCounts:  map[string]int{"HDU": 3, "Bug": 1},
			},
			{
				Sprint:         "Sprint 8",
				Month:          "Octubre",
				TotalTasks:     1,
				TaskTypeCounts: map[string]int{"HDU": 1},
			},
		},
		Months: []stats.MonthMetrics{
			{
				Month:           "Octubre",
				Sprints:         []string{"Sprint 7", "Sprint 8"},
				NumSprints:      2,
				ThroughputTotal: 3,
				ThroughputAvg:   1.5,
				VelocityTotal:   9.5,
				VelocityAvg:     4.75,
				CycleTimeAvg:    f(4),
				Predictability:  f(40),
				TaskTypeCounts:  map[string]int{"HDU": 4, "Bug": 1},
			},
		},
		Summary: stats.Summary{
			TeamSize:          5,
			TotalSprints:      2,
			TotalTasks:        5,
			TotalDelivered:    3,
			AvgThroughput:     f(1.5),
			AvgVelocity:       f(4.75),
			AvgCycleTime:      f(4),
			AvgPredictability: f(40),
			AvgEfficiency:     f(1.9),
			AvgRework:         f(33.333),
			BestSprint:        &stats.SprintRef{Name: "Sprint 7", Throughput: 3},
			WorstSprint:       &stats.SprintRef{Name: "Sprint 8", Throughput: 0},
			TaskTypeTotals:    map[string]int{"HDU": 2, "Bug": 1},
		},
	}
}

func sampleResults() []batch.TeamResult {
	return []batch.TeamResult{
		{
			Spec:     batch.TeamSpec{Name: "Payments", Variant: stats.DeliveryComplete, Size: 6},
			Success:  true,
			Analysis: sampleAnalysis("Payments"),
		},
		{
			Spec:    batch.TeamSpec{Name: "Broken", Variant: stats.DeliveryComplete, Size: 5},
			Success: false,
			Error:   "missing required columns: Sprint",
		},
		{
			Spec:     batch.TeamSpec{Name: "Core", Variant: stats.DeliveryExtended, Size: 4},
			Success:  true,
			Analysis: sampleAnalysis("Core"),
		},
	}
}
