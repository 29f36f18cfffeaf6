package stats

import (
	"slices"

	"github.com/rs/zerolog/log"
)

// SprintRef names a sprint and its throughput.
type SprintRef struct {
	Name       string `json:"name"`
	Throughput int    `json:"throughput"`
}

// Summary folds the sprint records of a run into one executive record.
// Averages skip nil values; a metric nil in every sprint stays nil.
type Summary struct {
	TeamSize       int `json:"team_size"`
	TotalSprints   int `json:"total_sprints"`
	TotalTasks     int `json:"total_tasks"`
	TotalDelivered int `json:"total_delivered"`

	AvgThroughput              *float64 `json:"avg_throughput"`
	AvgVelocity                *float64 `json:"avg_velocity"`
	AvgCycleTime               *float64 `json:"avg_cycle_time"`
	AvgCycleTimeHDU            *float64 `json:"avg_cycle_time_hdu"`
	AvgPredictability          *float64 `json:"avg_predictability"`
	AvgPredictabilityHDU       *float64 `json:"avg_predictability_hdu"`
	AvgEfficiency              *float64 `json:"avg_efficiency"`
	AvgRework                  *float64 `json:"avg_rework"`
	AvgReworkOnVelocity        *float64 `json:"avg_rework_on_velocity"`
	AvgReworkVelocityEffective *float64 `json:"avg_rework_velocity_effective"`

	BestSprint  *SprintRef `json:"best_sprint"`
	WorstSprint *SprintRef `json:"worst_sprint"`

	TaskTypeTotals   map[string]int `json:"task_type_totals"`
	FeatureDelivered int            `json:"feature_delivered"`
	BugDelivered     int            `json:"bug_delivered"`
}

// Summarize reduces sprint records to a Summary. sprints must be in sprint order so ties
// resolve to the earliest sprint. Type totals come from the delivered tasks directly.
func Summarize(sprints []SprintMetrics, tasks []Task, taskTypes []string, cfg Config) Summary {
	s := Summary{
		TeamSize:       cfg.TeamSize,
		TotalSprints:   len(sprints),
		TotalTasks:     len(tasks),
		TaskTypeTotals: make(map[string]int, len(taskTypes)),
	}

	var throughput, velocity []float64
	var ct, ctFocus, pred, predFocus, eff, rework, rov, rovEff []*float64

	for i, sm := range sprints {
		s.TotalDelivered += sm.Throughput
		throughput = append(throughput, float64(sm.Throughput))
		velocity = append(velocity, sm.Velocity)

		ct = append(ct, sm.CycleTimeAvg)
		ctFocus = append(ctFocus, sm.CycleTimeHDUAvg)
		pred = append(pred, sm.Predictability)
		predFocus = append(predFocus, sm.PredictabilityHDU)
		eff = append(eff, sm.Efficiency)
		rework = append(rework, sm.Rework)
		rov = append(rov, sm.ReworkOnVelocity)
		rovEff = append(rovEff, sm.ReworkVelocityEffective)

		if i == 0 || sm.Throughput > s.BestSprint.Throughput {
			s.BestSprint = &SprintRef{Name: sm.Sprint, Throughput: sm.Throughput}
		}
		if i == 0 || sm.Throughput < s.WorstSprint.Throughput {
			s.WorstSprint = &SprintRef{Name: sm.Sprint, Throughput: sm.Throughput}
		}
	}

	s.AvgThroughput = Mean(throughput)
	s.AvgVelocity = Mean(velocity)
	s.AvgCycleTime = MeanOf(ct)
	s.AvgCycleTimeHDU = MeanOf(ctFocus)
	s.AvgPredictability = MeanOf(pred)
	s.AvgPredictabilityHDU = MeanOf(predFocus)
	s.AvgEfficiency = MeanOf(eff)
	s.AvgRework = MeanOf(rework)
	s.AvgReworkOnVelocity = MeanOf(rov)
	s.AvgReworkVelocityEffective = MeanOf(rovEff)

	for _, tt := range taskTypes {
		s.TaskTypeTotals[tt] = 0
	}
	for _, t := range Filter(tasks, Delivered) {
		if t.TaskType != "" {
			s.TaskTypeTotals[t.TaskType]++
		}
		switch {
		case slices.Contains(cfg.FeatureTypes, t.TaskType):
			s.FeatureDelivered++
		case slices.Contains(cfg.BugTypes, t.TaskType):
			s.BugDelivered++
		}
	}

	log.Debug().
		Int("sprints", s.TotalSprints).
		Int("delivered", s.TotalDelivered).
		Msg("Summary computed")
	return s
}
