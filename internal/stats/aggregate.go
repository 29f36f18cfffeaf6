package stats

import (
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// SprintMetrics is the metric record of one unified sprint. Ratios with an undefined
// denominator are nil.
type SprintMetrics struct {
	Sprint string `json:"sprint"`
	// OriginalSprints lists the merged raw labels, only when more than one was merged.
	OriginalSprints []string `json:"original_sprints,omitempty"`
	Month           string   `json:"month,omitempty"`

	TotalTasks      int     `json:"total_tasks"`
	Throughput      int     `json:"throughput"`
	CommittedPoints float64 `json:"committed_points"`
	DeliveredPoints float64 `json:"delivered_points"`
	Velocity        float64 `json:"velocity"`
	BugPoints       float64 `json:"bug_points"`
	// BugEffectivePoints values each delivered bug at its achieved points when known.
	BugEffectivePoints float64 `json:"bug_effective_points"`

	CycleTimeAvg       *float64 `json:"cycle_time_avg"`
	CycleTimeMedian    *float64 `json:"cycle_time_median"`
	CycleTimeHDUAvg    *float64 `json:"cycle_time_hdu_avg"`
	CycleTimeHDUMedian *float64 `json:"cycle_time_hdu_median"`

	Predictability          *float64 `json:"predictability"`
	PredictabilityHDU       *float64 `json:"predictability_hdu"`
	Efficiency              *float64 `json:"efficiency"`
	Rework                  *float64 `json:"rework"`
	ReworkOnVelocity        *float64 `json:"rework_on_velocity"`
	ReworkVelocityEffective *float64 `json:"rework_velocity_effective"`

	TaskTypeCounts map[string]int `json:"task_type_counts"`
	CarryOverTasks int            `json:"carry_over_tasks"`
	CopyTasks      int            `json:"copy_tasks"`
}

// MonthMetrics aggregates the per-sprint values of the sprints mapped to one month.
type MonthMetrics struct {
	Month      string   `json:"month"`
	Sprints    []string `json:"sprints"`
	NumSprints int      `json:"num_sprints"`

	ThroughputTotal int     `json:"throughput_total"`
	ThroughputAvg   float64 `json:"throughput_avg"`
	VelocityTotal   float64 `json:"velocity_total"`
	VelocityAvg     float64 `json:"velocity_avg"`

	// CycleTimeAvg is a mean of per-sprint means; CycleTimeMedian pools the month's tasks.
	CycleTimeAvg       *float64 `json:"cycle_time_avg"`
	CycleTimeMedian    *float64 `json:"cycle_time_median"`
	CycleTimeHDUAvg    *float64 `json:"cycle_time_hdu_avg"`
	CycleTimeHDUMedian *float64 `json:"cycle_time_hdu_median"`

	Predictability          *float64 `json:"predictability"`
	PredictabilityHDU       *float64 `json:"predictability_hdu"`
	Efficiency              *float64 `json:"efficiency"`
	Rework                  *float64 `json:"rework"`
	ReworkOnVelocity        *float64 `json:"rework_on_velocity"`
	ReworkVelocityEffective *float64 `json:"rework_velocity_effective"`

	TotalTasks      int            `json:"total_tasks"`
	CommittedPoints float64        `json:"committed_points"`
	TaskTypeCounts  map[string]int `json:"task_type_counts"`
}

// Predicate selects tasks.
type Predicate func(Task) bool

// Delivered selects tasks in a delivery state.
func Delivered(t Task) bool { return t.IsDelivered }

// Undelivered selects tasks not in a delivery state.
func Undelivered(t Task) bool { return !t.IsDelivered }

// Bugs selects tasks classified as bugs.
func Bugs(t Task) bool { return t.IsBug }

// OfType selects tasks of exactly one task type.
func OfType(taskType string) Predicate {
	return func(t Task) bool { return t.TaskType == taskType }
}

// InMonth selects tasks mapped to a month.
func InMonth(month string) Predicate {
	return func(t Task) bool { return t.Month == month }
}

// Filter returns the tasks matching every predicate, in input order.
func Filter(tasks []Task, preds ...Predicate) []Task {
	var out []Task
next:
	for _, t := range tasks {
		for _, p := range preds {
			if !p(t) {
				continue next
			}
		}
		out = append(out, t)
	}
	return out
}

// GroupBySprint partitions tasks by unified sprint. Keys come back in sprint order.
func GroupBySprint(tasks []Task) ([]string, map[string][]Task) {
	groups := make(map[string][]Task)
	var keys []string
	for _, t := range tasks {
		if _, ok := groups[t.UnifiedSprint]; !ok {
			keys = append(keys, t.UnifiedSprint)
		}
		groups[t.UnifiedSprint] = append(groups[t.UnifiedSprint], t)
	}
	slices.SortFunc(keys, CompareSprintKeys)
	return keys, groups
}

// TaskTypes lists the non-empty task types of tasks: the preferred order first, then
// the remaining types alphabetically.
func TaskTypes(tasks []Task, preferred []string) []string {
	seen := make(map[string]bool)
	for _, t := range tasks {
		if t.TaskType != "" {
			seen[t.TaskType] = true
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
	for k := range seen {
		rest = append(rest, k)
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// Aggregator computes sprint and month metric records for one run.
type Aggregator struct {
	cfg       Config
	taskTypes []string
	months    MonthMapper
}

// NewAggregator creates an aggregator. taskTypes are the types counted in every record.
func NewAggregator(cfg Config, taskTypes []string) *Aggregator {
	return &Aggregator{
		cfg:       cfg,
		taskTypes: taskTypes,
		months:    NewMonthMapper(cfg.SprintMapping),
	}
}

// Sprints returns one record per unified sprint in sprint order.
func (a *Aggregator) Sprints(tasks []Task) []SprintMetrics {
	keys, groups := GroupBySprint(tasks)
	out := make([]SprintMetrics, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.sprint(k, groups[k]))
	}
	log.Debug().Int("sprints", len(out)).Msg("Sprint metrics computed")
	return out
}

// Months returns one record per mapped month. Each month recomputes its sprints over the
// month's own tasks and then combines the per-sprint values.
func (a *Aggregator) Months(tasks []Task) []MonthMetrics {
	var months []string
	for _, t := range tasks {
		if t.Month != "" && !slices.Contains(months, t.Month) {
			months = append(months, t.Month)
		}
	}
	slices.SortFunc(months, a.months.Compare)

	out := make([]MonthMetrics, 0, len(months))
	for _, m := range months {
		out = append(out, a.month(m, Filter(tasks, InMonth(m))))
	}
	return out
}

func (a *Aggregator) sprint(key string, all []Task) SprintMetrics {
	delivered := Filter(all, Delivered)
	undelivered := Filter(all, Undelivered)
	deliveredBugs := Filter(delivered, Bugs)

	sm := SprintMetrics{
		Sprint:          key,
		OriginalSprints: originalSprints(all),
		Month:           firstMonth(all),
		TotalTasks:      len(all),
		Throughput:      len(delivered),
		CommittedPoints: sumEstimated(all),
		DeliveredPoints: sumEstimated(delivered),
		BugPoints:       sumEstimated(deliveredBugs),
		TaskTypeCounts:  a.typeCounts(delivered),
	}

	// Delivered work counts at its commitment, undelivered work at what was achieved.
	sm.Velocity = sm.DeliveredPoints + sumAchieved(undelivered)

	for _, t := range deliveredBugs {
		if t.Achieved != nil {
			sm.BugEffectivePoints += *t.Achieved
		} else if t.Estimated != nil {
			sm.BugEffectivePoints += *t.Estimated
		}
	}

	ct := cycleTimes(delivered)
	sm.CycleTimeAvg = MeanInts(ct)
	sm.CycleTimeMedian = MedianOf(ct)

	focus := OfType(a.cfg.FocusType)
	focusDelivered := Filter(delivered, focus)
	focusCT := cycleTimes(focusDelivered)
	sm.CycleTimeHDUAvg = MeanInts(focusCT)
	sm.CycleTimeHDUMedian = MedianOf(focusCT)

	sm.Predictability = Percent(sm.DeliveredPoints, sm.CommittedPoints)
	sm.PredictabilityHDU = Percent(sumEstimated(focusDelivered), sumEstimated(Filter(all, focus)))

	if a.cfg.TeamSize > 0 {
		e := sm.Velocity / float64(a.cfg.TeamSize)
		sm.Efficiency = &e
	}

	sm.Rework = Percent(sm.BugPoints, sm.DeliveredPoints)
	sm.ReworkOnVelocity = Percent(sm.BugPoints, sm.Velocity)
	sm.ReworkVelocityEffective = Percent(sm.BugEffectivePoints, sm.Velocity)

	for _, t := range all {
		if t.CarryOver {
			sm.CarryOverTasks++
		}
		if t.IsCopy {
			sm.CopyTasks++
		}
	}
	return sm
}

func (a *Aggregator) month(name string, tasks []Task) MonthMetrics {
	keys, groups := GroupBySprint(tasks)

	mm := MonthMetrics{
		Month:          name,
		Sprints:        keys,
		NumSprints:     len(keys),
		TotalTasks:     len(tasks),
		TaskTypeCounts: make(map[string]int, len(a.taskTypes)),
	}
	for _, tt := range a.taskTypes {
		mm.TaskTypeCounts[tt] = 0
	}

	var (
		ctMeans, ctFocusMeans                      []*float64
		predictability, predictabilityFocus        []*float64
		efficiency, rework                         []*float64
		bugPoints, bugEffectivePoints, velocitySum float64
	)
	for _, k := range keys {
		sm := a.sprint(k, groups[k])

		mm.ThroughputTotal += sm.Throughput
		velocitySum += sm.Velocity
		mm.CommittedPoints += sm.CommittedPoints
		bugPoints += sm.BugPoints
		bugEffectivePoints += sm.BugEffectivePoints
		for tt, n := range sm.TaskTypeCounts {
			mm.TaskTypeCounts[tt] += n
		}

		ctMeans = append(ctMeans, sm.CycleTimeAvg)
		ctFocusMeans = append(ctFocusMeans, sm.CycleTimeHDUAvg)
		predictability = append(predictability, sm.Predictability)
		predictabilityFocus = append(predictabilityFocus, sm.PredictabilityHDU)
		efficiency = append(efficiency, sm.Efficiency)
		rework = append(rework, sm.Rework)
	}

	mm.VelocityTotal = velocitySum
	if mm.NumSprints > 0 {
		mm.ThroughputAvg = float64(mm.ThroughputTotal) / float64(mm.NumSprints)
		mm.VelocityAvg = velocitySum / float64(mm.NumSprints)
	}

	mm.CycleTimeAvg = MeanOf(ctMeans)
	mm.CycleTimeHDUAvg = MeanOf(ctFocusMeans)

	delivered := Filter(tasks, Delivered)
	mm.CycleTimeMedian = MedianOf(cycleTimes(delivered))
	mm.CycleTimeHDUMedian = MedianOf(cycleTimes(Filter(delivered, OfType(a.cfg.FocusType))))

	mm.Predictability = MeanOf(predictability)
	mm.PredictabilityHDU = MeanOf(predictabilityFocus)
	mm.Efficiency = MeanOf(efficiency)
	mm.Rework = MeanOf(rework)
	mm.ReworkOnVelocity = Percent(bugPoints, mm.VelocityTotal)
	mm.ReworkVelocityEffective = Percent(bugEffectivePoints, mm.VelocityTotal)

	return mm
}

func (a *Aggregator) typeCounts(delivered []Task) map[string]int {
	counts := make(map[string]int, len(a.taskTypes))
	for _, tt := range a.taskTypes {
		counts[tt] = 0
	}
	for _, t := range delivered {
		if t.TaskType != "" {
			counts[t.TaskType]++
		}
	}
	return counts
}

func originalSprints(tasks []Task) []string {
	var labels []string
	for _, t := range tasks {
		l := strings.TrimSpace(t.Sprint)
		if !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}
	if len(labels) < 2 {
		return nil
	}
	slices.Sort(labels)
	return labels
}

func firstMonth(tasks []Task) string {
	for _, t := range tasks {
		if t.Month != "" {
			return t.Month
		}
	}
	return ""
}

func sumEstimated(tasks []Task) float64 {
	total := 0.0
	for _, t := range tasks {
		if t.Estimated != nil {
			total += *t.Estimated
		}
	}
	return total
}

func sumAchieved(tasks []Task) float64 {
	total := 0.0
	for _, t := range tasks {
		if t.Achieved != nil {
			total += *t.Achieved
		}
	}
	return total
}

func cycleTimes(tasks []Task) []int {
	var out []int
	for _, t := range tasks {
		if t.CycleTimeDays != nil {
			out = append(out, *t.CycleTimeDays)
		}
	}
	return out
}
