package stats

import (
	"fmt"
	"strings"
	"time"

	"agile-metrics/internal/calendar"
	"agile-metrics/internal/monday"

	"github.com/rs/zerolog/log"
)

// Config carries every value the pipeline needs for one team run.
type Config struct {
	Policy        DeliveryPolicy
	Calendar      calendar.Calendar
	SprintMapping []MonthMapping
	CopySuffixes  []string
	// FocusType restricts the second cycle-time and predictability pair.
	FocusType     string
	TaskTypeOrder []string
	FeatureTypes  []string
	BugTypes      []string
	TeamSize      int

	// OnlyCompletedSprints drops rows whose sprint is not marked completed.
	OnlyCompletedSprints bool
}

// DefaultConfig returns the built-in configuration for a variant.
func DefaultConfig(v Variant) Config {
	return Config{
		Policy:        DefaultPolicy(v),
		Calendar:      calendar.Default(),
		SprintMapping: DefaultSprintMapping(),
		CopySuffixes:  []string{"(copy)", "(copia)", "(Copy)", "(Copia)"},
		FocusType:     "HDU",
		TaskTypeOrder: []string{"HDU", "Bug", "Solicitud"},
		FeatureTypes:  []string{"HDU", "Solicitud"},
		BugTypes:      []string{"Bug"},
		TeamSize:      5,
	}
}

// Task is a record with its derived fields. Derived fields are set once by Normalize.
type Task struct {
	monday.Record

	IsCopy        bool
	IsDelivered   bool
	IsBug         bool
	UnifiedSprint string
	// Month is empty when no mapping key matches the raw sprint label.
	Month        string
	DeliveryDate *time.Time
	// CycleTimeDays is set only for delivered tasks with both dates known.
	CycleTimeDays   *int
	EffectivePoints float64
}

// Exclusions counts the records dropped before aggregation.
type Exclusions struct {
	MissingSprint       int `json:"missing_sprint"`
	CertifiedZeroPoints int `json:"certified_zero_points"`
	IncompleteSprint    int `json:"incomplete_sprint"`
}

// Total is the number of dropped records.
func (e Exclusions) Total() int {
	return e.MissingSprint + e.CertifiedZeroPoints + e.IncompleteSprint
}

// Normalized is the output of the normalizer stage.
type Normalized struct {
	Tasks []Task
	// DeliveryColumn is the run-wide delivery date column, "" when none had values.
	DeliveryColumn string
	Excluded       Exclusions
	Warnings       []string
}

// Normalize derives the per-task fields and drops records that cannot take part in any metric.
func Normalize(records []monday.Record, cfg Config) Normalized {
	out := Normalized{
		DeliveryColumn: cfg.Policy.SelectDateColumn(records),
	}
	if out.DeliveryColumn == "" {
		log.Warn().Strs("candidates", cfg.Policy.DateColumns).Msg("No delivery date column has values; cycle time is unavailable")
	} else {
		log.Debug().Str("column", out.DeliveryColumn).Msg("Delivery date column selected")
	}

	months := NewMonthMapper(cfg.SprintMapping)
	unmapped := make(map[string]bool)

	for _, r := range records {
		if strings.TrimSpace(r.Sprint) == "" {
			out.Excluded.MissingSprint++
			continue
		}
		if cfg.OnlyCompletedSprints && !r.SprintCompleted {
			out.Excluded.IncompleteSprint++
			continue
		}
		if cfg.Policy.Excludes(r) {
			out.Excluded.CertifiedZeroPoints++
			continue
		}

		t := Task{
			Record:          r,
			IsCopy:          isCopy(r.Name, cfg.CopySuffixes),
			IsDelivered:     cfg.Policy.IsDelivered(r.Status),
			IsBug:           strings.Contains(strings.ToLower(r.TaskType), "bug"),
			UnifiedSprint:   UnifySprint(r.Sprint),
			EffectivePoints: effectivePoints(r),
		}

		if m, ok := months.Month(r.Sprint); ok {
			t.Month = m
		} else if !unmapped[r.Sprint] {
			unmapped[r.Sprint] = true
			out.Warnings = append(out.Warnings, fmt.Sprintf("sprint %q has no month mapping", r.Sprint))
			log.Warn().Str("sprint", r.Sprint).Msg("Sprint without month mapping")
		}

		if t.IsDelivered {
			t.DeliveryDate = cfg.Policy.DeliveryDate(r, out.DeliveryColumn)
			t.CycleTimeDays = cfg.Calendar.BusinessDays(r.StartDate, t.DeliveryDate)
		}

		out.Tasks = append(out.Tasks, t)
	}

	if out.Excluded.Total() > 0 {
		log.Info().
			Int("missingSprint", out.Excluded.MissingSprint).
			Int("certifiedZeroPoints", out.Excluded.CertifiedZeroPoints).
			Int("incompleteSprint", out.Excluded.IncompleteSprint).
			Msg("Records excluded before aggregation")
	}

	return out
}

func isCopy(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if s != "" && strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// effectivePoints prefers positive achieved points, then the estimate, then zero.
func effectivePoints(r monday.Record) float64 {
	if r.Achieved != nil && *r.Achieved > 0 {
		return *r.Achieved
	}
	if r.Estimated != nil {
		return *r.Estimated
	}
	return 0
}
