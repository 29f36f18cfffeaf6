package stats

import (
	"errors"

	"agile-metrics/internal/monday"

	"github.com/rs/zerolog/log"
)

// ErrNoTasks is returned when no record survives normalization.
var ErrNoTasks = errors.New("no tasks left to analyze after normalization")

// ProcessingStats describes what the normalizer kept and dropped.
type ProcessingStats struct {
	InputRecords   int        `json:"input_records"`
	Tasks          int        `json:"tasks"`
	Delivered      int        `json:"delivered"`
	Copies         int        `json:"copies"`
	CarryOver      int        `json:"carry_over"`
	Excluded       Exclusions `json:"excluded"`
	DeliveryStates []string   `json:"delivery_states"`
}

// Analysis is the complete result of one team run.
type Analysis struct {
	Team           string          `json:"team"`
	Variant        Variant         `json:"variant"`
	TeamType       string          `json:"team_type"`
	DeliveryColumn string          `json:"delivery_column,omitempty"`
	TaskTypes      []string        `json:"task_types"`
	Sprints        []SprintMetrics `json:"sprints"`
	Months         []MonthMetrics  `json:"months"`
	Summary        Summary         `json:"summary"`
	Processing     ProcessingStats `json:"processing"`
	Warnings       []string        `json:"warnings,omitempty"`

	Tasks []Task `json:"-"`
}

// AnalysisSession orchestrates the pipeline for a single team export: normalization,
// sprint and month aggregation, and the summary. Every stage runs once and is cached.
type AnalysisSession struct {
	team    string
	records []monday.Record
	cfg     Config

	// Cached projections
	normalized Normalized
	taskTypes  []string
	sprints    []SprintMetrics
	months     []MonthMetrics
	summary    Summary

	isProjected bool
}

// NewAnalysisSession creates a new orchestration session.
func NewAnalysisSession(team string, records []monday.Record, cfg Config) *AnalysisSession {
	return &AnalysisSession{
		team:    team,
		records: records,
		cfg:     cfg,
	}
}

// Project runs the pipeline stages over the session's records.
func (s *AnalysisSession) Project() error {
	if s.isProjected {
		return nil
	}

	// 1. Derive task fields and drop unusable rows
	s.normalized = Normalize(s.records, s.cfg)
	if len(s.normalized.Tasks) == 0 {
		return ErrNoTasks
	}

	// 2. Types are taken from the whole run so every record carries the same columns
	s.taskTypes = TaskTypes(s.normalized.Tasks, s.cfg.TaskTypeOrder)

	// 3. Aggregate
	agg := NewAggregator(s.cfg, s.taskTypes)
	s.sprints = agg.Sprints(s.normalized.Tasks)
	s.months = agg.Months(s.normalized.Tasks)

	// 4. Reduce
	s.summary = Summarize(s.sprints, s.normalized.Tasks, s.taskTypes, s.cfg)

	s.isProjected = true
	log.Info().
		Str("team", s.team).
		Int("tasks", len(s.normalized.Tasks)).
		Int("sprints", len(s.sprints)).
		Int("months", len(s.months)).
		Msg("Analysis completed")
	return nil
}

// Result projects the session and assembles the Analysis.
func (s *AnalysisSession) Result() (*Analysis, error) {
	if err := s.Project(); err != nil {
		return nil, err
	}

	ps := ProcessingStats{
		InputRecords:   len(s.records),
		Tasks:          len(s.normalized.Tasks),
		Excluded:       s.normalized.Excluded,
		DeliveryStates: s.cfg.Policy.States,
	}
	for _, t := range s.normalized.Tasks {
		if t.IsDelivered {
			ps.Delivered++
		}
		if t.IsCopy {
			ps.Copies++
		}
		if t.CarryOver {
			ps.CarryOver++
		}
	}

	return &Analysis{
		Team:           s.team,
		Variant:        s.cfg.Policy.Variant,
		TeamType:       s.cfg.Policy.Variant.TeamType(),
		DeliveryColumn: s.normalized.DeliveryColumn,
		TaskTypes:      s.taskTypes,
		Sprints:        s.sprints,
		Months:         s.months,
		Summary:        s.summary,
		Processing:     ps,
		Warnings:       s.normalized.Warnings,
		Tasks:          s.normalized.Tasks,
	}, nil
}

// Analyze runs the whole pipeline over records.
func Analyze(team string, records []monday.Record, cfg Config) (*Analysis, error) {
	return NewAnalysisSession(team, records, cfg).Result()
}
