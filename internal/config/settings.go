package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"agile-metrics/internal/calendar"
	"agile-metrics/internal/monday"
	"agile-metrics/internal/stats"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// SettingsName is the base name of the settings file searched for when none is given.
const SettingsName = "agile-metrics"

// VariantSettings holds the state and date-column lists of one delivery policy.
type VariantSettings struct {
	States      []string `mapstructure:"states"`
	DateColumns []string `mapstructure:"date_columns"`
}

// DeliverySettings configures both delivery policies.
type DeliverySettings struct {
	Complete         VariantSettings `mapstructure:"complete"`
	Extended         VariantSettings `mapstructure:"extended"`
	CompletionColumn string          `mapstructure:"completion_column"`
	CertifiedState   string          `mapstructure:"certified_state"`
}

// Thresholds are the good/warning limits used to color report cells. Predictability and
// efficiency are better when higher; rework and cycle time when lower.
type Thresholds struct {
	PredictabilityGood    float64 `mapstructure:"predictability_good"`
	PredictabilityWarning float64 `mapstructure:"predictability_warning"`
	EfficiencyGood        float64 `mapstructure:"efficiency_good"`
	EfficiencyWarning     float64 `mapstructure:"efficiency_warning"`
	ReworkGood            float64 `mapstructure:"rework_good"`
	ReworkWarning         float64 `mapstructure:"rework_warning"`
	CycleTimeGood         float64 `mapstructure:"cycle_time_good"`
	CycleTimeWarning      float64 `mapstructure:"cycle_time_warning"`
}

// BatchSettings drives team file discovery.
type BatchSettings struct {
	FilePatterns  []string `mapstructure:"file_patterns"`
	TeamNameRegex string   `mapstructure:"team_name_regex"`
}

// Settings is the analysis configuration. It is loaded once and passed by value.
type Settings struct {
	SprintMapping        []stats.MonthMapping `mapstructure:"sprint_mapping"`
	Delivery             DeliverySettings     `mapstructure:"delivery"`
	WIPStates            []string             `mapstructure:"wip_states"`
	FeatureTypes         []string             `mapstructure:"feature_types"`
	BugTypes             []string             `mapstructure:"bug_types"`
	FocusTaskType        string               `mapstructure:"focus_task_type"`
	TaskTypeOrder        []string             `mapstructure:"task_type_order"`
	Thresholds           Thresholds           `mapstructure:"thresholds"`
	Holidays             []string             `mapstructure:"holidays"`
	CopySuffixes         []string             `mapstructure:"copy_suffixes"`
	DefaultTeamSize      int                  `mapstructure:"default_team_size"`
	TeamSizes            map[string]int       `mapstructure:"team_sizes"`
	DevelopmentTeams     []string             `mapstructure:"development_teams"`
	Batch                BatchSettings        `mapstructure:"batch"`
	HeaderRow            int                  `mapstructure:"header_row"`
	OnlyCompletedSprints bool                 `mapstructure:"only_completed_sprints"`
}

func setDefaults(v *viper.Viper) {
	mapping := make([]map[string]any, 0, len(stats.DefaultSprintMapping()))
	for _, m := range stats.DefaultSprintMapping() {
		mapping = append(mapping, map[string]any{"sprint": m.Sprint, "month": m.Month})
	}
	v.SetDefault("sprint_mapping", mapping)

	v.SetDefault("delivery.complete.states", stats.DefaultDeliveryStates(stats.DeliveryComplete))
	v.SetDefault("delivery.complete.date_columns", stats.DefaultDateColumns(stats.DeliveryComplete))
	v.SetDefault("delivery.extended.states", stats.DefaultDeliveryStates(stats.DeliveryExtended))
	v.SetDefault("delivery.extended.date_columns", stats.DefaultDateColumns(stats.DeliveryExtended))
	v.SetDefault("delivery.completion_column", monday.ColCompletionDate)
	v.SetDefault("delivery.certified_state", stats.CertifiedState)

	v.SetDefault("wip_states", stats.DefaultWIPStates())
	v.SetDefault("feature_types", []string{"HDU", "Solicitud"})
	v.SetDefault("bug_types", []string{"Bug"})
	v.SetDefault("focus_task_type", "HDU")
	v.SetDefault("task_type_order", []string{"HDU", "Bug", "Solicitud"})

	v.SetDefault("thresholds.predictability_good", 70)
	v.SetDefault("thresholds.predictability_warning", 40)
	v.SetDefault("thresholds.efficiency_good", 8.0)
	v.SetDefault("thresholds.efficiency_warning", 5.0)
	v.SetDefault("thresholds.rework_good", 15)
	v.SetDefault("thresholds.rework_warning", 30)
	v.SetDefault("thresholds.cycle_time_good", 7)
	v.SetDefault("thresholds.cycle_time_warning", 14)

	v.SetDefault("holidays", calendar.DefaultHolidayDates)
	v.SetDefault("copy_suffixes", []string{"(copy)", "(copia)", "(Copy)", "(Copia)"})
	v.SetDefault("default_team_size", 5)
	v.SetDefault("team_sizes", map[string]int{})
	v.SetDefault("development_teams", []string{})

	v.SetDefault("batch.file_patterns", []string{"Backlog_Planning_*_All_Tasks_*.xlsx"})
	v.SetDefault("batch.team_name_regex", `Backlog_Planning_(.+?)_All_Tasks`)

	v.SetDefault("header_row", monday.DefaultHeaderRow)
	v.SetDefault("only_completed_sprints", false)
}

// LoadSettings reads the settings file at path, or searches searchDirs for
// agile-metrics.yaml when path is empty. A missing searched file is not an error;
// every key has a default and can be overridden with an AGILE_ environment variable.
func LoadSettings(path string, searchDirs ...string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AGILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(SettingsName)
		v.SetConfigType("yaml")
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
	}

	if path != "" || len(searchDirs) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("failed to read settings: %w", err)
			}
			log.Debug().Strs("dirs", searchDirs).Msg("No settings file found, using defaults")
		} else {
			log.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded analysis settings")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	s, err := LoadSettings("")
	if err != nil {
		// Defaults always decode; an error here means an AGILE_ variable is malformed.
		log.Warn().Err(err).Msg("Ignoring environment overrides")
		v := viper.New()
		setDefaults(v)
		_ = v.Unmarshal(&s)
	}
	return s
}

// Validate rejects settings the pipeline cannot run with.
func (s Settings) Validate() error {
	if err := ValidateTeamSize(s.DefaultTeamSize); err != nil {
		return fmt.Errorf("default_team_size: %w", err)
	}
	for team, size := range s.TeamSizes {
		if err := ValidateTeamSize(size); err != nil {
			return fmt.Errorf("team_sizes[%s]: %w", team, err)
		}
	}
	if s.HeaderRow < 1 {
		return fmt.Errorf("header_row must be at least 1, got %d", s.HeaderRow)
	}
	if _, err := regexp.Compile(s.Batch.TeamNameRegex); err != nil {
		return fmt.Errorf("batch.team_name_regex: %w", err)
	}
	return nil
}

// ValidateTeamSize rejects non-positive team sizes.
func ValidateTeamSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("team size must be a positive number, got %d", n)
	}
	return nil
}

// ParseSprintMapping parses the command-line form "Sprint 2:Julio,Sprint 3:Agosto".
// Pair order is kept since the first matching key wins.
func ParseSprintMapping(s string) ([]stats.MonthMapping, error) {
	var out []stats.MonthMapping
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		sprint, month, ok := strings.Cut(pair, ":")
		sprint, month = strings.TrimSpace(sprint), strings.TrimSpace(month)
		if !ok || sprint == "" || month == "" {
			return nil, fmt.Errorf("invalid sprint mapping %q, expected \"Sprint N:Month\"", pair)
		}
		out = append(out, stats.MonthMapping{Sprint: sprint, Month: month})
	}
	if len(out) == 0 {
		return nil, errors.New("empty sprint mapping")
	}
	return out, nil
}

// Policy builds the delivery policy of a variant from the settings.
func (s Settings) Policy(v stats.Variant) stats.DeliveryPolicy {
	vs := s.Delivery.Complete
	if v == stats.DeliveryExtended {
		vs = s.Delivery.Extended
	}
	return stats.DeliveryPolicy{
		Variant:          v,
		States:           vs.States,
		DateColumns:      vs.DateColumns,
		CompletionColumn: s.Delivery.CompletionColumn,
		CertifiedState:   s.Delivery.CertifiedState,
	}
}

// TeamSize returns the configured size of a team, or the default size.
// Team keys are compared case-insensitively.
func (s Settings) TeamSize(team string) int {
	for name, size := range s.TeamSizes {
		if strings.EqualFold(name, team) {
			return size
		}
	}
	return s.DefaultTeamSize
}

// IsDevelopmentTeam reports whether the team name and a configured development team
// contain one another, ignoring case.
func (s Settings) IsDevelopmentTeam(team string) bool {
	upper := strings.ToUpper(strings.TrimSpace(team))
	if upper == "" {
		return false
	}
	for _, d := range s.DevelopmentTeams {
		dev := strings.ToUpper(strings.TrimSpace(d))
		if dev == "" {
			continue
		}
		if strings.Contains(upper, dev) || strings.Contains(dev, upper) {
			return true
		}
	}
	return false
}

// Calendar parses the configured holidays. Invalid dates are logged and skipped.
func (s Settings) Calendar() calendar.Calendar {
	cal, errs := calendar.Parse(s.Holidays)
	for _, err := range errs {
		log.Warn().Err(err).Msg("Skipping holiday")
	}
	return cal
}

// StatsConfig assembles the pipeline configuration for one team run.
func (s Settings) StatsConfig(v stats.Variant, teamSize int) stats.Config {
	return stats.Config{
		Policy:               s.Policy(v),
		Calendar:             s.Calendar(),
		SprintMapping:        s.SprintMapping,
		CopySuffixes:         s.CopySuffixes,
		FocusType:            s.FocusTaskType,
		TaskTypeOrder:        s.TaskTypeOrder,
		FeatureTypes:         s.FeatureTypes,
		BugTypes:             s.BugTypes,
		TeamSize:             teamSize,
		OnlyCompletedSprints: s.OnlyCompletedSprints,
	}
}

// ReadOptions returns the export reader options. Every delivery date candidate and the
// completion column are parsed as dates, whatever their header.
func (s Settings) ReadOptions() monday.ReadOptions {
	var dateCols []string
	for _, c := range slices.Concat(s.Delivery.Complete.DateColumns, s.Delivery.Extended.DateColumns, []string{s.Delivery.CompletionColumn}) {
		if c != "" && !slices.Contains(dateCols, c) {
			dateCols = append(dateCols, c)
		}
	}
	return monday.ReadOptions{HeaderRow: s.HeaderRow, DateColumns: dateCols}
}
