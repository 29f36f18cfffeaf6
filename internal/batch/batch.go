// Package batch runs the metrics pipeline over every team export found in a folder.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"agile-metrics/internal/config"
	"agile-metrics/internal/monday"
	"agile-metrics/internal/stats"

	"github.com/rs/zerolog/log"
)

// ErrNoTeamFiles is returned when a folder holds no file matching the batch patterns.
var ErrNoTeamFiles = errors.New("no team files found")

// TeamFile is a discovered export and the team it belongs to.
type TeamFile struct {
	Team string `json:"team"`
	Path string `json:"path"`
}

// TeamSpec is how a team is analyzed.
type TeamSpec struct {
	Name    string        `json:"name"`
	Variant stats.Variant `json:"variant"`
	Size    int           `json:"size"`
}

// TeamResult is the outcome of one team. A failed team carries its error and no analysis.
type TeamResult struct {
	Spec     TeamSpec        `json:"team"`
	File     string          `json:"file"`
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
	Analysis *stats.Analysis `json:"analysis,omitempty"`
}

// Discover lists the team exports in folder, sorted by file name. Files whose name does
// not yield a team are skipped with a warning.
func Discover(folder string, s config.Settings) ([]TeamFile, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("batch folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("batch folder %s is not a directory", folder)
	}

	re, err := regexp.Compile(s.Batch.TeamNameRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid team name pattern: %w", err)
	}

	var paths []string
	for _, pattern := range s.Batch.FilePatterns {
		matches, err := filepath.Glob(filepath.Join(folder, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !slices.Contains(paths, m) {
				paths = append(paths, m)
			}
		}
	}
	slices.Sort(paths)

	var files []TeamFile
	for _, p := range paths {
		base := filepath.Base(p)
		// Lock files left behind by an open spreadsheet.
		if strings.HasPrefix(base, "~$") {
			continue
		}
		team := teamName(re, base)
		if team == "" {
			log.Warn().Str("file", base).Msg("Could not extract team name, skipping file")
			continue
		}
		log.Info().Str("file", base).Str("team", team).Msg("Team file discovered")
		files = append(files, TeamFile{Team: team, Path: p})
	}
	return files, nil
}

func teamName(re *regexp.Regexp, filename string) string {
	m := re.FindStringSubmatch(filename)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// TeamFromFilename extracts the team of an export file name with the configured pattern,
// falling back to the file name without extension.
func TeamFromFilename(path string, s config.Settings) string {
	base := filepath.Base(path)
	if re, err := regexp.Compile(s.Batch.TeamNameRegex); err == nil {
		if team := teamName(re, base); team != "" {
			return team
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolveTeam decides the delivery policy and size of a team from the settings.
func ResolveTeam(name string, s config.Settings) TeamSpec {
	v := stats.DeliveryComplete
	if s.IsDevelopmentTeam(name) {
		v = stats.DeliveryExtended
	}
	return TeamSpec{Name: name, Variant: v, Size: s.TeamSize(name)}
}

// ProcessTeam runs load, validation, normalization, aggregation and summary for one export.
func ProcessTeam(path string, spec TeamSpec, s config.Settings) (*stats.Analysis, error) {
	exp, err := monday.Load(path, s.ReadOptions())
	if err != nil {
		return nil, err
	}
	return stats.Analyze(spec.Name, exp.Records, s.StatsConfig(spec.Variant, spec.Size))
}

// ProcessAll processes every team file in folder sequentially. A failing team, including
// one that panics, is recorded in its TeamResult and does not stop the others. An error is
// returned only when the folder cannot be scanned or holds no team file.
func ProcessAll(folder string, s config.Settings) ([]TeamResult, error) {
	files, err := Discover(folder, s)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTeamFiles, folder)
	}

	log.Info().Int("files", len(files)).Str("folder", folder).Msg("Starting batch")

	results := make([]TeamResult, 0, len(files))
	for _, f := range files {
		res := processIsolated(f, s)
		if res.Success {
			log.Info().Str("team", res.Spec.Name).Int("delivered", res.Analysis.Summary.TotalDelivered).Msg("Team processed")
		} else {
			log.Error().Str("team", res.Spec.Name).Str("error", res.Error).Msg("Team failed")
		}
		results = append(results, res)
	}

	ok, failed := Tally(results)
	log.Info().Int("succeeded", ok).Int("failed", failed).Msg("Batch completed")
	return results, nil
}

func processIsolated(f TeamFile, s config.Settings) (res TeamResult) {
	spec := ResolveTeam(f.Team, s)
	res = TeamResult{Spec: spec, File: f.Path}
	start := time.Now()

	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Success = false
			res.Analysis = nil
			res.Error = fmt.Sprintf("unexpected failure: %v", r)
		}
	}()

	a, err := ProcessTeam(f.Path, spec, s)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.Analysis = a
	return res
}

// Tally counts successful and failed teams.
func Tally(results []TeamResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// Successful keeps the successful results in order.
func Successful(results []TeamResult) []TeamResult {
	var out []TeamResult
	for _, r := range results {
		if r.Success {
			out = append(out, r)
		}
	}
	return out
}
