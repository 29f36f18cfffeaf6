package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"agile-metrics/internal/batch"
	"agile-metrics/internal/config"
	"agile-metrics/internal/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Artifact is one output file produced after a run.
type Artifact struct {
	Name  string
	Write func(path string) error
}

// FileStem turns a team name into a file-name-safe stem.
func FileStem(team string) string {
	stem := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return '_'
	}, strings.TrimSpace(team))
	if stem == "" {
		return "team"
	}
	return stem
}

// TeamArtifacts lists the workbook, JSON and parquet outputs of one team.
func TeamArtifacts(a *stats.Analysis, th config.Thresholds) []Artifact {
	stem := "metrics_" + FileStem(a.Team)
	return []Artifact{
		{Name: stem + ".xlsx", Write: func(path string) error { return WriteTeamWorkbook(path, a, th) }},
		{Name: stem + ".json", Write: func(path string) error { return WriteJSON(path, a) }},
		{Name: stem + "_sprints.parquet", Write: func(path string) error { return WriteParquet(SprintRows(a), path) }},
		{Name: stem + "_months.parquet", Write: func(path string) error { return WriteParquet(MonthRows(a), path) }},
	}
}

// BatchArtifacts lists the consolidated workbook and the JSON of a batch run.
func BatchArtifacts(results []batch.TeamResult, s config.Settings) []Artifact {
	var sprints []SprintRow
	for _, r := range batch.Successful(results) {
		sprints = append(sprints, SprintRows(r.Analysis)...)
	}
	return []Artifact{
		{Name: "consolidated_metrics.xlsx", Write: func(path string) error { return WriteConsolidatedWorkbook(path, results, s) }},
		{Name: "consolidated_metrics.json", Write: func(path string) error { return WriteJSON(path, results) }},
		{Name: "consolidated_sprints.parquet", Write: func(path string) error { return WriteParquet(sprints, path) }},
	}
}

// WriteArtifacts writes every artifact into dir concurrently and returns the written
// paths in artifact order. The first failure cancels the artifacts not yet started.
func WriteArtifacts(ctx context.Context, dir string, artifacts []Artifact) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, len(artifacts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, art := range artifacts {
		path := filepath.Join(dir, art.Name)
		paths[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := art.Write(path); err != nil {
				return fmt.Errorf("%s: %w", art.Name, err)
			}
			log.Debug().Str("path", path).Msg("Artifact written")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
