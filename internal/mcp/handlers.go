package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agile-metrics/internal/batch"
	"agile-metrics/internal/config"
	"agile-metrics/internal/monday"
	"agile-metrics/internal/stats"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// AnalyzeTeamInput selects an export and how its team is analyzed.
type AnalyzeTeamInput struct {
	Path        string `json:"path" jsonschema:"path to the .xlsx or .csv export"`
	Team        string `json:"team,omitempty" jsonschema:"team name; derived from the file name when empty"`
	TeamSize    int    `json:"team_size,omitempty" jsonschema:"number of team members; configured size when zero"`
	Development *bool  `json:"development,omitempty" jsonschema:"use the extended delivery policy; derived from the configured development teams when omitted"`
}

// AnalyzeTeamOutput is the analysis of one team.
type AnalyzeTeamOutput struct {
	Analysis stats.Analysis `json:"analysis"`
}

// AnalyzeBatchInput selects a batch folder.
type AnalyzeBatchInput struct {
	Folder string `json:"folder" jsonschema:"folder holding one export per team"`
}

// AnalyzeBatchOutput lists every team outcome.
type AnalyzeBatchOutput struct {
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Teams     []batch.TeamResult `json:"teams"`
}

// BusinessDaysInput is an inclusive date range.
type BusinessDaysInput struct {
	Start string `json:"start" jsonschema:"first day, YYYY-MM-DD"`
	End   string `json:"end" jsonschema:"last day, YYYY-MM-DD"`
}

// BusinessDaysOutput is the business-day count of a range.
type BusinessDaysOutput struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	BusinessDays int    `json:"business_days"`
	Holidays     int    `json:"configured_holidays"`
}

// UnifySprintInput is a raw sprint label.
type UnifySprintInput struct {
	Label string `json:"label" jsonschema:"sprint label as written in the export"`
}

// UnifySprintOutput shows the unified key and month of a label.
type UnifySprintOutput struct {
	Label   string `json:"label"`
	Unified string `json:"unified"`
	Number  *int   `json:"number,omitempty"`
	Month   string `json:"month,omitempty"`
	Mapped  bool   `json:"mapped"`
}

func (s *Server) handleAnalyzeTeam(_ context.Context, _ *mcp.CallToolRequest, in AnalyzeTeamInput) (*mcp.CallToolResult, AnalyzeTeamOutput, error) {
	if strings.TrimSpace(in.Path) == "" {
		return nil, AnalyzeTeamOutput{}, errors.New("path is required")
	}

	team := strings.TrimSpace(in.Team)
	if team == "" {
		team = batch.TeamFromFilename(in.Path, s.settings)
	}
	spec := batch.ResolveTeam(team, s.settings)
	if in.TeamSize != 0 {
		if err := config.ValidateTeamSize(in.TeamSize); err != nil {
			return nil, AnalyzeTeamOutput{}, err
		}
		spec.Size = in.TeamSize
	}
	if in.Development != nil {
		spec.Variant = stats.DeliveryComplete
		if *in.Development {
			spec.Variant = stats.DeliveryExtended
		}
	}

	log.Info().Str("team", spec.Name).Str("path", in.Path).Msg("Tool analyze_team_export")
	a, err := batch.ProcessTeam(in.Path, spec, s.settings)
	if err != nil {
		return nil, AnalyzeTeamOutput{}, err
	}
	return nil, AnalyzeTeamOutput{Analysis: *a}, nil
}

func (s *Server) handleAnalyzeBatch(_ context.Context, _ *mcp.CallToolRequest, in AnalyzeBatchInput) (*mcp.CallToolResult, AnalyzeBatchOutput, error) {
	if strings.TrimSpace(in.Folder) == "" {
		return nil, AnalyzeBatchOutput{}, errors.New("folder is required")
	}
	results, err := batch.ProcessAll(in.Folder, s.settings)
	if err != nil {
		return nil, AnalyzeBatchOutput{}, err
	}
	ok, failed := batch.Tally(results)
	return nil, AnalyzeBatchOutput{Succeeded: ok, Failed: failed, Teams: results}, nil
}

func (s *Server) handleCountBusinessDays(_ context.Context, _ *mcp.CallToolRequest, in BusinessDaysInput) (*mcp.CallToolResult, BusinessDaysOutput, error) {
	start := monday.ParseDate(in.Start)
	if start == nil {
		return nil, BusinessDaysOutput{}, fmt.Errorf("invalid start date %q", in.Start)
	}
	end := monday.ParseDate(in.End)
	if end == nil {
		return nil, BusinessDaysOutput{}, fmt.Errorf("invalid end date %q", in.End)
	}

	cal := s.settings.Calendar()
	return nil, BusinessDaysOutput{
		Start:        start.Format("2006-01-02"),
		End:          end.Format("2006-01-02"),
		BusinessDays: *cal.BusinessDays(start, end),
		Holidays:     cal.Holidays(),
	}, nil
}

func (s *Server) handleUnifySprint(_ context.Context, _ *mcp.CallToolRequest, in UnifySprintInput) (*mcp.CallToolResult, UnifySprintOutput, error) {
	out := UnifySprintOutput{Label: in.Label, Unified: stats.UnifySprint(in.Label)}
	if n, ok := stats.SprintNumber(in.Label); ok {
		out.Number = &n
	}
	out.Month, out.Mapped = stats.NewMonthMapper(s.settings.SprintMapping).Month(in.Label)
	return nil, out, nil
}
