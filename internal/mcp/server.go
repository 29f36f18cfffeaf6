// Package mcp exposes the metrics pipeline as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"agile-metrics/internal/config"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server holds the settings every tool call runs with.
type Server struct {
	settings config.Settings
	version  string
	sdk      *mcp.Server
}

// NewServer creates the MCP server and registers its tools.
func NewServer(settings config.Settings, version string) (*Server, error) {
	s := &Server{settings: settings, version: version}
	s.sdk = mcp.NewServer(&mcp.Implementation{Name: "agile-metrics", Version: version}, nil)

	if err := addTool(s.sdk, &mcp.Tool{
		Name:        "analyze_team_export",
		Description: "Analyze one Monday.com sprint export (xlsx or csv) and return sprint, month and summary metrics for the team.",
	}, s.handleAnalyzeTeam); err != nil {
		return nil, err
	}
	if err := addTool(s.sdk, &mcp.Tool{
		Name:        "analyze_batch_folder",
		Description: "Analyze every team export in a folder. A failing team is reported with its error and does not stop the others.",
	}, s.handleAnalyzeBatch); err != nil {
		return nil, err
	}
	if err := addTool(s.sdk, &mcp.Tool{
		Name:        "count_business_days",
		Description: "Count business days between two dates, both inclusive, skipping weekends and configured holidays.",
	}, s.handleCountBusinessDays); err != nil {
		return nil, err
	}
	if err := addTool(s.sdk, &mcp.Tool{
		Name:        "unify_sprint_label",
		Description: "Show how a raw sprint label is unified into a sprint key and which month it maps to.",
	}, s.handleUnifySprint); err != nil {
		return nil, err
	}
	return s, nil
}

// addTool registers a typed handler with an input schema inferred from In.
func addTool[In, Out any](server *mcp.Server, tool *mcp.Tool, handler mcp.ToolHandlerFor[In, Out]) error {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("input schema for %s: %w", tool.Name, err)
	}
	tool.InputSchema = schema
	mcp.AddTool(server, tool, handler)
	return nil
}

// Serve runs the server over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("MCP server listening on stdio")
	return s.sdk.Run(ctx, &mcp.StdioTransport{})
}
