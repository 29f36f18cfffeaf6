package commands

import (
	"agile-metrics/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the metrics tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(settings, Version)
		if err != nil {
			return err
		}
		log.Info().Str("version", Version).Msg("Starting MCP server on stdio")
		return server.Serve(cmd.Context())
	},
}
