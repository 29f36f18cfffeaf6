package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"agile-metrics/internal/archive"
	"agile-metrics/internal/config"
	"agile-metrics/internal/logging"
	"agile-metrics/internal/stats"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose       bool
	settingsPath  string
	sprintMapping string

	cfg      *config.AppConfig
	settings config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "agile-metrics",
	Short: "Agile sprint metrics from Monday.com board exports",
	Long: `Computes throughput, velocity, cycle time in business days, predictability, efficiency and rework
per sprint and per month from Monday.com sprint exports, for one team or a whole folder of teams.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		path := settingsPath
		if path == "" {
			path = cfg.SettingsFile
		}
		settings, err = config.LoadSettings(path, cfg.DataPath, ".")
		if err != nil {
			return err
		}
		if sprintMapping != "" {
			mapping, err := config.ParseSprintMapping(sprintMapping)
			if err != nil {
				return err
			}
			settings.SprintMapping = mapping
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("agile-metrics starting")
		return nil
	},
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "analysis settings file (YAML); defaults to AGILE_SETTINGS or agile-metrics.yaml")
	rootCmd.PersistentFlags().StringVar(&sprintMapping, "sprint-mapping", "", `sprint to month mapping, e.g. "Sprint 2:Julio,Sprint 3:Agosto"`)

	rootCmd.AddCommand(analyzeCmd, batchCmd, validateCmd, daysCmd, serveCmd)
}

// archiveRuns stores finished runs in the configured archive. Archive failures never fail a run.
func archiveRuns(ctx context.Context, runs ...*stats.Analysis) {
	if cfg == nil || len(runs) == 0 {
		return
	}
	store, err := archive.Open(cfg.Archive.Backend, cfg.Archive.DSN)
	if err != nil {
		log.Warn().Err(err).Msg("Archive unavailable, results not archived")
		return
	}
	defer func() { _ = store.Close() }()
	if !store.Enabled() {
		return
	}

	for _, a := range runs {
		if _, err := store.SaveRun(ctx, a.Team, a); err != nil {
			log.Warn().Err(err).Str("team", a.Team).Msg("Failed to archive run")
		}
	}
}
