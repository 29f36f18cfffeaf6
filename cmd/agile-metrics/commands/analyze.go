package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"agile-metrics/internal/batch"
	"agile-metrics/internal/config"
	"agile-metrics/internal/monday"
	"agile-metrics/internal/report"
	"agile-metrics/internal/stats"
	"agile-metrics/internal/visuals"

	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var (
	analyzeTeam        string
	analyzeTeamSize    int
	analyzeDevelopment bool
	analyzePolicy      string
	outDir             string
	outputFormat       string
	noArtifacts        bool
	openDashboard      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <export>",
	Short: "Analyze one team export",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTeam, "team", "", "team name (default: derived from the file name)")
	analyzeCmd.Flags().IntVar(&analyzeTeamSize, "team-size", 0, "number of team members (default: configured size)")
	analyzeCmd.Flags().BoolVar(&analyzeDevelopment, "development", false, "use the extended delivery policy (QA certified and UAT count as delivered)")
	analyzeCmd.Flags().StringVar(&analyzePolicy, "policy", "", "delivery policy: complete (productive) or extended (development)")
	analyzeCmd.Flags().BoolVar(&openDashboard, "open", false, "open the HTML dashboard in the default browser")
	analyzeCmd.MarkFlagsMutuallyExclusive("development", "policy")
	addOutputFlags(analyzeCmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for report files (default: OUTPUT_DIR)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", formatTable, "console output format: table or json")
	cmd.Flags().BoolVar(&noArtifacts, "no-files", false, "print results only, write no report files")
}

func checkFormat() error {
	if outputFormat != formatTable && outputFormat != formatJSON {
		return fmt.Errorf("unsupported format %q, use %s or %s", outputFormat, formatTable, formatJSON)
	}
	return nil
}

func resolveOutDir() string {
	if outDir != "" {
		return outDir
	}
	if cfg != nil {
		return cfg.OutputDir
	}
	return "."
}

// teamSpec applies the command-line overrides on top of the configured team.
func teamSpec(cmd *cobra.Command, path string) (batch.TeamSpec, error) {
	team := analyzeTeam
	if team == "" {
		team = batch.TeamFromFilename(path, settings)
	}
	spec := batch.ResolveTeam(team, settings)

	if cmd.Flags().Changed("team-size") {
		if err := config.ValidateTeamSize(analyzeTeamSize); err != nil {
			return spec, err
		}
		spec.Size = analyzeTeamSize
	}
	if cmd.Flags().Changed("development") {
		spec.Variant = stats.DeliveryComplete
		if analyzeDevelopment {
			spec.Variant = stats.DeliveryExtended
		}
	}
	if cmd.Flags().Changed("policy") {
		v, err := stats.ParseVariant(analyzePolicy)
		if err != nil {
			return spec, err
		}
		spec.Variant = v
	}
	return spec, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	spec, err := teamSpec(cmd, args[0])
	if err != nil {
		return err
	}

	a, err := batch.ProcessTeam(args[0], spec, settings)
	if monday.IsValidationError(err) {
		return fmt.Errorf("%w (run \"agile-metrics validate %s\" for column completeness)", err, args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printAnalysis(out, a); err != nil {
		return err
	}

	if !noArtifacts {
		artifacts := report.TeamArtifacts(a, settings.Thresholds)
		dashboard := dashboardArtifact(a)
		if dashboard != nil {
			artifacts = append(artifacts, *dashboard, chartsArtifact(a))
		}
		paths, err := report.WriteArtifacts(cmd.Context(), resolveOutDir(), artifacts)
		if err != nil {
			return err
		}
		if outputFormat == formatTable {
			printPaths(out, paths)
		}
		if dashboard != nil && (openDashboard || (cfg != nil && cfg.OpenDashboard)) {
			visuals.OpenDashboard(filepath.Join(resolveOutDir(), dashboard.Name))
		}
	}

	archiveRuns(cmd.Context(), a)
	return nil
}

func printAnalysis(w io.Writer, a *stats.Analysis) error {
	if outputFormat == formatJSON {
		return report.EncodeJSON(w, a)
	}
	if err := report.PrintSummary(w, a, settings.Thresholds); err != nil {
		return err
	}
	if err := report.PrintSprints(w, a, settings.Thresholds); err != nil {
		return err
	}
	if err := report.PrintMonths(w, a, settings.Thresholds); err != nil {
		return err
	}
	for _, warning := range a.Warnings {
		fmt.Fprintln(w, report.WarningColor.Sprint("warning: "+warning))
	}
	return nil
}

// dashboardArtifact returns the HTML dashboard of a team, or nil when charts are disabled.
func dashboardArtifact(a *stats.Analysis) *report.Artifact {
	if cfg != nil && !cfg.EnableMermaidCharts {
		return nil
	}
	return &report.Artifact{
		Name:  "dashboard_" + report.FileStem(a.Team) + ".html",
		Write: func(path string) error { return visuals.WriteHTML(path, a) },
	}
}

// chartsArtifact returns the markdown form of the dashboard charts.
func chartsArtifact(a *stats.Analysis) report.Artifact {
	return report.Artifact{
		Name:  "charts_" + report.FileStem(a.Team) + ".md",
		Write: func(path string) error { return visuals.WriteMarkdown(path, a) },
	}
}

func printPaths(w io.Writer, paths []string) {
	fmt.Fprintln(w, "\nReports:")
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
