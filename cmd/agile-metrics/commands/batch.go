package commands

import (
	"errors"
	"fmt"

	"agile-metrics/internal/batch"
	"agile-metrics/internal/report"
	"agile-metrics/internal/stats"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch <folder>",
	Short: "Analyze every team export in a folder",
	Long: `Discovers the team exports in a folder, analyzes each team on its own and writes a
consolidated comparison next to the per-team reports. A failing team is reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	addOutputFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	results, err := batch.ProcessAll(args[0], settings)
	if err != nil {
		return err
	}
	succeeded, failed := batch.Tally(results)

	out := cmd.OutOrStdout()
	if outputFormat == formatJSON {
		if err := report.EncodeJSON(out, results); err != nil {
			return err
		}
	} else if err := report.PrintBatch(out, results); err != nil {
		return err
	}

	ok := batch.Successful(results)
	if !noArtifacts && succeeded > 0 {
		artifacts := report.BatchArtifacts(results, settings)
		for _, r := range ok {
			artifacts = append(artifacts, report.TeamArtifacts(r.Analysis, settings.Thresholds)...)
			if dashboard := dashboardArtifact(r.Analysis); dashboard != nil {
				artifacts = append(artifacts, *dashboard, chartsArtifact(r.Analysis))
			}
		}
		paths, err := report.WriteArtifacts(cmd.Context(), resolveOutDir(), artifacts)
		if err != nil {
			return err
		}
		if outputFormat == formatTable {
			printPaths(out, paths)
		}
	}

	runs := make([]*stats.Analysis, 0, len(ok))
	for _, r := range ok {
		runs = append(runs, r.Analysis)
	}
	archiveRuns(cmd.Context(), runs...)

	if succeeded == 0 {
		return errors.New("no team could be analyzed")
	}
	if failed > 0 && outputFormat == formatTable {
		fmt.Fprintln(out, report.WarningColor.Sprintf("%d team(s) failed, see the table above", failed))
	}
	return nil
}
