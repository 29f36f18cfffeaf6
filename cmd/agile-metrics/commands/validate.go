package commands

import (
	"errors"

	"agile-metrics/internal/monday"
	"agile-metrics/internal/report"

	"github.com/spf13/cobra"
)

// errInvalidExport makes the process exit non-zero after the report was printed.
var errInvalidExport = errors.New("export failed validation")

var validateCmd = &cobra.Command{
	Use:   "validate <export>",
	Short: "Check an export's columns and data completeness without analyzing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(); err != nil {
			return err
		}
		table, err := monday.ReadTable(args[0], settings.ReadOptions())
		if err != nil {
			return err
		}
		rep := table.Report()

		out := cmd.OutOrStdout()
		if outputFormat == formatJSON {
			err = report.EncodeJSON(out, rep)
		} else {
			err = report.PrintValidation(out, rep)
		}
		if err != nil {
			return err
		}
		if !rep.Valid {
			return errInvalidExport
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&outputFormat, "format", "f", formatTable, "output format: table or json")
}
