package commands

import (
	"fmt"

	"agile-metrics/internal/monday"

	"github.com/spf13/cobra"
)

var daysCmd = &cobra.Command{
	Use:   "days <start> <end>",
	Short: "Count business days between two dates, both inclusive",
	Long: `Counts Monday to Friday days between two dates, both inclusive, excluding the configured
holidays. A range whose end is before its start counts 0 days.`,
	Example: "  agile-metrics days 2024-10-07 2024-10-14",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := monday.ParseDate(args[0])
		if start == nil {
			return fmt.Errorf("invalid start date %q", args[0])
		}
		end := monday.ParseDate(args[1])
		if end == nil {
			return fmt.Errorf("invalid end date %q", args[1])
		}

		cal := settings.Calendar()
		days := cal.BusinessDays(start, end)
		if days == nil {
			return fmt.Errorf("cannot count days between %s and %s", args[0], args[1])
		}
		fmt.Fprintln(cmd.OutOrStdout(), *days)
		return nil
	},
}
