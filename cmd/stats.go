package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var statsMonth bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show sleep statistics for the last 7 days",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsMonth, "month", false, "Use the last 30 days instead")
}

func runStats(cmd *cobra.Command, args []string) error {
	a := openApp(cmd.Context())

	title := "Last 7 days"
	st, series := a.repo.WeeklyStats(), a.repo.WeeklySeries()
	if statsMonth {
		title = "Last 30 days"
		st, series = a.repo.MonthlyStats(), a.repo.MonthlySeries()
	}
	all := a.repo.Overall()
	a.close()

	printStats(os.Stdout, title, st, series, all)
	return nil
}
