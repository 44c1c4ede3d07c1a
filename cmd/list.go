package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
)

var listDays int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sleep sessions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&listDays, "days", 7, "Number of days to show, ending today")
}

func runList(cmd *cobra.Command, args []string) error {
	if listDays <= 0 {
		fmt.Fprintln(os.Stderr, "--days must be positive.")
		os.Exit(1)
	}

	a := openApp(cmd.Context())
	window := a.repo.Window(listDays)
	var active *model.SleepSession
	if s, ok := a.repo.Active(); ok {
		active = &s
	}
	sessions := a.repo.Sessions()
	a.close()

	printList(os.Stdout, active, sessions, window)
	return nil
}
