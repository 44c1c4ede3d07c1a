package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/tracker"
)

var startNotes string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start tracking a sleep session",
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&startNotes, "notes", "", "Optional notes (max 200 characters)")
}

func runStart(cmd *cobra.Command, args []string) error {
	a := openApp(cmd.Context())

	s, err := a.repo.StartSleep(startNotes)
	if errors.Is(err, tracker.ErrAlreadyTracking) {
		a.fail(1, fmt.Sprintf("Already tracking a sleep session since %s. Run \"tst stop\" first.",
			s.StartTime.Format("2006-01-02 15:04")))
	}
	a.close()

	fmt.Printf("Sleep tracking started at %s\n", s.StartTime.Format("15:04:05"))
	return nil
}
