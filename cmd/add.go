package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
)

var (
	addStart string
	addEnd   string
	addNotes string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a past sleep session",
	Example: `  tst add --start "2024-01-01 23:00" --end "2024-01-02 07:00"
  tst add --start 2024-01-01T23:00:00+01:00 --end 2024-01-02T06:30:00+01:00 --notes "woke up once"`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addStart, "start", "", "When you fell asleep (required)")
	addCmd.Flags().StringVar(&addEnd, "end", "", "When you woke up (required)")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Optional notes (max 200 characters)")
	_ = addCmd.MarkFlagRequired("start")
	_ = addCmd.MarkFlagRequired("end")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a := openApp(cmd.Context())

	start, err := timecalc.ParseInstant(addStart, a.loc)
	if err != nil {
		a.fail(1, "--start: "+err.Error())
	}
	end, err := timecalc.ParseInstant(addEnd, a.loc)
	if err != nil {
		a.fail(1, "--end: "+err.Error())
	}
	if end.Before(start) {
		a.fail(1, "--end must not be before --start.")
	}

	s := a.repo.NewSession(start, end, addNotes)
	a.repo.AddSession(s)
	a.close()

	fmt.Printf("Added sleep session %s on %s (%s)\n", s.ID, s.Date, timecalc.FormatDuration(*s.Duration))
	return nil
}
