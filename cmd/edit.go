package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
)

var (
	editStart string
	editEnd   string
	editNotes string
	editDate  string
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a recorded sleep session",
	Long: `Change the start, end, notes or date of a completed sleep session.
Changing start or end recalculates the duration. Changing start also moves the
session to the start's date unless --date is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editStart, "start", "", "New start time")
	editCmd.Flags().StringVar(&editEnd, "end", "", "New end time")
	editCmd.Flags().StringVar(&editNotes, "notes", "", "New notes (max 200 characters)")
	editCmd.Flags().StringVar(&editDate, "date", "", "Calendar date (YYYY-MM-DD) the session counts towards")
}

func runEdit(cmd *cobra.Command, args []string) error {
	id := args[0]
	a := openApp(cmd.Context())

	upd, err := buildUpdate(cmd, a.loc)
	if err != nil {
		a.fail(1, err.Error())
	}
	if upd.Empty() {
		a.fail(1, "Nothing to change. Use --start, --end, --notes or --date.")
	}

	if !a.repo.UpdateSession(id, upd) {
		a.fail(1, fmt.Sprintf("No sleep session with id %q.", id))
	}
	s, _ := a.repo.Session(id)
	a.close()

	dur := "-"
	if s.Duration != nil {
		dur = timecalc.FormatDuration(*s.Duration)
	}
	fmt.Printf("Updated sleep session %s on %s (%s)\n", s.ID, s.Date, dur)
	return nil
}

// buildUpdate turns the flags that were set on cmd into a session update.
func buildUpdate(cmd *cobra.Command, loc *time.Location) (model.SessionUpdate, error) {
	var upd model.SessionUpdate
	flags := cmd.Flags()

	if flags.Changed("start") {
		t, err := timecalc.ParseInstant(editStart, loc)
		if err != nil {
			return upd, fmt.Errorf("--start: %w", err)
		}
		upd.StartTime = &t
	}
	if flags.Changed("end") {
		t, err := timecalc.ParseInstant(editEnd, loc)
		if err != nil {
			return upd, fmt.Errorf("--end: %w", err)
		}
		upd.EndTime = &t
	}
	if flags.Changed("notes") {
		notes := editNotes
		upd.Notes = &notes
	}
	if flags.Changed("date") {
		if _, err := time.Parse(timecalc.DateLayout, editDate); err != nil {
			return upd, fmt.Errorf("--date: want YYYY-MM-DD, got %q", editDate)
		}
		date := editDate
		upd.Date = &date
	}
	return upd, nil
}
