package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/ui/chart"
)

// printStatus prints the running session or, when idle, today's total.
func printStatus(w io.Writer, active *model.SleepSession, now time.Time, today float64) {
	if active != nil {
		elapsed := int64(now.Sub(active.StartTime).Seconds())
		fmt.Fprintln(w, "Sleeping:")
		fmt.Fprintf(w, "  Since: %s\n", active.StartTime.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsed))
		if active.Notes != "" {
			fmt.Fprintf(w, "  Notes: %s\n", active.Notes)
		}
		return
	}
	fmt.Fprintln(w, "No active sleep session.")
	fmt.Fprintf(w, "Today: %s slept.\n", timecalc.FormatDuration(today))
}

// printList groups sessions by date, newest first. Only sessions dated inside
// window are shown; an active session is listed as ongoing.
func printList(w io.Writer, active *model.SleepSession, sessions []model.SleepSession, window []string) {
	in := make(map[string]bool, len(window))
	for _, d := range window {
		in[d] = true
	}

	var shown []model.SleepSession
	if active != nil && in[active.Date] {
		shown = append(shown, *active)
	}
	for _, s := range sessions {
		if in[s.Date] {
			shown = append(shown, s)
		}
	}
	if len(shown) == 0 {
		fmt.Fprintln(w, "No sleep sessions found.")
		return
	}
	sort.SliceStable(shown, func(i, j int) bool {
		if shown[i].Date != shown[j].Date {
			return shown[i].Date > shown[j].Date
		}
		return shown[i].StartTime.After(shown[j].StartTime)
	})

	var currentDay string
	for _, s := range shown {
		if s.Date != currentDay {
			fmt.Fprintf(w, "%s %s\n", s.Date, timecalc.WeekdayLabel(s.Date))
			currentDay = s.Date
		}

		endStr := "ongoing"
		durStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Format("15:04")
		}
		if s.Duration != nil {
			durStr = fmt.Sprintf(" (%s)", timecalc.FormatDuration(*s.Duration))
		}
		notes := ""
		if s.Notes != "" {
			notes = "  " + s.Notes
		}

		fmt.Fprintf(w, "  %s–%s%s  %s%s\n", s.StartTime.Format("15:04"), endStr, durStr, s.ID, notes)
	}
}

// printStats prints the window statistics, the per-day chart and the all-time
// summary.
func printStats(w io.Writer, title string, st model.SleepStats, series []model.DayTotal, all model.Summary) {
	fmt.Fprintln(w, chart.Render(title, series, chart.DefaultWidth))
	fmt.Fprintln(w)
	if st.TotalSessions == 0 {
		fmt.Fprintln(w, "No completed sleep sessions in this period.")
	} else {
		fmt.Fprintf(w, "Sessions: %d\n", st.TotalSessions)
		fmt.Fprintf(w, "Average:  %s\n", timecalc.FormatDuration(st.AverageDuration))
		fmt.Fprintf(w, "Longest:  %s\n", timecalc.FormatDuration(st.LongestSession))
		fmt.Fprintf(w, "Shortest: %s\n", timecalc.FormatDuration(st.ShortestSession))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "All time: %d sessions, %s total, %s average\n",
		all.Sessions, timecalc.FormatDuration(all.TotalDuration), timecalc.FormatDuration(all.AverageDuration))
}
