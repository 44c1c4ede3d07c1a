// Package stats derives summary statistics and per-day series from a
// snapshot of sleep sessions. Every call rescans the full session list.
package stats

import (
	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
)

// StatsFor summarises the completed sessions whose Date falls within window.
// Sessions without a duration are ignored. An empty selection yields zero stats.
func StatsFor(sessions []model.SleepSession, window []string) model.SleepStats {
	in := dateSet(window)

	var (
		count             int
		sum               float64
		longest, shortest float64
	)
	for _, s := range sessions {
		if s.Duration == nil {
			continue
		}
		if _, ok := in[s.Date]; !ok {
			continue
		}
		d := *s.Duration
		if count == 0 || d > longest {
			longest = d
		}
		if count == 0 || d < shortest {
			shortest = d
		}
		sum += d
		count++
	}

	if count == 0 {
		return model.SleepStats{}
	}
	return model.SleepStats{
		AverageDuration: sum / float64(count),
		TotalSessions:   count,
		LongestSession:  longest,
		ShortestSession: shortest,
	}
}

// DailySeries sums session durations per date of window, preserving window
// order. Dates without sessions get a zero total.
func DailySeries(sessions []model.SleepSession, window []string) []model.DayTotal {
	totals := make(map[string]float64, len(window))
	for _, s := range sessions {
		if s.Duration == nil {
			continue
		}
		totals[s.Date] += *s.Duration
	}

	series := make([]model.DayTotal, len(window))
	for i, date := range window {
		series[i] = model.DayTotal{
			Date:     date,
			Weekday:  timecalc.WeekdayLabel(date),
			Duration: totals[date],
		}
	}
	return series
}

// Overall returns all-time totals. The average divides by every recorded
// session, including ones without a duration.
func Overall(sessions []model.SleepSession) model.Summary {
	var total float64
	for _, s := range sessions {
		if s.Duration != nil {
			total += *s.Duration
		}
	}
	sum := model.Summary{
		TotalDuration: total,
		Sessions:      len(sessions),
	}
	if len(sessions) > 0 {
		sum.AverageDuration = total / float64(len(sessions))
	}
	return sum
}

func dateSet(window []string) map[string]struct{} {
	set := make(map[string]struct{}, len(window))
	for _, d := range window {
		set[d] = struct{}{}
	}
	return set
}
