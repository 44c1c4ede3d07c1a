package timecalc

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar date format used as the session grouping key.
const DateLayout = "2006-01-02"

// CalculateDuration returns end-start in minutes. The result is not rounded
// and is negative when end precedes start.
func CalculateDuration(start, end time.Time) float64 {
	return end.Sub(start).Minutes()
}

// DateString returns the YYYY-MM-DD calendar date of t in t's location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WindowDates returns the last n calendar dates ending with now's date,
// oldest first, evaluated in now's location.
func WindowDates(now time.Time, n int) []string {
	if n <= 0 {
		return []string{}
	}
	today := StartOfDay(now)
	dates := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		dates = append(dates, DateString(today.AddDate(0, 0, -i)))
	}
	return dates
}

// WeekdayLabel returns the short English weekday ("Mon") of a YYYY-MM-DD date,
// or "" if the date does not parse.
func WeekdayLabel(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return d.Weekday().String()[:3]
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInstant parses an ISO-8601 instant. Values carrying an offset are taken
// as-is; values without one are interpreted in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (want RFC 3339 or \"YYYY-MM-DD HH:MM\")", s)
}

// FormatDuration formats minutes as "7h 30m" or "45m". Fractions of a minute
// are dropped.
func FormatDuration(minutes float64) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	total := int64(math.Floor(minutes))
	h := total / 60
	m := total % 60
	if h == 0 {
		return fmt.Sprintf("%s%dm", sign, m)
	}
	return fmt.Sprintf("%s%dh %dm", sign, h, m)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
