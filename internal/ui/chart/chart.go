// Package chart renders per-day sleep series as horizontal bar charts.
package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
)

const (
	DefaultWidth = 40
	barRune      = "█"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
)

// Render draws one bar per day, scaled so the longest day spans width cells.
// Weekly series are labelled by weekday, longer ones by month and day.
func Render(title string, series []model.DayTotal, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	var longest float64
	for _, d := range series {
		if d.Duration > longest {
			longest = d.Duration
		}
	}

	rows := make([]string, 0, len(series))
	for _, d := range series {
		cells := 0
		if longest > 0 && d.Duration > 0 {
			cells = int(d.Duration / longest * float64(width))
			if cells == 0 {
				cells = 1
			}
		}
		bar := strings.Repeat(barRune, cells) + strings.Repeat(" ", width-cells)
		rows = append(rows, fmt.Sprintf("%s %s %s",
			labelStyle.Render(label(d, len(series))),
			barStyle.Render(bar),
			valueStyle.Render(timecalc.FormatDuration(d.Duration)),
		))
	}

	if title == "" {
		return strings.Join(rows, "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), strings.Join(rows, "\n"))
}

func label(d model.DayTotal, n int) string {
	if n <= 7 && d.Weekday != "" {
		return fmt.Sprintf("%-5s", d.Weekday)
	}
	if len(d.Date) == len(timecalc.DateLayout) {
		return d.Date[5:]
	}
	return d.Date
}
