// Package ticker shows the elapsed time of the active sleep session, updated
// once per second.
package ticker

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
)

// Sessions is the part of the repository the ticker needs.
type Sessions interface {
	Active() (model.SleepSession, bool)
	EndSleep() (model.SleepSession, bool)
}

type tickMsg time.Time

type Model struct {
	sessions Sessions
	now      func() time.Time

	active   model.SleepSession
	tracking bool
	ended    *model.SleepSession
	width    int
	height   int
}

func New(sessions Sessions, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{sessions: sessions, now: now}
	m.active, m.tracking = sessions.Active()
	return m
}

func (m Model) Init() tea.Cmd {
	if !m.tracking {
		return tea.Quit
	}
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Stop) && m.tracking:
			if done, ok := m.sessions.EndSleep(); ok {
				m.ended = &done
			}
			m.tracking = false
			return m, tea.Quit

		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		}

	case tickMsg:
		// The session may have been stopped elsewhere.
		m.active, m.tracking = m.sessions.Active()
		if !m.tracking {
			return m, tea.Quit
		}
		return m, tickCmd()
	}

	return m, nil
}

// Elapsed is the time since the active session started.
func (m Model) Elapsed() time.Duration {
	if !m.tracking {
		return 0
	}
	return m.now().Sub(m.active.StartTime)
}

// Ended returns the session completed from within the ticker, if any.
func (m Model) Ended() (model.SleepSession, bool) {
	if m.ended == nil {
		return model.SleepSession{}, false
	}
	return *m.ended, true
}

func (m Model) View() string {
	if m.ended != nil && m.ended.Duration != nil {
		return fmt.Sprintf("Sleep ended after %s.\n", timecalc.FormatDuration(*m.ended.Duration))
	}
	if !m.tracking {
		return "No active sleep session.\n"
	}

	timerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(1, 4).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888"))

	status := "Sleeping since " + m.active.StartTime.Format("15:04")
	if m.active.Notes != "" {
		status += " · " + m.active.Notes
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		timerStyle.Render(timecalc.FormatDurationHHMMSS(int64(m.Elapsed().Seconds()))),
		statusStyle.Render(status),
		helpView(),
	)
	if m.width == 0 {
		return content + "\n"
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func helpView() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666")).
		MarginTop(1)
	return helpStyle.Render("s: stop sleep • q: quit")
}

type keyMap struct {
	Stop key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Stop: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stop sleep"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}
