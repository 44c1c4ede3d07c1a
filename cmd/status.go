package cmd

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/stats"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/ui/ticker"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current sleep session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Show a live timer (press s to stop sleep, q to quit)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := openApp(cmd.Context())

	if statusWatch && a.repo.Tracking() {
		if isTerminal(os.Stdout) {
			return watchStatus(a)
		}
		a.log.Debug("stdout is not a terminal, printing status once")
	}

	now := time.Now().In(a.loc)
	var active *model.SleepSession
	if s, ok := a.repo.Active(); ok {
		active = &s
	}
	today := stats.DailySeries(a.repo.Sessions(), []string{timecalc.DateString(now)})[0].Duration
	a.close()

	printStatus(os.Stdout, active, now, today)
	return nil
}

func watchStatus(a *app) error {
	p := tea.NewProgram(ticker.New(a.repo, nil))
	final, err := p.Run()
	a.close()
	if err != nil {
		return fmt.Errorf("running live timer: %w", err)
	}
	if m, ok := final.(ticker.Model); ok {
		if done, ended := m.Ended(); ended {
			a.log.Debug("sleep ended from live timer", "id", done.ID)
		}
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
