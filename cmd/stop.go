package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running sleep session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	a := openApp(cmd.Context())

	done, ok := a.repo.EndSleep()
	if !ok {
		a.fail(1, "No active sleep session to stop.")
	}
	a.close()

	elapsed := int64(done.EndTime.Sub(done.StartTime).Seconds())
	fmt.Printf("Sleep session ended at %s. Slept: %s\n",
		done.EndTime.Format("15:04:05"), formatElapsed(elapsed))
	return nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
