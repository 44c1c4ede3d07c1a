package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded sleep session",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	a := openApp(cmd.Context())

	if !a.repo.DeleteSession(id) {
		a.fail(1, fmt.Sprintf("No sleep session with id %q.", id))
	}
	a.close()

	fmt.Printf("Deleted sleep session %s\n", id)
	return nil
}
