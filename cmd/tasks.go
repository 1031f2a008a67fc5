package cmd

import (
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the server's background tasks",
	Long: `Commands for listing, triggering and inspecting background tasks.

Note: these commands require a running server and admin credentials
(see 'tessera login').`,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
