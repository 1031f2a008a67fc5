package cmd

import (
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the server's audit trail",
	Long: `Commands for retrieving audit entries and active ticket metadata.

Note: these commands require a running server and admin credentials
(see 'tessera login').`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
