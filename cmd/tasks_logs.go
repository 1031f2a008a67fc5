package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tasksLogsCmd = &cobra.Command{
	Use:   "logs <name>",
	Short: "Show the captured output of a task's last run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		logs, err := cli.GetTaskLogs(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("fetching logs for task '%s': %w", name, err)
		}

		if len(logs) == 0 {
			fmt.Println(faint("no logs captured yet"))
			return nil
		}

		for _, entry := range logs {
			level := entry.Level
			switch level {
			case "warn":
				level = color.YellowString(level)
			case "error":
				level = color.RedString(level)
			}
			fmt.Printf("%s [%s] %s\n", faint(entry.Time.Format("15:04:05")), level, entry.Message)
		}
		return nil
	},
}

func init() {
	tasksCmd.AddCommand(tasksLogsCmd)
}
