package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var tasksTriggerCmd = &cobra.Command{
	Use:   "trigger <name>",
	Short: "Trigger a background task out of schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		if err := cli.TriggerTask(cmd.Context(), name); err != nil {
			return fmt.Errorf("triggering task '%s': %w", name, err)
		}

		log.Info().Msgf("%s task '%s' triggered", greenCheck, name)
		return nil
	},
}

func init() {
	tasksCmd.AddCommand(tasksTriggerCmd)
}
