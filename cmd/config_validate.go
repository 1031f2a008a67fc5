package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gmarkoss/tessera/internal/config"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			log.Error().Msgf("%s configuration is invalid", redCross)
			log.Error().Msgf("error: %v", err)
			return BeQuietError{}
		}
		log.Info().Msgf("%s configuration is valid (%d clients, %d policy rules)",
			greenCheck, len(cfg.Clients), len(cfg.ClaimsPolicy))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
