package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gmarkoss/tessera/internal/cliconfig"
	"github.com/gmarkoss/tessera/pkg/client"
)

var loginCmd = &cobra.Command{
	Use:   "login <admin-token>",
	Short: "Save admin credentials for a Tessera server",
	Long: `Verifies the given admin token against the server and saves it
locally so future admin commands (audit, tasks) are authenticated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		adminToken := args[0]
		if adminToken == "" {
			return fmt.Errorf("token cannot be empty")
		}

		server, err := f.GetRemoteAddr()
		if err != nil {
			return err
		}

		// prove the token works before saving it
		cli := client.New(server, client.WithAuthToken(adminToken))
		if _, err := cli.ListTasks(cmd.Context()); err != nil {
			log.Error().Msgf("%s admin token was rejected by %s", redCross, server)
			log.Error().Msgf("error: %v", err)
			return BeQuietError{}
		}

		cfg, err := cliconfig.Load()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			cfg = cliconfig.New()
		}
		if err := cfg.SetCredential(server, &cliconfig.Credential{Token: adminToken}); err != nil {
			return err
		}
		if err := cliconfig.Save(cfg); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}

		log.Info().Msgf("%s logged in to %s", greenCheck, server)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
