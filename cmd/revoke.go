package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gmarkoss/tessera/pkg/client"
)

var (
	revokeToken        string
	revokeHint         string
	revokeClientID     string
	revokeClientSecret string
)

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke an issued token",
	Long: `Withdraws a token at the revocation endpoint. Revocation is
silent: unknown or foreign tokens succeed without revoking anything.`,
	Example: `  # Revoke a refresh token
  tessera revoke --server http://localhost:8080 --client-id WebApp --client-secret <secret> --token <token>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := f.GetRemoteAddr()
		if err != nil {
			return err
		}

		cli := client.New(server)
		correlation, err := cli.Revoke(cmd.Context(), revokeToken, revokeHint, client.Credentials{
			ClientID: revokeClientID,
			Secret:   revokeClientSecret,
		})
		if err != nil {
			log.Error().Msgf("%s failed to revoke token (correlation ID: %s)", redCross, correlation)
			log.Error().Msgf("error: %v", err)
			return BeQuietError{}
		}

		log.Info().Msgf("%s revocation accepted", greenCheck)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)

	revokeCmd.Flags().StringVar(&revokeToken, "token", "", "The token to revoke")
	revokeCmd.Flags().StringVar(&revokeHint, "hint", "", "Optional token_type_hint")
	revokeCmd.Flags().StringVar(&revokeClientID, "client-id", "", "Client application to revoke as")
	revokeCmd.Flags().StringVar(&revokeClientSecret, "client-secret", "", "Client secret for confidential clients")
	_ = revokeCmd.MarkFlagRequired("token")
	_ = revokeCmd.MarkFlagRequired("client-id")
}
