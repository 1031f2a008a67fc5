package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/pkg/client"
)

var (
	refreshToken        string
	refreshScope        string
	refreshClientID     string
	refreshClientSecret string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Redeem a refresh token for a fresh token set",
	Example: `  # Refresh as the presenting client
  tessera refresh --server http://localhost:8080 --client-id WebApp --client-secret <secret> --token <refresh-token>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := f.GetRemoteAddr()
		if err != nil {
			return err
		}

		cli := client.New(server)
		grant, correlation, err := cli.Exchange(cmd.Context(), client.TokenRequest{
			GrantType:    core.GrantRefreshToken,
			RefreshToken: refreshToken,
			Scope:        refreshScope,
			Credentials: client.Credentials{
				ClientID: refreshClientID,
				Secret:   refreshClientSecret,
			},
		})
		if err != nil {
			log.Error().Msgf("%s refresh failed (correlation ID: %s)", redCross, correlation)
			log.Error().Msgf("error: %v", err)
			return BeQuietError{}
		}

		fmt.Printf("\n  %s %s\n", greenCheck, bold("token set issued"))
		fmt.Printf("  %s: %s\n", faint("access_token"), truncate(grant.AccessToken, 60))
		if grant.RefreshToken != "" {
			fmt.Printf("  %s: %s\n", faint("refresh_token"), truncate(grant.RefreshToken, 60))
		}
		if grant.IDToken != "" {
			fmt.Printf("  %s: %s\n", faint("id_token"), truncate(grant.IDToken, 60))
		}
		fmt.Printf("  %s: %d\n", faint("expires_in"), grant.ExpiresIn)
		if grant.Scope != "" {
			fmt.Printf("  %s: %s\n", faint("scope"), grant.Scope)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringVar(&refreshToken, "token", "", "The refresh token to redeem")
	refreshCmd.Flags().StringVar(&refreshScope, "scope", "", "Optional scope to downscope the new token set")
	refreshCmd.Flags().StringVar(&refreshClientID, "client-id", "", "Client application presenting the token")
	refreshCmd.Flags().StringVar(&refreshClientSecret, "client-secret", "", "Client secret for confidential clients")
	_ = refreshCmd.MarkFlagRequired("token")
	_ = refreshCmd.MarkFlagRequired("client-id")
}
