package cmd

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gmarkoss/tessera/pkg/client"
)

var (
	introspectToken        string
	introspectHint         string
	introspectClientID     string
	introspectClientSecret string
)

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Ask a server about a token's state",
	Long: `Submits a token to the introspection endpoint and displays the
answer. Tokens you do not own come back as inactive; the server never
explains why.`,
	Example: `  # Introspect an access token as the audience client
  tessera introspect --server http://localhost:8080 --client-id Fabrikam --token <token>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := f.GetRemoteAddr()
		if err != nil {
			return err
		}

		cli := client.New(server)
		info, correlation, err := cli.Introspect(cmd.Context(), introspectToken, introspectHint, client.Credentials{
			ClientID: introspectClientID,
			Secret:   introspectClientSecret,
		})
		if err != nil {
			log.Error().Msgf("%s introspection failed (correlation ID: %s)", redCross, correlation)
			log.Error().Msgf("error: %v", err)
			return BeQuietError{}
		}

		if !info.Active() {
			fmt.Printf("\n  %s %s\n", redCross, bold("inactive"))
			return nil
		}

		fmt.Printf("\n  %s %s\n", greenCheck, bold("active"))

		names := make([]string, 0, len(info))
		for name := range info {
			if name != "active" {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %v\n", faint(name), info[name])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(introspectCmd)

	introspectCmd.Flags().StringVar(&introspectToken, "token", "", "The token to introspect")
	introspectCmd.Flags().StringVar(&introspectHint, "hint", "", "Optional token_type_hint (access_token, refresh_token, ...)")
	introspectCmd.Flags().StringVar(&introspectClientID, "client-id", "", "Client application to introspect as")
	introspectCmd.Flags().StringVar(&introspectClientSecret, "client-secret", "", "Client secret for confidential clients")
	_ = introspectCmd.MarkFlagRequired("token")
	_ = introspectCmd.MarkFlagRequired("client-id")
}
