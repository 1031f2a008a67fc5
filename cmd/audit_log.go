package cmd

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gmarkoss/tessera/pkg/client"
)

var (
	auditLogCorrelationID string
	auditLogClientID      string
	auditLogFingerprint   string
)

// auditLogCmd represents the audit log command
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display audit log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Info().Msg("Fetching audit log...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), client.ListAuditsOpts{
			Limit:         uint(limit),
			CorrelationID: auditLogCorrelationID,
			ClientID:      auditLogClientID,
			Fingerprint:   auditLogFingerprint,
		})
		if err != nil {
			log.Error().Msgf("%s failed to fetch audit log (correlation ID: %s)", redCross, correlation)
			log.Error().Msgf("error: %v", err)
			return BeQuietError{}
		}

		log.Info().Msgf("Retrieved %d audit entries", len(audits))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Action", "Client", "Granted", "Error", "Fingerprint",
		})

		for _, e := range audits {
			status := greenCheck
			if !e.Granted {
				status = redCross
			}

			clientID := e.ClientID
			if clientID == "" {
				clientID = "(anonymous)"
			}

			t.AppendRow(table.Row{
				e.Time.Format(time.RFC3339),
				e.Action,
				truncate(clientID, 35),
				status,
				e.Error,
				truncate(e.TokenFingerprint, 16),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().IntP("limit", "n", 25, "Number of audit entries to retrieve")
	auditLogCmd.Flags().StringVar(&auditLogCorrelationID, "correlation-id", "", "Filter by correlation id")
	auditLogCmd.Flags().StringVar(&auditLogClientID, "client-id", "", "Filter by client id")
	auditLogCmd.Flags().StringVar(&auditLogFingerprint, "fingerprint", "", "Filter by token fingerprint")
}
