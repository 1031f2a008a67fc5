package cmd

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// auditTicketsCmd represents the audit tickets command
var auditTicketsCmd = &cobra.Command{
	Use:     "tickets",
	Aliases: []string{"tokens"},
	Short:   "List metadata of tokens that are still live",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Info().Msg("Fetching active tickets...")
		tickets, correlation, err := cli.ListActiveTickets(cmd.Context())
		if err != nil {
			log.Error().Msgf("%s failed to fetch active tickets (correlation ID: %s)", redCross, correlation)
			log.Error().Msgf("error: %v", err)
			return BeQuietError{}
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Ticket ID", "Client", "Kind", "Issued", "Expires", "Revoked"})

		for _, ticket := range tickets {
			revoked := ""
			if ticket.Revoked {
				revoked = color.RedString("revoked")
			}

			t.AppendRow(table.Row{
				ticket.TicketID,
				ticket.ClientID,
				ticket.Kind,
				ticket.IssuedAt.Format(time.RFC3339),
				ticket.ExpiresAt.Format(time.RFC3339),
				revoked,
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditTicketsCmd)
}
