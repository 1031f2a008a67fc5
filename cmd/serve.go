package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gmarkoss/tessera/internal/api"
	"github.com/gmarkoss/tessera/internal/audit"
	"github.com/gmarkoss/tessera/internal/clients"
	"github.com/gmarkoss/tessera/internal/config"
	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/internal/logging"
	"github.com/gmarkoss/tessera/internal/pipeline"
	"github.com/gmarkoss/tessera/internal/policy"
	"github.com/gmarkoss/tessera/internal/store"
	"github.com/gmarkoss/tessera/internal/tasks"
	"github.com/gmarkoss/tessera/internal/token"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Tessera authorization server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if addr == "" {
			addr = cfg.Server.Addr
		}

		settings, err := cfg.Codec.JWTSettings()
		if err != nil {
			return fmt.Errorf("reading codec settings: %w", err)
		}
		codec, err := token.NewJWTCodec([]byte(settings.Key), cfg.Issuer)
		if err != nil {
			return fmt.Errorf("building token codec: %w", err)
		}
		codecs := make(map[core.TokenKind]core.Codec, len(core.Kinds))
		for _, kind := range core.Kinds {
			codecs[kind] = codec
		}
		tokens := token.NewManager(token.Options{
			Issuer:    cfg.Issuer,
			Lifetimes: cfg.Lifetimes.Map(),
			Codecs:    codecs,
		})

		log.Info().Int("clients", len(cfg.Clients)).Msg("Registering clients...")
		validator, err := clients.NewStaticValidator(cfg.Clients)
		if err != nil {
			return fmt.Errorf("building client validator: %w", err)
		}

		log.Info().Int("rules", len(cfg.ClaimsPolicy)).Msg("Compiling claims policy...")
		policies, err := policy.NewManager(cfg.ClaimsPolicy)
		if err != nil {
			return fmt.Errorf("compiling claims policy: %w", err)
		}

		auditor, err := buildAuditor(cfg.Audit)
		if err != nil {
			return fmt.Errorf("building auditor: %w", err)
		}
		defer func() {
			_ = auditor.Close()
		}()

		ticketStore := store.NewInMemoryTicketStore()

		engine := pipeline.NewEngine(pipeline.Options{
			Tokens:  tokens,
			Policy:  policies,
			Clients: validator,
			Store:   ticketStore,
			Auditor: auditor,
		})

		taskManager := tasks.NewManager(cfg.Tasks.RunTimeout)
		defer taskManager.Stop()
		taskManager.Register("ticket-sweep", cfg.Tasks.SweepInterval,
			func(ctx context.Context, logger logging.InternalLogger) error {
				removed, err := ticketStore.DeleteExpired(ctx)
				if err != nil {
					return err
				}
				logger.Info("removed %d expired ticket entries", removed)
				return nil
			})

		adminKey := cfg.Server.AdminKey
		if adminKey == "" {
			adminKey = settings.Key
		}

		srv := api.NewServer(engine, cfg.Server, auditor, ticketStore, taskManager)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes([]byte(adminKey)),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func buildAuditor(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return audit.NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case "", "memory":
		return audit.NewInMemoryAuditor(), nil
	case "file":
		return audit.NewFileAuditor(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown audit type '%s'", cfg.Type)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (overrides the config)")
}
