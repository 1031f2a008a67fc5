package api

import (
	"net/http"

	"github.com/gmarkoss/tessera/internal/api/middleware"
	"github.com/gmarkoss/tessera/internal/audit"
	"github.com/gmarkoss/tessera/internal/config"
	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/internal/pipeline"
	"github.com/gmarkoss/tessera/internal/tasks"
)

type Server struct {
	engine      *pipeline.Engine
	cfg         config.ServerConfig
	auditor     core.Auditor
	ticketStore core.TicketStore
	taskManager *tasks.Manager
}

func NewServer(
	engine *pipeline.Engine,
	cfg config.ServerConfig,
	auditor core.Auditor,
	ticketStore core.TicketStore,
	taskManager *tasks.Manager,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}

	return &Server{
		engine:      engine,
		cfg:         cfg,
		auditor:     auditor,
		ticketStore: ticketStore,
		taskManager: taskManager,
	}
}

func (s *Server) Routes(adminSigningKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// protocol routes. Registered without a method pattern: the
	// pipeline owns the verb policy and answers disallowed methods
	// with a protocol error, not a bare 405.
	mux.HandleFunc(s.cfg.Authorization, s.handleProtocol(s.engine.Authorize, s.writeAuthorization))
	mux.HandleFunc(s.cfg.Token, s.handleProtocol(s.engine.Token, writeResponse))
	mux.HandleFunc(s.cfg.Introspection, s.handleProtocol(s.engine.Introspect, writeResponse))
	mux.HandleFunc(s.cfg.Revocation, s.handleProtocol(s.engine.Revoke, writeResponse))

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudits)
	adminMux.HandleFunc("GET "+ListActiveTicketsRoute, s.handleAdminTickets)
	adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
	adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
	adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	mux.Handle(AdminParent, middleware.AdminAuth(adminSigningKey)(adminMux))

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
