package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/api/presenter"
	"github.com/gmarkoss/tessera/internal/core"
)

// auditQuerier is the optional read side of an auditor. The in-memory
// backend implements it; append-only backends do not, and the audits
// route answers 501 for those.
type auditQuerier interface {
	GetRecent(limit int) ([]core.AuditEntry, error)
	Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error)
}

// handleAdminAudits retrieves recent audit entries, optionally
// filtered by correlation id, client id or token fingerprint.
func (s *Server) handleAdminAudits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	querier, ok := s.auditor.(auditQuerier)
	if !ok {
		presenter.Error(w, r, "audit backend does not support queries", http.StatusNotImplemented)
		return
	}

	q := r.URL.Query()
	limitStr := q.Get("limit")

	filterCorrelationID := q.Get("correlation_id")
	filterClientID := q.Get("client_id")
	filterFingerprint := q.Get("fingerprint")

	limit := 50
	if limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	var entries []core.AuditEntry
	var err error

	if filterCorrelationID != "" || filterClientID != "" || filterFingerprint != "" {
		logger.Info().Msgf("applying audit log filters")
		entries, err = querier.Find(func(entry core.AuditEntry) bool {
			if filterCorrelationID != "" && entry.ID != filterCorrelationID {
				return false
			}
			if filterClientID != "" && entry.ClientID != filterClientID {
				return false
			}
			if filterFingerprint != "" && entry.TokenFingerprint != filterFingerprint {
				return false
			}
			return true
		}, limit)
	} else {
		logger.Debug().Msgf("retrieving recent audit log entries")
		entries, err = querier.GetRecent(limit)
	}

	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit logs")
		presenter.Error(w, r, "failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}

// handleAdminTickets retrieves metadata for tokens that are still live.
func (s *Server) handleAdminTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	tickets, err := s.ticketStore.ListActive(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve active tickets")
		presenter.Error(w, r, "failed to retrieve active tickets", http.StatusInternalServerError)
		return
	}

	presenter.JSON(w, r, tickets, http.StatusOK)
}

// handleListTasks responds with the registered background tasks and
// their statuses.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.taskManager.ListStatus(), http.StatusOK)
}

type TriggerTaskResponse struct {
	Status string `json:"status"`
}

// handleTriggerTask kicks off a background task out of schedule.
func (s *Server) handleTriggerTask(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		presenter.Error(w, r, "missing task name", http.StatusBadRequest)
		return
	}
	if err := s.taskManager.Trigger(name); err != nil {
		presenter.Error(w, r, err.Error(), http.StatusNotFound)
		return
	}
	presenter.JSON(w, r, TriggerTaskResponse{
		Status: "triggered",
	}, http.StatusOK)
}

// handleLogsForTask retrieves the captured output of a task's last run.
func (s *Server) handleLogsForTask(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		presenter.Error(w, r, "missing task name", http.StatusBadRequest)
		return
	}
	logs, err := s.taskManager.GetLogs(name)
	if err != nil {
		presenter.Error(w, r, err.Error(), http.StatusNotFound)
		return
	}
	presenter.JSON(w, r, logs, http.StatusOK)
}
