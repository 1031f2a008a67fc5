package core

import "time"

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "token.issue", "token.introspect")
	Action string `json:"action"`

	// ClientID identifies the client application that made the request,
	// empty for anonymous callers.
	ClientID string `json:"client_id,omitempty"`

	// TicketID of the token the request operated on, if one was resolved.
	TicketID string `json:"ticket_id,omitempty"`

	// TokenFingerprint of the inbound or minted token for traceability.
	TokenFingerprint string `json:"token_fingerprint,omitempty"`

	// Granted indicates whether the operation succeeded from the
	// caller's point of view.
	Granted bool `json:"granted"`

	// Error is the protocol error code, if any.
	Error string `json:"error,omitempty"`

	// Metadata contains extra details (scopes, grant type, kind, ...)
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
