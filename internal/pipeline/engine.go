package pipeline

import (
	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/audit"
	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/internal/policy"
	"github.com/gmarkoss/tessera/internal/token"
)

// Options wires an Engine. Tokens is the only mandatory collaborator;
// the rest degrade gracefully (nil auditor audits nothing, nil store
// skips revocation bookkeeping, nil validator leaves callers
// anonymous).
type Options struct {
	Tokens  *token.Manager
	Policy  *policy.Manager
	Clients core.ClientValidator
	Store   core.TicketStore
	Auditor core.Auditor

	Introspection Hooks
	Revocation    Hooks
	Token         Hooks
	Authorization Hooks
}

// Engine drives the four protocol endpoints through the shared
// Extract, Validate, Handle, Apply state machine. It is read-only
// after construction and safe for concurrent requests.
type Engine struct {
	tokens  *token.Manager
	policy  *policy.Manager
	clients core.ClientValidator
	store   core.TicketStore
	auditor core.Auditor

	introspection Hooks
	revocation    Hooks
	token         Hooks
	authorization Hooks
}

func NewEngine(opts Options) *Engine {
	auditor := opts.Auditor
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	return &Engine{
		tokens:        opts.Tokens,
		policy:        opts.Policy,
		clients:       opts.Clients,
		store:         opts.Store,
		auditor:       auditor,
		introspection: opts.Introspection,
		revocation:    opts.Revocation,
		token:         opts.Token,
		authorization: opts.Authorization,
	}
}

// Result is the terminal outcome of one pipeline run.
type Result struct {
	// Response is the protocol response to serialize, nil when Skipped
	// or Aborted.
	Response *Response

	// Skipped means a stage yielded to the next transport component:
	// the caller must emit nothing.
	Skipped bool

	// Aborted means the request was cancelled before Apply completed.
	Aborted bool
}

type stagePair struct {
	hook    Stage
	builtin Stage
}

// run executes the state machine. The first non-Continue disposition
// stops all later built-in logic; Reject detours through the error
// path, which still offers the Apply hook a chance to decorate or
// replace the error response.
func (e *Engine) run(c *Context, hooks Hooks, extract, validate, handle Stage) *Result {
	stages := []stagePair{
		{hooks.OnExtract, extract},
		{hooks.OnValidate, validate},
		{hooks.OnHandle, handle},
	}

	for _, stage := range stages {
		if c.ctx.Err() != nil {
			return &Result{Aborted: true}
		}

		d := runHook(stage.hook, c)
		if d.isContinue() {
			d = stage.builtin(c)
		}
		switch {
		case d.isContinue():
		case d.RejectedWith() != nil:
			return e.applyStage(c, hooks, ErrorResponse(d.RejectedWith()))
		case d.kind == dispositionHandled:
			return &Result{Response: c.Response}
		default:
			return &Result{Skipped: true}
		}
	}

	return e.applyStage(c, hooks, c.Response)
}

// applyStage runs the Apply hook over the final response, error or
// success alike.
func (e *Engine) applyStage(c *Context, hooks Hooks, response *Response) *Result {
	if c.ctx.Err() != nil {
		return &Result{Aborted: true}
	}

	c.Response = response
	d := runHook(hooks.OnApply, c)
	switch {
	case d.isContinue():
		return &Result{Response: c.Response}
	case d.RejectedWith() != nil:
		return &Result{Response: ErrorResponse(d.RejectedWith())}
	case d.kind == dispositionHandled:
		return &Result{Response: c.Response}
	default:
		return &Result{Skipped: true}
	}
}

// validateCaller is the shared built-in client validation. An
// identified caller must authenticate; anonymous callers pass through
// untrusted. A hook that marked the request validated without a
// client id violates the stage contract and fails the request.
func (e *Engine) validateCaller(c *Context) Disposition {
	if c.Validated() {
		if c.Request.ClientID == "" {
			log.Ctx(c.ctx).Error().Msg("request marked validated without a client_id parameter")
			return RejectError(core.ServerError())
		}
		c.setCaller(c.Request.ClientID)
		return Continue()
	}

	if c.Request.ClientID == "" || e.clients == nil {
		return Continue()
	}

	client, err := e.clients.Validate(c.ctx, c.Request.ClientID, c.Request.ClientSecret)
	if err != nil {
		log.Ctx(c.ctx).Debug().Str("client_id", c.Request.ClientID).Msg("client authentication failed")
		return Reject(core.ErrorInvalidClient, "Client authentication failed.", "")
	}
	c.setCaller(client.ID)
	return Continue()
}

func (e *Engine) audit(c *Context, action, ticketID, errorCode string, granted bool, metadata map[string]any) {
	entry := core.AuditEntry{
		ID:       audit.CorrelationID(c.ctx),
		Time:     e.tokens.Now(),
		Action:   action,
		ClientID: c.CallerID(),
		TicketID: ticketID,
		Granted:  granted,
		Error:    errorCode,
		Metadata: metadata,
	}
	if c.Request != nil && c.Request.Token != "" {
		entry.TokenFingerprint = audit.Fingerprint(c.Request.Token)
	}
	if err := e.auditor.Log(entry); err != nil {
		log.Ctx(c.ctx).Warn().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}

// saveMetadata records a minted ticket in the store so revocation and
// single-use checks can find it later.
func (e *Engine) saveMetadata(c *Context, stamped *core.Ticket, kind core.TokenKind) {
	if e.store == nil {
		return
	}
	meta := core.TicketMetadata{
		TicketID: stamped.GetTicketID(),
		ClientID: c.CallerID(),
		Kind:     kind,
	}
	if issued, ok := stamped.GetIssuedAt(); ok {
		meta.IssuedAt = issued
	}
	if expires, ok := stamped.GetExpiresAt(); ok {
		meta.ExpiresAt = expires
	}
	if err := e.store.Save(c.ctx, meta); err != nil {
		log.Ctx(c.ctx).Warn().Err(err).Str("ticket_id", meta.TicketID).Msg("failed to index minted ticket")
	}
}

// revoked reports whether the ticket id has been revoked. Store errors
// fail closed.
func (e *Engine) revoked(c *Context, ticketID string) bool {
	if e.store == nil || ticketID == "" {
		return false
	}
	revoked, err := e.store.IsRevoked(c.ctx, ticketID)
	if err != nil {
		log.Ctx(c.ctx).Warn().Err(err).Str("ticket_id", ticketID).Msg("revocation lookup failed")
		return true
	}
	return revoked
}
