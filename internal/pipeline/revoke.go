package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/core"
)

// Revoke drives the revocation endpoint (RFC 7009 shape). A token the
// caller does not own revokes nothing but still yields the empty
// success response, so the endpoint cannot be used to probe for live
// tokens.
func (e *Engine) Revoke(ctx context.Context, raw *RawRequest) *Result {
	c := newContext(ctx, raw)
	return e.run(c, e.revocation, e.extractRevocation, e.validateRevocation, e.handleRevocation)
}

func (e *Engine) extractRevocation(c *Context) Disposition {
	if c.Raw.Method != "GET" && c.Raw.Method != "POST" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed revocation request has been received: "+
				"make sure to use either GET or POST.", "")
	}
	c.Request = parseRequest(c.Raw)
	return Continue()
}

func (e *Engine) validateRevocation(c *Context) Disposition {
	if c.Request.Token == "" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed revocation request has been received: "+
				"a 'token' parameter with an access, refresh, or identity token is required.", "")
	}
	return e.validateCaller(c)
}

func (e *Engine) handleRevocation(c *Context) Disposition {
	// The response is the empty JSON object regardless of outcome.
	c.Response = NewResponse()

	ticket, kind, err := e.tokens.UnprotectAny(c.ctx, c.Request.Token, hintedKind(c.Request.TokenTypeHint))
	if err != nil {
		e.audit(c, "token.revoke", "", "", false, nil)
		return Continue()
	}
	if !e.tokens.Validate(ticket, kind, c.CallerID()) {
		e.audit(c, "token.revoke", "", "", false, nil)
		return Continue()
	}

	c.Ticket = ticket
	ticketID := ticket.GetTicketID()
	if ticketID != "" && e.store != nil {
		if err := e.store.Revoke(c.ctx, ticketID); err != nil {
			log.Ctx(c.ctx).Error().Err(err).Str("ticket_id", ticketID).Msg("failed to revoke ticket")
			return RejectError(core.ServerError())
		}
	}

	e.audit(c, "token.revoke", ticketID, "", true, map[string]any{"kind": string(kind)})
	return Continue()
}
