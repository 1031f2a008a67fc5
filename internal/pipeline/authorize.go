package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/core"
)

// Authorize drives the authorization endpoint. There is no login UI in
// this engine: the host authenticates the resource owner through the
// OnHandle hook and attaches the resulting ticket to the context; the
// built-in logic then binds it to the requesting client and mints the
// authorization code.
func (e *Engine) Authorize(ctx context.Context, raw *RawRequest) *Result {
	c := newContext(ctx, raw)
	return e.run(c, e.authorization, e.extractAuthorization, e.validateAuthorization, e.handleAuthorization)
}

func (e *Engine) extractAuthorization(c *Context) Disposition {
	if c.Raw.Method != "GET" && c.Raw.Method != "POST" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed authorization request has been received: "+
				"make sure to use either GET or POST.", "")
	}
	c.Request = parseRequest(c.Raw)
	return Continue()
}

func (e *Engine) validateAuthorization(c *Context) Disposition {
	if c.Request.ResponseType == "" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed authorization request has been received: a 'response_type' parameter is required.", "")
	}
	if c.Request.ResponseType != core.ResponseTypeCode {
		return Reject(core.ErrorUnsupportedResponseType,
			"The specified 'response_type' is not supported by this server.", "")
	}
	if c.Request.ClientID == "" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed authorization request has been received: a 'client_id' parameter is required.", "")
	}
	if c.Request.RedirectURI == "" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed authorization request has been received: a 'redirect_uri' parameter is required.", "")
	}

	if e.clients != nil && !c.Validated() {
		client, err := e.clients.Lookup(c.ctx, c.Request.ClientID)
		if err != nil {
			return Reject(core.ErrorInvalidClient, "The specified 'client_id' is not registered.", "")
		}
		if len(client.RedirectURIs) > 0 && !containsExact(client.RedirectURIs, c.Request.RedirectURI) {
			return Reject(core.ErrorInvalidRequest,
				"The specified 'redirect_uri' is not registered for this client.", "")
		}
		c.setCaller(client.ID)
		return Continue()
	}

	return e.validateCaller(c)
}

func (e *Engine) handleAuthorization(c *Context) Disposition {
	// The ticket comes from the host's OnHandle hook; reaching the
	// built-in logic without one is a contract violation.
	if c.Ticket == nil {
		log.Ctx(c.ctx).Error().Msg("authorization request reached the handler without an authenticated ticket")
		return RejectError(core.ServerError())
	}

	ticket := c.Ticket.Copy()
	if err := ticket.SetPresenters(c.Request.ClientID); err != nil {
		return RejectError(core.ServerError())
	}
	if err := ticket.SetProperty("redirect_uri", c.Request.RedirectURI); err != nil {
		return RejectError(core.ServerError())
	}
	if c.Request.Scope != "" {
		if err := ticket.SetScopes(strings.Fields(c.Request.Scope)...); err != nil {
			return Reject(core.ErrorInvalidRequest,
				"A malformed authorization request has been received: the 'scope' parameter is malformed.", "")
		}
	}
	if c.Request.Nonce != "" {
		if err := ticket.SetProperty("nonce", c.Request.Nonce); err != nil {
			return RejectError(core.ServerError())
		}
	}

	code, stamped, err := e.tokens.Mint(c.ctx, ticket, core.KindAuthorizationCode, 0)
	if err != nil {
		log.Ctx(c.ctx).Error().Err(err).Msg("failed to mint authorization code")
		return RejectError(core.ServerError())
	}
	e.saveMetadata(c, stamped, core.KindAuthorizationCode)

	response := NewResponse()
	response.Set("code", code)
	if c.Request.State != "" {
		response.Set("state", c.Request.State)
	}

	c.Response = response
	e.audit(c, "code.issue", stamped.GetTicketID(), "", true, map[string]any{
		"redirect_uri": c.Request.RedirectURI,
	})
	return Continue()
}

func containsExact(list []string, want string) bool {
	for _, entry := range list {
		if entry == want {
			return true
		}
	}
	return false
}
