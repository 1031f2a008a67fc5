package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/core"
)

// Token drives the token endpoint. Supported grants: authorization_code
// and refresh_token. Inbound codes and refresh tokens are unprotected,
// bound to the presenting client, then exchanged for freshly minted
// tokens with claims filtered per outgoing kind.
func (e *Engine) Token(ctx context.Context, raw *RawRequest) *Result {
	c := newContext(ctx, raw)
	return e.run(c, e.token, e.extractToken, e.validateToken, e.handleToken)
}

func (e *Engine) extractToken(c *Context) Disposition {
	if c.Raw.Method != "POST" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed token request has been received: make sure to use POST.", "")
	}
	c.Request = parseRequest(c.Raw)
	return Continue()
}

func (e *Engine) validateToken(c *Context) Disposition {
	switch c.Request.GrantType {
	case "":
		return Reject(core.ErrorInvalidRequest,
			"A malformed token request has been received: a 'grant_type' parameter is required.", "")

	case core.GrantAuthorizationCode:
		if c.Request.Code == "" {
			return Reject(core.ErrorInvalidRequest,
				"A malformed token request has been received: a 'code' parameter is required.", "")
		}
		if c.Request.ClientID == "" {
			return Reject(core.ErrorInvalidRequest,
				"A malformed token request has been received: a 'client_id' parameter is required.", "")
		}

	case core.GrantRefreshToken:
		if c.Request.RefreshToken == "" {
			return Reject(core.ErrorInvalidRequest,
				"A malformed token request has been received: a 'refresh_token' parameter is required.", "")
		}

	default:
		return Reject(core.ErrorUnsupportedGrantType,
			"The specified 'grant_type' is not supported by this server.", "")
	}

	return e.validateCaller(c)
}

func (e *Engine) handleToken(c *Context) Disposition {
	var (
		ticket *core.Ticket
		d      Disposition
	)
	switch c.Request.GrantType {
	case core.GrantAuthorizationCode:
		ticket, d = e.redeemAuthorizationCode(c)
	case core.GrantRefreshToken:
		ticket, d = e.redeemRefreshToken(c)
	}
	if ticket == nil {
		e.audit(c, "token.issue", "", d.RejectedWith().Code, false, map[string]any{"grant_type": c.Request.GrantType})
		return d
	}

	c.Ticket = ticket
	return e.issueTokens(c, ticket)
}

func (e *Engine) redeemAuthorizationCode(c *Context) (*core.Ticket, Disposition) {
	ticket, err := e.tokens.Unprotect(c.ctx, c.Request.Code, core.KindAuthorizationCode)
	if err != nil {
		return nil, Reject(core.ErrorInvalidGrant, "The specified authorization code is invalid.", "")
	}

	ticketID := ticket.GetTicketID()
	if e.revoked(c, ticketID) {
		return nil, Reject(core.ErrorInvalidGrant, "The specified authorization code has already been redeemed.", "")
	}
	if !e.tokens.Validate(ticket, core.KindAuthorizationCode, c.CallerID()) {
		return nil, Reject(core.ErrorInvalidGrant, "The specified authorization code is no longer valid.", "")
	}
	if !ticket.HasPresenter(c.Request.ClientID) {
		return nil, Reject(core.ErrorInvalidGrant, "The specified authorization code was issued to a different client.", "")
	}
	if expected := ticket.GetProperty("redirect_uri"); expected != "" && expected != c.Request.RedirectURI {
		return nil, Reject(core.ErrorInvalidGrant, "The specified 'redirect_uri' does not match the authorization request.", "")
	}

	// Codes are single use.
	if ticketID != "" && e.store != nil {
		if err := e.store.Revoke(c.ctx, ticketID); err != nil {
			log.Ctx(c.ctx).Error().Err(err).Str("ticket_id", ticketID).Msg("failed to retire authorization code")
			return nil, RejectError(core.ServerError())
		}
	}
	return ticket, Continue()
}

func (e *Engine) redeemRefreshToken(c *Context) (*core.Ticket, Disposition) {
	ticket, err := e.tokens.Unprotect(c.ctx, c.Request.RefreshToken, core.KindRefreshToken)
	if err != nil {
		return nil, Reject(core.ErrorInvalidGrant, "The specified refresh token is invalid.", "")
	}

	if e.revoked(c, ticket.GetTicketID()) {
		return nil, Reject(core.ErrorInvalidGrant, "The specified refresh token is no longer valid.", "")
	}
	if !e.tokens.Validate(ticket, core.KindRefreshToken, c.CallerID()) {
		return nil, Reject(core.ErrorInvalidGrant, "The specified refresh token is no longer valid.", "")
	}
	return ticket, Continue()
}

// issueTokens mints the outgoing token set from the redeemed ticket:
// always an access token, a refresh token when the grant allows it,
// and an identity token when the openid scope is present. Before
// minting, claim destinations are stamped through the policy engine;
// each outgoing ticket then keeps only the claims destined for it.
func (e *Engine) issueTokens(c *Context, ticket *core.Ticket) Disposition {
	base := ticket.Copy()
	_ = base.SetProperty("redirect_uri", "")

	if e.policy != nil {
		if err := e.policy.Engine().Apply(base); err != nil {
			log.Ctx(c.ctx).Error().Err(err).Msg("claims policy application failed")
			return RejectError(core.ServerError())
		}
	}

	// Fresh ids per outgoing token; the redeemed ticket's id must not
	// leak into the minted set.
	_ = base.SetProperty(core.PropTicketID, "")

	response := NewResponse()

	access, accessStamped, err := e.tokens.Mint(c.ctx, base.Clone(core.WithDestination(core.KindAccessToken)), core.KindAccessToken, 0)
	if err != nil {
		log.Ctx(c.ctx).Error().Err(err).Msg("failed to mint access token")
		return RejectError(core.ServerError())
	}
	e.saveMetadata(c, accessStamped, core.KindAccessToken)

	response.Set("access_token", access)
	response.Set("token_type", core.TokenTypeBearer)
	if expires, ok := accessStamped.GetExpiresAt(); ok {
		response.Set("expires_in", int64(expires.Sub(e.tokens.Now()).Seconds()))
	}

	refresh, refreshStamped, err := e.tokens.Mint(c.ctx, base.Copy(), core.KindRefreshToken, 0)
	if err != nil {
		log.Ctx(c.ctx).Error().Err(err).Msg("failed to mint refresh token")
		return RejectError(core.ServerError())
	}
	e.saveMetadata(c, refreshStamped, core.KindRefreshToken)
	response.Set("refresh_token", refresh)

	scopes := base.GetScopes()
	if containsFold(scopes, "openid") {
		identity, identityStamped, err := e.tokens.Mint(c.ctx, base.Clone(core.WithDestination(core.KindIdentityToken)), core.KindIdentityToken, 0)
		if err != nil {
			log.Ctx(c.ctx).Error().Err(err).Msg("failed to mint identity token")
			return RejectError(core.ServerError())
		}
		e.saveMetadata(c, identityStamped, core.KindIdentityToken)
		response.Set("id_token", identity)
	}

	if len(scopes) > 0 {
		response.Set("scope", strings.Join(scopes, " "))
	}

	c.Response = response
	e.audit(c, "token.issue", accessStamped.GetTicketID(), "", true, map[string]any{
		"grant_type": c.Request.GrantType,
		"scopes":     scopes,
	})
	return Continue()
}

func containsFold(list []string, want string) bool {
	for _, entry := range list {
		if strings.EqualFold(entry, want) {
			return true
		}
	}
	return false
}
