package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/internal/policy"
	"github.com/gmarkoss/tessera/internal/token"
)

// Introspect drives the introspection endpoint (RFC 7662 shape). The
// anti-oracle rule governs the whole flow: expired, forged, revoked
// and foreign tokens are all reported as a bare active:false.
func (e *Engine) Introspect(ctx context.Context, raw *RawRequest) *Result {
	c := newContext(ctx, raw)
	return e.run(c, e.introspection, e.extractIntrospection, e.validateIntrospection, e.handleIntrospection)
}

func (e *Engine) extractIntrospection(c *Context) Disposition {
	if c.Raw.Method != "GET" && c.Raw.Method != "POST" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed introspection request has been received: "+
				"make sure to use either GET or POST.", "")
	}
	c.Request = parseRequest(c.Raw)
	return Continue()
}

func (e *Engine) validateIntrospection(c *Context) Disposition {
	if c.Request.Token == "" {
		return Reject(core.ErrorInvalidRequest,
			"A malformed introspection request has been received: "+
				"a 'token' parameter with an access, refresh, or identity token is required.", "")
	}
	return e.validateCaller(c)
}

func (e *Engine) handleIntrospection(c *Context) Disposition {
	inactive := func() Disposition {
		c.Response = NewResponse()
		c.Response.Set("active", false)
		e.audit(c, "token.introspect", "", "", false, nil)
		return Continue()
	}

	ticket, kind, err := e.tokens.UnprotectAny(c.ctx, c.Request.Token, hintedKind(c.Request.TokenTypeHint))
	if err != nil {
		return inactive()
	}

	ticketID := ticket.GetTicketID()
	if e.revoked(c, ticketID) {
		return inactive()
	}
	if !e.tokens.Validate(ticket, kind, c.CallerID()) {
		log.Ctx(c.ctx).Debug().Str("kind", string(kind)).Msg("introspected token failed validation")
		return inactive()
	}

	c.Ticket = ticket
	response := NewResponse()
	response.Set("active", true)
	if ticketID != "" {
		response.Set("jti", ticketID)
	}
	response.Set("token_type", core.TokenTypeBearer)
	if issuer := e.tokens.Issuer(); issuer != "" {
		response.Set("iss", issuer)
	}
	if sub := ticket.GetClaim("sub"); sub != "" {
		response.Set("sub", sub)
	}
	if issued, ok := ticket.GetIssuedAt(); ok {
		response.Set("iat", issued.Unix())
		response.Set("nbf", issued.Unix())
	}
	if expires, ok := ticket.GetExpiresAt(); ok {
		response.Set("exp", expires.Unix())
	}
	if audiences := ticket.GetAudiences(); len(audiences) > 0 {
		response.Set("aud", audiences)
	}

	// Non-basic claims are disclosed only to callers the ticket itself
	// names as an audience or presenter.
	if token.IsTrustedCaller(ticket, c.CallerID()) {
		if scopes := ticket.GetScopes(); len(scopes) > 0 {
			response.Set("scope", strings.Join(scopes, " "))
		}
		var rules *policy.Engine
		if e.policy != nil {
			rules = e.policy.Engine()
		}
		for _, identity := range ticket.Identities {
			for _, claim := range identity.Claims {
				if isBasicClaim(claim.Type) {
					continue
				}
				if _, taken := response.Get(claim.Type); taken {
					continue
				}
				if rules != nil && !rules.Disclose(ticket, claim) {
					continue
				}
				response.Set(claim.Type, claim.Value)
			}
		}
	}

	c.Response = response
	e.audit(c, "token.introspect", ticketID, "", true, map[string]any{"kind": string(kind)})
	return Continue()
}

// basicClaims are always derived from the ticket properties, never
// echoed from identity claims.
var basicClaims = map[string]struct{}{
	"active": {}, "jti": {}, "token_type": {}, "iss": {}, "sub": {},
	"iat": {}, "nbf": {}, "exp": {}, "aud": {}, "scope": {},
}

func isBasicClaim(claimType string) bool {
	_, ok := basicClaims[claimType]
	return ok
}

func hintedKind(hint string) core.TokenKind {
	kind := core.TokenKind(hint)
	if kind.IsValid() {
		return kind
	}
	return ""
}

