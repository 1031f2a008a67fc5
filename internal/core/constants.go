package core

// TokenKind identifies one of the serialized token forms the engine
// can mint and unprotect. The values double as usage tags, claim
// destinations and token_type_hint values on the wire.
type TokenKind string

const (
	KindAuthorizationCode TokenKind = "authorization_code"
	KindAccessToken       TokenKind = "access_token"
	KindIdentityToken     TokenKind = "id_token"
	KindRefreshToken      TokenKind = "refresh_token"
)

// Kinds lists every token kind in hint-scan order.
var Kinds = []TokenKind{
	KindAccessToken,
	KindRefreshToken,
	KindAuthorizationCode,
	KindIdentityToken,
}

func (k TokenKind) IsValid() bool {
	switch k {
	case KindAuthorizationCode, KindAccessToken, KindIdentityToken, KindRefreshToken:
		return true
	default:
		return false
	}
}

// Reserved ticket property names. They are part of the token
// compatibility contract: tokens already in the wild carry these exact
// keys, so they must not change without a version marker.
const (
	PropAudiences            = "audiences"
	PropPresenters           = "presenters"
	PropResources            = "resources"
	PropScopes               = "scopes"
	PropUsage                = "usage"
	PropTicketID             = "ticket_id"
	PropConfidentialityLevel = "confidentiality_level"
	PropIssuedAt             = "issued_at"
	PropExpiresAt            = "expires_at"

	PropAccessTokenLifetime       = "access_token_lifetime"
	PropAuthorizationCodeLifetime = "authorization_code_lifetime"
	PropIdentityTokenLifetime     = "identity_token_lifetime"
	PropRefreshTokenLifetime      = "refresh_token_lifetime"

	// PropDestinations is stored on claims, not tickets.
	PropDestinations = "destinations"
)

// Confidentiality levels. A ticket is confidential iff the property
// equals ConfidentialityPrivate (case-insensitively); everything else,
// including garbage values, means public.
const (
	ConfidentialityPublic  = "public"
	ConfidentialityPrivate = "private"
)

// Protocol error codes (RFC 6749 §5.2, RFC 7009, RFC 7662).
const (
	ErrorInvalidRequest          = "invalid_request"
	ErrorInvalidClient           = "invalid_client"
	ErrorInvalidGrant            = "invalid_grant"
	ErrorInvalidToken            = "invalid_token"
	ErrorUnsupportedGrantType    = "unsupported_grant_type"
	ErrorUnsupportedResponseType = "unsupported_response_type"
	ErrorServerError             = "server_error"
)

// Grant types accepted by the token endpoint.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// ResponseTypeCode is the only response_type the authorization
// endpoint serves; anything else is rejected.
const ResponseTypeCode = "code"

// TokenTypeBearer is the token_type reported for minted access tokens.
const TokenTypeBearer = "Bearer"
