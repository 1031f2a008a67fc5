package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gmarkoss/tessera/internal/core"
)

// Private claim names carrying the ticket payload and its kind
// discriminator inside the JWT.
const (
	claimTicket = "tst"
	claimKind   = "tsk"
)

// JWTCodec serializes tickets as HMAC-signed JWTs. The whole ticket
// rides inside a private claim so the round trip loses nothing; the
// registered claims mirror the ticket's timestamps for the benefit of
// generic JWT tooling.
type JWTCodec struct {
	key    []byte
	issuer string
	parser *jwt.Parser
}

// NewJWTCodec builds a codec signing with HS256. Expiry is a lifecycle
// concern rather than a codec concern, so the parser is configured to
// surface expired tokens instead of rejecting them.
func NewJWTCodec(key []byte, issuer string) (*JWTCodec, error) {
	if len(key) == 0 {
		return nil, errors.New("signing key must not be empty")
	}
	return &JWTCodec{
		key:    key,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

type ticketClaims struct {
	jwt.RegisteredClaims
	Kind   string       `json:"tsk"`
	Ticket *core.Ticket `json:"tst"`
}

// Protect signs the ticket into a compact JWT of the given kind.
func (c *JWTCodec) Protect(ctx context.Context, ticket *core.Ticket, kind core.TokenKind) (string, error) {
	claims := ticketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  c.issuer,
			ID:      ticket.GetTicketID(),
			Subject: ticket.GetClaim("sub"),
		},
		Kind:   string(kind),
		Ticket: ticket,
	}
	if issued, ok := ticket.GetIssuedAt(); ok {
		claims.IssuedAt = jwt.NewNumericDate(issued)
	}
	if expires, ok := ticket.GetExpiresAt(); ok {
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// Unprotect verifies the signature and extracts the embedded ticket.
// A token whose kind discriminator does not match the requested kind
// fails even when its signature is valid.
func (c *JWTCodec) Unprotect(ctx context.Context, opaque string, kind core.TokenKind) (*core.Ticket, error) {
	var claims ticketClaims
	if _, err := c.parser.ParseWithClaims(opaque, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	}); err != nil {
		return nil, fmt.Errorf("parsing %s token: %w", kind, err)
	}

	if claims.Kind != string(kind) {
		return nil, fmt.Errorf("token kind %q does not match %q", claims.Kind, kind)
	}
	if claims.Ticket == nil {
		return nil, errors.New("token carries no ticket payload")
	}
	if claims.Ticket.Properties == nil {
		claims.Ticket.Properties = map[string]string{}
	}
	return claims.Ticket, nil
}
