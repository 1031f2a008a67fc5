package core

import (
	"context"
	"time"
)

// Codec converts a ticket to and from its opaque wire form.
// Implementations own signing/encryption entirely; the engine treats
// protect/unprotect as a black box. One codec serves one token kind.
type Codec interface {
	// Protect serializes the ticket into an opaque token string.
	Protect(ctx context.Context, ticket *Ticket, kind TokenKind) (string, error)

	// Unprotect reverses Protect. Any failure (malformed, forged,
	// undecodable input) is an error; the lifecycle manager maps it to
	// ErrInvalidToken without inspecting the cause.
	Unprotect(ctx context.Context, token string, kind TokenKind) (*Ticket, error)
}

// Client describes a registered client application.
type Client struct {
	ID           string
	Confidential bool
	RedirectURIs []string
}

// ClientValidator confirms the existence and credentials of a client
// application. Implementations: static config table, external
// registration service.
type ClientValidator interface {
	// Validate checks the declared client id and optional secret.
	// Failure means invalid_client; no distinction between unknown
	// clients and bad secrets is exposed.
	Validate(ctx context.Context, clientID, clientSecret string) (*Client, error)

	// Lookup resolves a client by id without authenticating it. The
	// authorization endpoint uses it: no secret travels through the
	// front channel.
	Lookup(ctx context.Context, clientID string) (*Client, error)
}

// Clock supplies the current time. Configurable so tests can pin it.
type Clock func() time.Time
