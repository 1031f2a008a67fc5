package core

import (
	"context"
	"time"
)

// TicketMetadata records the state of an issued token. Tokens
// themselves persist only as opaque strings held by clients; this is
// the server-side index keyed by ticket id that revocation relies on.
type TicketMetadata struct {
	// TicketID is the unique identifier stamped into the token.
	TicketID string

	// ClientID of the presenter the token was issued to.
	ClientID string

	// Kind of the issued token.
	Kind TokenKind

	// IssuedAt is the time when the token was minted.
	IssuedAt time.Time

	// ExpiresAt is the expiration time of the issued token.
	ExpiresAt time.Time

	// Revoked marks the ticket id as withdrawn.
	Revoked bool
}

// TicketStore manages the lifecycle of issued token metadata.
// Uniqueness of ticket ids is the minter's responsibility; the store
// does not deduplicate.
type TicketStore interface {
	// Save records a newly minted token.
	Save(ctx context.Context, meta TicketMetadata) error

	// Revoke marks the ticket id as revoked. Unknown ids are a no-op:
	// revocation must not confirm token existence.
	Revoke(ctx context.Context, ticketID string) error

	// IsRevoked reports whether the ticket id has been revoked.
	IsRevoked(ctx context.Context, ticketID string) (bool, error)

	// ListActive returns metadata for tokens that have not expired yet.
	ListActive(ctx context.Context) ([]TicketMetadata, error)

	// DeleteExpired drops expired entries and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
