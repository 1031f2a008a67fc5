package token

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/core"
)

// Default per-kind lifetimes, used when neither the caller nor the
// ticket supplies one.
const (
	DefaultAuthorizationCodeLifetime = 5 * time.Minute
	DefaultAccessTokenLifetime       = time.Hour
	DefaultIdentityTokenLifetime     = 20 * time.Minute
	DefaultRefreshTokenLifetime      = 14 * 24 * time.Hour
)

// Options configures a Manager. Built once at startup, read-only
// thereafter; the manager never mutates it.
type Options struct {
	// Issuer is the identifier stamped into minted tokens.
	Issuer string

	// Lifetimes overrides the per-kind default lifetimes.
	Lifetimes map[core.TokenKind]time.Duration

	// Codecs maps each token kind to its protect/unprotect capability.
	Codecs map[core.TokenKind]core.Codec

	// Clock supplies the current time; defaults to time.Now.
	Clock core.Clock
}

// Manager mints tickets into opaque tokens and validates inbound
// tickets against the caller's declared identity.
type Manager struct {
	issuer    string
	lifetimes map[core.TokenKind]time.Duration
	codecs    map[core.TokenKind]core.Codec
	clock     core.Clock
}

func NewManager(opts Options) *Manager {
	lifetimes := map[core.TokenKind]time.Duration{
		core.KindAuthorizationCode: DefaultAuthorizationCodeLifetime,
		core.KindAccessToken:       DefaultAccessTokenLifetime,
		core.KindIdentityToken:     DefaultIdentityTokenLifetime,
		core.KindRefreshToken:      DefaultRefreshTokenLifetime,
	}
	for kind, lifetime := range opts.Lifetimes {
		if lifetime > 0 {
			lifetimes[kind] = lifetime
		}
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Manager{
		issuer:    opts.Issuer,
		lifetimes: lifetimes,
		codecs:    opts.Codecs,
		clock:     clock,
	}
}

// Issuer returns the issuer identifier minted tokens carry.
func (m *Manager) Issuer() string { return m.issuer }

// Now returns the manager's current time.
func (m *Manager) Now() time.Time { return m.clock() }

// Mint serializes the ticket into an opaque token of the given kind.
// The ticket is copied first: the caller's instance is never mutated.
// The copy is stamped with usage, issuance and expiry timestamps and a
// fresh ticket id when none is present, then handed to the kind's
// codec. The stamped copy is returned alongside the opaque string so
// callers can audit or index what was actually serialized.
//
// Lifetime resolution order: non-zero override, per-kind property on
// the ticket, per-kind configured default.
func (m *Manager) Mint(ctx context.Context, ticket *core.Ticket, kind core.TokenKind, override time.Duration) (string, *core.Ticket, error) {
	codec, ok := m.codecs[kind]
	if !ok {
		return "", nil, fmt.Errorf("no codec registered for %q tokens", kind)
	}

	stamped := ticket.Copy()
	if err := stamped.SetUsage(kind); err != nil {
		return "", nil, err
	}

	now := m.clock()
	if err := stamped.SetIssuedAt(now); err != nil {
		return "", nil, err
	}

	lifetime := override
	if lifetime == 0 {
		if fromTicket, ok := stamped.GetLifetime(kind); ok {
			lifetime = fromTicket
		} else {
			lifetime = m.lifetimes[kind]
		}
	}
	if err := stamped.SetExpiresAt(now.Add(lifetime)); err != nil {
		return "", nil, err
	}

	if stamped.GetTicketID() == "" {
		if err := stamped.SetTicketID(xid.New().String()); err != nil {
			return "", nil, err
		}
	}

	opaque, err := codec.Protect(ctx, stamped, kind)
	if err != nil {
		return "", nil, fmt.Errorf("protecting %s ticket: %w", kind, err)
	}
	return opaque, stamped, nil
}

// Unprotect deserializes an opaque token of the given kind. Every
// codec failure, whatever its cause, surfaces as ErrInvalidToken:
// callers never learn why a token could not be read.
func (m *Manager) Unprotect(ctx context.Context, opaque string, kind core.TokenKind) (*core.Ticket, error) {
	codec, ok := m.codecs[kind]
	if !ok {
		return nil, fmt.Errorf("no codec registered for %q tokens", kind)
	}

	ticket, err := codec.Unprotect(ctx, opaque, kind)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("kind", string(kind)).Msg("token unprotect failed")
		return nil, core.ErrInvalidToken
	}
	if ticket == nil {
		return nil, core.ErrInvalidToken
	}
	return ticket, nil
}

// UnprotectAny tries the hinted kind first, then the remaining kinds,
// returning the first ticket that deserializes. The resolved kind is
// returned so the caller can enforce usage matching.
func (m *Manager) UnprotectAny(ctx context.Context, opaque string, hint core.TokenKind) (*core.Ticket, core.TokenKind, error) {
	kinds := make([]core.TokenKind, 0, len(core.Kinds))
	if hint.IsValid() {
		kinds = append(kinds, hint)
	}
	for _, kind := range core.Kinds {
		if kind != hint {
			kinds = append(kinds, kind)
		}
	}

	for _, kind := range kinds {
		if _, ok := m.codecs[kind]; !ok {
			continue
		}
		ticket, err := m.Unprotect(ctx, opaque, kind)
		if err != nil {
			continue
		}
		return ticket, kind, nil
	}
	return nil, "", core.ErrInvalidToken
}

// Validate applies the inbound-token policy: expiry, ownership and
// usage. It returns a single boolean on purpose — expired, foreign and
// mismatched tokens are indistinguishable to the caller, so a rejected
// token never confirms its own existence.
//
// Ownership: a caller identifying itself must appear in the ticket's
// presenters, or, for tickets declaring no presenters, in its
// audiences. Confidential tickets additionally require the caller to
// identify itself at all.
func (m *Manager) Validate(ticket *core.Ticket, kind core.TokenKind, callerID string) bool {
	if expires, ok := ticket.GetExpiresAt(); ok && !expires.After(m.clock()) {
		return false
	}

	if ticket.IsConfidential() && callerID == "" {
		return false
	}

	if callerID != "" {
		if presenters := ticket.GetPresenters(); len(presenters) > 0 {
			if !ticket.HasPresenter(callerID) {
				return false
			}
		} else if audiences := ticket.GetAudiences(); len(audiences) > 0 {
			if !ticket.HasAudience(callerID) {
				return false
			}
		}
	}

	// A ticket may legitimately carry no usage tag mid-pipeline; only a
	// conflicting tag invalidates it.
	if usage := ticket.GetUsage(); usage != "" && kind != "" && !strings.EqualFold(usage, string(kind)) {
		return false
	}

	return true
}

// IsTrustedCaller reports whether the caller may see non-basic claims:
// it must identify itself and be a declared audience or presenter of
// the ticket.
func IsTrustedCaller(ticket *core.Ticket, callerID string) bool {
	if callerID == "" {
		return false
	}
	return ticket.HasAudience(callerID) || ticket.HasPresenter(callerID)
}
