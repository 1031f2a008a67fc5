package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gmarkoss/tessera/internal/core"
)

func testManager(t *testing.T, clock core.Clock) *Manager {
	t.Helper()

	codec, err := NewJWTCodec([]byte("0123456789abcdef0123456789abcdef"), "https://sts.example.com")
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}

	codecs := make(map[core.TokenKind]core.Codec, len(core.Kinds))
	for _, kind := range core.Kinds {
		codecs[kind] = codec
	}

	return NewManager(Options{
		Issuer: "https://sts.example.com",
		Codecs: codecs,
		Clock:  clock,
	})
}

func TestManager_MintStampsTicket(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	mgr := testManager(t, func() time.Time { return now })

	ticket := core.NewTicket("Bearer")
	if err := ticket.Identity().AddClaim("sub", "alice"); err != nil {
		t.Fatalf("AddClaim: %v", err)
	}

	opaque, stamped, err := mgr.Mint(context.Background(), ticket, core.KindAccessToken, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if opaque == "" {
		t.Fatal("Mint returned an empty token")
	}

	// The caller's ticket must not be touched.
	if ticket.GetUsage() != "" || ticket.GetTicketID() != "" {
		t.Errorf("Mint mutated the source ticket: usage=%q id=%q", ticket.GetUsage(), ticket.GetTicketID())
	}

	if !stamped.IsAccessToken() {
		t.Errorf("stamped usage = %q, want access token", stamped.GetUsage())
	}
	if stamped.GetTicketID() == "" {
		t.Error("stamped ticket has no ticket id")
	}
	if issued, ok := stamped.GetIssuedAt(); !ok || !issued.Equal(now) {
		t.Errorf("issued at = %v (ok=%v), want %v", issued, ok, now)
	}
	if expires, ok := stamped.GetExpiresAt(); !ok || !expires.Equal(now.Add(DefaultAccessTokenLifetime)) {
		t.Errorf("expires at = %v (ok=%v), want %v", expires, ok, now.Add(DefaultAccessTokenLifetime))
	}
}

func TestManager_MintLifetimeResolution(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		override time.Duration
		ticket   time.Duration
		want     time.Duration
	}{
		{name: "default", want: DefaultAccessTokenLifetime},
		{name: "ticket property wins over default", ticket: 12 * time.Minute, want: 12 * time.Minute},
		{name: "override wins over everything", override: 90 * time.Second, ticket: 12 * time.Minute, want: 90 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := testManager(t, func() time.Time { return now })

			ticket := core.NewTicket("Bearer")
			if tt.ticket > 0 {
				if err := ticket.SetLifetime(core.KindAccessToken, tt.ticket); err != nil {
					t.Fatalf("SetLifetime: %v", err)
				}
			}

			_, stamped, err := mgr.Mint(context.Background(), ticket, core.KindAccessToken, tt.override)
			if err != nil {
				t.Fatalf("Mint: %v", err)
			}
			expires, ok := stamped.GetExpiresAt()
			if !ok {
				t.Fatal("stamped ticket has no expiry")
			}
			if got := expires.Sub(now); got != tt.want {
				t.Errorf("lifetime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_MintPreservesTicketID(t *testing.T) {
	mgr := testManager(t, time.Now)

	ticket := core.NewTicket("Bearer")
	if err := ticket.SetTicketID("existing-id"); err != nil {
		t.Fatalf("SetTicketID: %v", err)
	}

	_, stamped, err := mgr.Mint(context.Background(), ticket, core.KindRefreshToken, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if got := stamped.GetTicketID(); got != "existing-id" {
		t.Errorf("ticket id = %q, want the caller-assigned id to survive", got)
	}
}

func TestManager_RoundTrip(t *testing.T) {
	mgr := testManager(t, time.Now)

	ticket := core.NewTicket("Bearer")
	id := ticket.Identity()
	if err := id.AddClaim("sub", "alice"); err != nil {
		t.Fatalf("AddClaim: %v", err)
	}
	if err := id.AddClaimWithDestinations("email", "alice@example.com", core.KindIdentityToken); err != nil {
		t.Fatalf("AddClaimWithDestinations: %v", err)
	}
	id.Actor = &core.Identity{}
	if err := id.Actor.AddClaim("sub", "service-gateway"); err != nil {
		t.Fatalf("AddClaim(actor): %v", err)
	}
	if err := ticket.SetAudiences("Fabrikam", "Contoso"); err != nil {
		t.Fatalf("SetAudiences: %v", err)
	}
	if err := ticket.SetScopes("openid", "profile"); err != nil {
		t.Fatalf("SetScopes: %v", err)
	}

	opaque, stamped, err := mgr.Mint(context.Background(), ticket, core.KindRefreshToken, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	restored, err := mgr.Unprotect(context.Background(), opaque, core.KindRefreshToken)
	if err != nil {
		t.Fatalf("Unprotect: %v", err)
	}
	if diff := cmp.Diff(stamped, restored); diff != "" {
		t.Errorf("round trip mismatch (-minted +restored):\n%s", diff)
	}
}

func TestManager_UnprotectRejections(t *testing.T) {
	mgr := testManager(t, time.Now)

	opaque, _, err := mgr.Mint(context.Background(), core.NewTicket("Bearer"), core.KindAccessToken, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	tests := []struct {
		name   string
		opaque string
		kind   core.TokenKind
	}{
		{name: "garbage", opaque: "not-a-token", kind: core.KindAccessToken},
		{name: "empty", opaque: "", kind: core.KindAccessToken},
		{name: "kind mismatch", opaque: opaque, kind: core.KindRefreshToken},
		{name: "tampered signature", opaque: opaque + "x", kind: core.KindAccessToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := mgr.Unprotect(context.Background(), tt.opaque, tt.kind); !errors.Is(err, core.ErrInvalidToken) {
				t.Errorf("Unprotect error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestManager_UnprotectExpiredToken(t *testing.T) {
	// Expiry is a validation decision, not a parsing failure: an
	// expired token must still deserialize so its metadata can be
	// inspected before Validate rejects it.
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	mgr := testManager(t, func() time.Time { return past })

	opaque, _, err := mgr.Mint(context.Background(), core.NewTicket("Bearer"), core.KindRefreshToken, time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	live := testManager(t, time.Now)
	ticket, err := live.Unprotect(context.Background(), opaque, core.KindRefreshToken)
	if err != nil {
		t.Fatalf("Unprotect: %v", err)
	}
	if live.Validate(ticket, core.KindRefreshToken, "") {
		t.Error("Validate accepted an expired ticket")
	}
}

func TestManager_UnprotectAny(t *testing.T) {
	mgr := testManager(t, time.Now)

	opaque, _, err := mgr.Mint(context.Background(), core.NewTicket("Bearer"), core.KindRefreshToken, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	t.Run("wrong hint still resolves", func(t *testing.T) {
		ticket, kind, err := mgr.UnprotectAny(context.Background(), opaque, core.KindAccessToken)
		if err != nil {
			t.Fatalf("UnprotectAny: %v", err)
		}
		if kind != core.KindRefreshToken {
			t.Errorf("resolved kind = %q, want refresh token", kind)
		}
		if !ticket.IsRefreshToken() {
			t.Errorf("usage = %q, want refresh token", ticket.GetUsage())
		}
	})

	t.Run("garbage fails every kind", func(t *testing.T) {
		if _, _, err := mgr.UnprotectAny(context.Background(), "garbage", ""); !errors.Is(err, core.ErrInvalidToken) {
			t.Errorf("UnprotectAny error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestManager_Validate(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	mgr := testManager(t, func() time.Time { return now })

	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name    string
		setup   func(t *testing.T, ticket *core.Ticket)
		kind    core.TokenKind
		caller  string
		allowed bool
	}{
		{
			name:    "bare ticket with no constraints",
			setup:   func(t *testing.T, ticket *core.Ticket) {},
			kind:    core.KindAccessToken,
			allowed: true,
		},
		{
			name: "expired",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetExpiresAt(past))
			},
			kind: core.KindAccessToken,
		},
		{
			name: "not yet expired",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetExpiresAt(future))
			},
			kind:    core.KindAccessToken,
			allowed: true,
		},
		{
			name: "confidential ticket requires an identified caller",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetProperty(core.PropConfidentialityLevel, core.ConfidentialityPrivate))
			},
			kind: core.KindRefreshToken,
		},
		{
			name: "confidential ticket with identified caller",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetProperty(core.PropConfidentialityLevel, core.ConfidentialityPrivate))
				mustSet(t, ticket.SetPresenters("Fabrikam"))
			},
			kind:    core.KindRefreshToken,
			caller:  "Fabrikam",
			allowed: true,
		},
		{
			name: "caller must be a presenter when presenters are declared",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetPresenters("Fabrikam"))
				mustSet(t, ticket.SetAudiences("Contoso"))
			},
			kind:   core.KindAccessToken,
			caller: "Contoso",
		},
		{
			name: "presenter match",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetPresenters("Fabrikam"))
			},
			kind:    core.KindAccessToken,
			caller:  "Fabrikam",
			allowed: true,
		},
		{
			name: "audience fallback when no presenters are declared",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetAudiences("Contoso"))
			},
			kind:    core.KindAccessToken,
			caller:  "Contoso",
			allowed: true,
		},
		{
			name: "audience fallback rejects strangers",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetAudiences("Contoso"))
			},
			kind:   core.KindAccessToken,
			caller: "Fabrikam",
		},
		{
			name: "usage mismatch",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetUsage(core.KindAccessToken))
			},
			kind: core.KindRefreshToken,
		},
		{
			name: "usage comparison ignores case",
			setup: func(t *testing.T, ticket *core.Ticket) {
				mustSet(t, ticket.SetProperty(core.PropUsage, "Access_Token"))
			},
			kind:    core.KindAccessToken,
			allowed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := core.NewTicket("Bearer")
			tt.setup(t, ticket)

			if got := mgr.Validate(ticket, tt.kind, tt.caller); got != tt.allowed {
				t.Errorf("Validate() = %v, want %v", got, tt.allowed)
			}
		})
	}
}

func TestIsTrustedCaller(t *testing.T) {
	ticket := core.NewTicket("Bearer")
	mustSet(t, ticket.SetAudiences("Fabrikam"))
	mustSet(t, ticket.SetPresenters("Contoso"))

	tests := []struct {
		caller string
		want   bool
	}{
		{caller: "Fabrikam", want: true},
		{caller: "Contoso", want: true},
		{caller: "Litware", want: false},
		{caller: "", want: false},
	}
	for _, tt := range tests {
		if got := IsTrustedCaller(ticket, tt.caller); got != tt.want {
			t.Errorf("IsTrustedCaller(%q) = %v, want %v", tt.caller, got, tt.want)
		}
	}
}

func mustSet(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
}
