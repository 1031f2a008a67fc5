package core

import "fmt"

// Claim is a typed fact about a principal. Properties may carry
// per-claim metadata; the engine itself only reserves
// PropDestinations there.
type Claim struct {
	Type       string            `json:"type"`
	Value      string            `json:"value"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Identity is an ordered set of claims, optionally delegating to an
// Actor identity (RFC 8693 style delegation chain). Claims keep their
// insertion order so serialized tokens are deterministic.
type Identity struct {
	Claims []*Claim  `json:"claims,omitempty"`
	Actor  *Identity `json:"actor,omitempty"`
}

// Ticket bundles the authenticated principal with the property bag
// every token kind serializes. A ticket is owned by exactly one
// request; Clone is the only sanctioned way to branch its lifetime.
type Ticket struct {
	Identities []*Identity       `json:"identities,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Scheme     string            `json:"scheme,omitempty"`
}

// NewTicket returns an empty ticket for the given scheme with an
// initialized property bag and a single empty identity.
func NewTicket(scheme string) *Ticket {
	return &Ticket{
		Identities: []*Identity{{}},
		Properties: make(map[string]string),
		Scheme:     scheme,
	}
}

// Identity returns the primary (first) identity, creating it if the
// ticket has none yet.
func (t *Ticket) Identity() *Identity {
	if len(t.Identities) == 0 {
		t.Identities = append(t.Identities, &Identity{})
	}
	return t.Identities[0]
}

// AddClaim appends a (type, value) claim to the identity. Empty types
// or values are rejected before any mutation.
func (id *Identity) AddClaim(claimType, value string) error {
	if claimType == "" {
		return fmt.Errorf("%w: the claim type cannot be empty", ErrInvalidArgument)
	}
	if value == "" {
		return fmt.Errorf("%w: the claim value cannot be empty", ErrInvalidArgument)
	}
	id.Claims = append(id.Claims, &Claim{Type: claimType, Value: value})
	return nil
}

// AddClaimWithDestinations appends a claim tagged with the token kinds
// it may be serialized into.
func (id *Identity) AddClaimWithDestinations(claimType, value string, destinations ...TokenKind) error {
	if claimType == "" {
		return fmt.Errorf("%w: the claim type cannot be empty", ErrInvalidArgument)
	}
	if value == "" {
		return fmt.Errorf("%w: the claim value cannot be empty", ErrInvalidArgument)
	}
	claim := &Claim{Type: claimType, Value: value}
	if err := claim.SetDestinations(destinations...); err != nil {
		return err
	}
	id.Claims = append(id.Claims, claim)
	return nil
}

// GetClaim returns the value of the first claim of the given type, or
// "" if the identity carries none.
func (id *Identity) GetClaim(claimType string) string {
	for _, claim := range id.Claims {
		if claim.Type == claimType {
			return claim.Value
		}
	}
	return ""
}

// RemoveClaims drops every claim of the given type.
func (id *Identity) RemoveClaims(claimType string) {
	kept := id.Claims[:0]
	for _, claim := range id.Claims {
		if claim.Type != claimType {
			kept = append(kept, claim)
		}
	}
	id.Claims = kept
}

// GetClaim searches all identities in order.
func (t *Ticket) GetClaim(claimType string) string {
	for _, id := range t.Identities {
		if v := id.GetClaim(claimType); v != "" {
			return v
		}
	}
	return ""
}
