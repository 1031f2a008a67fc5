package core

// ClaimFilter decides whether a claim survives a Clone. Return true to
// keep the claim.
type ClaimFilter func(*Claim) bool

// WithAnyClaim keeps every claim; Clone with this filter is a plain
// deep copy.
func WithAnyClaim(*Claim) bool { return true }

// WithDestination keeps only claims declaring the given token kind as
// a destination.
func WithDestination(kind TokenKind) ClaimFilter {
	return func(c *Claim) bool { return c.HasDestination(kind) }
}

func (c *Claim) clone() *Claim {
	out := &Claim{Type: c.Type, Value: c.Value}
	if len(c.Properties) > 0 {
		out.Properties = make(map[string]string, len(c.Properties))
		for k, v := range c.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// Clone deep-copies the identity, keeping only claims accepted by the
// filter. The actor chain is cloned recursively with the same filter.
func (id *Identity) Clone(filter ClaimFilter) *Identity {
	out := &Identity{}
	for _, claim := range id.Claims {
		if filter(claim) {
			out.Claims = append(out.Claims, claim.clone())
		}
	}
	if id.Actor != nil {
		out.Actor = id.Actor.Clone(filter)
	}
	return out
}

// Clone deep-copies the ticket, filtering every claim through the
// given predicate. The returned ticket shares no mutable state with
// the original: shaping claims for one response can never corrupt a
// copy destined for another.
func (t *Ticket) Clone(filter ClaimFilter) *Ticket {
	out := &Ticket{Scheme: t.Scheme}
	for _, id := range t.Identities {
		out.Identities = append(out.Identities, id.Clone(filter))
	}
	out.Properties = make(map[string]string, len(t.Properties))
	for k, v := range t.Properties {
		out.Properties[k] = v
	}
	return out
}

// Copy is Clone with an accept-all filter.
func (t *Ticket) Copy() *Ticket { return t.Clone(WithAnyClaim) }
