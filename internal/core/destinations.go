package core

import "strings"

// Destinations returns the token kinds this claim may be serialized
// into. An absent property yields an empty set: a claim with no
// declared destination is excluded by destination filtering.
func (c *Claim) Destinations() []string {
	return splitValues(c.Properties[PropDestinations], true)
}

// HasDestination reports whether the claim is allowed in the given
// token kind. The membership test is case-insensitive.
func (c *Claim) HasDestination(kind TokenKind) bool {
	for _, destination := range c.Destinations() {
		if strings.EqualFold(destination, string(kind)) {
			return true
		}
	}
	return false
}

// SetDestinations stores the deduplicated destinations set on the
// claim. An empty set removes the property entirely; a destination
// containing a space fails before any mutation.
func (c *Claim) SetDestinations(kinds ...TokenKind) error {
	if len(kinds) == 0 {
		delete(c.Properties, PropDestinations)
		return nil
	}
	entries := make([]string, len(kinds))
	for i, kind := range kinds {
		entries[i] = string(kind)
	}
	value, err := joinValues(entries, true, "destinations")
	if err != nil {
		return err
	}
	if c.Properties == nil {
		c.Properties = make(map[string]string)
	}
	c.Properties[PropDestinations] = value
	return nil
}
