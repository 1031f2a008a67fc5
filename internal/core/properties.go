package core

import (
	"fmt"
	"strings"
	"time"
)

// GetProperty returns the value stored under the given property name,
// or "" if the property cannot be found.
func (t *Ticket) GetProperty(name string) string {
	return t.Properties[name]
}

// HasProperty reports whether the property exists with a non-empty value.
func (t *Ticket) HasProperty(name string) bool {
	return t.Properties[name] != ""
}

// SetProperty adds, updates or removes a property. Setting an empty
// value removes the entry entirely; empty strings are never stored.
func (t *Ticket) SetProperty(name, value string) error {
	if name == "" {
		return fmt.Errorf("%w: the property name cannot be empty", ErrInvalidArgument)
	}
	if t.Properties == nil {
		t.Properties = make(map[string]string)
	}
	if value == "" {
		delete(t.Properties, name)
		return nil
	}
	t.Properties[name] = value
	return nil
}

// splitValues splits a space-separated property value, dropping empty
// entries and duplicates. Order of first occurrence is preserved.
func splitValues(value string, fold bool) []string {
	if value == "" {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, entry := range strings.Fields(value) {
		key := entry
		if fold {
			key = strings.ToLower(entry)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}

// joinValues validates and joins entries into the space-separated wire
// form. Validation happens before any caller-visible mutation: an
// entry that is empty or contains a space fails the whole call.
func joinValues(entries []string, fold bool, what string) (string, error) {
	for _, entry := range entries {
		if entry == "" || strings.Contains(entry, " ") {
			return "", fmt.Errorf("%w: the %s cannot be empty or contain spaces", ErrInvalidArgument, what)
		}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, entry := range entries {
		key := entry
		if fold {
			key = strings.ToLower(entry)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return strings.Join(out, " "), nil
}

func (t *Ticket) getList(name string) []string {
	return splitValues(t.GetProperty(name), false)
}

func (t *Ticket) setList(name string, entries []string, what string) error {
	if len(entries) == 0 {
		return t.SetProperty(name, "")
	}
	value, err := joinValues(entries, false, what)
	if err != nil {
		return err
	}
	return t.SetProperty(name, value)
}

func (t *Ticket) hasListEntry(name, entry string) bool {
	for _, candidate := range t.getList(name) {
		if candidate == entry {
			return true
		}
	}
	return false
}

// GetAudiences returns the deduplicated audiences list.
func (t *Ticket) GetAudiences() []string { return t.getList(PropAudiences) }

// SetAudiences stores the audiences list; an empty list removes the
// property.
func (t *Ticket) SetAudiences(audiences ...string) error {
	return t.setList(PropAudiences, audiences, "audiences")
}

// HasAudience reports whether the given audience is present
// (case-sensitively).
func (t *Ticket) HasAudience(audience string) bool {
	return t.hasListEntry(PropAudiences, audience)
}

// GetPresenters returns the deduplicated presenters list.
func (t *Ticket) GetPresenters() []string { return t.getList(PropPresenters) }

// SetPresenters stores the presenters list; an empty list removes the
// property.
func (t *Ticket) SetPresenters(presenters ...string) error {
	return t.setList(PropPresenters, presenters, "presenters")
}

// HasPresenter reports whether the given presenter is present
// (case-sensitively).
func (t *Ticket) HasPresenter(presenter string) bool {
	return t.hasListEntry(PropPresenters, presenter)
}

// GetResources returns the deduplicated resources list.
func (t *Ticket) GetResources() []string { return t.getList(PropResources) }

// SetResources stores the resources list; an empty list removes the
// property.
func (t *Ticket) SetResources(resources ...string) error {
	return t.setList(PropResources, resources, "resources")
}

// HasResource reports whether the given resource is present
// (case-sensitively).
func (t *Ticket) HasResource(resource string) bool {
	return t.hasListEntry(PropResources, resource)
}

// GetScopes returns the deduplicated scopes list.
func (t *Ticket) GetScopes() []string { return t.getList(PropScopes) }

// SetScopes stores the scopes list; an empty list removes the property.
func (t *Ticket) SetScopes(scopes ...string) error {
	return t.setList(PropScopes, scopes, "scopes")
}

// HasScope reports whether the given scope is present (case-sensitively).
func (t *Ticket) HasScope(scope string) bool {
	return t.hasListEntry(PropScopes, scope)
}

func lifetimeProperty(kind TokenKind) string {
	switch kind {
	case KindAuthorizationCode:
		return PropAuthorizationCodeLifetime
	case KindAccessToken:
		return PropAccessTokenLifetime
	case KindIdentityToken:
		return PropIdentityTokenLifetime
	case KindRefreshToken:
		return PropRefreshTokenLifetime
	default:
		return ""
	}
}

// GetLifetime returns the per-kind lifetime override stored on the
// ticket. Unparsable stored values are treated as absent, never as an
// error.
func (t *Ticket) GetLifetime(kind TokenKind) (time.Duration, bool) {
	name := lifetimeProperty(kind)
	if name == "" {
		return 0, false
	}
	value := t.GetProperty(name)
	if value == "" {
		return 0, false
	}
	lifetime, err := time.ParseDuration(value)
	if err != nil {
		return 0, false
	}
	return lifetime, true
}

// SetLifetime stores the per-kind lifetime as a canonical duration
// string. A zero or negative lifetime removes the property.
func (t *Ticket) SetLifetime(kind TokenKind, lifetime time.Duration) error {
	name := lifetimeProperty(kind)
	if name == "" {
		return fmt.Errorf("%w: unknown token kind %q", ErrInvalidArgument, kind)
	}
	if lifetime <= 0 {
		return t.SetProperty(name, "")
	}
	return t.SetProperty(name, lifetime.String())
}

func (t *Ticket) GetAccessTokenLifetime() (time.Duration, bool) {
	return t.GetLifetime(KindAccessToken)
}

func (t *Ticket) GetAuthorizationCodeLifetime() (time.Duration, bool) {
	return t.GetLifetime(KindAuthorizationCode)
}

func (t *Ticket) GetIdentityTokenLifetime() (time.Duration, bool) {
	return t.GetLifetime(KindIdentityToken)
}

func (t *Ticket) GetRefreshTokenLifetime() (time.Duration, bool) {
	return t.GetLifetime(KindRefreshToken)
}

// GetTicketID returns the unique identifier of the ticket, or "".
func (t *Ticket) GetTicketID() string { return t.GetProperty(PropTicketID) }

// SetTicketID stores the unique identifier of the ticket.
func (t *Ticket) SetTicketID(id string) error {
	return t.SetProperty(PropTicketID, id)
}

// GetUsage returns the usage tag of the ticket, or "" when the ticket
// has not been minted into a token kind yet.
func (t *Ticket) GetUsage() string { return t.GetProperty(PropUsage) }

// SetUsage tags the ticket with the token kind it serializes into.
func (t *Ticket) SetUsage(usage TokenKind) error {
	return t.SetProperty(PropUsage, string(usage))
}

func (t *Ticket) usageIs(kind TokenKind) bool {
	value := t.GetProperty(PropUsage)
	if value == "" {
		return false
	}
	return strings.EqualFold(value, string(kind))
}

// IsAccessToken reports whether the ticket is tagged as an access token.
func (t *Ticket) IsAccessToken() bool { return t.usageIs(KindAccessToken) }

// IsAuthorizationCode reports whether the ticket is tagged as an
// authorization code.
func (t *Ticket) IsAuthorizationCode() bool { return t.usageIs(KindAuthorizationCode) }

// IsIdentityToken reports whether the ticket is tagged as an identity token.
func (t *Ticket) IsIdentityToken() bool { return t.usageIs(KindIdentityToken) }

// IsRefreshToken reports whether the ticket is tagged as a refresh token.
func (t *Ticket) IsRefreshToken() bool { return t.usageIs(KindRefreshToken) }

// IsConfidential reports whether the ticket was explicitly marked
// private. Any other value, including garbage, means public.
func (t *Ticket) IsConfidential() bool {
	return strings.EqualFold(t.GetProperty(PropConfidentialityLevel), ConfidentialityPrivate)
}

// GetIssuedAt returns the issuance timestamp, or false when absent or
// unparsable.
func (t *Ticket) GetIssuedAt() (time.Time, bool) {
	return t.getTime(PropIssuedAt)
}

// SetIssuedAt stores the issuance timestamp in RFC 3339 form.
func (t *Ticket) SetIssuedAt(at time.Time) error {
	return t.SetProperty(PropIssuedAt, at.UTC().Format(time.RFC3339Nano))
}

// GetExpiresAt returns the expiry timestamp, or false when absent or
// unparsable.
func (t *Ticket) GetExpiresAt() (time.Time, bool) {
	return t.getTime(PropExpiresAt)
}

// SetExpiresAt stores the expiry timestamp in RFC 3339 form.
func (t *Ticket) SetExpiresAt(at time.Time) error {
	return t.SetProperty(PropExpiresAt, at.UTC().Format(time.RFC3339Nano))
}

func (t *Ticket) getTime(name string) (time.Time, bool) {
	value := t.GetProperty(name)
	if value == "" {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
