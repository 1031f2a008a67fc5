package clients

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/gmarkoss/tessera/internal/core"
)

// ErrInvalidClient covers every authentication failure. Unknown ids
// and wrong secrets are deliberately indistinguishable.
var ErrInvalidClient = errors.New("invalid client credentials")

// Registration is one statically configured client application.
type Registration struct {
	ID           string   `yaml:"id" json:"id"`
	Secret       string   `yaml:"secret" json:"secret"`
	Confidential bool     `yaml:"confidential" json:"confidential"`
	RedirectURIs []string `yaml:"redirect_uris" json:"redirect_uris"`
}

var _ core.ClientValidator = (*StaticValidator)(nil)

// StaticValidator authenticates clients against a fixed table loaded
// from configuration. Read-only after construction.
type StaticValidator struct {
	byID map[string]Registration
}

func NewStaticValidator(registrations []Registration) (*StaticValidator, error) {
	byID := make(map[string]Registration, len(registrations))
	for i, reg := range registrations {
		if reg.ID == "" {
			return nil, errors.New("client registration missing id")
		}
		if _, exists := byID[reg.ID]; exists {
			return nil, errors.New("duplicate client registration: " + reg.ID)
		}
		if reg.Confidential && reg.Secret == "" {
			return nil, errors.New("confidential client " + reg.ID + " has no secret")
		}
		byID[reg.ID] = registrations[i]
	}
	return &StaticValidator{byID: byID}, nil
}

// Validate authenticates the declared client. Confidential clients
// must present their secret; public clients are identified by id
// alone, but a presented secret still has to match when one is
// registered.
func (v *StaticValidator) Validate(_ context.Context, clientID, clientSecret string) (*core.Client, error) {
	reg, ok := v.byID[clientID]
	if !ok {
		// Burn comparable time for unknown ids.
		subtle.ConstantTimeCompare([]byte(clientSecret), []byte(clientSecret))
		return nil, ErrInvalidClient
	}

	if reg.Confidential || clientSecret != "" {
		if subtle.ConstantTimeCompare([]byte(reg.Secret), []byte(clientSecret)) != 1 {
			return nil, ErrInvalidClient
		}
	}

	return reg.client(), nil
}

// Lookup resolves a client by id without checking credentials.
func (v *StaticValidator) Lookup(_ context.Context, clientID string) (*core.Client, error) {
	reg, ok := v.byID[clientID]
	if !ok {
		return nil, ErrInvalidClient
	}
	return reg.client(), nil
}

func (r Registration) client() *core.Client {
	return &core.Client{
		ID:           r.ID,
		Confidential: r.Confidential,
		RedirectURIs: r.RedirectURIs,
	}
}
