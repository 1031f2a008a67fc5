package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"

	"github.com/gmarkoss/tessera/internal/clients"
	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/internal/policy"
)

type Config struct {
	// Issuer is the identifier stamped into every minted token.
	Issuer string `yaml:"issuer"`

	Server       ServerConfig           `yaml:"server"`
	Codec        CodecConfig            `yaml:"codec"`
	Lifetimes    LifetimesConfig        `yaml:"lifetimes"`
	Clients      []clients.Registration `yaml:"clients"`
	ClaimsPolicy []policy.Rule          `yaml:"claims_policy"`
	Audit        AuditConfig            `yaml:"audit"`
	Tasks        TasksConfig            `yaml:"tasks"`
}

// ServerConfig holds the listener address and the protocol endpoint
// paths.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	Authorization string `yaml:"authorization_endpoint"`
	Token         string `yaml:"token_endpoint"`
	Introspection string `yaml:"introspection_endpoint"`
	Revocation    string `yaml:"revocation_endpoint"`

	// AdminKey signs the bearer tokens guarding the admin surface.
	// Empty falls back to the codec key.
	AdminKey string `yaml:"admin_key"`
}

// TasksConfig tunes the background task scheduler.
type TasksConfig struct {
	// SweepInterval is how often expired ticket metadata is purged.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// RunTimeout bounds a single task execution.
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// CodecConfig selects the token codec. Additional settings are
// captured inline and decoded per type.
type CodecConfig struct {
	Type   string         `yaml:"type"`    // e.g., "jwt"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// JWTSettings are the inline settings of the "jwt" codec type.
type JWTSettings struct {
	// Key is the HMAC signing key. Required, minimum 32 bytes.
	Key string `mapstructure:"key"`
}

// JWTSettings decodes the inline codec settings for the jwt type.
func (c CodecConfig) JWTSettings() (JWTSettings, error) {
	var settings JWTSettings
	if err := mapstructure.Decode(c.Config, &settings); err != nil {
		return settings, fmt.Errorf("decoding jwt codec settings: %w", err)
	}
	if len(settings.Key) < 32 {
		return settings, fmt.Errorf("jwt codec requires a 'key' of at least 32 bytes")
	}
	return settings, nil
}

// LifetimesConfig overrides the built-in per-kind token lifetimes.
// Zero values keep the defaults.
type LifetimesConfig struct {
	AuthorizationCode time.Duration `yaml:"authorization_code"`
	AccessToken       time.Duration `yaml:"access_token"`
	IdentityToken     time.Duration `yaml:"identity_token"`
	RefreshToken      time.Duration `yaml:"refresh_token"`
}

// Map returns the non-zero overrides keyed by token kind.
func (l LifetimesConfig) Map() map[core.TokenKind]time.Duration {
	lifetimes := make(map[core.TokenKind]time.Duration, 4)
	for kind, lifetime := range map[core.TokenKind]time.Duration{
		core.KindAuthorizationCode: l.AuthorizationCode,
		core.KindAccessToken:       l.AccessToken,
		core.KindIdentityToken:     l.IdentityToken,
		core.KindRefreshToken:      l.RefreshToken,
	} {
		if lifetime > 0 {
			lifetimes[kind] = lifetime
		}
	}
	return lifetimes
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("issuer is required")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Authorization == "" {
		c.Server.Authorization = "/connect/authorize"
	}
	if c.Server.Token == "" {
		c.Server.Token = "/connect/token"
	}
	if c.Server.Introspection == "" {
		c.Server.Introspection = "/connect/introspect"
	}
	if c.Server.Revocation == "" {
		c.Server.Revocation = "/connect/revoke"
	}

	if c.Tasks.SweepInterval == 0 {
		c.Tasks.SweepInterval = 10 * time.Minute
	}
	if c.Tasks.RunTimeout == 0 {
		c.Tasks.RunTimeout = 5 * time.Minute
	}

	switch c.Codec.Type {
	case "", "jwt":
		c.Codec.Type = "jwt"
		if _, err := c.Codec.JWTSettings(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown codec type '%s'", c.Codec.Type)
	}

	seenClients := make(map[string]struct{})
	for idx, reg := range c.Clients {
		if reg.ID == "" {
			return fmt.Errorf("client at index %d has empty id", idx)
		}
		if _, exists := seenClients[reg.ID]; exists {
			return fmt.Errorf("client id '%s' is not unique", reg.ID)
		}
		seenClients[reg.ID] = struct{}{}
	}

	validRules, err := policy.CompileRules(c.ClaimsPolicy)
	if err != nil {
		return fmt.Errorf("validating claims policy: %w", err)
	}
	c.ClaimsPolicy = validRules

	if c.Audit.Enabled {
		switch c.Audit.Type {
		case "", "memory":
		case "file":
			if c.Audit.Path == "" {
				return fmt.Errorf("audit type 'file' requires a path")
			}
		default:
			return fmt.Errorf("unknown audit type '%s'", c.Audit.Type)
		}
	}

	return nil
}
