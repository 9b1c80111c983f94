package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EncryptionPolicy controls whether inboxes may or must be encrypted.
type EncryptionPolicy string

const (
	// EncryptionPolicyAlways requires every inbox to carry a client key.
	EncryptionPolicyAlways EncryptionPolicy = "always"
	// EncryptionPolicyEnabled makes encryption the default but allows plain inboxes.
	EncryptionPolicyEnabled EncryptionPolicy = "enabled"
	// EncryptionPolicyDisabled makes plain the default but allows encrypted inboxes.
	EncryptionPolicyDisabled EncryptionPolicy = "disabled"
	// EncryptionPolicyNever rejects client keys outright.
	EncryptionPolicyNever EncryptionPolicy = "never"
)

// Config holds the core's configuration. Fields map to GATEWAY_*
// environment variables via envconfig.
type Config struct {
	// AllowedDomains are the domains inboxes may be created on; the
	// first is the default for generated addresses.
	AllowedDomains []string `split_words:"true" default:"vaultsandbox.test"`

	// DefaultTTL applies when a create request has no TTL.
	DefaultTTL time.Duration `split_words:"true" default:"1h"`
	// MaxTTL bounds requested TTLs. The minimum is fixed at 60s.
	MaxTTL time.Duration `split_words:"true" default:"168h"`

	// LocalPartBytes is the random local-part length in bytes for
	// generated addresses, clamped to [3, 16].
	LocalPartBytes int `split_words:"true" default:"5"`

	// EncryptionPolicy is one of always, enabled, disabled, never.
	EncryptionPolicy EncryptionPolicy `split_words:"true" default:"enabled"`

	// SigningSecretKeyFile and SigningPublicKeyFile locate the raw
	// ML-DSA-65 key files. Leave both empty for an ephemeral keypair.
	SigningSecretKeyFile string `split_words:"true"`
	SigningPublicKeyFile string `split_words:"true"`

	// SweepInterval is how often the reaper checks for expired inboxes.
	SweepInterval time.Duration `split_words:"true" default:"1m"`
	// MaxEmailAge evicts messages older than this; zero disables it.
	MaxEmailAge time.Duration `split_words:"true"`
}

// LoadConfig reads configuration from GATEWAY_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("gateway", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.EncryptionPolicy {
	case EncryptionPolicyAlways, EncryptionPolicyEnabled, EncryptionPolicyDisabled, EncryptionPolicyNever:
	case "":
		c.EncryptionPolicy = EncryptionPolicyEnabled
	default:
		return fmt.Errorf("unknown encryption policy %q", c.EncryptionPolicy)
	}

	if (c.SigningSecretKeyFile == "") != (c.SigningPublicKeyFile == "") {
		return fmt.Errorf("signing key files must be configured together")
	}

	if len(c.AllowedDomains) == 0 ||
		(len(c.AllowedDomains) == 1 && strings.TrimSpace(c.AllowedDomains[0]) == "") {
		return fmt.Errorf("at least one allowed domain is required")
	}

	return nil
}
