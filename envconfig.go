package edgeguard

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// rawEnv holds raw environment values before they are mapped into Config.
// Key material arrives hex encoded so it survives shells and secret stores
// that mangle binary values.
type rawEnv struct {
	Mode string `env:"EDGEGUARD_MODE" envDefault:"development"`

	TokenHMACSecretHex string `env:"EDGEGUARD_TOKEN_HMAC_SECRET"`
	TokenEd25519PubHex string `env:"EDGEGUARD_TOKEN_ED25519_PUBLIC_KEY"`
	TokenIssuer        string `env:"EDGEGUARD_TOKEN_ISSUER"`
	TokenAudience      string `env:"EDGEGUARD_TOKEN_AUDIENCE"`

	RevocationFailOpen bool          `env:"EDGEGUARD_REVOCATION_FAIL_OPEN" envDefault:"false"`
	RevocationCacheTTL time.Duration `env:"EDGEGUARD_REVOCATION_CACHE_TTL" envDefault:"30s"`
	RevocationPrefix   string        `env:"EDGEGUARD_REVOCATION_PREFIX"`

	APIKeyEnabled     bool          `env:"EDGEGUARD_API_KEY_ENABLED" envDefault:"false"`
	APIKeyRefresh     time.Duration `env:"EDGEGUARD_API_KEY_REFRESH_INTERVAL" envDefault:"60s"`
	APIKeyPermissions []string      `env:"EDGEGUARD_API_KEY_PERMISSIONS" envSeparator:","`

	SessionKeyHex string `env:"EDGEGUARD_SESSION_ENCRYPTION_KEY"`
	SessionPrefix string `env:"EDGEGUARD_SESSION_PREFIX"`

	AuditEnabled    bool `env:"EDGEGUARD_AUDIT_ENABLED" envDefault:"true"`
	AuditBufferSize int  `env:"EDGEGUARD_AUDIT_BUFFER_SIZE" envDefault:"256"`
	AuditDropIfFull bool `env:"EDGEGUARD_AUDIT_DROP_IF_FULL" envDefault:"true"`

	MetricsEnabled bool `env:"EDGEGUARD_METRICS_ENABLED" envDefault:"true"`
}

// ConfigFromEnv builds a Config from EDGEGUARD_* environment variables,
// layered over defaultConfig. The result still goes through the same
// validation as a hand-written Config when the builder runs.
func ConfigFromEnv() (Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("edgeguard: parse env: %w", err)
	}

	cfg := defaultConfig()

	switch raw.Mode {
	case "production":
		cfg.Mode = ModeProduction
	case "development", "":
		cfg.Mode = ModeDevelopment
	default:
		return Config{}, fmt.Errorf("edgeguard: unknown mode %q", raw.Mode)
	}

	var err error
	if cfg.Token.HMACSecret, err = decodeHexKey("EDGEGUARD_TOKEN_HMAC_SECRET", raw.TokenHMACSecretHex); err != nil {
		return Config{}, err
	}
	if cfg.Token.Ed25519PublicKey, err = decodeHexKey("EDGEGUARD_TOKEN_ED25519_PUBLIC_KEY", raw.TokenEd25519PubHex); err != nil {
		return Config{}, err
	}
	cfg.Token.Issuer = raw.TokenIssuer
	cfg.Token.Audience = raw.TokenAudience

	if raw.RevocationFailOpen {
		cfg.Revocation.Policy = FailOpen
	}
	cfg.Revocation.CacheTTL = raw.RevocationCacheTTL
	if raw.RevocationPrefix != "" {
		cfg.Revocation.CachePrefix = raw.RevocationPrefix
	}

	cfg.APIKey.Enabled = raw.APIKeyEnabled
	cfg.APIKey.RefreshInterval = raw.APIKeyRefresh
	cfg.APIKey.GrantedPermissions = raw.APIKeyPermissions

	if cfg.Session.EncryptionKey, err = decodeHexKey("EDGEGUARD_SESSION_ENCRYPTION_KEY", raw.SessionKeyHex); err != nil {
		return Config{}, err
	}
	if raw.SessionPrefix != "" {
		cfg.Session.RedisPrefix = raw.SessionPrefix
	}

	cfg.Audit.Enabled = raw.AuditEnabled
	cfg.Audit.BufferSize = raw.AuditBufferSize
	cfg.Audit.DropIfFull = raw.AuditDropIfFull
	cfg.Metrics.Enabled = raw.MetricsEnabled

	return cfg, nil
}

func decodeHexKey(name, value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("edgeguard: %s is not valid hex: %w", name, err)
	}
	return key, nil
}
