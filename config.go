package edgeguard

import (
	"errors"
	"time"

	"github.com/beegy-labs/edgeguard/session"
)

// RuntimeMode selects the deployment tier. Production tightens several
// checks from "skipped" to "fatal at startup".
type RuntimeMode uint8

const (
	// ModeDevelopment relaxes startup validation for local work.
	ModeDevelopment RuntimeMode = iota
	// ModeProduction makes missing issuer/audience, an empty API key set,
	// and a missing revocation store fatal construction errors.
	ModeProduction
)

// FailurePolicy decides what happens when a revocation check cannot
// complete.
type FailurePolicy uint8

const (
	// FailSecure treats a failed check as revoked and rejects the request.
	// This is the default: an outage must never silently grant access.
	FailSecure FailurePolicy = iota
	// FailOpen logs a warning and accepts the token. Opt-in, intended for
	// non-production tiers.
	FailOpen
)

// Config defines all Engine settings. Configure during initialization and
// treat as immutable afterwards.
type Config struct {
	Mode       RuntimeMode
	Token      TokenConfig
	Revocation RevocationConfig
	APIKey     APIKeyConfig
	Session    SessionConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig holds verifier key material and expected claim values.
// Exactly one of HMACSecret or Ed25519PublicKey must be set; the accepted
// signing algorithm follows from the key material, never from the token.
type TokenConfig struct {
	HMACSecret       []byte
	Ed25519PublicKey []byte
	Issuer           string
	Audience         string
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig controls the revoked-token checker and its circuit
// breaker.
type RevocationConfig struct {
	Policy      FailurePolicy
	CacheTTL    time.Duration
	CachePrefix string

	// Circuit breaker thresholds. Zero values use the defaults
	// (3 failures to open, 2 trial successes to close, 10s reset).
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration
}

/*
====================================
API KEY CONFIG
====================================
*/

// APIKeyConfig controls service-to-service key validation.
type APIKeyConfig struct {
	Enabled         bool
	RefreshInterval time.Duration

	// GrantedPermissions is the permission set attached to every caller
	// authenticated by API key. Service keys are coarse by design.
	GrantedPermissions []string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the gateway session coordinator. The coordinator
// is only constructed when EncryptionKey is set.
type SessionConfig struct {
	// EncryptionKey is the 32-byte key sealing session-held tokens.
	EncryptionKey []byte
	RedisPrefix   string
	// Policies overrides per-account-type TTL policy; missing entries use
	// [session.DefaultPolicies].
	Policies map[session.AccountType]session.Policy
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the fire-and-forget audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events under backpressure instead of blocking the
	// request path. The drop count is observable via Engine.AuditDropped.
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the secure baseline: development mode, fail-secure
// revocation, audit and metrics enabled. Key material must still be
// supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Mode: ModeDevelopment,
		Revocation: RevocationConfig{
			Policy:   FailSecure,
			CacheTTL: 30 * time.Second,
		},
		APIKey: APIKeyConfig{
			RefreshInterval: 60 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.HMACSecret = cloneBytes(cfg.Token.HMACSecret)
	out.Token.Ed25519PublicKey = cloneBytes(cfg.Token.Ed25519PublicKey)
	out.Session.EncryptionKey = cloneBytes(cfg.Session.EncryptionKey)
	out.APIKey.GrantedPermissions = cloneStrings(cfg.APIKey.GrantedPermissions)
	if cfg.Session.Policies != nil {
		out.Session.Policies = make(map[session.AccountType]session.Policy, len(cfg.Session.Policies))
		for k, v := range cfg.Session.Policies {
			out.Session.Policies[k] = v
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func validateConfig(cfg Config) error {
	if len(cfg.Token.HMACSecret) == 0 && len(cfg.Token.Ed25519PublicKey) == 0 {
		return errors.New("token key material required")
	}
	if len(cfg.Token.HMACSecret) > 0 && len(cfg.Token.Ed25519PublicKey) > 0 {
		return errors.New("configure exactly one token key material kind")
	}
	if cfg.Revocation.CacheTTL < 0 || cfg.Revocation.CacheTTL > 5*time.Minute {
		return errors.New("revocation cache TTL out of range")
	}
	if cfg.Mode == ModeProduction {
		if cfg.Token.Issuer == "" || cfg.Token.Audience == "" {
			return errors.New("issuer and audience required in production mode")
		}
	}
	if len(cfg.Session.EncryptionKey) > 0 && len(cfg.Session.EncryptionKey) != session.KeySize {
		return errors.New("session encryption key must be 32 bytes")
	}
	return nil
}
