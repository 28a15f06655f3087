package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single failure reported to callers for every
// rejected token. The internal reason goes to the warn hook only.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified token payload attached to a request context. A
// Claims value exists only for tokens whose signature verified.
type Claims struct {
	Subject     string
	TokenID     string
	Email       string
	Permissions []string
	Roles       []string
	AccountMode string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	NotBefore   time.Time
}

type wireClaims struct {
	Email       string   `json:"email,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	AccountMode string   `json:"accountMode,omitempty"`
	Type        string   `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Config holds verifier key material and expected claim values. Exactly one
// of HMACSecret or Ed25519PublicKey must be set; the accepted algorithm
// follows from that choice.
type Config struct {
	HMACSecret       []byte
	Ed25519PublicKey []byte

	Issuer   string
	Audience string

	// ProductionMode makes missing Issuer/Audience a fatal construction
	// error instead of a silently skipped check.
	ProductionMode bool

	// Warn receives internal rejection detail. Optional.
	Warn func(format string, args ...any)
}

// Verifier validates token signature, algorithm class, expiry, not-before,
// issuer, and audience. Immutable after construction; safe for concurrent
// use.
type Verifier struct {
	cfg       Config
	method    jwt.SigningMethod
	verifyKey any
}

// NewVerifier validates the configuration and derives the accepted signing
// algorithm from the key material.
func NewVerifier(cfg Config) (*Verifier, error) {
	hasSecret := len(cfg.HMACSecret) > 0
	hasPublic := len(cfg.Ed25519PublicKey) > 0

	if hasSecret == hasPublic {
		return nil, errors.New("exactly one of HMACSecret or Ed25519PublicKey must be configured")
	}
	if cfg.ProductionMode {
		if cfg.Issuer == "" {
			return nil, errors.New("issuer required in production mode")
		}
		if cfg.Audience == "" {
			return nil, errors.New("audience required in production mode")
		}
	}

	v := &Verifier{cfg: cfg}
	if hasSecret {
		v.method = jwt.SigningMethodHS256
		v.verifyKey = cfg.HMACSecret
		return v, nil
	}

	pub, err := parseEdPublicKey(cfg.Ed25519PublicKey)
	if err != nil {
		return nil, err
	}
	v.method = jwt.SigningMethodEdDSA
	v.verifyKey = pub
	return v, nil
}

// Algorithm returns the single accepted signing algorithm name.
func (v *Verifier) Algorithm() string {
	return v.method.Alg()
}

// Verify parses and validates a token. On any failure it returns
// [ErrInvalidToken]; exp and nbf are evaluated against wall-clock time with
// no grace window.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		options = append(options, jwt.WithAudience(v.cfg.Audience))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &wireClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != v.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return v.verifyKey, nil
	})
	if err != nil {
		return nil, v.reject("parse failed: %v", err)
	}

	wc, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid {
		return nil, v.reject("claims type assertion failed")
	}
	if wc.Type != "" && wc.Type != "access" {
		// Refresh tokens never authenticate a request directly.
		return nil, v.reject("token type %q rejected at the edge", wc.Type)
	}
	if wc.Subject == "" {
		return nil, v.reject("missing subject")
	}

	claims := &Claims{
		Subject:     wc.Subject,
		TokenID:     wc.ID,
		Email:       wc.Email,
		Permissions: wc.Permissions,
		Roles:       wc.Roles,
		AccountMode: wc.AccountMode,
	}
	if wc.IssuedAt != nil {
		claims.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		claims.ExpiresAt = wc.ExpiresAt.Time
	}
	if wc.NotBefore != nil {
		claims.NotBefore = wc.NotBefore.Time
	}

	return claims, nil
}

func (v *Verifier) reject(format string, args ...any) error {
	if v.cfg.Warn != nil {
		v.cfg.Warn("edgeguard: token rejected: "+format, args...)
	}
	return ErrInvalidToken
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
