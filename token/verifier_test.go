package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("unit-test-hmac-secret")

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return signed
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":         "user-1",
		"jti":         "tok-1",
		"email":       "alice@example.com",
		"permissions": []string{"orders:read"},
		"roles":       []string{"USER"},
		"accountMode": "user",
		"type":        "access",
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(5 * time.Minute).Unix(),
	}
}

func newHMACVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{HMACSecret: testSecret})
	if err != nil {
		t.Fatalf("verifier construction failed: %v", err)
	}
	return v
}

func TestVerifyValidToken(t *testing.T) {
	v := newHMACVerifier(t)

	claims, err := v.Verify(signHS256(t, baseClaims()))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.TokenID != "tok-1" {
		t.Fatalf("unexpected identity claims %+v", claims)
	}
	if claims.Email != "alice@example.com" || claims.AccountMode != "user" {
		t.Fatalf("unexpected profile claims %+v", claims)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != "orders:read" {
		t.Fatalf("unexpected permissions %v", claims.Permissions)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	v := newHMACVerifier(t)

	mc := baseClaims()
	mc["exp"] = time.Now().Add(-time.Minute).Unix()

	if _, err := v.Verify(signHS256(t, mc)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyMissingExpiry(t *testing.T) {
	v := newHMACVerifier(t)

	mc := baseClaims()
	delete(mc, "exp")

	if _, err := v.Verify(signHS256(t, mc)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing exp, got %v", err)
	}
}

func TestVerifyFutureNotBefore(t *testing.T) {
	v := newHMACVerifier(t)

	mc := baseClaims()
	mc["nbf"] = time.Now().Add(time.Hour).Unix()

	if _, err := v.Verify(signHS256(t, mc)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for future nbf, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	v := newHMACVerifier(t)

	signed := signHS256(t, baseClaims())
	tampered := signed[:len(signed)-2] + "xx"

	if _, err := v.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsRefreshTokenType(t *testing.T) {
	v := newHMACVerifier(t)

	mc := baseClaims()
	mc["type"] = "refresh"

	if _, err := v.Verify(signHS256(t, mc)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for refresh token, got %v", err)
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	v := newHMACVerifier(t)

	mc := baseClaims()
	delete(mc, "sub")

	if _, err := v.Verify(signHS256(t, mc)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing subject, got %v", err)
	}
}

func TestVerifyIssuerAudience(t *testing.T) {
	v, err := NewVerifier(Config{HMACSecret: testSecret, Issuer: "auth.example", Audience: "api.example"})
	if err != nil {
		t.Fatalf("verifier construction failed: %v", err)
	}

	mc := baseClaims()
	mc["iss"] = "auth.example"
	mc["aud"] = "api.example"
	if _, err := v.Verify(signHS256(t, mc)); err != nil {
		t.Fatalf("matching iss/aud rejected: %v", err)
	}

	mc["iss"] = "evil.example"
	if _, err := v.Verify(signHS256(t, mc)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}

	mc["iss"] = "auth.example"
	mc["aud"] = "other.example"
	if _, err := v.Verify(signHS256(t, mc)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong audience, got %v", err)
	}
}

func TestVerifyAlgorithmConfusion(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	v, err := NewVerifier(Config{Ed25519PublicKey: pub})
	if err != nil {
		t.Fatalf("verifier construction failed: %v", err)
	}
	if v.Algorithm() != "EdDSA" {
		t.Fatalf("expected EdDSA, got %s", v.Algorithm())
	}

	// A forged HS256 token signed with the public key bytes as the HMAC
	// secret must never pass an EdDSA verifier.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims()).SignedString([]byte(pub))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := v.Verify(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("algorithm confusion accepted: %v", err)
	}

	// The genuine EdDSA token passes.
	genuine, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, baseClaims()).SignedString(priv)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := v.Verify(genuine); err != nil {
		t.Fatalf("genuine EdDSA token rejected: %v", err)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	v := newHMACVerifier(t)

	unsafeToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, baseClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := v.Verify(unsafeToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("none algorithm accepted: %v", err)
	}
}

func TestNewVerifierKeyMaterialExclusive(t *testing.T) {
	if _, err := NewVerifier(Config{}); err == nil {
		t.Fatal("no key material accepted")
	}
	pub, _, _ := ed25519.GenerateKey(rand.Reader)
	if _, err := NewVerifier(Config{HMACSecret: testSecret, Ed25519PublicKey: pub}); err == nil {
		t.Fatal("both key material kinds accepted")
	}
}

func TestNewVerifierProductionRequiresIssuerAudience(t *testing.T) {
	if _, err := NewVerifier(Config{HMACSecret: testSecret, ProductionMode: true}); err == nil {
		t.Fatal("production without issuer accepted")
	}
	if _, err := NewVerifier(Config{HMACSecret: testSecret, ProductionMode: true, Issuer: "a"}); err == nil {
		t.Fatal("production without audience accepted")
	}
	if _, err := NewVerifier(Config{HMACSecret: testSecret, ProductionMode: true, Issuer: "a", Audience: "b"}); err != nil {
		t.Fatalf("valid production config rejected: %v", err)
	}
}

func TestVerifyOpaqueFailureDetailGoesToWarnHook(t *testing.T) {
	var warned bool
	v, err := NewVerifier(Config{HMACSecret: testSecret, Warn: func(string, ...any) { warned = true }})
	if err != nil {
		t.Fatalf("verifier construction failed: %v", err)
	}

	_, err = v.Verify("not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err.Error() != "invalid token" {
		t.Fatalf("rejection leaked detail: %q", err.Error())
	}
	if !warned {
		t.Fatal("warn hook not invoked")
	}
}
