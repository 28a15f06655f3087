// Package token verifies signed session tokens.
//
// # Design
//
// The accepted signing algorithm is derived from the configured key
// material (an HMAC secret admits HS256 only, an Ed25519 public key admits
// EdDSA only) and never from a field inside the token itself. This closes
// the algorithm-confusion class of attacks where an attacker-supplied
// symmetric-signed token is validated against an asymmetric public key.
//
// Every rejection collapses to the single opaque [ErrInvalidToken]; the
// internal reason is delivered to the configured warn hook so callers cannot
// fingerprint why a token was refused.
package token
