// Package session implements the gateway-side session record and the
// refresh protocol that keeps its credentials fresh under concurrent load.
//
// # Design
//
// Raw tokens never cross the trust boundary to a browser client; only the
// session id does, as an httpOnly cookie. The session record holds both
// tokens in authenticated-encryption ciphertext; a decryption failure is
// treated identically to an absent session, never as a partial credential.
//
// Records are persisted in Redis in a versioned binary encoding with a
// sliding idle TTL capped by an absolute expiry. TTL policy is
// account-type-specific: elevated accounts get shorter windows and
// mandatory device-fingerprint binding.
//
// Refresh uses a single in-flight call per session id: the first request
// that detects a stale access token starts the upstream refresh and every
// concurrent request awaits the same result, collapsing a thundering herd
// into exactly one upstream call. Tokens are swapped atomically once the
// refresh resolves; a failed refresh terminates the session and fails every
// waiter uniformly with a re-authenticate outcome.
package session
