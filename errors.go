package edgeguard

import (
	"errors"

	"github.com/beegy-labs/edgeguard/internal"
	"github.com/beegy-labs/edgeguard/session"
)

var (
	// ErrCredentialMissing is returned when a request carries no bearer token
	// and no API key.
	ErrCredentialMissing = errors.New("credential missing")
	// ErrCredentialMalformed is returned when an Authorization or X-API-Key
	// header is present but unusable. Externally it maps to the same 401 as
	// ErrCredentialMissing.
	ErrCredentialMalformed = errors.New("credential malformed")
	// ErrTokenInvalid is the single opaque failure for every token rejection:
	// bad signature, wrong algorithm class, expired, not yet valid, wrong
	// issuer or audience, malformed structure.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is returned when the token id is present in the revoked
	// set, or when a revocation check fails under fail-secure policy.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrAPIKeyInvalid is returned when an API key matches no configured key.
	ErrAPIKeyInvalid = errors.New("invalid api key")
	// ErrPermissionDenied is returned when held permissions do not satisfy a
	// route requirement. Distinct from authentication failure (403 vs 401).
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDependencyUnavailable is the wrap target for cache/store failures
	// from any backend. It is never surfaced to external callers directly;
	// policy converts it to either ErrTokenRevoked (fail-secure) or logged
	// acceptance (fail-open).
	ErrDependencyUnavailable = internal.ErrDependencyUnavailable
	// ErrSessionNotFound is returned when no session exists for the presented
	// session id, including when the stored record fails to decrypt.
	ErrSessionNotFound = session.ErrNotFound
	// ErrSessionExpired is returned when a session hit its idle or absolute
	// timeout.
	ErrSessionExpired = session.ErrExpired
	// ErrDeviceMismatch is returned when a bound session is presented from a
	// verifiably different device fingerprint.
	ErrDeviceMismatch = session.ErrFingerprintMismatch
	// ErrReauthRequired is the uniform outcome for every request queued on a
	// failed refresh: the session is terminated and the client must
	// authenticate again.
	ErrReauthRequired = session.ErrReauthRequired
	// ErrUnknownRoute is returned by Authorize for a route id that was never
	// declared in the route table.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrEngineNotReady is returned when an Engine method is called before
	// Build or after Close.
	ErrEngineNotReady = errors.New("engine not initialized")
)
