// Package credential extracts bearer tokens and API keys from request
// headers. Pure functions, no side effects, no I/O.
package credential

import (
	"errors"
	"net/http"
	"strings"
)

const (
	// AuthorizationHeader carries "Bearer <token>".
	AuthorizationHeader = "Authorization"
	// APIKeyHeader carries service-to-service API keys.
	APIKeyHeader = "X-API-Key"

	bearerPrefix = "Bearer "
)

// ErrAbsent is returned when a request carries neither header. Callers may
// word the rejection differently from [ErrMalformed], but both produce the
// same externally observable 401.
var ErrAbsent = errors.New("credential absent")

// ErrMalformed is returned when a header is present but unusable.
var ErrMalformed = errors.New("credential malformed")

// Kind distinguishes the credential channel.
type Kind uint8

const (
	// KindBearer is a session/access token from the Authorization header.
	KindBearer Kind = iota
	// KindAPIKey is a service-to-service key from X-API-Key.
	KindAPIKey
)

// Credential is an extracted, unvalidated credential.
type Credential struct {
	Kind  Kind
	Value string
}

// Extract pulls a credential out of the given headers. The Authorization
// header takes precedence over X-API-Key when both are present.
func Extract(h http.Header) (Credential, error) {
	auth := h.Get(AuthorizationHeader)
	if auth != "" {
		if !strings.HasPrefix(auth, bearerPrefix) {
			return Credential{}, ErrMalformed
		}
		// Whitespace around the token is padding, not token content.
		token := strings.TrimSpace(auth[len(bearerPrefix):])
		if token == "" {
			return Credential{}, ErrMalformed
		}
		return Credential{Kind: KindBearer, Value: token}, nil
	}

	if key, present := headerPresent(h, APIKeyHeader); present {
		if strings.TrimSpace(key) == "" {
			return Credential{}, ErrMalformed
		}
		return Credential{Kind: KindAPIKey, Value: key}, nil
	}

	return Credential{}, ErrAbsent
}

// FromRequest is a convenience wrapper over [Extract].
func FromRequest(r *http.Request) (Credential, error) {
	if r == nil {
		return Credential{}, ErrAbsent
	}
	return Extract(r.Header)
}

// headerPresent distinguishes a header set to an empty value from one that
// was never sent, so the caller can report malformed rather than absent.
func headerPresent(h http.Header, name string) (string, bool) {
	values, ok := h[http.CanonicalHeaderKey(name)]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
