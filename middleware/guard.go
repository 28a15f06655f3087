package middleware

import (
	"context"
	"errors"
	"net/http"

	edgeguard "github.com/beegy-labs/edgeguard"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the authenticated caller injected by a
// guard, if any.
func AuthResultFromContext(ctx context.Context) (*edgeguard.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*edgeguard.AuthResult)
	return res, ok
}

// Guard returns middleware enforcing routeID's declared requirement.
// Authentication failures answer 401, permission failures 403, both with
// generic bodies. The authenticated result is injected into the request
// context for downstream handlers.
func Guard(engine *edgeguard.Engine, routeID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := requestContext(r)

			res, err := engine.Authenticate(ctx, r.Header)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if err := engine.Authorize(ctx, res, routeID); err != nil {
				if errors.Is(err, edgeguard.ErrPermissionDenied) {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAPIKey returns middleware that admits only service callers
// presenting a valid API key. Bearer tokens are not accepted here.
func RequireAPIKey(engine *edgeguard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := requestContext(r)

			key := r.Header.Get("X-API-Key")
			res, err := engine.AuthenticateAPIKey(ctx, key)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestContext seeds the request context with network identity used by
// audit events and session fingerprinting.
func requestContext(r *http.Request) context.Context {
	ctx := edgeguard.WithClientIP(r.Context(), clientIP(r))
	ctx = edgeguard.WithUserAgent(ctx, r.UserAgent())
	if fp := deviceFingerprint(r); fp != "" {
		ctx = edgeguard.WithFingerprint(ctx, fp)
	}
	return ctx
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

// deviceFingerprint prefers the explicit client fingerprint header and
// falls back to the user agent string.
func deviceFingerprint(r *http.Request) string {
	if fp := r.Header.Get("X-Device-Fingerprint"); fp != "" {
		return fp
	}
	return r.UserAgent()
}
