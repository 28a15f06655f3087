package middleware

import (
	"context"
	"net/http"

	"github.com/beegy-labs/edgeguard/session"
)

// Cookie names resolved by [SessionGuard]. Admin surfaces carry their
// session under a separate cookie so browser state for the two planes never
// mixes.
const (
	CookieSession      = "session_id"
	CookieAdminSession = "admin_session_id"
)

type sessionContextKey struct{}
type accessTokenContextKey struct{}

// SessionFromContext returns the resumed session injected by
// [SessionGuard], if any.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}

// AccessTokenFromContext returns the decrypted upstream access token for
// the resumed session, if any.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(accessTokenContextKey{}).(string)
	return tok, ok
}

// SessionGuard returns middleware that resumes the session named by
// cookieName. Any resume failure answers 401; expired, missing, tampered,
// and device-mismatched sessions are indistinguishable to the client.
//
// The guard only resumes. Handlers proxying upstream with the injected
// access token should wrap the call in [RetryWithRefresh] so an upstream
// 401 triggers one token rotation instead of surfacing to the client.
func SessionGuard(coordinator *session.Coordinator, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = CookieSession
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if coordinator == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, accessToken, err := coordinator.Resume(r.Context(), cookie.Value, deviceFingerprint(r))
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			ctx = context.WithValue(ctx, accessTokenContextKey{}, accessToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RetryWithRefresh makes one upstream call on behalf of a resumed session.
// When the attempt comes back 401 Unauthorized the session's token pair is
// refreshed once (concurrent callers for the same session share the
// in-flight refresh) and the call is retried with the new access token.
// A failed refresh returns the coordinator's re-authenticate error with the
// session already terminated; callers answer the client with 401.
func RetryWithRefresh(ctx context.Context, coordinator *session.Coordinator, sessionID, accessToken string, do func(accessToken string) (*http.Response, error)) (*http.Response, error) {
	resp, err := do(accessToken)
	if err != nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	resp.Body.Close()

	if coordinator == nil {
		return nil, session.ErrReauthRequired
	}
	fresh, err := coordinator.Refresh(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return do(fresh)
}
