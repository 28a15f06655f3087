package edgeguard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/beegy-labs/edgeguard/apikey"
	"github.com/beegy-labs/edgeguard/credential"
	"github.com/beegy-labs/edgeguard/internal"
	internalmetrics "github.com/beegy-labs/edgeguard/internal/metrics"
	"github.com/beegy-labs/edgeguard/permission"
	"github.com/beegy-labs/edgeguard/revocation"
	"github.com/beegy-labs/edgeguard/session"
	"github.com/beegy-labs/edgeguard/token"
)

// Engine is the composition root: it owns the verifier, the revocation
// checker and its breaker, the API key validator, the route table, and the
// session coordinator, all scoped to this instance. Construct via
// [Builder.Build]; all methods are safe for concurrent use afterwards.
type Engine struct {
	cfg Config

	verifier    *token.Verifier
	revoker     *revocation.Checker
	apiKeys     *apikey.Validator
	routes      *permission.RouteTable
	coordinator *session.Coordinator

	metrics    *Metrics
	dispatcher *auditDispatcher
	warn       func(format string, args ...any)
}

// Authenticate runs the full edge pipeline for a request's headers:
// credential extraction, then API key validation or token verification plus
// revocation check. On success the returned AuthResult carries the caller's
// permission set for authorization.
func (e *Engine) Authenticate(ctx context.Context, h http.Header) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	cred, err := credential.Extract(h)
	if err != nil {
		switch {
		case errors.Is(err, credential.ErrAbsent):
			e.metrics.Inc(internalmetrics.MetricAuthCredentialMissing)
			e.audit(ctx, AuditEvent{EventType: "auth.credential_missing", Allowed: false, Reason: "no credential"})
			return nil, ErrCredentialMissing
		default:
			e.metrics.Inc(internalmetrics.MetricAuthCredentialMalformed)
			e.audit(ctx, AuditEvent{EventType: "auth.credential_malformed", Allowed: false, Reason: "malformed header"})
			return nil, ErrCredentialMalformed
		}
	}

	if cred.Kind == credential.KindAPIKey {
		return e.AuthenticateAPIKey(ctx, cred.Value)
	}
	return e.AuthenticateToken(ctx, cred.Value)
}

// AuthenticateToken verifies a bearer token and checks revocation. The only
// externally visible failures are [ErrTokenInvalid] and [ErrTokenRevoked].
func (e *Engine) AuthenticateToken(ctx context.Context, tokenStr string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.verifier.Verify(tokenStr)
	if err != nil {
		e.metrics.Inc(internalmetrics.MetricAuthTokenInvalid)
		e.audit(ctx, AuditEvent{EventType: "auth.token_invalid", Allowed: false, Reason: "verification failed"})
		return nil, ErrTokenInvalid
	}

	if e.revoker != nil {
		res := e.revoker.IsRevoked(ctx, claims.TokenID)
		switch {
		case res.CheckFailed:
			e.metrics.Inc(internalmetrics.MetricRevocationCheckFailed)
			if e.cfg.Revocation.Policy == FailOpen {
				e.metrics.Inc(internalmetrics.MetricRevocationFailOpen)
				e.warnf("edgeguard: revocation check unavailable, accepting token %s under fail-open policy",
					internal.MaskID(claims.TokenID))
				e.audit(ctx, AuditEvent{
					EventType: "auth.revocation_fail_open",
					SubjectID: internal.MaskID(claims.Subject),
					TokenID:   internal.MaskID(claims.TokenID),
					Allowed:   true,
					Reason:    "revocation dependency unavailable",
				})
			} else {
				e.metrics.Inc(internalmetrics.MetricRevocationFailSecure)
				e.audit(ctx, AuditEvent{
					EventType: "auth.revocation_fail_secure",
					SubjectID: internal.MaskID(claims.Subject),
					TokenID:   internal.MaskID(claims.TokenID),
					Allowed:   false,
					Reason:    "revocation dependency unavailable",
				})
				return nil, ErrTokenRevoked
			}
		case res.Revoked:
			e.metrics.Inc(internalmetrics.MetricAuthTokenRevoked)
			e.audit(ctx, AuditEvent{
				EventType: "auth.token_revoked",
				SubjectID: internal.MaskID(claims.Subject),
				TokenID:   internal.MaskID(claims.TokenID),
				Allowed:   false,
			})
			return nil, ErrTokenRevoked
		}
	}

	e.metrics.Inc(internalmetrics.MetricAuthSuccess)
	return &AuthResult{
		SubjectID:   claims.Subject,
		Email:       claims.Email,
		TokenID:     claims.TokenID,
		Permissions: claims.Permissions,
		Roles:       claims.Roles,
		AccountMode: claims.AccountMode,
	}, nil
}

// AuthenticateAPIKey validates a service-to-service key. Accepted callers
// receive the configured grant as their permission set.
func (e *Engine) AuthenticateAPIKey(ctx context.Context, key string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.apiKeys == nil || !e.apiKeys.Validate(ctx, key) {
		e.metrics.Inc(internalmetrics.MetricAuthAPIKeyRejected)
		e.audit(ctx, AuditEvent{EventType: "auth.api_key_rejected", Allowed: false})
		return nil, ErrAPIKeyInvalid
	}

	e.metrics.Inc(internalmetrics.MetricAuthAPIKeySuccess)
	return &AuthResult{
		SubjectID:     "service",
		AccountMode:   "service",
		Permissions:   cloneStrings(e.cfg.APIKey.GrantedPermissions),
		ServiceCaller: true,
	}, nil
}

// Authorize checks the caller's permissions against a declared route.
// Routes never declared return [ErrUnknownRoute]; unsatisfied requirements
// return [ErrPermissionDenied], which is distinct from authentication
// failure and maps to 403.
func (e *Engine) Authorize(ctx context.Context, res *AuthResult, routeID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if res == nil {
		return ErrCredentialMissing
	}

	req, ok := e.routes.Lookup(routeID)
	if !ok {
		return ErrUnknownRoute
	}

	if !permission.Check(req.Permissions, res.Permissions, req.MatchAny) {
		e.metrics.Inc(internalmetrics.MetricPermissionDenied)
		e.audit(ctx, AuditEvent{
			EventType: "authz.denied",
			SubjectID: internal.MaskID(res.SubjectID),
			RouteID:   routeID,
			Allowed:   false,
		})
		return ErrPermissionDenied
	}

	e.metrics.Inc(internalmetrics.MetricPermissionGranted)
	return nil
}

// CheckPermissions is the bare evaluator for callers that manage their own
// requirement lookup.
func (e *Engine) CheckPermissions(required, held []string, matchAny bool) bool {
	return permission.Check(required, held, matchAny)
}

// SessionCoordinator returns the gateway session coordinator, or nil when
// sessions were not configured.
func (e *Engine) SessionCoordinator() *session.Coordinator {
	if e == nil {
		return nil
	}
	return e.coordinator
}

// Routes returns the frozen route table.
func (e *Engine) Routes() *permission.RouteTable {
	return e.routes
}

// MetricsSnapshot deep-copies all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.dispatcher.Dropped()
}

// SecurityReport returns a read-only snapshot of the engine's posture.
func (e *Engine) SecurityReport() SecurityReport {
	report := SecurityReport{
		ProductionMode:     e.cfg.Mode == ModeProduction,
		SigningAlgorithm:   e.verifier.Algorithm(),
		FailSecure:         e.cfg.Revocation.Policy == FailSecure,
		RevocationEnabled:  e.revoker != nil,
		RoutesDeclared:     e.routes.Count(),
		SessionsConfigured: e.coordinator != nil,
		AuditEnabled:       e.dispatcher != nil,
	}
	if e.revoker != nil {
		report.RevocationBreaker = e.revoker.BreakerSnapshot().State.String()
	}
	if e.apiKeys != nil {
		report.APIKeysLoaded = e.apiKeys.KeyCount()
	}
	return report
}

// Close drains the audit dispatcher. The engine must not be used after
// Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.dispatcher.Close()
}

func (e *Engine) audit(ctx context.Context, event AuditEvent) {
	if e.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.dispatcher.Emit(ctx, event)
}

func (e *Engine) warnf(format string, args ...any) {
	if e.warn != nil {
		e.warn(format, args...)
	}
}
