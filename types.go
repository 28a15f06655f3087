package edgeguard

import (
	"io"

	internalaudit "github.com/beegy-labs/edgeguard/internal/audit"
	internalmetrics "github.com/beegy-labs/edgeguard/internal/metrics"
	"github.com/beegy-labs/edgeguard/token"
)

// Claims is the verified token payload. A Claims value exists only for
// tokens whose signature verified; nothing else is ever attached to a
// request context.
type Claims = token.Claims

// AuthResult is returned by [Engine.Authenticate]. It carries the caller's
// identity and permission set, sourced from the verified token or from the
// API-key grant.
type AuthResult struct {
	SubjectID   string
	Email       string
	TokenID     string
	Permissions []string
	Roles       []string
	AccountMode string

	// ServiceCaller is true when the request authenticated with an API key
	// rather than a bearer token.
	ServiceCaller bool
}

// SecurityReport is a read-only snapshot of the engine's security posture.
type SecurityReport struct {
	ProductionMode     bool
	SigningAlgorithm   string
	FailSecure         bool
	RevocationEnabled  bool
	RevocationBreaker  string
	APIKeysLoaded      int
	RoutesDeclared     int
	SessionsConfigured bool
	AuditEnabled       bool
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricAuthSuccess counts fully authenticated requests.
	MetricAuthSuccess = internalmetrics.MetricAuthSuccess
	// MetricAuthCredentialMissing counts requests with no credential.
	MetricAuthCredentialMissing = internalmetrics.MetricAuthCredentialMissing
	// MetricAuthCredentialMalformed counts unusable credential headers.
	MetricAuthCredentialMalformed = internalmetrics.MetricAuthCredentialMalformed
	// MetricAuthTokenInvalid counts rejected tokens.
	MetricAuthTokenInvalid = internalmetrics.MetricAuthTokenInvalid
	// MetricAuthTokenRevoked counts tokens found in the revoked set.
	MetricAuthTokenRevoked = internalmetrics.MetricAuthTokenRevoked
	// MetricAuthAPIKeySuccess counts accepted API keys.
	MetricAuthAPIKeySuccess = internalmetrics.MetricAuthAPIKeySuccess
	// MetricAuthAPIKeyRejected counts rejected API keys.
	MetricAuthAPIKeyRejected = internalmetrics.MetricAuthAPIKeyRejected
	// MetricRevocationCheckFailed counts unanswerable revocation checks.
	MetricRevocationCheckFailed = internalmetrics.MetricRevocationCheckFailed
	// MetricRevocationFailSecure counts check failures rejected under
	// fail-secure policy.
	MetricRevocationFailSecure = internalmetrics.MetricRevocationFailSecure
	// MetricRevocationFailOpen counts check failures accepted under
	// fail-open policy.
	MetricRevocationFailOpen = internalmetrics.MetricRevocationFailOpen
	// MetricPermissionGranted counts satisfied route requirements.
	MetricPermissionGranted = internalmetrics.MetricPermissionGranted
	// MetricPermissionDenied counts unsatisfied route requirements.
	MetricPermissionDenied = internalmetrics.MetricPermissionDenied
	// MetricSessionEstablished counts created gateway sessions.
	MetricSessionEstablished = internalmetrics.MetricSessionEstablished
	// MetricSessionResumed counts successful session resumptions.
	MetricSessionResumed = internalmetrics.MetricSessionResumed
	// MetricSessionExpired counts timeout terminations.
	MetricSessionExpired = internalmetrics.MetricSessionExpired
	// MetricSessionDeviceRejected counts fingerprint-mismatch rejections.
	MetricSessionDeviceRejected = internalmetrics.MetricSessionDeviceRejected
	// MetricSessionTerminated counts explicit terminations.
	MetricSessionTerminated = internalmetrics.MetricSessionTerminated
	// MetricRefreshUpstreamCalls counts upstream refresh calls made after
	// single-flight collapse.
	MetricRefreshUpstreamCalls = internalmetrics.MetricRefreshUpstreamCalls
	// MetricRefreshSuccess counts refreshes that produced a new pair.
	MetricRefreshSuccess = internalmetrics.MetricRefreshSuccess
	// MetricRefreshFailure counts refreshes that terminated the session.
	MetricRefreshFailure = internalmetrics.MetricRefreshFailure
)

// Metrics holds atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{Enabled: cfg.Enabled})
}
