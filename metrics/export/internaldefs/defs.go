// Package internaldefs holds the shared metric catalogue used by every
// exporter so counter names stay identical across export formats.
package internaldefs

import (
	edgeguard "github.com/beegy-labs/edgeguard"
)

// CounterDef binds one engine counter to its exported name.
type CounterDef struct {
	ID   edgeguard.MetricID
	Name string
	Help string
}

// CounterDefs is the full exported counter catalogue, ordered by MetricID.
var CounterDefs = []CounterDef{
	{ID: edgeguard.MetricAuthSuccess, Name: "edgeguard_auth_success_total", Help: "Requests authenticated with a valid bearer token."},
	{ID: edgeguard.MetricAuthCredentialMissing, Name: "edgeguard_auth_credential_missing_total", Help: "Requests carrying no recognizable credential."},
	{ID: edgeguard.MetricAuthCredentialMalformed, Name: "edgeguard_auth_credential_malformed_total", Help: "Requests carrying a structurally invalid credential."},
	{ID: edgeguard.MetricAuthTokenInvalid, Name: "edgeguard_auth_token_invalid_total", Help: "Bearer tokens rejected by verification."},
	{ID: edgeguard.MetricAuthTokenRevoked, Name: "edgeguard_auth_token_revoked_total", Help: "Bearer tokens rejected as revoked."},
	{ID: edgeguard.MetricAuthAPIKeySuccess, Name: "edgeguard_auth_api_key_success_total", Help: "Service calls authenticated with a valid API key."},
	{ID: edgeguard.MetricAuthAPIKeyRejected, Name: "edgeguard_auth_api_key_rejected_total", Help: "Service calls rejected by API key validation."},
	{ID: edgeguard.MetricRevocationCheckFailed, Name: "edgeguard_revocation_check_failed_total", Help: "Revocation lookups that failed against cache and store."},
	{ID: edgeguard.MetricRevocationFailSecure, Name: "edgeguard_revocation_fail_secure_total", Help: "Tokens rejected because revocation state was unknown."},
	{ID: edgeguard.MetricRevocationFailOpen, Name: "edgeguard_revocation_fail_open_total", Help: "Tokens accepted despite unknown revocation state."},
	{ID: edgeguard.MetricPermissionGranted, Name: "edgeguard_permission_granted_total", Help: "Authorization checks that passed."},
	{ID: edgeguard.MetricPermissionDenied, Name: "edgeguard_permission_denied_total", Help: "Authorization checks that failed."},
	{ID: edgeguard.MetricSessionEstablished, Name: "edgeguard_session_established_total", Help: "Sessions created."},
	{ID: edgeguard.MetricSessionResumed, Name: "edgeguard_session_resumed_total", Help: "Sessions resumed successfully."},
	{ID: edgeguard.MetricSessionExpired, Name: "edgeguard_session_expired_total", Help: "Session resumptions rejected as expired."},
	{ID: edgeguard.MetricSessionDeviceRejected, Name: "edgeguard_session_device_rejected_total", Help: "Session resumptions rejected by device binding."},
	{ID: edgeguard.MetricSessionTerminated, Name: "edgeguard_session_terminated_total", Help: "Sessions terminated explicitly."},
	{ID: edgeguard.MetricRefreshUpstreamCalls, Name: "edgeguard_refresh_upstream_calls_total", Help: "Upstream refresh calls after single-flight collapse."},
	{ID: edgeguard.MetricRefreshSuccess, Name: "edgeguard_refresh_success_total", Help: "Refreshes that installed a new credential pair."},
	{ID: edgeguard.MetricRefreshFailure, Name: "edgeguard_refresh_failure_total", Help: "Refreshes that terminated the session."},
}
