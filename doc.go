// Package edgeguard provides the edge authentication and authorization
// enforcement layer for beegy-labs services: bearer-token and API-key
// validation, revocation checks behind a circuit breaker, permission-string
// evaluation, and the gateway session/refresh protocol.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// edgeguard is the public surface. It exposes [Engine], [Builder], [Config],
// value types (Claims, MetricsSnapshot, SecurityReport), and sentinel errors.
// Concern packages (token, revocation, permission, apikey, session,
// credential, breaker) carry the individual decision components. Internal
// coordination (audit dispatch, metric storage, id masking) lives under
// internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Issue credentials. Login, MFA verification, and permission assignment
//     belong to the identity services; edgeguard only consumes their outputs.
//   - Surface internal rejection detail to callers. Every authentication
//     failure collapses to [ErrTokenInvalid] or [ErrCredentialMissing];
//     diagnostics go to the warn hook and audit pipeline with masked ids.
//   - Hold package-level mutable state. Breaker state, caches, and the
//     refresh single-flight group are owned by the Engine instance.
//
// # Performance contract
//
// Authenticate is the hot path. Signature verification and permission
// matching are pure in-memory computation; the only operations that may
// block are the revocation cache lookup and the upstream refresh call, both
// bounded by the caller's context.
package edgeguard
