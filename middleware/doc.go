// Package middleware exposes HTTP adapters for edgeguard engine decisions.
//
// # Guards
//
//   - [Guard] wraps a handler with full authenticate-then-authorize
//     enforcement for one declared route.
//   - [RequireAPIKey] admits service callers only.
//   - [SessionGuard] resolves an encrypted session cookie into the request
//     context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into engine calls and engine errors
// into status codes. It does NOT implement authentication logic itself.
//
// # What this package must NOT do
//
//   - Parse or verify tokens directly.
//   - Access Redis.
//   - Reveal failure detail to clients beyond the 401/403 distinction.
package middleware
