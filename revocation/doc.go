// Package revocation answers "has this token id been revoked?".
//
// # Design
//
// Lookups are cache-aside: a fast Redis cache is consulted first and the
// durable revoked-token store only on a miss, after which the cache is
// populated for the configured TTL. The whole lookup runs under a circuit
// breaker so an unhealthy cache or store is short-circuited instead of
// stalling every request.
//
// The checker never decides policy. It reports CheckFailed and leaves the
// fail-secure/fail-open decision to the caller, so the rule that an outage
// must never silently grant access lives in exactly one place.
//
// Revocation is eventually consistent with actual revocation events by at
// most the cache TTL. Keep the TTL in the seconds-to-a-minute range so a
// just-revoked token cannot be replayed indefinitely.
package revocation
