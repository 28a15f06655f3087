// Package breaker implements the circuit breaker that protects revocation
// lookups (and any other guarded dependency) from cascading failure.
//
// # Design
//
// A [Breaker] is a mutex-guarded state machine shared across concurrent
// requests for the same protected operation. CLOSED counts consecutive
// failures; OPEN short-circuits calls without touching the dependency until
// the reset timeout elapses; HALF_OPEN admits a bounded number of trial
// calls and closes again after enough consecutive successes.
//
// # What this package must NOT do
//
//   - Perform I/O. The protected call is supplied by the caller.
//   - Hold package-level state. Breakers are constructed by the composition
//     root and passed by reference.
package breaker
