// Package permission evaluates permission strings against route
// requirements.
//
// # Design
//
// Permissions are strings of the form "resource:action" or
// "resource:action:scope". Two wildcard forms exist: "resource:*" satisfies
// any requirement under that resource prefix, and "*" satisfies anything.
// Matching is one-directional: a wildcard held by the caller can satisfy a
// specific requirement, never the reverse.
//
// The evaluator is a pure decision function: it is handed the caller's
// permission set and the route's declared requirement and performs no
// fetching of its own. Route requirements are declared once at startup in a
// [RouteTable] and frozen before serving, replacing annotation-style
// per-handler metadata.
//
// # What this package must NOT do
//
//   - Perform I/O or consult any store.
//   - Import edgeguard or any sibling package.
package permission
