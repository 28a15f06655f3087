package internal

import "errors"

// ErrDependencyUnavailable is the shared wrap target for cache and store
// transport failures. Concern packages chain their own unavailability
// sentinels onto it so callers can match the whole class with one errors.Is
// check at the root package.
var ErrDependencyUnavailable = errors.New("dependency unavailable")
