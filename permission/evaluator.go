package permission

import "strings"

// Global is the super-admin escape hatch: a caller holding it satisfies any
// requirement unconditionally.
const Global = "*"

const wildcardSuffix = ":*"

// Check reports whether held permissions satisfy the required set.
//
// With matchAny false (the default), every required permission must be
// satisfied (AND semantics). With matchAny true, one satisfied requirement
// is enough (OR semantics, for endpoints accepting several equivalent
// privilege levels). An empty requirement is trivially satisfied.
func Check(required, held []string, matchAny bool) bool {
	if len(required) == 0 {
		return true
	}

	for _, req := range required {
		ok := Satisfies(req, held)
		if matchAny && ok {
			return true
		}
		if !matchAny && !ok {
			return false
		}
	}

	return !matchAny
}

// Satisfies reports whether any held permission satisfies a single
// requirement.
func Satisfies(requirement string, held []string) bool {
	for _, h := range held {
		if h == Global {
			return true
		}
		if h == requirement {
			return true
		}
		if strings.HasSuffix(h, wildcardSuffix) {
			// "billing:*" satisfies anything under "billing:".
			prefix := h[:len(h)-1]
			if strings.HasPrefix(requirement, prefix) {
				return true
			}
		}
	}
	return false
}
