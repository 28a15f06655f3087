package permission

import (
	"errors"
	"sync"
)

// Requirement is a route's declared permission requirement.
type Requirement struct {
	Permissions []string
	// MatchAny switches the evaluator to OR semantics for this route.
	MatchAny bool
}

// RouteTable maps route identifiers to permission requirements. It is built
// once at startup, frozen, and then only read. It gives the declarative
// intent of per-handler annotations without runtime reflection.
type RouteTable struct {
	mu     sync.RWMutex
	routes map[string]Requirement
	frozen bool
}

// NewRouteTable creates an empty route table.
func NewRouteTable() *RouteTable {
	return &RouteTable{routes: make(map[string]Requirement)}
}

// Declare registers a route's requirement. Must be called before
// [RouteTable.Freeze]. Declaring a route twice is an error.
func (t *RouteTable) Declare(routeID string, req Requirement) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.New("route table frozen")
	}
	if routeID == "" {
		return errors.New("route id cannot be empty")
	}
	if _, exists := t.routes[routeID]; exists {
		return errors.New("route already declared")
	}

	perms := make([]string, len(req.Permissions))
	copy(perms, req.Permissions)
	req.Permissions = perms

	t.routes[routeID] = req
	return nil
}

// Lookup returns the requirement for a route id, or false if undeclared.
func (t *RouteTable) Lookup(routeID string) (Requirement, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	req, ok := t.routes[routeID]
	return req, ok
}

// Freeze prevents further declarations. Must be called before the table is
// used for authorization.
func (t *RouteTable) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// Count returns the number of declared routes.
func (t *RouteTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}
