// Package agent defines the minimal boundary contract the scheduler needs
// from an agent: a readable role string. Full agent registries, capability
// matching, and per-agent LLM bindings are external collaborators and are
// not modeled here.
package agent

import "fmt"

// Handle is the capability interface the scheduler uses to extract a role
// from whatever value a caller passes as a task's agent. Implementing this
// interface is the only requirement; there is no registry to join.
type Handle interface {
	Role() string
}

// RoleString adapts a bare string to satisfy Handle, so callers that only
// have a role name (no richer agent object) can pass it directly.
type RoleString string

// Role returns the string itself.
func (r RoleString) Role() string {
	return string(r)
}

// Resolve converts an arbitrary value into a Handle. A value already
// implementing Handle is returned unchanged. A string is wrapped in
// RoleString. Anything else is stringified via fmt.Sprint, which keeps
// Gen/With* call sites free of a type-assertion failure mode for values
// that are "close enough" to a role (e.g. a fmt.Stringer).
func Resolve(v interface{}) Handle {
	switch h := v.(type) {
	case Handle:
		return h
	case string:
		return RoleString(h)
	case nil:
		return RoleString("")
	default:
		return RoleString(fmt.Sprint(h))
	}
}
