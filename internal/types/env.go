package types

import (
	"sort"
	"strings"
)

// Env maps variable identifiers to their declared types. Function scopes are
// built by layering params and locals over the globals with Extend; the
// receiver is never mutated by Extend.
type Env struct {
	vars map[string]Type
}

// NewEnv creates an empty type environment
func NewEnv() *Env {
	return &Env{vars: make(map[string]Type)}
}

// Declare binds name to t, replacing any previous binding
func (e *Env) Declare(name string, t Type) {
	e.vars[name] = t
}

// Lookup returns the type bound to name
func (e *Env) Lookup(name string) (Type, bool) {
	t, ok := e.vars[name]
	return t, ok
}

// Extend returns a new environment containing every binding of e, with
// bindings from scope shadowing same-named ones.
func (e *Env) Extend(scope map[string]Type) *Env {
	out := &Env{vars: make(map[string]Type, len(e.vars)+len(scope))}
	for k, v := range e.vars {
		out.vars[k] = v
	}
	for k, v := range scope {
		out.vars[k] = v
	}
	return out
}

// Len returns the number of bindings
func (e *Env) Len() int {
	return len(e.vars)
}

// Equal reports whether both environments hold exactly the same bindings
func (e *Env) Equal(other *Env) bool {
	if e.Len() != other.Len() {
		return false
	}
	for k, v := range e.vars {
		if ov, ok := other.vars[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the bindings sorted by name, e.g. "{x: int, y: float}"
func (e *Env) String() string {
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+": "+e.vars[n].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
