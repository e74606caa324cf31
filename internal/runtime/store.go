package runtime

import (
	"strings"

	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/value"
)

// Store maps identifiers to values. Bindings keep their declaration order so
// dumps are deterministic.
type Store struct {
	names  []string
	values map[string]value.Value
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]value.Value)}
}

// NewStoreFor creates a store binding every declaration to the undefined
// zero value of its type.
func NewStoreFor(ds ...ast.Declarations) *Store {
	s := NewStore()
	for _, list := range ds {
		for _, d := range list {
			s.Declare(d.Name, value.Zero(d.Type))
		}
	}
	return s
}

// Declare binds name to v. A name declared twice keeps its first position.
func (s *Store) Declare(name string, v value.Value) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Lookup returns the value bound to name.
func (s *Store) Lookup(name string) (value.Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set updates an existing binding and reports whether name was bound.
func (s *Store) Set(name string, v value.Value) bool {
	if _, ok := s.values[name]; !ok {
		return false
	}
	s.values[name] = v
	return true
}

// Len returns the number of bindings.
func (s *Store) Len() int { return len(s.names) }

// Names returns the bound identifiers in declaration order.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Each calls f for every binding in declaration order.
func (s *Store) Each(f func(name string, v value.Value)) {
	for _, name := range s.names {
		f(name, s.values[name])
	}
}

// String renders the store as {x: 7, c: 'a', y: undef}.
func (s *Store) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(s.values[name].Literal())
	}
	sb.WriteByte('}')
	return sb.String()
}
