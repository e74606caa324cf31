// Package types implements the C++Lite type system: the closed set of
// scalar types and the type environment used by validation and the
// typed-operator transformation.
package types

import "fmt"

// Type is one of the five C++Lite types. Two Types of the same kind are
// identical, so Types compare with ==.
type Type int

const (
	Invalid Type = iota
	Int
	Bool
	Char
	Float
	Void
)

var typeNames = map[Type]string{
	Invalid: "invalid",
	Int:     "int",
	Bool:    "bool",
	Char:    "char",
	Float:   "float",
	Void:    "void",
}

// String returns the source spelling of the type
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsNumeric reports whether arithmetic operators apply to the type
func (t Type) IsNumeric() bool {
	return t == Int || t == Float
}

// IsScalar reports whether the type can hold a value (every type but void)
func (t Type) IsScalar() bool {
	switch t {
	case Int, Bool, Char, Float:
		return true
	default:
		return false
	}
}

// Lookup maps a type keyword to its Type
func Lookup(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name && t != Invalid {
			return t, true
		}
	}
	return Invalid, false
}

// Widens reports whether a value of type from may be assigned to a variable
// of type to. Besides identity only char→int and int→float are implicit.
func Widens(from, to Type) bool {
	if from == to {
		return true
	}
	return (to == Int && from == Char) || (to == Float && from == Int)
}
