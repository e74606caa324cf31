// Package value defines runtime values for C++Lite. A Value is a tagged
// scalar (int, bool, char, float or void) that additionally records whether
// it is still undefined, i.e. declared but never assigned.
package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/cpplite-lang/cpplite/internal/types"
)

// Undef is the textual rendering of an undefined value
const Undef = "undef"

// Value is an immutable runtime value. The zero Value is an undefined
// value of the invalid type and should not be used directly.
type Value struct {
	typ       types.Type
	undefined bool
	i         int32
	f         float32
	c         uint16
	b         bool
}

// Int returns a defined int value
func Int(v int32) Value { return Value{typ: types.Int, i: v} }

// Float returns a defined float value
func Float(v float32) Value { return Value{typ: types.Float, f: v} }

// Char returns a defined char value holding a UTF-16 code unit
func Char(v uint16) Value { return Value{typ: types.Char, c: v} }

// Bool returns a defined bool value
func Bool(v bool) Value { return Value{typ: types.Bool, b: v} }

// Void returns the value that stands for "no value"
func Void() Value { return Value{typ: types.Void} }

// Zero returns the undefined zero value for t: what a freshly declared
// variable or an unreturned pending result holds. Void is never undefined.
func Zero(t types.Type) Value {
	if t == types.Void {
		return Void()
	}
	v := Value{typ: t, undefined: true}
	if t == types.Char {
		v.c = ' '
	}
	return v
}

// Type returns the value's type
func (v Value) Type() types.Type { return v.typ }

// IsUndefined reports whether the value was never assigned
func (v Value) IsUndefined() bool { return v.undefined }

// AsInt returns the int payload
func (v Value) AsInt() int32 { return v.i }

// AsFloat returns the float payload
func (v Value) AsFloat() float32 { return v.f }

// AsChar returns the char payload
func (v Value) AsChar() uint16 { return v.c }

// AsBool returns the bool payload
func (v Value) AsBool() bool { return v.b }

// String renders the value the way print emits it. Undefined values render
// as "undef"; void renders as the empty string.
func (v Value) String() string {
	if v.undefined {
		return Undef
	}

	switch v.typ {
	case types.Int:
		return strconv.FormatInt(int64(v.i), 10)
	case types.Float:
		return FormatFloat(v.f)
	case types.Char:
		return string(rune(v.c))
	case types.Bool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Literal renders the value as C++Lite source text (chars quoted)
func (v Value) Literal() string {
	if v.typ == types.Char && !v.undefined {
		return strconv.QuoteRune(rune(v.c))
	}
	return v.String()
}

// FormatFloat renders f with the shortest digits that round-trip through
// float32: plain decimal with at least one fractional digit for magnitudes
// in [1e-3, 1e7), otherwise d.dddEn.
func FormatFloat(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return "NaN"
	case math.IsInf(float64(f), 1):
		return "Infinity"
	case math.IsInf(float64(f), -1):
		return "-Infinity"
	}

	abs := math.Abs(float64(f))
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(float64(f), 'f', -1, 32)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(float64(f), 'E', -1, 32)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}

	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(exp, "+-")
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	if neg {
		exp = "-" + exp
	}

	return mant + "E" + exp
}
