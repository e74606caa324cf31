package ast

import "fmt"

// Operator is the closed set of C++Lite operators. Generic operators are
// produced by the parser; tagged operators encode the operand type and are
// produced only by the typed-operator transformation.
type Operator int

const (
	OpInvalid Operator = iota

	// Generic arithmetic
	OpAdd // +
	OpSub // -
	OpMul // *
	OpDiv // /
	OpRem // %

	// Generic relational
	OpLt // <
	OpLe // <=
	OpEq // ==
	OpNe // !=
	OpGt // >
	OpGe // >=

	// Boolean connectives (already unambiguous, never retagged)
	OpAnd // &&
	OpOr  // ||

	// Generic unary
	OpNot       // !
	OpNeg       // unary -
	OpCastInt   // int(e)
	OpCastFloat // float(e)
	OpCastChar  // char(e)

	// Tagged int
	OpIntAdd
	OpIntSub
	OpIntMul
	OpIntDiv
	OpIntRem
	OpIntLt
	OpIntLe
	OpIntEq
	OpIntNe
	OpIntGt
	OpIntGe
	OpIntNeg

	// Tagged float
	OpFloatAdd
	OpFloatSub
	OpFloatMul
	OpFloatDiv
	OpFloatRem
	OpFloatLt
	OpFloatLe
	OpFloatEq
	OpFloatNe
	OpFloatGt
	OpFloatGe
	OpFloatNeg

	// Tagged char
	OpCharLt
	OpCharLe
	OpCharEq
	OpCharNe
	OpCharGt
	OpCharGe

	// Tagged bool
	OpBoolLt
	OpBoolLe
	OpBoolEq
	OpBoolNe
	OpBoolGt
	OpBoolGe
	OpBoolNot

	// Conversions
	OpI2F
	OpF2I
	OpC2I
	OpI2C

	opCount
)

var operatorNames = [...]string{
	OpInvalid: "<invalid>",

	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpRem: "%",
	OpLt:  "<",
	OpLe:  "<=",
	OpEq:  "==",
	OpNe:  "!=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAnd: "&&",
	OpOr:  "||",

	OpNot:       "!",
	OpNeg:       "-",
	OpCastInt:   "int",
	OpCastFloat: "float",
	OpCastChar:  "char",

	OpIntAdd: "INT+",
	OpIntSub: "INT-",
	OpIntMul: "INT*",
	OpIntDiv: "INT/",
	OpIntRem: "INT%",
	OpIntLt:  "INT<",
	OpIntLe:  "INT<=",
	OpIntEq:  "INT==",
	OpIntNe:  "INT!=",
	OpIntGt:  "INT>",
	OpIntGe:  "INT>=",
	OpIntNeg: "INT_NEG",

	OpFloatAdd: "FLOAT+",
	OpFloatSub: "FLOAT-",
	OpFloatMul: "FLOAT*",
	OpFloatDiv: "FLOAT/",
	OpFloatRem: "FLOAT%",
	OpFloatLt:  "FLOAT<",
	OpFloatLe:  "FLOAT<=",
	OpFloatEq:  "FLOAT==",
	OpFloatNe:  "FLOAT!=",
	OpFloatGt:  "FLOAT>",
	OpFloatGe:  "FLOAT>=",
	OpFloatNeg: "FLOAT_NEG",

	OpCharLt: "CHAR<",
	OpCharLe: "CHAR<=",
	OpCharEq: "CHAR==",
	OpCharNe: "CHAR!=",
	OpCharGt: "CHAR>",
	OpCharGe: "CHAR>=",

	OpBoolLt:  "BOOL<",
	OpBoolLe:  "BOOL<=",
	OpBoolEq:  "BOOL==",
	OpBoolNe:  "BOOL!=",
	OpBoolGt:  "BOOL>",
	OpBoolGe:  "BOOL>=",
	OpBoolNot: "BOOL!",

	OpI2F: "I2F",
	OpF2I: "F2I",
	OpC2I: "C2I",
	OpI2C: "I2C",
}

func (op Operator) String() string {
	if op >= 0 && op < opCount {
		return operatorNames[op]
	}

	return fmt.Sprintf("Operator(%d)", int(op))
}

// IsTagged reports whether op carries its operand type. The boolean
// connectives count as tagged since they only ever apply to bool.
func (op Operator) IsTagged() bool {
	return op == OpAnd || op == OpOr || (op >= OpIntAdd && op < opCount)
}

// IsArithmetic reports whether op is one of the generic + - * / %.
func (op Operator) IsArithmetic() bool {
	return op >= OpAdd && op <= OpRem
}

// IsRelational reports whether op is one of the generic comparisons.
func (op Operator) IsRelational() bool {
	return op >= OpLt && op <= OpGe
}

// IsBoolean reports whether op is && or ||.
func (op Operator) IsBoolean() bool {
	return op == OpAnd || op == OpOr
}

// IsCast reports whether op is one of the generic cast-like unary forms.
func (op Operator) IsCast() bool {
	return op >= OpCastInt && op <= OpCastChar
}

// IsConversion reports whether op is a tagged conversion.
func (op Operator) IsConversion() bool {
	return op >= OpI2F && op <= OpI2C
}

// IsUnary reports whether op takes a single operand.
func (op Operator) IsUnary() bool {
	switch op {
	case OpNot, OpNeg, OpCastInt, OpCastFloat, OpCastChar,
		OpIntNeg, OpFloatNeg, OpBoolNot,
		OpI2F, OpF2I, OpC2I, OpI2C:
		return true
	}

	return false
}
