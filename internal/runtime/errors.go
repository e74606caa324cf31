package runtime

import (
	"fmt"

	"github.com/cpplite-lang/cpplite/internal/ast"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/position"
)

// Runtime error codes.
const (
	CodeUndefinedValue = "UNDEFINED_VALUE"
	CodeDivisionByZero = "DIVISION_BY_ZERO"
	CodeBadOperator    = "BAD_OPERATOR"
	CodeCallDepth      = "CALL_DEPTH"
	CodeUnboundName    = "UNBOUND_NAME"
	CodeOutputLimit    = "OUTPUT_LIMIT"
)

// LookupError reports a variable or function missing at run time. A
// validated program never raises it.
type LookupError struct {
	Span position.Span
	Kind string
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup error at %s: no %s named %s", e.Span, e.Kind, e.Name)
}

func (e *LookupError) Category() cperrors.Category { return cperrors.CategoryLookup }
func (e *LookupError) Code() string                { return CodeUnboundName }

// UndefinedValueError reports an operator, test or print reading a value
// that was never assigned.
type UndefinedValueError struct {
	Span position.Span
	Expr string
}

func (e *UndefinedValueError) Error() string {
	return fmt.Sprintf("runtime error at %s: %s has no value", e.Span, e.Expr)
}

func (e *UndefinedValueError) Category() cperrors.Category { return cperrors.CategoryRuntime }
func (e *UndefinedValueError) Code() string                { return CodeUndefinedValue }

// DivisionByZeroError reports INT/ or INT% with a zero divisor.
type DivisionByZeroError struct {
	Span     position.Span
	Operator ast.Operator
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("runtime error at %s: division by zero in %s", e.Span, e.Operator)
}

func (e *DivisionByZeroError) Category() cperrors.Category { return cperrors.CategoryRuntime }
func (e *DivisionByZeroError) Code() string                { return CodeDivisionByZero }

// OperatorError reports an operator that cannot be applied to its operands.
type OperatorError struct {
	Span     position.Span
	Operator ast.Operator
	Message  string
}

func (e *OperatorError) Error() string {
	return fmt.Sprintf("runtime error at %s: %s: %s", e.Span, e.Operator, e.Message)
}

func (e *OperatorError) Category() cperrors.Category { return cperrors.CategoryRuntime }
func (e *OperatorError) Code() string                { return CodeBadOperator }

// CallDepthError reports a call nesting deeper than the configured limit.
type CallDepthError struct {
	Span  position.Span
	Limit int
	Trace []string
}

func (e *CallDepthError) Error() string {
	return fmt.Sprintf("runtime error at %s: call depth exceeds %d", e.Span, e.Limit)
}

func (e *CallDepthError) Category() cperrors.Category { return cperrors.CategoryRuntime }
func (e *CallDepthError) Code() string                { return CodeCallDepth }

// OutputLimitError reports a print that would take the program output past
// the configured number of bytes.
type OutputLimitError struct {
	Span  position.Span
	Limit int64
}

func (e *OutputLimitError) Error() string {
	return fmt.Sprintf("runtime error at %s: output exceeds %d bytes", e.Span, e.Limit)
}

func (e *OutputLimitError) Category() cperrors.Category { return cperrors.CategoryRuntime }
func (e *OutputLimitError) Code() string                { return CodeOutputLimit }
