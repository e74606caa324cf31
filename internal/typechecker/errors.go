package typechecker

import (
	"fmt"

	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/position"
)

// Validation error codes.
const (
	CodeDuplicateDeclaration = "DUPLICATE_DECLARATION"
	CodeVoidDeclaration      = "VOID_DECLARATION"
	CodeDuplicateFunction    = "DUPLICATE_FUNCTION"
	CodeMissingMain          = "MISSING_MAIN"
	CodeMainSignature        = "MAIN_SIGNATURE"
	CodeUndeclaredVariable   = "UNDECLARED_VARIABLE"
	CodeTypeMismatch         = "TYPE_MISMATCH"
	CodeNonBoolCondition     = "NON_BOOL_CONDITION"
	CodeOperandType          = "OPERAND_TYPE"
	CodeUnknownOperator      = "UNKNOWN_OPERATOR"
	CodeUnknownFunction      = "UNKNOWN_FUNCTION"
	CodeArityMismatch        = "ARITY_MISMATCH"
	CodeArgumentType         = "ARGUMENT_TYPE"
	CodeReturnType           = "RETURN_TYPE"
	CodeMisplacedReturn      = "MISPLACED_RETURN"
	CodeMissingReturn        = "MISSING_RETURN"
	CodeVoidValue            = "VOID_VALUE"
)

// ValidationError reports a static rule violation. Validation stops at the
// first one.
type ValidationError struct {
	Span    position.Span
	Message string
	code    string
}

func (e *ValidationError) Error() string {
	if !e.Span.IsValid() {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error at %s: %s", e.Span, e.Message)
}

func (e *ValidationError) Category() cperrors.Category { return cperrors.CategoryValidation }
func (e *ValidationError) Code() string                { return e.code }

func errorf(span position.Span, code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Span: span, Message: fmt.Sprintf(format, args...), code: code}
}
