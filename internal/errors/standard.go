// Package errors provides the error categories shared by every C++Lite
// pipeline stage and their mapping to process exit codes.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
)

// Category represents different categories of errors
type Category string

const (
	CategorySyntax     Category = "SYNTAX"
	CategoryValidation Category = "VALIDATION"
	CategoryTransform  Category = "TRANSFORM"
	CategoryLookup     Category = "LOOKUP"
	CategoryRuntime    Category = "RUNTIME"
	CategorySystem     Category = "SYSTEM"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitSystem     = 1
	ExitSyntax     = 2
	ExitValidation = 3
	ExitRuntime    = 4
	ExitInternal   = 70
)

// Coded is implemented by every error kind a pipeline stage reports.
type Coded interface {
	error
	Category() Category
	Code() string
}

// StandardError provides a consistent error format for failures outside the
// language pipeline, such as configuration and I/O.
type StandardError struct {
	category Category
	code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.category, e.code, e.Message)
}

// Category returns the error's category
func (e *StandardError) Category() Category { return e.category }

// Code returns the error's machine-readable code
func (e *StandardError) Code() string { return e.code }

// NewStandardError creates a new standardized error
func NewStandardError(category Category, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(1)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		category: category,
		code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// VersionMismatch reports that the running tool does not satisfy a
// project's version constraint.
func VersionMismatch(version, constraint string) *StandardError {
	return NewStandardError(CategorySystem, "VERSION_MISMATCH",
		fmt.Sprintf("cpplite %s does not satisfy requirement %q", version, constraint),
		map[string]interface{}{"version": version, "constraint": constraint})
}

// InvalidConfig reports a malformed configuration value.
func InvalidConfig(field, details string) *StandardError {
	return NewStandardError(CategorySystem, "INVALID_CONFIG",
		fmt.Sprintf("invalid %s: %s", field, details),
		map[string]interface{}{"field": field})
}

// Classify returns the category and code of err. Context cancellation is a
// runtime failure; anything unrecognized is a system failure.
func Classify(err error) (Category, string) {
	var coded Coded
	if stderrors.As(err, &coded) {
		return coded.Category(), coded.Code()
	}

	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return CategoryRuntime, "TIMEOUT"
	case stderrors.Is(err, context.Canceled):
		return CategoryRuntime, "CANCELLED"
	}

	return CategorySystem, "SYSTEM_ERROR"
}

// ExitCode maps a category to the process exit code.
func ExitCode(category Category) int {
	switch category {
	case CategorySyntax:
		return ExitSyntax
	case CategoryValidation:
		return ExitValidation
	case CategoryRuntime:
		return ExitRuntime
	case CategoryTransform, CategoryLookup:
		return ExitInternal
	default:
		return ExitSystem
	}
}

// ExitCodeFor maps err to the process exit code; nil maps to ExitOK.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	category, _ := Classify(err)

	return ExitCode(category)
}

// IsInternal reports whether category denotes a defect rather than a
// problem with the user's program.
func IsInternal(category Category) bool {
	return category == CategoryTransform || category == CategoryLookup
}
