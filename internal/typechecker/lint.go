package typechecker

import (
	"fmt"

	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/position"
	"github.com/cpplite-lang/cpplite/internal/types"
)

// CodeMayFallThrough flags a non-void function whose body can finish
// without executing a return.
const CodeMayFallThrough = "MAY_FALL_THROUGH"

// Warning is a finding about a valid program. It never stops the pipeline.
type Warning struct {
	Span    position.Span
	Code    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("warning at %s: %s", w.Span, w.Message)
}

// Lint reports non-void functions that may end without a return. The
// validator only asks for a return somewhere in the body, so a call to such
// a function can yield an undefined result at run time.
func Lint(p *ast.Program) []Warning {
	var warnings []Warning
	for _, f := range p.Functions {
		if f.ReturnType == types.Void || f.Body == nil {
			continue
		}
		if !alwaysReturns(f.Body) {
			warnings = append(warnings, Warning{
				Span:    f.Span,
				Code:    CodeMayFallThrough,
				Message: fmt.Sprintf("%s function %s can end without a return", f.ReturnType, f.Name),
			})
		}
	}
	return warnings
}

// alwaysReturns reports whether every path through s executes a return.
// Loops are assumed to run zero times.
func alwaysReturns(s ast.Statement) bool {
	switch s := s.(type) {
	case *ast.Return:
		return true
	case *ast.Block:
		for _, m := range s.Members {
			if alwaysReturns(m) {
				return true
			}
		}
	case *ast.Conditional:
		return s.Else != nil && alwaysReturns(s.Then) && alwaysReturns(s.Else)
	}
	return false
}
