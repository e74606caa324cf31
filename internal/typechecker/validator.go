// Package typechecker implements the C++Lite static semantics: it validates
// declarations, statements and expressions against a type environment and
// computes the static type of expressions.
package typechecker

import (
	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/types"
)

// MainFunction is the entry point every program must define.
const MainFunction = "main"

// Validator checks a program against the static rules. It keeps no state
// between runs, so validating the same program twice gives the same result.
type Validator struct {
	globals   *types.Env
	functions FunctionTable
	current   *ast.Function
}

// Validate checks p and returns its global type environment.
func Validate(p *ast.Program) (*types.Env, error) {
	v := &Validator{}
	if err := v.validateProgram(p); err != nil {
		return nil, err
	}
	return v.globals, nil
}

// FunctionEnv returns the type environment for the body of fn: the globals
// with fn's params and locals layered on top.
func FunctionEnv(globals *types.Env, fn *ast.Function) *types.Env {
	return globals.Extend(fn.Scope())
}

func (v *Validator) validateProgram(p *ast.Program) error {
	if err := validateDeclarations(p.Globals); err != nil {
		return err
	}

	v.globals = types.NewEnv()
	for _, g := range p.Globals {
		v.globals.Declare(g.Name, g.Type)
	}

	seen := make(map[string]bool, len(p.Functions))
	for _, f := range p.Functions {
		if seen[f.Name] {
			return errorf(f.Span, CodeDuplicateFunction, "duplicate function %s", f.Name)
		}
		seen[f.Name] = true
	}
	v.functions = NewFunctionTable(p)

	main, ok := v.functions[MainFunction]
	if !ok {
		return errorf(p.Span, CodeMissingMain, "program has no main function")
	}
	if main.ReturnType != types.Int {
		return errorf(main.Span, CodeMainSignature, "main must return int, not %s", main.ReturnType)
	}
	if len(main.Params) != 0 {
		return errorf(main.Span, CodeMainSignature, "main must not take parameters")
	}

	for _, f := range p.Functions {
		if err := v.validateFunction(f); err != nil {
			return err
		}
	}

	return nil
}

// validateDeclarations rejects repeated identifiers and void declarations
// within one list.
func validateDeclarations(ds ...ast.Declarations) error {
	seen := make(map[string]bool)
	for _, list := range ds {
		for _, d := range list {
			if seen[d.Name] {
				return errorf(d.Span, CodeDuplicateDeclaration, "duplicate declaration of %s", d.Name)
			}
			seen[d.Name] = true

			if d.Type == types.Void {
				return errorf(d.Span, CodeVoidDeclaration, "%s cannot be declared void", d.Name)
			}
			if !d.Type.IsScalar() {
				return errorf(d.Span, CodeVoidDeclaration, "%s has invalid type %s", d.Name, d.Type)
			}
		}
	}
	return nil
}

func (v *Validator) validateFunction(f *ast.Function) error {
	if err := validateDeclarations(f.Params, f.Locals); err != nil {
		return err
	}

	body := f.Body
	if body == nil {
		body = &ast.Block{Span: f.Span}
	}

	returns := ast.Returns(body)
	if f.ReturnType == types.Void && len(returns) > 0 {
		return errorf(returns[0].Span, CodeMisplacedReturn, "void function %s cannot return a value", f.Name)
	}
	if f.ReturnType != types.Void && len(returns) == 0 {
		return errorf(f.Span, CodeMissingReturn, "function %s must contain a return statement", f.Name)
	}

	v.current = f
	defer func() { v.current = nil }()

	return v.validateStatement(body, FunctionEnv(v.globals, f))
}

func (v *Validator) validateStatement(s ast.Statement, env *types.Env) error {
	switch s := s.(type) {
	case *ast.Skip:
		return nil

	case *ast.Block:
		for _, m := range s.Members {
			if err := v.validateStatement(m, env); err != nil {
				return err
			}
		}
		return nil

	case *ast.Assignment:
		target, ok := env.Lookup(s.Target.Name)
		if !ok {
			return errorf(s.Target.Span, CodeUndeclaredVariable, "undeclared variable %s", s.Target.Name)
		}

		source, err := TypeOf(s.Source, env, v.functions)
		if err != nil {
			return err
		}

		if !types.Widens(source, target) {
			return errorf(s.Span, CodeTypeMismatch, "cannot assign %s to %s variable %s", source, target, s.Target.Name)
		}
		return nil

	case *ast.Conditional:
		if err := v.validateTest(s.Test, env, "if"); err != nil {
			return err
		}
		if err := v.validateStatement(s.Then, env); err != nil {
			return err
		}
		if s.Else != nil {
			return v.validateStatement(s.Else, env)
		}
		return nil

	case *ast.Loop:
		if err := v.validateTest(s.Test, env, "while"); err != nil {
			return err
		}
		return v.validateStatement(s.Body, env)

	case *ast.Print:
		t, err := TypeOf(s.Expr, env, v.functions)
		if err != nil {
			return err
		}
		if t == types.Void {
			return errorf(s.Span, CodeVoidValue, "cannot print a void value")
		}
		return nil

	case *ast.CallStatement:
		_, err := checkCall(s.Callee, s.Args, s, env, v.functions)
		return err

	case *ast.Return:
		fn, ok := v.functions[s.Function]
		if !ok {
			return errorf(s.Span, CodeUnknownFunction, "return from unknown function %q", s.Function)
		}
		if v.current != nil && fn != v.current {
			return errorf(s.Span, CodeMisplacedReturn, "return for %s inside %s", s.Function, v.current.Name)
		}

		t, err := TypeOf(s.Result, env, v.functions)
		if err != nil {
			return err
		}
		if t != fn.ReturnType {
			return errorf(s.Result.GetSpan(), CodeReturnType, "%s must return %s, got %s", fn.Name, fn.ReturnType, t)
		}
		return nil
	}

	return errorf(s.GetSpan(), CodeUnknownOperator, "unsupported statement %T", s)
}

func (v *Validator) validateTest(test ast.Expression, env *types.Env, keyword string) error {
	t, err := TypeOf(test, env, v.functions)
	if err != nil {
		return err
	}
	if t != types.Bool {
		return errorf(test.GetSpan(), CodeNonBoolCondition, "%s condition must be bool, got %s", keyword, t)
	}
	return nil
}
