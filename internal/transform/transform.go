// Package transform implements the typed-operator transformation: every
// generic operator in a validated program is replaced by the operator for
// its operand type, and every implicit widening at an assignment becomes an
// explicit conversion. The evaluator only ever sees the transformed tree.
package transform

import (
	"fmt"

	"github.com/cpplite-lang/cpplite/internal/ast"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/position"
	"github.com/cpplite-lang/cpplite/internal/typechecker"
	"github.com/cpplite-lang/cpplite/internal/types"
)

// TransformError represents an internal inconsistency found while
// transforming. It is never raised for a program that passed validation.
type TransformError struct {
	Message string
	Span    position.Span
}

// NewTransformError creates a new transformation error.
func NewTransformError(message string, span position.Span) *TransformError {
	return &TransformError{Message: message, Span: span}
}

// Error implements the error interface.
func (te *TransformError) Error() string {
	return fmt.Sprintf("transformation error at %s: %s", te.Span, te.Message)
}

func (te *TransformError) Category() cperrors.Category { return cperrors.CategoryTransform }
func (te *TransformError) Code() string                { return "TRANSFORM_DEFECT" }

var (
	intOps = map[ast.Operator]ast.Operator{
		ast.OpAdd: ast.OpIntAdd, ast.OpSub: ast.OpIntSub, ast.OpMul: ast.OpIntMul,
		ast.OpDiv: ast.OpIntDiv, ast.OpRem: ast.OpIntRem,
		ast.OpLt: ast.OpIntLt, ast.OpLe: ast.OpIntLe, ast.OpEq: ast.OpIntEq,
		ast.OpNe: ast.OpIntNe, ast.OpGt: ast.OpIntGt, ast.OpGe: ast.OpIntGe,
		ast.OpNeg: ast.OpIntNeg,
	}
	floatOps = map[ast.Operator]ast.Operator{
		ast.OpAdd: ast.OpFloatAdd, ast.OpSub: ast.OpFloatSub, ast.OpMul: ast.OpFloatMul,
		ast.OpDiv: ast.OpFloatDiv, ast.OpRem: ast.OpFloatRem,
		ast.OpLt: ast.OpFloatLt, ast.OpLe: ast.OpFloatLe, ast.OpEq: ast.OpFloatEq,
		ast.OpNe: ast.OpFloatNe, ast.OpGt: ast.OpFloatGt, ast.OpGe: ast.OpFloatGe,
		ast.OpNeg: ast.OpFloatNeg,
	}
	charOps = map[ast.Operator]ast.Operator{
		ast.OpLt: ast.OpCharLt, ast.OpLe: ast.OpCharLe, ast.OpEq: ast.OpCharEq,
		ast.OpNe: ast.OpCharNe, ast.OpGt: ast.OpCharGt, ast.OpGe: ast.OpCharGe,
	}
	boolOps = map[ast.Operator]ast.Operator{
		ast.OpLt: ast.OpBoolLt, ast.OpLe: ast.OpBoolLe, ast.OpEq: ast.OpBoolEq,
		ast.OpNe: ast.OpBoolNe, ast.OpGt: ast.OpBoolGt, ast.OpGe: ast.OpBoolGe,
		ast.OpNot: ast.OpBoolNot,
	}

	opsByType = map[types.Type]map[ast.Operator]ast.Operator{
		types.Int:   intOps,
		types.Float: floatOps,
		types.Char:  charOps,
		types.Bool:  boolOps,
	}
)

type conversion struct {
	op   ast.Operator
	from types.Type
}

// conversions maps a cast-like operator and its operand type to the tagged
// conversion.
var conversions = map[conversion]ast.Operator{
	{ast.OpCastInt, types.Float}: ast.OpF2I,
	{ast.OpCastInt, types.Char}:  ast.OpC2I,
	{ast.OpCastFloat, types.Int}: ast.OpI2F,
	{ast.OpCastChar, types.Int}:  ast.OpI2C,
}

// widenings maps (source, target) of an implicit assignment widening to its
// conversion.
var widenings = map[[2]types.Type]ast.Operator{
	{types.Char, types.Int}:  ast.OpC2I,
	{types.Int, types.Float}: ast.OpI2F,
}

// Transformer rewrites a validated program. Static types are computed on
// the original subexpressions, so tagging never depends on rewritten nodes.
type Transformer struct {
	globals   *types.Env
	functions typechecker.FunctionTable
}

// New creates a transformer for a program with the given global type
// environment and function table.
func New(globals *types.Env, functions typechecker.FunctionTable) *Transformer {
	return &Transformer{globals: globals, functions: functions}
}

// Program transforms p, which must already have passed typechecker.Validate
// with the given globals.
func Program(p *ast.Program, globals *types.Env) (*ast.Program, error) {
	return New(globals, typechecker.NewFunctionTable(p)).Program(p)
}

// Program returns a transformed copy of p. The input is not modified.
func (t *Transformer) Program(p *ast.Program) (*ast.Program, error) {
	out := &ast.Program{
		Span:      p.Span,
		Globals:   append(ast.Declarations(nil), p.Globals...),
		Functions: make([]*ast.Function, 0, len(p.Functions)),
	}

	for _, f := range p.Functions {
		tf, err := t.Function(f)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, tf)
	}

	return out, nil
}

// Function returns a transformed copy of f.
func (t *Transformer) Function(f *ast.Function) (*ast.Function, error) {
	env := typechecker.FunctionEnv(t.globals, f)

	body := &ast.Block{Span: f.Span}
	if f.Body != nil {
		tb, err := t.Statement(f.Body, env)
		if err != nil {
			return nil, err
		}
		body = tb.(*ast.Block)
	}

	return &ast.Function{
		Span:       f.Span,
		Name:       f.Name,
		ReturnType: f.ReturnType,
		Params:     append(ast.Declarations(nil), f.Params...),
		Locals:     append(ast.Declarations(nil), f.Locals...),
		Body:       body,
	}, nil
}

// Statement returns a transformed copy of s under env.
func (t *Transformer) Statement(s ast.Statement, env *types.Env) (ast.Statement, error) {
	switch s := s.(type) {
	case *ast.Skip:
		return &ast.Skip{Span: s.Span}, nil

	case *ast.Block:
		members := make([]ast.Statement, 0, len(s.Members))
		for _, m := range s.Members {
			tm, err := t.Statement(m, env)
			if err != nil {
				return nil, err
			}
			members = append(members, tm)
		}
		return &ast.Block{Span: s.Span, Members: members}, nil

	case *ast.Assignment:
		return t.assignment(s, env)

	case *ast.Conditional:
		test, err := t.Expression(s.Test, env)
		if err != nil {
			return nil, err
		}
		then, err := t.Statement(s.Then, env)
		if err != nil {
			return nil, err
		}

		out := &ast.Conditional{Span: s.Span, Test: test, Then: then}
		if s.Else != nil {
			if out.Else, err = t.Statement(s.Else, env); err != nil {
				return nil, err
			}
		}
		return out, nil

	case *ast.Loop:
		test, err := t.Expression(s.Test, env)
		if err != nil {
			return nil, err
		}
		body, err := t.Statement(s.Body, env)
		if err != nil {
			return nil, err
		}
		return &ast.Loop{Span: s.Span, Test: test, Body: body}, nil

	case *ast.Print:
		expr, err := t.Expression(s.Expr, env)
		if err != nil {
			return nil, err
		}
		return &ast.Print{Span: s.Span, Expr: expr}, nil

	case *ast.CallStatement:
		args, err := t.arguments(s.Args, env)
		if err != nil {
			return nil, err
		}
		return &ast.CallStatement{Span: s.Span, Callee: s.Callee, Args: args}, nil

	case *ast.Return:
		result, err := t.Expression(s.Result, env)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Span: s.Span, Function: s.Function, Result: result}, nil
	}

	return nil, NewTransformError(fmt.Sprintf("unexpected statement %T", s), s.GetSpan())
}

// assignment makes an implicit widening explicit.
func (t *Transformer) assignment(s *ast.Assignment, env *types.Env) (ast.Statement, error) {
	target, ok := env.Lookup(s.Target.Name)
	if !ok {
		return nil, NewTransformError("undeclared variable "+s.Target.Name, s.Target.Span)
	}

	sourceType, err := t.typeOf(s.Source, env)
	if err != nil {
		return nil, err
	}

	source, err := t.Expression(s.Source, env)
	if err != nil {
		return nil, err
	}

	if sourceType != target {
		op, ok := widenings[[2]types.Type{sourceType, target}]
		if !ok {
			return nil, NewTransformError(fmt.Sprintf("no conversion from %s to %s", sourceType, target), s.Span)
		}
		source = &ast.Unary{Span: source.GetSpan(), Operator: op, Operand: source}
	}

	return &ast.Assignment{
		Span:   s.Span,
		Target: &ast.Variable{Span: s.Target.Span, Name: s.Target.Name},
		Source: source,
	}, nil
}

// Expression returns a transformed copy of e under env.
func (t *Transformer) Expression(e ast.Expression, env *types.Env) (ast.Expression, error) {
	switch e := e.(type) {
	case *ast.Variable:
		return &ast.Variable{Span: e.Span, Name: e.Name}, nil

	case *ast.Literal:
		return &ast.Literal{Span: e.Span, Value: e.Value}, nil

	case *ast.Binary:
		operandType, err := t.typeOf(e.Left, env)
		if err != nil {
			return nil, err
		}

		op := e.Operator
		if !op.IsBoolean() {
			if op, err = tag(op, operandType, e.Span); err != nil {
				return nil, err
			}
		}

		left, err := t.Expression(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := t.Expression(e.Right, env)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Span: e.Span, Operator: op, Left: left, Right: right}, nil

	case *ast.Unary:
		operandType, err := t.typeOf(e.Operand, env)
		if err != nil {
			return nil, err
		}

		var op ast.Operator
		if e.Operator.IsCast() {
			var ok bool
			if op, ok = conversions[conversion{e.Operator, operandType}]; !ok {
				return nil, NewTransformError(fmt.Sprintf("no conversion %s(%s)", e.Operator, operandType), e.Span)
			}
		} else if op, err = tag(e.Operator, operandType, e.Span); err != nil {
			return nil, err
		}

		operand, err := t.Expression(e.Operand, env)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Span: e.Span, Operator: op, Operand: operand}, nil

	case *ast.CallExpression:
		args, err := t.arguments(e.Args, env)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpression{Span: e.Span, Callee: e.Callee, Args: args}, nil
	}

	return nil, NewTransformError(fmt.Sprintf("unexpected expression %T", e), e.GetSpan())
}

func (t *Transformer) arguments(args []ast.Expression, env *types.Env) ([]ast.Expression, error) {
	out := make([]ast.Expression, 0, len(args))
	for _, a := range args {
		ta, err := t.Expression(a, env)
		if err != nil {
			return nil, err
		}
		out = append(out, ta)
	}
	return out, nil
}

func (t *Transformer) typeOf(e ast.Expression, env *types.Env) (types.Type, error) {
	typ, err := typechecker.TypeOf(e, env, t.functions)
	if err != nil {
		return types.Invalid, NewTransformError(err.Error(), e.GetSpan())
	}
	return typ, nil
}

func tag(op ast.Operator, operandType types.Type, span position.Span) (ast.Operator, error) {
	if tagged, ok := opsByType[operandType][op]; ok {
		return tagged, nil
	}
	return ast.OpInvalid, NewTransformError(fmt.Sprintf("no %s operator for %s", op, operandType), span)
}
