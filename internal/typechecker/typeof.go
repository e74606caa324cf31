package typechecker

import (
	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/types"
)

// FunctionTable maps function names to their definitions.
type FunctionTable map[string]*ast.Function

// NewFunctionTable indexes the functions of p. When names repeat, the first
// definition wins; Validate rejects such programs.
func NewFunctionTable(p *ast.Program) FunctionTable {
	ft := make(FunctionTable, len(p.Functions))
	for _, f := range p.Functions {
		if _, dup := ft[f.Name]; !dup {
			ft[f.Name] = f
		}
	}
	return ft
}

// castSources lists the operand types each cast-like operator accepts.
var castSources = map[ast.Operator][]types.Type{
	ast.OpCastInt:   {types.Float, types.Char},
	ast.OpCastFloat: {types.Int},
	ast.OpCastChar:  {types.Int},
}

var castTargets = map[ast.Operator]types.Type{
	ast.OpCastInt:   types.Int,
	ast.OpCastFloat: types.Float,
	ast.OpCastChar:  types.Char,
}

// TypeOf returns the static type of e under env, checking operand and call
// typing along the way. Only generic operators are accepted.
func TypeOf(e ast.Expression, env *types.Env, funcs FunctionTable) (types.Type, error) {
	switch e := e.(type) {
	case *ast.Variable:
		t, ok := env.Lookup(e.Name)
		if !ok {
			return types.Invalid, errorf(e.Span, CodeUndeclaredVariable, "undeclared variable %s", e.Name)
		}
		return t, nil

	case *ast.Literal:
		return e.Value.Type(), nil

	case *ast.Binary:
		return typeOfBinary(e, env, funcs)

	case *ast.Unary:
		return typeOfUnary(e, env, funcs)

	case *ast.CallExpression:
		return checkCall(e.Callee, e.Args, e, env, funcs)
	}

	return types.Invalid, errorf(e.GetSpan(), CodeUnknownOperator, "unsupported expression %T", e)
}

func typeOfBinary(b *ast.Binary, env *types.Env, funcs FunctionTable) (types.Type, error) {
	lt, err := TypeOf(b.Left, env, funcs)
	if err != nil {
		return types.Invalid, err
	}

	rt, err := TypeOf(b.Right, env, funcs)
	if err != nil {
		return types.Invalid, err
	}

	switch {
	case b.Operator.IsArithmetic():
		if lt != rt || !lt.IsNumeric() {
			return types.Invalid, errorf(b.Span, CodeOperandType,
				"operator %s needs two int or two float operands, got %s and %s", b.Operator, lt, rt)
		}
		return lt, nil

	case b.Operator.IsRelational():
		if lt != rt || !lt.IsScalar() {
			return types.Invalid, errorf(b.Span, CodeOperandType,
				"operator %s needs operands of the same type, got %s and %s", b.Operator, lt, rt)
		}
		return types.Bool, nil

	case b.Operator.IsBoolean():
		if lt != types.Bool || rt != types.Bool {
			return types.Invalid, errorf(b.Span, CodeOperandType,
				"operator %s needs bool operands, got %s and %s", b.Operator, lt, rt)
		}
		return types.Bool, nil
	}

	return types.Invalid, errorf(b.Span, CodeUnknownOperator, "%s is not a binary source operator", b.Operator)
}

func typeOfUnary(u *ast.Unary, env *types.Env, funcs FunctionTable) (types.Type, error) {
	t, err := TypeOf(u.Operand, env, funcs)
	if err != nil {
		return types.Invalid, err
	}

	switch u.Operator {
	case ast.OpNot:
		if t != types.Bool {
			return types.Invalid, errorf(u.Span, CodeOperandType, "operator ! needs a bool operand, got %s", t)
		}
		return types.Bool, nil

	case ast.OpNeg:
		if !t.IsNumeric() {
			return types.Invalid, errorf(u.Span, CodeOperandType, "unary - needs an int or float operand, got %s", t)
		}
		return t, nil

	case ast.OpCastInt, ast.OpCastFloat, ast.OpCastChar:
		for _, src := range castSources[u.Operator] {
			if t == src {
				return castTargets[u.Operator], nil
			}
		}
		return types.Invalid, errorf(u.Span, CodeOperandType, "cannot convert %s to %s", t, castTargets[u.Operator])
	}

	return types.Invalid, errorf(u.Span, CodeUnknownOperator, "%s is not a unary source operator", u.Operator)
}

// checkCall validates a call in either position and returns the callee's
// return type. Arguments must match parameter types exactly.
func checkCall(callee string, args []ast.Expression, node ast.Node, env *types.Env, funcs FunctionTable) (types.Type, error) {
	fn, ok := funcs[callee]
	if !ok {
		return types.Invalid, errorf(node.GetSpan(), CodeUnknownFunction, "call to undefined function %s", callee)
	}

	if len(args) != len(fn.Params) {
		return types.Invalid, errorf(node.GetSpan(), CodeArityMismatch,
			"%s expects %d argument(s), got %d", callee, len(fn.Params), len(args))
	}

	for i, arg := range args {
		t, err := TypeOf(arg, env, funcs)
		if err != nil {
			return types.Invalid, err
		}

		if want := fn.Params[i].Type; t != want {
			return types.Invalid, errorf(arg.GetSpan(), CodeArgumentType,
				"argument %d of %s must be %s, got %s", i+1, callee, want, t)
		}
	}

	return fn.ReturnType, nil
}
