// Package runtime implements the C++Lite operational semantics: it executes
// a transformed program against a global store, one local store per call and
// an explicit call stack whose frames carry each call's pending result.
package runtime

import (
	"context"
	"io"

	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/position"
	"github.com/cpplite-lang/cpplite/internal/value"
)

// MainFunction is the function Run invokes.
const MainFunction = "main"

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithOutput sets the writer print statements emit to.
func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) { e.out = w }
}

// WithMaxDepth limits call nesting; zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) { e.maxDepth = n }
}

// WithMaxOutput limits the bytes print may write; zero means unlimited.
// The print that would cross the limit fails and writes nothing.
func WithMaxOutput(n int64) Option {
	return func(e *Evaluator) { e.maxOutput = n }
}

// Evaluator executes one transformed program. It is not safe for
// concurrent use; create one per run.
type Evaluator struct {
	program   *ast.Program
	functions map[string]*ast.Function
	globals   *Store
	stack     CallStack
	out       io.Writer
	maxDepth  int
	maxOutput int64
	written   int64
	ctx       context.Context
}

// New creates an evaluator for p, which must be the output of the
// typed-operator transformation.
func New(p *ast.Program, opts ...Option) *Evaluator {
	e := &Evaluator{
		program:   p,
		functions: make(map[string]*ast.Function, len(p.Functions)),
		out:       io.Discard,
	}
	for _, f := range p.Functions {
		if _, dup := e.functions[f.Name]; !dup {
			e.functions[f.Name] = f
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs p and returns the final global store.
func Evaluate(ctx context.Context, p *ast.Program, opts ...Option) (*Store, error) {
	return New(p, opts...).Run(ctx)
}

// Run materializes the globals, calls main with no arguments and returns
// the final global store. On error the store reflects every assignment made
// before the failure.
func (e *Evaluator) Run(ctx context.Context) (*Store, error) {
	e.ctx = ctx
	e.written = 0
	e.globals = NewStoreFor(e.program.Globals)

	_, err := e.call(MainFunction, nil, e.program.Span)
	return e.globals, err
}

// Globals returns the global store of the current or last run.
func (e *Evaluator) Globals() *Store { return e.globals }

// call runs the call protocol: push a frame whose locals bind the params
// positionally and the locals to undefined zeros, execute the body, pop the
// frame and yield its pending result.
func (e *Evaluator) call(name string, args []value.Value, at position.Span) (value.Value, error) {
	if err := e.ctx.Err(); err != nil {
		return value.Value{}, err
	}

	fn, ok := e.functions[name]
	if !ok {
		return value.Value{}, &LookupError{Span: at, Kind: "function", Name: name}
	}

	if e.maxDepth > 0 && e.stack.Depth() >= e.maxDepth {
		return value.Value{}, &CallDepthError{Span: at, Limit: e.maxDepth, Trace: e.stack.Trace()}
	}

	locals := NewStore()
	for i, p := range fn.Params {
		if i < len(args) {
			locals.Declare(p.Name, args[i])
		} else {
			locals.Declare(p.Name, value.Zero(p.Type))
		}
	}
	for _, d := range fn.Locals {
		locals.Declare(d.Name, value.Zero(d.Type))
	}

	frame := NewFrame(fn, locals)
	e.stack.Push(frame)
	defer e.stack.Pop()

	if fn.Body != nil {
		if err := e.exec(fn.Body, frame); err != nil {
			return value.Value{}, err
		}
	}

	return frame.Result, nil
}

// exec executes s within frame. A statement reached after the frame has
// returned does nothing.
func (e *Evaluator) exec(s ast.Statement, frame *Frame) error {
	if frame.Returned {
		return nil
	}

	switch s := s.(type) {
	case *ast.Skip:
		return nil

	case *ast.Block:
		for _, m := range s.Members {
			if frame.Returned {
				break
			}
			if err := e.exec(m, frame); err != nil {
				return err
			}
		}
		return nil

	case *ast.Assignment:
		v, err := e.eval(s.Source, frame)
		if err != nil {
			return err
		}
		return e.assign(s.Target, v, frame)

	case *ast.Conditional:
		ok, err := e.test(s.Test, frame)
		if err != nil {
			return err
		}
		if ok {
			return e.exec(s.Then, frame)
		}
		if s.Else != nil {
			return e.exec(s.Else, frame)
		}
		return nil

	case *ast.Loop:
		for !frame.Returned {
			if err := e.ctx.Err(); err != nil {
				return err
			}
			ok, err := e.test(s.Test, frame)
			if err != nil || !ok {
				return err
			}
			if err := e.exec(s.Body, frame); err != nil {
				return err
			}
		}
		return nil

	case *ast.Print:
		v, err := e.eval(s.Expr, frame)
		if err != nil {
			return err
		}
		if v.IsUndefined() {
			return &UndefinedValueError{Span: s.Expr.GetSpan(), Expr: s.Expr.String()}
		}
		text := v.String()
		if e.maxOutput > 0 && e.written+int64(len(text)) > e.maxOutput {
			return &OutputLimitError{Span: s.Span, Limit: e.maxOutput}
		}
		n, err := io.WriteString(e.out, text)
		e.written += int64(n)
		return err

	case *ast.CallStatement:
		args, err := e.arguments(s.Args, frame)
		if err != nil {
			return err
		}
		_, err = e.call(s.Callee, args, s.Span)
		return err

	case *ast.Return:
		v, err := e.eval(s.Result, frame)
		if err != nil {
			return err
		}
		frame.Complete(v)
		return nil
	}

	return &OperatorError{Span: s.GetSpan(), Message: "unsupported statement " + s.String()}
}

// assign updates the local binding when target is a local, else the global.
func (e *Evaluator) assign(target *ast.Variable, v value.Value, frame *Frame) error {
	if frame.Locals.Set(target.Name, v) || e.globals.Set(target.Name, v) {
		return nil
	}
	return &LookupError{Span: target.Span, Kind: "variable", Name: target.Name}
}

func (e *Evaluator) test(expr ast.Expression, frame *Frame) (bool, error) {
	v, err := e.eval(expr, frame)
	if err != nil {
		return false, err
	}
	if v.IsUndefined() {
		return false, &UndefinedValueError{Span: expr.GetSpan(), Expr: expr.String()}
	}
	return v.AsBool(), nil
}

// eval computes the value of expr. Locals shadow globals.
func (e *Evaluator) eval(expr ast.Expression, frame *Frame) (value.Value, error) {
	switch expr := expr.(type) {
	case *ast.Variable:
		if v, ok := frame.Locals.Lookup(expr.Name); ok {
			return v, nil
		}
		if v, ok := e.globals.Lookup(expr.Name); ok {
			return v, nil
		}
		return value.Value{}, &LookupError{Span: expr.Span, Kind: "variable", Name: expr.Name}

	case *ast.Literal:
		return expr.Value, nil

	case *ast.Binary:
		left, err := e.eval(expr.Left, frame)
		if err != nil {
			return value.Value{}, err
		}
		right, err := e.eval(expr.Right, frame)
		if err != nil {
			return value.Value{}, err
		}
		if left.IsUndefined() {
			return value.Value{}, &UndefinedValueError{Span: expr.Left.GetSpan(), Expr: expr.Left.String()}
		}
		if right.IsUndefined() {
			return value.Value{}, &UndefinedValueError{Span: expr.Right.GetSpan(), Expr: expr.Right.String()}
		}
		return applyBinary(expr, left, right)

	case *ast.Unary:
		operand, err := e.eval(expr.Operand, frame)
		if err != nil {
			return value.Value{}, err
		}
		if operand.IsUndefined() {
			return value.Value{}, &UndefinedValueError{Span: expr.Operand.GetSpan(), Expr: expr.Operand.String()}
		}
		return applyUnary(expr, operand)

	case *ast.CallExpression:
		args, err := e.arguments(expr.Args, frame)
		if err != nil {
			return value.Value{}, err
		}
		return e.call(expr.Callee, args, expr.Span)
	}

	return value.Value{}, &OperatorError{Span: expr.GetSpan(), Message: "unsupported expression " + expr.String()}
}

func (e *Evaluator) arguments(args []ast.Expression, frame *Frame) ([]value.Value, error) {
	out := make([]value.Value, 0, len(args))
	for _, a := range args {
		v, err := e.eval(a, frame)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
