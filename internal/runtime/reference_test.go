package runtime

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/parser"
	"github.com/cpplite-lang/cpplite/internal/typechecker"
	"github.com/cpplite-lang/cpplite/internal/types"
	"github.com/cpplite-lang/cpplite/internal/value"
)

// reference interprets a validated tree whose operators are still generic.
// It picks each operation from the dynamic operand types and widens values
// when they are stored, so it needs no tagging pass.
type reference struct {
	t       *testing.T
	program *ast.Program
	globals *Store
	out     strings.Builder
}

func interpret(t *testing.T, p *ast.Program) (*Store, string) {
	t.Helper()

	r := &reference{t: t, program: p, globals: NewStoreFor(p.Globals)}
	r.call(typechecker.MainFunction, nil)
	return r.globals, r.out.String()
}

func (r *reference) call(name string, args []value.Value) value.Value {
	fn, ok := r.program.Function(name)
	require.True(r.t, ok, "no function %s", name)

	locals := NewStore()
	for i, p := range fn.Params {
		locals.Declare(p.Name, args[i])
	}
	for _, d := range fn.Locals {
		locals.Declare(d.Name, value.Zero(d.Type))
	}

	frame := NewFrame(fn, locals)
	if fn.Body != nil {
		r.exec(fn.Body, frame)
	}
	return frame.Result
}

func (r *reference) exec(s ast.Statement, f *Frame) {
	if f.Returned {
		return
	}

	switch s := s.(type) {
	case *ast.Skip:
	case *ast.Block:
		for _, m := range s.Members {
			r.exec(m, f)
		}
	case *ast.Assignment:
		v := r.eval(s.Source, f)
		store := r.globals
		if _, ok := f.Locals.Lookup(s.Target.Name); ok {
			store = f.Locals
		}
		old, _ := store.Lookup(s.Target.Name)
		store.Set(s.Target.Name, widen(v, old.Type()))
	case *ast.Conditional:
		if r.eval(s.Test, f).AsBool() {
			r.exec(s.Then, f)
		} else if s.Else != nil {
			r.exec(s.Else, f)
		}
	case *ast.Loop:
		for !f.Returned && r.eval(s.Test, f).AsBool() {
			r.exec(s.Body, f)
		}
	case *ast.Print:
		r.out.WriteString(r.eval(s.Expr, f).String())
	case *ast.CallStatement:
		r.call(s.Callee, r.arguments(s.Args, f))
	case *ast.Return:
		f.Complete(r.eval(s.Result, f))
	default:
		r.t.Fatalf("unexpected statement %T", s)
	}
}

func (r *reference) arguments(args []ast.Expression, f *Frame) []value.Value {
	out := make([]value.Value, 0, len(args))
	for _, a := range args {
		out = append(out, r.eval(a, f))
	}
	return out
}

func (r *reference) eval(e ast.Expression, f *Frame) value.Value {
	switch e := e.(type) {
	case *ast.Variable:
		if v, ok := f.Locals.Lookup(e.Name); ok {
			return v
		}
		v, ok := r.globals.Lookup(e.Name)
		require.True(r.t, ok, "no variable %s", e.Name)
		return v
	case *ast.Literal:
		return e.Value
	case *ast.Binary:
		return r.binary(e.Operator, r.eval(e.Left, f), r.eval(e.Right, f))
	case *ast.Unary:
		return r.unary(e.Operator, r.eval(e.Operand, f))
	case *ast.CallExpression:
		return r.call(e.Callee, r.arguments(e.Args, f))
	}

	r.t.Fatalf("unexpected expression %T", e)
	return value.Value{}
}

func (r *reference) binary(op ast.Operator, l, rv value.Value) value.Value {
	switch op {
	case ast.OpAnd:
		return value.Bool(l.AsBool() && rv.AsBool())
	case ast.OpOr:
		return value.Bool(l.AsBool() || rv.AsBool())
	case ast.OpLt:
		return value.Bool(order(l, rv) < 0)
	case ast.OpLe:
		return value.Bool(order(l, rv) <= 0)
	case ast.OpEq:
		return value.Bool(order(l, rv) == 0)
	case ast.OpNe:
		return value.Bool(order(l, rv) != 0)
	case ast.OpGt:
		return value.Bool(order(l, rv) > 0)
	case ast.OpGe:
		return value.Bool(order(l, rv) >= 0)
	}

	if l.Type() == types.Float {
		a, b := l.AsFloat(), rv.AsFloat()
		switch op {
		case ast.OpAdd:
			return value.Float(a + b)
		case ast.OpSub:
			return value.Float(a - b)
		case ast.OpMul:
			return value.Float(a * b)
		case ast.OpDiv:
			return value.Float(a / b)
		case ast.OpRem:
			return value.Float(float32(math.Mod(float64(a), float64(b))))
		}
	}

	a, b := l.AsInt(), rv.AsInt()
	switch op {
	case ast.OpAdd:
		return value.Int(a + b)
	case ast.OpSub:
		return value.Int(a - b)
	case ast.OpMul:
		return value.Int(a * b)
	case ast.OpDiv:
		return value.Int(a / b)
	case ast.OpRem:
		return value.Int(a % b)
	}

	r.t.Fatalf("unexpected operator %s", op)
	return value.Value{}
}

func (r *reference) unary(op ast.Operator, v value.Value) value.Value {
	switch {
	case op == ast.OpNot:
		return value.Bool(!v.AsBool())
	case op == ast.OpNeg && v.Type() == types.Float:
		return value.Float(-v.AsFloat())
	case op == ast.OpNeg:
		return value.Int(-v.AsInt())
	case op == ast.OpCastInt && v.Type() == types.Char:
		return value.Int(int32(v.AsChar()))
	case op == ast.OpCastInt:
		// The programs below only truncate floats inside the int32 range.
		return value.Int(int32(v.AsFloat()))
	case op == ast.OpCastFloat:
		return value.Float(float32(v.AsInt()))
	case op == ast.OpCastChar:
		return value.Char(uint16(v.AsInt()))
	}

	r.t.Fatalf("unexpected operator %s", op)
	return value.Value{}
}

// order compares two values of the same type.
func order(l, r value.Value) int {
	var a, b float64
	switch l.Type() {
	case types.Int:
		a, b = float64(l.AsInt()), float64(r.AsInt())
	case types.Float:
		a, b = float64(l.AsFloat()), float64(r.AsFloat())
	case types.Char:
		a, b = float64(l.AsChar()), float64(r.AsChar())
	case types.Bool:
		if l.AsBool() != r.AsBool() {
			return 1
		}
		return 0
	}

	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// widen converts v for storage into a binding of type to.
func widen(v value.Value, to types.Type) value.Value {
	switch {
	case v.IsUndefined():
		return v
	case v.Type() == types.Char && to == types.Int:
		return value.Int(int32(v.AsChar()))
	case v.Type() == types.Int && to == types.Float:
		return value.Float(float32(v.AsInt()))
	}
	return v
}

func TestTransformPreservesMeaning(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"widening at assignment", `int i; float f; char c;
int main() { c = 'A'; i = c; f = i; f = f / 2.0; print f; return 0; }`},
		{"casts", `int i; float f; char c;
int main() {
    f = 7.75;
    i = int(f) * 3;
    c = char(i + 42);
    f = float(i) / 4.0 + float(int(c));
    print c; print i;
    return 0;
}`},
		{"call result widened", `float avg;
int sum(int a, int b) { return a + b; }
int main() { avg = sum(3, 4); avg = avg / 2.0; print avg; return 0; }`},
		{"loop accumulating floats", `int n; float total;
int main() {
    n = 0; total = 0.0;
    while (n < 5) { total = total + float(n) * 0.5; n = n + 1; }
    print total;
    return 0;
}`},
		{"char parameter shadows global", `int x; char last;
int bump(char x) { int y; y = x; last = char(y + 1); return y; }
int main() { x = bump('a') % 7; print last; return 0; }`},
		{"wrap and remainder", `int big; int r; float fr;
int main() { big = 2147483647; big = big + 1; r = -7 % 3; fr = 7.5 % 2.0; print big; return 0; }`},
		{"relational and logic", `bool b; bool c;
int main() { b = 'a' < 'b' && 2.5 >= 2.5; c = !(1 == 2) || false; b = b == c; print b; return 0; }`},
		{"return stops the loop", `int count;
int f(int n) { while (true) { count = count + 1; if (count >= n) return count * 10; } }
int main() { count = 0; print f(3); count = f(5); return 0; }`},
		{"recursion into float", `float r;
int fact(int n) { if (n <= 1) return 1; else return n * fact(n - 1); }
int main() { r = fact(6); print r; return 0; }`},
		{"untouched globals stay undefined", `int set; float unset; char also;
void touch() { set = 'z'; }
int main() { touch(); return 0; }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parser.ParseSource("test.cpl", tt.src)
			require.NoError(t, err)
			_, err = typechecker.Validate(p)
			require.NoError(t, err)
			want, wantOut := interpret(t, p)

			var out bytes.Buffer
			got, err := Evaluate(context.Background(), compile(t, tt.src), WithOutput(&out))
			require.NoError(t, err)

			require.Equal(t, want.String(), got.String())
			require.Equal(t, wantOut, out.String())
		})
	}
}
