package runtime

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cpplite-lang/cpplite/internal/ast"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/parser"
	"github.com/cpplite-lang/cpplite/internal/transform"
	"github.com/cpplite-lang/cpplite/internal/typechecker"
	"github.com/cpplite-lang/cpplite/internal/value"
)

func compile(t *testing.T, src string) *ast.Program {
	t.Helper()

	p, err := parser.ParseSource("test.cpl", src)
	require.NoError(t, err)

	globals, err := typechecker.Validate(p)
	require.NoError(t, err)

	typed, err := transform.Program(p, globals)
	require.NoError(t, err)

	return typed
}

func run(t *testing.T, src string, opts ...Option) (*Store, string, error) {
	t.Helper()

	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out)}, opts...)
	store, err := Evaluate(context.Background(), compile(t, src), opts...)

	return store, out.String(), err
}

func global(t *testing.T, s *Store, name string) value.Value {
	t.Helper()

	v, ok := s.Lookup(name)
	require.True(t, ok, "no global %s", name)

	return v
}

func TestScenarios(t *testing.T) {
	t.Run("A assignment and print", func(t *testing.T) {
		s, out, err := run(t, "int x; int main() { x = 3 + 4; print x; return 0; }")
		require.NoError(t, err)
		require.Equal(t, "7", out)
		require.Equal(t, value.Int(7), global(t, s, "x"))
	})

	t.Run("B widening", func(t *testing.T) {
		s, _, err := run(t, "float f; int i; int main() { i = 5; f = i; return 0; }")
		require.NoError(t, err)
		require.Equal(t, value.Float(5), global(t, s, "f"))
		require.Equal(t, "5.0", global(t, s, "f").String())
	})

	t.Run("C call", func(t *testing.T) {
		s, out, err := run(t, "int a; int add(int a, int b) { return a + b; } int main() { print add(2, 3); return 0; }")
		require.NoError(t, err)
		require.Equal(t, "5", out)
		require.True(t, global(t, s, "a").IsUndefined())
		require.Equal(t, []string{"a"}, s.Names())
	})

	t.Run("D loop", func(t *testing.T) {
		s, out, err := run(t, "int n; int main() { n = 0; while (n < 3) { print n; n = n + 1; } return 0; }")
		require.NoError(t, err)
		require.Equal(t, "012", out)
		require.Equal(t, value.Int(3), global(t, s, "n"))
	})

	t.Run("E undefined read", func(t *testing.T) {
		_, out, err := run(t, "int y; int main() { print y; return 0; }")
		var ue *UndefinedValueError
		require.True(t, errors.As(err, &ue))
		require.Equal(t, "y", ue.Expr)
		require.Empty(t, out)
		require.Equal(t, cperrors.CategoryRuntime, ue.Category())
	})
}

func TestGlobalsStartUndefined(t *testing.T) {
	s, _, err := run(t, "int i; float f; char c; bool b; int main() { return 0; }")
	require.NoError(t, err)
	require.Equal(t, []string{"i", "f", "c", "b"}, s.Names())
	s.Each(func(name string, v value.Value) {
		require.True(t, v.IsUndefined(), name)
	})
	require.Equal(t, "{i: undef, f: undef, c: undef, b: undef}", s.String())
}

func TestShadowing(t *testing.T) {
	s, out, err := run(t, `
int x; float y;
int f(int x) { int y; x = x + 100; y = x; print x; return y; }
int main() { x = 1; y = 2.5; print f(x); print x; return 0; }`)
	require.NoError(t, err)
	require.Equal(t, "1011011", out)
	require.Equal(t, value.Int(1), global(t, s, "x"))
	require.Equal(t, value.Float(2.5), global(t, s, "y"))
}

func TestFunctionsWriteGlobals(t *testing.T) {
	s, _, err := run(t, `
int counter;
void bump() { counter = counter + 1; }
int main() { counter = 0; bump(); bump(); bump(); return 0; }`)
	require.NoError(t, err)
	require.Equal(t, value.Int(3), global(t, s, "counter"))
}

func TestReturnShortCircuit(t *testing.T) {
	tests := []struct {
		name string
		src  string
		out  string
		want map[string]value.Value
	}{
		{
			name: "statements after return",
			src:  "int g; int f() { g = 1; return 5; g = 2; print 99; } int main() { print f(); return 0; }",
			out:  "5",
			want: map[string]value.Value{"g": value.Int(1)},
		},
		{
			name: "return inside loop",
			src: `int n; int f() { n = 0; while (true) { n = n + 1; if (n == 4) return n * 10; } }
int main() { print f(); return 0; }`,
			out:  "40",
			want: map[string]value.Value{"n": value.Int(4)},
		},
		{
			name: "return in nested blocks",
			src: `int g; int f(int a) { { { if (a > 0) { return 1; } } g = 7; } return 2; }
int main() { print f(1); print f(0); return 0; }`,
			out:  "12",
			want: map[string]value.Value{"g": value.Int(7)},
		},
		{
			name: "early return from main",
			src:  "int g; int main() { g = 1; return 0; g = 2; }",
			want: map[string]value.Value{"g": value.Int(1)},
		},
		{
			name: "callee return does not stop caller",
			src:  "int g; int f() { return 1; } int main() { g = f(); g = g + 1; return 0; }",
			want: map[string]value.Value{"g": value.Int(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out, err := run(t, tt.src)
			require.NoError(t, err)
			require.Equal(t, tt.out, out)
			for name, v := range tt.want {
				require.Equal(t, v, global(t, s, name), name)
			}
		})
	}
}

func TestMissingReturnLeavesResultUndefined(t *testing.T) {
	s, _, err := run(t, `
int r;
int f(bool b) { if (b) return 1; }
int main() { r = f(false); return 0; }`)
	require.NoError(t, err)
	require.True(t, global(t, s, "r").IsUndefined())

	_, _, err = run(t, "int f(bool b) { if (b) return 1; } int main() { print f(false); return 0; }")
	var ue *UndefinedValueError
	require.True(t, errors.As(err, &ue))
}

func TestRecursion(t *testing.T) {
	_, out, err := run(t, `
int fact(int n) { if (n <= 1) return 1; else return n * fact(n - 1); }
int main() { print fact(10); return 0; }`)
	require.NoError(t, err)
	require.Equal(t, "3628800", out)
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"int arithmetic", "7 / 2 * 2 + 7 % 2 - 10", "-3"},
		{"truncating division", "-7 / 2", "-3"},
		{"remainder sign", "-7 % 3", "-1"},
		{"wraparound add", "2147483647 + 1", "-2147483648"},
		{"wraparound mul", "65536 * 65536", "0"},
		{"min div minus one", "(-2147483647 - 1) / -1", "-2147483648"},
		{"float arithmetic", "1.5 * 2.0 + 0.25", "3.25"},
		{"float remainder", "7.5 % 2.0", "1.5"},
		{"float division by zero", "1.0 / 0.0", "Infinity"},
		{"int compare", "3 < 4", "true"},
		{"float compare", "2.5 >= 2.5", "true"},
		{"char compare", "'a' < 'b'", "true"},
		{"bool equality", "true == false", "false"},
		{"and", "true && false", "false"},
		{"or", "false || true", "true"},
		{"not", "!false", "true"},
		{"negate int", "-(3 - 5)", "2"},
		{"negate float", "-2.5", "-2.5"},
		{"float to int", "int(3.99)", "3"},
		{"negative float to int", "int(-3.99)", "-3"},
		{"float to int saturates", "int(10000000000.0)", "2147483647"},
		{"char to int", "int('A')", "65"},
		{"int to char", "char(66)", "B"},
		{"int to char wraps", "char(65536 + 67)", "C"},
		{"int to float", "float(3) / 2.0", "1.5"},
		{"print char", "'z'", "z"},
		{"print bool", "1 != 1", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := run(t, "int main() { print "+tt.expr+"; return 0; }")
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestBothOperandsEvaluated(t *testing.T) {
	s, _, err := run(t, `
int calls;
bool touch(bool b) { calls = calls + 1; return b; }
int main() { calls = 0; if (touch(false) && touch(true)) print 1; if (touch(true) || touch(true)) print 2; return 0; }`)
	require.NoError(t, err)
	require.Equal(t, value.Int(4), global(t, s, "calls"))
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"division by zero", "int z; int main() { z = 0; print 1 / z; return 0; }", CodeDivisionByZero},
		{"remainder by zero", "int z; int main() { z = 0; print 1 % z; return 0; }", CodeDivisionByZero},
		{"undefined operand", "int u; int main() { print u + 1; return 0; }", CodeUndefinedValue},
		{"undefined condition", "bool b; int main() { if (b) print 1; return 0; }", CodeUndefinedValue},
		{"undefined loop test", "bool b; int main() { while (b) ; return 0; }", CodeUndefinedValue},
		{"undefined argument used", "int u; int f(int a) { return a * 2; } int main() { print f(u); return 0; }", CodeUndefinedValue},
		{"bool ordering", "bool a; int main() { a = true; print a < false; return 0; }", CodeBadOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.src)
			require.Error(t, err)

			category, code := cperrors.Classify(err)
			require.Equal(t, cperrors.CategoryRuntime, category)
			require.Equal(t, tt.code, code)
		})
	}
}

func TestStoreKeepsAssignmentsBeforeFailure(t *testing.T) {
	s, out, err := run(t, "int a; int z; int main() { a = 1; print a; z = 0; a = a / z; a = 3; return 0; }")
	require.Error(t, err)
	require.Equal(t, "1", out)
	require.Equal(t, value.Int(1), global(t, s, "a"))
}

func TestUndefinedValuesCanBeCopied(t *testing.T) {
	s, _, err := run(t, "int a; int b; int main() { a = b; return 0; }")
	require.NoError(t, err)
	require.True(t, global(t, s, "a").IsUndefined())
}

func TestCallDepthLimit(t *testing.T) {
	_, _, err := run(t, "int f(int n) { return f(n + 1); } int main() { return f(0); }", WithMaxDepth(64))

	var de *CallDepthError
	require.True(t, errors.As(err, &de))
	require.Equal(t, 64, de.Limit)
	require.Len(t, de.Trace, 64)
	require.Equal(t, "main", de.Trace[63])
}

func TestOutputLimit(t *testing.T) {
	const loud = "int main() { while (true) print 123456789; return 0; }"

	_, out, err := run(t, loud, WithMaxOutput(40))

	var le *OutputLimitError
	require.True(t, errors.As(err, &le), "got %v", err)
	require.Equal(t, int64(40), le.Limit)
	require.Equal(t, strings.Repeat("123456789", 4), out)

	category, code := cperrors.Classify(err)
	require.Equal(t, cperrors.CategoryRuntime, category)
	require.Equal(t, CodeOutputLimit, code)

	_, out, err = run(t, "int main() { print 12; print 34; return 0; }", WithMaxOutput(4))
	require.NoError(t, err)
	require.Equal(t, "1234", out)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Evaluate(ctx, compile(t, "int main() { while (true) ; return 0; }"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	category, code := cperrors.Classify(err)
	require.Equal(t, cperrors.CategoryRuntime, category)
	require.Equal(t, "TIMEOUT", code)
}

func TestUntaggedOperatorIsRejected(t *testing.T) {
	p, err := parser.ParseSource("test.cpl", "int main() { print 1 + 2; return 0; }")
	require.NoError(t, err)

	_, err = Evaluate(context.Background(), p)

	var oe *OperatorError
	require.True(t, errors.As(err, &oe))
	require.Equal(t, ast.OpAdd, oe.Operator)
}

func TestMissingMainIsLookupError(t *testing.T) {
	_, err := Evaluate(context.Background(), &ast.Program{})

	var le *LookupError
	require.True(t, errors.As(err, &le))
	require.Equal(t, "main", le.Name)
	require.Equal(t, cperrors.CategoryLookup, le.Category())
}

func TestEvaluatorsAreIndependent(t *testing.T) {
	p := compile(t, "int n; int main() { n = 0; while (n < 5) n = n + 1; return 0; }")

	s1, err := Evaluate(context.Background(), p)
	require.NoError(t, err)
	s2, err := Evaluate(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, s1.String(), s2.String())
	require.NotSame(t, s1, s2)
}

func TestFloatToInt(t *testing.T) {
	require.Equal(t, int32(0), FloatToInt(float32(math.NaN())))
	require.Equal(t, int32(math.MaxInt32), FloatToInt(float32(math.Inf(1))))
	require.Equal(t, int32(math.MinInt32), FloatToInt(float32(math.Inf(-1))))
	require.Equal(t, int32(-2), FloatToInt(-2.7))
}
