package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpplite-lang/cpplite/internal/ast"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/parser"
	"github.com/cpplite-lang/cpplite/internal/typechecker"
	"github.com/cpplite-lang/cpplite/internal/types"
)

// transformSource parses, validates and transforms src.
func transformSource(t *testing.T, src string) (*ast.Program, *ast.Program) {
	t.Helper()

	p, err := parser.ParseSource("test.cpl", src)
	require.NoError(t, err)

	globals, err := typechecker.Validate(p)
	require.NoError(t, err)

	out, err := Program(p, globals)
	require.NoError(t, err)

	return p, out
}

// mainBody returns the statements of main rendered as strings.
func mainBody(t *testing.T, p *ast.Program) []string {
	t.Helper()

	fn, ok := p.Function("main")
	require.True(t, ok)

	var out []string
	for _, m := range fn.Body.Members {
		out = append(out, m.String())
	}
	return out
}

func TestAssignmentWidening(t *testing.T) {
	_, out := transformSource(t, `
float f; int i; char c;
int main() {
	i = 5;
	f = i;
	c = 'x';
	i = c;
	f = 2.5;
	return 0;
}`)

	require.Equal(t, []string{
		"i = 5;",
		"f = I2F(i);",
		"c = 'x';",
		"i = C2I(c);",
		"f = 2.5;",
		"return 0;",
	}, mainBody(t, out))
}

func TestOperatorTagging(t *testing.T) {
	tests := []struct {
		name string
		decl string
		expr string
		want string
	}{
		{"int add", "int a; int b;", "a + b", "(a INT+ b)"},
		{"int rem", "int a; int b;", "a % b", "(a INT% b)"},
		{"float div", "float a; float b;", "a / b", "(a FLOAT/ b)"},
		{"int compare", "int a; int b;", "a <= b", "(a INT<= b)"},
		{"float compare", "float a; float b;", "a > b", "(a FLOAT> b)"},
		{"char compare", "char a; char b;", "a == b", "(a CHAR== b)"},
		{"bool equality", "bool a; bool b;", "a != b", "(a BOOL!= b)"},
		{"bool ordering", "bool a; bool b;", "a < b", "(a BOOL< b)"},
		{"and kept", "bool a; bool b;", "a && b", "(a && b)"},
		{"or kept", "bool a; bool b;", "a || b", "(a || b)"},
		{"not", "bool a; bool b;", "!a", "BOOL!(a)"},
		{"int negate", "int a; int b;", "-a", "INT_NEG(a)"},
		{"float negate", "float a; float b;", "-a", "FLOAT_NEG(a)"},
		{"float to int", "float a; float b;", "int(a) < 3", "(F2I(a) INT< 3)"},
		{"char to int", "char a; char b;", "int(a) + 1", "(C2I(a) INT+ 1)"},
		{"int to float", "int a; int b;", "float(a) * 0.5", "(I2F(a) FLOAT* 0.5)"},
		{"int to char", "int a; int b;", "char(a) == 'q'", "(I2C(a) CHAR== 'q')"},
		{"nested", "int a; int b;", "(a + b) * (a - b) > 0 && !(a == b)", "((((a INT+ b) INT* (a INT- b)) INT> 0) && BOOL!((a INT== b)))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := transformSource(t, tt.decl+" int main() { print "+tt.expr+"; return 0; }")
			body := mainBody(t, out)
			require.Equal(t, "print "+tt.want+";", body[0])
		})
	}
}

func TestEveryOperatorTagged(t *testing.T) {
	_, out := transformSource(t, `
int i; float f; char c; bool b;
int add(int x, int y) { return x + y; }
int main() {
	i = add(i * 2, -i);
	f = f / 2.0 - float(i);
	if (c < 'z' || b) { print int(c); } else { c = char(i % 3); }
	while (f >= 1.0 && !b) f = f - 1.0;
	print add(int(f), i);
	return 0;
}`)

	for _, fn := range out.Functions {
		ast.Inspect(fn, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.Binary:
				require.True(t, n.Operator.IsTagged(), "untagged %s", n)
			case *ast.Unary:
				require.True(t, n.Operator.IsTagged(), "untagged %s", n)
			}
			return true
		})
	}
}

func TestStructureIsCopied(t *testing.T) {
	src, out := transformSource(t, `
int g;
int f(int a) { int l; l = a; if (a > 0) return l; else return 0; }
int main() { g = f(1); f(2); while (g > 0) g = g - 1; ; { } return 0; }`)

	require.Equal(t, src.Globals, out.Globals)
	require.Len(t, out.Functions, 2)

	f := out.Functions[0]
	require.Equal(t, "f", f.Name)
	require.Equal(t, types.Int, f.ReturnType)
	require.Equal(t, src.Functions[0].Params, f.Params)
	require.Equal(t, src.Functions[0].Locals, f.Locals)

	cond := f.Body.Members[1].(*ast.Conditional)
	require.Equal(t, "(a INT> 0)", cond.Test.String())
	require.Equal(t, "f", cond.Then.(*ast.Return).Function)
	require.NotNil(t, cond.Else)

	require.Equal(t, []string{
		"g = f(1);",
		"f(2);",
		"while ((g INT> 0)) g = (g INT- 1);",
		";",
		"{ }",
		"return 0;",
	}, mainBody(t, out))

	// The input tree is untouched.
	require.Equal(t, "while ((g > 0)) g = (g - 1);", src.Functions[1].Body.Members[2].String())
	require.NotSame(t, src.Functions[1].Body, out.Functions[1].Body)
}

func TestTransformErrorOnUnvalidatedInput(t *testing.T) {
	p, err := parser.ParseSource("test.cpl", "int i; int main() { i = 1.5; return 0; }")
	require.NoError(t, err)

	globals := types.NewEnv()
	globals.Declare("i", types.Int)

	_, err = Program(p, globals)
	require.Error(t, err)

	var te *TransformError
	require.True(t, errors.As(err, &te))
	require.Equal(t, cperrors.CategoryTransform, te.Category())
	require.Contains(t, te.Error(), "no conversion from float to int")
}
