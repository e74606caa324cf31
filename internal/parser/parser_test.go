package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/cpplite-lang/cpplite/internal/ast"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/lexer"
	"github.com/cpplite-lang/cpplite/internal/types"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()

	program, errs := NewParser(lexer.NewWithFilename(src, "test.cpl")).Parse()
	if len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}

	return program
}

// parseExpr parses src as the result of a print statement.
func parseExpr(t *testing.T, src string) ast.Expression {
	t.Helper()

	program := mustParse(t, "void main() { print "+src+"; }")
	return program.Functions[0].Body.Members[0].(*ast.Print).Expr
}

func TestParseProgramStructure(t *testing.T) {
	src := `
int x, y;
float f;

int add(int a, int b) {
	int sum;
	sum = a + b;
	return sum;
}

char c;

int main() {
	x = add(2, 3);
	print x;
	return 0;
}
`
	program := mustParse(t, src)

	wantGlobals := ast.Declarations{
		{Name: "x", Type: types.Int},
		{Name: "y", Type: types.Int},
		{Name: "f", Type: types.Float},
		{Name: "c", Type: types.Char},
	}
	if len(program.Globals) != len(wantGlobals) {
		t.Fatalf("got %d globals, want %d", len(program.Globals), len(wantGlobals))
	}
	for i, g := range wantGlobals {
		if program.Globals[i].Name != g.Name || program.Globals[i].Type != g.Type {
			t.Errorf("globals[%d] = %s, want %s", i, program.Globals[i], g)
		}
	}

	if len(program.Functions) != 2 {
		t.Fatalf("got %d functions, want 2", len(program.Functions))
	}

	add := program.Functions[0]
	if add.Name != "add" || add.ReturnType != types.Int {
		t.Errorf("first function = %s %s", add.ReturnType, add.Name)
	}
	if add.Params.String() != "int a, int b" {
		t.Errorf("params = %q", add.Params)
	}
	if add.Locals.String() != "int sum" {
		t.Errorf("locals = %q", add.Locals)
	}
	if len(add.Body.Members) != 2 {
		t.Fatalf("add body has %d statements, want 2", len(add.Body.Members))
	}

	ret, ok := add.Body.Members[1].(*ast.Return)
	if !ok {
		t.Fatalf("second statement is %T, want *ast.Return", add.Body.Members[1])
	}
	if ret.Function != "add" {
		t.Errorf("return records function %q, want add", ret.Function)
	}

	main := program.Functions[1]
	if got := main.Body.Members[0].String(); got != "x = add(2, 3);" {
		t.Errorf("main[0] = %q", got)
	}
	if main.Span.Start.Line != 13 {
		t.Errorf("main starts on line %d, want 13", main.Span.Start.Line)
	}
}

func TestParseStatements(t *testing.T) {
	src := `void main() {
	;
	{ }
	if (b) x = 1; else { x = 2; }
	while (x < 10) x = x + 1;
	f(1, 'a', 2.5, true);
	print x;
}`
	program := mustParse(t, src)
	members := program.Functions[0].Body.Members

	want := []string{
		";",
		"{ }",
		"if (b) x = 1; else { x = 2; }",
		"while ((x < 10)) x = (x + 1);",
		"f(1, 'a', 2.5, true);",
		"print x;",
	}

	if len(members) != len(want) {
		t.Fatalf("got %d statements, want %d", len(members), len(want))
	}
	for i, w := range want {
		if got := members[i].String(); got != w {
			t.Errorf("statement %d = %q, want %q", i, got, w)
		}
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"a / b % c", "((a / b) % c)"},
		{"a < b + 1", "(a < (b + 1))"},
		{"a == b < c", "(a == (b < c))"},
		{"a && b && c", "(a && (b && c))"},
		{"a || b || c", "(a || (b || c))"},
		{"a || b && c", "(a || (b && c))"},
		{"!a && b", "((!a) && b)"},
		{"-x * y", "((-x) * y)"},
		{"--x", "(-(-x))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"int(f) + 1", "(int(f) + 1)"},
		{"(float) i * 2.0", "(float(i) * 2.0)"},
		{"char(65 + n)", "char((65 + n))"},
		{"add(1, g(2))", "add(1, g(2))"},
		{"'\\n'", "'\\n'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseExpr(t, tt.input).String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCastForms(t *testing.T) {
	for _, src := range []string{"int(c)", "(int) c"} {
		expr := parseExpr(t, src)

		u, ok := expr.(*ast.Unary)
		if !ok || u.Operator != ast.OpCastInt {
			t.Errorf("%s parsed as %s", src, expr)
		}
	}
}

func TestSpans(t *testing.T) {
	program := mustParse(t, "int main() {\n  x = 1 + 22;\n  return 0;\n}")

	assign := program.Functions[0].Body.Members[0].(*ast.Assignment)
	if assign.Span.Start.Line != 2 || assign.Span.Start.Column != 3 {
		t.Errorf("assignment starts at %s", assign.Span.Start)
	}
	if assign.Span.End.Column != 14 {
		t.Errorf("assignment ends at column %d, want 14", assign.Span.End.Column)
	}

	sum := assign.Source.GetSpan()
	if sum.Start.Column != 7 || sum.End.Column != 13 {
		t.Errorf("sum span = %d..%d, want 7..13", sum.Start.Column, sum.End.Column)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		code    string
		message string
	}{
		{"missing semicolon", "int x", CodeUnexpectedToken, "expected ';', found end of file"},
		{"missing type", "main() { }", CodeUnexpectedToken, "expected a type"},
		{"illegal character", "int main() { x = 1 @ 2; }", CodeIllegalToken, `unexpected character "@"`},
		{"int out of range", "int main() { x = 2147483648; }", CodeLiteralRange, "does not fit in int"},
		{"char out of range", "int main() { c = '\U0001F600'; }", CodeLiteralRange, "U+1F600 does not fit in char"},
		{"widest char", "int main() { c = '\uFFFF'; x = 1 @ 2; }", CodeIllegalToken, `unexpected character "@"`},
		{"chained equality", "int main() { print a == b == c; }", CodeUnexpectedToken, "expected ';'"},
		{"declaration after statement", "int main() { x = 1; int y; }", CodeUnexpectedToken, "declarations must precede statements"},
		{"bool cast", "int main() { print bool(1); }", CodeUnexpectedToken, "expected int, float or char in a cast"},
		{"unclosed block", "int main() { x = 1;", CodeUnexpectedToken, "expected '}'"},
		{"missing operand", "int main() { x = 1 + ; }", CodeUnexpectedToken, "expected an expression, found ';'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource("bad.cpl", tt.input)
			if err == nil {
				t.Fatal("expected a syntax error")
			}

			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not a *SyntaxError", err)
			}
			if se.Code() != tt.code {
				t.Errorf("code = %s, want %s", se.Code(), tt.code)
			}
			if se.Category() != cperrors.CategorySyntax {
				t.Errorf("category = %s", se.Category())
			}
			if !strings.Contains(se.Message, tt.message) {
				t.Errorf("message %q does not contain %q", se.Message, tt.message)
			}
			if !strings.HasPrefix(err.Error(), "syntax error at bad.cpl:") {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestRecoveryCollectsSeveralErrors(t *testing.T) {
	src := `int main() {
	x = ;
	y = 2;
	z = ;
	return 0;
}`
	program, errs := NewParser(lexer.New(src)).Parse()
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if len(program.Functions) != 1 {
		t.Fatalf("function lost during recovery")
	}
	if got := len(program.Functions[0].Body.Members); got != 2 {
		t.Errorf("kept %d statements, want 2", got)
	}
}
