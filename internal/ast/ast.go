// Package ast defines the abstract syntax tree for C++Lite programs.
//
// Statements and expressions are closed sets: each variant implements a
// private marker method, so a type switch over them names every case the
// validator, transformer and evaluator must handle. Every node records the
// source span it was parsed from; nodes built by hand may leave it zero.
package ast

import (
	"fmt"
	"strings"

	"github.com/cpplite-lang/cpplite/internal/position"
	"github.com/cpplite-lang/cpplite/internal/types"
	"github.com/cpplite-lang/cpplite/internal/value"
)

// Node is the base interface for all AST nodes.
type Node interface {
	// GetSpan returns the source span covered by this node
	GetSpan() position.Span
	// String returns a single-line rendering of the node
	String() string
}

// Statement represents all statement nodes in the AST.
type Statement interface {
	Node
	statementNode()
}

// Expression represents all expression nodes in the AST.
type Expression interface {
	Node
	expressionNode()
}

// ===== Declarations and program structure =====

// Declaration binds an identifier to a type.
type Declaration struct {
	Span position.Span
	Name string
	Type types.Type
}

func (d Declaration) GetSpan() position.Span { return d.Span }
func (d Declaration) String() string         { return d.Type.String() + " " + d.Name }

// Declarations is an ordered declaration list. Order is significant: it is
// the positional order of parameters and the dump order of globals.
type Declarations []Declaration

// Lookup returns the first declaration named name.
func (ds Declarations) Lookup(name string) (Declaration, bool) {
	for _, d := range ds {
		if d.Name == name {
			return d, true
		}
	}

	return Declaration{}, false
}

// Scope returns the declarations as a name to type mapping.
func (ds Declarations) Scope() map[string]types.Type {
	scope := make(map[string]types.Type, len(ds))
	for _, d := range ds {
		scope[d.Name] = d.Type
	}

	return scope
}

func (ds Declarations) String() string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}

	return strings.Join(parts, ", ")
}

// Function is a C++Lite function definition.
type Function struct {
	Span       position.Span
	Name       string
	ReturnType types.Type
	Params     Declarations
	Locals     Declarations
	Body       *Block
}

func (f *Function) GetSpan() position.Span { return f.Span }
func (f *Function) String() string {
	return fmt.Sprintf("%s %s(%s) %s", f.ReturnType, f.Name, f.Params, f.Body)
}

// Scope returns the function's params and locals as one name to type map.
func (f *Function) Scope() map[string]types.Type {
	scope := f.Params.Scope()
	for _, d := range f.Locals {
		scope[d.Name] = d.Type
	}

	return scope
}

// Program is the root of the AST.
type Program struct {
	Span      position.Span
	Globals   Declarations
	Functions []*Function
}

func (p *Program) GetSpan() position.Span { return p.Span }
func (p *Program) String() string         { return Format(p) }

// Function returns the first function named name.
func (p *Program) Function(name string) (*Function, bool) {
	for _, f := range p.Functions {
		if f.Name == name {
			return f, true
		}
	}

	return nil, false
}

// ===== Statements =====

// Skip is the empty statement `;`.
type Skip struct {
	Span position.Span
}

func (s *Skip) GetSpan() position.Span { return s.Span }
func (s *Skip) statementNode()         {}
func (s *Skip) String() string         { return ";" }

// Block represents a sequence of statements enclosed in braces.
type Block struct {
	Span    position.Span
	Members []Statement
}

func (b *Block) GetSpan() position.Span { return b.Span }
func (b *Block) statementNode()         {}
func (b *Block) String() string {
	if len(b.Members) == 0 {
		return "{ }"
	}

	parts := make([]string, len(b.Members))
	for i, m := range b.Members {
		parts[i] = m.String()
	}

	return "{ " + strings.Join(parts, " ") + " }"
}

// Assignment stores the value of Source into Target.
type Assignment struct {
	Span   position.Span
	Target *Variable
	Source Expression
}

func (a *Assignment) GetSpan() position.Span { return a.Span }
func (a *Assignment) statementNode()         {}
func (a *Assignment) String() string {
	return fmt.Sprintf("%s = %s;", a.Target, a.Source)
}

// Conditional is an if statement; Else may be nil.
type Conditional struct {
	Span position.Span
	Test Expression
	Then Statement
	Else Statement
}

func (c *Conditional) GetSpan() position.Span { return c.Span }
func (c *Conditional) statementNode()         {}
func (c *Conditional) String() string {
	if c.Else == nil {
		return fmt.Sprintf("if (%s) %s", c.Test, c.Then)
	}

	return fmt.Sprintf("if (%s) %s else %s", c.Test, c.Then, c.Else)
}

// Loop is a while statement.
type Loop struct {
	Span position.Span
	Test Expression
	Body Statement
}

func (l *Loop) GetSpan() position.Span { return l.Span }
func (l *Loop) statementNode()         {}
func (l *Loop) String() string         { return fmt.Sprintf("while (%s) %s", l.Test, l.Body) }

// Print writes the textual value of Expr to the program output.
type Print struct {
	Span position.Span
	Expr Expression
}

func (p *Print) GetSpan() position.Span { return p.Span }
func (p *Print) statementNode()         {}
func (p *Print) String() string         { return fmt.Sprintf("print %s;", p.Expr) }

// CallStatement calls a function and discards its result.
type CallStatement struct {
	Span   position.Span
	Callee string
	Args   []Expression
}

func (c *CallStatement) GetSpan() position.Span { return c.Span }
func (c *CallStatement) statementNode()         {}
func (c *CallStatement) String() string         { return formatCall(c.Callee, c.Args) + ";" }

// Return stores Result into the pending result of the call to Function.
type Return struct {
	Span     position.Span
	Function string
	Result   Expression
}

func (r *Return) GetSpan() position.Span { return r.Span }
func (r *Return) statementNode()         {}
func (r *Return) String() string         { return fmt.Sprintf("return %s;", r.Result) }

// ===== Expressions =====

// Variable is a reference to a declared identifier.
type Variable struct {
	Span position.Span
	Name string
}

func (v *Variable) GetSpan() position.Span { return v.Span }
func (v *Variable) expressionNode()        {}
func (v *Variable) String() string         { return v.Name }

// Literal is a constant value.
type Literal struct {
	Span  position.Span
	Value value.Value
}

func (l *Literal) GetSpan() position.Span { return l.Span }
func (l *Literal) expressionNode()        {}
func (l *Literal) String() string         { return l.Value.Literal() }

// Binary represents binary operations (a + b, a INT< b, ...).
type Binary struct {
	Span     position.Span
	Operator Operator
	Left     Expression
	Right    Expression
}

func (b *Binary) GetSpan() position.Span { return b.Span }
func (b *Binary) expressionNode()        {}
func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

// Unary represents negation, logical not and conversions.
type Unary struct {
	Span     position.Span
	Operator Operator
	Operand  Expression
}

func (u *Unary) GetSpan() position.Span { return u.Span }
func (u *Unary) expressionNode()        {}
func (u *Unary) String() string {
	switch u.Operator {
	case OpNot, OpNeg:
		return fmt.Sprintf("(%s%s)", u.Operator, u.Operand)
	}

	return fmt.Sprintf("%s(%s)", u.Operator, u.Operand)
}

// CallExpression calls a function and yields its result.
type CallExpression struct {
	Span   position.Span
	Callee string
	Args   []Expression
}

func (c *CallExpression) GetSpan() position.Span { return c.Span }
func (c *CallExpression) expressionNode()        {}
func (c *CallExpression) String() string         { return formatCall(c.Callee, c.Args) }

func formatCall(callee string, args []Expression) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}

	return callee + "(" + strings.Join(parts, ", ") + ")"
}
