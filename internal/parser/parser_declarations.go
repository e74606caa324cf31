package parser

import (
	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/lexer"
	"github.com/cpplite-lang/cpplite/internal/types"
)

// ====== Grammar Rules ======

// parseProgram parses global declarations and function definitions in any
// order.
func (p *Parser) parseProgram() *ast.Program {
	start := p.current.Span.Start
	program := &ast.Program{}

	for !p.currentTokenIs(lexer.TokenEOF) {
		typ, ok := p.parseType()
		if !ok {
			p.synchronizeTopLevel()
			continue
		}

		nameTok, ok := p.expect(lexer.TokenIdentifier)
		if !ok {
			p.synchronizeTopLevel()
			continue
		}

		if p.currentTokenIs(lexer.TokenLParen) {
			if fn := p.parseFunctionRest(typ, nameTok); fn != nil {
				program.Functions = append(program.Functions, fn)
			} else {
				p.synchronizeTopLevel()
			}
			continue
		}

		globals, ok := p.parseDeclaratorsRest(typ, nameTok)
		program.Globals = append(program.Globals, globals...)
		if !ok {
			p.synchronizeTopLevel()
		}
	}

	program.Span = p.spanFrom(start)

	return program
}

// synchronizeTopLevel skips to the next token that can start a top-level
// declaration after a statement or block boundary.
func (p *Parser) synchronizeTopLevel() {
	for !p.currentTokenIs(lexer.TokenEOF) {
		boundary := p.currentTokenIs(lexer.TokenSemicolon) || p.currentTokenIs(lexer.TokenRBrace)
		p.nextToken()
		if boundary && p.current.IsType() {
			return
		}
	}
}

// parseType parses one of the five type keywords.
func (p *Parser) parseType() (types.Type, bool) {
	if !p.current.IsType() {
		p.unexpected("expected a type")
		return types.Invalid, false
	}

	typ, _ := types.Lookup(p.current.Literal)
	p.nextToken()

	return typ, true
}

// parseDeclaratorsRest parses `{ , Ident } ;` after the first declarator.
func (p *Parser) parseDeclaratorsRest(typ types.Type, first lexer.Token) (ast.Declarations, bool) {
	decls := ast.Declarations{{Span: first.Span, Name: first.Literal, Type: typ}}

	for p.currentTokenIs(lexer.TokenComma) {
		p.nextToken()

		tok, ok := p.expect(lexer.TokenIdentifier)
		if !ok {
			return decls, false
		}
		decls = append(decls, ast.Declaration{Span: tok.Span, Name: tok.Literal, Type: typ})
	}

	_, ok := p.expect(lexer.TokenSemicolon)

	return decls, ok
}

// parseFunctionRest parses the parameter list and body of a function whose
// return type and name have been consumed.
func (p *Parser) parseFunctionRest(returnType types.Type, nameTok lexer.Token) *ast.Function {
	fn := &ast.Function{Name: nameTok.Literal, ReturnType: returnType}
	p.function = fn.Name
	defer func() { p.function = "" }()

	p.nextToken() // consume '('

	if !p.currentTokenIs(lexer.TokenRParen) {
		for {
			typ, ok := p.parseType()
			if !ok {
				return nil
			}

			tok, ok := p.expect(lexer.TokenIdentifier)
			if !ok {
				return nil
			}
			fn.Params = append(fn.Params, ast.Declaration{Span: tok.Span, Name: tok.Literal, Type: typ})

			if !p.currentTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
	}

	if _, ok := p.expect(lexer.TokenRParen); !ok {
		return nil
	}

	bodyStart := p.current.Span.Start
	if _, ok := p.expect(lexer.TokenLBrace); !ok {
		return nil
	}

	for p.current.IsType() {
		typ, _ := p.parseType()

		tok, ok := p.expect(lexer.TokenIdentifier)
		if !ok {
			return nil
		}

		locals, ok := p.parseDeclaratorsRest(typ, tok)
		fn.Locals = append(fn.Locals, locals...)
		if !ok {
			return nil
		}
	}

	members := p.parseStatements()
	if _, ok := p.expect(lexer.TokenRBrace); !ok {
		return nil
	}

	fn.Body = &ast.Block{Span: p.spanFrom(bodyStart), Members: members}
	fn.Span = p.spanFrom(nameTok.Span.Start)

	return fn
}

// parseStatements parses statements up to a closing brace or end of file.
func (p *Parser) parseStatements() []ast.Statement {
	var members []ast.Statement

	for !p.currentTokenIs(lexer.TokenRBrace) && !p.currentTokenIs(lexer.TokenEOF) {
		before := p.current

		stmt := p.parseStatement()
		if stmt != nil {
			members = append(members, stmt)
			continue
		}

		p.synchronize()
		if p.current == before {
			p.nextToken()
		}
	}

	return members
}

// parseStatement parses a statement
func (p *Parser) parseStatement() ast.Statement {
	switch p.current.Type {
	case lexer.TokenSemicolon:
		tok := p.current
		p.nextToken()
		return &ast.Skip{Span: tok.Span}
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		return p.parseConditional()
	case lexer.TokenWhile:
		return p.parseLoop()
	case lexer.TokenPrint:
		return p.parsePrint()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenIdentifier:
		if p.peekTokenIs(lexer.TokenLParen) {
			return p.parseCallStatement()
		}
		return p.parseAssignment()
	default:
		if p.current.IsType() {
			p.unexpected("declarations must precede statements; expected a statement")
			return nil
		}
		p.unexpected("expected a statement")
		return nil
	}
}

// parseBlock parses a brace-enclosed statement list
func (p *Parser) parseBlock() ast.Statement {
	start := p.current.Span.Start
	p.nextToken() // consume '{'

	members := p.parseStatements()
	if _, ok := p.expect(lexer.TokenRBrace); !ok {
		return nil
	}

	return &ast.Block{Span: p.spanFrom(start), Members: members}
}

// parseConditional parses `if ( Expression ) Statement [ else Statement ]`
func (p *Parser) parseConditional() ast.Statement {
	start := p.current.Span.Start
	p.nextToken() // consume 'if'

	test := p.parseParenthesized()
	if test == nil {
		return nil
	}

	then := p.parseStatement()
	if then == nil {
		return nil
	}

	cond := &ast.Conditional{Test: test, Then: then}

	if p.currentTokenIs(lexer.TokenElse) {
		p.nextToken()

		cond.Else = p.parseStatement()
		if cond.Else == nil {
			return nil
		}
	}

	cond.Span = p.spanFrom(start)

	return cond
}

// parseLoop parses `while ( Expression ) Statement`
func (p *Parser) parseLoop() ast.Statement {
	start := p.current.Span.Start
	p.nextToken() // consume 'while'

	test := p.parseParenthesized()
	if test == nil {
		return nil
	}

	body := p.parseStatement()
	if body == nil {
		return nil
	}

	return &ast.Loop{Span: p.spanFrom(start), Test: test, Body: body}
}

func (p *Parser) parseParenthesized() ast.Expression {
	if _, ok := p.expect(lexer.TokenLParen); !ok {
		return nil
	}

	expr := p.parseExpression()
	if expr == nil {
		return nil
	}

	if _, ok := p.expect(lexer.TokenRParen); !ok {
		return nil
	}

	return expr
}

// parsePrint parses `print Expression ;`
func (p *Parser) parsePrint() ast.Statement {
	start := p.current.Span.Start
	p.nextToken() // consume 'print'

	expr := p.parseExpression()
	if expr == nil {
		return nil
	}

	if _, ok := p.expect(lexer.TokenSemicolon); !ok {
		return nil
	}

	return &ast.Print{Span: p.spanFrom(start), Expr: expr}
}

// parseReturn parses `return Expression ;` and records the enclosing
// function.
func (p *Parser) parseReturn() ast.Statement {
	start := p.current.Span.Start
	p.nextToken() // consume 'return'

	result := p.parseExpression()
	if result == nil {
		return nil
	}

	if _, ok := p.expect(lexer.TokenSemicolon); !ok {
		return nil
	}

	return &ast.Return{Span: p.spanFrom(start), Function: p.function, Result: result}
}

// parseAssignment parses `Ident = Expression ;`
func (p *Parser) parseAssignment() ast.Statement {
	tok := p.current
	p.nextToken()

	if _, ok := p.expect(lexer.TokenAssign); !ok {
		return nil
	}

	source := p.parseExpression()
	if source == nil {
		return nil
	}

	if _, ok := p.expect(lexer.TokenSemicolon); !ok {
		return nil
	}

	return &ast.Assignment{
		Span:   p.spanFrom(tok.Span.Start),
		Target: &ast.Variable{Span: tok.Span, Name: tok.Literal},
		Source: source,
	}
}

// parseCallStatement parses `Ident ( Args ) ;`
func (p *Parser) parseCallStatement() ast.Statement {
	tok := p.current
	p.nextToken()

	args, ok := p.parseArguments()
	if !ok {
		return nil
	}

	if _, ok := p.expect(lexer.TokenSemicolon); !ok {
		return nil
	}

	return &ast.CallStatement{Span: p.spanFrom(tok.Span.Start), Callee: tok.Literal, Args: args}
}
