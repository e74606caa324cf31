package parser

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/lexer"
	"github.com/cpplite-lang/cpplite/internal/value"
)

// ====== Expression Parsing ======
//
// Precedence, loosest first: || then && (both right-associative), the
// non-associative equality and relational levels, then additive and
// multiplicative (left-associative), then prefix operators and casts.

var equalityOps = map[lexer.TokenType]ast.Operator{
	lexer.TokenEq: ast.OpEq,
	lexer.TokenNe: ast.OpNe,
}

var relationalOps = map[lexer.TokenType]ast.Operator{
	lexer.TokenLt: ast.OpLt,
	lexer.TokenLe: ast.OpLe,
	lexer.TokenGt: ast.OpGt,
	lexer.TokenGe: ast.OpGe,
}

var additiveOps = map[lexer.TokenType]ast.Operator{
	lexer.TokenPlus:  ast.OpAdd,
	lexer.TokenMinus: ast.OpSub,
}

var multiplicativeOps = map[lexer.TokenType]ast.Operator{
	lexer.TokenMul: ast.OpMul,
	lexer.TokenDiv: ast.OpDiv,
	lexer.TokenMod: ast.OpRem,
}

var castOps = map[lexer.TokenType]ast.Operator{
	lexer.TokenInt:   ast.OpCastInt,
	lexer.TokenFloat: ast.OpCastFloat,
	lexer.TokenChar:  ast.OpCastChar,
}

// parseExpression parses a full expression
func (p *Parser) parseExpression() ast.Expression {
	return p.parseRightAssociative(lexer.TokenOr, ast.OpOr, p.parseConjunction)
}

func (p *Parser) parseConjunction() ast.Expression {
	return p.parseRightAssociative(lexer.TokenAnd, ast.OpAnd, p.parseEquality)
}

func (p *Parser) parseRightAssociative(tt lexer.TokenType, op ast.Operator, operand func() ast.Expression) ast.Expression {
	left := operand()
	if left == nil || !p.currentTokenIs(tt) {
		return left
	}
	p.nextToken()

	right := p.parseRightAssociative(tt, op, operand)
	if right == nil {
		return nil
	}

	return p.binary(op, left, right)
}

func (p *Parser) parseEquality() ast.Expression {
	return p.parseNonAssociative(equalityOps, p.parseRelation)
}

func (p *Parser) parseRelation() ast.Expression {
	return p.parseNonAssociative(relationalOps, p.parseAddition)
}

// parseNonAssociative parses `operand [ op operand ]`; a second operator of
// the same level is left for the caller to reject.
func (p *Parser) parseNonAssociative(ops map[lexer.TokenType]ast.Operator, operand func() ast.Expression) ast.Expression {
	left := operand()
	if left == nil {
		return nil
	}

	op, ok := ops[p.current.Type]
	if !ok {
		return left
	}
	p.nextToken()

	right := operand()
	if right == nil {
		return nil
	}

	return p.binary(op, left, right)
}

func (p *Parser) parseAddition() ast.Expression {
	return p.parseLeftAssociative(additiveOps, p.parseTerm)
}

func (p *Parser) parseTerm() ast.Expression {
	return p.parseLeftAssociative(multiplicativeOps, p.parseFactor)
}

func (p *Parser) parseLeftAssociative(ops map[lexer.TokenType]ast.Operator, operand func() ast.Expression) ast.Expression {
	left := operand()
	if left == nil {
		return nil
	}

	for {
		op, ok := ops[p.current.Type]
		if !ok {
			return left
		}
		p.nextToken()

		right := operand()
		if right == nil {
			return nil
		}
		left = p.binary(op, left, right)
	}
}

func (p *Parser) binary(op ast.Operator, left, right ast.Expression) ast.Expression {
	return &ast.Binary{
		Span:     left.GetSpan().Union(right.GetSpan()),
		Operator: op,
		Left:     left,
		Right:    right,
	}
}

// parseFactor parses prefix operators, `( Type ) Factor` casts and primaries.
func (p *Parser) parseFactor() ast.Expression {
	start := p.current.Span.Start

	var op ast.Operator
	switch {
	case p.currentTokenIs(lexer.TokenNot):
		op = ast.OpNot
	case p.currentTokenIs(lexer.TokenMinus):
		op = ast.OpNeg
	case p.currentTokenIs(lexer.TokenLParen) && p.peek.IsType():
		p.nextToken() // consume '('

		cast, ok := p.parseCastType()
		if !ok {
			return nil
		}
		if _, ok := p.expect(lexer.TokenRParen); !ok {
			return nil
		}

		operand := p.parseFactor()
		if operand == nil {
			return nil
		}

		return &ast.Unary{Span: p.spanFrom(start), Operator: cast, Operand: operand}
	default:
		return p.parsePrimary()
	}

	p.nextToken()

	operand := p.parseFactor()
	if operand == nil {
		return nil
	}

	return &ast.Unary{Span: p.spanFrom(start), Operator: op, Operand: operand}
}

func (p *Parser) parseCastType() (ast.Operator, bool) {
	op, ok := castOps[p.current.Type]
	if !ok {
		p.unexpected("expected int, float or char in a cast")
		return ast.OpInvalid, false
	}
	p.nextToken()

	return op, true
}

// parsePrimary parses identifiers, calls, literals, parenthesized
// expressions and `Type ( Expression )` casts.
func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current

	switch tok.Type {
	case lexer.TokenIdentifier:
		p.nextToken()
		if !p.currentTokenIs(lexer.TokenLParen) {
			return &ast.Variable{Span: tok.Span, Name: tok.Literal}
		}

		args, ok := p.parseArguments()
		if !ok {
			return nil
		}

		return &ast.CallExpression{Span: p.spanFrom(tok.Span.Start), Callee: tok.Literal, Args: args}
	case lexer.TokenInteger, lexer.TokenFloatLiteral, lexer.TokenCharLiteral, lexer.TokenTrue, lexer.TokenFalse:
		return p.parseLiteral()
	case lexer.TokenLParen:
		p.nextToken()

		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokenRParen); !ok {
			return nil
		}

		return expr
	case lexer.TokenInt, lexer.TokenFloat, lexer.TokenChar, lexer.TokenBool, lexer.TokenVoid:
		cast, ok := p.parseCastType()
		if !ok {
			return nil
		}

		operand := p.parseParenthesized()
		if operand == nil {
			return nil
		}

		return &ast.Unary{Span: p.spanFrom(tok.Span.Start), Operator: cast, Operand: operand}
	}

	p.unexpected("expected an expression")

	return nil
}

func (p *Parser) parseLiteral() ast.Expression {
	tok := p.current

	v, err := literalValue(tok)
	if err != nil {
		p.addError(tok.Span, CodeLiteralRange, err.Error())
		return nil
	}
	p.nextToken()

	return &ast.Literal{Span: tok.Span, Value: v}
}

func literalValue(tok lexer.Token) (value.Value, error) {
	switch tok.Type {
	case lexer.TokenInteger:
		i, err := strconv.ParseInt(tok.Literal, 10, 32)
		if err != nil {
			return value.Value{}, fmt.Errorf("integer literal %s does not fit in int", tok.Literal)
		}
		return value.Int(int32(i)), nil
	case lexer.TokenFloatLiteral:
		f, err := strconv.ParseFloat(tok.Literal, 32)
		if errors.Is(err, strconv.ErrRange) {
			return value.Value{}, fmt.Errorf("float literal %s does not fit in float", tok.Literal)
		}
		if err != nil {
			return value.Value{}, fmt.Errorf("malformed float literal %s", tok.Literal)
		}
		return value.Float(float32(f)), nil
	case lexer.TokenCharLiteral:
		r, _ := utf8.DecodeRuneInString(tok.Literal)
		if r > 0xFFFF {
			return value.Value{}, fmt.Errorf("char literal %U does not fit in char", r)
		}
		return value.Char(uint16(r)), nil
	case lexer.TokenTrue:
		return value.Bool(true), nil
	default:
		return value.Bool(false), nil
	}
}

// parseArguments parses `( [ Expression { , Expression } ] )`
func (p *Parser) parseArguments() ([]ast.Expression, bool) {
	if _, ok := p.expect(lexer.TokenLParen); !ok {
		return nil, false
	}

	var args []ast.Expression

	if p.currentTokenIs(lexer.TokenRParen) {
		p.nextToken()
		return args, true
	}

	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)

		if !p.currentTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}

	if _, ok := p.expect(lexer.TokenRParen); !ok {
		return nil, false
	}

	return args, true
}
