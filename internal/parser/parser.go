// Package parser implements the C++Lite recursive descent parser.
package parser

import (
	"fmt"

	"github.com/cpplite-lang/cpplite/internal/ast"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/lexer"
	"github.com/cpplite-lang/cpplite/internal/position"
)

// Syntax error codes.
const (
	CodeUnexpectedToken = "UNEXPECTED_TOKEN"
	CodeIllegalToken    = "ILLEGAL_TOKEN"
	CodeLiteralRange    = "LITERAL_OUT_OF_RANGE"
)

// SyntaxError represents a parse failure at a source location.
type SyntaxError struct {
	Span    position.Span
	Message string
	code    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Span, e.Message)
}

func (e *SyntaxError) Category() cperrors.Category { return cperrors.CategorySyntax }
func (e *SyntaxError) Code() string                { return e.code }

// Parser represents the recursive descent parser. current is the next
// unconsumed token and peek the one after it.
type Parser struct {
	lexer   *lexer.Lexer
	current lexer.Token
	peek    lexer.Token
	lastEnd position.Position
	errors  []error

	// function is the name of the function whose body is being parsed
	function string
}

// NewParser creates a new parser instance
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{lexer: l}

	// Read the first two tokens
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses the input and returns the program and every error found.
func (p *Parser) Parse() (*ast.Program, []error) {
	program := p.parseProgram()
	return program, p.errors
}

// ParseSource parses src and returns the first syntax error, if any.
func ParseSource(filename, src string) (*ast.Program, error) {
	program, errs := NewParser(lexer.NewWithFilename(src, filename)).Parse()
	if len(errs) > 0 {
		return nil, errs[0]
	}

	return program, nil
}

// nextToken advances the parser to the next token
func (p *Parser) nextToken() {
	if p.current.Span.End.IsValid() {
		p.lastEnd = p.current.Span.End
	}
	p.current = p.peek
	p.peek = p.lexer.NextToken()
}

// currentTokenIs checks if the current token is of the given type
func (p *Parser) currentTokenIs(tokenType lexer.TokenType) bool {
	return p.current.Type == tokenType
}

// peekTokenIs checks if the peek token is of the given type
func (p *Parser) peekTokenIs(tokenType lexer.TokenType) bool {
	return p.peek.Type == tokenType
}

// expect consumes the current token if it has the given type and records
// an error otherwise.
func (p *Parser) expect(tokenType lexer.TokenType) (lexer.Token, bool) {
	tok := p.current
	if tok.Type != tokenType {
		p.unexpected(fmt.Sprintf("expected %s", describe(tokenType)))
		return tok, false
	}
	p.nextToken()
	return tok, true
}

// unexpected records an error for the current token.
func (p *Parser) unexpected(want string) {
	tok := p.current
	if tok.Type == lexer.TokenIllegal {
		p.addError(tok.Span, CodeIllegalToken, fmt.Sprintf("%s %q", tok.Err, tok.Literal))
		return
	}
	p.addError(tok.Span, CodeUnexpectedToken, fmt.Sprintf("%s, found %s", want, quote(tok)))
}

// addError adds an error to the parser's error list
func (p *Parser) addError(span position.Span, code, message string) {
	p.errors = append(p.errors, &SyntaxError{Span: span, Message: message, code: code})
}

// spanFrom returns the span from start to the end of the last consumed token.
func (p *Parser) spanFrom(start position.Position) position.Span {
	return position.Span{Start: start, End: p.lastEnd}
}

// skipTo skips tokens until one of the given types is found
func (p *Parser) skipTo(tokenTypes ...lexer.TokenType) {
	for !p.currentTokenIs(lexer.TokenEOF) {
		for _, tokenType := range tokenTypes {
			if p.currentTokenIs(tokenType) {
				return
			}
		}
		p.nextToken()
	}
}

// synchronize skips past the rest of a broken statement.
func (p *Parser) synchronize() {
	p.skipTo(lexer.TokenSemicolon, lexer.TokenRBrace)
	if p.currentTokenIs(lexer.TokenSemicolon) {
		p.nextToken()
	}
}

var tokenText = map[lexer.TokenType]string{
	lexer.TokenEOF:        "end of file",
	lexer.TokenIdentifier: "identifier",
	lexer.TokenSemicolon:  "';'",
	lexer.TokenComma:      "','",
	lexer.TokenLParen:     "'('",
	lexer.TokenRParen:     "')'",
	lexer.TokenLBrace:     "'{'",
	lexer.TokenRBrace:     "'}'",
	lexer.TokenAssign:     "'='",
}

func describe(tt lexer.TokenType) string {
	if s, ok := tokenText[tt]; ok {
		return s
	}
	return tt.String()
}

func quote(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenEOF:
		return "end of file"
	case lexer.TokenCharLiteral:
		return fmt.Sprintf("%q", tok.Literal)
	}
	return "'" + tok.Literal + "'"
}
