// Package lexer implements the C++Lite lexical analyzer.
package lexer

import (
	"unicode/utf8"

	"github.com/cpplite-lang/cpplite/internal/position"
)

// Lexer turns C++Lite source text into tokens. Whitespace and comments are
// skipped; malformed input yields ILLEGAL tokens rather than failing.
type Lexer struct {
	input        string
	filename     string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // line of ch, 1-based
	column       int  // column of ch, 1-based
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "")
}

// NewWithFilename creates a new lexer whose token spans carry filename
func NewWithFilename(input, filename string) *Lexer {
	l := &Lexer{
		input:    input,
		filename: filename,
		line:     1,
	}
	l.readChar()
	return l
}

// Tokenize scans the whole input, including the trailing EOF token.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	if l.readPosition <= len(l.input) {
		l.readPosition++
	}
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) getCurrentPosition() position.Position {
	return position.Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   l.column,
		Offset:   l.position,
	}
}

// skipWhitespaceAndComments skips blanks and comments. An unterminated block
// comment is reported as an ILLEGAL token.
func (l *Lexer) skipWhitespaceAndComments() (Token, bool) {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			start := l.getCurrentPosition()
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.atEOF() {
					return l.illegal(start, "/*", "unterminated block comment"), true
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return Token{}, false
		}
	}
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	if tok, bad := l.skipWhitespaceAndComments(); bad {
		return tok
	}

	start := l.getCurrentPosition()

	if l.atEOF() {
		return Token{Type: TokenEOF, Span: position.Span{Start: start, End: start}}
	}

	switch l.ch {
	case '+':
		return l.single(TokenPlus, start)
	case '-':
		return l.single(TokenMinus, start)
	case '*':
		return l.single(TokenMul, start)
	case '/':
		return l.single(TokenDiv, start)
	case '%':
		return l.single(TokenMod, start)
	case '(':
		return l.single(TokenLParen, start)
	case ')':
		return l.single(TokenRParen, start)
	case '{':
		return l.single(TokenLBrace, start)
	case '}':
		return l.single(TokenRBrace, start)
	case ';':
		return l.single(TokenSemicolon, start)
	case ',':
		return l.single(TokenComma, start)
	case '=':
		return l.either('=', TokenEq, TokenAssign, start)
	case '!':
		return l.either('=', TokenNe, TokenNot, start)
	case '<':
		return l.either('=', TokenLe, TokenLt, start)
	case '>':
		return l.either('=', TokenGe, TokenGt, start)
	case '&':
		if l.peekChar() == '&' {
			return l.pair(TokenAnd, start)
		}
		l.readChar()
		return l.illegal(start, "&", "expected '&&'")
	case '|':
		if l.peekChar() == '|' {
			return l.pair(TokenOr, start)
		}
		l.readChar()
		return l.illegal(start, "|", "expected '||'")
	case '\'':
		return l.readCharLiteral(start)
	}

	switch {
	case isLetter(l.ch) || l.ch == '_':
		ident := l.readIdentifier()
		return l.finish(lookupIdent(ident), ident, start)
	case isDigit(l.ch):
		return l.readNumber(start)
	}

	r, size := utf8.DecodeRuneInString(l.input[l.position:])
	for i := 0; i < size; i++ {
		l.readChar()
	}
	return l.illegal(start, string(r), "unexpected character")
}

func (l *Lexer) single(tt TokenType, start position.Position) Token {
	lit := string(l.ch)
	l.readChar()
	return l.finish(tt, lit, start)
}

func (l *Lexer) pair(tt TokenType, start position.Position) Token {
	lit := l.input[l.position : l.position+2]
	l.readChar()
	l.readChar()
	return l.finish(tt, lit, start)
}

// either scans a two-character operator when the next char is next, and the
// one-character operator otherwise.
func (l *Lexer) either(next byte, two, one TokenType, start position.Position) Token {
	if l.peekChar() == next {
		return l.pair(two, start)
	}
	return l.single(one, start)
}

func (l *Lexer) finish(tt TokenType, literal string, start position.Position) Token {
	return Token{
		Type:    tt,
		Literal: literal,
		Span:    position.Span{Start: start, End: l.getCurrentPosition()},
	}
}

func (l *Lexer) illegal(start position.Position, literal, msg string) Token {
	tok := l.finish(TokenIllegal, literal, start)
	tok.Err = msg
	return tok
}

func (l *Lexer) readIdentifier() string {
	pos := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[pos:l.position]
}

// readNumber scans an integer or a float literal. A float needs digits on
// both sides of the point; trailing identifier characters make the whole
// run illegal.
func (l *Lexer) readNumber(start position.Position) Token {
	pos := l.position
	tt := TokenInteger

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		tt = TokenFloatLiteral
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if isLetter(l.ch) || l.ch == '_' || l.ch == '.' {
		for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '.' {
			l.readChar()
		}
		return l.illegal(start, l.input[pos:l.position], "malformed number")
	}

	return l.finish(tt, l.input[pos:l.position], start)
}

// readCharLiteral scans 'c'. The token literal is the decoded character.
func (l *Lexer) readCharLiteral(start position.Position) Token {
	pos := l.position
	l.readChar() // opening quote

	var r rune
	switch {
	case l.atEOF() || l.ch == '\n':
		return l.illegal(start, l.input[pos:l.position], "unterminated char literal")
	case l.ch == '\'':
		l.readChar()
		return l.illegal(start, "''", "empty char literal")
	case l.ch == '\\':
		l.readChar()
		esc, ok := escapes[l.ch]
		if !ok {
			if !l.atEOF() {
				l.readChar()
			}
			return l.illegal(start, l.input[pos:l.position], "unknown escape sequence")
		}
		r = esc
		l.readChar()
	default:
		var size int
		r, size = utf8.DecodeRuneInString(l.input[l.position:])
		for i := 0; i < size; i++ {
			l.readChar()
		}
		if r == utf8.RuneError {
			return l.illegal(start, l.input[pos:l.position], "malformed char literal")
		}
	}

	if l.ch != '\'' {
		return l.illegal(start, l.input[pos:l.position], "unterminated char literal")
	}
	l.readChar()

	return l.finish(TokenCharLiteral, string(r), start)
}

var escapes = map[byte]rune{
	'n':  '\n',
	't':  '\t',
	'\\': '\\',
	'\'': '\'',
	'0':  0,
}

// isLetter checks if character is ASCII letter
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

// isDigit checks if character is ASCII digit
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
