package lexer

import (
	"fmt"

	"github.com/cpplite-lang/cpplite/internal/position"
)

// TokenType represents the type of a token
type TokenType int

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Token types
const (
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdentifier
	TokenInteger
	TokenFloatLiteral
	TokenCharLiteral

	// Keywords
	TokenInt
	TokenBool
	TokenChar
	TokenFloat
	TokenVoid
	TokenIf
	TokenElse
	TokenWhile
	TokenReturn
	TokenPrint
	TokenTrue
	TokenFalse

	// Operators
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenMod
	TokenAssign
	TokenEq
	TokenNe
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenAnd
	TokenOr
	TokenNot

	// Punctuation
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenSemicolon
	TokenComma
)

// Token represents a lexical token with position information
type Token struct {
	Type    TokenType
	Literal string
	Span    position.Span
	// Err describes why an ILLEGAL token was rejected
	Err string
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Pos: %s}", t.Type, t.Literal, t.Span.Start)
}

// IsType reports whether the token starts a type name.
func (t Token) IsType() bool {
	switch t.Type {
	case TokenInt, TokenBool, TokenChar, TokenFloat, TokenVoid:
		return true
	}
	return false
}

var tokenNames = map[TokenType]string{
	TokenEOF:     "EOF",
	TokenIllegal: "ILLEGAL",

	TokenIdentifier:   "IDENTIFIER",
	TokenInteger:      "INTEGER",
	TokenFloatLiteral: "FLOAT_LITERAL",
	TokenCharLiteral:  "CHAR_LITERAL",

	TokenInt:    "INT",
	TokenBool:   "BOOL",
	TokenChar:   "CHAR",
	TokenFloat:  "FLOAT",
	TokenVoid:   "VOID",
	TokenIf:     "IF",
	TokenElse:   "ELSE",
	TokenWhile:  "WHILE",
	TokenReturn: "RETURN",
	TokenPrint:  "PRINT",
	TokenTrue:   "TRUE",
	TokenFalse:  "FALSE",

	TokenPlus:   "PLUS",
	TokenMinus:  "MINUS",
	TokenMul:    "MUL",
	TokenDiv:    "DIV",
	TokenMod:    "MOD",
	TokenAssign: "ASSIGN",
	TokenEq:     "EQ",
	TokenNe:     "NE",
	TokenLt:     "LT",
	TokenLe:     "LE",
	TokenGt:     "GT",
	TokenGe:     "GE",
	TokenAnd:    "AND",
	TokenOr:     "OR",
	TokenNot:    "NOT",

	TokenLParen:    "LPAREN",
	TokenRParen:    "RPAREN",
	TokenLBrace:    "LBRACE",
	TokenRBrace:    "RBRACE",
	TokenSemicolon: "SEMICOLON",
	TokenComma:     "COMMA",
}

// keywords maps string keywords to their token types
var keywords = map[string]TokenType{
	"int":    TokenInt,
	"bool":   TokenBool,
	"char":   TokenChar,
	"float":  TokenFloat,
	"void":   TokenVoid,
	"if":     TokenIf,
	"else":   TokenElse,
	"while":  TokenWhile,
	"return": TokenReturn,
	"print":  TokenPrint,
	"true":   TokenTrue,
	"false":  TokenFalse,
}

func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdentifier
}
