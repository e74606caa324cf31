// Package position locates C++Lite source text. The lexer stamps a Position
// on every token, the parser widens them into Spans on AST nodes, and
// diagnostics turn a Span back into a file excerpt.
package position

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Position is one point of a program. Line and Column count from 1,
// Offset counts bytes from 0.
type Position struct {
	Filename string
	Line     int
	Column   int
	Offset   int
}

// IsValid reports whether the lexer could have produced p. The zero
// Position is not valid.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// String renders file:line:col with only the base name of the file, or
// line:col for anonymous input.
func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
}

// before orders positions by file, then by offset.
func (p Position) before(q Position) bool {
	if p.Filename != q.Filename {
		return p.Filename < q.Filename
	}
	return p.Offset < q.Offset
}

// Span covers the text from Start up to, not including, End.
type Span struct {
	Start Position
	End   Position
}

// IsValid reports whether both ends are valid, in the same file and in
// order. Synthesized nodes carry the zero Span.
func (s Span) IsValid() bool {
	if !s.Start.IsValid() || !s.End.IsValid() {
		return false
	}
	return s.Start.Filename == s.End.Filename && s.Start.Offset <= s.End.Offset
}

// String names where the span starts; messages never print the end.
func (s Span) String() string {
	if s.IsValid() {
		return s.Start.String()
	}
	return "<unknown>"
}

// Union is the smallest span covering s and other. An invalid operand is
// ignored, so folding over binary operands needs no special first case.
func (s Span) Union(other Span) Span {
	switch {
	case !s.IsValid():
		return other
	case !other.IsValid():
		return s
	}

	u := s
	if other.Start.before(u.Start) {
		u.Start = other.Start
	}
	if u.End.before(other.End) {
		u.End = other.End
	}
	return u
}

// SourceFile keeps a program's text split into lines for excerpts.
type SourceFile struct {
	Filename string
	lines    []string
}

// NewSourceFile splits content on newlines.
func NewSourceFile(filename, content string) *SourceFile {
	return &SourceFile{Filename: filename, lines: strings.Split(content, "\n")}
}

// Line returns line n without its line ending, or "" past either end of
// the file.
func (sf *SourceFile) Line(n int) string {
	if n < 1 || n > len(sf.lines) {
		return ""
	}
	return strings.TrimSuffix(sf.lines[n-1], "\r")
}
