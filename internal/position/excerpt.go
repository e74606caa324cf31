package position

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Excerpt renders the source lines covered by span with a caret underline,
// plus up to context lines before it.
func (sf *SourceFile) Excerpt(span Span, context int) string {
	if !span.IsValid() {
		return ""
	}

	var b strings.Builder

	first := max(1, span.Start.Line-context)
	for lineNum := first; lineNum <= span.Start.Line; lineNum++ {
		fmt.Fprintf(&b, "%4d | %s\n", lineNum, sf.Line(lineNum))
	}

	line := sf.Line(span.Start.Line)
	endCol := span.End.Column
	if span.End.Line != span.Start.Line {
		endCol = utf8.RuneCountInString(line) + 1
	}

	width := max(1, endCol-span.Start.Column)

	b.WriteString("     | ")
	b.WriteString(strings.Repeat(" ", max(0, span.Start.Column-1)))
	b.WriteString(strings.Repeat("^", width))
	b.WriteString("\n")

	return b.String()
}
