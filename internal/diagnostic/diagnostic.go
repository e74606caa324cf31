// Diagnostic reporting for the cpplite tools.
// Turns pipeline errors into located messages with source excerpts.

package diagnostic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/parser"
	"github.com/cpplite-lang/cpplite/internal/position"
	"github.com/cpplite-lang/cpplite/internal/runtime"
	"github.com/cpplite-lang/cpplite/internal/transform"
	"github.com/cpplite-lang/cpplite/internal/typechecker"
)

// DiagnosticLevel represents the severity level of a diagnostic message.
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code     string
	Title    string
	Message  string
	Span     position.Span
	Level    DiagnosticLevel
	Category cperrors.Category
}

// DiagnosticBuilder helps construct diagnostic messages with fluent API.
type DiagnosticBuilder struct {
	diagnostic *Diagnostic
}

// NewDiagnostic creates a new diagnostic builder.
func NewDiagnostic() *DiagnosticBuilder {
	return &DiagnosticBuilder{diagnostic: &Diagnostic{}}
}

func (db *DiagnosticBuilder) Error() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticError

	return db
}

func (db *DiagnosticBuilder) Warning() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticWarning

	return db
}

func (db *DiagnosticBuilder) Category(c cperrors.Category) *DiagnosticBuilder {
	db.diagnostic.Category = c

	return db
}

func (db *DiagnosticBuilder) Code(code string) *DiagnosticBuilder {
	db.diagnostic.Code = code

	return db
}

func (db *DiagnosticBuilder) Title(title string) *DiagnosticBuilder {
	db.diagnostic.Title = title

	return db
}

func (db *DiagnosticBuilder) Message(message string) *DiagnosticBuilder {
	db.diagnostic.Message = message

	return db
}

func (db *DiagnosticBuilder) Span(span position.Span) *DiagnosticBuilder {
	db.diagnostic.Span = span

	return db
}

func (db *DiagnosticBuilder) Build() *Diagnostic {
	return db.diagnostic
}

// titles names each category in the diagnostic header.
var titles = map[cperrors.Category]string{
	cperrors.CategorySyntax:     "syntax error",
	cperrors.CategoryValidation: "invalid program",
	cperrors.CategoryTransform:  "internal error",
	cperrors.CategoryLookup:     "internal error",
	cperrors.CategoryRuntime:    "runtime error",
	cperrors.CategorySystem:     "system error",
}

// FromError builds the diagnostic for err, locating it when the error
// carries a source span.
func FromError(err error) *Diagnostic {
	category, code := cperrors.Classify(err)
	span, message := locate(err)

	return NewDiagnostic().
		Error().
		Category(category).
		Code(code).
		Title(titles[category]).
		Message(message).
		Span(span).
		Build()
}

// FromWarning builds the diagnostic for a lint finding.
func FromWarning(w typechecker.Warning) *Diagnostic {
	return NewDiagnostic().
		Warning().
		Category(cperrors.CategoryValidation).
		Code(w.Code).
		Title("suspicious program").
		Message(w.Message).
		Span(w.Span).
		Build()
}

// locate extracts the span and the bare message of the pipeline error kinds.
func locate(err error) (position.Span, string) {
	var (
		se *parser.SyntaxError
		ve *typechecker.ValidationError
		te *transform.TransformError
		le *runtime.LookupError
		ue *runtime.UndefinedValueError
		de *runtime.DivisionByZeroError
		oe *runtime.OperatorError
		ce *runtime.CallDepthError
		me *runtime.OutputLimitError
	)

	switch {
	case errors.As(err, &se):
		return se.Span, se.Message
	case errors.As(err, &ve):
		return ve.Span, ve.Message
	case errors.As(err, &te):
		return te.Span, te.Message
	case errors.As(err, &le):
		return le.Span, fmt.Sprintf("no %s named %s", le.Kind, le.Name)
	case errors.As(err, &ue):
		return ue.Span, ue.Expr + " has no value"
	case errors.As(err, &de):
		return de.Span, fmt.Sprintf("division by zero in %s", de.Operator)
	case errors.As(err, &oe):
		return oe.Span, fmt.Sprintf("%s: %s", oe.Operator, oe.Message)
	case errors.As(err, &ce):
		return ce.Span, fmt.Sprintf("call depth exceeds %d (%s)", ce.Limit, strings.Join(ce.Trace[:min(len(ce.Trace), 3)], " <- "))
	case errors.As(err, &me):
		return me.Span, fmt.Sprintf("output exceeds %d bytes", me.Limit)
	}

	return position.Span{}, err.Error()
}

// Renderer formats diagnostics, optionally with terminal colors and an
// excerpt of the offending source.
type Renderer struct {
	Color   bool
	Context int
	sources map[string]*position.SourceFile
}

// NewRenderer creates a renderer with one line of leading context.
func NewRenderer(color bool) *Renderer {
	return &Renderer{Color: color, Context: 1, sources: make(map[string]*position.SourceFile)}
}

// AddSource registers the text of a file so its diagnostics get excerpts.
func (r *Renderer) AddSource(filename, content string) {
	r.sources[filename] = position.NewSourceFile(filename, content)
}

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
)

// colorizeLevel adds color codes for terminal display
func colorizeLevel(level DiagnosticLevel) string {
	switch level {
	case DiagnosticError:
		return "\033[31m" // Red
	case DiagnosticWarning:
		return "\033[33m" // Yellow
	default:
		return "\033[34m" // Blue
	}
}

// Format renders one diagnostic:
//
//	prog.cpl:3:5: error[TYPE_MISMATCH]: invalid program
//	  cannot assign float to int variable x
//	   2 | int main() {
//	   3 |     x = 1.5;
//	     |     ^^^^^^^^
func (r *Renderer) Format(d *Diagnostic) string {
	var b strings.Builder

	if d.Span.IsValid() {
		b.WriteString(d.Span.Start.String())
		b.WriteString(": ")
	}

	level := d.Level.String()
	if r.Color {
		level = colorBold + colorizeLevel(d.Level) + level + colorReset
	}
	fmt.Fprintf(&b, "%s[%s]: %s\n", level, d.Code, d.Title)

	if d.Message != "" {
		fmt.Fprintf(&b, "  %s\n", d.Message)
	}

	if src, ok := r.sources[d.Span.Start.Filename]; ok && d.Span.IsValid() {
		excerpt := src.Excerpt(d.Span, r.Context)
		if r.Color {
			excerpt = strings.ReplaceAll(excerpt, "^", colorizeLevel(d.Level)+"^"+colorReset)
			excerpt = strings.ReplaceAll(excerpt, colorReset+colorizeLevel(d.Level), "")
		}
		b.WriteString(excerpt)
	}

	return b.String()
}

// Engine collects the diagnostics of one tool invocation.
type Engine struct {
	diagnostics []Diagnostic
}

// Add appends a diagnostic.
func (e *Engine) Add(d *Diagnostic) {
	e.diagnostics = append(e.diagnostics, *d)
}

// AddError appends the diagnostic for err.
func (e *Engine) AddError(err error) {
	e.Add(FromError(err))
}

// AddWarnings appends one diagnostic per lint finding.
func (e *Engine) AddWarnings(ws []typechecker.Warning) {
	for _, w := range ws {
		e.Add(FromWarning(w))
	}
}

// Diagnostics returns the diagnostics sorted by position.
func (e *Engine) Diagnostics() []Diagnostic {
	sort.SliceStable(e.diagnostics, func(i, j int) bool {
		a, b := e.diagnostics[i].Span.Start, e.diagnostics[j].Span.Start
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return e.diagnostics
}

// HasErrors returns true if there are any errors.
func (e *Engine) HasErrors() bool {
	for _, d := range e.diagnostics {
		if d.Level == DiagnosticError {
			return true
		}
	}
	return false
}

// Render formats every diagnostic followed by a summary line.
func (e *Engine) Render(r *Renderer) string {
	diags := e.Diagnostics()
	if len(diags) == 0 {
		return ""
	}

	var b strings.Builder
	errs := 0
	for i := range diags {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Format(&diags[i]))
		if diags[i].Level == DiagnosticError {
			errs++
		}
	}
	if warns := len(diags) - errs; warns > 0 {
		fmt.Fprintf(&b, "\nfound %d error(s), %d warning(s)\n", errs, warns)
	} else {
		fmt.Fprintf(&b, "\nfound %d error(s)\n", errs)
	}

	return b.String()
}
