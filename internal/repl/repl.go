// Package repl implements the interactive cpplite session: lines accumulate
// into a program buffer that can be checked and run on demand.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/cpplite-lang/cpplite/internal/cli"
	"github.com/cpplite-lang/cpplite/internal/diagnostic"
	"github.com/cpplite-lang/cpplite/internal/driver"
)

const (
	promptMain = "cpplite> "
	promptCont = "     ... "
	bufferName = "<repl>"
)

// Session is the state of one interactive session.
type Session struct {
	out    io.Writer
	driver *driver.Driver
	color  bool
	lines  []string
}

// NewSession creates a session that prints to out.
func NewSession(out io.Writer, d *driver.Driver, color bool) *Session {
	return &Session{out: out, driver: d, color: color}
}

// Source returns the accumulated program text.
func (s *Session) Source() string {
	if len(s.lines) == 0 {
		return ""
	}
	return strings.Join(s.lines, "\n") + "\n"
}

// Handle processes one input line and reports whether the session should
// end.
func (s *Session) Handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		if trimmed != "" {
			s.lines = append(s.lines, line)
		}
		return false
	}

	parts := strings.Fields(trimmed)
	switch parts[0] {
	case ":help", ":h":
		s.printHelp()
	case ":quit", ":q", ":exit":
		return true
	case ":reset":
		s.lines = nil
		fmt.Fprintln(s.out, "buffer cleared")
	case ":show":
		s.show()
	case ":undo":
		if len(s.lines) > 0 {
			s.lines = s.lines[:len(s.lines)-1]
		}
	case ":load":
		if len(parts) < 2 {
			fmt.Fprintln(s.out, "Usage: :load <file>")
			break
		}
		s.load(parts[1])
	case ":check":
		if _, err := s.driver.Check(s.source()); err != nil {
			s.report(err)
			break
		}
		fmt.Fprintln(s.out, "ok")
	case ":run":
		s.run(ctx)
	default:
		fmt.Fprintf(s.out, "Unknown command: %s\n", parts[0])
		fmt.Fprintln(s.out, "Type :help for available commands")
	}

	return false
}

func (s *Session) source() driver.Source {
	return driver.Source{Filename: bufferName, Content: s.Source()}
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.out, "REPL Commands:")
	fmt.Fprintln(s.out, "  :run               Run the buffered program")
	fmt.Fprintln(s.out, "  :check             Validate the buffered program")
	fmt.Fprintln(s.out, "  :show              Print the buffer with line numbers")
	fmt.Fprintln(s.out, "  :undo              Drop the last buffered line")
	fmt.Fprintln(s.out, "  :reset             Clear the buffer")
	fmt.Fprintln(s.out, "  :load <file>       Append a file to the buffer")
	fmt.Fprintln(s.out, "  :quit, :q          Exit")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Any other line is appended to the program buffer.")
}

func (s *Session) show() {
	if len(s.lines) == 0 {
		fmt.Fprintln(s.out, "buffer is empty")
		return
	}
	for i, l := range s.lines {
		fmt.Fprintf(s.out, "%4d | %s\n", i+1, l)
	}
}

func (s *Session) load(path string) {
	src, err := driver.ReadSource(path)
	if err != nil {
		s.report(err)
		return
	}
	added := strings.Split(strings.TrimRight(src.Content, "\n"), "\n")
	s.lines = append(s.lines, added...)
	fmt.Fprintf(s.out, "loaded %d line(s) from %s\n", len(added), path)
}

func (s *Session) run(ctx context.Context) {
	res, err := s.driver.Run(ctx, s.source())
	if res != nil && res.Output != "" {
		fmt.Fprintln(s.out, res.Output)
	}
	if err != nil {
		s.report(err)
		return
	}
	for _, b := range res.Bindings() {
		fmt.Fprintf(s.out, "%s %s = %s\n", b.Type, b.Name, b.Value)
	}
}

func (s *Session) report(err error) {
	r := diagnostic.NewRenderer(s.color)
	r.AddSource(bufferName, s.Source())
	fmt.Fprint(s.out, r.Format(diagnostic.FromError(err)))
}

// LineReader reads prompted lines; *liner.State implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Loop feeds lines from r into s until :quit or end of input. Lines inside
// an unclosed brace continue with a secondary prompt.
func Loop(ctx context.Context, s *Session, r LineReader) error {
	depth := 0
	for {
		prompt := promptMain
		if depth > 0 {
			prompt = promptCont
		}

		line, err := r.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		if strings.TrimSpace(line) != "" {
			r.AppendHistory(line)
		}
		if depth == 0 && s.Handle(ctx, line) {
			return nil
		}
		if depth > 0 {
			s.lines = append(s.lines, line)
		}
		depth = max(0, depth+strings.Count(line, "{")-strings.Count(line, "}"))
	}
}

// Interactive runs a terminal session with line editing and persistent
// history stored at historyPath.
func Interactive(ctx context.Context, s *Session, historyPath string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(historyPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	info := cli.GetVersionInfo()
	fmt.Fprintf(s.out, "cpplite REPL v%s\n", info.Version)
	fmt.Fprintln(s.out, "Type :help for help, :quit to exit")

	return Loop(ctx, s, ln)
}
