// Package main is the cpplite command: it runs, checks and serves C++Lite
// programs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cpplite-lang/cpplite/internal/cli"
	"github.com/cpplite-lang/cpplite/internal/config"
	"github.com/cpplite-lang/cpplite/internal/diagnostic"
	"github.com/cpplite-lang/cpplite/internal/driver"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/term"
)

const tool = "cpplite"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp(os.Stdout, os.Stderr).main(ctx, os.Args[1:])
	stop()
	cli.ExitWithCode(code, "")
}

// app carries the output streams so commands can be tested in-process.
type app struct {
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

var commands = []cli.CommandInfo{
	{
		Name:        "run",
		Usage:       "cpplite run [options] <file.cpl>",
		Description: "Validate, transform and evaluate a program",
		Flags: []cli.FlagInfo{
			{Name: "watch", Short: "w", Usage: "Re-run whenever the file changes"},
			{Name: "timeout", Usage: "Stop evaluation after a duration", Default: "0s (none)"},
			{Name: "globals", Short: "g", Usage: "Print the final global store"},
			{Name: "max-depth", Usage: "Limit the call stack depth", Default: "0 (none)"},
			{Name: "max-output", Usage: "Stop after printing this many bytes", Default: "0 (none)"},
		},
		Examples: []string{"cpplite run prog.cpl", "cpplite run --globals --timeout 2s prog.cpl"},
	},
	{
		Name:        "check",
		Usage:       "cpplite check <file.cpl>...",
		Description: "Parse, validate and transform programs without running them",
		Examples:    []string{"cpplite check examples/*.cpl"},
	},
	{
		Name:        "ast",
		Usage:       "cpplite ast [--typed] <file.cpl>",
		Description: "Print the syntax tree of a program",
		Flags:       []cli.FlagInfo{{Name: "typed", Usage: "Print the tree after operator tagging"}},
	},
	{
		Name:        "repl",
		Usage:       "cpplite repl",
		Description: "Start an interactive session",
	},
	{
		Name:        "serve",
		Usage:       "cpplite serve [--addr host:port] [--tls-cert file --tls-key file]",
		Description: "Serve the pipeline over HTTP/3",
		Flags: []cli.FlagInfo{
			{Name: "addr", Usage: "UDP address to listen on", Default: "127.0.0.1:9443"},
			{Name: "tls-cert", Usage: "PEM certificate (self-signed when empty)"},
			{Name: "tls-key", Usage: "PEM private key"},
			{Name: "max-depth", Usage: "Limit the call stack depth per request", Default: "10000"},
			{Name: "timeout", Usage: "Longest evaluation allowed per request", Default: "10s"},
			{Name: "max-output", Usage: "Most output bytes allowed per request", Default: "1048576"},
		},
	},
	{
		Name:        "remote",
		Usage:       "cpplite remote [--addr host:port] [--check] <file.cpl>",
		Description: "Send a program to a running server",
		Flags: []cli.FlagInfo{
			{Name: "addr", Usage: "Server address", Default: "127.0.0.1:9443"},
			{Name: "check", Usage: "Only check the program"},
			{Name: "insecure", Usage: "Accept self-signed server certificates"},
			{Name: "timeout", Usage: "Evaluation timeout sent with the request"},
		},
	},
	{
		Name:        "version",
		Usage:       "cpplite version [--json]",
		Description: "Print version information",
	},
	{
		Name:        "help",
		Usage:       "cpplite help [command]",
		Description: "Show help for a command",
	},
}

func (a *app) main(ctx context.Context, args []string) int {
	if len(args) == 0 {
		cli.PrintUsage(a.stderr, tool, commands)
		return cperrors.ExitSyntax
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "help", "-h", "--help":
		return a.help(rest)
	case "version", "--version":
		return a.version(rest)
	case "run":
		return a.run(ctx, rest)
	case "check":
		return a.check(ctx, rest)
	case "ast":
		return a.ast(rest)
	case "repl":
		return a.repl(ctx, rest)
	case "serve":
		return a.serve(ctx, rest)
	case "remote":
		return a.remote(ctx, rest)
	default:
		fmt.Fprintf(a.stderr, "unknown command: %s\n\n", sub)
		cli.PrintUsage(a.stderr, tool, commands)
		return cperrors.ExitSyntax
	}
}

func (a *app) help(args []string) int {
	if len(args) == 0 {
		cli.PrintUsage(a.stdout, tool, commands)
		return cperrors.ExitOK
	}
	cmd, ok := cli.FindCommand(commands, args[0])
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command: %s\n", args[0])
		return cperrors.ExitSyntax
	}
	cli.PrintCommandUsage(a.stdout, tool, cmd)
	return cperrors.ExitOK
}

func (a *app) version(args []string) int {
	fs := a.flagSet("version")
	jsonOut := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return cperrors.ExitSyntax
	}
	if err := cli.PrintVersion(a.stdout, tool, *jsonOut); err != nil {
		return cperrors.ExitSystem
	}
	return cperrors.ExitOK
}

// env is what every pipeline command derives from flags and the config file.
type env struct {
	cfg    *config.Config
	logger *cli.Logger
	color  bool
}

// common registers the flags shared by the pipeline commands.
type common struct {
	config  string
	verbose bool
	debug   bool
	color   string
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "cpplite.yaml", "project configuration file")
	fs.BoolVar(&c.verbose, "verbose", false, "log pipeline progress")
	fs.BoolVar(&c.verbose, "v", false, "log pipeline progress (shorthand)")
	fs.BoolVar(&c.debug, "debug", false, "log every pipeline stage")
	fs.StringVar(&c.color, "color", "", "diagnostic colors: auto, always or never")
}

// setup loads the configuration and applies the common flags over it.
func (a *app) setup(c *common) (*env, error) {
	cfg, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckVersion(cli.Version); err != nil {
		return nil, err
	}

	mode := cfg.ColorMode()
	if c.color != "" {
		if mode, err = term.ParseColorMode(c.color); err != nil {
			return nil, cperrors.InvalidConfig("color", err.Error())
		}
	}

	logger := cli.NewLoggerTo(a.stderr, c.verbose || cfg.Log.Verbose, c.debug || cfg.Log.Debug)
	if cfg.Path != "" {
		logger.Debug("loaded %s", cfg.Path)
	}

	f, _ := a.stderr.(*os.File)
	return &env{cfg: cfg, logger: logger, color: term.UseColor(mode, f)}, nil
}

// report renders err as a diagnostic on stderr and returns its exit code.
func (a *app) report(e *env, src driver.Source, err error) int {
	color := e != nil && e.color
	r := diagnostic.NewRenderer(color)
	if src.Filename != "" {
		r.AddSource(src.Filename, src.Content)
	}
	fmt.Fprint(a.stderr, r.Format(diagnostic.FromError(err)))

	var se *cperrors.StandardError
	if e != nil && errors.As(err, &se) {
		e.logger.Debug("%s raised by %s %v", se.Code(), se.Caller, se.Context)
	}
	return cperrors.ExitCodeFor(err)
}

// explicit returns the names of the flags set on the command line.
func explicit(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// oneFile checks that exactly one file argument remains.
func (a *app) oneFile(fs *flag.FlagSet, name string) (string, bool) {
	if fs.NArg() != 1 {
		cmd, _ := cli.FindCommand(commands, name)
		fmt.Fprintf(a.stderr, "Usage: %s\n", cmd.Usage)
		return "", false
	}
	return fs.Arg(0), true
}
