package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cpplite-lang/cpplite/internal/driver"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/watch"
)

// watchQuiet coalesces the burst of events an editor save produces.
const watchQuiet = 100 * time.Millisecond

func (a *app) run(ctx context.Context, args []string) int {
	var c common
	fs := a.flagSet("run")
	c.register(fs)
	watchMode := fs.Bool("watch", false, "re-run whenever the file changes")
	fs.BoolVar(watchMode, "w", false, "re-run whenever the file changes (shorthand)")
	timeout := fs.Duration("timeout", 0, "stop evaluation after a duration")
	globals := fs.Bool("globals", false, "print the final global store")
	fs.BoolVar(globals, "g", false, "print the final global store (shorthand)")
	maxDepth := fs.Int("max-depth", 0, "limit the call stack depth")
	maxOutput := fs.Int64("max-output", 0, "stop after printing this many bytes")
	if err := fs.Parse(args); err != nil {
		return cperrors.ExitSyntax
	}
	path, ok := a.oneFile(fs, "run")
	if !ok {
		return cperrors.ExitSyntax
	}

	e, err := a.setup(&c)
	if err != nil {
		return a.report(nil, driver.Source{}, err)
	}

	set := explicit(fs)
	if !set["timeout"] {
		*timeout = e.cfg.Run.Timeout
	}
	if !set["globals"] && !set["g"] {
		*globals = e.cfg.Run.DumpGlobals
	}
	if !set["max-depth"] {
		*maxDepth = e.cfg.Run.MaxDepth
	}
	if !set["max-output"] {
		*maxOutput = e.cfg.Run.MaxOutput
	}

	d := driver.New(driver.Options{
		Logger:    e.logger,
		Output:    a.stdout,
		Timeout:   *timeout,
		MaxDepth:  *maxDepth,
		MaxOutput: *maxOutput,
	})

	code := a.runOnce(ctx, e, d, path, *globals)
	if !*watchMode {
		return code
	}

	e.logger.Warn("watching %s, press Ctrl-C to stop", path)
	err = watch.Watch(ctx, path, watchQuiet, func(ev watch.Event) {
		e.logger.Info("%s changed, running again", ev.Path)
		fmt.Fprintf(a.stderr, "--- %s\n", time.Now().Format("15:04:05"))
		a.runOnce(ctx, e, d, path, *globals)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return a.report(e, driver.Source{}, err)
	}
	return cperrors.ExitOK
}

func (a *app) runOnce(ctx context.Context, e *env, d *driver.Driver, path string, globals bool) int {
	res, err := d.RunFile(ctx, path)
	if res.Output != "" && e.cfg.TrailingNewline() {
		fmt.Fprintln(a.stdout)
	}
	if err != nil {
		return a.report(e, res.Source, err)
	}

	e.logger.Info("%s: ok in %s", path, res.Elapsed.Round(time.Microsecond))
	if globals {
		for _, b := range res.Bindings() {
			fmt.Fprintf(a.stdout, "%s = %s\n", b.Name, b.Value)
		}
	}
	return cperrors.ExitOK
}
