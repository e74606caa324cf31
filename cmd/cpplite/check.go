package main

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/cli"
	"github.com/cpplite-lang/cpplite/internal/diagnostic"
	"github.com/cpplite-lang/cpplite/internal/driver"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/parser"
	"github.com/cpplite-lang/cpplite/internal/typechecker"
)

type checked struct {
	src      driver.Source
	warnings []typechecker.Warning
	err      error
}

func (a *app) check(ctx context.Context, args []string) int {
	var c common
	fs := a.flagSet("check")
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return cperrors.ExitSyntax
	}
	cmd, _ := cli.FindCommand(commands, "check")
	if err := cli.ValidateArgs(fs.Args(), 1, cmd.Usage); err != nil {
		fmt.Fprintln(a.stderr, err)
		return cperrors.ExitSyntax
	}

	e, err := a.setup(&c)
	if err != nil {
		return a.report(nil, driver.Source{}, err)
	}

	files := fs.Args()
	results := make([]checked, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := driver.ReadSource(path)
			if err != nil {
				results[i] = checked{src: src, err: err}
				return nil
			}
			res, err := driver.New(driver.Options{Logger: e.logger}).Check(src)
			results[i] = checked{src: src, warnings: res.Warnings, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return a.report(e, driver.Source{}, err)
	}

	var (
		engine diagnostic.Engine
		first  error
	)
	r := diagnostic.NewRenderer(e.color)
	for i, res := range results {
		if res.src.Filename != "" {
			r.AddSource(res.src.Filename, res.src.Content)
		}
		engine.AddWarnings(res.warnings)
		if res.err == nil {
			fmt.Fprintf(a.stdout, "ok   %s\n", files[i])
			continue
		}
		fmt.Fprintf(a.stdout, "FAIL %s\n", files[i])
		engine.AddError(res.err)
		if first == nil {
			first = res.err
		}
	}
	fmt.Fprint(a.stderr, engine.Render(r))

	if !engine.HasErrors() {
		return cperrors.ExitOK
	}
	return cperrors.ExitCodeFor(first)
}

func (a *app) ast(args []string) int {
	var c common
	fs := a.flagSet("ast")
	c.register(fs)
	typed := fs.Bool("typed", false, "print the tree after operator tagging")
	if err := fs.Parse(args); err != nil {
		return cperrors.ExitSyntax
	}
	path, ok := a.oneFile(fs, "ast")
	if !ok {
		return cperrors.ExitSyntax
	}

	e, err := a.setup(&c)
	if err != nil {
		return a.report(nil, driver.Source{}, err)
	}

	src, err := driver.ReadSource(path)
	if err != nil {
		return a.report(e, src, err)
	}

	if !*typed {
		p, err := parser.ParseSource(src.Filename, src.Content)
		if err != nil {
			return a.report(e, src, err)
		}
		fmt.Fprint(a.stdout, ast.Format(p))
		return cperrors.ExitOK
	}

	res, err := driver.New(driver.Options{Logger: e.logger}).Check(src)
	if err != nil {
		return a.report(e, src, err)
	}
	fmt.Fprint(a.stdout, ast.Format(res.Typed))
	return cperrors.ExitOK
}
