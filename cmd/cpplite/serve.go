package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cpplite-lang/cpplite/internal/driver"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
	"github.com/cpplite-lang/cpplite/internal/repl"
	"github.com/cpplite-lang/cpplite/internal/server"
)

func (a *app) serve(ctx context.Context, args []string) int {
	var c common
	fs := a.flagSet("serve")
	c.register(fs)
	addr := fs.String("addr", "", "UDP address to listen on")
	certFile := fs.String("tls-cert", "", "PEM certificate")
	keyFile := fs.String("tls-key", "", "PEM private key")
	maxDepth := fs.Int("max-depth", 0, "limit the call stack depth per request")
	timeout := fs.Duration("timeout", 0, "longest evaluation allowed per request")
	maxOutput := fs.Int64("max-output", 0, "most output bytes allowed per request")
	if err := fs.Parse(args); err != nil {
		return cperrors.ExitSyntax
	}

	e, err := a.setup(&c)
	if err != nil {
		return a.report(nil, driver.Source{}, err)
	}

	set := explicit(fs)
	if !set["addr"] {
		*addr = e.cfg.Serve.Addr
	}
	if !set["tls-cert"] && !set["tls-key"] {
		*certFile, *keyFile = e.cfg.Serve.TLSCert, e.cfg.Serve.TLSKey
	}
	if !set["max-depth"] {
		*maxDepth = e.cfg.Serve.MaxDepth
	}
	if !set["timeout"] {
		*timeout = e.cfg.Serve.Timeout
	}
	if !set["max-output"] {
		*maxOutput = e.cfg.Serve.MaxOutput
	}
	if *timeout <= 0 || *maxOutput <= 0 {
		return a.report(e, driver.Source{}, cperrors.InvalidConfig("serve", "--timeout and --max-output must be positive"))
	}
	if (*certFile == "") != (*keyFile == "") {
		return a.report(e, driver.Source{}, cperrors.InvalidConfig("tls", "--tls-cert and --tls-key must be given together"))
	}

	tlsCfg, err := server.ServerTLS(*addr, *certFile, *keyFile)
	if err != nil {
		return a.report(e, driver.Source{}, err)
	}
	if *certFile == "" {
		e.logger.Warn("no certificate configured, using a self-signed one")
	}

	svc := server.New(server.Options{
		Logger:     e.logger,
		MaxBody:    e.cfg.Serve.MaxBody,
		MaxDepth:   *maxDepth,
		MaxTimeout: *timeout,
		MaxOutput:  *maxOutput,
	})

	err = server.ListenAndServe(ctx, *addr, tlsCfg, svc, func(bound string) {
		fmt.Fprintf(a.stderr, "cpplite serving HTTP/3 on https://%s\n", bound)
	})
	if err != nil {
		return a.report(e, driver.Source{}, err)
	}
	return cperrors.ExitOK
}

func (a *app) remote(ctx context.Context, args []string) int {
	var c common
	fs := a.flagSet("remote")
	c.register(fs)
	addr := fs.String("addr", "", "server address")
	checkOnly := fs.Bool("check", false, "only check the program")
	insecure := fs.Bool("insecure", false, "accept self-signed server certificates")
	timeout := fs.Duration("timeout", 0, "evaluation timeout sent with the request")
	if err := fs.Parse(args); err != nil {
		return cperrors.ExitSyntax
	}
	path, ok := a.oneFile(fs, "remote")
	if !ok {
		return cperrors.ExitSyntax
	}

	e, err := a.setup(&c)
	if err != nil {
		return a.report(nil, driver.Source{}, err)
	}
	if !explicit(fs)["addr"] {
		*addr = e.cfg.Serve.Addr
	}

	src, err := driver.ReadSource(path)
	if err != nil {
		return a.report(e, src, err)
	}

	client := server.NewClient(*addr, &tls.Config{InsecureSkipVerify: *insecure, MinVersion: tls.VersionTLS13}, *timeout+30*time.Second)
	defer client.Close()

	req := server.RunRequest{Source: src.Content, TimeoutMS: timeout.Milliseconds()}
	e.logger.Info("sending %s to %s", path, *addr)

	if *checkOnly {
		resp, err := client.Check(ctx, req)
		if err != nil {
			return a.remoteFailure(e, err)
		}
		fmt.Fprintf(a.stdout, "ok   %s (request %s)\n", path, resp.ID)
		return cperrors.ExitOK
	}

	resp, err := client.Run(ctx, req)
	if err != nil {
		return a.remoteFailure(e, err)
	}
	fmt.Fprint(a.stdout, resp.Output)
	if resp.Output != "" && e.cfg.TrailingNewline() {
		fmt.Fprintln(a.stdout)
	}
	e.logger.Info("request %s done", resp.ID)
	return cperrors.ExitOK
}

// remoteFailure maps a service error to the exit code a local run would
// have produced.
func (a *app) remoteFailure(e *env, err error) int {
	var remote *server.RemoteError
	if !errors.As(err, &remote) {
		return a.report(e, driver.Source{}, err)
	}
	fmt.Fprintln(a.stderr, remote.Error())
	return cperrors.ExitCode(cperrors.Category(remote.Body.Error.Category))
}

func (a *app) repl(ctx context.Context, args []string) int {
	var c common
	fs := a.flagSet("repl")
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return cperrors.ExitSyntax
	}

	e, err := a.setup(&c)
	if err != nil {
		return a.report(nil, driver.Source{}, err)
	}

	d := driver.New(driver.Options{
		Logger:    e.logger,
		Timeout:   e.cfg.Run.Timeout,
		MaxDepth:  e.cfg.Run.MaxDepth,
		MaxOutput: e.cfg.Run.MaxOutput,
	})
	s := repl.NewSession(a.stdout, d, e.color)

	history := ".cpplite_history"
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, history)
	}
	if err := repl.Interactive(ctx, s, history); err != nil {
		return a.report(e, driver.Source{}, err)
	}
	return cperrors.ExitOK
}
