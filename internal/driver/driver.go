// Package driver runs the C++Lite pipeline: parse, validate, transform and
// evaluate. Each stage only runs when the previous one succeeded.
package driver

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/cli"
	"github.com/cpplite-lang/cpplite/internal/parser"
	"github.com/cpplite-lang/cpplite/internal/runtime"
	"github.com/cpplite-lang/cpplite/internal/transform"
	"github.com/cpplite-lang/cpplite/internal/typechecker"
	"github.com/cpplite-lang/cpplite/internal/types"
	"github.com/cpplite-lang/cpplite/internal/value"
)

// Stage names a pipeline step.
type Stage string

const (
	StageParse     Stage = "parse"
	StageValidate  Stage = "validate"
	StageTransform Stage = "transform"
	StageEvaluate  Stage = "evaluate"
)

// Source is one program text.
type Source struct {
	Filename string
	Content  string
}

// ReadSource loads a program from disk.
func ReadSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, errors.Wrapf(err, "read %s", path)
	}
	return Source{Filename: path, Content: string(data)}, nil
}

// Options configures a Driver.
type Options struct {
	Logger    *cli.Logger
	Output    io.Writer
	Timeout   time.Duration
	MaxDepth  int
	MaxOutput int64
}

// Driver runs sources through the pipeline.
type Driver struct {
	opts Options
}

// New creates a driver. A nil logger discards log lines.
func New(opts Options) *Driver {
	if opts.Logger == nil {
		opts.Logger = cli.NewLoggerTo(io.Discard, false, false)
	}
	return &Driver{opts: opts}
}

// Result holds what each completed stage produced. Stage is the last stage
// that was attempted.
type Result struct {
	Source   Source
	Stage    Stage
	Program  *ast.Program
	Globals  *types.Env
	Warnings []typechecker.Warning
	Typed    *ast.Program
	Store    *runtime.Store
	Output   string
	Elapsed  time.Duration
}

// Check parses, validates and transforms src without running it.
func (d *Driver) Check(src Source) (*Result, error) {
	start := time.Now()
	res := &Result{Source: src}
	defer func() { res.Elapsed = time.Since(start) }()

	res.Stage = StageParse
	d.opts.Logger.Debug("%s: parsing %d bytes", src.Filename, len(src.Content))
	p, err := parser.ParseSource(src.Filename, src.Content)
	if err != nil {
		return res, err
	}
	res.Program = p

	res.Stage = StageValidate
	d.opts.Logger.Debug("%s: validating %d global(s), %d function(s)", src.Filename, len(p.Globals), len(p.Functions))
	globals, err := typechecker.Validate(p)
	if err != nil {
		return res, err
	}
	res.Globals = globals
	res.Warnings = typechecker.Lint(p)
	for _, w := range res.Warnings {
		d.opts.Logger.Info("%s", w)
	}

	res.Stage = StageTransform
	d.opts.Logger.Debug("%s: tagging operators", src.Filename)
	typed, err := transform.Program(p, globals)
	if err != nil {
		return res, err
	}
	res.Typed = typed

	return res, nil
}

// Run executes the whole pipeline. Program output is written to the
// configured Output as it is produced and also kept in Result.Output.
func (d *Driver) Run(ctx context.Context, src Source) (*Result, error) {
	begin := time.Now()
	res, err := d.Check(src)
	if err != nil {
		return res, err
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	out := io.Writer(&buf)
	if d.opts.Output != nil {
		out = io.MultiWriter(&buf, d.opts.Output)
	}

	res.Stage = StageEvaluate
	d.opts.Logger.Debug("%s: evaluating main", src.Filename)
	start := time.Now()
	store, err := runtime.Evaluate(ctx, res.Typed,
		runtime.WithOutput(out),
		runtime.WithMaxDepth(d.opts.MaxDepth),
		runtime.WithMaxOutput(d.opts.MaxOutput))
	res.Store = store
	res.Output = buf.String()
	res.Elapsed = time.Since(begin)
	d.opts.Logger.Info("%s: evaluated in %s", src.Filename, time.Since(start).Round(time.Microsecond))

	return res, err
}

// RunFile reads and runs path.
func (d *Driver) RunFile(ctx context.Context, path string) (*Result, error) {
	src, err := ReadSource(path)
	if err != nil {
		return &Result{Source: Source{Filename: path}}, err
	}
	return d.Run(ctx, src)
}

// Binding is one dumped global.
type Binding struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Bindings lists the final globals in declaration order.
func (r *Result) Bindings() []Binding {
	if r.Store == nil {
		return nil
	}

	out := make([]Binding, 0, r.Store.Len())
	r.Store.Each(func(name string, v value.Value) {
		out = append(out, Binding{Name: name, Type: v.Type().String(), Value: v.Literal()})
	})
	return out
}
