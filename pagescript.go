// Package pagescript runs small automation scripts written in a JavaScript subset
// against a host object supplied by the embedding program.
//
// A script either runs as a whole program that stops at the first error, or as a
// fragment whose lines run one by one so that a failing line does not stop the rest.
package pagescript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/podhmo/pagescript/evaluator"
	"github.com/podhmo/pagescript/host"
	"github.com/podhmo/pagescript/object"
	"github.com/podhmo/pagescript/script"
)

const defaultHostName = "page"

// ExecutionContext is what a script sees of the outside world.
type ExecutionContext struct {
	// Host is a host.View or any Go value, which is then exposed through host.Reflect.
	Host any
	// Log receives console output, host call lines and fragment line errors.
	Log func(string)
	// Parameters is exposed to the script as a frozen `params` object.
	Parameters map[string]any
}

// Interpreter runs scripts. It holds configuration only and is safe for concurrent use;
// every run gets its own evaluator and environment.
type Interpreter struct {
	logger       *slog.Logger
	hostName     string
	maxCallDepth int
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithHostName sets the name the host is bound to. The default is "page".
func WithHostName(name string) Option {
	return func(in *Interpreter) {
		in.hostName = name
	}
}

// WithMaxCallDepth bounds guest recursion.
func WithMaxCallDepth(depth int) Option {
	return func(in *Interpreter) {
		in.maxCallDepth = depth
	}
}

// New creates a new Interpreter.
func New(options ...Option) *Interpreter {
	in := &Interpreter{hostName: defaultHostName}
	for _, opt := range options {
		opt(in)
	}
	if in.logger == nil {
		in.logger = slog.Default()
	}
	return in
}

// Run classifies src and runs it as a program or as a fragment.
func (in *Interpreter) Run(ctx context.Context, src string, ec ExecutionContext) error {
	mode := script.Classify(src)
	in.logger.DebugContext(ctx, "run", "mode", mode)
	if mode == script.ModeProgram {
		return in.RunProgram(ctx, src, ec)
	}
	return in.RunFragment(ctx, src, ec)
}

// RunProgram parses src as a whole and evaluates it, stopping at the first error.
// Nothing is evaluated when src does not parse.
func (in *Interpreter) RunProgram(ctx context.Context, src string, ec ExecutionContext) error {
	prog, err := script.Parse("program", src)
	if err != nil {
		in.logger.WarnContext(ctx, "program does not parse", "error", err)
		return fmt.Errorf("run program: %w", err)
	}

	r := in.newRun(ec)
	result := r.eval.EvalStatements(ctx, prog.Body, r.env)
	if errObj, ok := result.(*object.Error); ok {
		errObj = atLine(errObj, prog.Line(errObj.Pos))
		in.logger.WarnContext(ctx, "program failed", "kind", errObj.Kind, "line", errObj.Line, "error", errObj.Message)
		return fmt.Errorf("run program: %w", errObj)
	}
	if errObj := r.eval.Unhandled(); errObj != nil {
		errObj = atLine(errObj, prog.Line(errObj.Pos))
		in.logger.WarnContext(ctx, "unhandled rejection", "kind", errObj.Kind, "line", errObj.Line, "error", errObj.Message)
		return fmt.Errorf("run program: unhandled rejection: %w", errObj)
	}
	in.logger.DebugContext(ctx, "program finished", "statements", len(prog.Body))
	return nil
}

// RunFragment evaluates src line by line against one shared environment. A failing
// line is logged as "Error on line N: <message>" and the next line runs. The
// returned error is a *FragmentError when any line failed. Cancellation of ctx
// stops the run.
func (in *Interpreter) RunFragment(ctx context.Context, src string, ec ExecutionContext) error {
	r := in.newRun(ec)
	lines := script.SplitFragment(src)
	in.logger.DebugContext(ctx, "run fragment", "lines", len(lines))

	var failed []LineError
	for _, line := range lines {
		err := r.runLine(ctx, line)
		if err == nil {
			continue
		}

		var errObj *object.Error
		if errors.As(err, &errObj) && !errObj.Catchable() {
			return fmt.Errorf("run fragment: %w", atLine(errObj, line.Number))
		}
		r.log(fmt.Sprintf("Error on line %d: %s", line.Number, lineMessage(err)))
		in.logger.WarnContext(ctx, "fragment line failed", "line", line.Number, "error", err)
		failed = append(failed, LineError{Line: line.Number, Source: line.Text, Err: err})
	}

	if len(failed) > 0 {
		return &FragmentError{Lines: len(lines), Errors: failed}
	}
	return nil
}

// run is the state of a single execution.
type run struct {
	eval *evaluator.Evaluator
	env  *object.Environment
	log  func(string)
}

func (in *Interpreter) newRun(ec ExecutionContext) *run {
	log := ec.Log
	if log == nil {
		log = func(string) {}
	}
	eval := evaluator.New(evaluator.Config{
		Logger:       in.logger,
		Log:          log,
		MaxCallDepth: in.maxCallDepth,
	})

	env := object.NewEnvironment()
	eval.InstallGlobals(env)

	params := object.FromNative(ec.Parameters)
	if _, ok := params.(*object.Map); !ok {
		params = object.NewMap()
	}
	params.(*object.Map).Frozen = true

	logFn := evaluator.LogFunction("log")
	members := object.NewMap()
	if ec.Host != nil {
		page := host.New(host.Reflect(ec.Host), in.hostName, log)
		env.Define(in.hostName, page)
		members.Set(in.hostName, page)
	}
	members.Set("log", logFn)
	members.Set("params", params)
	members.Frozen = true

	env.Define("log", logFn)
	env.Define("params", params)
	env.Define("context", members)
	env.Define("ctx", members)
	return &run{eval: eval, env: env, log: log}
}

func (r *run) runLine(ctx context.Context, line script.Line) error {
	prog, err := script.Parse(fmt.Sprintf("line %d", line.Number), script.RewriteAwait(line.Text))
	if err != nil {
		return err
	}
	result := r.eval.EvalStatements(ctx, prog.Body, r.env)
	if errObj, ok := result.(*object.Error); ok {
		return errObj
	}
	if errObj := r.eval.Unhandled(); errObj != nil {
		return errObj
	}
	return nil
}

// atLine returns a copy of err that reports line.
func atLine(err *object.Error, line int) *object.Error {
	cp := *err
	cp.Line = line
	return &cp
}

func lineMessage(err error) string {
	var perr *script.ParseError
	if errors.As(err, &perr) {
		return "SyntaxError: " + perr.Message
	}
	return err.Error()
}

// LineError is the failure of a single fragment line.
type LineError struct {
	Line   int
	Source string
	Err    error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// FragmentError reports the lines of a fragment that failed.
type FragmentError struct {
	// Lines is the number of lines that were run.
	Lines  int
	Errors []LineError
}

func (e *FragmentError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, le := range e.Errors {
		msgs[i] = le.Error()
	}
	return fmt.Sprintf("%d of %d lines failed: %s", len(e.Errors), e.Lines, strings.Join(msgs, "; "))
}

// Unwrap exposes the line errors to errors.Is and errors.As.
func (e *FragmentError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, le := range e.Errors {
		errs[i] = le
	}
	return errs
}
