// SPDX-License-Identifier: MPL-2.0

// Package hook runs a target's before script in the embedded mvdan.cc/sh
// interpreter, so hooks behave the same on every platform without a system
// shell.
package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/specsync/specsync/pkg/types"
)

// ErrHookFailed is the sentinel error wrapped by ExitError.
var ErrHookFailed = errors.New("before hook failed")

type (
	// Runner executes hook scripts.
	Runner struct {
		dir    string
		env    []string
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}

	// Option configures a Runner.
	Option func(*Runner)

	// ExitError is returned when a script exits with a non-zero status.
	ExitError struct {
		Target string
		Script string
		Code   types.ExitCode
	}
)

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("before hook of target %q exited with status %d: %s", e.Target, e.Code, firstLine(e.Script))
}

// Unwrap returns ErrHookFailed for errors.Is() compatibility.
func (e *ExitError) Unwrap() error { return ErrHookFailed }

// WithStdIO sets where script output goes. Stdin is always empty.
func WithStdIO(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(pairs ...string) Option {
	return func(r *Runner) { r.env = append(r.env, pairs...) }
}

// WithLogger sets the logger that records each external command.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner whose scripts start in dir.
func New(dir string, opts ...Option) *Runner {
	r := &Runner{
		dir:    dir,
		env:    os.Environ(),
		stdout: io.Discard,
		stderr: io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Validate parses script without running it.
func Validate(script string) error {
	if _, err := syntax.NewParser().Parse(strings.NewReader(script), "before"); err != nil {
		return fmt.Errorf("before hook syntax error: %w", err)
	}
	return nil
}

// Run executes script for the named target. An empty script is a no-op.
func (r *Runner) Run(ctx context.Context, target, script string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "before")
	if err != nil {
		return fmt.Errorf("before hook syntax error: %w", err)
	}

	env := append(append([]string{}, r.env...), "SPECSYNC_TARGET="+target)
	runner, err := interp.New(
		interp.Dir(r.dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, r.stdout, r.stderr),
		interp.ExecHandlers(r.execHandler),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	r.logger.Debug("running before hook", "target", target, "dir", r.dir)
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ExitError{Target: target, Script: script, Code: types.ExitCode(exitStatus)}
		}
		return fmt.Errorf("before hook of target %q failed: %w", target, err)
	}
	return nil
}

func (r *Runner) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			r.logger.Debug("hook exec", "cmd", args[0], "args", args[1:])
		}
		return next(ctx, args)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
