// Package compiler invokes the external compiler that applies selected
// presets to a source file. The engine decides which presets a file gets;
// this package only carries them across the process boundary.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/bethropolis/rule-sieve/internal/utils"
)

// Preset is the rule payload this host forwards to the compiler: the preset
// name plus its extra arguments.
type Preset struct {
	Name string
	Args []string
}

// Spec names the external compiler command, its fixed arguments, and the
// per-invocation timeout (0 = none).
type Spec struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// Compiler transforms one file's source given its resolved presets.
type Compiler interface {
	Compile(ctx context.Context, path string, presets []Preset, src []byte) ([]byte, error)
}

// Error describes one failed compiler invocation. The selection engine never
// sees these; they surface to the user as build errors for the file.
type Error struct {
	Path     string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("compile %s: %s", e.Path, firstLine(e.Stderr))
	}
	return fmt.Sprintf("compile %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying invocation error.
func (e *Error) Unwrap() error {
	return e.Err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Runner invokes the configured command once per file, feeding the source on
// stdin and reading the transformed source from stdout. Safe for concurrent
// use; every call spawns its own process.
type Runner struct {
	spec Spec
	log  utils.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for the runner.
func WithLogger(logger utils.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.log = logger
		}
	}
}

// NewRunner creates a Runner for spec.
func NewRunner(spec Spec, opts ...Option) *Runner {
	r := &Runner{spec: spec, log: &utils.NoopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Compile runs `command [args...] --preset <name> [presetArgs...]...` with
// src on stdin. A non-zero exit, a start failure, or a timeout is reported
// as a *Error carrying the captured stderr.
func (r *Runner) Compile(ctx context.Context, path string, presets []Preset, src []byte) ([]byte, error) {
	if r.spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.spec.Timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(r.spec.Args)+len(presets)*2)
	argv = append(argv, r.spec.Args...)
	for _, p := range presets {
		argv = append(argv, "--preset", p.Name)
		argv = append(argv, p.Args...)
	}

	r.log.Debug("compiler: %s %s < %s", r.spec.Command, strings.Join(argv, " "), path)

	cmd := exec.CommandContext(ctx, r.spec.Command, argv...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &Error{
			Path:     path,
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}
	return stdout.Bytes(), nil
}
