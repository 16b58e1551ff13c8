// Package sandsh interprets shell-like command lines against a filesystem
// without spawning processes. A single Executor dispatches the first word of
// a line to a fixed table of built-in handlers and reports the outcome as a
// Result: captured stdout and stderr, the working directory to use next, and
// an exit code.
//
// The executor keeps no per-session state. Callers pass the working
// directory into every Run and store the one they get back.
package sandsh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/telnet2/go-practice/go-sandsh/internal/sysinfo"
)

// ClearMarker is the stdout of the clear command. Hosts recognize it and
// clear their display instead of printing it.
const ClearMarker = "__CLEAR__"

// DefaultScratchDir is the working directory used when Run gets none.
const DefaultScratchDir = "/tmp"

// DefaultCPUInterval is how long the cpu command samples utilization.
const DefaultCPUInterval = 500 * time.Millisecond

// Result is the outcome of one command line.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Cwd      string `json:"cwd"`
	ExitCode int    `json:"exit_code"`
}

// Clear reports whether the host should clear its display.
func (r Result) Clear() bool {
	return r.Stdout == ClearMarker
}

// Executor runs command lines. It is safe for concurrent use as long as
// each caller threads its own working directory.
type Executor struct {
	fs          afero.Fs
	probe       sysinfo.Probe
	now         func() time.Time
	getenv      func(string) string
	logger      zerolog.Logger
	home        string
	scratch     string
	cpuInterval time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithFs sets the filesystem commands operate on.
func WithFs(fs afero.Fs) Option {
	return func(x *Executor) { x.fs = fs }
}

// WithProbe sets the source of cpu, memory, process and boot time data.
func WithProbe(p sysinfo.Probe) Option {
	return func(x *Executor) { x.probe = p }
}

// WithClock sets the time source for date and uptime.
func WithClock(now func() time.Time) Option {
	return func(x *Executor) { x.now = now }
}

// WithGetenv sets the environment lookup used by whoami.
func WithGetenv(getenv func(string) string) Option {
	return func(x *Executor) { x.getenv = getenv }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(x *Executor) { x.logger = l }
}

// WithHome sets the directory cd goes to without an argument.
func WithHome(dir string) Option {
	return func(x *Executor) { x.home = dir }
}

// WithScratchDir sets the working directory used when Run gets none.
func WithScratchDir(dir string) Option {
	return func(x *Executor) { x.scratch = dir }
}

// WithCPUInterval sets the cpu command's sampling window.
func WithCPUInterval(d time.Duration) Option {
	return func(x *Executor) { x.cpuInterval = d }
}

// New creates an executor on the host filesystem unless options say otherwise.
func New(opts ...Option) *Executor {
	x := &Executor{
		fs:          afero.NewOsFs(),
		probe:       sysinfo.NewHostProbe(),
		now:         time.Now,
		getenv:      os.Getenv,
		logger:      zerolog.Nop(),
		scratch:     DefaultScratchDir,
		cpuInterval: DefaultCPUInterval,
	}
	if home, err := os.UserHomeDir(); err == nil {
		x.home = home
	} else {
		x.home = "/"
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Fs returns the filesystem the executor operates on.
func (x *Executor) Fs() afero.Fs {
	return x.fs
}

// Run interprets line in cwd. An empty cwd selects the scratch directory,
// which is created if missing. Run never fails: every problem is reported
// through the Result's stderr and exit code.
func (x *Executor) Run(ctx context.Context, line, cwd string) Result {
	if cwd == "" {
		cwd = x.scratch
		if err := x.fs.MkdirAll(cwd, 0755); err != nil {
			x.logger.Warn().Err(err).Str("dir", cwd).Msg("create scratch dir")
		}
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return Result{Cwd: cwd}
	}

	tokens, err := Tokenize(line)
	if err != nil {
		return errorResult(err, cwd)
	}
	if len(tokens) == 0 {
		return Result{Cwd: cwd}
	}

	name, args := tokens[0], tokens[1:]
	handler, ok := lookup(name)
	if !ok {
		return errorResult(newError(KindUnknownCommand, "Command not found: %s", name), cwd)
	}

	start := x.now()
	res := x.invoke(ctx, handler, name, args, cwd)
	x.logger.Debug().
		Str("cmd", name).
		Int("exit_code", res.ExitCode).
		Dur("elapsed", x.now().Sub(start)).
		Msg("command finished")
	return res
}

// invoke is the error boundary around a handler. Designed failures keep
// their exit codes; anything else, including a panic, becomes "Error: ...".
func (x *Executor) invoke(ctx context.Context, h HandlerFunc, name string, args []string, cwd string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Error().Str("cmd", name).Interface("panic", r).Msg("handler panicked")
			res = errorResult(fmt.Errorf("%v", r), cwd)
		}
	}()

	res, err := h(ctx, x, args, cwd)
	if err != nil {
		if KindOf(err) == KindUnexpected {
			x.logger.Warn().Str("cmd", name).Err(err).Msg("unexpected command failure")
		}
		return errorResult(err, cwd)
	}
	if res.Cwd == "" {
		res.Cwd = cwd
	}
	return res
}

// errorResult reports err on stderr. Errors that are not a *CommandError
// were not anticipated by the handler and get the generic "Error: " prefix.
func errorResult(err error, cwd string) Result {
	msg := err.Error()
	var cerr *CommandError
	if !errors.As(err, &cerr) {
		msg = "Error: " + msg
	}
	return Result{
		Stderr:   msg + "\n",
		Cwd:      cwd,
		ExitCode: ExitCode(err),
	}
}

// output is the common successful result.
func output(stdout, cwd string) (Result, error) {
	return Result{Stdout: stdout, Cwd: cwd}, nil
}
