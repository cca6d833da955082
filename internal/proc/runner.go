package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fieldsolve/internal/trace"
)

// Tool is a resolved external tool: its executable path plus any default
// arguments that should precede the per-invocation ones.
type Tool struct {
	Path string
	Args []string
}

// Result is the outcome of one external command.
type Result struct {
	// ExitCode is the child's exit status; -1 when the child was killed
	// by a signal.
	ExitCode int

	// Interrupted reports that the child was terminated by SIGTERM or
	// SIGINT. Callers must treat this distinctly from a non-zero exit:
	// an interrupted child means the user asked to cancel, and the whole
	// batch should stop.
	Interrupted bool

	// Lines is the captured standard output split into lines, only when
	// the command was run with capture enabled.
	Lines []string
}

// Failed reports whether the command did not complete successfully.
func (r Result) Failed() bool { return r.ExitCode != 0 || r.Interrupted }

// Runner executes external command lines through "sh -c".
//
// Commands run blocking: the driver suspends until the child exits. The
// child's stderr always streams through; stdout either streams through or
// is captured, never both. Logs are flushed before and after each run so
// interleaved child output stays ordered.
type Runner struct {
	// SelfDir is the directory holding the driver's own executable.
	// Tools not found on PATH are looked up here, so a tool suite
	// installed beside the driver works without PATH surgery.
	SelfDir string

	// Overrides maps tool names to explicit executables and default
	// arguments, taking precedence over PATH lookup.
	Overrides map[string]Tool

	Log   *zap.SugaredLogger
	Trace trace.Sink
}

// NewRunner builds a runner. selfDir may be empty when the driver's own
// location is unknown; PATH lookup still applies.
func NewRunner(log *zap.SugaredLogger, selfDir string, overrides map[string]Tool) *Runner {
	return &Runner{SelfDir: selfDir, Overrides: overrides, Log: log, Trace: trace.NopSink{}}
}

// Resolve locates the executable for a tool name and returns it with any
// configured default arguments. Lookup order: explicit override, PATH,
// then the driver's own directory.
func (r *Runner) Resolve(name string) (Tool, error) {
	if t, ok := r.Overrides[name]; ok && t.Path != "" {
		return t, nil
	}
	extra := r.Overrides[name].Args

	if strings.ContainsRune(name, os.PathSeparator) {
		if isExecutableFile(name) {
			return Tool{Path: name, Args: extra}, nil
		}
		return Tool{}, fmt.Errorf("executable %q not found", name)
	}
	if path, err := exec.LookPath(name); err == nil {
		return Tool{Path: path, Args: extra}, nil
	}
	if r.SelfDir != "" {
		beside := filepath.Join(r.SelfDir, name)
		if isExecutableFile(beside) {
			return Tool{Path: beside, Args: extra}, nil
		}
	}
	return Tool{}, fmt.Errorf("couldn't find executable %q on PATH or in %q", name, r.SelfDir)
}

// AddExecutable resolves name and appends the escaped executable path and
// its default arguments to cmd.
func (r *Runner) AddExecutable(cmd *Command, name string) error {
	tool, err := r.Resolve(name)
	if err != nil {
		return err
	}
	cmd.AddEscaped(tool.Path)
	cmd.Add(tool.Args...)
	return nil
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

// Run executes the command line, streaming child output through the
// driver's own stdout/stderr. stage labels the invocation in logs and in
// the command trace.
func (r *Runner) Run(ctx context.Context, stage string, cmd *Command) (Result, error) {
	return r.run(ctx, stage, cmd, false)
}

// RunCapture executes the command line and captures its standard output,
// returned split into lines. stderr still streams through.
func (r *Runner) RunCapture(ctx context.Context, stage string, cmd *Command) (Result, error) {
	return r.run(ctx, stage, cmd, true)
}

func (r *Runner) run(ctx context.Context, stage string, cmd *Command, capture bool) (Result, error) {
	line := cmd.String()
	r.Log.Debugf("running: %s", line)
	r.flush()

	child := exec.CommandContext(ctx, "sh", "-c", line)
	child.Stderr = os.Stderr
	var out bytes.Buffer
	if capture {
		child.Stdout = &out
	} else {
		child.Stdout = os.Stdout
	}

	start := time.Now()
	err := child.Run()
	r.flush()

	res := Result{}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The shell itself could not be started.
			return res, fmt.Errorf("failed to run command %q: %w", line, err)
		}
		res.ExitCode = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.ExitCode = -1
			sig := ws.Signal()
			res.Interrupted = sig == syscall.SIGTERM || sig == syscall.SIGINT
		}
	}
	if capture {
		res.Lines = splitLines(out.String())
	}

	trace.SafeRecord(r.Trace, trace.Event{
		Stage:       stage,
		Command:     line,
		ExitCode:    res.ExitCode,
		Interrupted: res.Interrupted,
		DurationMS:  time.Since(start).Milliseconds(),
	})

	if res.ExitCode > 0 {
		r.Log.Debugf("command exited with status %d", res.ExitCode)
	}
	return res, nil
}

// flush forces buffered log output out before and after a child runs so
// the child's own output doesn't interleave mid-line.
func (r *Runner) flush() {
	if r.Log != nil {
		_ = r.Log.Sync()
	}
	_ = os.Stdout.Sync()
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
