package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fieldsolve/internal/batch"
	"fieldsolve/internal/config"
	"fieldsolve/internal/fetch"
	"fieldsolve/internal/fits"
	"fieldsolve/internal/proc"
	"fieldsolve/internal/trace"
)

// ExitError carries a semantic exit code out of Execute.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func exitErr(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// Execute runs a validated invocation to completion. stdout receives the
// per-field status lines; diagnostics go through the logger to stderr.
func Execute(ctx context.Context, inv *Invocation, stdout io.Writer) error {
	log, err := newLogger(inv.Verbose)
	if err != nil {
		return exitErr(ExitConfigError, fmt.Errorf("initializing logger: %w", err))
	}
	defer func() { _ = log.Sync() }()

	var overrides map[string]proc.Tool
	if inv.ToolsConfig != "" {
		overrides, err = config.LoadTools(inv.ToolsConfig)
		if err != nil {
			return exitErr(ExitConfigError, err)
		}
	}

	if inv.OutDir != "" {
		if err := os.MkdirAll(inv.OutDir, 0o777); err != nil {
			return exitErr(ExitConfigError, fmt.Errorf("creating output directory %q: %w", inv.OutDir, err))
		}
	}

	runner := proc.NewRunner(log, selfDir(), overrides)
	if inv.TracePath != "" {
		rec, err := trace.NewFileRecorder(inv.TracePath, log.Warnf)
		if err != nil {
			return exitErr(ExitConfigError, err)
		}
		defer func() { _ = rec.Close() }()
		runner.Trace = rec
	}

	if inv.Solver.XColumn == "" {
		inv.Solver.XColumn = fits.DefaultXColumn
	}
	if inv.Solver.YColumn == "" {
		inv.Solver.YColumn = fits.DefaultYColumn
	}

	transport := fetch.TransportCurl
	if inv.UseWget {
		transport = fetch.TransportWget
	}

	ctl := &batch.Controller{
		Cfg: batch.Config{
			Refs:         inv.Refs,
			FromStream:   inv.FromStdin,
			Stream:       os.Stdin,
			OutDir:       inv.OutDir,
			BaseTemplate: inv.BaseTemplate,
			Flags:        inv.flags(),
			SolvedIn:     inv.SolvedIn,
			SolvedInDir:  inv.SolvedInDir,
			Transport:    transport,
			PlotsEnabled: !inv.NoPlots,
			Verbose:      inv.Verbose,
			EngineConfig: inv.EngineConfig,
			Solver:       inv.Solver,
			TempDir:      inv.TempDir,
		},
		Runner: runner,
		Log:    log,
		Out:    stdout,
	}

	if err := ctl.Run(ctx); err != nil {
		return exitErr(ExitFatal, err)
	}
	return nil
}

// Main is the process entry point behind main(): it builds and runs the
// command and maps the result to an exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	inv := &Invocation{Solver: newSolverOptions()}
	cmd := NewRootCommand(inv)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(stderr, "fieldsolve: %v\n", err)

	var inverr *InvocationError
	if errors.As(err, &inverr) {
		return inverr.ExitCode
	}
	var exerr *ExitError
	if errors.As(err, &exerr) {
		return exerr.Code
	}
	// Anything cobra surfaces on its own (unknown flags, bad values) is
	// an invocation problem.
	return ExitInvalidInvocation
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// selfDir locates the directory holding the driver's own executable, so
// a solver suite installed beside it resolves without PATH surgery.
func selfDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}
