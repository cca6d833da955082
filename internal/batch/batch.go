// Package batch enumerates the run's inputs and drives one pipeline job
// per input, isolating per-input outcomes from the rest of the batch.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"fieldsolve/internal/artifact"
	"fieldsolve/internal/fetch"
	"fieldsolve/internal/pipeline"
	"fieldsolve/internal/proc"
	"fieldsolve/internal/solver"
)

// Config is the whole invocation, immutable after the batch starts.
type Config struct {
	// Refs are the positional input references. Ignored when FromStream
	// is set.
	Refs []string

	// FromStream reads one reference per line from Stream instead.
	FromStream bool
	Stream     io.Reader

	OutDir       string
	BaseTemplate string
	Flags        artifact.Flags
	SolvedIn     string // externally-supplied solved marker file
	SolvedInDir  string // directory holding externally-supplied solved markers
	Transport    fetch.Transport
	PlotsEnabled bool
	Verbose      bool
	EngineConfig string
	Solver       *solver.Options
	TempDir      string
}

// Error is a fatal batch error: the run stopped before completing all
// inputs.
type Error struct {
	Stage       pipeline.Stage
	Interrupted bool
	Err         error
}

func (e *Error) Error() string {
	if e.Interrupted {
		return fmt.Sprintf("batch cancelled during %s stage: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Controller runs the batch.
type Controller struct {
	Cfg    Config
	Runner *proc.Runner
	Log    *zap.SugaredLogger

	// Out receives the one status line per completed input.
	Out io.Writer
}

// Run processes every input in order. It returns nil when the batch
// completed all inputs — individual skipped or unsolved fields are not
// errors — and a *Error when a fatal condition stopped the run.
//
// Per-input cleanup is unconditional: each job's temp tracker is
// released before the next input starts, whatever the outcome.
func (c *Controller) Run(ctx context.Context) error {
	plots := pipeline.NewPlotState(c.Cfg.PlotsEnabled)
	pl := &pipeline.Pipeline{
		Cfg: pipeline.Config{
			Flags:        c.Cfg.Flags,
			Transport:    c.Cfg.Transport,
			Verbose:      c.Cfg.Verbose,
			EngineConfig: c.Cfg.EngineConfig,
			Solver:       c.Cfg.Solver,
			TempDir:      c.Cfg.TempDir,
		},
		Runner: c.Runner,
		Log:    c.Log,
		Plots:  plots,
	}

	var scanner *bufio.Scanner
	if c.Cfg.FromStream {
		scanner = bufio.NewScanner(c.Cfg.Stream)
	}

	total := len(c.Cfg.Refs)
	index := 0
	for {
		var ref string
		if scanner != nil {
			if !scanner.Scan() {
				// End of stream ends enumeration; a read error is
				// logged but the batch still finishes cleanly.
				if err := scanner.Err(); err != nil {
					c.Log.Errorf("failed to read an input reference: %v", err)
				}
				break
			}
			ref = strings.TrimSpace(scanner.Text())
			if ref == "" {
				continue
			}
			c.Log.Infof("reading input file %q", ref)
		} else {
			if index >= total {
				break
			}
			ref = c.Cfg.Refs[index]
			c.Log.Infof("reading input file %d of %d: %q", index+1, total, ref)
		}
		index++

		outcome := c.runJob(ctx, pl, ref, index)
		switch outcome.Kind {
		case pipeline.OutcomeSkipped:
			// Already logged by the pipeline; no status line.
		case pipeline.OutcomeUnsolved:
			fmt.Fprintf(c.Out, "%s: unsolved using %d field objects\n", ref, outcome.Objects)
		case pipeline.OutcomeSolved:
			s := outcome.Summary
			fmt.Fprintf(c.Out,
				"%s: solved using %d field objects: center (RA,Dec) = (%.4g, %.4g) deg = (%s, %s), size %.4g x %.4g %s\n",
				ref, outcome.Objects, s.RA, s.Dec, s.RAHMS, s.DecDMS, s.Width, s.Height, s.Units)
		case pipeline.OutcomeFailed:
			return &Error{Stage: outcome.Stage, Interrupted: outcome.Interrupted, Err: outcome.Err}
		}
	}
	return nil
}

// runJob builds and runs one job. The deferred release is the single
// cleanup call-site: it covers every pipeline exit path, early skips
// included.
func (c *Controller) runJob(ctx context.Context, pl *pipeline.Pipeline, ref string, index int) pipeline.Outcome {
	set := artifact.Derive(ref, index, artifact.NamerOptions{
		OutDir:       c.Cfg.OutDir,
		BaseTemplate: c.Cfg.BaseTemplate,
	})
	temps := pipeline.NewTempTracker(c.Cfg.TempDir, c.Log)
	defer temps.Release()

	job := pipeline.NewJob(ref, index, set, c.solvedInFor(set), temps)
	return pl.Run(ctx, job)
}

// solvedInFor resolves the externally-supplied solved marker path for
// one artifact set: an explicit file, a file within a directory, or a
// per-input "<base>.solved" within the directory.
func (c *Controller) solvedInFor(set artifact.Set) string {
	switch {
	case c.Cfg.SolvedIn != "" && c.Cfg.SolvedInDir != "":
		return filepath.Join(c.Cfg.SolvedInDir, c.Cfg.SolvedIn)
	case c.Cfg.SolvedIn != "":
		return c.Cfg.SolvedIn
	case c.Cfg.SolvedInDir != "":
		return filepath.Join(c.Cfg.SolvedInDir, filepath.Base(set.Base)+".solved")
	default:
		return ""
	}
}
