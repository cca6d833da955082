// Package cli parses the command line into a canonical invocation and
// executes it.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"fieldsolve/internal/artifact"
	"fieldsolve/internal/solver"
)

// Semantic exit codes.
const (
	ExitSuccess = 0
	// ExitFatal: the batch stopped before completing all inputs
	// (download, preparation, solve, or post-solve stage failure, or an
	// interrupted child process).
	ExitFatal = 1
	// ExitInvalidInvocation: bad flags or arguments.
	ExitInvalidInvocation = 2
	// ExitConfigError: the invocation was well-formed but the
	// environment wasn't usable (output directory, tools file, trace
	// file).
	ExitConfigError = 3
)

// Invocation is the canonicalized description of one run.
type Invocation struct {
	Refs         []string
	FromStdin    bool
	OutDir       string
	BaseTemplate string
	EngineConfig string
	NoPlots      bool
	UseWget      bool
	Overwrite    bool
	Continue     bool
	SkipSolved   bool
	Verbose      bool
	SolvedIn     string
	SolvedInDir  string
	ToolsConfig  string
	TempDir      string
	TracePath    string
	Solver       *solver.Options
}

// InvocationError is a user-facing invocation problem with a semantic
// exit code.
type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// NewRootCommand builds the driver's command. The prepare-engine options
// are contributed by the solver package as a separate flag set and
// merged in underneath the driver's own flags.
func NewRootCommand(inv *Invocation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fieldsolve [flags] <image-or-xyls-file>...",
		Short: "batch driver for the astrometric field solver",
		Long: `fieldsolve solves astronomical field images (or extracted coordinate
lists) in batch: it names the output files, runs the prepare and solve
engines plus the plotting tool chain on each input, and reports one
status line per field.

Input references may be local files or http:// / ftp:// URLs; URLs are
retrieved with curl (or wget, with --use-wget) before solving.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.Refs = args
			if err := inv.validate(); err != nil {
				return err
			}
			return Execute(cmd.Context(), inv, cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&inv.OutDir, "dir", "D", "", "place all output files in this directory")
	fl.StringVarP(&inv.BaseTemplate, "out", "o", "", "name the output files with this base name ('%i' expands to the input number, '%s' to the input reference)")
	fl.StringVarP(&inv.EngineConfig, "backend-config", "b", "", "use this config file for the solve engine")
	fl.BoolVarP(&inv.FromStdin, "files-on-stdin", "f", false, "read filenames to solve on stdin, one per line")
	fl.BoolVarP(&inv.NoPlots, "no-plots", "p", false, "don't create any plots of the results")
	fl.BoolVarP(&inv.UseWget, "use-wget", "G", false, "use wget instead of curl to retrieve URLs")
	fl.BoolVarP(&inv.Overwrite, "overwrite", "O", false, "overwrite output files if they already exist")
	fl.BoolVarP(&inv.Continue, "continue", "K", false, "don't overwrite existing output files; continue a previous run")
	fl.BoolVarP(&inv.SkipSolved, "skip-solved", "J", false, "skip input files whose 'solved' output file already exists")
	fl.StringVar(&inv.SolvedIn, "solved-in", "", "name of a pre-existing solved marker file to consult")
	fl.StringVar(&inv.SolvedInDir, "solved-in-dir", "", "directory containing pre-existing solved marker files")
	fl.StringVar(&inv.ToolsConfig, "tools-config", "", "YAML file overriding external tool executables and default arguments")
	fl.StringVar(&inv.TempDir, "temp-dir", "", "directory for temporary files (defaults to the system temp directory)")
	fl.StringVar(&inv.TracePath, "trace", "", "write a JSONL trace of every external command to this file")
	fl.BoolVarP(&inv.Verbose, "verbose", "v", false, "be more chatty; also forwarded to the solve engine")

	mergeFlags(fl, inv.Solver.Flags())
	return cmd
}

// mergeFlags adds the collaborator's flags underneath the driver's. On a
// name collision the driver's flag wins outright; on a short-flag
// collision the collaborator's flag is kept long-only.
func mergeFlags(dst, src *pflag.FlagSet) {
	src.VisitAll(func(f *pflag.Flag) {
		if dst.Lookup(f.Name) != nil {
			return
		}
		if f.Shorthand != "" && dst.ShorthandLookup(f.Shorthand) != nil {
			clone := *f
			clone.Shorthand = ""
			dst.AddFlag(&clone)
			return
		}
		dst.AddFlag(f)
	})
}

func newSolverOptions() *solver.Options {
	return &solver.Options{}
}

// flags translates the invocation's existing-output switches into the
// policy form.
func (inv *Invocation) flags() artifact.Flags {
	return artifact.Flags{
		Overwrite:  inv.Overwrite,
		Continue:   inv.Continue,
		SkipSolved: inv.SkipSolved,
	}
}

func (inv *Invocation) validate() error {
	if inv.FromStdin && len(inv.Refs) > 0 {
		return invalidf("positional input files and --files-on-stdin are mutually exclusive")
	}
	if !inv.FromStdin && len(inv.Refs) == 0 {
		return invalidf("no input files specified (pass files as arguments, or --files-on-stdin)")
	}
	return nil
}
