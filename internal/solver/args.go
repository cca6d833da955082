package solver

import (
	"strconv"

	"fieldsolve/internal/artifact"
	"fieldsolve/internal/proc"
)

// argAppender is a thin wrapper over proc.Command for flag/value pairs.
type argAppender struct {
	cmd *proc.Command
}

func (a *argAppender) flag(name string)              { a.cmd.Add(name) }
func (a *argAppender) flagValue(name, value string)  { a.cmd.Add(name).AddEscaped(value) }
func (a *argAppender) flagInt(name string, v int)    { a.cmd.Add(name, strconv.Itoa(v)) }
func (a *argAppender) flagFloat(name string, v float64) {
	a.cmd.Add(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// PrepareCommand builds the prepare-engine invocation that extracts a
// coordinate list from a raw image and seeds the solve outputs (match,
// catalog list, solved marker, WCS solution paths). pnm, when set, asks
// the engine to also write a normalized raster preview (forced to PPM)
// for the later plotting stages.
func PrepareCommand(r *proc.Runner, image, pnm string, set artifact.Set, opts *Options, verbose bool) (*proc.Command, error) {
	cmd := proc.NewCommand()
	if err := r.AddExecutable(cmd, "augment-xylist"); err != nil {
		return nil, err
	}
	a := &argAppender{cmd: cmd}
	if verbose {
		a.flag("--verbose")
	}
	a.flagValue("--image", image)
	a.flagValue("--out", set.Axy)
	a.flagValue("--match", set.Match)
	a.flagValue("--rdls", set.Rdls)
	a.flagValue("--solved", set.Solved)
	a.flagValue("--wcs", set.WCS)
	if pnm != "" {
		a.flagValue("--pnm", pnm)
		a.flag("--ppm")
	}
	opts.addTo(a)
	return cmd, nil
}

// EngineCommand builds the solve-engine invocation for one coordinate
// list (the prepared .axy file, or the raw input list when the input was
// already a coordinate list). The persistent prefix (executable,
// verbosity, config path) is rebuilt per call, so per-job arguments never
// accumulate across batch iterations.
func EngineCommand(r *proc.Runner, configPath, listPath string, verbose bool) (*proc.Command, error) {
	cmd := proc.NewCommand()
	if err := r.AddExecutable(cmd, "backend"); err != nil {
		return nil, err
	}
	if verbose {
		cmd.Add("--verbose")
	}
	if configPath != "" {
		cmd.Add("--config").AddEscaped(configPath)
	}
	cmd.AddEscaped(listPath)
	return cmd, nil
}
