package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"fieldsolve/internal/artifact"
	"fieldsolve/internal/fetch"
	"fieldsolve/internal/fits"
	"fieldsolve/internal/proc"
	"fieldsolve/internal/solver"
)

// Config is the batch-wide, read-only pipeline configuration. It is
// shared across jobs and never mutated after the batch starts; the only
// mutable cross-job state lives in PlotState.
type Config struct {
	Flags        artifact.Flags
	Transport    fetch.Transport
	Verbose      bool
	EngineConfig string // solve-engine config file path, "" for its default
	Solver       *solver.Options
	TempDir      string
}

// Pipeline runs one FieldJob through the solving workflow.
type Pipeline struct {
	Cfg    Config
	Runner *proc.Runner
	Log    *zap.SugaredLogger
	Plots  *PlotState
}

// Run drives the job to a terminal Outcome. It never leaves temp files
// behind itself — everything it creates goes through job.Temps, which
// the caller releases — and it never writes shared state except the
// plotting downgrade.
func (p *Pipeline) Run(ctx context.Context, job *Job) Outcome {
	log := p.Log.With("job", job.ID)

	res, err := artifact.Resolve(job.Artifacts, job.SolvedIn, p.Cfg.Flags, log)
	if err != nil {
		return failed(StagePolicy, err, false)
	}
	if res.Decision == artifact.Skip {
		log.Infof("%s", res.Reason)
		log.Infof("continuing to next input file")
		return skipped(res.Reason)
	}

	if fetch.IsRemote(job.Ref) {
		log.Infof("downloading %s", job.Ref)
		dl, err := fetch.Download(ctx, p.Runner, job.Ref, job.Artifacts.Download, p.Cfg.Transport, p.Cfg.Verbose)
		if err != nil {
			return failed(StageRetrieve, err, dl.Interrupted)
		}
		job.Input = job.Artifacts.Download
	}

	isxy, reason := fits.IsXYList(job.Input, p.Cfg.Solver.XColumn, p.Cfg.Solver.YColumn)
	if isxy {
		log.Debugf("input %q is a coordinate list", job.Input)
		job.IsXYList = true
		job.CoordList = job.Input
	} else {
		log.Debugf("input %q is an image (not a coordinate list: %s)", job.Input, reason)
		job.ImagePath = job.Input
	}

	if job.ImagePath != "" {
		if interrupted, err := p.prepare(ctx, job); err != nil {
			return failed(StagePrepare, err, interrupted)
		}
		job.CoordList = job.Artifacts.Axy
	}

	if p.Plots.Enabled() {
		if interrupted, err := p.plotSources(ctx, job); err != nil {
			if ActionFor(StagePlotSources, interrupted) == ActionAbortBatch {
				return failed(StagePlotSources, err, interrupted)
			}
			log.Warnf("source overlay failed: %v", err)
			log.Infof("disabling plots for the rest of the run; maybe the plotting tools aren't installed?")
			p.Plots.Disable()
		}
	}

	log.Infof("solving...")
	engine, err := solver.EngineCommand(p.Runner, p.Cfg.EngineConfig, job.CoordList, p.Cfg.Verbose)
	if err != nil {
		return failed(StageSolve, err, false)
	}
	sres, err := p.Runner.Run(ctx, string(StageSolve), engine)
	if err != nil {
		return failed(StageSolve, err, false)
	}
	if sres.Failed() {
		return failed(StageSolve,
			fmt.Errorf("%w; command that failed was: %s", stageError("solve engine", sres), engine),
			sres.Interrupted)
	}

	objects := p.countObjects(job)

	if !fileExists(job.Artifacts.Solved) {
		return unsolved(objects)
	}

	if interrupted, err := p.projectIndex(ctx, job); err != nil {
		return failed(StageProjectIndex, err, interrupted)
	}

	wcs, err := fits.ReadWCS(job.Artifacts.WCS)
	if err != nil {
		return failed(StageSummary, err, false)
	}
	ra, dec := wcs.Center()
	width, height, units := wcs.FieldSize()
	summary := &FieldSummary{
		RA: ra, Dec: dec,
		RAHMS: fits.RAToHMS(ra), DecDMS: fits.DecToDMS(dec),
		Width: width, Height: height, Units: units,
	}
	log.Infof("field center: (RA,Dec) = (%.4g, %.4g) deg", ra, dec)
	log.Infof("field center: (RA H:M:S, Dec D:M:S) = (%s, %s)", summary.RAHMS, summary.DecDMS)
	log.Infof("field size: %g x %g %s", width, height, units)

	if p.Plots.Enabled() {
		if interrupted, err := p.plotSolution(ctx, job); err != nil {
			return failed(StagePlotSolution, err, interrupted)
		}
		if job.ImagePath != "" {
			if interrupted, err := p.annotate(ctx, job, log); err != nil {
				return failed(StageAnnotate, err, interrupted)
			}
		}
	}

	return solved(summary, objects)
}

// prepare runs the prepare engine on a raw image, producing the
// augmented coordinate list and a normalized raster preview.
func (p *Pipeline) prepare(ctx context.Context, job *Job) (bool, error) {
	ppm, err := job.Temps.Create("fieldsolve-*.ppm")
	if err != nil {
		return false, err
	}
	job.PPM = ppm

	cmd, err := solver.PrepareCommand(p.Runner, job.ImagePath, ppm, job.Artifacts, p.Cfg.Solver, p.Cfg.Verbose)
	if err != nil {
		return false, err
	}
	res, err := p.Runner.Run(ctx, string(StagePrepare), cmd)
	if err != nil {
		return false, err
	}
	if res.Failed() {
		return res.Interrupted, stageError("prepare engine", res)
	}
	return false, nil
}

// plotSources renders the detected-source overlay: one plotxy pass for
// the halo markers over the raster preview (or a blank background),
// piped into a second pass drawing the markers themselves.
func (p *Pipeline) plotSources(ctx context.Context, job *Job) (bool, error) {
	cmd := proc.NewCommand()
	if err := p.Runner.AddExecutable(cmd, "plotxy"); err != nil {
		return false, err
	}
	cmd.Add("-i").AddEscaped(job.CoordList)
	if job.ImagePath != "" {
		cmd.Add("-I").AddEscaped(job.PPM)
	}
	p.addColumnFlags(cmd)
	cmd.Add("-P", "-C", "red", "-w", "2", "-N", "50", "-x", "1", "-y", "1")

	cmd.Pipe()
	if err := p.Runner.AddExecutable(cmd, "plotxy"); err != nil {
		return false, err
	}
	cmd.Add("-i").AddEscaped(job.CoordList)
	p.addColumnFlags(cmd)
	cmd.Add("-I", "-", "-w", "2", "-r", "3", "-C", "red", "-n", "50", "-N", "200", "-x", "1", "-y", "1")
	cmd.RedirectTo(job.Artifacts.ObjsPNG)

	res, err := p.Runner.Run(ctx, string(StagePlotSources), cmd)
	if err != nil {
		return false, err
	}
	if res.Failed() {
		return res.Interrupted, stageError("plotting command", res)
	}
	return false, nil
}

// projectIndex reprojects the catalog stars near the solution into field
// pixel coordinates using the WCS solution.
func (p *Pipeline) projectIndex(ctx context.Context, job *Job) (bool, error) {
	cmd := proc.NewCommand()
	if err := p.Runner.AddExecutable(cmd, "wcs-rd2xy"); err != nil {
		return false, err
	}
	cmd.Add("-w").AddEscaped(job.Artifacts.WCS)
	cmd.Add("-i").AddEscaped(job.Artifacts.Rdls)
	cmd.Add("-o").AddEscaped(job.Artifacts.IndxXY)

	res, err := p.Runner.Run(ctx, string(StageProjectIndex), cmd)
	if err != nil {
		return false, err
	}
	if res.Failed() {
		return res.Interrupted, stageError("index projection", res)
	}
	return false, nil
}

// plotSolution renders the solved-field overlay: detected sources, the
// projected index stars, and the winning quad shape from the first
// recorded match.
func (p *Pipeline) plotSolution(ctx context.Context, job *Job) (bool, error) {
	match, err := fits.FirstMatch(job.Artifacts.Match)
	if err != nil {
		return false, err
	}

	cmd := proc.NewCommand()
	if err := p.Runner.AddExecutable(cmd, "plotxy"); err != nil {
		return false, err
	}
	cmd.Add("-i").AddEscaped(job.CoordList)
	if job.ImagePath != "" {
		cmd.Add("-I").AddEscaped(job.PPM)
	}
	p.addColumnFlags(cmd)
	cmd.Add("-P", "-C", "red", "-w", "2", "-r", "6", "-N", "200", "-x", "1", "-y", "1")

	cmd.Pipe()
	if err := p.Runner.AddExecutable(cmd, "plotxy"); err != nil {
		return false, err
	}
	cmd.Add("-i").AddEscaped(job.Artifacts.IndxXY)
	cmd.Add("-I", "-", "-w", "2", "-r", "4", "-C", "green", "-x", "1", "-y", "1", "-P")

	cmd.Pipe()
	if err := p.Runner.AddExecutable(cmd, "plotquad"); err != nil {
		return false, err
	}
	cmd.Add("-I", "-", "-C", "green", "-w", "2")
	cmd.Add("-d", strconv.Itoa(match.DimQuads))
	for _, v := range match.QuadPix {
		cmd.Add(strconv.FormatFloat(v, 'g', -1, 64))
	}
	cmd.RedirectTo(job.Artifacts.IndxPNG)

	res, err := p.Runner.Run(ctx, string(StagePlotSolution), cmd)
	if err != nil {
		return false, err
	}
	if res.Failed() {
		return res.Interrupted, stageError("solution overlay", res)
	}
	return false, nil
}

// annotate runs the constellation-annotation tool over the raster
// preview and logs whatever descriptive lines it reports.
func (p *Pipeline) annotate(ctx context.Context, job *Job, log *zap.SugaredLogger) (bool, error) {
	cmd := proc.NewCommand()
	if err := p.Runner.AddExecutable(cmd, "plot-constellations"); err != nil {
		return false, err
	}
	if p.Cfg.Verbose {
		cmd.Add("-v")
	}
	cmd.Add("-w").AddEscaped(job.Artifacts.WCS)
	cmd.Add("-i").AddEscaped(job.PPM)
	cmd.Add("-N", "-C")
	cmd.Add("-o").AddEscaped(job.Artifacts.NgcPNG)

	res, err := p.Runner.RunCapture(ctx, string(StageAnnotate), cmd)
	if err != nil {
		return false, err
	}
	if res.Failed() {
		return res.Interrupted, stageError("constellation annotation", res)
	}
	if len(res.Lines) > 0 {
		log.Infof("your field contains:")
		for _, line := range res.Lines {
			log.Infof("  %s", line)
		}
	}
	return false, nil
}

func (p *Pipeline) addColumnFlags(cmd *proc.Command) {
	if p.Cfg.Solver.XColumn != "" {
		cmd.Add("-X").AddEscaped(p.Cfg.Solver.XColumn)
	}
	if p.Cfg.Solver.YColumn != "" {
		cmd.Add("-Y").AddEscaped(p.Cfg.Solver.YColumn)
	}
}

// countObjects reads the coordinate-list row count for the status line.
// Best-effort: an unreadable list yields 0, never a failure.
func (p *Pipeline) countObjects(job *Job) int {
	xcol, ycol := "", ""
	if job.IsXYList {
		xcol, ycol = p.Cfg.Solver.XColumn, p.Cfg.Solver.YColumn
	}
	n, err := fits.CountRows(job.CoordList, xcol, ycol)
	if err != nil {
		p.Log.Debugf("couldn't count field objects in %q: %v", job.CoordList, err)
		return 0
	}
	return n
}

func stageError(what string, res proc.Result) error {
	if res.Interrupted {
		return fmt.Errorf("%s was cancelled", what)
	}
	return fmt.Errorf("%s failed with exit status %d", what, res.ExitCode)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
