package pipeline

// Stage names one step of the per-input pipeline.
type Stage string

const (
	StagePolicy       Stage = "policy"
	StageRetrieve     Stage = "retrieve"
	StageClassify     Stage = "classify"
	StagePrepare      Stage = "prepare"
	StagePlotSources  Stage = "plot-sources"
	StageSolve        Stage = "solve"
	StageProjectIndex Stage = "project-index"
	StageSummary      Stage = "summary"
	StagePlotSolution Stage = "plot-solution"
	StageAnnotate     Stage = "annotate"
)

// Action is what the batch does after a stage fails.
type Action int

const (
	// ActionSkipJob ends this job and moves to the next input.
	ActionSkipJob Action = iota

	// ActionDisablePlots turns plotting off for the rest of the batch
	// and continues the current job.
	ActionDisablePlots

	// ActionAbortBatch stops the whole run with a non-zero exit.
	ActionAbortBatch
)

// failureAction is the single authoritative mapping from a failed stage
// to the batch's reaction. Keeping the rules in one table (instead of
// scattered through call sites) makes the fatality policy auditable.
//
// The asymmetry between the two plotting stages is deliberate: a source
// overlay failing before any solve attempt usually means the plotting
// tools aren't installed, a recoverable environment problem. The same
// tools failing right after a successful solve is an integrity problem
// worth stopping for.
var failureAction = map[Stage]Action{
	StagePolicy:       ActionSkipJob,
	StageRetrieve:     ActionAbortBatch,
	StageClassify:     ActionSkipJob, // classification cannot fail; kept for table completeness
	StagePrepare:      ActionAbortBatch,
	StagePlotSources:  ActionDisablePlots,
	StageSolve:        ActionAbortBatch,
	StageProjectIndex: ActionAbortBatch,
	StageSummary:      ActionAbortBatch,
	StagePlotSolution: ActionAbortBatch,
	StageAnnotate:     ActionAbortBatch,
}

// ActionFor resolves the batch reaction to a failure at stage. A child
// killed by an interrupt signal always aborts the batch, whatever the
// stage: the user asked to cancel.
func ActionFor(stage Stage, interrupted bool) Action {
	if interrupted {
		return ActionAbortBatch
	}
	if a, ok := failureAction[stage]; ok {
		return a
	}
	return ActionAbortBatch
}
