// Package pipeline drives one input through the solving workflow: output
// policy, optional download, classification, preparation, the solve
// engine, and the post-solve annotation stages.
package pipeline

// OutcomeKind discriminates the terminal result of one job.
type OutcomeKind int

const (
	// OutcomeSkipped: the existing-output policy refused the input.
	OutcomeSkipped OutcomeKind = iota

	// OutcomeSolved: the solve engine produced a solution.
	OutcomeSolved

	// OutcomeUnsolved: the engine ran but found no solution. Terminal
	// and non-fatal; the batch continues.
	OutcomeUnsolved

	// OutcomeFailed: a stage failed fatally. The batch must stop.
	OutcomeFailed
)

// FieldSummary describes a solved field for the status line.
type FieldSummary struct {
	RA, Dec       float64 // field center, degrees
	RAHMS, DecDMS string  // field center, sexagesimal
	Width, Height float64
	Units         string
}

// Outcome is the tagged terminal result of one job. Exactly one of the
// payload fields is meaningful for each kind.
type Outcome struct {
	Kind OutcomeKind

	// Reason explains a skip, user-facing.
	Reason string

	// Stage and Err identify a fatal failure; Interrupted marks that the
	// failure was a user cancellation rather than a tool error.
	Stage       Stage
	Err         error
	Interrupted bool

	// Summary is set for solved fields.
	Summary *FieldSummary

	// Objects is the number of field objects in the coordinate list,
	// best-effort (0 when unknown). Set for solved and unsolved fields.
	Objects int
}

func skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

func unsolved(objects int) Outcome {
	return Outcome{Kind: OutcomeUnsolved, Objects: objects}
}

func solved(summary *FieldSummary, objects int) Outcome {
	return Outcome{Kind: OutcomeSolved, Summary: summary, Objects: objects}
}

func failed(stage Stage, err error, interrupted bool) Outcome {
	return Outcome{Kind: OutcomeFailed, Stage: stage, Err: err, Interrupted: interrupted}
}
