package pipeline

import (
	"github.com/google/uuid"

	"fieldsolve/internal/artifact"
)

// Job is the mutable per-input state of one pipeline run. Jobs are
// independent: nothing in a Job is shared with another input, so a
// failure in one can never corrupt the next.
type Job struct {
	// ID is a short random identifier used in log lines.
	ID string

	// Ref is the raw input reference: a local path or a URL.
	Ref string

	// Index is the 1-based position of the input within the batch.
	Index int

	// Input is the effective local path: Ref, or the download
	// destination once a remote reference has been retrieved.
	Input string

	// Artifacts is the derived output path set.
	Artifacts artifact.Set

	// SolvedIn is the externally-supplied solved marker path, "" when
	// not configured.
	SolvedIn string

	// Temps tracks this job's temp files; the batch releases it exactly
	// once, whatever the outcome.
	Temps *TempTracker

	// Classification results, set by the classify stage.
	IsXYList  bool
	ImagePath string // set when the input is a raw image
	PPM       string // normalized raster preview temp path, image inputs only
	CoordList string // the list the solve engine consumes
}

// NewJob builds the per-input state for one batch iteration.
func NewJob(ref string, index int, set artifact.Set, solvedIn string, temps *TempTracker) *Job {
	return &Job{
		ID:        uuid.NewString()[:8],
		Ref:       ref,
		Index:     index,
		Input:     ref,
		Artifacts: set,
		SolvedIn:  solvedIn,
		Temps:     temps,
	}
}
