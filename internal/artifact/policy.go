package artifact

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Decision says how a job should treat its pre-existing output files.
type Decision int

const (
	// Proceed: no blocking files remain (any that existed were deleted).
	Proceed Decision = iota

	// ProceedKeep: existing files were left in place (continue mode).
	ProceedKeep

	// Skip: this input must not be processed.
	Skip
)

// Flags are the batch-level existing-output switches.
type Flags struct {
	Overwrite  bool
	Continue   bool
	SkipSolved bool
}

// Resolution is the policy verdict for one input.
type Resolution struct {
	Decision Decision

	// Reason is the user-facing explanation for a Skip.
	Reason string
}

// Resolve applies the existing-output policy to one artifact set.
//
// Rule order matters: the skip-solved check runs before the destructive
// overwrite scan, so a solved marker is never deleted by accident.
//
// solvedIn is an externally-supplied solved marker path ("" when not
// configured). When set, it is the path whose existence the skip-solved
// check consults — even while the job's own marker is also a candidate —
// and when it coincides with the set's own solved path, that path is
// exempted from the overwrite/delete scan so the input marker survives.
//
// The only error condition is a failed deletion in overwrite mode, which
// is fatal to the whole batch.
func Resolve(set Set, solvedIn string, flags Flags, log *zap.SugaredLogger) (Resolution, error) {
	if flags.SkipSolved {
		for _, candidate := range []string{solvedIn, set.Solved} {
			if candidate == "" {
				continue
			}
			log.Debugf("checking for solved file %s", candidate)
			check := candidate
			if solvedIn != "" {
				check = solvedIn
			}
			if fileExists(check) {
				return Resolution{
					Decision: Skip,
					Reason:   fmt.Sprintf("solved file exists: %s", check),
				}, nil
			}
		}
	}

	for _, fn := range set.All() {
		if solvedIn != "" && fn == set.Solved && set.Solved == solvedIn {
			// The solved input and output coincide; don't treat the
			// input marker as a stale output.
			continue
		}
		if !fileExists(fn) {
			continue
		}
		switch {
		case flags.Continue:
			// Leave it; solving proceeds against the existing files.
		case flags.Overwrite:
			if err := os.Remove(fn); err != nil {
				return Resolution{}, fmt.Errorf("failed to delete existing output file %q: %w", fn, err)
			}
		default:
			return Resolution{
				Decision: Skip,
				Reason: fmt.Sprintf("output file %q already exists; use --overwrite to replace it "+
					"or --continue to leave existing files and still try solving", fn),
			}, nil
		}
	}

	if flags.Continue {
		return Resolution{Decision: ProceedKeep}, nil
	}
	return Resolution{Decision: Proceed}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
