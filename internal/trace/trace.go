// Package trace records the external commands a batch run executes.
//
// The trace is observational only: recording must never affect execution
// behavior, and a failure to write an event must never fail the batch.
package trace

// Event is one external command invocation.
type Event struct {
	// Seq is the 1-based position of the command within the batch run.
	Seq int `json:"seq"`

	// Stage names the pipeline stage that ran the command
	// (e.g. "retrieve", "solve", "plot-sources").
	Stage string `json:"stage"`

	// Command is the full shell command line as executed.
	Command string `json:"command"`

	// ExitCode is the child's exit status. -1 when the child was killed
	// by a signal or could not be started.
	ExitCode int `json:"exit_code"`

	// Interrupted is set when the child was terminated by an interrupt
	// signal rather than exiting on its own.
	Interrupted bool `json:"interrupted,omitempty"`

	// DurationMS is the wall-clock run time in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// Sink is the minimal interface command runners depend on.
//
// Record must be inert: it must not panic and must not return errors.
// Callers must assume Record may be a no-op.
type Sink interface {
	Record(event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(Event) {}

// SafeRecord records an event and guarantees inertness even if the sink
// is buggy. It intentionally swallows panics.
func SafeRecord(s Sink, event Event) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}
