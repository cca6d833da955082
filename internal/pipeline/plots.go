package pipeline

// PlotState is the batch-wide plotting switch. It starts enabled (unless
// plotting was turned off on the command line) and can only ever be
// downgraded: the sole writer is the soft failure of the pre-solve
// source-overlay stage, and the downgrade persists for every subsequent
// input. Jobs hold the state by handle, never by copy.
type PlotState struct {
	enabled bool
}

func NewPlotState(enabled bool) *PlotState {
	return &PlotState{enabled: enabled}
}

func (s *PlotState) Enabled() bool {
	return s != nil && s.enabled
}

// Disable turns plotting off for the remainder of the batch.
func (s *PlotState) Disable() {
	s.enabled = false
}
