package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileRecorder appends one JSON object per event to a trace file.
//
// Concurrency note: the batch is strictly sequential, but the recorder
// still serializes writes so it stays safe if that ever changes. Sequence
// numbers are assigned here, in record order.
type FileRecorder struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	seq  int
	warn func(format string, args ...any)
}

// NewFileRecorder opens (creating or truncating) the trace file at path.
// warn receives formatted messages for write failures; it may be nil.
func NewFileRecorder(path string, warn func(format string, args ...any)) (*FileRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file %q: %w", path, err)
	}
	return &FileRecorder{f: f, enc: json.NewEncoder(f), warn: warn}, nil
}

// Record appends the event. Failures are reported through warn and
// otherwise swallowed: the trace must never fail the run.
func (r *FileRecorder) Record(event Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	event.Seq = r.seq
	if err := r.enc.Encode(&event); err != nil && r.warn != nil {
		r.warn("failed to write trace event: %v", err)
	}
}

// Close flushes and closes the trace file.
func (r *FileRecorder) Close() error {
	if r == nil || r.f == nil {
		return nil
	}
	return r.f.Close()
}
