package pipeline

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// TempTracker is the scoped registry of temp files created during one
// job. Release deletes every tracked path; it is idempotent, and a
// deletion failure is logged but never escalated — cleanup must not stop
// the batch from moving to the next input.
type TempTracker struct {
	dir   string
	log   *zap.SugaredLogger
	paths []string
}

// NewTempTracker creates a tracker placing files under dir (the system
// temp directory when dir is empty).
func NewTempTracker(dir string, log *zap.SugaredLogger) *TempTracker {
	return &TempTracker{dir: dir, log: log}
}

// Create makes an empty temp file from pattern (os.CreateTemp semantics)
// and registers it for deletion.
func (t *TempTracker) Create(pattern string) (string, error) {
	f, err := os.CreateTemp(t.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	t.paths = append(t.paths, path)
	return path, nil
}

// Track registers an externally-created path for deletion.
func (t *TempTracker) Track(path string) {
	t.paths = append(t.paths, path)
}

// Release deletes every tracked path.
func (t *TempTracker) Release() {
	for _, path := range t.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			t.log.Warnf("failed to delete temp file %q: %v", path, err)
		}
	}
	t.paths = nil
}
