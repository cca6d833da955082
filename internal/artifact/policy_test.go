package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSet(t *testing.T) Set {
	t.Helper()
	return Derive("field.fits", 1, NamerOptions{OutDir: t.TempDir()})
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func testLog() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func TestResolve_CleanSetProceeds(t *testing.T) {
	set := testSet(t)
	res, err := Resolve(set, "", Flags{}, testLog())
	require.NoError(t, err)
	assert.Equal(t, Proceed, res.Decision)
}

func TestResolve_ExistingOutputSkipsByDefault(t *testing.T) {
	set := testSet(t)
	touch(t, set.WCS)

	res, err := Resolve(set, "", Flags{}, testLog())
	require.NoError(t, err)
	assert.Equal(t, Skip, res.Decision)
	assert.Contains(t, res.Reason, set.WCS)
}

func TestResolve_FirstCollisionInScanOrderNamed(t *testing.T) {
	set := testSet(t)
	touch(t, set.WCS)
	touch(t, set.Axy)

	res, err := Resolve(set, "", Flags{}, testLog())
	require.NoError(t, err)
	require.Equal(t, Skip, res.Decision)
	assert.Contains(t, res.Reason, set.Axy, "the first path in scan order should be reported")
}

func TestResolve_OverwriteDeletesExisting(t *testing.T) {
	set := testSet(t)
	touch(t, set.Axy)
	touch(t, set.Match)

	res, err := Resolve(set, "", Flags{Overwrite: true}, testLog())
	require.NoError(t, err)
	assert.Equal(t, Proceed, res.Decision)
	assert.NoFileExists(t, set.Axy)
	assert.NoFileExists(t, set.Match)
}

func TestResolve_ContinueKeepsExisting(t *testing.T) {
	set := testSet(t)
	touch(t, set.Axy)

	res, err := Resolve(set, "", Flags{Continue: true}, testLog())
	require.NoError(t, err)
	assert.Equal(t, ProceedKeep, res.Decision)
	assert.FileExists(t, set.Axy)
}

func TestResolve_SkipSolvedRunsBeforeOverwrite(t *testing.T) {
	set := testSet(t)
	touch(t, set.Solved)
	touch(t, set.Axy)

	res, err := Resolve(set, "", Flags{SkipSolved: true, Overwrite: true}, testLog())
	require.NoError(t, err)
	assert.Equal(t, Skip, res.Decision)
	assert.Contains(t, res.Reason, "solved file exists")
	// The marker must survive: the skip check precedes the delete scan.
	assert.FileExists(t, set.Solved)
	assert.FileExists(t, set.Axy)
}

func TestResolve_SkipSolvedWithoutMarkerProceeds(t *testing.T) {
	set := testSet(t)
	res, err := Resolve(set, "", Flags{SkipSolved: true}, testLog())
	require.NoError(t, err)
	assert.Equal(t, Proceed, res.Decision)
}

func TestResolve_ExternalSolvedMarkerShadowsOwn(t *testing.T) {
	set := testSet(t)
	external := filepath.Join(t.TempDir(), "elsewhere.solved")
	// Only the job's own marker exists; the external path does not.
	touch(t, set.Solved)

	res, err := Resolve(set, external, Flags{SkipSolved: true, Overwrite: true}, testLog())
	require.NoError(t, err)
	// The external path is the one consulted, so the input is not
	// skipped, and the stale own marker is cleaned up by overwrite.
	assert.Equal(t, Proceed, res.Decision)
	assert.NoFileExists(t, set.Solved)
}

func TestResolve_ExternalSolvedMarkerExists(t *testing.T) {
	set := testSet(t)
	external := filepath.Join(t.TempDir(), "elsewhere.solved")
	touch(t, external)

	res, err := Resolve(set, external, Flags{SkipSolved: true}, testLog())
	require.NoError(t, err)
	assert.Equal(t, Skip, res.Decision)
	assert.Contains(t, res.Reason, external)
}

func TestResolve_CoincidingSolvedInputSurvivesOverwrite(t *testing.T) {
	set := testSet(t)
	touch(t, set.Solved)

	// solved input and output are the same path; overwrite must not
	// delete the input marker.
	res, err := Resolve(set, set.Solved, Flags{Overwrite: true}, testLog())
	require.NoError(t, err)
	assert.Equal(t, Proceed, res.Decision)
	assert.FileExists(t, set.Solved)
}
