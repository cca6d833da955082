package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldsolve/internal/artifact"
	"fieldsolve/internal/proc"
)

func testRunner() *proc.Runner {
	return proc.NewRunner(zap.NewNop().Sugar(), "", map[string]proc.Tool{
		"augment-xylist": {Path: "/opt/astrometry/bin/augment-xylist"},
		"backend":        {Path: "/opt/astrometry/bin/backend"},
	})
}

func TestPrepareCommand_Shape(t *testing.T) {
	set := artifact.Derive("field.fits", 1, artifact.NamerOptions{})
	cmd, err := PrepareCommand(testRunner(), "field.fits", "/tmp/preview.ppm", set, &Options{}, false)
	require.NoError(t, err)

	assert.Equal(t,
		"/opt/astrometry/bin/augment-xylist"+
			" --image field.fits --out field.axy --match field.match"+
			" --rdls field.rdls --solved field.solved --wcs field.wcs"+
			" --pnm /tmp/preview.ppm --ppm",
		cmd.String())
}

func TestPrepareCommand_VerboseAndOptions(t *testing.T) {
	set := artifact.Derive("field.fits", 1, artifact.NamerOptions{})
	opts := &Options{
		ScaleLow:   0.5,
		ScaleHigh:  2,
		ScaleUnits: "degwidth",
		Downsample: 2,
		Depth:      "20,40",
		NoTweak:    true,
		TweakOrder: 3,
		SortColumn: "FLUX",
		Invert:     true,
	}
	cmd, err := PrepareCommand(testRunner(), "field.fits", "", set, opts, true)
	require.NoError(t, err)

	line := cmd.String()
	assert.Contains(t, line, "--verbose")
	assert.NotContains(t, line, "--pnm", "no preview requested")
	assert.Contains(t, line, "--scale-low 0.5")
	assert.Contains(t, line, "--scale-high 2")
	assert.Contains(t, line, "--scale-units degwidth")
	assert.Contains(t, line, "--downsample 2")
	assert.Contains(t, line, "--depth 20,40")
	assert.Contains(t, line, "--no-tweak")
	assert.Contains(t, line, "--tweak-order 3")
	assert.Contains(t, line, "--sort-column FLUX")
	assert.Contains(t, line, "--invert")
}

func TestPrepareCommand_UnsetOptionsOmitted(t *testing.T) {
	set := artifact.Derive("field.fits", 1, artifact.NamerOptions{})
	cmd, err := PrepareCommand(testRunner(), "field.fits", "", set, &Options{}, false)
	require.NoError(t, err)

	line := cmd.String()
	assert.NotContains(t, line, "--scale-low")
	assert.NotContains(t, line, "--depth")
	assert.NotContains(t, line, "--verbose")
}

func TestPrepareCommand_EscapesPaths(t *testing.T) {
	set := artifact.Derive("my field.fits", 1, artifact.NamerOptions{})
	cmd, err := PrepareCommand(testRunner(), "my field.fits", "", set, &Options{}, false)
	require.NoError(t, err)
	assert.Contains(t, cmd.String(), "--image 'my field.fits'")
	assert.Contains(t, cmd.String(), "--out 'my field.axy'")
}

func TestEngineCommand_Shape(t *testing.T) {
	cmd, err := EngineCommand(testRunner(), "", "field.axy", false)
	require.NoError(t, err)
	assert.Equal(t, "/opt/astrometry/bin/backend field.axy", cmd.String())
}

func TestEngineCommand_ConfigAndVerbose(t *testing.T) {
	cmd, err := EngineCommand(testRunner(), "/etc/astrometry.cfg", "field.axy", true)
	require.NoError(t, err)
	assert.Equal(t, "/opt/astrometry/bin/backend --verbose --config /etc/astrometry.cfg field.axy", cmd.String())
}

func TestEngineCommand_RebuiltPerCall(t *testing.T) {
	r := testRunner()
	a, err := EngineCommand(r, "", "first.axy", false)
	require.NoError(t, err)
	b, err := EngineCommand(r, "", "second.axy", false)
	require.NoError(t, err)
	assert.NotContains(t, b.String(), "first.axy")
	assert.Equal(t, a.Len(), b.Len())
}

func TestOptions_FlagsParse(t *testing.T) {
	o := &Options{}
	fs := o.Flags()
	require.NoError(t, fs.Parse([]string{
		"-L", "0.5", "-H", "2.0", "-u", "degwidth", "-z", "2", "--no-tweak",
	}))
	assert.Equal(t, 0.5, o.ScaleLow)
	assert.Equal(t, 2.0, o.ScaleHigh)
	assert.Equal(t, "degwidth", o.ScaleUnits)
	assert.Equal(t, 2, o.Downsample)
	assert.True(t, o.NoTweak)
}
