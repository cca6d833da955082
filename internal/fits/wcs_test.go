package fits

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsolve/internal/fits/fitstest"
)

// writeTestWCS centers the reference pixel on the image so the field
// center equals the reference sky point exactly.
func writeTestWCS(t *testing.T, crval1, crval2, scaleDeg, w, h float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "field.wcs")
	require.NoError(t, fitstest.WriteWCS(path, fitstest.WCSParams{
		CRVal1: crval1, CRVal2: crval2,
		CRPix1: w/2 + 0.5, CRPix2: h/2 + 0.5,
		CD11: scaleDeg, CD22: scaleDeg,
		ImageW: w, ImageH: h,
	}))
	return path
}

func TestReadWCS_CenterAtReferencePixel(t *testing.T) {
	path := writeTestWCS(t, 83.633, 22.0145, 2.5e-4, 1024, 768)

	w, err := ReadWCS(path)
	require.NoError(t, err)

	ra, dec := w.Center()
	assert.InDelta(t, 83.633, ra, 1e-9)
	assert.InDelta(t, 22.0145, dec, 1e-9)
}

func TestReadWCS_ZeroReferencePointIsLegal(t *testing.T) {
	p := filepath.Join(t.TempDir(), "origin.wcs")
	require.NoError(t, fitstest.WriteWCS(p, fitstest.WCSParams{ImageW: 10, ImageH: 10, CD11: 1, CD22: 1}))
	w, err := ReadWCS(p)
	require.NoError(t, err)
	assert.Zero(t, w.CRVal1)
}

func TestWCS_PixelScale(t *testing.T) {
	w := &WCS{CD11: 3e-4, CD22: 3e-4}
	assert.InDelta(t, 3e-4, w.PixelScale(), 1e-12)

	// A rotated solution has the same scale.
	rot := &WCS{CD11: 0, CD12: -3e-4, CD21: 3e-4, CD22: 0}
	assert.InDelta(t, 3e-4, rot.PixelScale(), 1e-12)
}

func TestWCS_FieldSizeUnits(t *testing.T) {
	cases := []struct {
		scale float64
		w, h  float64
		units string
	}{
		{2e-3, 1000, 800, "degrees"},     // 2 x 1.6 deg
		{1e-4, 1000, 800, "arcminutes"},  // 6 x 4.8 arcmin
		{1e-6, 1000, 800, "arcseconds"},  // 3.6 x 2.9 arcsec
	}
	for _, tc := range cases {
		w := &WCS{CD11: tc.scale, CD22: tc.scale, ImageW: tc.w, ImageH: tc.h}
		width, height, units := w.FieldSize()
		assert.Equal(t, tc.units, units)
		assert.InDelta(t, tc.w*tc.scale, width/factorFor(units), 1e-9)
		assert.InDelta(t, tc.h*tc.scale, height/factorFor(units), 1e-9)
	}
}

func factorFor(units string) float64 {
	switch units {
	case "arcminutes":
		return 60
	case "arcseconds":
		return 3600
	default:
		return 1
	}
}

func TestWCS_PixelToSkyWrapsRA(t *testing.T) {
	w := &WCS{CRVal1: 359.9, CRVal2: 0, CRPix1: 0, CRPix2: 0, CD11: 0.01, CD22: 0.01}
	ra, _ := w.PixelToSky(100, 0)
	assert.GreaterOrEqual(t, ra, 0.0)
	assert.Less(t, ra, 360.0)
	assert.InDelta(t, 0.9, ra, 0.01)
}

func TestRAToHMS(t *testing.T) {
	assert.Equal(t, "00:00:00.000", RAToHMS(0))
	assert.Equal(t, "01:00:00.000", RAToHMS(15))
	assert.Equal(t, "12:00:00.000", RAToHMS(180))
	assert.Equal(t, "05:34:31.920", RAToHMS(83.633))
	// Rounding at the top of the day wraps to zero.
	assert.Equal(t, "00:00:00.000", RAToHMS(359.9999999))
	// Negative input normalizes.
	assert.Equal(t, "23:00:00.000", RAToHMS(-15))
}

func TestDecToDMS(t *testing.T) {
	assert.Equal(t, "+00:00:00.00", DecToDMS(0))
	assert.Equal(t, "+22:00:52.20", DecToDMS(22.0145))
	assert.Equal(t, "-45:30:00.00", DecToDMS(-45.5))
	assert.Equal(t, "+90:00:00.00", DecToDMS(90))
}
