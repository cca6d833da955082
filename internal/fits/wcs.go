package fits

import (
	"fmt"
	"math"
)

// WCS is a tangent-plane World Coordinate System solution read from a
// solve-engine output header.
type WCS struct {
	CRVal1, CRVal2 float64 // sky reference point, degrees
	CRPix1, CRPix2 float64 // pixel reference point
	CD11, CD12     float64 // pixel-to-sky linear transform, degrees/pixel
	CD21, CD22     float64
	ImageW, ImageH float64 // field dimensions, pixels
}

// ReadWCS reads the WCS solution header written by the solve engine.
func ReadWCS(path string) (*WCS, error) {
	f, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read WCS header from %s: %w", path, err)
	}
	defer f.Close()

	hdus, err := f.HDUs()
	if err != nil {
		return nil, fmt.Errorf("failed to read WCS header from %s: %w", path, err)
	}
	h := hdus[0].Header

	w := &WCS{}
	var ok bool
	if w.CRVal1, ok = h.Float("CRVAL1"); !ok {
		return nil, fmt.Errorf("WCS header %s missing CRVAL1", path)
	}
	if w.CRVal2, ok = h.Float("CRVAL2"); !ok {
		return nil, fmt.Errorf("WCS header %s missing CRVAL2", path)
	}
	w.CRPix1, _ = h.Float("CRPIX1")
	w.CRPix2, _ = h.Float("CRPIX2")

	if w.CD11, ok = h.Float("CD1_1"); ok {
		w.CD12, _ = h.Float("CD1_2")
		w.CD21, _ = h.Float("CD2_1")
		w.CD22, _ = h.Float("CD2_2")
	} else {
		// Older headers carry per-axis scales instead of a CD matrix.
		cdelt1, ok1 := h.Float("CDELT1")
		cdelt2, ok2 := h.Float("CDELT2")
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("WCS header %s has neither CD matrix nor CDELT scales", path)
		}
		w.CD11, w.CD22 = cdelt1, cdelt2
	}

	if w.ImageW, ok = h.Float("IMAGEW"); !ok {
		if w.ImageW, ok = h.Float("NAXIS1"); !ok {
			return nil, fmt.Errorf("WCS header %s missing image width (IMAGEW)", path)
		}
	}
	if w.ImageH, ok = h.Float("IMAGEH"); !ok {
		if w.ImageH, ok = h.Float("NAXIS2"); !ok {
			return nil, fmt.Errorf("WCS header %s missing image height (IMAGEH)", path)
		}
	}
	return w, nil
}

// PixelToSky maps a pixel position to (RA, Dec) in degrees via the
// inverse gnomonic projection.
func (w *WCS) PixelToSky(px, py float64) (float64, float64) {
	u := px - w.CRPix1
	v := py - w.CRPix2
	xi := (w.CD11*u + w.CD12*v) * math.Pi / 180
	eta := (w.CD21*u + w.CD22*v) * math.Pi / 180

	ra0 := w.CRVal1 * math.Pi / 180
	dec0 := w.CRVal2 * math.Pi / 180

	denom := math.Cos(dec0) - eta*math.Sin(dec0)
	dra := math.Atan2(xi, denom)
	ra := ra0 + dra
	dec := math.Atan2((eta*math.Cos(dec0)+math.Sin(dec0))*math.Cos(dra), denom)

	raDeg := math.Mod(ra*180/math.Pi, 360)
	if raDeg < 0 {
		raDeg += 360
	}
	return raDeg, dec * 180 / math.Pi
}

// Center returns the sky coordinates of the field center in degrees.
func (w *WCS) Center() (float64, float64) {
	return w.PixelToSky(w.ImageW/2+0.5, w.ImageH/2+0.5)
}

// PixelScale returns the mean pixel scale in degrees per pixel.
func (w *WCS) PixelScale() float64 {
	det := w.CD11*w.CD22 - w.CD12*w.CD21
	return math.Sqrt(math.Abs(det))
}

// FieldSize returns the field width and height with an auto-selected
// unit: degrees, arcminutes, or arcseconds, whichever keeps the larger
// dimension at or above one.
func (w *WCS) FieldSize() (width, height float64, units string) {
	scale := w.PixelScale()
	width = w.ImageW * scale
	height = w.ImageH * scale

	larger := math.Max(width, height)
	switch {
	case larger >= 1:
		units = "degrees"
	case larger >= 1.0/60:
		width *= 60
		height *= 60
		units = "arcminutes"
	default:
		width *= 3600
		height *= 3600
		units = "arcseconds"
	}
	return width, height, units
}

// RAToHMS formats a right ascension in degrees as "HH:MM:SS.sss".
func RAToHMS(ra float64) string {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	totalMS := int64(math.Round(ra / 15 * 3600 * 1000))
	// Carrying can round 23:59:59.9995 up to 24h; wrap it.
	totalMS %= 24 * 3600 * 1000
	h := totalMS / (3600 * 1000)
	m := totalMS % (3600 * 1000) / (60 * 1000)
	s := float64(totalMS%(60*1000)) / 1000
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// DecToDMS formats a declination in degrees as "+DD:MM:SS.ss".
func DecToDMS(dec float64) string {
	sign := "+"
	if dec < 0 {
		sign = "-"
		dec = -dec
	}
	totalCS := int64(math.Round(dec * 3600 * 100))
	d := totalCS / (3600 * 100)
	m := totalCS % (3600 * 100) / (60 * 100)
	s := float64(totalCS%(60*100)) / 100
	return fmt.Sprintf("%s%02d:%02d:%05.2f", sign, d, m, s)
}
