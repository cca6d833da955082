package fits

import (
	"fmt"
)

// DefaultXColumn and DefaultYColumn are the coordinate column names used
// when the caller supplies none.
const (
	DefaultXColumn = "X"
	DefaultYColumn = "Y"
)

// IsXYList reports whether path is a coordinate-list file: a FITS file
// with a binary-table extension carrying both coordinate columns. When it
// is not, the second return value explains why. Classification is pure
// inspection — a negative answer is never an error, it just routes the
// input through image preprocessing instead.
func IsXYList(path, xcol, ycol string) (bool, string) {
	if xcol == "" {
		xcol = DefaultXColumn
	}
	if ycol == "" {
		ycol = DefaultYColumn
	}

	f, err := Open(path)
	if err != nil {
		return false, err.Error()
	}
	defer f.Close()

	hdus, err := f.HDUs()
	if err != nil {
		return false, fmt.Sprintf("unreadable FITS structure: %v", err)
	}
	sawTable := false
	for _, hdu := range hdus {
		if !IsBinTable(hdu) {
			continue
		}
		sawTable = true
		t, err := TableOf(hdu)
		if err != nil {
			continue
		}
		if t.HasColumns(xcol, ycol) {
			return true, ""
		}
	}
	if sawTable {
		return false, fmt.Sprintf("no binary table has both columns %q and %q", xcol, ycol)
	}
	return false, "no binary table extension found"
}

// CountRows returns the row count of the first binary table in path that
// carries both coordinate columns.
func CountRows(path, xcol, ycol string) (int, error) {
	if xcol == "" {
		xcol = DefaultXColumn
	}
	if ycol == "" {
		ycol = DefaultYColumn
	}

	f, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	hdus, err := f.HDUs()
	if err != nil {
		return 0, err
	}
	for _, hdu := range hdus {
		if !IsBinTable(hdu) {
			continue
		}
		t, err := TableOf(hdu)
		if err != nil {
			continue
		}
		if t.HasColumns(xcol, ycol) {
			return t.Rows, nil
		}
	}
	return 0, fmt.Errorf("%s: no coordinate-list table found", path)
}
