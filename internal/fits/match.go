package fits

import (
	"fmt"
)

// Match is the first recorded catalog match of a solved field: the
// geometric quad that won, as pixel coordinates.
type Match struct {
	// DimQuads is the number of stars in the matched shape (usually 4).
	DimQuads int

	// QuadPix holds the pixel coordinates of the matched stars as
	// x,y pairs: 2*DimQuads values.
	QuadPix []float64
}

// FirstMatch reads the first match record from a match file.
func FirstMatch(path string) (*Match, error) {
	f, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read match file: %w", err)
	}
	defer f.Close()

	hdus, err := f.HDUs()
	if err != nil {
		return nil, fmt.Errorf("failed to read match file %s: %w", path, err)
	}
	for _, hdu := range hdus {
		if !IsBinTable(hdu) {
			continue
		}
		t, err := TableOf(hdu)
		if err != nil {
			continue
		}
		if !t.HasColumns("DIMQUADS", "QUADPIX") {
			continue
		}
		if t.Rows == 0 {
			return nil, fmt.Errorf("match file %s contains no match records", path)
		}
		row, err := f.ReadRow(hdu, t.RowSize, 0)
		if err != nil {
			return nil, err
		}

		dimCol, _ := t.Col("DIMQUADS")
		dims, err := dimCol.Ints(row)
		if err != nil || len(dims) == 0 {
			return nil, fmt.Errorf("match file %s: unreadable DIMQUADS column", path)
		}
		dim := int(dims[0])

		quadCol, _ := t.Col("QUADPIX")
		pix, err := quadCol.Floats(row)
		if err != nil {
			return nil, fmt.Errorf("match file %s: unreadable QUADPIX column", path)
		}
		if dim < 2 || 2*dim > len(pix) {
			return nil, fmt.Errorf("match file %s: quad dimension %d inconsistent with %d pixel values", path, dim, len(pix))
		}
		return &Match{DimQuads: dim, QuadPix: pix[:2*dim]}, nil
	}
	return nil, fmt.Errorf("match file %s has no match table", path)
}
