package fits

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column describes one field of a binary table.
type Column struct {
	Name   string
	Repeat int
	Type   byte // TFORM type code: L B A I J K E D
	Offset int  // byte offset within a row
}

func typeSize(t byte) (int, bool) {
	switch t {
	case 'L', 'B', 'A', 'X':
		return 1, true
	case 'I':
		return 2, true
	case 'J', 'E':
		return 4, true
	case 'K', 'D':
		return 8, true
	case 'C', 'P':
		return 8, true
	case 'M', 'Q':
		return 16, true
	default:
		return 0, false
	}
}

// Table is the structure of one BINTABLE extension.
type Table struct {
	HDU     HDU
	Rows    int
	RowSize int
	Cols    []Column
}

// IsBinTable reports whether the HDU is a binary table extension.
func IsBinTable(hdu HDU) bool {
	x, ok := hdu.Header.Str("XTENSION")
	return ok && strings.EqualFold(strings.TrimSpace(x), "BINTABLE")
}

// TableOf parses the binary-table structure of an HDU.
func TableOf(hdu HDU) (*Table, error) {
	if !IsBinTable(hdu) {
		return nil, fmt.Errorf("HDU is not a binary table")
	}
	rowSize, ok := hdu.Header.Int("NAXIS1")
	if !ok {
		return nil, fmt.Errorf("binary table missing NAXIS1")
	}
	rows, ok := hdu.Header.Int("NAXIS2")
	if !ok {
		return nil, fmt.Errorf("binary table missing NAXIS2")
	}
	nfields, ok := hdu.Header.Int("TFIELDS")
	if !ok {
		return nil, fmt.Errorf("binary table missing TFIELDS")
	}

	t := &Table{HDU: hdu, Rows: int(rows), RowSize: int(rowSize)}
	offset := 0
	for i := int64(1); i <= nfields; i++ {
		suffix := strconv.FormatInt(i, 10)
		name, _ := hdu.Header.Str("TTYPE" + suffix)
		form, ok := hdu.Header.Str("TFORM" + suffix)
		if !ok {
			return nil, fmt.Errorf("binary table missing TFORM%s", suffix)
		}
		repeat, code, err := parseTForm(form)
		if err != nil {
			return nil, err
		}
		size, known := typeSize(code)
		if !known {
			return nil, fmt.Errorf("unsupported TFORM type %q in %q", string(code), form)
		}
		t.Cols = append(t.Cols, Column{
			Name:   strings.TrimSpace(name),
			Repeat: repeat,
			Type:   code,
			Offset: offset,
		})
		offset += repeat * size
	}
	return t, nil
}

// Col finds a column by name, case-insensitively.
func (t *Table) Col(name string) (Column, bool) {
	for _, c := range t.Cols {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumns reports whether every named column is present.
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if _, ok := t.Col(n); !ok {
			return false
		}
	}
	return true
}

func parseTForm(form string) (int, byte, error) {
	form = strings.TrimSpace(form)
	if form == "" {
		return 0, 0, fmt.Errorf("empty TFORM")
	}
	i := 0
	for i < len(form) && form[i] >= '0' && form[i] <= '9' {
		i++
	}
	repeat := 1
	if i > 0 {
		n, err := strconv.Atoi(form[:i])
		if err != nil {
			return 0, 0, fmt.Errorf("bad TFORM %q: %w", form, err)
		}
		repeat = n
	}
	if i == len(form) {
		return 0, 0, fmt.Errorf("bad TFORM %q: missing type code", form)
	}
	return repeat, form[i], nil
}

// Ints decodes the column's values from a row as integers.
func (c Column) Ints(row []byte) ([]int64, error) {
	size, _ := typeSize(c.Type)
	out := make([]int64, 0, c.Repeat)
	for i := 0; i < c.Repeat; i++ {
		b := row[c.Offset+i*size:]
		switch c.Type {
		case 'B', 'L':
			out = append(out, int64(b[0]))
		case 'I':
			out = append(out, int64(int16(binary.BigEndian.Uint16(b))))
		case 'J':
			out = append(out, int64(int32(binary.BigEndian.Uint32(b))))
		case 'K':
			out = append(out, int64(binary.BigEndian.Uint64(b)))
		default:
			return nil, fmt.Errorf("column %q is not integer-typed (%q)", c.Name, string(c.Type))
		}
	}
	return out, nil
}

// Floats decodes the column's values from a row as float64s.
func (c Column) Floats(row []byte) ([]float64, error) {
	size, _ := typeSize(c.Type)
	out := make([]float64, 0, c.Repeat)
	for i := 0; i < c.Repeat; i++ {
		b := row[c.Offset+i*size:]
		switch c.Type {
		case 'E':
			out = append(out, float64(math.Float32frombits(binary.BigEndian.Uint32(b))))
		case 'D':
			out = append(out, math.Float64frombits(binary.BigEndian.Uint64(b)))
		default:
			ints, err := c.Ints(row)
			if err != nil {
				return nil, fmt.Errorf("column %q is not numeric (%q)", c.Name, string(c.Type))
			}
			for _, v := range ints {
				out = append(out, float64(v))
			}
			return out, nil
		}
	}
	return out, nil
}
