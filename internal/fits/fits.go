// Package fits reads the small slices of FITS files the driver needs:
// header cards (for WCS solutions), binary-table structure (to classify
// coordinate lists and count their rows), and the first row of a match
// table. It is deliberately not a general FITS library.
package fits

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// Card is one 80-byte header record, parsed.
type Card struct {
	Key     string
	Value   string // raw value text, quotes included for strings
	Comment string
}

// Header is an ordered list of cards up to (not including) END.
type Header struct {
	cards []Card
	index map[string]int // first occurrence wins
}

// Get returns the raw value text for key.
func (h *Header) Get(key string) (string, bool) {
	i, ok := h.index[key]
	if !ok {
		return "", false
	}
	return h.cards[i].Value, true
}

// Str returns a string-valued card with FITS quoting removed.
func (h *Header) Str(key string) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '\'' {
		v = strings.TrimSuffix(v[1:], "'")
		v = strings.ReplaceAll(v, "''", "'")
		// String values are space-padded to at least 8 characters.
		return strings.TrimRight(v, " "), true
	}
	return v, true
}

// Int returns an integer-valued card.
func (h *Header) Int(key string) (int64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float returns a floating-point-valued card. FITS allows Fortran "D"
// exponents, which are rewritten before parsing.
func (h *Header) Float(key string) (float64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	s := strings.TrimSpace(v)
	s = strings.ReplaceAll(strings.ReplaceAll(s, "D", "E"), "d", "e")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseCard(raw []byte) Card {
	key := strings.TrimRight(string(raw[:8]), " ")
	rest := string(raw[8:])
	if !strings.HasPrefix(rest, "= ") {
		return Card{Key: key, Comment: strings.TrimSpace(rest)}
	}
	rest = rest[2:]

	var value, comment string
	trimmed := strings.TrimLeft(rest, " ")
	if strings.HasPrefix(trimmed, "'") {
		// Quoted string: scan past doubled quotes for the terminator.
		end := -1
		for i := 1; i < len(trimmed); i++ {
			if trimmed[i] != '\'' {
				continue
			}
			if i+1 < len(trimmed) && trimmed[i+1] == '\'' {
				i++
				continue
			}
			end = i
			break
		}
		if end < 0 {
			value = trimmed
		} else {
			value = trimmed[:end+1]
			if slash := strings.Index(trimmed[end+1:], "/"); slash >= 0 {
				comment = strings.TrimSpace(trimmed[end+1+slash+1:])
			}
		}
	} else if slash := strings.Index(rest, "/"); slash >= 0 {
		value = strings.TrimSpace(rest[:slash])
		comment = strings.TrimSpace(rest[slash+1:])
	} else {
		value = strings.TrimSpace(rest)
	}
	return Card{Key: key, Value: value, Comment: comment}
}

// HDU is one header-data unit: its parsed header plus the location and
// size of its data area within the file.
type HDU struct {
	Header     *Header
	Primary    bool
	DataOffset int64
	DataSize   int64 // unpadded byte count
}

// File is an open FITS file positioned for random access.
type File struct {
	f    *os.File
	size int64
}

// Open opens path and validates the primary header magic.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	magic := make([]byte, 9)
	if _, err := f.ReadAt(magic, 0); err != nil || string(magic) != "SIMPLE  =" {
		f.Close()
		return nil, fmt.Errorf("%s: not a FITS file", path)
	}
	return &File{f: f, size: info.Size()}, nil
}

func (f *File) Close() error { return f.f.Close() }

// HDUs reads every header-data unit in order.
func (f *File) HDUs() ([]HDU, error) {
	var hdus []HDU
	var off int64
	for off < f.size {
		h, next, err := f.readHeader(off)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		primary := len(hdus) == 0
		size := dataSize(h, primary)
		hdus = append(hdus, HDU{Header: h, Primary: primary, DataOffset: next, DataSize: size})
		off = next + pad(size)
	}
	if len(hdus) == 0 {
		return nil, fmt.Errorf("no header found")
	}
	return hdus, nil
}

// ReadRow returns the idx-th row (0-based) of a binary table HDU with the
// given row size.
func (f *File) ReadRow(hdu HDU, rowSize, idx int) ([]byte, error) {
	buf := make([]byte, rowSize)
	offset := hdu.DataOffset + int64(idx)*int64(rowSize)
	if _, err := f.f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("reading table row %d: %w", idx, err)
	}
	return buf, nil
}

// readHeader parses header blocks starting at off and returns the header
// plus the offset of the byte after the final header block.
func (f *File) readHeader(off int64) (*Header, int64, error) {
	h := &Header{index: make(map[string]int)}
	block := make([]byte, blockSize)
	for {
		n, err := f.f.ReadAt(block, off)
		if n < blockSize {
			if err == io.EOF && len(h.cards) == 0 {
				return nil, 0, io.EOF
			}
			return nil, 0, fmt.Errorf("truncated FITS header at offset %d", off)
		}
		off += blockSize
		for c := 0; c < blockSize/cardSize; c++ {
			raw := block[c*cardSize : (c+1)*cardSize]
			card := parseCard(raw)
			if card.Key == "END" {
				return h, off, nil
			}
			if card.Key == "" || card.Key == "COMMENT" || card.Key == "HISTORY" {
				continue
			}
			if _, dup := h.index[card.Key]; !dup {
				h.index[card.Key] = len(h.cards)
			}
			h.cards = append(h.cards, card)
		}
	}
}

func dataSize(h *Header, primary bool) int64 {
	bitpix, _ := h.Int("BITPIX")
	naxis, _ := h.Int("NAXIS")
	if naxis == 0 {
		return 0
	}
	elems := int64(1)
	for i := int64(1); i <= naxis; i++ {
		n, ok := h.Int("NAXIS" + strconv.FormatInt(i, 10))
		if !ok {
			return 0
		}
		elems *= n
	}
	size := abs64(bitpix) / 8 * elems
	if !primary {
		gcount, ok := h.Int("GCOUNT")
		if !ok {
			gcount = 1
		}
		pcount, _ := h.Int("PCOUNT")
		size = abs64(bitpix) / 8 * gcount * (pcount + elems)
	}
	return size
}

func pad(n int64) int64 {
	if r := n % blockSize; r != 0 {
		return n + blockSize - r
	}
	return n
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
