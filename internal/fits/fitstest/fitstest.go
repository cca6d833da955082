// Package fitstest writes minimal FITS files for tests: coordinate
// lists, WCS solution headers, and match tables.
package fitstest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
)

const blockSize = 2880

func card(key, value string) []byte {
	line := fmt.Sprintf("%-8s= %s", key, value)
	return pad80(line)
}

func bareCard(text string) []byte {
	return pad80(text)
}

func pad80(s string) []byte {
	b := make([]byte, 80)
	copy(b, s)
	for i := len(s); i < 80; i++ {
		b[i] = ' '
	}
	return b
}

func headerBlock(cards ...[]byte) []byte {
	var buf bytes.Buffer
	for _, c := range cards {
		buf.Write(c)
	}
	buf.Write(bareCard("END"))
	padBlock(&buf)
	return buf.Bytes()
}

func padBlock(buf *bytes.Buffer) {
	for buf.Len()%blockSize != 0 {
		buf.WriteByte(' ')
	}
}

func padData(buf *bytes.Buffer) {
	for buf.Len()%blockSize != 0 {
		buf.WriteByte(0)
	}
}

func primaryHeader(extra ...[]byte) []byte {
	cards := [][]byte{
		card("SIMPLE", "T"),
		card("BITPIX", "8"),
		card("NAXIS", "0"),
	}
	cards = append(cards, extra...)
	return headerBlock(cards...)
}

func binTableHeader(rowSize, rows int, fields [][2]string) []byte {
	cards := [][]byte{
		card("XTENSION", "'BINTABLE'"),
		card("BITPIX", "8"),
		card("NAXIS", "2"),
		card("NAXIS1", strconv.Itoa(rowSize)),
		card("NAXIS2", strconv.Itoa(rows)),
		card("PCOUNT", "0"),
		card("GCOUNT", "1"),
		card("TFIELDS", strconv.Itoa(len(fields))),
	}
	for i, f := range fields {
		n := strconv.Itoa(i + 1)
		cards = append(cards,
			card("TTYPE"+n, "'"+f[0]+"'"),
			card("TFORM"+n, "'"+f[1]+"'"))
	}
	return headerBlock(cards...)
}

// WriteXYList writes a coordinate list with n rows of float32 (x, y)
// pairs under the given column names.
func WriteXYList(path, xcol, ycol string, n int) error {
	var buf bytes.Buffer
	buf.Write(primaryHeader())
	buf.Write(binTableHeader(8, n, [][2]string{{xcol, "1E"}, {ycol, "1E"}}))
	for i := 0; i < n; i++ {
		binary.Write(&buf, binary.BigEndian, float32(10*i+1))
		binary.Write(&buf, binary.BigEndian, float32(10*i+2))
	}
	padData(&buf)
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// WCSParams are the header values WriteWCS records.
type WCSParams struct {
	CRVal1, CRVal2 float64
	CRPix1, CRPix2 float64
	CD11, CD12     float64
	CD21, CD22     float64
	ImageW, ImageH float64
}

func floatCard(key string, v float64) []byte {
	return card(key, strconv.FormatFloat(v, 'G', -1, 64))
}

// WriteWCS writes a header-only FITS file carrying a tangent-plane
// solution.
func WriteWCS(path string, p WCSParams) error {
	hdr := primaryHeader(
		floatCard("CRVAL1", p.CRVal1),
		floatCard("CRVAL2", p.CRVal2),
		floatCard("CRPIX1", p.CRPix1),
		floatCard("CRPIX2", p.CRPix2),
		floatCard("CD1_1", p.CD11),
		floatCard("CD1_2", p.CD12),
		floatCard("CD2_1", p.CD21),
		floatCard("CD2_2", p.CD22),
		floatCard("IMAGEW", p.ImageW),
		floatCard("IMAGEH", p.ImageH),
	)
	return os.WriteFile(path, hdr, 0o644)
}

// WriteMatch writes a match table holding one record: the quad dimension
// and up to len(pix) pixel coordinates.
func WriteMatch(path string, dim int, pix []float64) error {
	var buf bytes.Buffer
	buf.Write(primaryHeader())
	rowSize := 2 + 8*len(pix)
	fields := [][2]string{
		{"DIMQUADS", "1I"},
		{"QUADPIX", strconv.Itoa(len(pix)) + "D"},
	}
	buf.Write(binTableHeader(rowSize, 1, fields))
	binary.Write(&buf, binary.BigEndian, int16(dim))
	for _, v := range pix {
		binary.Write(&buf, binary.BigEndian, math.Float64bits(v))
	}
	padData(&buf)
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
