package pdb

import (
	"fmt"
	"strconv"
	"strings"
)

// Column ranges of coordinate records as 0-based, end-exclusive offsets.
// In the format's 1-based terms: serial 7-11, atom name 13-16, altLoc 17,
// residue name 18-20, chain 22, residue number 23-26, insertion code 27,
// x/y/z 31-38/39-46/47-54, element 77-78, charge 79-80
const (
	serialStart, serialEnd   = 6, 11
	nameStart, nameEnd       = 12, 16
	altLocCol                = 16
	resNameStart, resNameEnd = 17, 20
	chainCol                 = 21
	resSeqStart, resSeqEnd   = 22, 26
	iCodeCol                 = 26
	xStart, xEnd             = 30, 38
	yStart, yEnd             = 38, 46
	zStart, zEnd             = 46, 54
	elementStart, elementEnd = 76, 78
	chargeStart, chargeEnd   = 78, 80
)

// Line is one immutable line of a structure file and its record type.
// Text never includes the line terminator
type Line struct {
	Text   string
	Record Record
}

// NewLine classifies a raw line
func NewLine(text string) Line {
	text = strings.TrimRight(text, "\r\n")
	return Line{Text: text, Record: Classify(text)}
}

// field returns the columns [start, end) of the line, clipped to its length
func (l Line) field(start, end int) string {
	if start >= len(l.Text) {
		return ""
	}
	if end > len(l.Text) {
		end = len(l.Text)
	}
	return l.Text[start:end]
}

// Serial is the atom serial number of a coordinate record, or the
// origin atom of a CONECT record
func (l Line) Serial() (int, error) {
	s := strings.TrimSpace(l.field(serialStart, serialEnd))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse atom serial %q: %w", s, err)
	}
	return n, nil
}

// AtomName is the trimmed atom name
func (l Line) AtomName() string {
	return strings.TrimSpace(l.field(nameStart, nameEnd))
}

// RawAtomName is the untrimmed 4-column atom name. Its alignment carries
// element information when the element columns are blank
func (l Line) RawAtomName() string {
	return l.field(nameStart, nameEnd)
}

// AltLoc is the alternate location indicator, ' ' if absent
func (l Line) AltLoc() byte {
	if altLocCol >= len(l.Text) {
		return ' '
	}
	return l.Text[altLocCol]
}

// ResName is the residue name, taken from the fixed residue-name columns
// and trimmed. This is the one rule used everywhere a residue code is
// needed; splitting on whitespace breaks for lines where the atom name
// runs into the residue name
func (l Line) ResName() string {
	return strings.TrimSpace(l.field(resNameStart, resNameEnd))
}

// ChainID is the chain identifier, ' ' if absent
func (l Line) ChainID() byte {
	if chainCol >= len(l.Text) {
		return ' '
	}
	return l.Text[chainCol]
}

// ResSeqText is the trimmed text of the residue number columns
func (l Line) ResSeqText() string {
	return strings.TrimSpace(l.field(resSeqStart, resSeqEnd))
}

// ICode is the residue insertion code, ' ' if absent
func (l Line) ICode() byte {
	if iCodeCol >= len(l.Text) {
		return ' '
	}
	return l.Text[iCodeCol]
}

// Coords are the x, y, z coordinates of a coordinate record
func (l Line) Coords() ([3]float64, error) {
	var xyz [3]float64
	cols := [3][2]int{{xStart, xEnd}, {yStart, yEnd}, {zStart, zEnd}}
	for i, c := range cols {
		s := strings.TrimSpace(l.field(c[0], c[1]))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return xyz, fmt.Errorf("failed to parse coordinate %q: %w", s, err)
		}
		xyz[i] = f
	}
	return xyz, nil
}

// Element is the trimmed element symbol from the element columns, empty
// for files that leave them blank
func (l Line) Element() string {
	return strings.TrimSpace(l.field(elementStart, elementEnd))
}

// Charge is the formal charge from the charge columns, ex "1-" is -1
func (l Line) Charge() int {
	s := strings.TrimSpace(l.field(chargeStart, chargeEnd))
	if len(s) != 2 {
		return 0
	}
	n := int(s[0] - '0')
	if n < 0 || n > 9 {
		return 0
	}
	switch s[1] {
	case '+':
		return n
	case '-':
		return -n
	}
	return 0
}

// String returns the raw text
func (l Line) String() string {
	return l.Text
}
