// Package pdb keeps a structure file as an ordered list of classified,
// fixed-column text lines. Nothing here builds an object model of the
// structure: lines are only filtered and recombined so that every record
// written back out keeps its original formatting.
package pdb

import "strings"

// Record is the record type of a line, read from its leading keyword
type Record int

const (
	// Other is any line without a recognized keyword (TER, END, MODEL, ...)
	Other Record = iota

	// Header is a HEADER record
	Header

	// Title is a TITLE record
	Title

	// Cryst is a CRYST1 record, the unit cell
	Cryst

	// Seqres is a SEQRES record
	Seqres

	// Remark is a REMARK record
	Remark

	// Atom is a standard-residue coordinate record
	Atom

	// Hetatm is a heteroatom coordinate record
	Hetatm

	// Anisou is an anisotropic temperature factor record
	Anisou

	// Conect is a connectivity record
	Conect

	// Link is a LINK record, an annotated inter-residue bond
	Link
)

// keywords in match order. CRYST is a prefix so CRYST1 and any odd
// CRYST variants classify the same way
var keywords = []struct {
	prefix string
	record Record
}{
	{"HETATM", Hetatm},
	{"ATOM", Atom},
	{"CONECT", Conect},
	{"LINK", Link},
	{"ANISOU", Anisou},
	{"REMARK", Remark},
	{"HEADER", Header},
	{"TITLE", Title},
	{"CRYST", Cryst},
	{"SEQRES", Seqres},
}

var recordNames = map[Record]string{
	Other:  "OTHER",
	Header: "HEADER",
	Title:  "TITLE",
	Cryst:  "CRYST",
	Seqres: "SEQRES",
	Remark: "REMARK",
	Atom:   "ATOM",
	Hetatm: "HETATM",
	Anisou: "ANISOU",
	Conect: "CONECT",
	Link:   "LINK",
}

func (r Record) String() string {
	return recordNames[r]
}

// Classify returns the record type of a raw line. It is a pure function of
// the leading keyword
func Classify(text string) Record {
	for _, k := range keywords {
		if strings.HasPrefix(text, k.prefix) {
			return k.record
		}
	}
	return Other
}

// IsCoordinate returns whether the record carries atom coordinates
func (r Record) IsCoordinate() bool {
	return r == Atom || r == Hetatm
}
