package pdb

import (
	"strconv"
	"strings"
)

// LINK endpoint spans. Each covers atom name through insertion code, the
// same layout as columns 13-27 of a coordinate record
const (
	link1Start, link1End = 12, 27
	link2Start, link2End = 42, 57
	specLength           = link1End - link1Start
)

// Endpoint is one side of a LINK record, or the identity columns of a
// coordinate record
type Endpoint struct {
	// Spec is the raw 15-column specification, used for exact matching
	Spec string

	AtomName string
	ResName  string
	Chain    byte
	ResSeq   int
	ICode    byte
}

// parseEndpoint reads an endpoint from a 15-column specification
func parseEndpoint(spec string) Endpoint {
	spec = padRight(spec, specLength)
	e := Endpoint{
		Spec:     spec,
		AtomName: strings.TrimSpace(spec[0:4]),
		ResName:  strings.TrimSpace(spec[5:8]),
		Chain:    spec[9],
		ICode:    spec[14],
	}
	if n, err := strconv.Atoi(strings.TrimSpace(spec[10:14])); err == nil {
		e.ResSeq = n
	}
	return e
}

// LinkEndpoints returns both endpoints of a LINK record
func LinkEndpoints(l Line) (Endpoint, Endpoint) {
	return parseEndpoint(l.field(link1Start, link1End)), parseEndpoint(l.field(link2Start, link2End))
}

// CoordinateEndpoint returns the identity columns of a coordinate record
// in the same form as a LINK endpoint, so the two compare exactly
func CoordinateEndpoint(l Line) Endpoint {
	return parseEndpoint(l.field(nameStart, iCodeCol+1))
}

// SameAtom returns whether two endpoints name the same atom. The
// alternate location column is ignored
func (e Endpoint) SameAtom(o Endpoint) bool {
	return e.AtomName == o.AtomName &&
		e.ResName == o.ResName &&
		e.Chain == o.Chain &&
		e.ResSeq == o.ResSeq &&
		e.ICode == o.ICode
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
