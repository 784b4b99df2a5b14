package chem

import (
	"fmt"
	"strings"
)

// organic elements written without brackets when neutral
var organicWritable = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// WriteSMILES writes a Kekule SMILES string for the heavy atoms of a
// molecule. The walk is depth first from the lowest atom of each fragment,
// taking neighbors in index order, so the same graph always gives the same
// string. It isn't canonical across atom orderings
func WriteSMILES(m *Molecule) string {
	if m == nil || len(m.Atoms) == 0 {
		return ""
	}

	h, _ := m.subgraph(func(i int) bool { return m.Atoms[i].Element != "H" })
	if len(h.Atoms) == 0 {
		h = m
	}
	w := &smilesWriter{
		m:      h,
		adj:    h.adjacency(),
		parent: make([]int, len(h.Atoms)),
		seen:   make([]bool, len(h.Atoms)),
		ring:   make(map[int]bool),
		digits: make(map[int]int),
	}

	var frags []string
	for _, f := range h.fragments() {
		w.tree(f[0], -1)
		var sb strings.Builder
		w.emit(&sb, f[0], -1)
		frags = append(frags, sb.String())
	}
	return strings.Join(frags, ".")
}

type smilesWriter struct {
	m      *Molecule
	adj    [][]int
	parent []int
	seen   []bool

	// ring holds bond indices closed by ring-closure digits
	ring map[int]bool

	// digits holds the open ring digit of each ring bond
	digits map[int]int
	inUse  [100]bool
}

// tree walks the spanning tree and marks every non-tree bond as a ring bond
func (w *smilesWriter) tree(i, from int) {
	w.seen[i] = true
	w.parent[i] = from
	for _, n := range w.adj[i] {
		if n == from {
			continue
		}
		if w.seen[n] {
			w.ring[w.m.BondIndex(i, n)] = true
			continue
		}
		w.tree(n, i)
	}
}

func (w *smilesWriter) emit(sb *strings.Builder, i, from int) {
	sb.WriteString(w.atom(i))

	var children []int
	for _, n := range w.adj[i] {
		if n == from {
			continue
		}
		k := w.m.BondIndex(i, n)
		if w.ring[k] {
			if d, open := w.digits[k]; open {
				sb.WriteString(bondSymbol(w.m.Bonds[k].Order))
				sb.WriteString(ringDigit(d))
				delete(w.digits, k)
				w.inUse[d] = false
			} else {
				d := w.freeDigit()
				w.digits[k] = d
				w.inUse[d] = true
				sb.WriteString(ringDigit(d))
			}
			continue
		}
		if w.parent[n] == i {
			children = append(children, n)
		}
	}

	for c, n := range children {
		last := c == len(children)-1
		if !last {
			sb.WriteByte('(')
		}
		sb.WriteString(bondSymbol(w.m.Bonds[w.m.BondIndex(i, n)].Order))
		w.emit(sb, n, i)
		if !last {
			sb.WriteByte(')')
		}
	}
}

func (w *smilesWriter) freeDigit() int {
	for d := 1; d < len(w.inUse); d++ {
		if !w.inUse[d] {
			return d
		}
	}
	return 0
}

func (w *smilesWriter) atom(i int) string {
	a := w.m.Atoms[i]
	if a.Element == "*" {
		return "*"
	}

	hs := a.HCount
	if a.Charge == 0 && hs < 0 && organicWritable[a.Element] {
		return a.Element
	}
	if hs < 0 {
		hs = implicitHydrogens(a.Element, a.Charge, w.m.valence(i))
	}

	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(a.Element)
	switch {
	case hs == 1:
		sb.WriteByte('H')
	case hs > 1:
		fmt.Fprintf(&sb, "H%d", hs)
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		fmt.Fprintf(&sb, "+%d", a.Charge)
	case a.Charge < -1:
		fmt.Fprintf(&sb, "-%d", -a.Charge)
	}
	sb.WriteByte(']')
	return sb.String()
}

func bondSymbol(o Order) string {
	switch o {
	case Double:
		return "="
	case Triple:
		return "#"
	case Aromatic:
		return ":"
	}
	return ""
}

func ringDigit(d int) string {
	if d < 10 {
		return fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%%%02d", d)
}
