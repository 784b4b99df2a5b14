// Package chem is a small molecular-graph toolkit: atoms with 3D
// positions, bonds with orders, and the conversions the ligand pipeline
// needs between PDB blocks, SMILES templates and MDL files.
package chem

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Order is a bond order. Values match MDL molfile bond types
type Order int

const (
	// Single bond
	Single Order = 1

	// Double bond
	Double Order = 2

	// Triple bond
	Triple Order = 3

	// Aromatic bond, only present in templates before kekulization
	Aromatic Order = 4
)

// ErrEmpty is returned when a molecule would have no atoms
var ErrEmpty = errors.New("no atoms")

// Atom is a single atom of a Molecule
type Atom struct {
	// Element symbol with normal capitalization, ex: "Cl"
	Element string

	// Name, Serial and ResName are carried over from the PDB record the
	// atom was read from. They're empty for template atoms
	Name    string
	Serial  int
	ResName string

	// Pos is the atom's 3D position in Angstroms
	Pos [3]float64

	// Charge is the formal charge
	Charge int

	// Aromatic marks atoms written in lowercase in a SMILES template
	Aromatic bool

	// HCount is the hydrogen count of a SMILES bracket atom, -1 where
	// hydrogens are implicit
	HCount int
}

// Bond joins atoms I and J
type Bond struct {
	I, J  int
	Order Order
}

// Other returns the atom across the bond from atom i
func (b Bond) Other(i int) int {
	if b.I == i {
		return b.J
	}
	return b.I
}

// Molecule is a molecular graph
type Molecule struct {
	Name  string
	Atoms []Atom
	Bonds []Bond
}

// AddAtom appends an atom and returns its index
func (m *Molecule) AddAtom(a Atom) int {
	m.Atoms = append(m.Atoms, a)
	return len(m.Atoms) - 1
}

// AddBond joins two atoms. Self bonds and duplicate bonds are refused
func (m *Molecule) AddBond(i, j int, o Order) error {
	if i == j {
		return fmt.Errorf("failed to bond atom %d to itself", i)
	}
	if i < 0 || j < 0 || i >= len(m.Atoms) || j >= len(m.Atoms) {
		return fmt.Errorf("failed to bond %d-%d: %d atoms", i, j, len(m.Atoms))
	}
	if m.BondIndex(i, j) >= 0 {
		return fmt.Errorf("atoms %d and %d are already bonded", i, j)
	}
	m.Bonds = append(m.Bonds, Bond{I: i, J: j, Order: o})
	return nil
}

// BondIndex returns the index of the bond between i and j, or -1
func (m *Molecule) BondIndex(i, j int) int {
	for k, b := range m.Bonds {
		if (b.I == i && b.J == j) || (b.I == j && b.J == i) {
			return k
		}
	}
	return -1
}

// adjacency returns the neighbor lists of every atom, each sorted
func (m *Molecule) adjacency() [][]int {
	adj := make([][]int, len(m.Atoms))
	for _, b := range m.Bonds {
		adj[b.I] = append(adj[b.I], b.J)
		adj[b.J] = append(adj[b.J], b.I)
	}
	for _, n := range adj {
		sort.Ints(n)
	}
	return adj
}

// valence is the sum of bond orders at atom i. Aromatic bonds count as one
func (m *Molecule) valence(i int) int {
	v := 0
	for _, b := range m.Bonds {
		if b.I != i && b.J != i {
			continue
		}
		if b.Order == Aromatic {
			v++
		} else {
			v += int(b.Order)
		}
	}
	return v
}

// Clone returns a deep copy
func (m *Molecule) Clone() *Molecule {
	return &Molecule{
		Name:  m.Name,
		Atoms: append([]Atom(nil), m.Atoms...),
		Bonds: append([]Bond(nil), m.Bonds...),
	}
}

// Distance is the Euclidean distance between two positions
func Distance(a, b [3]float64) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// subgraph returns the molecule restricted to the atoms in keep (in
// ascending index order) and the map from old to new indices
func (m *Molecule) subgraph(keep func(i int) bool) (*Molecule, map[int]int) {
	out := &Molecule{Name: m.Name}
	index := make(map[int]int)
	for i, a := range m.Atoms {
		if keep(i) {
			index[i] = out.AddAtom(a)
		}
	}
	for _, b := range m.Bonds {
		i, iok := index[b.I]
		j, jok := index[b.J]
		if iok && jok {
			out.Bonds = append(out.Bonds, Bond{I: i, J: j, Order: b.Order})
		}
	}
	return out, index
}

// fragments returns the connected components of the molecule, each as
// ascending atom indices, ordered by their lowest atom
func (m *Molecule) fragments() [][]int {
	adj := m.adjacency()
	seen := make([]bool, len(m.Atoms))
	var frags [][]int
	for start := range m.Atoms {
		if seen[start] {
			continue
		}
		var frag []int
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			frag = append(frag, i)
			for _, n := range adj[i] {
				if !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		sort.Ints(frag)
		frags = append(frags, frag)
	}
	return frags
}
