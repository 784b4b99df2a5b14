package chem

import (
	"errors"
)

// ErrKekulize is returned when aromatic bonds can't be given alternating
// single and double orders
var ErrKekulize = errors.New("can't kekulize aromatic system")

// Kekulize replaces aromatic bonds with single and double bonds so that
// every aromatic atom that needs one gets exactly one double bond. The
// search is deterministic: the first valid assignment in atom order wins
func (m *Molecule) Kekulize() error {
	var aromatic []int
	for k, b := range m.Bonds {
		if b.Order == Aromatic {
			aromatic = append(aromatic, k)
		}
	}
	if len(aromatic) == 0 {
		return nil
	}

	// aromatic bonds of each atom, in bond order
	incident := make(map[int][]int)
	for _, k := range aromatic {
		b := m.Bonds[k]
		incident[b.I] = append(incident[b.I], k)
		incident[b.J] = append(incident[b.J], k)
	}

	needs := make(map[int]bool)
	var atoms []int
	for i := range m.Atoms {
		if _, ok := incident[i]; !ok {
			continue
		}
		if m.needsDouble(i) {
			needs[i] = true
			atoms = append(atoms, i)
		}
	}

	double := make(map[int]bool)
	covered := make(map[int]bool)
	var match func(n int) bool
	match = func(n int) bool {
		for n < len(atoms) && covered[atoms[n]] {
			n++
		}
		if n == len(atoms) {
			return true
		}
		i := atoms[n]
		for _, k := range incident[i] {
			j := m.Bonds[k].Other(i)
			if !needs[j] || covered[j] {
				continue
			}
			covered[i], covered[j], double[k] = true, true, true
			if match(n + 1) {
				return true
			}
			covered[i], covered[j], double[k] = false, false, false
		}
		return false
	}
	if !match(0) {
		return ErrKekulize
	}

	for _, k := range aromatic {
		if double[k] {
			m.Bonds[k].Order = Double
		} else {
			m.Bonds[k].Order = Single
		}
	}
	return nil
}

// needsDouble returns whether an atom of an aromatic system takes one of
// its double bonds
func (m *Molecule) needsDouble(i int) bool {
	a := m.Atoms[i]

	degree := 0
	for _, b := range m.Bonds {
		if b.I != i && b.J != i {
			continue
		}
		if b.Order == Double || b.Order == Triple {
			// exocyclic double bond, ex: the carbonyl of a pyridone
			return false
		}
		degree++
	}
	if a.HCount > 0 {
		degree += a.HCount
	}

	switch a.Element {
	case "C":
		return a.Charge == 0
	case "N", "P":
		if a.Charge == 1 {
			return true
		}
		return a.Charge == 0 && degree == 2
	case "O", "S", "Se":
		return a.Charge == 1
	case "B":
		return a.Charge == -1
	}
	return false
}
