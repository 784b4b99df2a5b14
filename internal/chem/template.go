package chem

import (
	"errors"
	"fmt"
)

// ErrNoTemplateMatch is returned when a template can't be mapped onto a
// molecule
var ErrNoTemplateMatch = errors.New("no template match")

// matchBudget bounds the backtracking search so symmetric molecules that
// don't match fail quickly
const matchBudget = 1 << 20

// AssignBondOrdersFromTemplate returns a copy of mol whose bond orders and
// formal charges are taken from a reference template. mol usually comes
// from a PDB block and has only single bonds.
//
// Only the template's largest fragment is used and hydrogens are ignored on
// both sides. Every template heavy atom must map onto a mol heavy atom of
// the same element with every template bond present in mol; mol may have
// extra atoms. Bonds outside the match keep their order
func AssignBondOrdersFromTemplate(template, mol *Molecule) (*Molecule, error) {
	tpl, err := prepareTemplate(template)
	if err != nil {
		return nil, err
	}

	heavy, heavyIndex := mol.subgraph(func(i int) bool {
		return mol.Atoms[i].Element != "H"
	})
	if len(tpl.Atoms) > len(heavy.Atoms) {
		return nil, fmt.Errorf("%w: template has %d heavy atoms, molecule has %d",
			ErrNoTemplateMatch, len(tpl.Atoms), len(heavy.Atoms))
	}

	mapping, ok := substructureMatch(tpl, heavy)
	if !ok {
		return nil, ErrNoTemplateMatch
	}

	// heavy subgraph index back to mol index
	molIndex := make([]int, len(heavy.Atoms))
	for orig, h := range heavyIndex {
		molIndex[h] = orig
	}

	out := mol.Clone()
	for t, h := range mapping {
		out.Atoms[molIndex[h]].Charge = tpl.Atoms[t].Charge
	}
	for _, b := range tpl.Bonds {
		i, j := molIndex[mapping[b.I]], molIndex[mapping[b.J]]
		if k := out.BondIndex(i, j); k >= 0 {
			out.Bonds[k].Order = b.Order
		}
	}
	return out, nil
}

// prepareTemplate keeps the largest fragment of a template, drops its
// hydrogens and kekulizes it
func prepareTemplate(template *Molecule) (*Molecule, error) {
	if template == nil || len(template.Atoms) == 0 {
		return nil, fmt.Errorf("%w: empty template", ErrNoTemplateMatch)
	}

	var largest []int
	for _, f := range template.fragments() {
		if len(f) > len(largest) {
			largest = f
		}
	}
	inLargest := make(map[int]bool, len(largest))
	for _, i := range largest {
		inLargest[i] = true
	}

	// hydrogens are folded into their neighbor's count before removal so
	// kekulization still sees them
	t := template.Clone()
	for _, b := range t.Bonds {
		for _, pair := range [2][2]int{{b.I, b.J}, {b.J, b.I}} {
			if t.Atoms[pair[0]].Element == "H" && t.Atoms[pair[1]].Element != "H" {
				heavy := &t.Atoms[pair[1]]
				if heavy.HCount < 0 {
					heavy.HCount = 0
				}
				heavy.HCount++
			}
		}
	}

	tpl, _ := t.subgraph(func(i int) bool {
		return inLargest[i] && t.Atoms[i].Element != "H"
	})
	if len(tpl.Atoms) == 0 {
		return nil, fmt.Errorf("%w: template has no heavy atoms", ErrNoTemplateMatch)
	}
	if err := tpl.Kekulize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTemplateMatch, err)
	}
	return tpl, nil
}

// substructureMatch maps every atom of pattern onto a distinct atom of
// target, preserving elements and bonds. The returned slice is indexed by
// pattern atom. Candidates are tried in ascending index order so the
// result is deterministic
func substructureMatch(pattern, target *Molecule) ([]int, bool) {
	pAdj := pattern.adjacency()
	tAdj := target.adjacency()

	tBonded := make(map[[2]int]bool, 2*len(target.Bonds))
	for _, b := range target.Bonds {
		tBonded[[2]int{b.I, b.J}] = true
		tBonded[[2]int{b.J, b.I}] = true
	}

	order, parent := matchOrder(pattern, pAdj)

	mapping := make([]int, len(pattern.Atoms))
	for i := range mapping {
		mapping[i] = -1
	}
	used := make([]bool, len(target.Atoms))
	steps := 0

	feasible := func(p, t int) bool {
		if used[t] || len(tAdj[t]) < len(pAdj[p]) {
			return false
		}
		pe, te := pattern.Atoms[p].Element, target.Atoms[t].Element
		if pe != "*" && pe != te {
			return false
		}
		for _, q := range pAdj[p] {
			if mapping[q] >= 0 && !tBonded[[2]int{t, mapping[q]}] {
				return false
			}
		}
		return true
	}

	all := make([]int, len(target.Atoms))
	for i := range all {
		all[i] = i
	}

	var extend func(n int) bool
	extend = func(n int) bool {
		if n == len(order) {
			return true
		}
		steps++
		if steps > matchBudget {
			return false
		}

		p := order[n]
		candidates := all
		if parent[p] >= 0 {
			candidates = tAdj[mapping[parent[p]]]
		}
		for _, t := range candidates {
			if !feasible(p, t) {
				continue
			}
			mapping[p] = t
			used[t] = true
			if extend(n + 1) {
				return true
			}
			mapping[p] = -1
			used[t] = false
		}
		return false
	}

	if !extend(0) {
		return nil, false
	}
	return mapping, true
}

// matchOrder returns pattern atoms in breadth-first order from each
// fragment's first atom, and each atom's already-ordered neighbor (-1 for
// fragment roots)
func matchOrder(pattern *Molecule, adj [][]int) ([]int, []int) {
	parent := make([]int, len(pattern.Atoms))
	seen := make([]bool, len(pattern.Atoms))
	var order []int
	for root := range pattern.Atoms {
		if seen[root] {
			continue
		}
		seen[root] = true
		parent[root] = -1
		queue := []int{root}
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			order = append(order, i)
			for _, n := range adj[i] {
				if !seen[n] {
					seen[n] = true
					parent[n] = i
					queue = append(queue, n)
				}
			}
		}
	}
	return order, parent
}
