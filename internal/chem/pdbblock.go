package chem

import (
	"fmt"

	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
)

// proximity bonding thresholds. Two atoms closer than minBondLength are
// overlapping alternates, not bonded
const (
	minBondLength    = 0.4
	bondingTolerance = 0.45
)

// FixAtomNameAlignment blanks column 17 of a coordinate record. Some
// refinement programs let 4-character atom names run into that column,
// which then reads as an alternate location and splits the residue
func FixAtomNameAlignment(l pdb.Line) pdb.Line {
	if !l.Record.IsCoordinate() || len(l.Text) <= 16 {
		return l
	}
	return pdb.NewLine(l.Text[:16] + " " + l.Text[17:])
}

// FromPDBLines builds a molecule from ATOM/HETATM and CONECT records.
//
// Atoms are taken in record order. A repeated atom name within one residue
// is an alternate conformer and only the first is kept. Bonds come from the
// CONECT records, then every pair of atoms within covalent bonding distance
// that is not already bonded is joined. All bonds are single
func FromPDBLines(lines []pdb.Line) (*Molecule, error) {
	m := &Molecule{}
	serialIndex := make(map[int]int)
	named := make(map[string]int)
	var conects []pdb.Line

	for _, l := range lines {
		if l.Record == pdb.Conect {
			conects = append(conects, l)
			continue
		}
		if !l.Record.IsCoordinate() {
			continue
		}

		serial, err := l.Serial()
		if err != nil {
			return nil, err
		}
		resID := fmt.Sprintf("%s%c%s%c", l.ResName(), l.ChainID(), l.ResSeqText(), l.ICode())
		name := resID + "/" + l.AtomName()
		if i, alt := named[name]; alt {
			serialIndex[serial] = i
			continue
		}

		pos, err := l.Coords()
		if err != nil {
			return nil, fmt.Errorf("failed to read atom %d: %w", serial, err)
		}
		element := normalizeElement(l.Element())
		if element == "" {
			element = elementFromName(l.RawAtomName())
		}
		if element == "" {
			return nil, fmt.Errorf("failed to find the element of atom %d", serial)
		}

		i := m.AddAtom(Atom{
			Element: element,
			Name:    l.AtomName(),
			Serial:  serial,
			ResName: l.ResName(),
			Pos:     pos,
			Charge:  l.Charge(),
			HCount:  -1,
		})
		named[name] = i
		serialIndex[serial] = i
		if m.Name == "" {
			m.Name = l.ResName()
		}
	}

	if len(m.Atoms) == 0 {
		return nil, ErrEmpty
	}

	for _, pair := range pdb.NewConnectivityTable(conects).Bonds() {
		i, iok := serialIndex[pair[0]]
		j, jok := serialIndex[pair[1]]
		if !iok || !jok || i == j || m.BondIndex(i, j) >= 0 {
			continue
		}
		m.Bonds = append(m.Bonds, Bond{I: i, J: j, Order: Single})
	}

	perceiveProximityBonds(m)
	return m, nil
}

// perceiveProximityBonds joins atom pairs whose distance is within the sum
// of their covalent radii plus a tolerance
func perceiveProximityBonds(m *Molecule) {
	bonded := make(map[[2]int]bool, len(m.Bonds))
	for _, b := range m.Bonds {
		bonded[[2]int{b.I, b.J}] = true
		bonded[[2]int{b.J, b.I}] = true
	}

	for i := 0; i < len(m.Atoms); i++ {
		ri, ok := covalentRadii[m.Atoms[i].Element]
		if !ok {
			continue
		}
		for j := i + 1; j < len(m.Atoms); j++ {
			rj, ok := covalentRadii[m.Atoms[j].Element]
			if !ok || bonded[[2]int{i, j}] {
				continue
			}
			if m.Atoms[i].Element == "H" && m.Atoms[j].Element == "H" {
				continue
			}
			d := Distance(m.Atoms[i].Pos, m.Atoms[j].Pos)
			if d > minBondLength && d <= ri+rj+bondingTolerance {
				m.Bonds = append(m.Bonds, Bond{I: i, J: j, Order: Single})
				bonded[[2]int{i, j}] = true
				bonded[[2]int{j, i}] = true
			}
		}
	}
}
