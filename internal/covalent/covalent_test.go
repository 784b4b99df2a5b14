package covalent

import (
	"path"
	"strings"
	"testing"

	"github.com/InformaticsMatters/fragalysis-api/internal/chem"
	"github.com/InformaticsMatters/fragalysis-api/internal/ligand"
	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
	"github.com/InformaticsMatters/fragalysis-api/internal/registry"
)

var (
	keyA = ligand.Key{ResName: "LIG", Chain: 'A', ResSeq: "501", ICode: ' '}
	keyB = ligand.Key{ResName: "LIG", Chain: 'B', ResSeq: "502", ICode: ' '}
)

func load(t *testing.T, name string) *pdb.Structure {
	t.Helper()
	s, err := pdb.Load(path.Join("..", "..", "test", "input", name))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// molecules builds the crude molecule of every ligand in the structure
func molecules(t *testing.T, s *pdb.Structure) map[ligand.Key]*chem.Molecule {
	t.Helper()
	mols := make(map[ligand.Key]*chem.Molecule)
	iso := ligand.NewIsolator(s, ligand.NoTolerance, false)
	for _, c := range ligand.Identify(s, registry.Default()) {
		sub, err := iso.Isolate(c)
		if err != nil {
			t.Fatal(err)
		}
		m, err := chem.FromPDBLines(sub.Lines())
		if err != nil {
			t.Fatal(err)
		}
		mols[c.Key] = m
	}
	return mols
}

func TestHandler_Attach(t *testing.T) {
	s := load(t, "x0001_bound.pdb")
	mols := molecules(t, s)

	tests := []struct {
		name        string
		key         ligand.Key
		maxDistance float64
		want        Outcome
		wantAtoms   int
	}{
		{"linked ligand", keyA, DefaultMaxDistance, Attached, 6},
		{"linked ligand out of range", keyA, 0.5, TooFar, 5},
		{"another copy's link isn't borrowed", keyB, DefaultMaxDistance, NoLink, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mol := mols[tt.key]
			h := New(s, tt.maxDistance, nil)

			got, outcome := h.Attach(mol, tt.key)
			if outcome != tt.want {
				t.Fatalf("Attach() = %s, want %s", outcome, tt.want)
			}
			if len(got.Atoms) != tt.wantAtoms {
				t.Errorf("Attach() has %d atoms, want %d", len(got.Atoms), tt.wantAtoms)
			}
			if len(got.Bonds)-len(mol.Bonds) != tt.wantAtoms-len(mol.Atoms) {
				t.Errorf("Attach() added %d bonds for %d atoms", len(got.Bonds)-len(mol.Bonds), tt.wantAtoms-len(mol.Atoms))
			}
			if len(mol.Atoms) != 5 {
				t.Errorf("Attach() changed its input")
			}
		})
	}
}

func TestHandler_Attach_partner(t *testing.T) {
	s := load(t, "x0001_bound.pdb")
	mol := molecules(t, s)[keyA]

	got, _ := New(s, 0, nil).Attach(mol, keyA)
	added := got.Atoms[len(got.Atoms)-1]
	if added.Element != "S" || added.Name != "SG" || added.Serial != 10 {
		t.Errorf("Attach() added %+v, want SG 10", added)
	}
	if want := [3]float64{4.4, 5.2, 1.3}; added.Pos != want {
		t.Errorf("Attach() partner at %v, want %v", added.Pos, want)
	}

	bond := got.Bonds[len(got.Bonds)-1]
	if bond.Order != chem.Single {
		t.Errorf("Attach() bond order %d, want single", bond.Order)
	}
	if got.Atoms[bond.Other(len(got.Atoms)-1)].Name != "C1" {
		t.Errorf("Attach() bonded to %s, want C1", got.Atoms[bond.Other(len(got.Atoms)-1)].Name)
	}
}

func TestHandler_Attach_noLink(t *testing.T) {
	s := load(t, "x0002_bound.pdb")
	mol, err := chem.ParseSMILES("c1ccoc1")
	if err != nil {
		t.Fatal(err)
	}

	got, outcome := New(s, 0, nil).Attach(mol, keyA)
	if outcome != NoLink {
		t.Errorf("Attach() = %s, want %s", outcome, NoLink)
	}
	if got != mol {
		t.Errorf("Attach() without a link returned a different molecule")
	}
}

func TestHandler_Link(t *testing.T) {
	s := load(t, "x0001_bound.pdb")
	h := New(s, 0, nil)

	link := h.links[0].Text
	toB := strings.Replace(strings.Replace(link, "LIG A 501", "LIG B 502", 1), "SG  CYS", "CB  CYS", 1)
	intra := strings.Replace(link, "SG  CYS A  10", "C2  LIG A 501", 1)
	toAbsent := strings.Replace(strings.Replace(link, "LIG A 501", "LIG D 504", 1), "SG  CYS", "CA  CYS", 1)
	h.links = []pdb.Line{pdb.NewLine(intra), pdb.NewLine(toB), h.links[0], pdb.NewLine(toAbsent)}

	tests := []struct {
		name string
		key  ligand.Key
		want string
		ok   bool
	}{
		{"exact residue A", keyA, "SG", true},
		{"exact residue B", keyB, "CB", true},
		{"by name, skipping residues present", ligand.Key{ResName: "LIG", Chain: 'C', ResSeq: "503", ICode: ' '}, "CA", true},
		{"unlinked residue", ligand.Key{ResName: "SO4", Chain: 'A', ResSeq: "401", ICode: ' '}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := h.Link(tt.key)
			if ok != tt.ok || e.AtomName != tt.want {
				t.Errorf("Link() = %q %v, want %q %v", e.AtomName, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestHandler_Nearest_ties(t *testing.T) {
	mol := &chem.Molecule{}
	mol.AddAtom(chem.Atom{Element: "C", Pos: [3]float64{1, 0, 0}})
	mol.AddAtom(chem.Atom{Element: "C", Pos: [3]float64{-1, 0, 0}})
	mol.AddAtom(chem.Atom{Element: "C", Pos: [3]float64{0, 1, 0}})

	h := &Handler{MaxDistance: DefaultMaxDistance}
	if got := h.Nearest(mol, [3]float64{}); got != 0 {
		t.Errorf("Nearest() = %d, want the first of the tied atoms", got)
	}

	h.MaxDistance = 0.5
	if got := h.Nearest(mol, [3]float64{}); got != -1 {
		t.Errorf("Nearest() = %d, want -1 past the max distance", got)
	}
}
