package ligand

import (
	"errors"
	"fmt"

	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
)

// ErrConnectivityMismatch is returned by a strict Isolator when the number
// of CONECT records differs from the number of atoms by more than the
// tolerance
var ErrConnectivityMismatch = errors.New("atom and CONECT counts disagree")

// NoTolerance disables the atom/CONECT count check
const NoTolerance = -1

// Substructure is a candidate's atom records plus every CONECT record that
// names at least one of its atoms. Membership is best-effort: a CONECT
// record bridging the ligand and the protein is included whole
type Substructure struct {
	Candidate Candidate

	// Atoms are the candidate's HETATM records
	Atoms []pdb.Line

	// Conects are the CONECT records referencing the atoms, in file order
	Conects []pdb.Line
}

// Lines are the atoms followed by the connectivity, the layout of an
// isolated ligand file
func (s Substructure) Lines() []pdb.Line {
	out := make([]pdb.Line, 0, len(s.Atoms)+len(s.Conects))
	out = append(out, s.Atoms...)
	return append(out, s.Conects...)
}

// Delta is the CONECT count minus the atom count
func (s Substructure) Delta() int {
	return len(s.Conects) - len(s.Atoms)
}

// Isolator cuts candidates out of one structure
type Isolator struct {
	conects []pdb.Line

	// Tolerance is the largest accepted |Delta()|, or NoTolerance
	Tolerance int

	// Strict turns a count mismatch into ErrConnectivityMismatch.
	// Otherwise the mismatch is only logged
	Strict bool
}

// NewIsolator returns an Isolator over a structure's CONECT records
func NewIsolator(s *pdb.Structure, tolerance int, strict bool) *Isolator {
	return &Isolator{
		conects:   s.Conects(),
		Tolerance: tolerance,
		Strict:    strict,
	}
}

// Isolate collects a candidate's atoms and the CONECT records that
// reference them
func (i *Isolator) Isolate(c Candidate) (Substructure, error) {
	sub := Substructure{
		Candidate: c,
		Atoms:     append([]pdb.Line(nil), c.Lines...),
	}

	serials := c.Serials()
	added := make(map[string]bool)
	for _, l := range i.conects {
		if added[l.Text] || !pdb.References(l, serials) {
			continue
		}
		added[l.Text] = true
		sub.Conects = append(sub.Conects, l)
	}

	if i.Tolerance == NoTolerance {
		return sub, nil
	}
	if d := sub.Delta(); d > i.Tolerance || -d > i.Tolerance {
		err := fmt.Errorf("%w: %s has %d atoms and %d CONECT records",
			ErrConnectivityMismatch, c.Key, len(sub.Atoms), len(sub.Conects))
		if i.Strict {
			return sub, err
		}
		stderr.Printf("warning: %v", err)
	}
	return sub, nil
}
