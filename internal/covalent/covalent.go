// Package covalent attaches the protein atom a ligand is covalently bound
// to, as named by the structure's LINK records.
package covalent

import (
	"log"
	"os"
	"strconv"

	"github.com/InformaticsMatters/fragalysis-api/internal/chem"
	"github.com/InformaticsMatters/fragalysis-api/internal/ligand"
	"github.com/InformaticsMatters/fragalysis-api/internal/metrics"
	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
)

// stderr is for logging to Stderr (without an annoying timestamp)
var stderr = log.New(os.Stderr, "", 0)

// DefaultMaxDistance is the distance, in Angstroms, past which a ligand
// atom is never picked as the attachment point
const DefaultMaxDistance = 100.0

// Outcome is the result of an attachment attempt
type Outcome string

const (
	// Attached means one atom and one bond were added
	Attached Outcome = "attached"

	// NoLink means no LINK record names the ligand's residue
	NoLink Outcome = "no-link"

	// NoPartner means the linked protein atom isn't in the ATOM records
	NoPartner Outcome = "no-partner"

	// TooFar means no ligand atom is within the maximum distance
	TooFar Outcome = "too-far"
)

// Handler finds covalent partners within one structure
type Handler struct {
	links []pdb.Line
	atoms []pdb.Line

	// residues holds the HETATM residues present in the structure
	residues map[residue]bool

	// MaxDistance bounds the nearest-atom search
	MaxDistance float64

	metrics *metrics.Recorder
}

// New creates a Handler over a structure's LINK and ATOM records. rec may
// be nil
func New(s *pdb.Structure, maxDistance float64, rec *metrics.Recorder) *Handler {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	residues := make(map[residue]bool)
	for _, l := range s.Heteroatoms() {
		residues[residueOf(pdb.CoordinateEndpoint(l))] = true
	}
	return &Handler{
		links:       s.Links(),
		atoms:       s.Atoms(),
		residues:    residues,
		MaxDistance: maxDistance,
		metrics:     rec,
	}
}

// residue is the identity of one residue, without its atom name
type residue struct {
	name  string
	chain byte
	seq   int
	icode byte
}

func residueOf(e pdb.Endpoint) residue {
	return residue{name: e.ResName, chain: e.Chain, seq: e.ResSeq, icode: e.ICode}
}

// Link finds the LINK record for a ligand and returns the protein-side
// endpoint. A record naming the ligand's exact residue wins. Failing that,
// the first record in file order that shares the residue name is used, but
// only if the residue it names isn't in the structure: a link that belongs
// to another copy of the ligand is never borrowed. Links between two atoms
// of the ligand's residue type are ignored
func (h *Handler) Link(key ligand.Key) (pdb.Endpoint, bool) {
	seq, seqErr := strconv.Atoi(key.ResSeq)

	var byName *pdb.Endpoint
	for _, l := range h.links {
		a, b := pdb.LinkEndpoints(l)
		if a.ResName == key.ResName && b.ResName == key.ResName {
			continue
		}

		var lig, partner pdb.Endpoint
		switch key.ResName {
		case a.ResName:
			lig, partner = a, b
		case b.ResName:
			lig, partner = b, a
		default:
			continue
		}

		if seqErr == nil && lig.Chain == key.Chain && lig.ResSeq == seq && lig.ICode == key.ICode {
			return partner, true
		}
		if byName == nil && !h.residues[residueOf(lig)] {
			p := partner
			byName = &p
		}
	}
	if byName == nil {
		return pdb.Endpoint{}, false
	}
	return *byName, true
}

// Partner returns the ATOM record an endpoint names
func (h *Handler) Partner(e pdb.Endpoint) (pdb.Line, bool) {
	for _, l := range h.atoms {
		if pdb.CoordinateEndpoint(l).SameAtom(e) {
			return l, true
		}
	}
	return pdb.Line{}, false
}

// Nearest returns the index of the atom of mol closest to pos. Ties go to
// the earlier atom. -1 if no atom is within MaxDistance
func (h *Handler) Nearest(mol *chem.Molecule, pos [3]float64) int {
	best := -1
	bestDist := h.MaxDistance
	for i, a := range mol.Atoms {
		if d := chem.Distance(a.Pos, pos); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// Attach returns mol plus the protein atom it's linked to, bonded by a
// single bond to the nearest ligand atom. mol itself is never changed. If
// the ligand has no LINK record, mol is returned as it is
func (h *Handler) Attach(mol *chem.Molecule, key ligand.Key) (*chem.Molecule, Outcome) {
	out, outcome := h.attach(mol, key)
	h.metrics.Covalent(string(outcome))
	return out, outcome
}

func (h *Handler) attach(mol *chem.Molecule, key ligand.Key) (*chem.Molecule, Outcome) {
	endpoint, ok := h.Link(key)
	if !ok {
		return mol, NoLink
	}

	line, ok := h.Partner(endpoint)
	if !ok {
		stderr.Printf("warning: %s is linked to %q, which has no ATOM record. Skipping the covalent attachment", key, endpoint.Spec)
		return mol, NoPartner
	}
	partner, err := chem.FromPDBLines([]pdb.Line{line})
	if err != nil {
		stderr.Printf("warning: failed to read %s's covalent partner %q: %v", key, endpoint.Spec, err)
		return mol, NoPartner
	}
	atom := partner.Atoms[0]

	nearest := h.Nearest(mol, atom.Pos)
	if nearest < 0 {
		stderr.Printf("warning: no atom of %s is within %.1f A of %q. Skipping the covalent attachment", key, h.MaxDistance, endpoint.Spec)
		return mol, TooFar
	}

	out := mol.Clone()
	i := out.AddAtom(atom)
	if err := out.AddBond(nearest, i, chem.Single); err != nil {
		stderr.Printf("warning: failed to bond %s to %q: %v", key, endpoint.Spec, err)
		return mol, NoPartner
	}
	return out, Attached
}
