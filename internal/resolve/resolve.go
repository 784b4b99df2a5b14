// Package resolve turns an isolated ligand into a molecule with bond
// orders. A reference SMILES is tried first, then the chemical component
// dictionary, then bonds perceived from geometry alone.
package resolve

import (
	"context"
	"fmt"

	"github.com/InformaticsMatters/fragalysis-api/internal/chem"
	"github.com/InformaticsMatters/fragalysis-api/internal/chemcomp"
	"github.com/InformaticsMatters/fragalysis-api/internal/ligand"
	"github.com/InformaticsMatters/fragalysis-api/internal/metrics"
	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
)

// Path is where a molecule's bond orders came from
type Path string

const (
	// Reference is a template from a SMILES supplied with the structure
	Reference Path = "reference"

	// Dictionary is a template looked up by residue code
	Dictionary Path = "dictionary"

	// Geometry is the crude molecule with bonds perceived from the block,
	// all single
	Geometry Path = "geometry"

	// Failed means no molecule could be built
	Failed Path = "failed"
)

// Toolkit is the chemistry the resolver drives
type Toolkit interface {
	// LookupByCode returns a reference SMILES for a residue code
	LookupByCode(ctx context.Context, code string) (string, error)

	// AssignFromTemplate returns a copy of mol with bond orders from the
	// template SMILES
	AssignFromTemplate(mol *chem.Molecule, smiles string) (*chem.Molecule, error)
}

// ChemToolkit is the Toolkit backed by internal/chem and a dictionary lookup
type ChemToolkit struct {
	lookup chemcomp.Lookup
}

// NewToolkit creates a ChemToolkit. lookup may be nil, in which case every
// code is unknown
func NewToolkit(lookup chemcomp.Lookup) *ChemToolkit {
	return &ChemToolkit{lookup: lookup}
}

// LookupByCode asks the dictionary for the code's SMILES
func (t *ChemToolkit) LookupByCode(ctx context.Context, code string) (string, error) {
	if t.lookup == nil {
		return "", fmt.Errorf("%w: %s (no lookup)", chemcomp.ErrUnknownCode, code)
	}
	return t.lookup.Smiles(ctx, code)
}

// AssignFromTemplate parses the SMILES, maps it onto mol and checks the
// result's valences
func (t *ChemToolkit) AssignFromTemplate(mol *chem.Molecule, smiles string) (*chem.Molecule, error) {
	tpl, err := chem.ParseSMILES(smiles)
	if err != nil {
		return nil, err
	}
	out, err := chem.AssignBondOrdersFromTemplate(tpl, mol)
	if err != nil {
		return nil, err
	}
	if err := chem.Sanitize(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Result is the outcome of resolving one ligand. Mol is nil when Path is
// Failed. Err is why the preferred paths were passed over, nil when the
// first path tried worked
type Result struct {
	Mol      *chem.Molecule
	Path     Path
	Template string
	Err      error
}

// Resolver builds ligand molecules
type Resolver struct {
	toolkit Toolkit
	metrics *metrics.Recorder
}

// New creates a Resolver. rec may be nil
func New(toolkit Toolkit, rec *metrics.Recorder) *Resolver {
	return &Resolver{toolkit: toolkit, metrics: rec}
}

// Resolve builds a molecule for sub. smiles is the reference SMILES
// supplied with the structure, "" if none. A supplied reference is the
// only template tried; the dictionary is consulted only without one.
// Failures never escape as errors: the result is the geometry molecule or
// a Failed result with a nil Mol
func (r *Resolver) Resolve(ctx context.Context, sub ligand.Substructure, smiles string) Result {
	res := r.resolve(ctx, sub, smiles)
	r.metrics.BondOrders(string(res.Path))
	return res
}

func (r *Resolver) resolve(ctx context.Context, sub ligand.Substructure, smiles string) Result {
	block := FixedBlock(sub)
	crude, err := chem.FromPDBLines(block)
	if err != nil {
		return Result{Path: Failed, Err: fmt.Errorf("failed to read %s: %w", sub.Candidate.Key, err)}
	}
	if crude.Name == "" {
		crude.Name = sub.Candidate.Key.ResName
	}

	var reason error
	if smiles != "" {
		mol, err := r.toolkit.AssignFromTemplate(crude, smiles)
		if err == nil {
			return Result{Mol: mol, Path: Reference, Template: smiles}
		}
		reason = fmt.Errorf("failed to fit reference template %q: %w", smiles, err)
	} else {
		code := sub.Candidate.Key.ResName
		tpl, err := r.toolkit.LookupByCode(ctx, code)
		if err == nil {
			mol, err := r.toolkit.AssignFromTemplate(crude, tpl)
			if err == nil {
				return Result{Mol: mol, Path: Dictionary, Template: tpl}
			}
			reason = fmt.Errorf("failed to fit %s template %q: %w", code, tpl, err)
		} else {
			reason = fmt.Errorf("failed to look up %s: %w", code, err)
		}
	}

	mol := crude.Clone()
	if err := chem.Sanitize(mol); err != nil {
		return Result{Path: Failed, Err: fmt.Errorf("%v; geometry fallback: %w", reason, err)}
	}
	return Result{Mol: mol, Path: Geometry, Err: reason}
}

// FixedBlock is the substructure's lines with 4-character atom names
// realigned
func FixedBlock(sub ligand.Substructure) []pdb.Line {
	lines := sub.Lines()
	fixed := make([]pdb.Line, len(lines))
	for i, l := range lines {
		fixed[i] = chem.FixAtomNameAlignment(l)
	}
	return fixed
}
