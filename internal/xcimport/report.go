package xcimport

import (
	"fmt"

	"github.com/InformaticsMatters/fragalysis-api/internal/resolve"
)

// ligand statuses
const (
	// StatusOK is a ligand with every artifact written
	StatusOK = "ok"

	// StatusSkipped is a ligand without a molecule. Only its isolated
	// PDB file is written
	StatusSkipped = "skipped"

	// StatusFailed is a ligand that hit an error
	StatusFailed = "failed"
)

// LigandReport is the outcome of one ligand. Its directory holds:
//
//	<fileBase>.pdb              the isolated atoms and CONECT records
//	<fileBase>.mol, .sdf        the molecule
//	<fileBase>_meta.csv         the metadata row
//	<fileBase>_smiles.txt       the reference SMILES, if one was given
//	<fileBase>_bound.pdb[.gz]   a byte copy of the input structure
//	<fileBase>_*.map, *.ccp4    the input's density maps
//	<fileBase>_apo*.pdb         apo files of the input
type LigandReport struct {
	Key      string `json:"key"`
	FileBase string `json:"fileBase"`
	Dir      string `json:"-"`
	Status   string `json:"status"`

	BondOrders resolve.Path `json:"bondOrders,omitempty"`
	Covalent   string       `json:"covalent,omitempty"`
	Smiles     string       `json:"smiles,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`

	files []string
}

func (r *LigandReport) add(files ...string) {
	r.files = append(r.files, files...)
}

// warn logs a warning and keeps it in the report
func (r *LigandReport) warn(format string, args ...interface{}) {
	w := fmt.Sprintf(format, args...)
	stderr.Printf("warning: %s", w)
	r.Warnings = append(r.Warnings, w)
}

// Files are the files written for the ligand
func (r *LigandReport) Files() []string {
	return r.files
}

// Report is the outcome of one structure
type Report struct {
	RunID   string
	Input   string
	Results string

	Ligands []LigandReport

	// Files are the structure's apo, desolvated and solvent files
	Files []string

	// Manifest is the path of the written manifest
	Manifest string

	Warnings []string
}

func (r *Report) warn(format string, args ...interface{}) {
	w := fmt.Sprintf(format, args...)
	stderr.Printf("warning: %s", w)
	r.Warnings = append(r.Warnings, w)
}

// Artifacts are every file written for the structure except the manifest
func (r *Report) Artifacts() []string {
	var out []string
	for _, l := range r.Ligands {
		out = append(out, l.Files()...)
	}
	return append(out, r.Files...)
}

// Count returns the number of ligands with a status
func (r *Report) Count(status string) int {
	n := 0
	for _, l := range r.Ligands {
		if l.Status == status {
			n++
		}
	}
	return n
}
