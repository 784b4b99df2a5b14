// Package apo writes the ligand-free versions of a structure: the apo
// structure, the apo structure without solvent, and the solvent alone.
package apo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
	"github.com/InformaticsMatters/fragalysis-api/internal/registry"
)

// ErrApoNotGenerated is returned when the desolvated and solvent files are
// asked for before the apo structure exists
var ErrApoNotGenerated = errors.New("apo structure has not been generated")

// metadata records left out of apo files
var metadata = map[pdb.Record]bool{
	pdb.Conect: true,
	pdb.Remark: true,
	pdb.Cryst:  true,
	pdb.Seqres: true,
	pdb.Header: true,
	pdb.Title:  true,
	pdb.Anisou: true,
}

// Apo is a structure with its ligands removed
type Apo struct {
	Lines []pdb.Line
}

// MakeApo keeps every line of s except the HETATM records of residues
// missing from reg, which are the ligands, and the metadata records. If
// annotation is given it's spliced in ahead of the coordinates
func MakeApo(s *pdb.Structure, reg *registry.Registry, annotation []pdb.Line) *Apo {
	var lines []pdb.Line
	for _, l := range s.Lines {
		if l.Record == pdb.Hetatm && !reg.Contains(l.ResName()) {
			continue
		}
		if metadata[l.Record] {
			continue
		}
		lines = append(lines, l)
	}

	if len(annotation) > 0 {
		lines = SpliceAnnotation(lines, annotation)
	}
	return &Apo{Lines: lines}
}

// SpliceAnnotation splits lines into the header before the first
// coordinate record, the block through the last coordinate record, and the
// trailing records, then returns header + annotation + block + trailer
func SpliceAnnotation(lines, annotation []pdb.Line) []pdb.Line {
	first, last := -1, -1
	for i, l := range lines {
		if l.Record.IsCoordinate() {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		first, last = len(lines), len(lines)-1
	}

	out := make([]pdb.Line, 0, len(lines)+len(annotation))
	out = append(out, lines[:first]...)
	out = append(out, annotation...)
	out = append(out, lines[first:last+1]...)
	return append(out, lines[last+1:]...)
}

// MakeDesolvatedAndSolvent splits an apo structure in two: its HETATM
// records are the solvent, everything else is the desolvated protein
func MakeDesolvatedAndSolvent(a *Apo) (desolvated, solvent []pdb.Line, err error) {
	if a == nil {
		return nil, nil, ErrApoNotGenerated
	}
	for _, l := range a.Lines {
		if l.Record == pdb.Hetatm {
			solvent = append(solvent, l)
		} else {
			desolvated = append(desolvated, l)
		}
	}
	return desolvated, solvent, nil
}

// ReadAnnotation reads an annotation file, ex: a biological assembly
// REMARK 350 block, as lines to splice into apo files
func ReadAnnotation(path string) ([]pdb.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation %s: %w", path, err)
	}
	defer f.Close()

	var lines []pdb.Line
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, pdb.NewLine(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotation %s: %w", path, err)
	}
	return lines, nil
}

// Suffixes are appended to a base name to name the three files
type Suffixes struct {
	Apo    string
	Desolv string
	Solv   string
}

// DefaultSuffixes name files "<base>_apo.pdb", "<base>_apo-desolv.pdb" and
// "<base>_apo-solv.pdb"
var DefaultSuffixes = Suffixes{Apo: "_apo", Desolv: "_apo-desolv", Solv: "_apo-solv"}

// Partitioner writes the apo files of one structure under one base name.
// WriteApo must run before WriteDesolvated
type Partitioner struct {
	dir        string
	base       string
	suffixes   Suffixes
	reg        *registry.Registry
	annotation []pdb.Line

	apo *Apo
}

// NewPartitioner creates a Partitioner writing to dir/base<suffix>.pdb
func NewPartitioner(dir, base string, suffixes Suffixes, reg *registry.Registry, annotation []pdb.Line) *Partitioner {
	return &Partitioner{
		dir:        dir,
		base:       base,
		suffixes:   suffixes,
		reg:        reg,
		annotation: annotation,
	}
}

// Paths returns the apo, desolvated and solvent file paths
func (p *Partitioner) Paths() (apo, desolv, solv string) {
	name := func(suffix string) string {
		return filepath.Join(p.dir, p.base+suffix+".pdb")
	}
	return name(p.suffixes.Apo), name(p.suffixes.Desolv), name(p.suffixes.Solv)
}

// WriteApo builds and writes the apo file
func (p *Partitioner) WriteApo(s *pdb.Structure) (*Apo, error) {
	a := MakeApo(s, p.reg, p.annotation)
	path, _, _ := p.Paths()
	if err := pdb.WriteFile(path, a.Lines); err != nil {
		return nil, err
	}
	p.apo = a
	return a, nil
}

// WriteDesolvated writes the desolvated and solvent files from the apo
// structure written earlier. It fails with ErrApoNotGenerated, and writes
// nothing, if WriteApo hasn't succeeded
func (p *Partitioner) WriteDesolvated() error {
	desolvated, solvent, err := MakeDesolvatedAndSolvent(p.apo)
	if err != nil {
		return fmt.Errorf("failed to write desolvated files for %s: %w", p.base, err)
	}

	_, desolvPath, solvPath := p.Paths()
	if err := pdb.WriteFile(desolvPath, desolvated); err != nil {
		return err
	}
	return pdb.WriteFile(solvPath, solvent)
}
