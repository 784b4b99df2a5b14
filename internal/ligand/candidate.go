// Package ligand finds the ligands of a structure and isolates each one's
// atoms and connectivity into a self-contained sub-structure.
package ligand

import (
	"fmt"
	"log"
	"os"

	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
	"github.com/InformaticsMatters/fragalysis-api/internal/registry"
)

// stderr is for logging to Stderr (without an annoying timestamp)
var stderr = log.New(os.Stderr, "", 0)

// Key is the identity of one residue instance within a structure. Two
// HETATM records with the same Key belong to the same ligand
type Key struct {
	ResName string
	Chain   byte
	// ResSeq is kept as the trimmed text of its columns so that
	// hybrid-36 or otherwise odd numbering still groups correctly
	ResSeq string
	ICode  byte
}

// KeyOf reads the residue identity of a coordinate record
func KeyOf(l pdb.Line) Key {
	return Key{
		ResName: l.ResName(),
		Chain:   l.ChainID(),
		ResSeq:  l.ResSeqText(),
		ICode:   l.ICode(),
	}
}

// String is the key as written in the record, ex: "LIG A 501"
func (k Key) String() string {
	s := fmt.Sprintf("%s %c %s", k.ResName, k.Chain, k.ResSeq)
	if k.ICode != ' ' {
		s += string(k.ICode)
	}
	return s
}

// Candidate is a possible ligand: one residue's HETATM records
type Candidate struct {
	Key Key

	// Lines are the candidate's HETATM records in file order
	Lines []pdb.Line
}

// Serials returns the set of atom serials of the candidate
func (c Candidate) Serials() map[int]bool {
	serials := make(map[int]bool, len(c.Lines))
	for _, l := range c.Lines {
		if s, err := l.Serial(); err == nil {
			serials[s] = true
		}
	}
	return serials
}

// FindHeteroRecords returns all HETATM lines of the structure
func FindHeteroRecords(s *pdb.Structure) []pdb.Line {
	return s.Heteroatoms()
}

// FilterNonLigands drops the records whose residue is in the registry
func FilterNonLigands(records []pdb.Line, reg *registry.Registry) []pdb.Line {
	var out []pdb.Line
	for _, l := range records {
		if !reg.Contains(l.ResName()) {
			out = append(out, l)
		}
	}
	return out
}

// GroupByKey folds records into one Candidate per Key. Candidates are in
// order of their first record. A record repeated verbatim is kept once
func GroupByKey(records []pdb.Line) []Candidate {
	index := make(map[Key]int)
	seen := make(map[Key]map[string]bool)
	var candidates []Candidate

	for _, l := range records {
		k := KeyOf(l)
		i, ok := index[k]
		if !ok {
			i = len(candidates)
			index[k] = i
			seen[k] = make(map[string]bool)
			candidates = append(candidates, Candidate{Key: k})
		}
		if seen[k][l.Text] {
			continue
		}
		seen[k][l.Text] = true
		candidates[i].Lines = append(candidates[i].Lines, l)
	}
	return candidates
}

// Identify returns the ligand candidates of a structure
func Identify(s *pdb.Structure, reg *registry.Registry) []Candidate {
	return GroupByKey(FilterNonLigands(FindHeteroRecords(s), reg))
}
