// Package registry is the set of heteroatom residue codes that are never
// treated as ligands: solvents, ions and buffer components.
//
// A Registry is immutable once built and is passed explicitly to every
// component that needs it.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed nonligands.yaml
var defaultYAML []byte

// Entry is a single non-ligand residue
type Entry struct {
	// Code is the residue name as it appears in HETATM records
	Code string `yaml:"code"`

	// Name is a human readable description
	Name string `yaml:"name"`
}

type file struct {
	NonLigands []Entry `yaml:"nonligands"`
}

// Registry is an immutable set of non-ligand residue codes
type Registry struct {
	entries map[string]Entry
}

// New builds a registry from bare residue codes
func New(codes ...string) *Registry {
	r := &Registry{entries: make(map[string]Entry, len(codes))}
	for _, c := range codes {
		c = normalize(c)
		r.entries[c] = Entry{Code: c}
	}
	return r
}

// Default returns the registry built into the binary
func Default() *Registry {
	r, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded non-ligand registry is invalid: %v", err))
	}
	return r
}

// Load reads a registry from a YAML file. An empty path returns Default()
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read non-ligand registry: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse non-ligand registry %s: %w", path, err)
	}
	return r, nil
}

// Parse reads a registry document. The document is either a mapping with
// a "nonligands" list of {code, name} entries or a plain list of codes
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err == nil && len(f.NonLigands) > 0 {
		return fromEntries(f.NonLigands)
	}

	var codes []string
	if err := yaml.Unmarshal(data, &codes); err != nil {
		return nil, fmt.Errorf("failed to parse residue codes: %w", err)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("no residue codes")
	}
	return New(codes...), nil
}

func fromEntries(entries []Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for i, e := range entries {
		e.Code = normalize(e.Code)
		if e.Code == "" {
			return nil, fmt.Errorf("entry %d has no code", i)
		}
		r.entries[e.Code] = e
	}
	return r, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Contains returns whether the residue code is a non-ligand
func (r *Registry) Contains(code string) bool {
	_, ok := r.entries[normalize(code)]
	return ok
}

// Len is the number of codes
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns the registry's entries sorted by code
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})
	return out
}
