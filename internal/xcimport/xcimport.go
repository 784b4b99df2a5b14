// Package xcimport decomposes aligned crystal structures into per-ligand
// chemistry files and ligand-free protein files.
//
// For each input it writes, under <out>/<target>/aligned:
//
//	<fileBase>/           one directory per ligand, see LigandReport
//	<stem>_apo.pdb        the structure without its ligands
//	<stem>_apo-desolv.pdb the apo structure without solvent
//	<stem>_apo-solv.pdb   the solvent alone
//	<stem>_manifest.json  what was written, with digests
package xcimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/InformaticsMatters/fragalysis-api/internal/apo"
	"github.com/InformaticsMatters/fragalysis-api/internal/chem"
	"github.com/InformaticsMatters/fragalysis-api/internal/covalent"
	"github.com/InformaticsMatters/fragalysis-api/internal/ligand"
	"github.com/InformaticsMatters/fragalysis-api/internal/metrics"
	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
	"github.com/InformaticsMatters/fragalysis-api/internal/registry"
	"github.com/InformaticsMatters/fragalysis-api/internal/resolve"
)

var (
	// stderr is for logging to Stderr (without an annoying timestamp)
	stderr = log.New(os.Stderr, "", 0)
)

// Options are the settings of one run
type Options struct {
	// Target names the project, used in output paths and names
	Target string

	// Out is the output root
	Out string

	// Covalent attaches each ligand's LINKed protein atom
	Covalent bool

	// Monomerize names ligands of single-chain inputs
	Monomerize bool

	// Workers is the number of ligands processed at once
	Workers int

	// ConectTolerance and StrictIsolation set the atom/CONECT count check
	ConectTolerance int
	StrictIsolation bool

	// MaxDistance bounds the covalent partner search, in Angstroms
	MaxDistance float64

	// Suffixes name the apo files
	Suffixes apo.Suffixes

	// Quiet drops informational output. Warnings are always written
	Quiet bool
}

// Input is one structure file and its companion files
type Input struct {
	// Path is the PDB file, optionally gzip or zstd compressed
	Path string

	// SmilesFile is the reference SMILES of the structure's ligands.
	// Empty means none
	SmilesFile string

	// AnnotationFile holds lines spliced into apo files ahead of the
	// coordinates, ex: a biological assembly REMARK 350 block
	AnnotationFile string
}

// Engine runs the decomposition. It's safe to Run several structures
// with one Engine, one after another
type Engine struct {
	opts     Options
	reg      *registry.Registry
	resolver *resolve.Resolver
	metrics  *metrics.Recorder
	runID    string
	info     *log.Logger
}

// New creates an Engine. rec may be nil
func New(opts Options, reg *registry.Registry, toolkit resolve.Toolkit, rec *metrics.Recorder) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Suffixes == (apo.Suffixes{}) {
		opts.Suffixes = apo.DefaultSuffixes
	}
	if opts.Out == "" {
		opts.Out = "."
	}

	info := log.New(os.Stdout, "", 0)
	if opts.Quiet {
		info.SetOutput(io.Discard)
	}

	return &Engine{
		opts:     opts,
		reg:      reg,
		resolver: resolve.New(toolkit, rec),
		metrics:  rec,
		runID:    uuid.New().String(),
		info:     info,
	}
}

// RunID identifies this Engine's runs in their manifests
func (e *Engine) RunID() string {
	return e.runID
}

// Run decomposes one structure file. An error means the structure as a
// whole failed, ex: it couldn't be read. Ligand failures are in the
// report and never stop the others
func (e *Engine) Run(ctx context.Context, in Input) (*Report, error) {
	report, err := e.run(ctx, in)
	if err != nil {
		e.metrics.Structure("failed")
		return report, err
	}
	e.metrics.Structure("ok")
	return report, nil
}

func (e *Engine) run(ctx context.Context, in Input) (*Report, error) {
	input := in.Path
	results := ResultsDir(e.opts.Out, e.opts.Target)
	if err := os.MkdirAll(results, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results dir %s: %w", results, err)
	}

	s, err := pdb.Load(input)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: e.runID, Input: input, Results: results}

	smiles := ""
	if in.SmilesFile != "" {
		if smiles, err = readSmiles(in.SmilesFile); err != nil {
			report.warn("failed to read reference SMILES, continuing without it: %v", err)
		}
	}

	var annotation []pdb.Line
	if in.AnnotationFile != "" {
		if annotation, err = apo.ReadAnnotation(in.AnnotationFile); err != nil {
			report.warn("not attaching biomol annotation: %v", err)
		}
	}

	job := &job{
		Engine:     e,
		input:      input,
		structure:  s,
		smiles:     smiles,
		annotation: annotation,
		results:    results,
		isolator:   ligand.NewIsolator(s, e.opts.ConectTolerance, e.opts.StrictIsolation),
	}
	if e.opts.Covalent {
		job.covalent = covalent.New(s, e.opts.MaxDistance, e.metrics)
	}

	candidates := ligand.Identify(s, e.reg)
	e.info.Printf("%s: %d ligands", input, len(candidates))

	ligands := make([]LigandReport, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			ligands[i] = job.ligand(gctx, i, c)
			return nil
		})
	}
	g.Wait()
	report.Ligands = ligands

	stem := InputStem(input)
	p := apo.NewPartitioner(results, stem, e.opts.Suffixes, e.reg, annotation)
	if _, err := p.WriteApo(s); err != nil {
		return report, err
	}
	if err := p.WriteDesolvated(); err != nil {
		return report, err
	}
	apoPath, desolvPath, solvPath := p.Paths()
	report.Files = []string{apoPath, desolvPath, solvPath}

	report.Manifest = filepath.Join(results, stem+"_manifest.json")
	if err := writeManifest(report.Manifest, report); err != nil {
		return report, err
	}
	return report, ctx.Err()
}

// job is the shared, read-only state of one structure's ligands
type job struct {
	*Engine

	input      string
	structure  *pdb.Structure
	smiles     string
	annotation []pdb.Line
	results    string
	isolator   *ligand.Isolator
	covalent   *covalent.Handler
}

// ligand writes every artifact of one candidate
func (j *job) ligand(ctx context.Context, count int, c ligand.Candidate) LigandReport {
	fileBase := FileBase(j.opts.Target, j.input, count, j.opts.Monomerize)
	r := LigandReport{
		Key:      c.Key.String(),
		FileBase: fileBase,
		Dir:      filepath.Join(j.results, fileBase),
		Status:   StatusOK,
	}

	err := j.writeLigand(ctx, c, &r)
	switch {
	case errors.Is(err, errNoMolecule):
		r.Status = StatusSkipped
	case err != nil:
		r.Status = StatusFailed
		r.Error = err.Error()
		stderr.Printf("warning: %s (%s) failed: %v", fileBase, r.Key, err)
	}
	j.metrics.Ligand(r.Status)
	return r
}

// errNoMolecule stops a ligand whose molecule couldn't be built
var errNoMolecule = errors.New("no molecule")

func (j *job) writeLigand(ctx context.Context, c ligand.Candidate, r *LigandReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.Dir, err)
	}

	sub, err := j.isolator.Isolate(c)
	if err != nil {
		return err
	}
	isolated := filepath.Join(r.Dir, r.FileBase+".pdb")
	if err := pdb.WriteFile(isolated, sub.Lines()); err != nil {
		return err
	}
	r.add(isolated)

	res := j.resolver.Resolve(ctx, sub, j.smiles)
	r.BondOrders = res.Path
	if res.Err != nil {
		r.warn("%s: %v", r.FileBase, res.Err)
	}
	if res.Mol == nil {
		r.warn("molecule for %s is None, please check the input. Will not write any files", r.FileBase)
		return errNoMolecule
	}

	mol := res.Mol
	if j.covalent != nil {
		var outcome covalent.Outcome
		mol, outcome = j.covalent.Attach(mol, c.Key)
		r.Covalent = string(outcome)
	}
	mol = mol.Clone()
	mol.Name = r.FileBase

	bound := filepath.Join(r.Dir, BoundName(r.FileBase, j.input))
	if err := copyFile(j.input, bound); err != nil {
		return err
	}
	r.add(bound)

	maps, err := copyMaps(j.input, r.Dir, r.FileBase)
	r.add(maps...)
	if err != nil {
		r.warn("failed to copy maps of %s: %v", r.FileBase, err)
	}

	molPath, err := writeMolFile(r.Dir, r.FileBase, mol)
	if err != nil {
		return err
	}
	r.add(molPath)

	sdfPath, err := writeSDFile(r.Dir, r.FileBase, mol)
	if err != nil {
		return err
	}
	r.add(sdfPath)

	r.Smiles = j.smiles
	if j.smiles != "" {
		smilesPath, err := writeSmiles(r.Dir, r.FileBase, j.smiles)
		if err != nil {
			return err
		}
		r.add(smilesPath)
	} else if r.Smiles = chem.WriteSMILES(mol); r.Smiles == "" {
		r.Smiles = "NA"
	}
	metaPath, err := writeMetadata(r.Dir, r.FileBase, r.Smiles)
	if err != nil {
		return err
	}
	r.add(metaPath)

	p := apo.NewPartitioner(r.Dir, r.FileBase, j.opts.Suffixes, j.reg, j.annotation)
	if _, err := p.WriteApo(j.structure); err != nil {
		return err
	}
	if err := p.WriteDesolvated(); err != nil {
		return err
	}
	apoPath, desolvPath, solvPath := p.Paths()
	r.add(apoPath, desolvPath, solvPath)
	return nil
}
