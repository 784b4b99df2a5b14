package xcimport

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/InformaticsMatters/fragalysis-api/config"
	"github.com/InformaticsMatters/fragalysis-api/internal/apo"
	"github.com/InformaticsMatters/fragalysis-api/internal/chemcomp"
	"github.com/InformaticsMatters/fragalysis-api/internal/metrics"
	"github.com/InformaticsMatters/fragalysis-api/internal/registry"
	"github.com/InformaticsMatters/fragalysis-api/internal/resolve"
)

// batchPattern finds structure files under a batch directory
const batchPattern = "**/*.{pdb,pdb.gz,pdb.zst}"

// ExtractCmd decomposes the structure file given by the "in" flag
func ExtractCmd(cmd *cobra.Command, args []string) {
	c, err := config.New()
	if err != nil {
		stderr.Fatal(err)
	}

	in, err := parseInput(cmd)
	if err != nil {
		cmd.Help()
		stderr.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := Extract(ctx, c, in); err != nil {
		stderr.Fatal(err)
	}
}

// BatchCmd decomposes every structure file under the "in" directory
func BatchCmd(cmd *cobra.Command, args []string) {
	c, err := config.New()
	if err != nil {
		stderr.Fatal(err)
	}

	dir, err := cmd.Flags().GetString("in")
	if err != nil || dir == "" {
		cmd.Help()
		stderr.Fatal("no input directory")
	}
	annotation, _ := cmd.Flags().GetString("biomol")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed, err := Batch(ctx, c, dir, annotation)
	if err != nil {
		stderr.Fatal(err)
	}
	if failed > 0 {
		stderr.Fatalf("%d structures failed", failed)
	}
}

// NonligandsCmd lists the residue codes never treated as ligands
func NonligandsCmd(cmd *cobra.Command, args []string) {
	c, err := config.New()
	if err != nil {
		stderr.Fatal(err)
	}
	reg, err := loadRegistry(c)
	if err != nil {
		stderr.Fatal(err)
	}

	// from https://golang.org/pkg/text/tabwriter/
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
	for _, e := range reg.Entries() {
		fmt.Fprintf(w, "%s\t%s\n", e.Code, e.Name)
	}
	w.Flush()
}

// parseInput gathers an extract command's input files from its flags.
// Without a "smiles" flag the SMILES file beside the input is used, if
// there is one
func parseInput(cmd *cobra.Command) (Input, error) {
	var in Input
	var err error

	if in.Path, err = cmd.Flags().GetString("in"); err != nil || in.Path == "" {
		return in, fmt.Errorf("no input structure")
	}
	if in.SmilesFile, err = cmd.Flags().GetString("smiles"); err != nil {
		return in, fmt.Errorf("failed to parse smiles flag: %v", err)
	}
	if in.SmilesFile == "" {
		in.SmilesFile = companionSmiles(in.Path)
	}
	if in.AnnotationFile, err = cmd.Flags().GetString("biomol"); err != nil {
		return in, fmt.Errorf("failed to parse biomol flag: %v", err)
	}
	return in, nil
}

// companionSmiles is the SMILES file beside an input, or "" if there's none
func companionSmiles(input string) string {
	path := DefaultSmilesPath(input)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// setup builds an Engine from settings. The returned func releases the
// engine's resources and writes its metrics
func setup(c *config.Config) (*Engine, func() error, error) {
	if c.Target == "" {
		return nil, nil, fmt.Errorf("no target name")
	}

	reg, err := loadRegistry(c)
	if err != nil {
		return nil, nil, err
	}

	rec := metrics.New()
	client, err := chemcomp.New(chemcomp.Options{
		URL:       c.ChemComp.URL,
		Timeout:   c.ChemComp.Timeout,
		Retries:   c.ChemComp.Retries,
		Offline:   c.ChemComp.Offline,
		CachePath: c.ChemComp.Cache,
		CacheSize: c.ChemComp.CacheSize,
		Metrics:   rec,
	})
	if err != nil {
		return nil, nil, err
	}

	e := New(Options{
		Target:          c.Target,
		Out:             c.Out,
		Covalent:        c.Covalent,
		Monomerize:      c.Monomerize,
		Workers:         c.Workers,
		ConectTolerance: c.Isolate.ConectTolerance,
		StrictIsolation: c.Isolate.Strict,
		MaxDistance:     c.CovalentLink.MaxDistance,
		Suffixes:        suffixes(c.Suffix),
		Quiet:           c.Quiet,
	}, reg, resolve.NewToolkit(client), rec)

	done := func() error {
		if err := client.Close(); err != nil {
			return fmt.Errorf("failed to close chemical component cache: %w", err)
		}
		if err := rec.WriteTextfile(c.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics to %s: %w", c.MetricsFile, err)
		}
		return nil
	}
	return e, done, nil
}

// suffixes maps the configured apo file suffixes, keeping the default of
// any left empty
func suffixes(s config.SuffixConfig) apo.Suffixes {
	out := apo.DefaultSuffixes
	if s.Apo != "" {
		out.Apo = s.Apo
	}
	if s.Desolv != "" {
		out.Desolv = s.Desolv
	}
	if s.Solv != "" {
		out.Solv = s.Solv
	}
	return out
}

// loadRegistry returns the configured non-ligand registry, the built-in
// one by default
func loadRegistry(c *config.Config) (*registry.Registry, error) {
	if c.Nonligands == "" {
		return registry.Default(), nil
	}
	return registry.Load(c.Nonligands)
}

// Extract decomposes one structure file
func Extract(ctx context.Context, c *config.Config, in Input) error {
	e, done, err := setup(c)
	if err != nil {
		return err
	}

	report, err := e.Run(ctx, in)
	if derr := done(); err == nil {
		err = derr
	}
	if err != nil {
		return fmt.Errorf("failed to extract ligands from %s: %w", in.Path, err)
	}

	e.info.Printf("%s: %d written, %d skipped, %d failed (%s)",
		in.Path, report.Count(StatusOK), report.Count(StatusSkipped), report.Count(StatusFailed), report.Manifest)
	return nil
}

// Batch decomposes every structure file under dir, one after another.
// A failed structure is logged and the rest continue. It returns the
// number of failed structures
func Batch(ctx context.Context, c *config.Config, dir, annotation string) (int, error) {
	inputs, err := findInputs(dir)
	if err != nil {
		return 0, err
	}
	if len(inputs) == 0 {
		return 0, fmt.Errorf("no structure files in %s", dir)
	}

	e, done, err := setup(c)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, input := range inputs {
		if ctx.Err() != nil {
			break
		}
		in := Input{Path: input, SmilesFile: companionSmiles(input), AnnotationFile: annotation}
		report, err := e.Run(ctx, in)
		if err != nil {
			stderr.Printf("warning: failed to extract ligands from %s: %v", input, err)
			failed++
			continue
		}
		e.info.Printf("%s: %d written, %d skipped, %d failed",
			input, report.Count(StatusOK), report.Count(StatusSkipped), report.Count(StatusFailed))
	}

	if err := done(); err != nil {
		return failed, err
	}
	return failed, ctx.Err()
}

// findInputs lists the structure files under dir, sorted
func findInputs(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), batchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", dir, err)
	}

	inputs := make([]string, len(matches))
	for i, m := range matches {
		inputs[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	sort.Strings(inputs)
	return inputs, nil
}
