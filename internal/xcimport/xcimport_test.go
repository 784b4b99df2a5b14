package xcimport

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/InformaticsMatters/fragalysis-api/internal/covalent"
	"github.com/InformaticsMatters/fragalysis-api/internal/ligand"
	"github.com/InformaticsMatters/fragalysis-api/internal/metrics"
	"github.com/InformaticsMatters/fragalysis-api/internal/registry"
	"github.com/InformaticsMatters/fragalysis-api/internal/resolve"
)

func input(name string) string {
	return path.Join("..", "..", "test", "input", name)
}

func engine(t *testing.T, opts Options) (*Engine, *metrics.Recorder) {
	t.Helper()
	if opts.Target == "" {
		opts.Target = "mpro"
	}
	if opts.Out == "" {
		opts.Out = t.TempDir()
	}
	opts.Quiet = true
	if !opts.StrictIsolation {
		opts.ConectTolerance = ligand.NoTolerance
	}
	if opts.MaxDistance == 0 {
		opts.MaxDistance = covalent.DefaultMaxDistance
	}
	rec := metrics.New()
	return New(opts, registry.Default(), resolve.NewToolkit(nil), rec), rec
}

func exists(t *testing.T, files ...string) {
	t.Helper()
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}
}

func TestRun(t *testing.T) {
	e, _ := engine(t, Options{Workers: 2})

	report, err := e.Run(context.Background(), Input{
		Path:       input("x0001_bound.pdb"),
		SmilesFile: input("x0001_smiles.txt"),
	})
	if err != nil {
		t.Fatal(err)
	}

	var keys, bases []string
	for _, l := range report.Ligands {
		keys = append(keys, l.Key)
		bases = append(bases, l.FileBase)
		if l.Status != StatusOK {
			t.Errorf("%s status = %s, want %s: %s", l.FileBase, l.Status, StatusOK, l.Error)
		}
		if l.BondOrders != resolve.Reference {
			t.Errorf("%s bond orders = %s, want %s", l.FileBase, l.BondOrders, resolve.Reference)
		}
	}
	if want := []string{"mpro-x0001_0", "mpro-x0001_1"}; !reflect.DeepEqual(bases, want) {
		t.Errorf("file bases = %v, want %v", bases, want)
	}
	if len(keys) != 2 || keys[0] == keys[1] {
		t.Errorf("keys = %v, want two distinct", keys)
	}

	dir := filepath.Join(report.Results, "mpro-x0001_0")
	exists(t,
		filepath.Join(dir, "mpro-x0001_0.pdb"),
		filepath.Join(dir, "mpro-x0001_0.mol"),
		filepath.Join(dir, "mpro-x0001_0.sdf"),
		filepath.Join(dir, "mpro-x0001_0_meta.csv"),
		filepath.Join(dir, "mpro-x0001_0_smiles.txt"),
		filepath.Join(dir, "mpro-x0001_0_bound.pdb"),
		filepath.Join(dir, "mpro-x0001_0_2fofc.map"),
		filepath.Join(dir, "mpro-x0001_0_event_1.ccp4"),
		filepath.Join(dir, "mpro-x0001_0_apo.pdb"),
		filepath.Join(dir, "mpro-x0001_0_apo-desolv.pdb"),
		filepath.Join(dir, "mpro-x0001_0_apo-solv.pdb"),
		filepath.Join(report.Results, "x0001_apo.pdb"),
		filepath.Join(report.Results, "x0001_apo-desolv.pdb"),
		filepath.Join(report.Results, "x0001_apo-solv.pdb"),
		report.Manifest,
	)

	f, err := os.Open(filepath.Join(dir, "mpro-x0001_0_meta.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"", "mpro-x0001_0", "mpro-x0001", "c1ccoc1", "", "", "", ""}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("meta rows = %v, want %v", rows, want)
	}

	mol, err := os.ReadFile(filepath.Join(dir, "mpro-x0001_0.mol"))
	if err != nil {
		t.Fatal(err)
	}
	if title := strings.SplitN(string(mol), "\n", 2)[0]; title != "mpro-x0001_0" {
		t.Errorf("molfile title = %q, want %q", title, "mpro-x0001_0")
	}
}

func TestRunManifest(t *testing.T) {
	e, _ := engine(t, Options{})

	report, err := e.Run(context.Background(), Input{
		Path:       input("x0001_bound.pdb"),
		SmilesFile: input("x0001_smiles.txt"),
	})
	if err != nil {
		t.Fatal(err)
	}

	contents, err := os.ReadFile(report.Manifest)
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(contents, &m); err != nil {
		t.Fatal(err)
	}

	if m.RunID != e.RunID() {
		t.Errorf("run ID = %q, want %q", m.RunID, e.RunID())
	}
	if len(m.Ligands) != 2 {
		t.Errorf("manifest has %d ligands, want 2", len(m.Ligands))
	}
	if len(m.Artifacts) != len(report.Artifacts()) {
		t.Errorf("manifest has %d artifacts, want %d", len(m.Artifacts), len(report.Artifacts()))
	}
	for _, a := range m.Artifacts {
		if len(a.Digest) != 64 {
			t.Errorf("%s digest = %q, want 64 hex characters", a.Path, a.Digest)
		}
		if filepath.IsAbs(a.Path) {
			t.Errorf("%s is absolute", a.Path)
		}
	}
}

func TestRunNoLigands(t *testing.T) {
	e, rec := engine(t, Options{})

	report, err := e.Run(context.Background(), Input{Path: input("x0002_bound.pdb")})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Ligands) != 0 {
		t.Errorf("got %d ligands, want 0", len(report.Ligands))
	}
	exists(t, report.Files...)

	entries, err := os.ReadDir(report.Results)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.IsDir() {
			t.Errorf("unexpected ligand directory %s", e.Name())
		}
	}

	expected := `
# HELP xcimport_structures_total Structure files processed, by outcome.
# TYPE xcimport_structures_total counter
xcimport_structures_total{status="ok"} 1
`
	if err := testutil.GatherAndCompare(rec.Gatherer(), strings.NewReader(expected), "xcimport_structures_total"); err != nil {
		t.Error(err)
	}
}

func TestRunGeometryFallback(t *testing.T) {
	e, _ := engine(t, Options{})

	report, err := e.Run(context.Background(), Input{Path: input("x0001_bound.pdb")})
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range report.Ligands {
		if l.Status != StatusOK || l.BondOrders != resolve.Geometry {
			t.Errorf("%s = %s/%s, want %s/%s", l.FileBase, l.Status, l.BondOrders, StatusOK, resolve.Geometry)
		}
		if l.Smiles == "" || l.Smiles == "NA" {
			t.Errorf("%s has no SMILES", l.FileBase)
		}
		if _, err := os.Stat(filepath.Join(l.Dir, l.FileBase+"_smiles.txt")); !os.IsNotExist(err) {
			t.Errorf("%s has a SMILES file without a reference", l.FileBase)
		}
	}
}

func TestRunCovalent(t *testing.T) {
	e, _ := engine(t, Options{Covalent: true})

	report, err := e.Run(context.Background(), Input{
		Path:       input("x0001_bound.pdb"),
		SmilesFile: input("x0001_smiles.txt"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Ligands[0].Covalent; got != string(covalent.Attached) {
		t.Errorf("covalent = %q, want %q", got, covalent.Attached)
	}

	mol, err := os.ReadFile(filepath.Join(report.Ligands[0].Dir, "mpro-x0001_0.mol"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mol), " S ") {
		t.Errorf("partner sulfur missing from molfile:\n%s", mol)
	}

	// the LINK names chain A's copy only
	if got := report.Ligands[1].Covalent; got != string(covalent.NoLink) {
		t.Errorf("second copy covalent = %q, want %q", got, covalent.NoLink)
	}
	mol, err = os.ReadFile(filepath.Join(report.Ligands[1].Dir, "mpro-x0001_1.mol"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(mol), " S ") {
		t.Errorf("second copy was bonded to chain A's cysteine:\n%s", mol)
	}
}

func TestRunMissingInput(t *testing.T) {
	e, _ := engine(t, Options{})
	if _, err := e.Run(context.Background(), Input{Path: input("missing.pdb")}); err == nil {
		t.Error("expected an error for a missing input")
	}
}

func TestRunMissingSmilesFile(t *testing.T) {
	e, _ := engine(t, Options{})

	report, err := e.Run(context.Background(), Input{
		Path:       input("x0001_bound.pdb"),
		SmilesFile: input("missing_smiles.txt"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Warnings) == 0 {
		t.Error("expected a warning for the missing SMILES file")
	}
	for _, l := range report.Ligands {
		if l.BondOrders == resolve.Reference {
			t.Errorf("%s used a reference template", l.FileBase)
		}
	}
}

// byKey indexes ligand reports by their residue key
func byKey(report *Report) map[string]LigandReport {
	out := make(map[string]LigandReport, len(report.Ligands))
	for _, l := range report.Ligands {
		out[l.Key] = l
	}
	return out
}

func TestRunIsolatesLigandFailures(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		badStatus  string
		badOrders  resolve.Path
		badMessage string
	}{
		{
			"molecule can't be built",
			Options{},
			StatusSkipped,
			resolve.Failed,
			"",
		},
		{
			"connectivity mismatch",
			Options{StrictIsolation: true, ConectTolerance: 0},
			StatusFailed,
			"",
			"atom and CONECT counts disagree",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := engine(t, tt.opts)

			report, err := e.Run(context.Background(), Input{Path: input("x0003_bound.pdb")})
			if err != nil {
				t.Fatal(err)
			}

			ligands := byKey(report)
			if len(ligands) != 3 {
				t.Fatalf("got %d ligands, want 3", len(ligands))
			}
			for _, key := range []string{"LIG A 501", "LIG B 502"} {
				l := ligands[key]
				if l.Status != StatusOK {
					t.Errorf("%s status = %s, want %s: %s", key, l.Status, StatusOK, l.Error)
				}
				exists(t, filepath.Join(l.Dir, l.FileBase+".mol"), filepath.Join(l.Dir, l.FileBase+"_apo.pdb"))
			}

			bad := ligands["BAD C 700"]
			if bad.Status != tt.badStatus {
				t.Errorf("BAD status = %s, want %s", bad.Status, tt.badStatus)
			}
			if bad.BondOrders != tt.badOrders {
				t.Errorf("BAD bond orders = %q, want %q", bad.BondOrders, tt.badOrders)
			}
			if !strings.Contains(bad.Error, tt.badMessage) {
				t.Errorf("BAD error = %q, want it to contain %q", bad.Error, tt.badMessage)
			}
			if _, err := os.Stat(filepath.Join(bad.Dir, bad.FileBase+".mol")); !os.IsNotExist(err) {
				t.Errorf("BAD has a molfile: %v", err)
			}

			exists(t, report.Files...)
			exists(t, report.Manifest)
			if got := report.Count(tt.badStatus); got != 1 {
				t.Errorf("Count(%s) = %d, want 1", tt.badStatus, got)
			}

			counts := []string{
				fmt.Sprintf("xcimport_ligands_total{status=%q} 1", tt.badStatus),
				`xcimport_ligands_total{status="ok"} 2`,
			}
			sort.Strings(counts)
			expected := "# HELP xcimport_ligands_total Ligand candidates processed, by outcome.\n" +
				"# TYPE xcimport_ligands_total counter\n" +
				strings.Join(counts, "\n") + "\n"
			if err := testutil.GatherAndCompare(rec.Gatherer(), strings.NewReader(expected), "xcimport_ligands_total"); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestRunBoundCopy(t *testing.T) {
	raw, err := os.ReadFile(input("x0001_bound.pdb"))
	if err != nil {
		t.Fatal(err)
	}

	gzPath := filepath.Join(t.TempDir(), "x0001_bound.pdb.gz")
	f, err := os.Create(gzPath)
	if err != nil {
		t.Fatal(err)
	}
	w := gzip.NewWriter(f)
	if _, err := w.Write(raw); err != nil {
		t.Fatal(err)
	}
	w.Close()
	f.Close()

	compressed, err := os.ReadFile(gzPath)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
		bound string
		want  []byte
	}{
		{"plain", input("x0001_bound.pdb"), "mpro-x0001_0_bound.pdb", raw},
		{"gzip", gzPath, "mpro-x0001_0_bound.pdb.gz", compressed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := engine(t, Options{})
			report, err := e.Run(context.Background(), Input{Path: tt.input})
			if err != nil {
				t.Fatal(err)
			}

			got, err := os.ReadFile(filepath.Join(report.Ligands[0].Dir, tt.bound))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("%s is not a byte copy of %s", tt.bound, tt.input)
			}
		})
	}
}
