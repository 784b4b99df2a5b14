package ligand

import (
	"errors"
	"path"
	"reflect"
	"testing"

	"github.com/InformaticsMatters/fragalysis-api/internal/pdb"
	"github.com/InformaticsMatters/fragalysis-api/internal/registry"
)

var fixture = path.Join("..", "..", "test", "input", "x0001_bound.pdb")

func loadFixture(t *testing.T) *pdb.Structure {
	t.Helper()
	s, err := pdb.Load(fixture)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestIdentify(t *testing.T) {
	s := loadFixture(t)
	candidates := Identify(s, registry.Default())

	wantKeys := []Key{
		{ResName: "LIG", Chain: 'A', ResSeq: "501", ICode: ' '},
		{ResName: "LIG", Chain: 'B', ResSeq: "502", ICode: ' '},
	}
	var gotKeys []Key
	for _, c := range candidates {
		gotKeys = append(gotKeys, c.Key)
		if len(c.Lines) != 5 {
			t.Errorf("%s has %d atoms, want 5", c.Key, len(c.Lines))
		}
		for _, l := range c.Lines {
			if l.ResName() != "LIG" {
				t.Errorf("%s contains a %s record", c.Key, l.ResName())
			}
		}
	}
	if !reflect.DeepEqual(gotKeys, wantKeys) {
		t.Errorf("Identify() keys = %v, want %v", gotKeys, wantKeys)
	}
}

func TestFilterNonLigands(t *testing.T) {
	s := loadFixture(t)
	hets := FindHeteroRecords(s)

	tests := []struct {
		name string
		reg  *registry.Registry
		want int
	}{
		{"default registry", registry.Default(), 10},
		{"empty registry", registry.New(), 17},
		{"everything registered", registry.New("SO4", "HOH", "LIG"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterNonLigands(hets, tt.reg); len(got) != tt.want {
				t.Errorf("FilterNonLigands() = %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestGroupByKey(t *testing.T) {
	a1 := pdb.NewLine("HETATM    1  C1  LIG A 501       0.000   0.000   0.000  1.00 20.00           C  ")
	a2 := pdb.NewLine("HETATM    2  C2  LIG A 501       1.500   0.000   0.000  1.00 20.00           C  ")
	b1 := pdb.NewLine("HETATM    3  C1  LIG A 502       9.000   0.000   0.000  1.00 20.00           C  ")
	i1 := pdb.NewLine("HETATM    4  C1  LIG A 501A      5.000   0.000   0.000  1.00 20.00           C  ")

	tests := []struct {
		name      string
		records   []pdb.Line
		wantSizes []int
	}{
		{"one residue", []pdb.Line{a1, a2}, []int{2}},
		{"duplicate records fold", []pdb.Line{a1, a2, a1}, []int{2}},
		{"same name different number", []pdb.Line{a1, b1, a2}, []int{2, 1}},
		{"insertion code splits", []pdb.Line{a1, i1}, []int{1, 1}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sizes []int
			for _, c := range GroupByKey(tt.records) {
				sizes = append(sizes, len(c.Lines))
			}
			if !reflect.DeepEqual(sizes, tt.wantSizes) {
				t.Errorf("GroupByKey() sizes = %v, want %v", sizes, tt.wantSizes)
			}
		})
	}
}

func TestKey_String(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Key{"LIG", 'A', "501", ' '}, "LIG A 501"},
		{Key{"LIG", 'A', "501", 'B'}, "LIG A 501B"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIsolator_Isolate(t *testing.T) {
	s := loadFixture(t)
	candidates := Identify(s, registry.Default())
	iso := NewIsolator(s, 1, true)

	for _, c := range candidates {
		sub, err := iso.Isolate(c)
		if err != nil {
			t.Fatalf("Isolate(%s) error = %v", c.Key, err)
		}
		if len(sub.Atoms) != 5 || len(sub.Conects) != 5 {
			t.Errorf("Isolate(%s) = %d atoms, %d conects, want 5 and 5", c.Key, len(sub.Atoms), len(sub.Conects))
		}

		serials := c.Serials()
		for _, l := range sub.Conects {
			if !pdb.References(l, serials) {
				t.Errorf("%s picked up an unrelated CONECT: %q", c.Key, l.Text)
			}
		}
		if got := len(sub.Lines()); got != 10 {
			t.Errorf("Lines() = %d, want 10", got)
		}
	}
}

func TestIsolator_tolerance(t *testing.T) {
	s, err := pdb.Parse(
		"HETATM    1  C1  LIG A 501       0.000   0.000   0.000  1.00 20.00           C  \n" +
			"HETATM    2  C2  LIG A 501       1.500   0.000   0.000  1.00 20.00           C  \n" +
			"HETATM    3  C3  LIG A 501       3.000   0.000   0.000  1.00 20.00           C  \n" +
			"CONECT    1    2\n")
	if err != nil {
		t.Fatal(err)
	}
	c := Identify(s, registry.New())[0]

	tests := []struct {
		name      string
		tolerance int
		strict    bool
		wantErr   bool
	}{
		{"strict within tolerance", 2, true, false},
		{"strict beyond tolerance", 1, true, true},
		{"lenient beyond tolerance", 1, false, false},
		{"check disabled", NoTolerance, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewIsolator(s, tt.tolerance, tt.strict).Isolate(c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Isolate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConnectivityMismatch) {
				t.Errorf("Isolate() error = %v, want ErrConnectivityMismatch", err)
			}
			if sub.Delta() != -2 {
				t.Errorf("Delta() = %d, want -2", sub.Delta())
			}
		})
	}
}
