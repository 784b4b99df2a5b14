package xcimport

import (
	"path/filepath"
	"strconv"
	"strings"
)

// InputStem is an input's base name without ".pdb", compression
// extensions or "_bound", ex: "/data/x0123_bound.pdb" is "x0123"
func InputStem(input string) string {
	base := filepath.Base(input)
	for _, ext := range []string{".gz", ".zst"} {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, ".pdb", "")
	return strings.ReplaceAll(base, "_bound", "")
}

// FileBase names the count'th ligand of an input. The target name is
// prefixed unless the input's absolute path already contains it.
//
// Monomerized inputs end in a chain, ex: "x0123_A", and the ligand count
// goes ahead of it: "x01_0A" for the first ligand
func FileBase(target, input string, count int, monomerize bool) string {
	base := InputStem(input)
	abs, err := filepath.Abs(input)
	if err != nil {
		abs = input
	}
	if !strings.Contains(abs, target) {
		base = target + "-" + base
	}

	if !monomerize {
		return base + "_" + strconv.Itoa(count)
	}

	chain := base[strings.LastIndex(base, "_")+1:]
	head := base
	if len(head) >= 2 {
		head = head[:len(head)-2]
	}
	return head + "_" + strconv.Itoa(count) + chain
}

// BoundName names the copy of an input in a ligand's directory. The copy
// keeps the input's compression, ex: "x0123_0_bound.pdb.gz"
func BoundName(fileBase, input string) string {
	name := fileBase + "_bound.pdb"
	for _, ext := range []string{".gz", ".zst"} {
		if strings.HasSuffix(input, ext) {
			return name + ext
		}
	}
	return name
}

// CrystalName is a file base without its trailing ligand count
func CrystalName(fileBase string) string {
	if i := strings.LastIndex(fileBase, "_"); i >= 0 {
		return fileBase[:i]
	}
	return fileBase
}

// ResultsDir is where a target's outputs go under the output root
func ResultsDir(out, target string) string {
	return filepath.Join(out, target, "aligned")
}

// DefaultSmilesPath is the reference SMILES file expected beside an input,
// ex: "x0123_smiles.txt" beside "x0123_bound.pdb"
func DefaultSmilesPath(input string) string {
	return filepath.Join(filepath.Dir(input), InputStem(input)+"_smiles.txt")
}
