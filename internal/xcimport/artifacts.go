package xcimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/InformaticsMatters/fragalysis-api/internal/chem"
)

// writeMolFile writes a molecule as <dir>/<fileBase>.mol
func writeMolFile(dir, fileBase string, mol *chem.Molecule) (string, error) {
	block, err := chem.MolBlock(mol)
	if err != nil {
		return "", fmt.Errorf("failed to write molfile for %s: %w", fileBase, err)
	}
	path := filepath.Join(dir, fileBase+".mol")
	if err := os.WriteFile(path, []byte(block), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// writeSDFile writes a molecule as the only record of <dir>/<fileBase>.sdf,
// replacing the file from any earlier run
func writeSDFile(dir, fileBase string, mol *chem.Molecule) (path string, err error) {
	path = filepath.Join(dir, fileBase+".sdf")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := chem.WriteSDF(f, mol); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// metaRow is the metadata record of one ligand. The blank columns are
// filled in later by curators
func metaRow(fileBase, smiles string) []string {
	return []string{"", fileBase, CrystalName(fileBase), smiles, "", "", "", ""}
}

// writeMetadata writes <dir>/<fileBase>_meta.csv, a single row without a
// header
func writeMetadata(dir, fileBase, smiles string) (string, error) {
	path := filepath.Join(dir, fileBase+"_meta.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(metaRow(fileBase, smiles)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// writeSmiles writes the reference SMILES to <dir>/<fileBase>_smiles.txt
func writeSmiles(dir, fileBase, smiles string) (string, error) {
	path := filepath.Join(dir, fileBase+"_smiles.txt")
	if err := os.WriteFile(path, []byte(smiles), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// readSmiles returns the trimmed first line of a reference SMILES file
func readSmiles(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	first := strings.SplitN(string(contents), "\n", 2)[0]
	smiles := strings.TrimSpace(first)
	if smiles == "" {
		return "", fmt.Errorf("%s is empty", path)
	}
	return smiles, nil
}

// mapFiles finds the density maps that go with an input: files beside it
// named "<stem>_*.map" or "<stem>_*.ccp4", sorted by name
func mapFiles(input string) ([]string, error) {
	dir := filepath.Dir(input)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to search for maps of %s: %w", input, err)
	}

	prefix := InputStem(input) + "_"
	var maps []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		ok, err := doublestar.Match("*.{map,ccp4}", strings.TrimPrefix(name, prefix))
		if err != nil {
			return nil, err
		}
		if ok {
			maps = append(maps, filepath.Join(dir, name))
		}
	}
	return maps, nil
}

// copyMaps copies an input's density maps into dir, replacing the input
// stem in each name with fileBase
func copyMaps(input, dir, fileBase string) ([]string, error) {
	maps, err := mapFiles(input)
	if err != nil {
		return nil, err
	}

	stem := InputStem(input)
	var copied []string
	for _, m := range maps {
		name := strings.ReplaceAll(filepath.Base(m), stem, fileBase)
		dst := filepath.Join(dir, name)
		if err := copyFile(m, dst); err != nil {
			return copied, err
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

// copyFile copies src to dst, replacing dst
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", dst, cerr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}
