package chem

import (
	"fmt"
	"io"
	"strings"
)

// MolBlock writes the molecule as an MDL V2000 molfile. Aromatic bonds are
// written as type 4; callers should Sanitize first
func MolBlock(m *Molecule) (string, error) {
	if m == nil || len(m.Atoms) == 0 {
		return "", ErrEmpty
	}
	if len(m.Atoms) > 999 || len(m.Bonds) > 999 {
		return "", fmt.Errorf("failed to write molfile: %d atoms, %d bonds is past the V2000 limit", len(m.Atoms), len(m.Bonds))
	}

	var sb strings.Builder
	sb.WriteString(m.Name + "\n")
	fmt.Fprintf(&sb, "  %-8s%10s3D\n", "xcimport", "")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(m.Atoms), len(m.Bonds))

	var charged []int
	for i, a := range m.Atoms {
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n",
			a.Pos[0], a.Pos[1], a.Pos[2], a.Element)
		if a.Charge != 0 {
			charged = append(charged, i)
		}
	}
	for _, b := range m.Bonds {
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.I+1, b.J+1, int(b.Order))
	}

	// M  CHG takes at most 8 entries per line
	for start := 0; start < len(charged); start += 8 {
		end := start + 8
		if end > len(charged) {
			end = len(charged)
		}
		fmt.Fprintf(&sb, "M  CHG%3d", end-start)
		for _, i := range charged[start:end] {
			fmt.Fprintf(&sb, " %3d %3d", i+1, m.Atoms[i].Charge)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("M  END\n")
	return sb.String(), nil
}

// WriteSDF writes each molecule as an SD file record
func WriteSDF(w io.Writer, mols ...*Molecule) error {
	for _, m := range mols {
		block, err := MolBlock(m)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, block+"$$$$\n"); err != nil {
			return fmt.Errorf("failed to write SD record: %w", err)
		}
	}
	return nil
}
