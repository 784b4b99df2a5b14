package chem

import (
	"strings"
	"unicode"
)

// covalentRadii in Angstroms (Cordero et al. 2008). Only elements that
// form ordinary covalent bonds in ligands are listed; proximity bonding
// skips everything else, so metals are never bonded by distance
var covalentRadii = map[string]float64{
	"H":  0.31,
	"B":  0.84,
	"C":  0.76,
	"N":  0.71,
	"O":  0.66,
	"F":  0.57,
	"Si": 1.11,
	"P":  1.07,
	"S":  1.05,
	"Cl": 1.02,
	"As": 1.19,
	"Se": 1.20,
	"Br": 1.20,
	"I":  1.39,
}

// baseValence is the largest neutral valence accepted per element
var baseValence = map[string]int{
	"H":  1,
	"B":  3,
	"C":  4,
	"N":  3,
	"O":  2,
	"F":  1,
	"Si": 4,
	"P":  5,
	"S":  6,
	"Cl": 1,
	"As": 5,
	"Se": 6,
	"Br": 1,
	"I":  3,
}

// defaultValence is the valence used to infer implicit hydrogens
var defaultValence = map[string]int{
	"B":  3,
	"C":  4,
	"N":  3,
	"O":  2,
	"P":  3,
	"S":  2,
	"F":  1,
	"Cl": 1,
	"Br": 1,
	"I":  1,
}

// elements with two-letter symbols that show up in structure files
var twoLetter = map[string]bool{
	"Cl": true, "Br": true, "Fe": true, "Zn": true, "Mg": true, "Mn": true,
	"Cu": true, "Co": true, "Ni": true, "Na": true, "Ca": true, "Se": true,
	"Si": true, "Cd": true, "Hg": true, "As": true, "Li": true, "Al": true,
	"Pt": true, "Au": true, "Ag": true, "Sr": true, "Ba": true, "Cs": true,
	"Rb": true, "Yb": true, "Ir": true, "Ru": true, "Rh": true, "Pd": true,
	"Os": true, "Ga": true, "Ge": true, "Sb": true, "Te": true, "Mo": true,
	"Cr": true, "Ti": true, "Sn": true, "Pb": true, "Tl": true,
}

// normalizeElement capitalizes a symbol, ex: "CL" -> "Cl"
func normalizeElement(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// elementFromName derives an element from a 4-column PDB atom name when
// the element columns are blank. Names whose first column is blank or a
// digit hold a one-letter element in the second column; names that start
// in the first column hold a two-letter element, except 4-character
// hydrogen names like "HC12"
func elementFromName(raw string) string {
	for len(raw) < 4 {
		raw += " "
	}
	first := rune(raw[0])
	if first == ' ' || unicode.IsDigit(first) {
		return letters(raw[1:])
	}

	trimmed := strings.TrimSpace(raw)
	if first == 'H' && len(trimmed) == 4 {
		return "H"
	}
	if len(raw) >= 2 && unicode.IsLetter(rune(raw[1])) {
		if two := normalizeElement(raw[0:2]); twoLetter[two] {
			return two
		}
	}
	return normalizeElement(raw[0:1])
}

// letters returns the first letter of s as an element symbol
func letters(s string) string {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return normalizeElement(string(r))
		}
	}
	return ""
}

// maxValence is the largest bond-order sum accepted for an element at a
// given formal charge. Unknown elements, metals mostly, are unchecked
func maxValence(element string, charge int) (int, bool) {
	v, ok := baseValence[element]
	if !ok {
		return 0, false
	}
	switch element {
	case "N", "O", "P", "S", "Se", "As":
		v += charge
	case "C", "Si":
		if charge < 0 {
			charge = -charge
		}
		v -= charge
	case "B":
		v -= charge
	default:
		if charge < 0 {
			charge = -charge
		}
		v += charge
	}
	return v, true
}

// implicitHydrogens is the number of hydrogens needed to fill an atom's
// default valence, or 0 for elements without one
func implicitHydrogens(element string, charge, valence int) int {
	v, ok := defaultValence[element]
	if !ok {
		return 0
	}
	switch element {
	case "N", "O", "P", "S":
		v += charge
	case "C", "B":
		if charge < 0 {
			charge = -charge
		}
		v -= charge
	default:
		if charge != 0 {
			return 0
		}
	}
	// hypervalent P and S pick their next allowed valence
	for (element == "P" || element == "S") && valence > v && v < 6 {
		v += 2
	}
	if h := v - valence; h > 0 {
		return h
	}
	return 0
}
