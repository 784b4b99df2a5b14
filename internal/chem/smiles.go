package chem

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// organic subset atoms that may be written without brackets. Two-letter
// symbols are tried first
var organicSubset = []string{"Cl", "Br", "B", "C", "N", "O", "P", "S", "F", "I"}

// aromatic atoms that may be written without brackets
var aromaticSubset = map[byte]string{
	'b': "B", 'c': "C", 'n': "N", 'o': "O", 'p': "P", 's': "S",
}

// smilesParser is the state of a single ParseSMILES call
type smilesParser struct {
	s   string
	pos int
	mol *Molecule

	prev     int
	pending  Order
	explicit bool
	branches []int
	rings    map[int]ringBond
}

// ringBond is an open ring closure
type ringBond struct {
	atom     int
	order    Order
	explicit bool
}

// ParseSMILES reads a SMILES string into a molecule without coordinates.
// Stereo marks are read and dropped. Aromatic atoms and bonds are kept as
// such; Kekulize assigns them alternating orders
func ParseSMILES(smiles string) (*Molecule, error) {
	p := &smilesParser{
		s:     strings.TrimSpace(smiles),
		mol:   &Molecule{},
		prev:  -1,
		rings: make(map[int]ringBond),
	}
	if p.s == "" {
		return nil, fmt.Errorf("failed to parse SMILES: %w", ErrEmpty)
	}
	if err := p.parse(); err != nil {
		return nil, fmt.Errorf("failed to parse SMILES %q: %w", smiles, err)
	}
	return p.mol, nil
}

func (p *smilesParser) parse() error {
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return fmt.Errorf("branch without an atom at %d", p.pos)
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if len(p.branches) == 0 {
				return fmt.Errorf("unbalanced ')' at %d", p.pos)
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case c == '.':
			p.prev = -1
			p.pos++
		case strings.IndexByte("-=#$:/\\", c) >= 0:
			p.setBond(c)
			p.pos++
		case c == '%' || unicode.IsDigit(rune(c)):
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}

	if len(p.branches) > 0 {
		return fmt.Errorf("unclosed branch")
	}
	if len(p.rings) > 0 {
		return fmt.Errorf("unclosed ring bond")
	}
	if len(p.mol.Atoms) == 0 {
		return ErrEmpty
	}
	return nil
}

func (p *smilesParser) setBond(c byte) {
	p.explicit = true
	switch c {
	case '=':
		p.pending = Double
	case '#', '$':
		p.pending = Triple
	case ':':
		p.pending = Aromatic
	default:
		p.pending = Single
	}
}

// bondOrder resolves the order of a bond between two atoms, from an
// explicit symbol or from their aromaticity
func (p *smilesParser) bondOrder(i, j int, order Order, explicit bool) Order {
	if explicit {
		return order
	}
	if p.mol.Atoms[i].Aromatic && p.mol.Atoms[j].Aromatic {
		return Aromatic
	}
	return Single
}

// addAtom appends an atom and bonds it to the previous one
func (p *smilesParser) addAtom(a Atom) error {
	i := p.mol.AddAtom(a)
	if p.prev >= 0 {
		o := p.bondOrder(p.prev, i, p.pending, p.explicit)
		if err := p.mol.AddBond(p.prev, i, o); err != nil {
			return err
		}
	}
	p.prev = i
	p.pending = Single
	p.explicit = false
	return nil
}

func (p *smilesParser) organicAtom() error {
	rest := p.s[p.pos:]
	for _, sym := range organicSubset {
		if strings.HasPrefix(rest, sym) {
			p.pos += len(sym)
			return p.addAtom(Atom{Element: sym, HCount: -1})
		}
	}
	if el, ok := aromaticSubset[rest[0]]; ok {
		p.pos++
		return p.addAtom(Atom{Element: el, Aromatic: true, HCount: -1})
	}
	if rest[0] == '*' {
		p.pos++
		return p.addAtom(Atom{Element: "*", HCount: -1})
	}
	return fmt.Errorf("unexpected %q at %d", rest[0], p.pos)
}

func (p *smilesParser) bracketAtom() error {
	end := strings.IndexByte(p.s[p.pos:], ']')
	if end < 0 {
		return fmt.Errorf("unclosed '[' at %d", p.pos)
	}
	body := p.s[p.pos+1 : p.pos+end]
	p.pos += end + 1

	a := Atom{HCount: 0}
	i := 0

	// isotope
	for i < len(body) && unicode.IsDigit(rune(body[i])) {
		i++
	}

	// symbol
	switch {
	case i < len(body) && body[i] == '*':
		a.Element = "*"
		i++
	case i+1 < len(body) && (body[i:i+2] == "se" || body[i:i+2] == "as"):
		a.Element = normalizeElement(body[i : i+2])
		a.Aromatic = true
		i += 2
	case i < len(body) && unicode.IsLower(rune(body[i])):
		el, ok := aromaticSubset[body[i]]
		if !ok {
			return fmt.Errorf("unknown aromatic atom in [%s]", body)
		}
		a.Element = el
		a.Aromatic = true
		i++
	case i < len(body) && unicode.IsUpper(rune(body[i])):
		j := i + 1
		if j < len(body) && unicode.IsLower(rune(body[j])) {
			j++
		}
		a.Element = body[i:j]
		i = j
	default:
		return fmt.Errorf("no element in [%s]", body)
	}

	// chirality, ex: @, @@, @TH1, @SP2
	for i < len(body) && body[i] == '@' {
		i++
		if i+1 < len(body) && strings.Contains("TH AL SP TB OH", body[i:i+2]) && unicode.IsUpper(rune(body[i])) {
			i += 2
			for i < len(body) && unicode.IsDigit(rune(body[i])) {
				i++
			}
		}
	}

	// hydrogens
	if i < len(body) && body[i] == 'H' {
		i++
		a.HCount = 1
		start := i
		for i < len(body) && unicode.IsDigit(rune(body[i])) {
			i++
		}
		if i > start {
			a.HCount, _ = strconv.Atoi(body[start:i])
		}
	}

	// charge, ex: +, ++, +2, -
	for i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		i++
		start := i
		for i < len(body) && unicode.IsDigit(rune(body[i])) {
			i++
		}
		n := 1
		if i > start {
			n, _ = strconv.Atoi(body[start:i])
		}
		a.Charge += sign * n
	}

	// atom class
	if i < len(body) && body[i] == ':' {
		i++
		for i < len(body) && unicode.IsDigit(rune(body[i])) {
			i++
		}
	}

	if i != len(body) {
		return fmt.Errorf("unexpected %q in [%s]", body[i:], body)
	}
	return p.addAtom(a)
}

func (p *smilesParser) ringClosure() error {
	if p.prev < 0 {
		return fmt.Errorf("ring bond without an atom at %d", p.pos)
	}

	var n int
	if p.s[p.pos] == '%' {
		if p.pos+3 > len(p.s) {
			return fmt.Errorf("truncated ring number at %d", p.pos)
		}
		v, err := strconv.Atoi(p.s[p.pos+1 : p.pos+3])
		if err != nil {
			return fmt.Errorf("bad ring number at %d", p.pos)
		}
		n = v
		p.pos += 3
	} else {
		n = int(p.s[p.pos] - '0')
		p.pos++
	}

	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = ringBond{atom: p.prev, order: p.pending, explicit: p.explicit}
		p.pending = Single
		p.explicit = false
		return nil
	}

	delete(p.rings, n)
	order, explicit := open.order, open.explicit
	if p.explicit {
		order, explicit = p.pending, true
	}
	p.pending = Single
	p.explicit = false
	return p.mol.AddBond(open.atom, p.prev, p.bondOrder(open.atom, p.prev, order, explicit))
}
