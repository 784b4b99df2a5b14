package chem

import (
	"errors"
	"fmt"
)

// ErrValence is returned when an atom has more bonds than its element and
// charge allow
var ErrValence = errors.New("explicit valence too high")

// Sanitize kekulizes any aromatic bonds left in the molecule and checks
// every atom's valence
func Sanitize(m *Molecule) error {
	if m == nil || len(m.Atoms) == 0 {
		return ErrEmpty
	}
	if err := m.Kekulize(); err != nil {
		return err
	}

	for i, a := range m.Atoms {
		limit, ok := maxValence(a.Element, a.Charge)
		if !ok {
			continue
		}
		v := m.valence(i)
		if a.HCount > 0 {
			v += a.HCount
		}
		if v > limit {
			return fmt.Errorf("%w: atom %d (%s %s) has valence %d, max %d",
				ErrValence, a.Serial, a.Element, a.Name, v, limit)
		}
	}
	return nil
}
