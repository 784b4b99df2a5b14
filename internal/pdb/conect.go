package pdb

import (
	"sort"
	"strconv"
	"strings"
)

// conectWidth is the width of each serial field of a CONECT record. The
// origin serial is columns 7-11 and bonded serials follow in 5-column
// fields from column 12
const conectWidth = 5

// ConectSerials returns every atom serial named by a CONECT record,
// origin first. Blank or malformed fields are skipped
func ConectSerials(l Line) []int {
	if l.Record != Conect {
		return nil
	}

	var serials []int
	for start := serialStart; start < len(l.Text); start += conectWidth {
		s := strings.TrimSpace(l.field(start, start+conectWidth))
		if s == "" {
			continue
		}
		if n, err := strconv.Atoi(s); err == nil {
			serials = append(serials, n)
		}
	}
	return serials
}

// References returns whether a CONECT record names any of the serials
func References(l Line, serials map[int]bool) bool {
	for _, s := range ConectSerials(l) {
		if serials[s] {
			return true
		}
	}
	return false
}

// ConnectivityTable maps an atom serial to the serials it bonds to
type ConnectivityTable map[int][]int

// NewConnectivityTable merges CONECT records into a symmetric table.
// One-directional source records are taken as-is and mirrored, so a bond
// listed once or twice ends up once in each direction
func NewConnectivityTable(lines []Line) ConnectivityTable {
	seen := make(map[[2]int]bool)
	t := ConnectivityTable{}
	add := func(a, b int) {
		if seen[[2]int{a, b}] {
			return
		}
		seen[[2]int{a, b}] = true
		t[a] = append(t[a], b)
	}

	for _, l := range lines {
		serials := ConectSerials(l)
		if len(serials) < 2 {
			continue
		}
		origin := serials[0]
		for _, s := range serials[1:] {
			if s == origin {
				continue
			}
			add(origin, s)
			add(s, origin)
		}
	}

	for k := range t {
		sort.Ints(t[k])
	}
	return t
}

// Bonds returns each bond of the table once, as ordered pairs (low, high),
// sorted
func (t ConnectivityTable) Bonds() [][2]int {
	var bonds [][2]int
	for a, bs := range t {
		for _, b := range bs {
			if a < b {
				bonds = append(bonds, [2]int{a, b})
			}
		}
	}
	sort.Slice(bonds, func(i, j int) bool {
		if bonds[i][0] != bonds[j][0] {
			return bonds[i][0] < bonds[j][0]
		}
		return bonds[i][1] < bonds[j][1]
	})
	return bonds
}
