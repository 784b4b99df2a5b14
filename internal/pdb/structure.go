package pdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrNoRecords is returned for input without a single ATOM or HETATM record
var ErrNoRecords = errors.New("no coordinate records")

// maxLineLength caps a single line. Real records are 80 columns, but
// some writers emit long REMARK blocks on one line
const maxLineLength = 1 << 20

// Structure is a structure file held as its ordered lines
type Structure struct {
	// Path the structure was loaded from, empty for in-memory structures
	Path string

	// Lines in file order
	Lines []Line
}

// Load reads a structure file. Files ending in ".gz" or ".zst" are
// decompressed while reading
func Load(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open structure %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	s, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read structure %s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Read reads the lines of a structure. It fails with ErrNoRecords when
// there are no coordinate records to work with
func Read(r io.Reader) (*Structure, error) {
	s := &Structure{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		s.Lines = append(s.Lines, NewLine(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan structure lines: %w", err)
	}

	for _, l := range s.Lines {
		if l.Record.IsCoordinate() {
			return s, nil
		}
	}
	return nil, ErrNoRecords
}

// Parse reads a structure from a string
func Parse(text string) (*Structure, error) {
	return Read(strings.NewReader(text))
}

// Select returns the lines of the given record types, in file order
func (s *Structure) Select(records ...Record) []Line {
	var out []Line
	for _, l := range s.Lines {
		for _, r := range records {
			if l.Record == r {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// Heteroatoms returns all HETATM lines
func (s *Structure) Heteroatoms() []Line {
	return s.Select(Hetatm)
}

// Atoms returns all ATOM lines
func (s *Structure) Atoms() []Line {
	return s.Select(Atom)
}

// Conects returns all CONECT lines
func (s *Structure) Conects() []Line {
	return s.Select(Conect)
}

// Links returns all LINK lines
func (s *Structure) Links() []Line {
	return s.Select(Link)
}

// Stem is the base name of the structure's path without its extensions,
// ex: "/data/x0123_bound.pdb.gz" is "x0123_bound"
func (s *Structure) Stem() string {
	return Stem(s.Path)
}

// Stem is the base name of a structure path without ".pdb" and any
// compression extension
func Stem(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst"} {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.TrimSuffix(base, ".pdb")
}

// Format joins lines into file text, one record per line
func Format(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFile writes lines to path, replacing any existing file
func WriteFile(path string, lines []Line) error {
	if err := os.WriteFile(path, []byte(Format(lines)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
