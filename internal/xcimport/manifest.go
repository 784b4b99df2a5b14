package xcimport

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"lukechampine.com/blake3"
)

// Artifact is one written file and the blake3 digest of its contents
type Artifact struct {
	Path   string `json:"path"`
	Digest string `json:"blake3"`
}

// Manifest records what a run wrote for one structure
type Manifest struct {
	// RunID is shared by every structure of one invocation
	RunID string `json:"runId"`

	// Time, ex: "2020/01/01 20:41:00"
	Time string `json:"time"`

	Input   string         `json:"input"`
	Ligands []LigandReport `json:"ligands"`

	// Artifacts are relative to the manifest's directory, sorted by path
	Artifacts []Artifact `json:"artifacts"`
}

// digestFile returns the hex blake3 digest of a file
func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeManifest digests every artifact of the report and writes the
// manifest to path
func writeManifest(path string, r *Report) error {
	dir := filepath.Dir(path)
	t := time.Now()
	m := Manifest{
		RunID:   r.RunID,
		Time:    fmt.Sprintf("%d/%02d/%02d %02d:%02d:%02d", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()),
		Input:   r.Input,
		Ligands: r.Ligands,
	}

	for _, a := range r.Artifacts() {
		digest, err := digestFile(a)
		if err != nil {
			return fmt.Errorf("failed to digest %s: %w", a, err)
		}
		rel, err := filepath.Rel(dir, a)
		if err != nil {
			rel = a
		}
		m.Artifacts = append(m.Artifacts, Artifact{Path: filepath.ToSlash(rel), Digest: digest})
	}
	sort.Slice(m.Artifacts, func(i, j int) bool { return m.Artifacts[i].Path < m.Artifacts[j].Path })

	contents, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
