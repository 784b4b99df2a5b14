package chemcomp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS chemcomp (
	code TEXT PRIMARY KEY,
	smiles TEXT NOT NULL,
	known INTEGER NOT NULL,
	fetched INTEGER NOT NULL
);
`

// SQLiteCache keeps chemical component lookups between runs
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens or creates a cache database at path
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	// one writer at a time, the ligand workers share this handle
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema in %s: %w", path, err)
	}
	return &SQLiteCache{db: db}, nil
}

// Close closes the cache database
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Get returns a cached lookup. found is false if the code was never stored
func (c *SQLiteCache) Get(ctx context.Context, code string) (smiles string, known, found bool, err error) {
	var k int
	err = c.db.QueryRowContext(ctx,
		"SELECT smiles, known FROM chemcomp WHERE code = ?",
		code,
	).Scan(&smiles, &k)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, false, nil
	}
	if err != nil {
		return "", false, false, err
	}
	return smiles, k == 1, true, nil
}

// Put stores a lookup, replacing any earlier one for the code
func (c *SQLiteCache) Put(ctx context.Context, code, smiles string, known bool) error {
	k := 0
	if known {
		k = 1
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chemcomp (code, smiles, known, fetched)
		 VALUES (?, ?, ?, ?)`,
		code, smiles, k, time.Now().Unix(),
	)
	return err
}

// count is the number of cached codes
func (c *SQLiteCache) count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chemcomp").Scan(&n)
	return n, err
}
