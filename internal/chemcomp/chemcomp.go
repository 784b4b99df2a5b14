// Package chemcomp looks up reference SMILES for three-letter chemical
// component codes in the RCSB chemical component dictionary.
package chemcomp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/InformaticsMatters/fragalysis-api/internal/metrics"
)

// stderr is for logging to Stderr (without an annoying timestamp)
var stderr = log.New(os.Stderr, "", 0)

// DefaultURL is the RCSB data API endpoint for chemical components
const DefaultURL = "https://data.rcsb.org/rest/v1/core/chemcomp"

// ErrUnknownCode is returned for codes the dictionary doesn't hold, and for
// every uncached code when lookups are offline
var ErrUnknownCode = errors.New("unknown chemical component")

// Lookup resolves a chemical component code to a reference SMILES
type Lookup interface {
	Smiles(ctx context.Context, code string) (string, error)
}

// Options configures a Client
type Options struct {
	// URL is the endpoint that the code is appended to
	URL string

	// Timeout bounds each request attempt
	Timeout time.Duration

	// Retries is the number of extra attempts after a failed request
	Retries int

	// Offline answers from the caches only
	Offline bool

	// CachePath is a sqlite file of earlier lookups, none if empty
	CachePath string

	// CacheSize is the number of codes held in memory
	CacheSize int

	// Metrics counts lookups by result, optional
	Metrics *metrics.Recorder
}

// entry is a cached lookup. Unknown codes are cached too so they're only
// requested once
type entry struct {
	smiles string
	known  bool
}

// Client looks up codes over HTTP with an in-memory and optional on-disk
// cache. It's safe for concurrent use
type Client struct {
	url     string
	http    *http.Client
	timeout time.Duration
	retries int
	offline bool

	memory  *lru.Cache[string, entry]
	disk    *SQLiteCache
	metrics *metrics.Recorder

	// backoff is the wait before the nth retry
	backoff func(n int) time.Duration
}

// New creates a Client, opening the disk cache if one is configured
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}

	memory, err := lru.New[string, entry](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}

	c := &Client{
		url:     strings.TrimSuffix(opts.URL, "/"),
		http:    &http.Client{},
		timeout: opts.Timeout,
		retries: opts.Retries,
		offline: opts.Offline,
		memory:  memory,
		metrics: opts.Metrics,
		backoff: func(n int) time.Duration {
			return time.Duration(n) * 250 * time.Millisecond
		},
	}

	if opts.CachePath != "" {
		disk, err := OpenSQLiteCache(opts.CachePath)
		if err != nil {
			return nil, err
		}
		c.disk = disk
	}
	return c, nil
}

// Close closes the disk cache
func (c *Client) Close() error {
	if c.disk != nil {
		return c.disk.Close()
	}
	return nil
}

// Smiles returns the reference SMILES of a chemical component code. The
// stereo SMILES is preferred over the plain one
func (c *Client) Smiles(ctx context.Context, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrUnknownCode)
	}

	if e, ok := c.memory.Get(code); ok {
		c.metrics.Lookup("memory")
		return e.result(code)
	}

	if c.disk != nil {
		smiles, known, found, err := c.disk.Get(ctx, code)
		if err != nil {
			stderr.Printf("warning: failed to read chemical component cache: %v", err)
		} else if found {
			e := entry{smiles: smiles, known: known}
			c.memory.Add(code, e)
			c.metrics.Lookup("disk")
			return e.result(code)
		}
	}

	if c.offline {
		c.metrics.Lookup("offline")
		return "", fmt.Errorf("%w: %s (offline)", ErrUnknownCode, code)
	}

	e, err := c.fetch(ctx, code)
	if err != nil {
		c.metrics.Lookup("error")
		return "", err
	}

	c.memory.Add(code, e)
	if c.disk != nil {
		if err := c.disk.Put(ctx, code, e.smiles, e.known); err != nil {
			stderr.Printf("warning: failed to write chemical component cache: %v", err)
		}
	}
	if e.known {
		c.metrics.Lookup("fetched")
	} else {
		c.metrics.Lookup("unknown")
	}
	return e.result(code)
}

func (e entry) result(code string) (string, error) {
	if !e.known {
		return "", fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}
	return e.smiles, nil
}

// fetch requests a code, retrying failed requests and server errors
func (c *Client) fetch(ctx context.Context, code string) (entry, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return entry{}, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		e, retry, err := c.request(ctx, code)
		if err == nil {
			return e, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return entry{}, fmt.Errorf("failed to look up chemical component %s: %w", code, lastErr)
}

// chemComp is the part of the chemcomp document that's read
type chemComp struct {
	Descriptor struct {
		Smiles       string `json:"smiles"`
		SmilesStereo string `json:"smiles_stereo"`
	} `json:"rcsb_chem_comp_descriptor"`
}

// request makes one attempt. retry is set for errors worth another try
func (c *Client) request(ctx context.Context, code string) (e entry, retry bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/"+url.PathEscape(code), nil)
	if err != nil {
		return entry{}, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return entry{}, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return entry{known: false}, false, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return entry{}, true, fmt.Errorf("server returned %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return entry{}, false, fmt.Errorf("server returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return entry{}, true, err
	}
	var doc chemComp
	if err := json.Unmarshal(body, &doc); err != nil {
		return entry{}, false, fmt.Errorf("failed to decode chemical component: %w", err)
	}

	smiles := doc.Descriptor.SmilesStereo
	if smiles == "" {
		smiles = doc.Descriptor.Smiles
	}
	if smiles == "" {
		return entry{known: false}, false, nil
	}
	return entry{smiles: smiles, known: true}, false, nil
}
