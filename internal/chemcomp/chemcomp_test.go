package chemcomp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// dictionary serves a fixed set of chemcomp documents and counts requests
func dictionary(t *testing.T, docs map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		code := strings.TrimPrefix(r.URL.Path, "/")
		doc, ok := docs[code]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newClient(t *testing.T, opts Options) *Client {
	t.Helper()
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	c.backoff = func(int) time.Duration { return 0 }
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Smiles(t *testing.T) {
	srv, _ := dictionary(t, map[string]string{
		"SO4": `{"rcsb_chem_comp_descriptor": {"smiles": "[O-]S([O-])(=O)=O"}}`,
		"ALA": `{"rcsb_chem_comp_descriptor": {"smiles": "CC(N)C(O)=O", "smiles_stereo": "C[C@H](N)C(O)=O"}}`,
		"NUL": `{"rcsb_chem_comp_descriptor": {}}`,
	})
	c := newClient(t, Options{URL: srv.URL})

	tests := []struct {
		code    string
		want    string
		wantErr error
	}{
		{"SO4", "[O-]S([O-])(=O)=O", nil},
		{"so4 ", "[O-]S([O-])(=O)=O", nil},
		{"ALA", "C[C@H](N)C(O)=O", nil},
		{"NUL", "", ErrUnknownCode},
		{"ZZZ", "", ErrUnknownCode},
		{"", "", ErrUnknownCode},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := c.Smiles(context.Background(), tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Smiles() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Smiles() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_Smiles_cached(t *testing.T) {
	srv, requests := dictionary(t, map[string]string{
		"SO4": `{"rcsb_chem_comp_descriptor": {"smiles": "[O-]S([O-])(=O)=O"}}`,
	})
	c := newClient(t, Options{URL: srv.URL})

	for i := 0; i < 3; i++ {
		if _, err := c.Smiles(context.Background(), "SO4"); err != nil {
			t.Fatal(err)
		}
		if _, err := c.Smiles(context.Background(), "ZZZ"); !errors.Is(err, ErrUnknownCode) {
			t.Fatalf("Smiles() error = %v, want ErrUnknownCode", err)
		}
	}
	if n := atomic.LoadInt32(requests); n != 2 {
		t.Errorf("made %d requests, want 2", n)
	}
}

func TestClient_Smiles_retries(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"rcsb_chem_comp_descriptor": {"smiles": "CCO"}}`))
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		retries int
		wantErr bool
	}{
		{"gives up", 1, true},
		{"recovers", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atomic.StoreInt32(&requests, 0)
			c := newClient(t, Options{URL: srv.URL, Retries: tt.retries})
			got, err := c.Smiles(context.Background(), "EOH")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Smiles() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errors.Is(err, ErrUnknownCode) {
				t.Errorf("Smiles() server failure reported as an unknown code")
			}
			if !tt.wantErr && got != "CCO" {
				t.Errorf("Smiles() = %q, want CCO", got)
			}
		})
	}
}

func TestClient_Smiles_badRequest(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, Options{URL: srv.URL, Retries: 3})
	if _, err := c.Smiles(context.Background(), "EOH"); err == nil {
		t.Fatal("Smiles() expected an error")
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("made %d requests for a client error, want 1", n)
	}
}

func TestClient_Smiles_offline(t *testing.T) {
	srv, requests := dictionary(t, map[string]string{
		"SO4": `{"rcsb_chem_comp_descriptor": {"smiles": "[O-]S([O-])(=O)=O"}}`,
	})
	cachePath := filepath.Join(t.TempDir(), "cache", "chemcomp.db")

	online := newClient(t, Options{URL: srv.URL, CachePath: cachePath})
	if _, err := online.Smiles(context.Background(), "SO4"); err != nil {
		t.Fatal(err)
	}
	online.Close()

	offline := newClient(t, Options{URL: srv.URL, CachePath: cachePath, Offline: true})
	got, err := offline.Smiles(context.Background(), "SO4")
	if err != nil {
		t.Fatal(err)
	}
	if got != "[O-]S([O-])(=O)=O" {
		t.Errorf("Smiles() = %q from the disk cache", got)
	}
	if _, err := offline.Smiles(context.Background(), "EOH"); !errors.Is(err, ErrUnknownCode) {
		t.Errorf("Smiles() offline error = %v, want ErrUnknownCode", err)
	}
	if n := atomic.LoadInt32(requests); n != 1 {
		t.Errorf("made %d requests, want 1", n)
	}
}

func TestSQLiteCache(t *testing.T) {
	c, err := OpenSQLiteCache(filepath.Join(t.TempDir(), "chemcomp.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, _, found, err := c.Get(ctx, "SO4"); err != nil || found {
		t.Fatalf("Get() on an empty cache = found %v, err %v", found, err)
	}
	if err := c.Put(ctx, "SO4", "[O-]S([O-])(=O)=O", true); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "ZZZ", "", false); err != nil {
		t.Fatal(err)
	}

	smiles, known, found, err := c.Get(ctx, "SO4")
	if err != nil || !found || !known || smiles != "[O-]S([O-])(=O)=O" {
		t.Errorf("Get(SO4) = %q %v %v %v", smiles, known, found, err)
	}
	_, known, found, err = c.Get(ctx, "ZZZ")
	if err != nil || !found || known {
		t.Errorf("Get(ZZZ) = known %v found %v err %v", known, found, err)
	}
	if n, err := c.count(ctx); err != nil || n != 2 {
		t.Errorf("count() = %d, %v", n, err)
	}
}
