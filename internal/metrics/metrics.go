// Package metrics counts what a run did: structures, ligands, how each
// ligand got its bond orders, and chemical component lookups. Counters live
// in a private registry and are written out as a Prometheus textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xcimport"

// Recorder holds a run's counters. A nil *Recorder drops every count, so
// callers never check whether metrics are on
type Recorder struct {
	registry *prometheus.Registry

	structures *prometheus.CounterVec
	ligands    *prometheus.CounterVec
	bondOrders *prometheus.CounterVec
	lookups    *prometheus.CounterVec
	covalent   *prometheus.CounterVec
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		structures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "structures_total",
			Help:      "Structure files processed, by outcome.",
		}, []string{"status"}),
		ligands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ligands_total",
			Help:      "Ligand candidates processed, by outcome.",
		}, []string{"status"}),
		bondOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bond_order_path_total",
			Help:      "Ligand molecules by the source of their bond orders.",
		}, []string{"path"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chemcomp_lookups_total",
			Help:      "Chemical component dictionary lookups, by result.",
		}, []string{"result"}),
		covalent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "covalent_links_total",
			Help:      "Covalent attachment attempts, by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.structures, r.ligands, r.bondOrders, r.lookups, r.covalent)
	return r
}

// Structure counts a processed structure file, ex: status "ok" or "failed"
func (r *Recorder) Structure(status string) {
	if r != nil {
		r.structures.WithLabelValues(status).Inc()
	}
}

// Ligand counts a processed ligand candidate
func (r *Recorder) Ligand(status string) {
	if r != nil {
		r.ligands.WithLabelValues(status).Inc()
	}
}

// BondOrders counts the path that produced a ligand's bond orders
func (r *Recorder) BondOrders(path string) {
	if r != nil {
		r.bondOrders.WithLabelValues(path).Inc()
	}
}

// Lookup counts a chemical component lookup
func (r *Recorder) Lookup(result string) {
	if r != nil {
		r.lookups.WithLabelValues(result).Inc()
	}
}

// Covalent counts a covalent attachment attempt
func (r *Recorder) Covalent(result string) {
	if r != nil {
		r.covalent.WithLabelValues(result).Inc()
	}
}

// Gatherer exposes the registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile writes every counter to filename in the text exposition
// format, for node_exporter's textfile collector. A nil Recorder or an
// empty filename writes nothing
func (r *Recorder) WriteTextfile(filename string) error {
	if r == nil || filename == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(filename, r.Gatherer()); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", filename, err)
	}
	return nil
}
