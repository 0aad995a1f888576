// Package observability provides metrics and tracing for enrichment runs.
package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/otherjamesbrown/icd11map/pkg/buildinfo"
)

// Namespace prefixes every metric name.
const Namespace = "icd11map"

// RunMetrics holds the Prometheus metrics for one enrichment run.
// A batch job has no scrape endpoint, so metrics are registered on a private
// registry and written to a node-exporter textfile at the end of the run.
type RunMetrics struct {
	registry *prometheus.Registry

	RowsTotal          prometheus.Counter
	RowsMappedTotal    prometheus.Counter
	MappingsTotal      prometheus.Counter
	ResolutionsTotal   *prometheus.CounterVec
	IndexKeys          *prometheus.GaugeVec
	IndexPairs         *prometheus.GaugeVec
	RunDurationSeconds prometheus.Gauge
	LastSuccess        prometheus.Gauge
	BuildInfo          *prometheus.GaugeVec
}

// NewRunMetrics creates metrics on a fresh registry.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &RunMetrics{
		registry: reg,
		RowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rows_total",
			Help:      "Input rows processed",
		}),
		RowsMappedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rows_mapped_total",
			Help:      "Input rows with at least one ICD-11 mapping",
		}),
		MappingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mappings_total",
			Help:      "ICD-11 codes written across all rows",
		}),
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resolutions_total",
				Help:      "CURIE resolutions by identifier kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		IndexKeys: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "index_keys",
				Help:      "Distinct keys per mapping index",
			},
			[]string{"index"},
		),
		IndexPairs: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "index_pairs",
				Help:      "Key/value pairs per mapping index",
			},
			[]string{"index"},
		),
		RunDurationSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last enrichment run",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		BuildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "build_info",
				Help:      "Version of the binary that produced the metrics",
			},
			[]string{"version", "commit"},
		),
	}

	info := buildinfo.Get(Namespace)
	m.BuildInfo.WithLabelValues(info.Version, info.Commit).Set(1)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordResolution records one row's resolution.
func (m *RunMetrics) RecordResolution(kind string, codes int) {
	outcome := "miss"
	if codes > 0 {
		outcome = "hit"
		m.RowsMappedTotal.Inc()
		m.MappingsTotal.Add(float64(codes))
	}
	m.RowsTotal.Inc()
	m.ResolutionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordIndex records the size of a mapping index.
func (m *RunMetrics) RecordIndex(name string, keys, pairs int) {
	m.IndexKeys.WithLabelValues(name).Set(float64(keys))
	m.IndexPairs.WithLabelValues(name).Set(float64(pairs))
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// creating parent directories.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
