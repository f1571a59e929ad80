// Package metrics exports history store activity as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/ports"
)

// Metrics holds the collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	IngestTotal  *prometheus.CounterVec
	TrimmedTotal *prometheus.CounterVec
	GroupRuns    *prometheus.GaugeVec
	LatestValue  *prometheus.GaugeVec
	LastUpdate   prometheus.Gauge
}

// New creates and registers all metrics.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchhist_ingest_total",
			Help: "Benchmark runs offered for ingestion",
		},
		[]string{"group", "outcome"},
	)

	m.TrimmedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchhist_trimmed_runs_total",
			Help: "Runs removed by retention or explicit trim",
		},
		[]string{"group"},
	)

	m.GroupRuns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchhist_group_runs",
			Help: "Runs currently stored per group",
		},
		[]string{"group"},
	)

	m.LatestValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchhist_latest_sample_value",
			Help: "Most recently ingested value per benchmark",
		},
		[]string{"group", "benchmark", "unit"},
	)

	m.LastUpdate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "benchhist_last_update_timestamp_seconds",
			Help: "Date of the newest run in the store",
		},
	)

	m.registry.MustRegister(
		m.IngestTotal,
		m.TrimmedTotal,
		m.GroupRuns,
		m.LatestValue,
		m.LastUpdate,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IngestObserved implements ports.MetricsRecorder.
func (m *Metrics) IngestObserved(group string, err error) {
	m.IngestTotal.WithLabelValues(group, outcome(err)).Inc()
}

// GroupSizeObserved implements ports.MetricsRecorder.
func (m *Metrics) GroupSizeObserved(group string, runs int) {
	m.GroupRuns.WithLabelValues(group).Set(float64(runs))
}

// SampleObserved implements ports.MetricsRecorder.
func (m *Metrics) SampleObserved(group string, sample domain.BenchmarkSample) {
	m.LatestValue.WithLabelValues(group, sample.Name, sample.Unit).Set(sample.Value)
}

// TrimObserved implements ports.MetricsRecorder.
func (m *Metrics) TrimObserved(group string, removed int) {
	m.TrimmedTotal.WithLabelValues(group).Add(float64(removed))
}

// LastUpdateObserved implements ports.MetricsRecorder.
func (m *Metrics) LastUpdateObserved(epochMillis int64) {
	m.LastUpdate.Set(float64(epochMillis) / 1000)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "failed"
	}
}

var _ ports.MetricsRecorder = (*Metrics)(nil)
