package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for resolution runs. A disabled
// instance is a no-op.
type Metrics struct {
	config MetricsConfig

	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   prometheus.Histogram
	findings      *prometheus.CounterVec
	activeRuns    prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the metric families and registers them on a private
// registry.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		config:   cfg,
		registry: registry,
		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "runs_started_total",
				Help:      "Total resolution runs started",
			},
			[]string{"partition"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "runs_completed_total",
				Help:      "Total resolution runs completed",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of resolution runs",
				Buckets:   prometheus.DefBuckets,
			},
		),
		findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "validation_findings_total",
				Help:      "Validation findings by kind and severity",
			},
			[]string{"kind", "severity"},
		),
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "active_runs",
				Help:      "Resolution runs currently in flight",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.runsStarted, m.runsCompleted, m.runDuration, m.findings, m.activeRuns,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordRunStarted counts a run start against its partition.
func (m *Metrics) RecordRunStarted(partition string) {
	if m.registry == nil {
		return
	}
	m.runsStarted.WithLabelValues(partition).Inc()
	m.activeRuns.Inc()
}

// RecordRunCompleted counts a run completion and its duration.
func (m *Metrics) RecordRunCompleted(status string, duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.runsCompleted.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.activeRuns.Dec()
}

// RecordFinding counts one validation finding.
func (m *Metrics) RecordFinding(kind, severity string) {
	if m.registry == nil {
		return
	}
	m.findings.WithLabelValues(kind, severity).Inc()
}

// Handler returns the /metrics handler, or nil when disabled.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics endpoint on the configured address. It blocks,
// so callers run it in a goroutine.
func (m *Metrics) Serve() error {
	handler := m.Handler()
	if handler == nil || m.config.ListenAddress == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return http.ListenAndServe(m.config.ListenAddress, mux)
}
