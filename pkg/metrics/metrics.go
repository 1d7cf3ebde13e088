package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for asset downloads.
type Metrics struct {
	registry       *prometheus.Registry
	attemptsTotal  *prometheus.CounterVec
	bytesTotal     prometheus.Counter
	videosTotal    prometheus.Counter
	bulkRunsTotal  prometheus.Counter
	bulkFailedIDs  prometheus.Counter
	requestsTotal  prometheus.Counter
	errorsTotal    prometheus.Counter
	panicsTotal    *prometheus.CounterVec
	jobsInProgress prometheus.Gauge
}

// New creates and registers the download metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rbxdl_attempts_total",
			Help: "Download attempts by outcome kind",
		}, []string{"kind"}),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbxdl_bytes_written_total",
			Help: "Bytes written to the downloads directory",
		}),
		videosTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbxdl_videos_resolved_total",
			Help: "Video assets resolved through a master playlist",
		}),
		bulkRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbxdl_bulk_runs_total",
			Help: "Completed bulk runs",
		}),
		bulkFailedIDs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbxdl_bulk_failed_ids_total",
			Help: "Asset ids that failed every attempt in a bulk run",
		}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbxdl_http_requests_total",
			Help: "Total number of API requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbxdl_http_errors_total",
			Help: "API responses with status >= 400",
		}),
		panicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rbxdl_http_panics_total",
			Help: "Handler panics recovered by route",
		}, []string{"route"}),
		jobsInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rbxdl_jobs_in_progress",
			Help: "Jobs queued or running",
		}),
	}

	registry.MustRegister(
		m.attemptsTotal,
		m.bytesTotal,
		m.videosTotal,
		m.bulkRunsTotal,
		m.bulkFailedIDs,
		m.requestsTotal,
		m.errorsTotal,
		m.panicsTotal,
		m.jobsInProgress,
	)
	return m
}

// ObserveAttempt records one download attempt. Safe on a nil receiver.
func (m *Metrics) ObserveAttempt(kind string, bytes int64, video bool) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(kind).Inc()
	if bytes > 0 {
		m.bytesTotal.Add(float64(bytes))
	}
	if video {
		m.videosTotal.Inc()
	}
}

// ObserveBulk records a finished bulk run.
func (m *Metrics) ObserveBulk(failed int) {
	if m == nil {
		return
	}
	m.bulkRunsTotal.Inc()
	m.bulkFailedIDs.Add(float64(failed))
}

// IncRequests increments the API request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the API error counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// IncPanics counts a recovered handler panic. A recovered request also counts as an error.
func (m *Metrics) IncPanics(route string) {
	if m == nil {
		return
	}
	m.panicsTotal.WithLabelValues(route).Inc()
	m.errorsTotal.Inc()
}

// SetJobsInProgress sets the jobs gauge.
func (m *Metrics) SetJobsInProgress(n int) {
	if m == nil {
		return
	}
	m.jobsInProgress.Set(float64(n))
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
