// Package monitoring publishes the pipeline's own activity to a
// Prometheus registry, separate from the domain metric stores: the
// domain stores hold what instrumented servers report, this package
// reports what the pipeline itself is doing.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus instruments.
type Metrics struct {
	// HTTP facade
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Ingestion into the domain stores
	IngestTotal *prometheus.CounterVec

	// Instrumented tool calls
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec

	// Registry state
	ServersRegistered prometheus.Gauge

	Uptime    prometheus.Gauge
	startTime time.Time
}

// New creates the pipeline metrics against the given registerer, so
// tests can pass a private registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolscope_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolscope_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		IngestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolscope_ingest_total",
				Help: "Records ingested into the domain stores",
			},
			[]string{"server", "signal"},
		),

		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolscope_tool_calls_total",
				Help: "Instrumented tool invocations",
			},
			[]string{"server", "tool", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolscope_tool_duration_seconds",
				Help:    "Instrumented tool call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"server", "tool"},
		),

		ServersRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolscope_servers_registered",
				Help: "Number of registered server bundles",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolscope_uptime_seconds",
				Help: "Pipeline uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// NewDefault registers against the default Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records one HTTP request against the facade.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordIngest counts one record landing in a domain store.
// Signal is one of "log", "metric", "trace".
func (m *Metrics) RecordIngest(server, signal string) {
	m.IngestTotal.WithLabelValues(server, signal).Inc()
}

// ObserveToolCall implements instrument.Observer.
func (m *Metrics) ObserveToolCall(server, tool, status string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(server, tool, status).Inc()
	m.ToolDuration.WithLabelValues(server, tool).Observe(duration.Seconds())
}

// SetServersRegistered sets the registered bundle count.
func (m *Metrics) SetServersRegistered(count int) {
	m.ServersRegistered.Set(float64(count))
}
