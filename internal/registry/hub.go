// Package registry holds per-server bundles of the three observability
// stores and answers the cross-server query, comparison, and analysis
// operations the transport layer exposes.
//
// Query operations never fail with an error for unknown servers or ids;
// they return a structured result carrying an "error" key so callers can
// branch on result shape.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolscope/toolscope/internal/infrastructure/monitoring"
	"github.com/toolscope/toolscope/internal/instrument"
	"github.com/toolscope/toolscope/internal/logging"
	"github.com/toolscope/toolscope/internal/logstore"
	"github.com/toolscope/toolscope/internal/metricstore"
	"github.com/toolscope/toolscope/internal/tracestore"
)

// Bundle is one registered server's stores plus its instrumenter.
type Bundle struct {
	Name         string
	Type         string
	ReceiptID    string
	RegisteredAt time.Time

	Logs         *logstore.Store
	Metrics      *metricstore.Collector
	Tracer       *tracestore.Tracer
	Instrumenter *instrument.Instrumenter
}

// Options sets the store capacities used for new bundles and the base
// directory that relative log-export paths resolve against.
type Options struct {
	LogBuffer    int
	MetricBuffer int
	MaxTraces    int
	ExportDir    string
}

// DefaultOptions mirrors the stores' own defaults.
func DefaultOptions() Options {
	return Options{
		LogBuffer:    logstore.DefaultCapacity,
		MetricBuffer: metricstore.DefaultCapacity,
		MaxTraces:    tracestore.DefaultMaxTraces,
	}
}

// Hub manages server bundles and cross-server queries.
type Hub struct {
	mu      sync.RWMutex
	servers map[string]*Bundle

	opts    Options
	logger  *logging.Logger
	monitor *monitoring.Metrics

	now func() time.Time
}

// New creates a hub. A nil logger falls back to a no-op logger.
func New(logger *logging.Logger, opts Options) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.LogBuffer <= 0 {
		opts.LogBuffer = logstore.DefaultCapacity
	}
	if opts.MetricBuffer <= 0 {
		opts.MetricBuffer = metricstore.DefaultCapacity
	}
	if opts.MaxTraces <= 0 {
		opts.MaxTraces = tracestore.DefaultMaxTraces
	}
	return &Hub{
		servers: make(map[string]*Bundle),
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// SetMonitor attaches pipeline self-metrics. Applied to bundles created
// afterwards and to ingest counts.
func (h *Hub) SetMonitor(m *monitoring.Metrics) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.monitor = m
}

// RegisterServer creates or returns the bundle for a server. Repeated
// registration with the same name is idempotent and keeps the existing
// stores.
func (h *Hub) RegisterServer(name, serverType string) *Bundle {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.servers[name]; ok {
		return existing
	}

	logs := logstore.NewWithCapacity(name, serverType, h.opts.LogBuffer)
	logs.SetEcho(h.logger.Logger)
	metrics := metricstore.NewWithCapacity(name, h.opts.MetricBuffer)
	tracer := tracestore.NewWithCapacity(name, h.opts.MaxTraces)

	inst := instrument.New(name, logs, metrics, tracer)
	if h.monitor != nil {
		inst.SetObserver(h.monitor)
	}

	bundle := &Bundle{
		Name:         name,
		Type:         serverType,
		ReceiptID:    uuid.NewString(),
		RegisteredAt: h.now(),
		Logs:         logs,
		Metrics:      metrics,
		Tracer:       tracer,
		Instrumenter: inst,
	}
	h.servers[name] = bundle

	if h.monitor != nil {
		h.monitor.SetServersRegistered(len(h.servers))
	}
	h.logger.Info("registered server bundle",
		zap.String("server", name),
		zap.String("type", serverType),
	)

	return bundle
}

// Get returns a bundle by server name.
func (h *Hub) Get(name string) (*Bundle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	bundle, ok := h.servers[name]
	return bundle, ok
}

// Servers returns registered server names in sorted order.
func (h *Hub) Servers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.servers))
	for name := range h.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bundles snapshots the registered bundles in sorted name order.
func (h *Hub) bundles() []*Bundle {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.servers))
	for name := range h.servers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Bundle, len(names))
	for i, name := range names {
		out[i] = h.servers[name]
	}
	return out
}

func (h *Hub) recordIngest(server, signal string) {
	h.mu.RLock()
	monitor := h.monitor
	h.mu.RUnlock()
	if monitor != nil {
		monitor.RecordIngest(server, signal)
	}
}

func notFound(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}

// Summary reports a process-wide snapshot of one server's observability
// state: identity, session, log totals, metric summary, trace totals.
func (h *Hub) Summary(server string) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not registered")
	}

	recent := bundle.Logs.Recent("", "", 10)
	levels := make([]string, 0, len(recent))
	for _, e := range recent {
		levels = append(levels, string(e.Level))
	}

	return map[string]interface{}{
		"server":     bundle.Name,
		"type":       bundle.Type,
		"session_id": bundle.Logs.SessionID(),
		"logging": map[string]interface{}{
			"buffer_size":   bundle.Logs.Size(),
			"error_count":   bundle.Logs.ErrorCount(),
			"recent_levels": levels,
		},
		"metrics": bundle.Metrics.Summary(),
		"tracing": map[string]interface{}{
			"total_traces":  bundle.Tracer.Size(),
			"active_traces": bundle.Tracer.ActiveCount(),
		},
	}
}
