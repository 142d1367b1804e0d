// Package metricstore implements per-server metric ingestion and
// on-demand aggregation.
//
// Counters accumulate a running total per name, gauges keep only the
// most recently set value, and histogram/timer samples live only in the
// bounded raw buffer. All aggregate views are computed from snapshots,
// never from partially evicted state.
package metricstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/toolscope/toolscope/internal/shared/ring"
	"github.com/toolscope/toolscope/internal/types"
)

// DefaultCapacity is the default raw metric buffer size.
const DefaultCapacity = 5000

// ErrUnknownKind is returned when a recording call names a metric kind
// outside counter/gauge/histogram/timer. Nothing is stored in that case.
var ErrUnknownKind = errors.New("unknown metric kind")

// Collector is a thread-safe metric store for one server.
type Collector struct {
	serverName string

	mu       sync.RWMutex
	buffer   *ring.Buffer[types.Metric]
	counters map[string]float64
	gauges   map[string]float64
	ingested int // total accepted records, independent of eviction

	now func() time.Time
}

// Option configures optional fields on a metric.
type Option func(*types.Metric)

// WithOperation sets the operation (tool) name.
func WithOperation(name string) Option {
	return func(m *types.Metric) { m.Operation = name }
}

// WithTags sets the tag set.
func WithTags(tags map[string]string) Option {
	return func(m *types.Metric) { m.Tags = tags }
}

// WithMetadata attaches free-form metadata.
func WithMetadata(md map[string]interface{}) Option {
	return func(m *types.Metric) { m.Metadata = md }
}

// New creates a collector with the default buffer capacity.
func New(serverName string) *Collector {
	return NewWithCapacity(serverName, DefaultCapacity)
}

// NewWithCapacity creates a collector with an explicit buffer capacity.
func NewWithCapacity(serverName string, capacity int) *Collector {
	return &Collector{
		serverName: serverName,
		buffer:     ring.New[types.Metric](capacity),
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		now:        time.Now,
	}
}

// ServerName returns the instrumented server's name.
func (c *Collector) ServerName() string { return c.serverName }

// Record ingests one metric. Unknown kinds fail before any mutation.
func (c *Collector) Record(kind types.MetricKind, name string, value float64, opts ...Option) (types.Metric, error) {
	if !kind.Valid() {
		return types.Metric{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	metric := types.Metric{
		Name:       name,
		Kind:       kind,
		Value:      value,
		Timestamp:  c.now(),
		ServerName: c.serverName,
	}
	for _, opt := range opts {
		opt(&metric)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffer.Push(metric)
	c.ingested++

	switch kind {
	case types.KindCounter:
		c.counters[name] += value
	case types.KindGauge:
		c.gauges[name] = value
	}

	return metric, nil
}

// IncrementCounter adds value to the named counter's running total.
func (c *Collector) IncrementCounter(name string, value float64, opts ...Option) (types.Metric, error) {
	return c.Record(types.KindCounter, name, value, opts...)
}

// SetGauge overwrites the named gauge with value.
func (c *Collector) SetGauge(name string, value float64, opts ...Option) (types.Metric, error) {
	return c.Record(types.KindGauge, name, value, opts...)
}

// RecordTimer records a point-in-time duration sample in milliseconds.
func (c *Collector) RecordTimer(name string, durationMS float64, opts ...Option) (types.Metric, error) {
	return c.Record(types.KindTimer, name, durationMS, opts...)
}

// Size returns the number of buffered raw metrics.
func (c *Collector) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buffer.Len()
}

// Snapshot copies the raw buffer in insertion order.
func (c *Collector) Snapshot() []types.Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buffer.Snapshot()
}

// Counters copies the counter running totals.
func (c *Collector) Counters() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyFloats(c.counters)
}

// Gauges copies the last-set gauge values.
func (c *Collector) Gauges() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyFloats(c.gauges)
}

func copyFloats(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
