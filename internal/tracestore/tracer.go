// Package tracestore implements trace and span lifecycle for one server.
//
// Spans and traces both move STARTED -> {SUCCESS, ERROR, WARNING}, each
// entered exactly once; a trace's status is never derived from its spans.
// Trace retention is bounded: past capacity the oldest trace by creation
// order is evicted from the full and active indices regardless of whether
// it has ended, along with its spans. That keeps the recency bias of the
// other buffers at the cost of occasionally dropping an in-flight trace.
package tracestore

import (
	"sync"
	"time"

	"github.com/toolscope/toolscope/internal/shared/id"
	"github.com/toolscope/toolscope/internal/types"
)

// DefaultMaxTraces is the default trace retention bound.
const DefaultMaxTraces = 1000

// traceState keeps the trace record and its span ids. Spans are stored
// once in the tracer's span index and materialized into copies on read.
type traceState struct {
	trace   types.Trace
	spanIDs []string
}

// Tracer is a thread-safe trace/span store for one server.
type Tracer struct {
	serverName string

	mu     sync.RWMutex
	traces map[string]*traceState
	spans  map[string]*types.Span
	active map[string]struct{}
	order  []string // trace ids in creation order, drives eviction
	max    int

	now func() time.Time
}

// New creates a tracer with the default retention bound.
func New(serverName string) *Tracer {
	return NewWithCapacity(serverName, DefaultMaxTraces)
}

// NewWithCapacity creates a tracer retaining at most maxTraces traces.
func NewWithCapacity(serverName string, maxTraces int) *Tracer {
	if maxTraces <= 0 {
		maxTraces = 1
	}
	return &Tracer{
		serverName: serverName,
		traces:     make(map[string]*traceState),
		spans:      make(map[string]*types.Span),
		active:     make(map[string]struct{}),
		max:        maxTraces,
		now:        time.Now,
	}
}

// ServerName returns the instrumented server's name.
func (t *Tracer) ServerName() string { return t.serverName }

// SetClock replaces the tracer's time source. Intended for tests that
// need deterministic durations.
func (t *Tracer) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now != nil {
		t.now = now
	}
}

// TraceOption configures StartTrace.
type TraceOption func(*traceOptions)

type traceOptions struct {
	traceID string
	tags    map[string]string
}

// WithTraceID honors a caller-supplied trace id instead of generating one.
func WithTraceID(traceID string) TraceOption {
	return func(o *traceOptions) { o.traceID = traceID }
}

// WithTraceTags sets tags on the new trace.
func WithTraceTags(tags map[string]string) TraceOption {
	return func(o *traceOptions) { o.tags = tags }
}

// StartTrace creates a trace, registers it in the full and active
// indices, and returns its id. The root span id is generated but not
// materialized as a span.
func (t *Tracer) StartTrace(name string, opts ...TraceOption) string {
	var o traceOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.traceID == "" {
		o.traceID = id.NewTraceID().String()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTraceLocked(name, o.traceID, o.tags)
	return o.traceID
}

func (t *Tracer) startTraceLocked(name, traceID string, tags map[string]string) {
	t.traces[traceID] = &traceState{
		trace: types.Trace{
			TraceID:    traceID,
			RootSpanID: id.NewSpanID().String(),
			Name:       name,
			ServerName: t.serverName,
			StartTime:  t.now(),
			Status:     types.StatusStarted,
			Tags:       tags,
		},
	}
	t.active[traceID] = struct{}{}
	t.order = append(t.order, traceID)
	t.evictLocked()
}

// evictLocked drops the oldest traces until the retention bound holds.
// Eviction removes the trace from both indices and discards its spans.
func (t *Tracer) evictLocked() {
	for len(t.traces) > t.max && len(t.order) > 0 {
		oldest := t.order[0]
		t.order = t.order[1:]

		state, ok := t.traces[oldest]
		if !ok {
			continue
		}
		for _, spanID := range state.spanIDs {
			delete(t.spans, spanID)
		}
		delete(t.traces, oldest)
		delete(t.active, oldest)
	}
}

// SpanOption configures StartSpan.
type SpanOption func(*spanOptions)

type spanOptions struct {
	parentSpanID string
	tags         map[string]string
}

// WithParent attaches the new span as a child of parentSpanID.
func WithParent(parentSpanID string) SpanOption {
	return func(o *spanOptions) { o.parentSpanID = parentSpanID }
}

// WithSpanTags sets tags on the new span.
func WithSpanTags(tags map[string]string) SpanOption {
	return func(o *spanOptions) { o.tags = tags }
}

// StartSpan creates a span inside traceID and appends it to the trace's
// span list. An unknown trace id is not an error: a trace named after
// the span is auto-created first.
func (t *Tracer) StartSpan(traceID, name, operation string, opts ...SpanOption) types.Span {
	var o spanOptions
	for _, opt := range opts {
		opt(&o)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.traces[traceID]
	if !ok {
		t.startTraceLocked("auto_"+name, traceID, nil)
		state = t.traces[traceID]
	}

	span := &types.Span{
		SpanID:       id.NewSpanID().String(),
		TraceID:      traceID,
		ParentSpanID: o.parentSpanID,
		Name:         name,
		ServerName:   t.serverName,
		Operation:    operation,
		StartTime:    t.now(),
		Status:       types.StatusStarted,
		Tags:         o.tags,
	}

	t.spans[span.SpanID] = span
	state.spanIDs = append(state.spanIDs, span.SpanID)

	return *span
}

// EndSpan moves a span to its terminal status, sets end time and error
// details, and computes the duration. Unknown ids and already-ended
// spans return ok=false and mutate nothing.
func (t *Tracer) EndSpan(spanID string, status types.SpanStatus, errorDetails map[string]interface{}) (types.Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	span, ok := t.spans[spanID]
	if !ok || span.Status.Terminal() {
		return types.Span{}, false
	}

	end := t.now()
	span.EndTime = &end
	span.Status = status
	span.ErrorDetails = errorDetails
	span.DurationMS = float64(end.Sub(span.StartTime)) / float64(time.Millisecond)

	return *span, true
}

// EndTrace moves a trace to its terminal status, computes the total
// duration, and removes it from the active index. Unknown ids and
// already-ended traces return ok=false and mutate nothing.
func (t *Tracer) EndTrace(traceID string, status types.SpanStatus) (types.Trace, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.traces[traceID]
	if !ok || state.trace.Status.Terminal() {
		return types.Trace{}, false
	}

	end := t.now()
	state.trace.EndTime = &end
	state.trace.Status = status
	state.trace.TotalDurationMS = float64(end.Sub(state.trace.StartTime)) / float64(time.Millisecond)
	delete(t.active, traceID)

	return t.materializeLocked(state), true
}

// Scoped runs fn inside a span and guarantees the span is closed on
// every exit path: SUCCESS on a nil error, ERROR with the failure's
// description otherwise. The original error is returned unchanged.
func (t *Tracer) Scoped(traceID, name, operation, parentSpanID string, fn func(span types.Span) error) error {
	var opts []SpanOption
	if parentSpanID != "" {
		opts = append(opts, WithParent(parentSpanID))
	}
	span := t.StartSpan(traceID, name, operation, opts...)

	err := fn(span)
	if err != nil {
		t.EndSpan(span.SpanID, types.StatusError, map[string]interface{}{"error": err.Error()})
		return err
	}
	t.EndSpan(span.SpanID, types.StatusSuccess, nil)
	return nil
}

// Get returns a copy of the trace with its spans materialized.
func (t *Tracer) Get(traceID string) (types.Trace, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state, ok := t.traces[traceID]
	if !ok {
		return types.Trace{}, false
	}
	return t.materializeLocked(state), true
}

// GetSpan returns a copy of one span.
func (t *Tracer) GetSpan(spanID string) (types.Span, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	span, ok := t.spans[spanID]
	if !ok {
		return types.Span{}, false
	}
	return *span, true
}

// Active returns copies of all traces that have started but not ended,
// in creation order.
func (t *Tracer) Active() []types.Trace {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.Trace, 0, len(t.active))
	for _, traceID := range t.order {
		if _, ok := t.active[traceID]; !ok {
			continue
		}
		if state, ok := t.traces[traceID]; ok {
			out = append(out, t.materializeLocked(state))
		}
	}
	return out
}

// Size returns the number of retained traces.
func (t *Tracer) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.traces)
}

// ActiveCount returns the number of traces not yet ended.
func (t *Tracer) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

// SearchQuery filters traces in Search.
type SearchQuery struct {
	Operation     string
	Status        types.SpanStatus
	MinDurationMS *float64
	MaxDurationMS *float64
}

// Search returns copies of retained traces matching the query, in
// creation order. Duration bounds apply only to traces whose total
// duration has been computed.
func (t *Tracer) Search(q SearchQuery) []types.Trace {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []types.Trace
	for _, traceID := range t.order {
		state, ok := t.traces[traceID]
		if !ok {
			continue
		}

		if q.Operation != "" && !t.hasOperationLocked(state, q.Operation) {
			continue
		}
		if q.Status != "" && state.trace.Status != q.Status {
			continue
		}
		if state.trace.Finished() {
			if q.MinDurationMS != nil && state.trace.TotalDurationMS < *q.MinDurationMS {
				continue
			}
			if q.MaxDurationMS != nil && state.trace.TotalDurationMS > *q.MaxDurationMS {
				continue
			}
		}

		out = append(out, t.materializeLocked(state))
	}
	return out
}

func (t *Tracer) hasOperationLocked(state *traceState, operation string) bool {
	for _, spanID := range state.spanIDs {
		if span, ok := t.spans[spanID]; ok && span.Operation == operation {
			return true
		}
	}
	return false
}

// materializeLocked copies the trace record and fills in span copies in
// append order. Callers hold at least a read lock.
func (t *Tracer) materializeLocked(state *traceState) types.Trace {
	trace := state.trace
	trace.Spans = make([]types.Span, 0, len(state.spanIDs))
	for _, spanID := range state.spanIDs {
		if span, ok := t.spans[spanID]; ok {
			trace.Spans = append(trace.Spans, *span)
		}
	}
	return trace
}
