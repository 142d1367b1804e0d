// Package instrument wraps named operations with correlated logging,
// metrics, and tracing.
//
// Trace and span identity is carried through context.Context rather than
// wrapper state, so parallel invocations sharing one Instrumenter never
// race on lineage: each call opens its span under whatever trace/span the
// caller's context carries, and hands its callee a child context.
package instrument

import (
	"context"
	"fmt"
	"time"

	"github.com/toolscope/toolscope/internal/logstore"
	"github.com/toolscope/toolscope/internal/metricstore"
	"github.com/toolscope/toolscope/internal/tracestore"
	"github.com/toolscope/toolscope/internal/types"
)

// Func is the calling convention of a wrapped operation.
type Func func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

// Observer receives a copy of every instrumented call's outcome.
// Implemented by the self-monitoring layer; nil-safe via noopObserver.
type Observer interface {
	ObserveToolCall(server, tool, status string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveToolCall(string, string, string, time.Duration) {}

// Instrumenter bundles one server's log store, metric collector, and
// tracer behind a single wrapping entry point.
type Instrumenter struct {
	server   string
	logs     *logstore.Store
	metrics  *metricstore.Collector
	tracer   *tracestore.Tracer
	observer Observer

	now func() time.Time
}

// New creates an instrumenter over one server's three stores.
func New(server string, logs *logstore.Store, metrics *metricstore.Collector, tracer *tracestore.Tracer) *Instrumenter {
	return &Instrumenter{
		server:   server,
		logs:     logs,
		metrics:  metrics,
		tracer:   tracer,
		observer: noopObserver{},
		now:      time.Now,
	}
}

// SetObserver routes call outcomes to the given observer.
func (i *Instrumenter) SetObserver(obs Observer) {
	if obs != nil {
		i.observer = obs
	}
}

// Do invokes fn as the named operation with full instrumentation:
// a trace is continued from ctx or opened fresh, a child span is opened,
// a starting log entry and a call counter are emitted, and on completion
// a timer metric, a completion log entry, and the span's terminal status
// follow. A failing fn additionally bumps the per-operation error counter
// and its error is returned unchanged, never wrapped or masked.
func (i *Instrumenter) Do(ctx context.Context, operation string, fn Func, args map[string]interface{}) (map[string]interface{}, error) {
	traceID, ok := tracestore.TraceFromContext(ctx)
	if !ok {
		traceID = i.tracer.StartTrace("tool_call_" + operation)
	}

	var spanOpts []tracestore.SpanOption
	if parentID, ok := tracestore.SpanFromContext(ctx); ok {
		spanOpts = append(spanOpts, tracestore.WithParent(parentID))
	}
	span := i.tracer.StartSpan(traceID, "call_"+operation, operation, spanOpts...)

	childCtx := tracestore.ContextWithSpan(tracestore.ContextWithTrace(ctx, traceID), span.SpanID)

	i.logs.Info("starting tool: "+operation,
		logstore.WithOperation(operation),
		logstore.WithRequestID(traceID),
	)
	i.metrics.IncrementCounter("tool_"+operation+"_calls", 1, metricstore.WithOperation(operation))

	start := i.now()
	result, err := fn(childCtx, args)
	elapsed := i.now().Sub(start)
	elapsedMS := float64(elapsed) / float64(time.Millisecond)

	if err != nil {
		details := map[string]interface{}{
			"error": err.Error(),
			"type":  fmt.Sprintf("%T", err),
		}
		i.metrics.IncrementCounter("tool_"+operation+"_errors", 1, metricstore.WithOperation(operation))
		i.logs.Error(fmt.Sprintf("tool %s failed after %.1fms: %v", operation, elapsedMS, err),
			logstore.WithOperation(operation),
			logstore.WithRequestID(traceID),
			logstore.WithDuration(elapsedMS),
			logstore.WithErrorDetails(details),
		)
		i.tracer.EndSpan(span.SpanID, types.StatusError, details)
		i.observer.ObserveToolCall(i.server, operation, "error", elapsed)
		return result, err
	}

	i.metrics.RecordTimer("tool_"+operation+"_duration", elapsedMS, metricstore.WithOperation(operation))
	i.logs.Info(fmt.Sprintf("tool %s completed successfully in %.1fms", operation, elapsedMS),
		logstore.WithOperation(operation),
		logstore.WithRequestID(traceID),
		logstore.WithDuration(elapsedMS),
	)
	i.tracer.EndSpan(span.SpanID, types.StatusSuccess, nil)
	i.observer.ObserveToolCall(i.server, operation, "success", elapsed)
	return result, nil
}

// DoWithTimeout runs Do under a deadline. On expiry the call is recorded
// as a failure with context.DeadlineExceeded and its span closes, while
// fn's goroutine is left to observe its own context cancellation.
func (i *Instrumenter) DoWithTimeout(ctx context.Context, operation string, timeout time.Duration, fn Func, args map[string]interface{}) (map[string]interface{}, error) {
	bounded := func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type outcome struct {
			result map[string]interface{}
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			result, err := fn(ctx, args)
			done <- outcome{result, err}
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case out := <-done:
			return out.result, out.err
		}
	}

	return i.Do(ctx, operation, bounded, args)
}
