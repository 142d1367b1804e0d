package tracestore

import "context"

// Context keys for trace propagation. Trace and span identity travels
// only through context.Context so nested and parallel calls each see
// their own lineage.
type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// ContextWithTrace returns a context carrying traceID.
func ContextWithTrace(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// ContextWithSpan returns a context carrying spanID.
func ContextWithSpan(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey, spanID)
}

// TraceFromContext retrieves the trace id, if any.
func TraceFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(traceIDKey).(string)
	return traceID, ok && traceID != ""
}

// SpanFromContext retrieves the span id, if any.
func SpanFromContext(ctx context.Context) (string, bool) {
	spanID, ok := ctx.Value(spanIDKey).(string)
	return spanID, ok && spanID != ""
}
