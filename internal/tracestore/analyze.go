package tracestore

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const slowestSpanCount = 5

// Analyze reports span statistics, the slowest spans, and a per-operation
// breakdown for one trace. Unknown traces, traces without spans, and
// traces without a parent-less root span produce structured error or
// no-data results instead of failures.
func (t *Tracer) Analyze(traceID string) map[string]interface{} {
	trace, ok := t.Get(traceID)
	if !ok {
		return map[string]interface{}{"error": fmt.Sprintf("trace %q not found", traceID)}
	}
	if len(trace.Spans) == 0 {
		return map[string]interface{}{"message": "no spans in trace"}
	}

	hasRoot := false
	for _, span := range trace.Spans {
		if span.ParentSpanID == "" {
			hasRoot = true
			break
		}
	}
	if !hasRoot {
		return map[string]interface{}{"error": "no root span found"}
	}

	var durations []float64
	for _, span := range trace.Spans {
		if span.Finished() {
			durations = append(durations, span.DurationMS)
		}
	}

	spanStats := map[string]interface{}{
		"avg_duration": 0.0,
		"min_duration": 0.0,
		"max_duration": 0.0,
	}
	if len(durations) > 0 {
		spanStats["avg_duration"] = stat.Mean(durations, nil)
		spanStats["min_duration"] = floats.Min(durations)
		spanStats["max_duration"] = floats.Max(durations)
	}

	// Stable sort keeps original span order on duration ties.
	byDuration := make([]int, len(trace.Spans))
	for i := range byDuration {
		byDuration[i] = i
	}
	sort.SliceStable(byDuration, func(a, b int) bool {
		return trace.Spans[byDuration[a]].DurationMS > trace.Spans[byDuration[b]].DurationMS
	})

	slowest := make([]map[string]interface{}, 0, slowestSpanCount)
	for _, idx := range byDuration {
		if len(slowest) == slowestSpanCount {
			break
		}
		span := trace.Spans[idx]
		slowest = append(slowest, map[string]interface{}{
			"span_id":     span.SpanID,
			"name":        span.Name,
			"tool":        span.Operation,
			"duration_ms": span.DurationMS,
		})
	}

	breakdown := make(map[string]map[string]interface{})
	for _, span := range trace.Spans {
		entry, ok := breakdown[span.Operation]
		if !ok {
			entry = map[string]interface{}{"count": 0, "total_time": 0.0}
			breakdown[span.Operation] = entry
		}
		entry["count"] = entry["count"].(int) + 1
		entry["total_time"] = entry["total_time"].(float64) + span.DurationMS
	}

	return map[string]interface{}{
		"trace_id":          trace.TraceID,
		"server":            trace.ServerName,
		"total_spans":       len(trace.Spans),
		"total_duration_ms": trace.TotalDurationMS,
		"span_statistics":   spanStats,
		"slowest_spans":     slowest,
		"tool_breakdown":    breakdown,
	}
}
