package registry

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/toolscope/toolscope/internal/metricstore"
	"github.com/toolscope/toolscope/internal/types"
)

// RecordMetric ingests one metric into a server's collector. The kind is
// validated before any store mutation.
func (h *Hub) RecordMetric(server string, kind types.MetricKind, name string, value float64, opts ...metricstore.Option) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not registered for metrics")
	}

	metric, err := bundle.Metrics.Record(kind, name, value, opts...)
	if err != nil {
		return notFound(err.Error())
	}
	h.recordIngest(server, "metric")

	return map[string]interface{}{
		"success": true,
		"metric":  metric,
		"server":  server,
	}
}

// ServerMetrics returns a server's summary plus its buffered metrics
// inside the window, optionally narrowed to one metric name.
func (h *Hub) ServerMetrics(server, name, windowLabel string, limit int) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("no metrics found for server '" + server + "'")
	}
	if limit <= 0 {
		limit = 100
	}
	window := WindowOrDefault(windowLabel)
	cutoff := window.Since(h.now())

	var filtered []types.Metric
	for _, m := range bundle.Metrics.Snapshot() {
		if m.Timestamp.Before(cutoff) {
			continue
		}
		if name != "" && m.Name != name {
			continue
		}
		filtered = append(filtered, m)
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	return map[string]interface{}{
		"server":     server,
		"summary":    bundle.Metrics.Summary(),
		"metrics":    filtered,
		"count":      len(filtered),
		"time_range": window.Label,
	}
}

// thresholds for generated recommendations
const (
	highErrorCount  = 100
	slowToolAvgMS   = 1000
	highMemoryMB    = 500
	memoryGaugeName = "memory_usage_mb"
)

// AnalyzeServerPerformance combines the metric summary with per-operation
// timing and generated textual recommendations.
func (h *Hub) AnalyzeServerPerformance(server string) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not found")
	}

	summary := bundle.Metrics.Summary()

	// Per-operation timing from the raw buffer
	perTool := make(map[string]*toolPerf)
	for _, m := range bundle.Metrics.Snapshot() {
		if m.Operation == "" {
			continue
		}
		tp, ok := perTool[m.Operation]
		if !ok {
			tp = &toolPerf{}
			perTool[m.Operation] = tp
		}
		switch m.Kind {
		case types.KindCounter:
			tp.calls++
		case types.KindTimer:
			tp.timers = append(tp.timers, m.Value)
		}
	}

	toolPerformance := make(map[string]interface{}, len(perTool))
	for tool, tp := range perTool {
		if len(tp.timers) == 0 {
			continue
		}
		toolPerformance[tool] = map[string]interface{}{
			"call_count":        tp.calls,
			"avg_response_time": stat.Mean(tp.timers, nil),
			"min_response_time": floats.Min(tp.timers),
			"max_response_time": floats.Max(tp.timers),
		}
	}

	return map[string]interface{}{
		"server":           server,
		"summary":          summary,
		"tool_performance": toolPerformance,
		"recommendations":  recommendations(summary, toolPerformance),
	}
}

type toolPerf struct {
	calls  int
	timers []float64
}

// recommendations flags high error counts, slow operations, and high
// memory gauge readings.
func recommendations(summary metricstore.Summary, toolPerformance map[string]interface{}) []string {
	out := []string{}

	var errorTotal float64
	for name, total := range summary.Counters {
		if name == "errors" || strings.HasSuffix(name, "_errors") {
			errorTotal += total
		}
	}
	if errorTotal > highErrorCount {
		out = append(out, fmt.Sprintf("High error count (%.0f). Check server logs for issues.", errorTotal))
	}

	for tool, perf := range toolPerformance {
		stats, ok := perf.(map[string]interface{})
		if !ok {
			continue
		}
		if avg, ok := stats["avg_response_time"].(float64); ok && avg > slowToolAvgMS {
			out = append(out, fmt.Sprintf("Tool '%s' is slow (avg %.1fms). Consider optimization.", tool, avg))
		}
	}

	if memory := summary.Gauges[memoryGaugeName]; memory > highMemoryMB {
		out = append(out, fmt.Sprintf("High memory usage (%.0fMB). Check for memory leaks.", memory))
	}

	return out
}

// CompareServers compares one named metric across multiple servers.
// Servers without that metric, or not registered, are omitted.
func (h *Hub) CompareServers(metric string, servers []string) map[string]interface{} {
	comparison := make(map[string]interface{})

	for _, server := range servers {
		bundle, ok := h.Get(server)
		if !ok {
			continue
		}

		var values []float64
		for _, m := range bundle.Metrics.Snapshot() {
			if m.Name == metric {
				values = append(values, m.Value)
			}
		}
		if len(values) == 0 {
			continue
		}

		comparison[server] = map[string]interface{}{
			"count":        len(values),
			"avg":          stat.Mean(values, nil),
			"min":          floats.Min(values),
			"max":          floats.Max(values),
			"recent_value": values[len(values)-1],
		}
	}

	return map[string]interface{}{
		"metric":           metric,
		"comparison":       comparison,
		"servers_compared": len(comparison),
	}
}
