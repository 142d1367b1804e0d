package registry

import (
	"sort"

	"github.com/toolscope/toolscope/internal/tracestore"
	"github.com/toolscope/toolscope/internal/types"
)

// StartServerTrace starts a trace on one server's tracer. A non-empty
// traceID is honored instead of a generated id.
func (h *Hub) StartServerTrace(server, name, traceID string) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not registered for tracing")
	}

	var opts []tracestore.TraceOption
	if traceID != "" {
		opts = append(opts, tracestore.WithTraceID(traceID))
	}
	started := bundle.Tracer.StartTrace(name, opts...)
	h.recordIngest(server, "trace")

	return map[string]interface{}{
		"success":    true,
		"trace_id":   started,
		"server":     server,
		"trace_name": name,
	}
}

// GetTrace fetches a trace by id, scoped to one server when given, else
// searched across all registered tracers.
func (h *Hub) GetTrace(traceID, server string) map[string]interface{} {
	if server != "" {
		if bundle, ok := h.Get(server); ok {
			if trace, found := bundle.Tracer.Get(traceID); found {
				return map[string]interface{}{"trace": trace, "found_in": server}
			}
		}
		return notFound("trace '" + traceID + "' not found")
	}

	for _, bundle := range h.bundles() {
		if trace, found := bundle.Tracer.Get(traceID); found {
			return map[string]interface{}{"trace": trace, "found_in": bundle.Name}
		}
	}
	return notFound("trace '" + traceID + "' not found")
}

// AnalyzeTracePerformance analyzes one trace, scoped to a server when
// given, else located across all registered tracers.
func (h *Hub) AnalyzeTracePerformance(server, traceID string) map[string]interface{} {
	if server != "" {
		bundle, ok := h.Get(server)
		if !ok {
			return notFound("server '" + server + "' not found")
		}
		return bundle.Tracer.Analyze(traceID)
	}

	for _, bundle := range h.bundles() {
		if _, found := bundle.Tracer.Get(traceID); found {
			return bundle.Tracer.Analyze(traceID)
		}
	}
	return notFound("trace '" + traceID + "' not found")
}

// FindSlowTraces returns one server's completed traces whose total
// duration exceeds thresholdMS, slowest first.
func (h *Hub) FindSlowTraces(server string, thresholdMS float64, limit int) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not found")
	}
	if limit <= 0 {
		limit = 10
	}

	slow := bundle.Tracer.Search(tracestore.SearchQuery{MinDurationMS: &thresholdMS})

	// Search leaves unfinished traces in because duration bounds only
	// apply to computed durations; slow-trace listing wants completed
	// traces only.
	completed := slow[:0]
	for _, trace := range slow {
		if trace.Finished() {
			completed = append(completed, trace)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].TotalDurationMS > completed[j].TotalDurationMS
	})
	if len(completed) > limit {
		completed = completed[:limit]
	}

	return map[string]interface{}{
		"server":       server,
		"threshold_ms": thresholdMS,
		"traces":       completed,
		"count":        len(completed),
	}
}

// ActiveTraces lists one server's started-but-unfinished traces.
func (h *Hub) ActiveTraces(server string) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not found")
	}

	active := bundle.Tracer.Active()
	if active == nil {
		active = []types.Trace{}
	}
	return map[string]interface{}{
		"server": server,
		"traces": active,
		"count":  len(active),
	}
}
