package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/toolscope/toolscope/internal/logstore"
	"github.com/toolscope/toolscope/internal/types"
)

// LogEvent appends one structured entry to a server's log buffer.
func (h *Hub) LogEvent(server string, level types.Level, message string, opts ...logstore.Option) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not registered for logging")
	}
	if level == "" {
		level = types.LevelInfo
	}
	if !level.Valid() {
		return notFound(fmt.Sprintf("unknown log level %q", level))
	}

	entry := bundle.Logs.Log(level, message, opts...)
	h.recordIngest(server, "log")

	return map[string]interface{}{
		"success": true,
		"entry":   entry,
		"server":  server,
	}
}

// LogSearchQuery filters SearchLogs.
type LogSearchQuery struct {
	Query     string
	Server    string // empty searches all registered servers
	Level     types.Level
	Operation string
	Window    string // time-range label; unrecognized falls back to 1h
	Limit     int
}

// SearchLogs searches buffered entries across one or all servers. The
// result carries the matches in chronological order, capped to the most
// recent limit.
func (h *Hub) SearchLogs(q LogSearchQuery) map[string]interface{} {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	window := WindowOrDefault(q.Window)
	cutoff := window.Since(h.now())

	storeQuery := logstore.SearchQuery{
		Query:     q.Query,
		Level:     q.Level,
		Operation: q.Operation,
		Since:     cutoff,
	}

	var matched []types.LogEntry
	if q.Server != "" {
		bundle, ok := h.Get(q.Server)
		if !ok {
			return notFound("server '" + q.Server + "' not registered for logging")
		}
		matched = bundle.Logs.Search(storeQuery)
	} else {
		for _, bundle := range h.bundles() {
			matched = append(matched, bundle.Logs.Search(storeQuery)...)
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		})
	}

	total := len(matched)
	if len(matched) > q.Limit {
		matched = matched[len(matched)-q.Limit:]
	}

	return map[string]interface{}{
		"logs":          matched,
		"total_matched": total,
		"showing":       len(matched),
		"query":         q.Query,
		"filters": map[string]interface{}{
			"server_name": q.Server,
			"level":       string(q.Level),
			"tool_name":   q.Operation,
			"time_range":  window.Label,
		},
	}
}

// ServerLogs returns the most recent limit entries for one server.
func (h *Hub) ServerLogs(server string, level types.Level, operation string, limit int) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not registered for logging")
	}
	if limit <= 0 {
		limit = 50
	}

	logs := bundle.Logs.Recent(level, operation, limit)
	return map[string]interface{}{
		"server":      server,
		"logs":        logs,
		"count":       len(logs),
		"buffer_size": bundle.Logs.Size(),
	}
}

// AnalyzeToolPerformance derives timing statistics from the log entries
// that carry durations, optionally narrowed to one operation.
func (h *Hub) AnalyzeToolPerformance(server, operation string) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not registered for logging")
	}

	var relevant []types.LogEntry
	for _, e := range bundle.Logs.Snapshot() {
		if e.DurationMS == nil {
			continue
		}
		if operation != "" && e.Operation != operation {
			continue
		}
		relevant = append(relevant, e)
	}

	if len(relevant) == 0 {
		return map[string]interface{}{"message": "no performance data available"}
	}

	durations := make([]float64, len(relevant))
	successes, failures := 0, 0
	perTool := make(map[string][]float64)
	for i, e := range relevant {
		durations[i] = *e.DurationMS
		if e.Level == types.LevelError || e.Level == types.LevelCritical {
			failures++
		} else {
			successes++
		}
		if e.Operation != "" {
			perTool[e.Operation] = append(perTool[e.Operation], *e.DurationMS)
		}
	}

	type toolTiming struct {
		Tool      string  `json:"tool"`
		AvgTimeMS float64 `json:"avg_time"`
		CallCount int     `json:"call_count"`
	}
	slowest := make([]toolTiming, 0, len(perTool))
	for tool, times := range perTool {
		slowest = append(slowest, toolTiming{
			Tool:      tool,
			AvgTimeMS: stat.Mean(times, nil),
			CallCount: len(times),
		})
	}
	sort.SliceStable(slowest, func(i, j int) bool {
		return slowest[i].AvgTimeMS > slowest[j].AvgTimeMS
	})
	if len(slowest) > 10 {
		slowest = slowest[:10]
	}

	return map[string]interface{}{
		"server":        server,
		"count":         len(durations),
		"avg_ms":        stat.Mean(durations, nil),
		"min_ms":        floats.Min(durations),
		"max_ms":        floats.Max(durations),
		"success_count": successes,
		"error_count":   failures,
		"slowest_tools": slowest,
	}
}

// ExportLogs writes one server's full log buffer to path as a flat
// ordered JSON document. An empty path defaults to <server>_logs.json;
// relative paths resolve against the configured export directory.
func (h *Hub) ExportLogs(server, path string) map[string]interface{} {
	bundle, ok := h.Get(server)
	if !ok {
		return notFound("server '" + server + "' not registered for logging")
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = server + "_logs.json"
	}
	if !filepath.IsAbs(path) && h.opts.ExportDir != "" {
		path = filepath.Join(h.opts.ExportDir, path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return notFound(fmt.Sprintf("export failed: %v", err))
		}
	}

	if err := bundle.Logs.Export(path); err != nil {
		return notFound(fmt.Sprintf("export failed: %v", err))
	}
	return map[string]interface{}{
		"success": true,
		"server":  server,
		"path":    path,
		"entries": bundle.Logs.Size(),
	}
}
