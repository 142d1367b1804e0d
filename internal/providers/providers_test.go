package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolscope/toolscope/internal/registry"
	"github.com/toolscope/toolscope/internal/types"
)

func newHub(t *testing.T) *registry.Hub {
	t.Helper()
	return registry.New(nil, registry.DefaultOptions())
}

func execute(t *testing.T, p interface {
	Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)
}, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()
	result, err := p.Execute(context.Background(), toolID, params, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestLogsProvider(t *testing.T) {
	hub := newHub(t)
	p := NewLogs(hub)

	t.Run("definition", func(t *testing.T) {
		def := p.Definition()
		assert.Equal(t, "logs", def.ID)
		assert.Equal(t, types.CategoryLogging, def.Category)
		assert.Len(t, def.Tools, 6)
	})

	t.Run("register", func(t *testing.T) {
		result := execute(t, p, "logs.register", map[string]interface{}{
			"server_name": "api",
			"server_type": "gateway",
		})
		require.True(t, result.Success)
		assert.Equal(t, "api", result.Data["server"])
		assert.NotEmpty(t, result.Data["receipt_id"])
		assert.NotEmpty(t, result.Data["session_id"])
	})

	t.Run("register requires server_name", func(t *testing.T) {
		result := execute(t, p, "logs.register", map[string]interface{}{})
		assert.False(t, result.Success)
	})

	t.Run("event and server logs", func(t *testing.T) {
		result := execute(t, p, "logs.event", map[string]interface{}{
			"server_name": "api",
			"message":     "request handled",
			"level":       "info",
			"tool_name":   "fetch_user",
			"duration_ms": 12.5,
		})
		require.True(t, result.Success)

		result = execute(t, p, "logs.server", map[string]interface{}{
			"server_name": "api",
		})
		require.True(t, result.Success)
		assert.Equal(t, 1, result.Data["count"])
	})

	t.Run("event lowercase level accepted", func(t *testing.T) {
		result := execute(t, p, "logs.event", map[string]interface{}{
			"server_name": "api",
			"message":     "warn entry",
			"level":       "warning",
		})
		require.True(t, result.Success)
	})

	t.Run("event unknown level rejected", func(t *testing.T) {
		result := execute(t, p, "logs.event", map[string]interface{}{
			"server_name": "api",
			"message":     "bad",
			"level":       "loud",
		})
		assert.False(t, result.Success)
	})

	t.Run("event requires message", func(t *testing.T) {
		result := execute(t, p, "logs.event", map[string]interface{}{
			"server_name": "api",
		})
		assert.False(t, result.Success)
	})

	t.Run("search", func(t *testing.T) {
		result := execute(t, p, "logs.search", map[string]interface{}{
			"query": "request",
		})
		require.True(t, result.Success)
		assert.Equal(t, 1, result.Data["total_matched"])
	})

	t.Run("analyze tool", func(t *testing.T) {
		result := execute(t, p, "logs.analyze_tool", map[string]interface{}{
			"server_name": "api",
			"tool_name":   "fetch_user",
		})
		require.True(t, result.Success)
		assert.Equal(t, 1, result.Data["count"])
	})

	t.Run("export to unknown server", func(t *testing.T) {
		result := execute(t, p, "logs.export", map[string]interface{}{
			"server_name": "ghost",
			"path":        t.TempDir() + "/out.json",
		})
		assert.False(t, result.Success)
	})

	t.Run("unknown tool", func(t *testing.T) {
		result := execute(t, p, "logs.nope", map[string]interface{}{})
		assert.False(t, result.Success)
		require.NotNil(t, result.Error)
		assert.Contains(t, *result.Error, "unknown tool")
	})
}

func TestMetricsProvider(t *testing.T) {
	hub := newHub(t)
	p := NewMetrics(hub)
	execute(t, p, "metrics.register", map[string]interface{}{"server_name": "api"})

	t.Run("definition", func(t *testing.T) {
		def := p.Definition()
		assert.Equal(t, "metrics", def.ID)
		assert.Len(t, def.Tools, 5)
	})

	t.Run("record counter", func(t *testing.T) {
		result := execute(t, p, "metrics.record", map[string]interface{}{
			"server_name": "api",
			"name":        "requests",
			"type":        "counter",
			"value":       3.0,
			"tool_name":   "fetch_user",
		})
		require.True(t, result.Success)
	})

	t.Run("record unknown kind rejected", func(t *testing.T) {
		result := execute(t, p, "metrics.record", map[string]interface{}{
			"server_name": "api",
			"name":        "requests",
			"type":        "meter",
			"value":       1.0,
		})
		assert.False(t, result.Success)
	})

	t.Run("uppercase kind accepted", func(t *testing.T) {
		result := execute(t, p, "metrics.record", map[string]interface{}{
			"server_name": "api",
			"name":        "latency",
			"type":        "TIMER",
			"value":       42.0,
		})
		require.True(t, result.Success)
	})

	t.Run("server metrics", func(t *testing.T) {
		result := execute(t, p, "metrics.server", map[string]interface{}{
			"server_name": "api",
			"time_range":  "last_24h",
		})
		require.True(t, result.Success)
		assert.Equal(t, "last_24h", result.Data["time_range"])
		assert.Equal(t, 2, result.Data["count"])
	})

	t.Run("analyze", func(t *testing.T) {
		result := execute(t, p, "metrics.analyze", map[string]interface{}{
			"server_name": "api",
		})
		require.True(t, result.Success)
		assert.Contains(t, result.Data, "recommendations")
	})

	t.Run("compare", func(t *testing.T) {
		result := execute(t, p, "metrics.compare", map[string]interface{}{
			"metric_name": "requests",
			"servers":     []interface{}{"api", "ghost"},
		})
		require.True(t, result.Success)
		assert.Equal(t, 1, result.Data["servers_compared"])
	})

	t.Run("compare requires servers", func(t *testing.T) {
		result := execute(t, p, "metrics.compare", map[string]interface{}{
			"metric_name": "requests",
		})
		assert.False(t, result.Success)
	})
}

func TestTracesProvider(t *testing.T) {
	hub := newHub(t)
	p := NewTraces(hub)
	execute(t, p, "traces.register", map[string]interface{}{"server_name": "api"})

	t.Run("definition", func(t *testing.T) {
		def := p.Definition()
		assert.Equal(t, "traces", def.ID)
		assert.Len(t, def.Tools, 6)
	})

	t.Run("start and get", func(t *testing.T) {
		result := execute(t, p, "traces.start", map[string]interface{}{
			"server_name": "api",
			"trace_name":  "checkout",
		})
		require.True(t, result.Success)
		traceID, ok := result.Data["trace_id"].(string)
		require.True(t, ok)

		result = execute(t, p, "traces.get", map[string]interface{}{
			"trace_id": traceID,
		})
		require.True(t, result.Success)
		assert.Equal(t, "api", result.Data["found_in"])
	})

	t.Run("get unknown trace", func(t *testing.T) {
		result := execute(t, p, "traces.get", map[string]interface{}{
			"trace_id": "trace_missing",
		})
		assert.False(t, result.Success)
	})

	t.Run("analyze requires trace_id", func(t *testing.T) {
		result := execute(t, p, "traces.analyze", map[string]interface{}{})
		assert.False(t, result.Success)
	})

	t.Run("slow traces empty", func(t *testing.T) {
		result := execute(t, p, "traces.slow", map[string]interface{}{
			"server_name": "api",
		})
		require.True(t, result.Success)
		assert.Equal(t, 0, result.Data["count"])
		assert.Equal(t, 1000.0, result.Data["threshold_ms"])
	})

	t.Run("active traces", func(t *testing.T) {
		result := execute(t, p, "traces.active", map[string]interface{}{
			"server_name": "api",
		})
		require.True(t, result.Success)
		assert.Equal(t, 1, result.Data["count"])
	})
}

func TestSystemProvider(t *testing.T) {
	hub := newHub(t)
	hub.RegisterServer("api", "gateway")
	p := NewSystem(hub)

	t.Run("definition", func(t *testing.T) {
		def := p.Definition()
		assert.Equal(t, "system", def.ID)
		assert.Equal(t, types.CategorySystem, def.Category)
		assert.Len(t, def.Tools, 3)
	})

	t.Run("snapshot", func(t *testing.T) {
		result := execute(t, p, "system.snapshot", map[string]interface{}{})
		require.True(t, result.Success)
		assert.Contains(t, result.Data, "goroutines")
		assert.Contains(t, result.Data, "runtime")
	})

	t.Run("sample feeds gauges", func(t *testing.T) {
		result := execute(t, p, "system.sample", map[string]interface{}{
			"server_name": "api",
		})
		require.True(t, result.Success)

		sampled, ok := result.Data["sampled"].(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, sampled, "memory_usage_mb")

		bundle, ok := hub.Get("api")
		require.True(t, ok)
		gauges := bundle.Metrics.Gauges()
		assert.Contains(t, gauges, "memory_usage_mb")
		assert.Greater(t, gauges["memory_usage_mb"], 0.0)
	})

	t.Run("sample unknown server", func(t *testing.T) {
		result := execute(t, p, "system.sample", map[string]interface{}{
			"server_name": "ghost",
		})
		assert.False(t, result.Success)
	})

	t.Run("summary", func(t *testing.T) {
		result := execute(t, p, "system.summary", map[string]interface{}{
			"server_name": "api",
		})
		require.True(t, result.Success)
		assert.Equal(t, "api", result.Data["server"])
	})
}
