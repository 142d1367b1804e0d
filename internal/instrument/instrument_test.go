package instrument

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolscope/toolscope/internal/logstore"
	"github.com/toolscope/toolscope/internal/metricstore"
	"github.com/toolscope/toolscope/internal/tracestore"
	"github.com/toolscope/toolscope/internal/types"
)

func newTestInstrumenter() (*Instrumenter, *logstore.Store, *metricstore.Collector, *tracestore.Tracer) {
	logs := logstore.New("files", "connector")
	metrics := metricstore.New("files")
	tracer := tracestore.New("files")
	return New("files", logs, metrics, tracer), logs, metrics, tracer
}

func TestDoSuccess(t *testing.T) {
	inst, logs, metrics, tracer := newTestInstrumenter()

	result, err := inst.Do(context.Background(), "read", func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"bytes": 42}, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, result["bytes"])

	// Counter and timer recorded
	assert.Equal(t, 1.0, metrics.Counters()["tool_read_calls"])
	tm := metrics.ToolMetrics("read")
	assert.Equal(t, 1, tm.Stats["timer"].Count)

	// Starting and completed entries
	entries := logs.Recent("", "read", 10)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "starting tool")
	assert.Contains(t, entries[1].Message, "completed successfully")
	require.NotNil(t, entries[1].DurationMS)

	// A fresh trace named after the operation, with a SUCCESS span
	traces := tracer.Search(tracestore.SearchQuery{Operation: "read"})
	require.Len(t, traces, 1)
	assert.Equal(t, "tool_call_read", traces[0].Name)
	require.Len(t, traces[0].Spans, 1)
	assert.Equal(t, types.StatusSuccess, traces[0].Spans[0].Status)
}

func TestDoFailureReRaisesUnchanged(t *testing.T) {
	inst, logs, metrics, tracer := newTestInstrumenter()

	boom := errors.New("x")
	_, err := inst.Do(context.Background(), "write", func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		return nil, boom
	}, nil)
	assert.Same(t, boom, err, "failure must propagate unchanged")

	assert.Equal(t, 1.0, metrics.Counters()["tool_write_errors"])

	errored := logs.Recent(types.LevelError, "", 10)
	require.Len(t, errored, 1)
	assert.Equal(t, "*errors.errorString", errored[0].ErrorDetails["type"])
	assert.Equal(t, "x", errored[0].ErrorDetails["error"])

	traces := tracer.Search(tracestore.SearchQuery{Operation: "write"})
	require.Len(t, traces, 1)
	assert.Equal(t, types.StatusError, traces[0].Spans[0].Status)
}

func TestDoContinuesTraceFromContext(t *testing.T) {
	inst, _, _, tracer := newTestInstrumenter()

	traceID := tracer.StartTrace("outer")
	ctx := tracestore.ContextWithTrace(context.Background(), traceID)

	_, err := inst.Do(ctx, "read", func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		got, ok := tracestore.TraceFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, traceID, got)
		return nil, nil
	}, nil)
	require.NoError(t, err)

	trace, ok := tracer.Get(traceID)
	require.True(t, ok)
	require.Len(t, trace.Spans, 1)
	assert.Equal(t, "call_read", trace.Spans[0].Name)
}

func TestNestedCallsLinkParentChild(t *testing.T) {
	inst, _, _, tracer := newTestInstrumenter()

	_, err := inst.Do(context.Background(), "outer", func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		return inst.Do(ctx, "inner", func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return nil, nil
		}, nil)
	}, nil)
	require.NoError(t, err)

	traces := tracer.Search(tracestore.SearchQuery{Operation: "outer"})
	require.Len(t, traces, 1)
	require.Len(t, traces[0].Spans, 2)

	outer := traces[0].Spans[0]
	inner := traces[0].Spans[1]
	assert.Empty(t, outer.ParentSpanID)
	assert.Equal(t, outer.SpanID, inner.ParentSpanID, "inner span must be a child of the outer span")
}

func TestParallelCallsKeepSeparateLineage(t *testing.T) {
	inst, _, _, tracer := newTestInstrumenter()

	const parallel = 16
	var wg sync.WaitGroup
	wg.Add(parallel)
	for g := 0; g < parallel; g++ {
		go func() {
			defer wg.Done()
			_, _ = inst.Do(context.Background(), "work", func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
				return nil, nil
			}, nil)
		}()
	}
	wg.Wait()

	// Each parallel call with no incoming context opens its own trace
	traces := tracer.Search(tracestore.SearchQuery{Operation: "work"})
	require.Len(t, traces, parallel)
	for _, trace := range traces {
		require.Len(t, trace.Spans, 1)
		assert.Empty(t, trace.Spans[0].ParentSpanID)
	}
}

func TestDoWithTimeout(t *testing.T) {
	inst, logs, metrics, _ := newTestInstrumenter()

	t.Run("completes in time", func(t *testing.T) {
		result, err := inst.DoWithTimeout(context.Background(), "quick", time.Second, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"ok": true}, nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, true, result["ok"])
	})

	t.Run("expires", func(t *testing.T) {
		_, err := inst.DoWithTimeout(context.Background(), "slow", 10*time.Millisecond, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return nil, nil
			}
		}, nil)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		// Recorded as a failure: span closed, error counted, ERROR logged
		assert.Equal(t, 1.0, metrics.Counters()["tool_slow_errors"])
		assert.Len(t, logs.Recent(types.LevelError, "slow", 10), 1)
	})
}
