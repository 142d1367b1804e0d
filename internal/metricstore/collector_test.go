package metricstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolscope/toolscope/internal/types"
)

func TestCountersAccumulate(t *testing.T) {
	c := New("files")

	_, err := c.IncrementCounter("requests", 3)
	require.NoError(t, err)
	_, err = c.IncrementCounter("requests", 4)
	require.NoError(t, err)

	assert.Equal(t, 7.0, c.Counters()["requests"])
}

func TestGaugesKeepLastValue(t *testing.T) {
	c := New("files")

	_, err := c.SetGauge("memory_usage_mb", 120)
	require.NoError(t, err)
	_, err = c.SetGauge("memory_usage_mb", 340)
	require.NoError(t, err)

	assert.Equal(t, 340.0, c.Gauges()["memory_usage_mb"])
}

func TestUnknownKindRejectedBeforeMutation(t *testing.T) {
	c := New("files")

	_, err := c.Record(types.MetricKind("bogus"), "x", 1)
	require.ErrorIs(t, err, ErrUnknownKind)

	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.Counters())
	assert.Empty(t, c.Gauges())
}

func TestTimersOnlyTouchBuffer(t *testing.T) {
	c := New("files")

	_, err := c.RecordTimer("tool_read_duration", 42.0, WithOperation("read"))
	require.NoError(t, err)

	assert.Equal(t, 1, c.Size())
	assert.Empty(t, c.Counters())
	assert.Empty(t, c.Gauges())
}

func TestBufferEviction(t *testing.T) {
	c := NewWithCapacity("files", 4)

	for i := 0; i < 10; i++ {
		_, err := c.IncrementCounter("n", 1)
		require.NoError(t, err)
	}

	assert.Equal(t, 4, c.Size())
	// Running total survives eviction
	assert.Equal(t, 10.0, c.Counters()["n"])
}

func TestCounterRate(t *testing.T) {
	c := New("files")

	base := time.Now()
	c.now = func() time.Time { return base }
	_, err := c.IncrementCounter("requests", 10)
	require.NoError(t, err)

	c.now = func() time.Time { return base.Add(5 * time.Second) }
	_, err = c.IncrementCounter("requests", 10)
	require.NoError(t, err)

	summary := c.Summary()
	rate, ok := summary.CounterRates["requests"]
	require.True(t, ok)
	assert.InDelta(t, 20.0/5.0, rate, 1e-9)
}

func TestCounterRateAbsentWithOneSample(t *testing.T) {
	c := New("files")

	_, err := c.IncrementCounter("lonely", 1)
	require.NoError(t, err)

	summary := c.Summary()
	_, ok := summary.CounterRates["lonely"]
	assert.False(t, ok, "single-sample counters report no rate")
}

func TestCounterRateAbsentWithZeroElapsed(t *testing.T) {
	c := New("files")

	fixed := time.Now()
	c.now = func() time.Time { return fixed }
	for i := 0; i < 3; i++ {
		_, err := c.IncrementCounter("burst", 1)
		require.NoError(t, err)
	}

	summary := c.Summary()
	_, ok := summary.CounterRates["burst"]
	assert.False(t, ok, "zero elapsed time reports no rate")
}

func TestSummaryRecent(t *testing.T) {
	c := New("files")

	for i := 0; i < 30; i++ {
		_, err := c.IncrementCounter("n", 1)
		require.NoError(t, err)
	}

	summary := c.Summary()
	assert.Equal(t, 30, summary.TotalMetrics)
	assert.Len(t, summary.Recent, 20)
}

func TestToolMetrics(t *testing.T) {
	c := New("files")

	_, err := c.IncrementCounter("tool_read_calls", 1, WithOperation("read"))
	require.NoError(t, err)
	for _, v := range []float64{10, 20, 60} {
		_, err := c.RecordTimer("tool_read_duration", v, WithOperation("read"))
		require.NoError(t, err)
	}
	_, err = c.RecordTimer("tool_write_duration", 500, WithOperation("write"))
	require.NoError(t, err)

	tm := c.ToolMetrics("read")
	assert.Equal(t, "read", tm.Tool)
	assert.Equal(t, 1, tm.TotalCalls)

	timers, ok := tm.Stats["timer"]
	require.True(t, ok)
	assert.Equal(t, 3, timers.Count)
	assert.Equal(t, 90.0, timers.Sum)
	assert.Equal(t, 30.0, timers.Avg)
	assert.Equal(t, 10.0, timers.Min)
	assert.Equal(t, 60.0, timers.Max)

	counters, ok := tm.Stats["counter"]
	require.True(t, ok)
	assert.Equal(t, 1, counters.Count)
}

func TestToolMetricsEmpty(t *testing.T) {
	c := New("files")
	tm := c.ToolMetrics("never-called")
	assert.Zero(t, tm.TotalCalls)
	assert.Empty(t, tm.Stats)
	assert.Empty(t, tm.Recent)
}

func TestConcurrentRecording(t *testing.T) {
	c := NewWithCapacity("files", 64)

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				_, _ = c.IncrementCounter("hits", 1)
			}
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}

	assert.Equal(t, 800.0, c.Counters()["hits"])
	assert.Equal(t, 64, c.Size())
}
