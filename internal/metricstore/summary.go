package metricstore

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/toolscope/toolscope/internal/types"
)

// Summary is the aggregate view of one collector.
type Summary struct {
	Server       string             `json:"server"`
	TotalMetrics int                `json:"total_metrics"`
	Counters     map[string]float64 `json:"counters"`
	Gauges       map[string]float64 `json:"gauges"`
	CounterRates map[string]float64 `json:"counter_rates"`
	Recent       []types.Metric     `json:"recent_metrics"`
}

// KindStats aggregates raw samples of one metric kind.
type KindStats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ToolMetrics is the per-operation aggregate view.
type ToolMetrics struct {
	Tool       string               `json:"tool"`
	TotalCalls int                  `json:"total_calls"`
	Stats      map[string]KindStats `json:"statistics"`
	Recent     []types.Metric       `json:"recent_metrics"`
}

const recentSummaryCount = 20
const recentToolCount = 10

// Summary builds the aggregate view over the current buffer contents.
//
// A counter's rate is its running total divided by the elapsed seconds
// between the first and last currently buffered sample of that name.
// Names with fewer than two buffered samples, or zero elapsed time,
// are absent from CounterRates rather than reported as zero. Buffer
// eviction therefore shifts the rate window; see the package notes.
func (c *Collector) Summary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	buffered := c.buffer.Snapshot()

	summary := Summary{
		Server:       c.serverName,
		TotalMetrics: len(buffered),
		Counters:     copyFloats(c.counters),
		Gauges:       copyFloats(c.gauges),
		CounterRates: make(map[string]float64),
	}

	recent := buffered
	if len(recent) > recentSummaryCount {
		recent = recent[len(recent)-recentSummaryCount:]
	}
	summary.Recent = append([]types.Metric(nil), recent...)

	for name, total := range c.counters {
		var first, last *types.Metric
		for i := range buffered {
			m := &buffered[i]
			if m.Name != name || m.Kind != types.KindCounter {
				continue
			}
			if first == nil {
				first = m
			}
			last = m
		}
		if first == nil || first == last {
			continue
		}
		elapsed := last.Timestamp.Sub(first.Timestamp).Seconds()
		if elapsed > 0 {
			summary.CounterRates[name] = total / elapsed
		}
	}

	return summary
}

// ToolMetrics aggregates buffered metrics for one operation, grouped by
// kind. It reads only the raw buffer, so results are independent of the
// counter and gauge registries.
func (c *Collector) ToolMetrics(operation string) ToolMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []types.Metric
	c.buffer.Each(func(m types.Metric) bool {
		if m.Operation == operation {
			matched = append(matched, m)
		}
		return true
	})

	out := ToolMetrics{
		Tool:  operation,
		Stats: make(map[string]KindStats),
	}

	byKind := make(map[types.MetricKind][]float64)
	for _, m := range matched {
		byKind[m.Kind] = append(byKind[m.Kind], m.Value)
		if m.Kind == types.KindCounter {
			out.TotalCalls++
		}
	}

	for kind, values := range byKind {
		out.Stats[string(kind)] = KindStats{
			Count: len(values),
			Sum:   floats.Sum(values),
			Avg:   stat.Mean(values, nil),
			Min:   floats.Min(values),
			Max:   floats.Max(values),
		}
	}

	recent := matched
	if len(recent) > recentToolCount {
		recent = recent[len(recent)-recentToolCount:]
	}
	out.Recent = recent

	return out
}
