package providers

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/toolscope/toolscope/internal/metricstore"
	"github.com/toolscope/toolscope/internal/registry"
	"github.com/toolscope/toolscope/internal/types"
)

const bytesPerMB = 1024 * 1024

// System samples process and host resource usage. system.sample feeds
// the gauges the performance analyzer reads (memory_usage_mb and
// friends); system.snapshot is a read-only view.
type System struct {
	hub     *registry.Hub
	proc    *process.Process
	started time.Time
}

// NewSystem creates the system monitor provider. The process handle is
// best effort; sampling degrades to runtime stats when unavailable.
func NewSystem(hub *registry.Hub) *System {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &System{
		hub:     hub,
		proc:    proc,
		started: time.Now(),
	}
}

// Definition returns service metadata
func (p *System) Definition() types.Service {
	return types.Service{
		ID:          "system",
		Name:        "System Monitor",
		Description: "Process and host resource sampling for the observability pipeline",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"system_stats",
			"resource_sampling",
			"server_summary",
		},
		Tools: []types.Tool{
			{
				ID:          "system.snapshot",
				Name:        "System Snapshot",
				Description: "Current process and host resource usage",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.sample",
				Name:        "Sample Resources",
				Description: "Record current resource usage into a server's gauges",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "system.summary",
				Name:        "Server Summary",
				Description: "Process-wide snapshot of one server's observability state",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs a system operation
func (p *System) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "system.snapshot":
		return p.snapshot(ctx)
	case "system.sample":
		return p.sample(ctx, params)
	case "system.summary":
		return p.summary(params)
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *System) snapshot(ctx context.Context) (*types.Result, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	data := map[string]interface{}{
		"timestamp":      time.Now().Unix(),
		"uptime_seconds": time.Since(p.started).Seconds(),
		"goroutines":     runtime.NumGoroutine(),
		"runtime": map[string]interface{}{
			"heap_alloc_bytes": memStats.HeapAlloc,
			"sys_bytes":        memStats.Sys,
			"num_gc":           memStats.NumGC,
			"gomaxprocs":       runtime.GOMAXPROCS(0),
			"num_cpu":          runtime.NumCPU(),
		},
	}

	if vmStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		data["host_memory"] = map[string]interface{}{
			"total_bytes":  vmStats.Total,
			"used_bytes":   vmStats.Used,
			"used_percent": vmStats.UsedPercent,
		}
	}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		data["host_cpu_percent"] = percents[0]
	}
	if p.proc != nil {
		if info, err := p.proc.MemoryInfoWithContext(ctx); err == nil {
			data["process_rss_mb"] = float64(info.RSS) / bytesPerMB
		}
		if percent, err := p.proc.CPUPercentWithContext(ctx); err == nil {
			data["process_cpu_percent"] = percent
		}
	}

	return success(data)
}

// sample records gauges into the server's collector so the analyzer's
// memory recommendation has a producer.
func (p *System) sample(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	bundle, ok := p.hub.Get(server)
	if !ok {
		return failure("server '" + server + "' not registered")
	}

	gauges := map[string]float64{
		"goroutines": float64(runtime.NumGoroutine()),
	}

	if p.proc != nil {
		if info, err := p.proc.MemoryInfoWithContext(ctx); err == nil {
			gauges["memory_usage_mb"] = float64(info.RSS) / bytesPerMB
		}
		if percent, err := p.proc.CPUPercentWithContext(ctx); err == nil {
			gauges["cpu_percent"] = percent
		}
	}
	if _, ok := gauges["memory_usage_mb"]; !ok {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		gauges["memory_usage_mb"] = float64(memStats.HeapAlloc) / bytesPerMB
	}
	if vmStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		gauges["host_memory_percent"] = vmStats.UsedPercent
	}

	recorded := make(map[string]interface{}, len(gauges))
	for name, value := range gauges {
		if _, err := bundle.Metrics.SetGauge(name, value, metricstore.WithOperation("system_sample")); err == nil {
			recorded[name] = value
		}
	}

	return success(map[string]interface{}{
		"server":  server,
		"sampled": recorded,
	})
}

func (p *System) summary(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	return resultFrom(p.hub.Summary(server))
}
