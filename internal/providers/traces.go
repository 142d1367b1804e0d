package providers

import (
	"context"
	"fmt"

	"github.com/toolscope/toolscope/internal/registry"
	"github.com/toolscope/toolscope/internal/types"
)

// Traces exposes the hub's tracing operations as tools.
type Traces struct {
	hub *registry.Hub
}

// NewTraces creates the tracing provider.
func NewTraces(hub *registry.Hub) *Traces {
	return &Traces{hub: hub}
}

// Definition returns service metadata
func (p *Traces) Definition() types.Service {
	return types.Service{
		ID:          "traces",
		Name:        "Traces",
		Description: "Distributed trace lifecycle, lookup, and performance analysis",
		Category:    types.CategoryTracing,
		Capabilities: []string{
			"trace_lifecycle",
			"trace_lookup",
			"trace_analysis",
			"slow_trace_detection",
		},
		Tools: []types.Tool{
			{
				ID:          "traces.register",
				Name:        "Register Server",
				Description: "Register a server for trace collection",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "server_type", Type: "string", Description: "Server type", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "traces.start",
				Name:        "Start Trace",
				Description: "Start a trace on one server's tracer",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "trace_name", Type: "string", Description: "Trace name", Required: true},
					{Name: "trace_id", Type: "string", Description: "Caller-supplied trace id", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "traces.get",
				Name:        "Get Trace",
				Description: "Fetch a trace by id, scoped or across all servers",
				Parameters: []types.Parameter{
					{Name: "trace_id", Type: "string", Description: "Trace id", Required: true},
					{Name: "server_name", Type: "string", Description: "Restrict to one server", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "traces.analyze",
				Name:        "Analyze Trace",
				Description: "Span statistics, slowest spans, and per-operation breakdown",
				Parameters: []types.Parameter{
					{Name: "trace_id", Type: "string", Description: "Trace id", Required: true},
					{Name: "server_name", Type: "string", Description: "Restrict to one server", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "traces.slow",
				Name:        "Find Slow Traces",
				Description: "Completed traces over a duration threshold, slowest first",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "threshold_ms", Type: "number", Description: "Minimum total duration (default 1000)", Required: false},
					{Name: "limit", Type: "number", Description: "Maximum traces returned", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "traces.active",
				Name:        "Active Traces",
				Description: "Started-but-unfinished traces for one server",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs a tracing operation
func (p *Traces) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "traces.register":
		return registerServer(p.hub, params)
	case "traces.start":
		return p.start(params)
	case "traces.get":
		return p.get(params)
	case "traces.analyze":
		return p.analyze(params)
	case "traces.slow":
		return p.slow(params)
	case "traces.active":
		return p.active(params)
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Traces) start(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	name := getString(params, "trace_name")
	if name == "" {
		return failure("trace_name is required")
	}
	return resultFrom(p.hub.StartServerTrace(server, name, getString(params, "trace_id")))
}

func (p *Traces) get(params map[string]interface{}) (*types.Result, error) {
	traceID := getString(params, "trace_id")
	if traceID == "" {
		return failure("trace_id is required")
	}
	return resultFrom(p.hub.GetTrace(traceID, getString(params, "server_name")))
}

func (p *Traces) analyze(params map[string]interface{}) (*types.Result, error) {
	traceID := getString(params, "trace_id")
	if traceID == "" {
		return failure("trace_id is required")
	}
	return resultFrom(p.hub.AnalyzeTracePerformance(getString(params, "server_name"), traceID))
}

func (p *Traces) slow(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	threshold := getFloat64(params, "threshold_ms")
	if threshold <= 0 {
		threshold = 1000
	}
	return resultFrom(p.hub.FindSlowTraces(server, threshold, getInt(params, "limit")))
}

func (p *Traces) active(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	return resultFrom(p.hub.ActiveTraces(server))
}
