package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/toolscope/toolscope/internal/metricstore"
	"github.com/toolscope/toolscope/internal/registry"
	"github.com/toolscope/toolscope/internal/types"
)

// Metrics exposes the hub's metric operations as tools.
type Metrics struct {
	hub *registry.Hub
}

// NewMetrics creates the metrics provider.
func NewMetrics(hub *registry.Hub) *Metrics {
	return &Metrics{hub: hub}
}

// Definition returns service metadata
func (p *Metrics) Definition() types.Service {
	return types.Service{
		ID:          "metrics",
		Name:        "Metrics",
		Description: "Counter, gauge, and timer ingestion with summaries and comparison",
		Category:    types.CategoryMetrics,
		Capabilities: []string{
			"metric_ingestion",
			"metric_summary",
			"performance_analysis",
			"server_comparison",
		},
		Tools: []types.Tool{
			{
				ID:          "metrics.register",
				Name:        "Register Server",
				Description: "Register a server for metric collection",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "server_type", Type: "string", Description: "Server type", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "metrics.record",
				Name:        "Record Metric",
				Description: "Ingest one metric (counter, gauge, histogram, or timer)",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "name", Type: "string", Description: "Metric name", Required: true},
					{Name: "type", Type: "string", Description: "counter|gauge|histogram|timer", Required: true},
					{Name: "value", Type: "number", Description: "Metric value", Required: true},
					{Name: "tool_name", Type: "string", Description: "Operation the metric belongs to", Required: false},
					{Name: "tags", Type: "object", Description: "Tag map", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "metrics.server",
				Name:        "Server Metrics",
				Description: "Summary plus buffered metrics inside a time window",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "metric_name", Type: "string", Description: "Narrow to one metric", Required: false},
					{Name: "time_range", Type: "string", Description: "last_15m|last_1h|last_24h|last_7d", Required: false},
					{Name: "limit", Type: "number", Description: "Maximum raw metrics returned", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "metrics.analyze",
				Name:        "Analyze Server Performance",
				Description: "Summary, per-operation timing, and recommendations",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "metrics.compare",
				Name:        "Compare Servers",
				Description: "Compare one metric across multiple servers",
				Parameters: []types.Parameter{
					{Name: "metric_name", Type: "string", Description: "Metric name", Required: true},
					{Name: "servers", Type: "array", Description: "Server names", Required: true},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs a metrics operation
func (p *Metrics) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "metrics.register":
		return registerServer(p.hub, params)
	case "metrics.record":
		return p.record(params)
	case "metrics.server":
		return p.serverMetrics(params)
	case "metrics.analyze":
		return p.analyze(params)
	case "metrics.compare":
		return p.compare(params)
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Metrics) record(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	name := getString(params, "name")
	if name == "" {
		return failure("name is required")
	}
	kind := types.MetricKind(strings.ToLower(getString(params, "type")))

	var opts []metricstore.Option
	if tool := getString(params, "tool_name"); tool != "" {
		opts = append(opts, metricstore.WithOperation(tool))
	}
	if tags := getStringMap(params, "tags"); tags != nil {
		opts = append(opts, metricstore.WithTags(tags))
	}
	if md := getMap(params, "metadata"); md != nil {
		opts = append(opts, metricstore.WithMetadata(md))
	}

	return resultFrom(p.hub.RecordMetric(server, kind, name, getFloat64(params, "value"), opts...))
}

func (p *Metrics) serverMetrics(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	return resultFrom(p.hub.ServerMetrics(
		server,
		getString(params, "metric_name"),
		getString(params, "time_range"),
		getInt(params, "limit"),
	))
}

func (p *Metrics) analyze(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	return resultFrom(p.hub.AnalyzeServerPerformance(server))
}

func (p *Metrics) compare(params map[string]interface{}) (*types.Result, error) {
	metric := getString(params, "metric_name")
	if metric == "" {
		return failure("metric_name is required")
	}
	servers := getStringSlice(params, "servers")
	if len(servers) == 0 {
		return failure("servers is required")
	}
	return resultFrom(p.hub.CompareServers(metric, servers))
}
