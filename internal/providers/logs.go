package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/toolscope/toolscope/internal/logstore"
	"github.com/toolscope/toolscope/internal/registry"
	"github.com/toolscope/toolscope/internal/types"
)

// Logs exposes the hub's structured-logging operations as tools.
type Logs struct {
	hub *registry.Hub
}

// NewLogs creates the logging provider.
func NewLogs(hub *registry.Hub) *Logs {
	return &Logs{hub: hub}
}

// Definition returns service metadata
func (p *Logs) Definition() types.Service {
	return types.Service{
		ID:          "logs",
		Name:        "Structured Logs",
		Description: "Structured log ingestion, search, and performance analysis",
		Category:    types.CategoryLogging,
		Capabilities: []string{
			"log_ingestion",
			"log_search",
			"tool_performance",
			"log_export",
		},
		Tools: []types.Tool{
			{
				ID:          "logs.register",
				Name:        "Register Server",
				Description: "Register a server for log collection",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "server_type", Type: "string", Description: "Server type", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "logs.event",
				Name:        "Log Event",
				Description: "Append one structured log entry",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "message", Type: "string", Description: "Log message", Required: true},
					{Name: "level", Type: "string", Description: "DEBUG|INFO|WARNING|ERROR|CRITICAL", Required: false},
					{Name: "tool_name", Type: "string", Description: "Operation the entry belongs to", Required: false},
					{Name: "duration_ms", Type: "number", Description: "Operation duration in ms", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "logs.search",
				Name:        "Search Logs",
				Description: "Search buffered entries across one or all servers",
				Parameters: []types.Parameter{
					{Name: "query", Type: "string", Description: "Message substring", Required: false},
					{Name: "server_name", Type: "string", Description: "Restrict to one server", Required: false},
					{Name: "level", Type: "string", Description: "Level filter", Required: false},
					{Name: "time_range", Type: "string", Description: "last_15m|last_1h|last_24h|last_7d", Required: false},
					{Name: "limit", Type: "number", Description: "Maximum matches", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "logs.server",
				Name:        "Server Logs",
				Description: "Most recent entries for one server",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "level", Type: "string", Description: "Level filter", Required: false},
					{Name: "tool_name", Type: "string", Description: "Operation filter", Required: false},
					{Name: "limit", Type: "number", Description: "Maximum entries", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "logs.analyze_tool",
				Name:        "Analyze Tool Performance",
				Description: "Timing statistics from log entries carrying durations",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "tool_name", Type: "string", Description: "Narrow to one operation", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "logs.export",
				Name:        "Export Logs",
				Description: "Write the full log buffer to a file (gzip when path ends .gz)",
				Parameters: []types.Parameter{
					{Name: "server_name", Type: "string", Description: "Server name", Required: true},
					{Name: "path", Type: "string", Description: "Destination path; defaults to <server>_logs.json under the export directory", Required: false},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs a logging operation
func (p *Logs) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "logs.register":
		return registerServer(p.hub, params)
	case "logs.event":
		return p.event(params, appCtx)
	case "logs.search":
		return p.search(params)
	case "logs.server":
		return p.serverLogs(params)
	case "logs.analyze_tool":
		return p.analyzeTool(params)
	case "logs.export":
		return p.export(params)
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Logs) event(params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	message := getString(params, "message")
	if message == "" {
		return failure("message is required")
	}

	var opts []logstore.Option
	if tool := getString(params, "tool_name"); tool != "" {
		opts = append(opts, logstore.WithOperation(tool))
	}
	if user := getString(params, "user_id"); user != "" {
		opts = append(opts, logstore.WithUser(user))
	}
	if _, ok := params["duration_ms"]; ok {
		opts = append(opts, logstore.WithDuration(getFloat64(params, "duration_ms")))
	}
	if details := getMap(params, "error_details"); details != nil {
		opts = append(opts, logstore.WithErrorDetails(details))
	}
	if md := getMap(params, "metadata"); md != nil {
		opts = append(opts, logstore.WithMetadata(md))
	}
	if appCtx != nil && appCtx.RequestID != nil {
		opts = append(opts, logstore.WithRequestID(*appCtx.RequestID))
	}

	level := parseLevel(getString(params, "level"))
	return resultFrom(p.hub.LogEvent(server, level, message, opts...))
}

func (p *Logs) search(params map[string]interface{}) (*types.Result, error) {
	return resultFrom(p.hub.SearchLogs(registry.LogSearchQuery{
		Query:     getString(params, "query"),
		Server:    getString(params, "server_name"),
		Level:     parseLevel(getString(params, "level")),
		Operation: getString(params, "tool_name"),
		Window:    getString(params, "time_range"),
		Limit:     getInt(params, "limit"),
	}))
}

func (p *Logs) serverLogs(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	return resultFrom(p.hub.ServerLogs(
		server,
		parseLevel(getString(params, "level")),
		getString(params, "tool_name"),
		getInt(params, "limit"),
	))
}

func (p *Logs) analyzeTool(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	return resultFrom(p.hub.AnalyzeToolPerformance(server, getString(params, "tool_name")))
}

func (p *Logs) export(params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	return resultFrom(p.hub.ExportLogs(server, getString(params, "path")))
}

// parseLevel maps a loosely-cased level param to the canonical form.
// Empty input stays empty so store-level defaults apply.
func parseLevel(raw string) types.Level {
	if raw == "" {
		return ""
	}
	return types.Level(strings.ToUpper(raw))
}

// registerServer creates (or fetches) a server bundle. Shared by the
// logs, metrics, and traces register tools; the bundle is one per name.
func registerServer(hub *registry.Hub, params map[string]interface{}) (*types.Result, error) {
	server := getString(params, "server_name")
	if server == "" {
		return failure("server_name is required")
	}
	serverType := getString(params, "server_type")
	if serverType == "" {
		serverType = "custom"
	}

	bundle := hub.RegisterServer(server, serverType)
	return success(map[string]interface{}{
		"server":        bundle.Name,
		"type":          bundle.Type,
		"receipt_id":    bundle.ReceiptID,
		"session_id":    bundle.Logs.SessionID(),
		"registered_at": bundle.RegisteredAt,
	})
}
