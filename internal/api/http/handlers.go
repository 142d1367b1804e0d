// Package http holds the gin handlers fronting the provider registry.
// Every route funnels through provider dispatch; handlers only shape
// params and status codes.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/toolscope/toolscope/internal/api/middleware"
	"github.com/toolscope/toolscope/internal/registry"
	"github.com/toolscope/toolscope/internal/service"
	"github.com/toolscope/toolscope/internal/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	hub      *registry.Hub
	version  string
}

// NewHandlers creates a new handler set
func NewHandlers(reg *service.Registry, hub *registry.Hub, version string) *Handlers {
	return &Handlers{
		registry: reg,
		hub:      hub,
		version:  version,
	}
}

// Root handles the banner route
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "toolscope",
		"version": h.version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service_registry": h.registry.Stats(),
		"servers":          h.hub.Servers(),
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if categoryStr := c.Query("category"); categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	services := h.registry.List(category)
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"count":    len(services),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, h.appContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListServers lists registered server bundles
func (h *Handlers) ListServers(c *gin.Context) {
	servers := h.hub.Servers()
	c.JSON(http.StatusOK, gin.H{
		"servers": servers,
		"count":   len(servers),
	})
}

// ServerSummary returns one server's observability snapshot
func (h *Handlers) ServerSummary(c *gin.Context) {
	h.dispatch(c, "system.summary", map[string]interface{}{
		"server_name": c.Param("name"),
	}, http.StatusNotFound)
}

// ServerLogs returns recent log entries for one server
func (h *Handlers) ServerLogs(c *gin.Context) {
	h.dispatch(c, "logs.server", map[string]interface{}{
		"server_name": c.Param("name"),
		"level":       c.Query("level"),
		"tool_name":   c.Query("tool_name"),
		"limit":       queryInt(c, "limit"),
	}, http.StatusNotFound)
}

// SearchLogs searches buffered log entries
func (h *Handlers) SearchLogs(c *gin.Context) {
	params := map[string]interface{}{}
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, "logs.search", params, http.StatusBadRequest)
}

// RecordMetric ingests one metric
func (h *Handlers) RecordMetric(c *gin.Context) {
	params := map[string]interface{}{}
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, "metrics.record", params, http.StatusBadRequest)
}

// ServerMetrics returns a server's metric summary and recent window
func (h *Handlers) ServerMetrics(c *gin.Context) {
	h.dispatch(c, "metrics.server", map[string]interface{}{
		"server_name": c.Param("name"),
		"metric_name": c.Query("metric_name"),
		"time_range":  c.Query("time_range"),
		"limit":       queryInt(c, "limit"),
	}, http.StatusNotFound)
}

// GetTrace fetches one trace by id
func (h *Handlers) GetTrace(c *gin.Context) {
	h.dispatch(c, "traces.get", map[string]interface{}{
		"trace_id":    c.Param("id"),
		"server_name": c.Query("server_name"),
	}, http.StatusNotFound)
}

// ActiveTraces lists a server's unfinished traces
func (h *Handlers) ActiveTraces(c *gin.Context) {
	h.dispatch(c, "traces.active", map[string]interface{}{
		"server_name": c.Param("name"),
	}, http.StatusNotFound)
}

// SlowTraces lists a server's completed traces over a threshold
func (h *Handlers) SlowTraces(c *gin.Context) {
	h.dispatch(c, "traces.slow", map[string]interface{}{
		"server_name":  c.Param("name"),
		"threshold_ms": queryFloat(c, "threshold_ms"),
		"limit":        queryInt(c, "limit"),
	}, http.StatusNotFound)
}

// dispatch routes a typed request through provider dispatch and maps a
// tool-level failure to failStatus.
func (h *Handlers) dispatch(c *gin.Context, toolID string, params map[string]interface{}, failStatus int) {
	result, err := h.registry.Execute(c.Request.Context(), toolID, params, h.appContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !result.Success {
		msg := "operation failed"
		if result.Error != nil {
			msg = *result.Error
		}
		c.JSON(failStatus, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) appContext(c *gin.Context) *types.Context {
	requestID := middleware.GetRequestID(c)
	if requestID == "" {
		return nil
	}
	return &types.Context{RequestID: &requestID}
}

func queryInt(c *gin.Context, key string) float64 {
	val, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return float64(val)
}

func queryFloat(c *gin.Context, key string) float64 {
	val, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return val
}
