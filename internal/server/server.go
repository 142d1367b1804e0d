// Package server wires configuration, logging, self-monitoring, the
// hub, and the provider registry into one HTTP service.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/toolscope/toolscope/internal/api/http"
	"github.com/toolscope/toolscope/internal/api/middleware"
	"github.com/toolscope/toolscope/internal/infrastructure/config"
	"github.com/toolscope/toolscope/internal/infrastructure/monitoring"
	"github.com/toolscope/toolscope/internal/logging"
	"github.com/toolscope/toolscope/internal/providers"
	"github.com/toolscope/toolscope/internal/registry"
	"github.com/toolscope/toolscope/internal/service"
)

// Version reported on the banner and health routes.
const Version = "0.1.0"

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	hub      *registry.Hub
	registry *service.Registry
	monitor  *monitoring.Metrics
	httpSrv  *http.Server
}

// New creates a server from configuration.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	promReg := prometheus.NewRegistry()
	monitor := monitoring.New(promReg)

	hub := registry.New(logger, registry.Options{
		LogBuffer:    cfg.Pipeline.LogBuffer,
		MetricBuffer: cfg.Pipeline.MetricBuffer,
		MaxTraces:    cfg.Pipeline.MaxTraces,
		ExportDir:    cfg.Pipeline.ExportDir,
	})
	hub.SetMonitor(monitor)

	serviceRegistry := service.NewRegistry()
	registerProviders(serviceRegistry, hub, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(monitor))

	handlers := apihttp.NewHandlers(serviceRegistry, hub, Version)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	// Service management
	router.GET("/services", handlers.ListServices)
	router.POST("/services/execute", handlers.ExecuteService)

	// Typed convenience routes over the same providers
	router.GET("/servers", handlers.ListServers)
	router.GET("/servers/:name/summary", handlers.ServerSummary)
	router.GET("/servers/:name/logs", handlers.ServerLogs)
	router.GET("/servers/:name/metrics", handlers.ServerMetrics)
	router.GET("/servers/:name/traces/active", handlers.ActiveTraces)
	router.GET("/servers/:name/traces/slow", handlers.SlowTraces)
	router.POST("/logs/search", handlers.SearchLogs)
	router.POST("/metrics/record", handlers.RecordMetric)
	router.GET("/traces/:id", handlers.GetTrace)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      hub,
		registry: serviceRegistry,
		monitor:  monitor,
		httpSrv: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}, nil
}

// Hub exposes the aggregation layer, mainly for embedding and tests.
func (s *Server) Hub() *registry.Hub {
	return s.hub
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("starting server", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpSrv.Shutdown(ctx)
}

func registerProviders(reg *service.Registry, hub *registry.Hub, logger *logging.Logger) {
	for _, provider := range []service.Provider{
		providers.NewLogs(hub),
		providers.NewMetrics(hub),
		providers.NewTraces(hub),
		providers.NewSystem(hub),
	} {
		def := provider.Definition()
		if err := reg.Register(provider); err != nil {
			logger.Warn("failed to register provider",
				zap.String("service", def.ID),
				zap.Error(err),
			)
			continue
		}
		logger.Info("registered provider",
			zap.String("service", def.ID),
			zap.Int("tools", len(def.Tools)),
		)
	}
}
