// Package http is the thin HTTP adapter over the workflow facade. It carries
// no business logic: handlers translate requests to facade calls and map the
// error taxonomy onto status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appworkflow "github.com/procurelab/procuresim/internal/application/workflow"
	"github.com/procurelab/procuresim/internal/report"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ExportDir    string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ExportDir:    "exports",
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server over the workflow facade
func NewServer(config ServerConfig, facade *appworkflow.Facade, exporter *report.Exporter, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(facade, exporter, config.ExportDir, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

// requestIDMiddleware tags every request so log lines can be correlated
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("Request handled",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)

	api := s.router.Group("/api/v1")
	{
		api.POST("/requisitions", s.handlers.CreateRequisition)
		api.GET("/requisitions", s.handlers.ListRequisitions)
		api.GET("/requisitions/:number", s.handlers.GetRequisition)
		api.PUT("/requisitions/:number", s.handlers.UpdateRequisition)
		api.POST("/requisitions/:number/submit", s.handlers.SubmitRequisition)
		api.POST("/requisitions/:number/approve", s.handlers.ApproveRequisition)
		api.POST("/requisitions/:number/reject", s.handlers.RejectRequisition)
		api.POST("/requisitions/:number/cancel", s.handlers.CancelRequisition)
		api.POST("/requisitions/:number/convert", s.handlers.ConvertRequisition)

		api.POST("/orders", s.handlers.CreateOrder)
		api.GET("/orders", s.handlers.ListOrders)
		api.GET("/orders/:number", s.handlers.GetOrder)
		api.PUT("/orders/:number", s.handlers.UpdateOrder)
		api.POST("/orders/:number/submit", s.handlers.SubmitOrder)
		api.POST("/orders/:number/approve", s.handlers.ApproveOrder)
		api.POST("/orders/:number/reject", s.handlers.RejectOrder)
		api.POST("/orders/:number/cancel", s.handlers.CancelOrder)
		api.POST("/orders/:number/receipts", s.handlers.ReceiveOrderItems)
		api.POST("/orders/:number/complete", s.handlers.CompleteOrder)

		api.GET("/export", s.handlers.Export)
	}
}

// Start begins listening; it blocks until the server stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server starting", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the underlying router for tests
func (s *Server) Router() http.Handler {
	return s.router
}
