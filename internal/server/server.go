// Package server exposes the pipeline over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/worker"
)

// Server is the HTTP API
type Server struct {
	cfg     model.ServerConfig
	checker worker.Checker
	logger  logger.Logger
	metrics *metrics.Metrics
	router  *gin.Engine
	http    *http.Server
}

// New creates the server and its routes. A nil metrics disables /metrics.
func New(cfg model.ServerConfig, checker worker.Checker, log logger.Logger, m *metrics.Metrics) *Server {
	log = logger.OrNop(log)

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		checker: checker,
		logger:  log,
		metrics: m,
		router:  gin.New(),
	}

	s.router.Use(RecoveryMiddleware(log))
	s.router.Use(RequestIDMiddleware(log))
	s.router.Use(LoggerMiddleware(log, m))
	s.router.Use(CORSMiddleware(cfg.CORSOrigins))
	s.routes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	api := s.router.Group("/api")
	{
		api.POST("/detect", s.detect)
		api.GET("/health", s.health)
	}
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.http.Addr
}

// Start serves until the server is shut down
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		logger.String("address", s.http.Addr),
		logger.Duration("read_timeout", s.http.ReadTimeout),
		logger.Duration("write_timeout", s.http.WriteTimeout),
		logger.Duration("request_timeout", s.cfg.RequestTimeout),
	)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests up to the configured shutdown timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", logger.Duration("timeout", s.cfg.ShutdownTimeout))

	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Run serves until SIGINT, SIGTERM or ctx cancellation, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.logger.Info("Shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		s.logger.Info("Context cancelled, shutting down")
	}

	return s.Shutdown(context.WithoutCancel(ctx))
}
