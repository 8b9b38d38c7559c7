// Package server exposes the pricing service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meenmo/rateslib/config"
	"github.com/meenmo/rateslib/errs"
	"github.com/meenmo/rateslib/internal/pricing"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Server routes pricing requests to a pricing.Service.
type Server struct {
	cfg     config.ServerConfig
	svc     *pricing.Service
	logger  *slog.Logger
	metrics *metrics
	engine  *gin.Engine
}

// New builds the router. Metrics are registered on reg.
func New(cfg config.ServerConfig, svc *pricing.Service, logger *slog.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(cfg.Mode)

	s := &Server{
		cfg:     cfg,
		svc:     svc,
		logger:  logger,
		metrics: newMetrics(reg),
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestID(), s.observe())

	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/curves/bootstrap", handle(s, svc.Bootstrap))
		v1.POST("/swaps/callable", handle(s, svc.Callable))
		v1.POST("/swaps/puttable", handle(s, svc.Puttable))
		v1.POST("/swaps/range-accrual", handle(s, svc.RangeAccrual))
	}
	return s
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down", "timeout", timeout)
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.metrics.observe(route, c.Writer.Status(), elapsed)
		s.logger.Info("request",
			"request_id", c.GetString(RequestIDHeader),
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"elapsed", elapsed,
		)
	}
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNumericalFailure), errors.Is(err, errs.ErrDegenerateParameter):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("pricing failed", "request_id", c.GetString(RequestIDHeader), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "request_id": c.GetString(RequestIDHeader)})
}
