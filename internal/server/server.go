// Package server exposes the timeline engine over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/jurisflow/internal/application/handlers"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxBodyBytes    = 1 << 20
	healthTimeout          = 2 * time.Second
)

// HealthChecker is an interface for components that can report their health status.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Addr            string
	Mode            string // debug | release | test
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	Location        *time.Location // for dates without an offset; UTC when nil
	DB              HealthChecker
	Ingest          *handlers.IngestHandler
	Query           *handlers.QueryHandler
}

type Server struct {
	Engine *gin.Engine
	Addr   string

	db              HealthChecker
	ingest          *handlers.IngestHandler
	query           *handlers.QueryHandler
	maxBodyBytes    int64
	shutdownTimeout time.Duration
	location        *time.Location
}

func New(opts Options) *Server {
	switch opts.Mode {
	case gin.DebugMode:
		gin.SetMode(gin.DebugMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Mode != gin.TestMode {
		r.Use(gin.Logger())
	}

	s := &Server{
		Engine:          r,
		Addr:            opts.Addr,
		db:              opts.DB,
		ingest:          opts.Ingest,
		query:           opts.Query,
		maxBodyBytes:    opts.MaxBodyBytes,
		shutdownTimeout: opts.ShutdownTimeout,
		location:        opts.Location,
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultMaxBodyBytes
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = defaultShutdownTimeout
	}
	if s.location == nil {
		s.location = time.UTC
	}

	r.GET("/health", s.healthHandler)
	s.registerRoutes(r)

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			slog.Error("Health check failed: database unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP Server...", "address", s.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Stopping HTTP Server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP Server forced to shutdown", "error", err)
		return err
	}
	return <-errCh
}
