package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/metrics"
	"github.com/roach88/esquery/internal/planner"
)

const shutdownTimeout = 5 * time.Second

// Server serves the planner for any index of one backend.
type Server struct {
	client      backend.Client
	plannerOpts []planner.Option
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock error timestamps are taken from.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPlannerOptions sets the options every per-request planner is
// created with.
func WithPlannerOptions(opts ...planner.Option) Option {
	return func(s *Server) {
		s.plannerOpts = append(s.plannerOpts, opts...)
	}
}

// New creates a Server over client.
func New(client backend.Client, opts ...Option) *Server {
	s := &Server{
		client: client,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(s.LoggingMiddleware())

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	indexRoutes := router.Group("/indexes/:index")
	{
		indexRoutes.POST("/compile", s.compile)
		indexRoutes.POST("/search", s.search)
		indexRoutes.POST("/count", s.count)
		indexRoutes.POST("/group", s.group)
	}

	router.NoRoute(func(c *gin.Context) {
		s.sendError(c, http.StatusNotFound, ErrorCodeInvalidQuery, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})
	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// planner creates the planner for one request. The request id doubles as
// the backend opaque id so both logs correlate.
func (s *Server) planner(c *gin.Context) *planner.Planner {
	opts := append([]planner.Option{planner.WithLogger(s.logger)}, s.plannerOpts...)
	if id := c.GetString(requestIDKey); id != "" {
		opts = append(opts, planner.WithRequestIDs(fixedID(id)))
	}
	return planner.New(s.client, c.Param("index"), opts...)
}

type fixedID string

func (id fixedID) Generate() string { return string(id) }
