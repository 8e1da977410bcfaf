package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ZertGraf/observ/internal/api/handler"
	"github.com/ZertGraf/observ/internal/api/middleware"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/ZertGraf/observ/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MetricsEnabled bool
	// CORSOrigins enables CORS for the listed origins; empty disables it.
	CORSOrigins []string
}

type HTTPServer struct {
	server *http.Server
	config *ServerConfig
	logger *logger.Logger
}

func NewHTTPServer(config *ServerConfig,
	projectHandler *handler.ProjectHandler,
	userHandler *handler.UserHandler,
	authenticate func(http.Handler) http.Handler,
	ready handler.ReadinessCheck,
	logger *logger.Logger) *HTTPServer {

	router := NewRouter(config, projectHandler, userHandler, authenticate, ready, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &HTTPServer{
		server: server,
		config: config,
		logger: logger.Component("http"),
	}
}

func (s *HTTPServer) Start(_ context.Context) error {
	go func() {
		s.logger.Info("server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server failed", "error", err)
		}
	}()

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown failed", "error", err)
		return err
	}

	s.logger.Info("http server stopped")
	return nil
}

// NewRouter wires middleware and routes. Authentication runs after the
// request id so rejected requests are still traceable.
func NewRouter(
	config *ServerConfig,
	projectHandler *handler.ProjectHandler,
	userHandler *handler.UserHandler,
	authenticate func(http.Handler) http.Handler,
	ready handler.ReadinessCheck,
	logger *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Security())
	if len(config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Location", "X-Request-ID"},
			MaxAge:         300,
		}))
	}
	if config.MetricsEnabled {
		r.Use(metrics.Instrument)
	}
	if config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(config.RequestTimeout))
	}

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready(ready, logger))
	if config.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Mount("/projects", projectHandler.Routes())
		r.Mount("/users", userHandler.Routes())
	})

	return r
}
