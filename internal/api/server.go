// Package api exposes the HTTP surface: telemetry ingestion, prediction,
// alert management, root cause analysis and service booking.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autosentience/vigil/internal/agents"
	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/rules"
	"github.com/autosentience/vigil/internal/store"
	"github.com/autosentience/vigil/internal/workflow"
)

// Server handles HTTP API requests.
type Server struct {
	port   int
	server *http.Server
	router *http.ServeMux
	logger *logging.Logger

	store        store.Store
	engine       *rules.Engine
	orchestrator *workflow.Orchestrator
	rcaAgent     *agents.RCAAgent

	registry *prometheus.Registry
}

// New creates an API server wired to the given store, rule engine and
// inference client. The workflow orchestrator registers its metrics on
// the server's registry.
func New(port int, st store.Store, engine *rules.Engine, client inference.Client) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		port:         port,
		router:       http.NewServeMux(),
		logger:       logging.GetLogger("api"),
		store:        st,
		engine:       engine,
		orchestrator: workflow.New(client, st, workflow.NewMetrics(registry)),
		rcaAgent:     agents.NewRCAAgent(client),
		registry:     registry,
	}
	s.registerHandlers()
	return s
}

// registerHandlers registers all HTTP handlers.
func (s *Server) registerHandlers() {
	s.router.HandleFunc("/api/ingest", s.handleIngest)
	s.router.HandleFunc("/api/predict", s.withMethod(http.MethodPost, s.handlePredict))
	s.router.HandleFunc("/api/alerts", s.handleAlerts)
	s.router.HandleFunc("/api/rca", s.withMethod(http.MethodPost, s.handleRCA))
	s.router.HandleFunc("/api/book", s.withMethod(http.MethodPost, s.handleBook))

	s.router.HandleFunc("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// Start runs the server until the context is cancelled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.corsMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// Handler exposes the middleware-wrapped router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteSuccess(w, map[string]string{"status": "ok"})
}

// corsMiddleware adds CORS headers to allow browser access.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withMethod wraps a handler to enforce an HTTP method.
func (s *Server) withMethod(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
				fmt.Sprintf("method %s not allowed", r.Method))
			return
		}
		handler(w, r)
	}
}
