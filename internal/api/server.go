package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wraps the HTTP server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewRouter registers all routes on a fresh router.
func NewRouter(handlers *Handlers) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/users", handlers.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", handlers.UserHandler).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", handlers.DeactivateHandler).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/referrals", handlers.ReferralStatsHandler).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/transactions", handlers.TransactionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/requests", handlers.RequestLogsHandler).Methods(http.MethodGet)
	api.HandleFunc("/feature", handlers.FeatureHandler).Methods(http.MethodPost)
	api.HandleFunc("/usage", handlers.UsageHandler).Methods(http.MethodGet)

	router.HandleFunc("/health", handlers.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(handlers *Handlers, port string, logger *zap.Logger) *Server {
	router := NewRouter(handlers)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      loggingMiddleware(router, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("HTTP server configured", zap.String("port", port))

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}
}

// Serve starts the HTTP server
func (s *Server) Serve() error {
	s.logger.Info("starting HTTP server", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrappedWriter := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrappedWriter, r)

		logger.Info("HTTP request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrappedWriter.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
