package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valentinpelus/kubetriage/internal/handler"
	"github.com/valentinpelus/kubetriage/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

// Server wraps the HTTP server and its routes
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewRouter assembles the routes. Health and metrics are public; the alert
// webhook sits behind the Bearer token when one is configured.
func NewRouter(authToken string, alertHandler *handler.AlertHandler, logger *slog.Logger) http.Handler {
	auth := middleware.NewAuth(authToken)

	r := chi.NewRouter()
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	r.Get("/health", handler.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/alert", alertHandler.HandleAlert)
	})

	return r
}

// New creates a new HTTP server around the assembled routes.
func New(port int, authToken string, alertHandler *handler.AlertHandler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: NewRouter(authToken, alertHandler, logger),
			// No write timeout: a triage request legitimately waits on
			// evidence collection and one model call.
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}
