package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"talentmatch/internal/observability"
)

// Start serves the API until SIGINT/SIGTERM or ctx is cancelled. The
// observability manager is owned by the caller; its Shutdown also stops
// the metrics listener started here.
func (s *Server) Start(ctx context.Context, om *observability.ObservabilityManager) error {
	if err := om.ServeMetrics(s.Logger); err != nil {
		return err
	}
	httpServer := s.setupHTTPServer(om)
	s.displayServerInfo()
	return s.startWithGracefulShutdown(ctx, httpServer)
}

// Handler returns the fully wrapped API handler.
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	return om.HTTPMiddleware()(s.setupRoutes(om))
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(om),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWithGracefulShutdown binds the listener up front so a busy port
// fails Start, then serves until a signal or ctx cancellation.
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting HTTP server", "address", ln.Addr().String())
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.Logger.Info("Shutdown requested", "cause", context.Cause(ctx).Error())
	}
	return s.shutdown(server)
}

func (s *Server) shutdown(server *http.Server) error {
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.cleanupRateLimiter()

	s.Logger.Info("Draining HTTP connections", "timeout", timeout.String())
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Graceful shutdown timed out, closing connections")
		return server.Close()
	}
	s.Logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
