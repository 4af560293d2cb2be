package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout bounds the graceful shutdown, including in-flight reviews
const shutdownTimeout = 30 * time.Second

// Start starts the HTTP server and its watchers and blocks until shutdown
func (s *Server) Start() error {
	defer s.shutdownObservability()

	httpServer := s.setupHTTPServer()

	if err := s.startWatchers(); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// shutdownObservability flushes exporters
func (s *Server) shutdownObservability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Observability.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWatchers starts the credential watchers. A watcher that fails to
// start stops the ones already running.
func (s *Server) startWatchers() error {
	for i, watcher := range s.Watchers {
		if err := watcher.Start(); err != nil {
			for _, started := range s.Watchers[:i] {
				if stopErr := started.Stop(); stopErr != nil {
					s.Logger.LogError(stopErr, "Failed to stop watcher")
				}
			}
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	}
	return nil
}

func (s *Server) stopWatchers() {
	for _, watcher := range s.Watchers {
		if err := watcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop watcher")
		}
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopWatchers()
		s.cleanupRateLimiter()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopWatchers()
	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.waitForReviews(shutdownCtx)

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// waitForReviews lets a running review finish within the shutdown deadline
func (s *Server) waitForReviews(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.App.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.Logger.Warn("Shutdown deadline reached with a review still running")
	}
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
