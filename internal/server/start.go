package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nfrund/mintari/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Start runs the HTTP server until an interrupt or terminate signal, then
// shuts everything down.
func (s *Server) Start(addr string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", addr, "version", config.Version)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	var startErr error
	select {
	case <-quit:
		slog.Info("Shutdown signal received")
	case startErr = <-errCh:
		slog.Error("Server stopped unexpectedly", "error", startErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(startErr, s.Shutdown(ctx))
}

// Shutdown stops accepting requests and releases every backend. It is safe
// to call on a partially initialized Server.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.E != nil {
		if err := s.E.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.pruner != nil {
		s.pruner.Stop(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.shutdownOTel != nil {
		s.shutdownOTel()
	}
	if c, ok := s.transformer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c, ok := s.kv.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.db != nil {
		s.db.Close(ctx)
	}
	slog.Info("Server shut down")
	return errors.Join(errs...)
}
