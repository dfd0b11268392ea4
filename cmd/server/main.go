package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/nfrund/mintari/internal/config"
	"github.com/nfrund/mintari/internal/logging"
	"github.com/nfrund/mintari/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		// slog is configured from cfg, so the standard logger reports this.
		log.Fatalf("Invalid configuration: %v", err)
	}
	logging.New(cfg.Log)

	// Create a new server instance.
	s, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	// Register all application routes.
	s.RegisterRoutes()

	// Start the server.
	if err := s.Start(cfg.Addr()); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
