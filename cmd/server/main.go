// Package main is the entry point for the media gallery auth server.
//
// main() stays minimal: load configuration, build the logger, make sure
// the data directory exists, start the server. Everything else lives in
// internal/.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hiroshandev/media-gallery-api/internal/config"
	"github.com/hiroshandev/media-gallery-api/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		// Refuse to start rather than run an API whose tokens anyone can
		// mint. Generate one with: openssl rand -hex 32
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Error("SESSION_SECRET is not set")
		os.Exit(1)
	}

	// Ensure the directory for the SQLite file exists (like mkdir -p).
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
