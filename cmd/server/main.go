package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/marksheetIA/marksheet-ocr-service/api"
	"github.com/marksheetIA/marksheet-ocr-service/internal/auth"
	"github.com/marksheetIA/marksheet-ocr-service/internal/config"
	"github.com/marksheetIA/marksheet-ocr-service/internal/db"
	"github.com/marksheetIA/marksheet-ocr-service/internal/pipeline"
	"github.com/marksheetIA/marksheet-ocr-service/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := config.NewLogger(os.Stderr, level)

	// Initialize JWT
	if err := auth.Init(); err != nil {
		logger.Error("failed to initialize auth", "error", err)
		os.Exit(1)
	}

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		if errors.Is(err, db.ErrNotConfigured) {
			logger.Info("run archive disabled (no database configured)")
		} else {
			logger.Warn("database not available, running without archive", "error", err)
		}
	} else {
		defer db.Close()
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			logger.Info("object storage disabled (no MinIO configured)")
		} else {
			logger.Warn("MinIO storage not available, files will not be stored", "error", err)
		}
	} else {
		logger.Info("MinIO storage initialized", "bucket", storage.BucketName)
	}

	// Assemble the OCR pipeline
	scanner, err := pipeline.New(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	// Create API handler
	handler := api.NewHandler(cfg, scanner, logger)
	router := handler.SetupRoutes()

	// Wrap router with JWT middleware (skips /health and /api/login)
	protectedRouter := auth.JWTMiddleware(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Info("starting mark-sheet OCR service",
		"version", api.Version,
		"addr", addr,
		"engine", scanner.Oracle().Name(),
		"rasterizer", cfg.PDF.Rasterizer,
		"auth", auth.Enabled(),
		"database", db.Available(),
		"storage", storage.Available(),
	)
	logger.Info("endpoints",
		"login", "POST /api/login",
		"process", "POST /api/process-marksheet[?format=xlsx]",
		"runs", "GET /api/runs",
		"run", "GET|DELETE /api/runs/{id}",
		"export", "GET /api/runs/{id}/export",
		"me", "GET /api/me",
		"health", "GET /health",
	)

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
