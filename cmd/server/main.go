package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aiquery/relay-service/internal/config"
	"github.com/aiquery/relay-service/internal/inference"
	"github.com/aiquery/relay-service/internal/render"
	"github.com/aiquery/relay-service/internal/repository"
	"github.com/aiquery/relay-service/internal/services"
	"github.com/aiquery/relay-service/internal/store"
	"github.com/aiquery/relay-service/pkg/server"
)

func main() {
	var envFile = flag.String("env", "", "Optional .env file to load")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize database
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Log startup event
	db.Event("info", "startup", "Server starting", map[string]interface{}{
		"model_name": cfg.ModelName,
		"backend":    cfg.Backend,
		"http_addr":  cfg.HTTPAddr(),
		"db_path":    cfg.DBPath,
	})

	// Initialize repository
	repo := repository.NewSQLiteRepository(db)

	// Select inference backend
	var client inference.Client
	switch cfg.Backend {
	case "mock":
		client = inference.NewMockClient(cfg.ModelName)
		slog.Info("Using mock inference backend", "model", cfg.ModelName)
	default:
		client = inference.NewVertexClient(inference.VertexConfig{
			ProjectID:   cfg.ProjectID,
			Location:    cfg.Location,
			Model:       cfg.ModelName,
			BaseURL:     cfg.VertexBaseURL,
			AccessToken: cfg.AccessToken,
			Timeout:     cfg.InferenceTimeout,
		})
		slog.Info("Using Vertex AI inference backend",
			"project", cfg.ProjectID,
			"location", cfg.Location,
			"model", cfg.ModelName,
			"timeout", cfg.InferenceTimeout)
	}

	// Initialize services
	renderer := render.NewRenderer(cfg.MaxRenderBytes)
	queryService := services.NewQueryService(client, renderer, repo, cfg)

	db.Event("info", "services.init", "Initializing services", map[string]interface{}{
		"http_addr": cfg.HTTPAddr(),
		"nats_url":  cfg.NatsURL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// NATS transport is optional; the relay stays a plain web app
	// when no NATS URL is configured.
	if cfg.NatsURL != "" {
		natsService, err := services.NewNATSService(cfg, queryService)
		if err != nil {
			db.Event("error", "nats.failed", "NATS service initialization failed", map[string]interface{}{
				"nats_url": cfg.NatsURL,
				"error":    err.Error(),
			})
			slog.Error("Failed to create NATS service", "error", err)
			os.Exit(1)
		}

		healthService := services.NewHealthService(natsService.GetConnection(), cfg)

		go func() {
			if err := natsService.Start(ctx); err != nil {
				db.Event("error", "nats.failed", "NATS service failed", map[string]interface{}{
					"error": err.Error(),
				})
				slog.Error("NATS service failed", "error", err)
			}
		}()

		go func() {
			if err := healthService.Start(ctx); err != nil {
				db.Event("error", "health.failed", "Health service failed", map[string]interface{}{
					"error": err.Error(),
				})
				slog.Error("Health service failed", "error", err)
			}
		}()
	}

	// Start HTTP server; a bind failure is fatal.
	httpServer := server.NewServer(cfg.HTTPAddr(), queryService)
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- httpServer.Start(ctx)
	}()

	db.Event("info", "server.ready", "Server ready to accept requests", map[string]interface{}{
		"http_addr":  cfg.HTTPAddr(),
		"model_name": cfg.ModelName,
	})

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		slog.Info("Shutting down server")
		cancel()
	case err := <-httpErr:
		if err != nil {
			db.Event("error", "http.failed", "HTTP server failed", map[string]interface{}{
				"error": err.Error(),
			})
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}
}
