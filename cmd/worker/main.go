package main

import (
	"context"
	"net/http"
	"time"

	"comfybridge/internal/config"
	"comfybridge/internal/engine"
	"comfybridge/internal/httpapi"
	"comfybridge/internal/pkg/logger"
	"comfybridge/internal/pkg/shutdown"
	"comfybridge/internal/storage"
	"comfybridge/internal/worker/processor"
)

func main() {
	// Initialize logger
	log := logger.New(logger.Config{
		Level:       config.Env("LOG_LEVEL", "info"),
		Format:      config.Env("LOG_FORMAT", "json"),
		ServiceName: "comfybridge",
		AddSource:   config.BoolEnv("LOG_SOURCE", false),
	})

	log.Info("starting comfybridge worker",
		"version", "0.1.0",
	)

	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Initialize shutdown manager
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Initialize storage providers
	log.Info("initializing storage providers")
	publish, err := storage.NewPublishProvider(ctx, cfg)
	if err != nil {
		log.LogFatal("failed to initialize publish storage", err)
	}
	if publish != nil {
		log.Info("publish storage initialized", "provider", publish.Provider())
	} else {
		log.Info("no publish storage configured, artifacts will be returned inline")
	}

	download, err := storage.NewDownloadProvider(ctx, cfg)
	if err != nil {
		log.LogFatal("failed to initialize download storage", err)
	}
	if download != nil {
		log.Info("download storage initialized", "provider", download.Provider())
	}

	// Engine client and event monitor
	eng := engine.NewClient(cfg, log)
	mon := engine.NewMonitor(eng, cfg, log)
	log.Info("engine configured", "host", cfg.EngineHost)

	// Job processor
	proc := processor.New(processor.Deps{
		Engine:   eng,
		Monitor:  mon,
		Publish:  publish,
		Download: download,
		Log:      log,
	})

	// Create HTTP router
	router := httpapi.NewRouter(httpapi.Deps{
		Processor: proc,
		Engine:    eng,
		SP:        publish,
		Log:       log,
	})

	// Create HTTP server. Jobs are served synchronously and can run for
	// many minutes, so there is no write timeout.
	server := &http.Server{
		Addr:        "0.0.0.0:" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Register server shutdown
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"port", cfg.HTTPPort,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	// Wait for shutdown signal
	shutdownMgr.Wait()
}
