package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/yegors/wxdash/internal/api"
	"github.com/yegors/wxdash/internal/config"
	"github.com/yegors/wxdash/internal/dashboard"
	"github.com/yegors/wxdash/internal/storage/sqlite"
	"github.com/yegors/wxdash/internal/tracing"
	"github.com/yegors/wxdash/internal/view"
	"github.com/yegors/wxdash/internal/weather"
	"github.com/yegors/wxdash/internal/websocket"
	"github.com/yegors/wxdash/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting weather dashboard server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	shutdownTracing, err := tracing.Setup(cfg.Tracing, log)
	if err != nil {
		log.Error("Failed to set up tracing", logger.Error(err))
		os.Exit(1)
	}

	// Search log
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", cfg.Storage.SQLitePath))
		os.Exit(1)
	}
	searchStorage, err := sqlite.NewSearchStorage(cfg.Storage.SQLitePath, cfg.Storage.MaxSearchesAPI, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer searchStorage.Close()

	weatherService := weather.NewService(weather.Config{
		MountDelay:        cfg.MountDelay(),
		SearchDelay:       cfg.SearchDelay(),
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
		RequestTimeout:    cfg.RequestTimeout(),
		MaxLocationLength: cfg.Dashboard.MaxQueryLength,
		Tracing:           cfg.Tracing.Enabled,
	}, log)

	viewService := view.NewService(log)

	// WebSocket server with one dashboard session per client
	wsServer := websocket.NewServer(log)
	dashboards := dashboard.NewWebSocketHandler(weatherService, searchStorage, viewService, log)
	wsServer.SetMessageHandler(dashboards)
	go wsServer.Run()

	handler := api.NewHandler(weatherService, searchStorage, viewService, dashboards, wsServer, cfg, log)
	router := api.NewRouter(handler, wsServer, cfg.Server.StaticFilesDir, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", logger.String("addr", server.Addr), logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Tell browsers first, then stop every session so pending fetches are discarded
	wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeServerShutdown,
		Data: map[string]any{"reason": "server shutting down"},
	})
	dashboards.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	} else {
		log.Info("HTTP server shutdown complete")
	}

	wsServer.Stop()

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Tracing shutdown error", logger.Error(err))
	}

	log.Info("Server fully stopped")
}
