package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baldawsari/pdf-downloader-mcp/internal/adapter/httpclient"
	"github.com/baldawsari/pdf-downloader-mcp/internal/adapter/sqlite"
	"github.com/baldawsari/pdf-downloader-mcp/internal/config"
	"github.com/baldawsari/pdf-downloader-mcp/internal/logger"
	"github.com/baldawsari/pdf-downloader-mcp/internal/service/downloader"
	"github.com/baldawsari/pdf-downloader-mcp/internal/service/server"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Info("starting pdf-downloader",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Open the download log database
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		zapLogger.Fatal("failed to open database",
			zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer store.Close()

	// Create the download orchestrator
	downloaderCfg := &downloader.Config{
		UserAgents:       cfg.Downloads.UserAgents,
		ProgressInterval: cfg.Downloads.GetProgressUpdateInterval(),
	}
	runner := downloader.New(downloaderCfg, httpclient.Factory, zapLogger)

	// Create HTTP server
	serverCfg := &server.Config{
		BindAddr:      cfg.HTTP.BindAddr,
		MaxConcurrent: int64(cfg.Downloads.MaxConcurrent),
		ReadTimeout:   cfg.HTTP.GetReadTimeout(),
		WriteTimeout:  cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:   cfg.HTTP.GetIdleTimeout(),
	}
	httpServer := server.New(serverCfg, runner, store, zapLogger)

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	zapLogger.Info("application started successfully",
		zap.String("http_addr", cfg.HTTP.BindAddr),
		zap.String("database", cfg.Database.Path),
	)
	<-sigChan

	zapLogger.Info("shutdown signal received, stopping services...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop HTTP server
	if err := httpServer.Stop(shutdownCtx); err != nil {
		zapLogger.Error("failed to stop HTTP server gracefully", zap.Error(err))
	}

	zapLogger.Info("application stopped successfully")
}
