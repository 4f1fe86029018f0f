package server

import (
	"context"
	"net/http"
	"time"

	"github.com/baldawsari/pdf-downloader-mcp/internal/port"
	"go.uber.org/zap"
)

// Config contains HTTP server configuration
type Config struct {
	BindAddr      string
	MaxConcurrent int64
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:      "0.0.0.0:8080",
		MaxConcurrent: 4,
		ReadTimeout:   30 * time.Second,
		IdleTimeout:   60 * time.Second,
	}
}

// Server represents the HTTP API server
type Server struct {
	config          *Config
	store           port.Store
	logger          *zap.Logger
	server          *http.Server
	downloadHandler *DownloadHandler
}

// New creates a new HTTP server
func New(cfg *Config, runner Runner, store port.Store, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}

	s := &Server{
		config: cfg,
		store:  store,
		logger: logger,
	}

	s.downloadHandler = NewDownloadHandler(runner, store, cfg.MaxConcurrent, logger)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Download endpoints
	mux.HandleFunc("/v1/downloads", s.downloadHandler.HandleDownloads)
	mux.HandleFunc("/v1/stats", s.downloadHandler.HandleStats)

	s.server = &http.Server{
		Addr:    cfg.BindAddr,
		Handler: LoggingMiddleware(logger)(mux),
		// Zero WriteTimeout: a download run can hold the response open
		// far longer than any fixed write deadline.
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Ping(); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		http.Error(w, "Database connection failed", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy","time":"` + time.Now().Format(time.RFC3339) + `"}`))
}
