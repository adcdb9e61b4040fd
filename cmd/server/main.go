package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yegors/co-wx/internal/api"
	"github.com/yegors/co-wx/internal/config"
	"github.com/yegors/co-wx/internal/storage/sqlite"
	"github.com/yegors/co-wx/internal/weather"
	"github.com/yegors/co-wx/internal/websocket"
	"github.com/yegors/co-wx/pkg/logger"
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

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Co-WX server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
		logger.String("units", cfg.Weather.Units),
		logger.String("lang", cfg.UI.Language),
		logger.Float64("requests_per_second", cfg.Weather.RequestsPerSecond),
		logger.Bool("geolocation_fallback", cfg.Geolocation.Enabled),
	)

	if cfg.Server.StaticFilesDir == "" {
		log.Warn("Static files directory not found, serving the page without assets")
	}

	// Last-city preference store
	prefs, err := sqlite.NewPreferenceStorage(cfg.Storage.SQLitePath, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer prefs.Close()
	log.Info("Using SQLite storage", logger.String("path", cfg.Storage.SQLitePath))

	// Weather client and service
	client := weather.NewClient(cfg.Weather, log)
	weatherService := weather.NewService(weather.ServiceConfigFrom(cfg), client, prefs, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket server with one session per client
	wsServer := websocket.NewServer(log)
	sessions := api.NewSessionHandler(ctx, weatherService, api.SessionOptions(cfg), cfg.UI.Language, log)
	wsServer.SetMessageHandler(sessions)

	wsDone := make(chan struct{})
	go func() {
		defer close(wsDone)
		wsServer.Run(ctx)
	}()

	// Create API router
	router := api.NewRouter(weatherService, cfg, wsServer, log)
	handler := router.Routes()

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Stop sessions first so no lookup outlives the servers
	log.Info("Stopping sessions...", logger.Int("sessions", sessions.SessionCount()))
	sessions.Close()

	cancel()
	<-wsDone
	log.Info("WebSocket server stopped.")

	// Shutdown all HTTP servers
	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
