package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leftovers/server/internal/config"
	"github.com/leftovers/server/internal/handlers"
	"github.com/leftovers/server/internal/observability"
	"github.com/leftovers/server/internal/repository"
	"github.com/leftovers/server/internal/services"
)

func main() {
	logger := observability.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	telemetry, err := observability.Initialize(ctx, observability.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		logger.Errorf("Failed to initialize telemetry: %v", err)
		os.Exit(1)
	}

	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		logger.Errorf("Failed to create HTTP metrics: %v", err)
		os.Exit(1)
	}
	syncMetrics, err := observability.NewSyncMetrics()
	if err != nil {
		logger.Errorf("Failed to create sync metrics: %v", err)
		os.Exit(1)
	}

	// Initialize database and repository
	var partyRepo repository.PartyRepo
	if cfg.UsePostgres() {
		logger.Info("Using PostgreSQL database")
		db, err := repository.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			logger.Errorf("Failed to initialize PostgreSQL database: %v", err)
			os.Exit(1)
		}
		partyRepo = repository.NewPartyRepositoryPostgres(db)
	} else {
		logger.Infof("Using SQLite database at %s", cfg.DatabasePath)
		db, err := repository.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			logger.Errorf("Failed to initialize SQLite database: %v", err)
			os.Exit(1)
		}
		partyRepo = repository.NewPartyRepository(db)
	}

	// Initialize services
	storageService, err := services.NewPhotoStorageService(cfg.PhotoStorage.BasePath, cfg.PhotoStorage.MaxFileSizeMB)
	if err != nil {
		logger.Errorf("Failed to initialize storage service: %v", err)
		os.Exit(1)
	}

	hub := services.NewPartyHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	partyService := services.NewPartyService(partyRepo, storageService, hub, syncMetrics)

	router := handlers.NewRouter(handlers.RouterConfig{
		Parties:      partyService,
		Photos:       storageService,
		Hub:          hub,
		HTTPMetrics:  httpMetrics,
		MaxBodyBytes: cfg.MaxRequestSizeMB << 20,
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Longer for uploads
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Leftovers server starting on %s", cfg.ServerAddress)
		logger.Infof("Photo storage path: %s", cfg.PhotoStorage.BasePath)
		logger.Infof("Max photo size: %dMB", cfg.PhotoStorage.MaxFileSizeMB)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		logger.Errorf("Server error: %v", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		exitCode = 1
	}
	stopHub()

	if err := partyRepo.Close(); err != nil {
		logger.Errorf("Failed to close database: %v", err)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to shut down telemetry: %v", err)
	}

	logger.Info("Server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
