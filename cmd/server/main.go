package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "garage-backend/internal/api/http"
	"garage-backend/internal/config"
	"garage-backend/internal/jobs"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"
	"garage-backend/internal/repository/memory"
	"garage-backend/internal/repository/postgres"
	"garage-backend/internal/scheduler"
	"garage-backend/internal/security"
	"garage-backend/internal/service"
	"garage-backend/internal/tracing"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Garage Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to flush traces", "error", err)
		}
	}()

	// Initialize store
	var store repository.Store
	if cfg.Database.Enabled() {
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			logger.Error("Failed to open database", "error", err)
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		store = postgres.NewStore(db)
	} else {
		logger.Warn("No database configured, using in-memory store")
		store = memory.NewStore()
	}

	// Initialize services
	notifier := service.NewNotificationService(cfg.Notification)
	limits := service.TransactionLimits{
		Default: cfg.Loyalty.DefaultTransactionLimit,
		Max:     cfg.Loyalty.MaxTransactionLimit,
	}
	services := httpapi.Services{
		Auth:    service.NewAuthService(store),
		Members: service.NewMemberService(store),
		Ledger:  service.NewLedgerService(store, notifier, limits),
		Levels:  service.NewLevelService(store, notifier),
		Carts:   service.NewCartService(store, notifier, cfg.Loyalty.Tax()),
		Reports: service.NewReportService(store, notifier),
	}

	if err := services.Levels.EnsureDefaults(ctx, cfg.Loyalty.LevelRules()); err != nil {
		log.Fatalf("Failed to seed member levels: %v", err)
	}
	if cfg.Bootstrap.OwnerUsername != "" {
		owner, created, err := services.Auth.EnsureOwner(ctx, cfg.Bootstrap.OwnerUsername, cfg.Bootstrap.OwnerPassword)
		if err != nil {
			log.Fatalf("Failed to bootstrap owner account: %v", err)
		}
		if created {
			logger.Info("Owner account created", "username", owner.Username)
		}
	}

	// The cronjob process cannot see in-memory state, so maintenance runs here.
	if !cfg.Database.Enabled() {
		runner := jobs.NewJobRunner(&jobs.Services{Carts: services.Carts, Ledger: services.Ledger}, cfg)
		cronScheduler := scheduler.NewScheduler(runner)
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	tokens := security.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL())
	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      httpapi.NewRouter(services, tokens, cfg),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped")
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
