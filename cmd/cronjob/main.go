package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"garage-backend/internal/config"
	"garage-backend/internal/jobs"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository/postgres"
	"garage-backend/internal/scheduler"
	"garage-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'abandon-stale-carts', 'audit-ledgers', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Garage Cronjob Runner...", "log_level", cfg.Log.Level)

	if !cfg.Database.Enabled() {
		log.Fatalf("The cronjob runner requires a database; the server schedules jobs itself with the in-memory store")
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	notifier := service.NewNotificationService(cfg.Notification)
	jobServices := &jobs.Services{
		Carts: service.NewCartService(store, notifier, cfg.Loyalty.Tax()),
		Ledger: service.NewLedgerService(store, notifier, service.TransactionLimits{
			Default: cfg.Loyalty.DefaultTransactionLimit,
			Max:     cfg.Loyalty.MaxTransactionLimit,
		}),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "abandon-stale-carts":
		jobRunner.AbandonStaleCarts()
	case "audit-ledgers":
		jobRunner.AuditLedgers()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - abandon-stale-carts\n")
		fmt.Printf("  - audit-ledgers\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
