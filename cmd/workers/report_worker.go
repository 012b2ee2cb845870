package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ev-service-center/report-service/report-service-backend/internal/clients"
	"ev-service-center/report-service/report-service-backend/internal/config"
	"ev-service-center/report-service/report-service-backend/internal/reports"
)

// ReportWorker generates reports that the API committed as pending. It runs
// against the same record store and uses the same write protocol as
// in-request generation.
type ReportWorker struct {
	service *reports.Service
	logger  *zap.Logger
	config  ReportWorkerConfig
}

// ReportWorkerConfig configuration for the report worker
type ReportWorkerConfig struct {
	PollSchedule  string
	BatchSize     int
	MaxConcurrent int
}

// DefaultReportWorkerConfig returns default configuration
func DefaultReportWorkerConfig() ReportWorkerConfig {
	return ReportWorkerConfig{
		PollSchedule:  "@every 30s",
		BatchSize:     10,
		MaxConcurrent: 5,
	}
}

// NewReportWorker creates a new report worker
func NewReportWorker(service *reports.Service, logger *zap.Logger, config ReportWorkerConfig) *ReportWorker {
	return &ReportWorker{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start runs the poll schedule until the context is cancelled
func (w *ReportWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting report worker",
		zap.String("poll_schedule", w.config.PollSchedule),
		zap.Int("max_concurrent", w.config.MaxConcurrent))

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(w.config.PollSchedule, func() {
		w.processPendingReports(ctx)
	}); err != nil {
		return err
	}

	// Process any pending reports immediately
	w.processPendingReports(ctx)

	scheduler.Start()
	<-ctx.Done()

	w.logger.Info("Report worker shutting down")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	return nil
}

// processPendingReports generates all currently pending reports with a
// concurrency limit
func (w *ReportWorker) processPendingReports(ctx context.Context) {
	pending, err := w.service.PendingReports(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("Failed to list pending reports", zap.Error(err))
		return
	}

	if len(pending) == 0 {
		return
	}

	w.logger.Info("Processing pending reports", zap.Int("count", len(pending)))

	sem := make(chan struct{}, w.config.MaxConcurrent)

	for _, report := range pending {
		sem <- struct{}{} // Acquire semaphore

		go func(report *reports.Report) {
			defer func() { <-sem }() // Release semaphore

			start := time.Now()
			if err := w.service.GenerateReport(ctx, report.ID); err != nil {
				w.logger.Error("Report generation could not be committed",
					zap.String("report_id", report.ID.String()),
					zap.Error(err))
				return
			}

			w.logger.Info("Report processed",
				zap.String("report_id", report.ID.String()),
				zap.Duration("duration", time.Since(start)))
		}(report)
	}

	// Wait for all goroutines to finish
	for i := 0; i < w.config.MaxConcurrent; i++ {
		sem <- struct{}{}
	}
}

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repo := reports.NewPostgresRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("Failed to ensure reports schema", zap.Error(err))
	}

	internalClient := clients.NewInternalClient(cfg.Peers.InternalServiceToken)
	aggregator := reports.NewAggregator(internalClient, cfg.Peers.FinanceServiceURL, cfg.Peers.UserServiceURL)
	service := reports.NewService(repo, aggregator.Strategies(), logger, false)

	worker := NewReportWorker(service, logger, DefaultReportWorkerConfig())

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := worker.Start(ctx); err != nil {
		logger.Error("Worker error", zap.Error(err))
	}

	logger.Info("Report worker stopped")
}
