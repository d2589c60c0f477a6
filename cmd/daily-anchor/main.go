package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/anchor"
	"github.com/basebytes/receipt-indexer/internal/config"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/messaging"
	"github.com/basebytes/receipt-indexer/internal/providers/jetstream"
	"github.com/basebytes/receipt-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	date       = flag.String("date", "", "Anchor a single YYYY-MM-DD date and exit, defaults to yesterday")
	schedule   = flag.Bool("schedule", false, "Run on the configured cron schedule instead of once")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadDailyAnchorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Service:         "daily-anchor",
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "daily-anchor",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Daily Anchor")

	loc, err := cfg.Anchor.Location()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid anchor timezone", zap.Error(err))
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)

	clock := adapter.NewClock()

	// Connect to NATS for notifications, optional
	var publisher messaging.Publisher = messaging.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:              cfg.NATS.URL,
			StreamName:       cfg.NATS.StreamName,
			SubjectPrefix:    cfg.NATS.SubjectPrefix,
			MaxReconnects:    cfg.NATS.MaxReconnects,
			ReconnectWait:    cfg.NATS.ReconnectWait,
			ConnectionName:   cfg.NATS.ConnectionName,
			DuplicatesWindow: cfg.NATS.DuplicatesWindow,
			PublishTimeout:   cfg.NATS.PublishTimeout,
		}, adapter.NewNatsJetStream(), adapter.NewJSON())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
	}
	defer publisher.Close()

	engine := anchor.NewEngine(anchor.Config{
		Location:       loc,
		ProofBatchSize: cfg.Anchor.ProofBatch,
	}, dataStore, publisher, clock)

	if !*schedule {
		day := engine.Yesterday()
		if *date != "" {
			day, err = engine.ParseDate(*date)
			if err != nil {
				logger.FatalCtx(ctx, "Invalid -date", zap.Error(err))
			}
		}

		result, err := engine.CreateDailyAnchor(ctx, day)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create daily anchor", zap.Error(err))
		}
		fmt.Println(result.Status)
		return
	}

	scheduler := anchor.NewScheduler(anchor.SchedulerConfig{
		Schedule:     cfg.Anchor.Schedule,
		BackfillDays: cfg.Anchor.BackfillDays,
		Location:     loc,
	}, engine)

	// Start the scheduler in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := scheduler.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// A running anchor commits or rolls back before the scheduler returns
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Minute)
	defer shutdownCancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	cancel()

	logger.InfoCtx(shutdownCtx, "Daily Anchor stopped")
}
