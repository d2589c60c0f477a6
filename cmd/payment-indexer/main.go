package main

import (
	"context"
	"errors"
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
	"github.com/basebytes/receipt-indexer/internal/block"
	"github.com/basebytes/receipt-indexer/internal/config"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/indexer"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/messaging"
	"github.com/basebytes/receipt-indexer/internal/providers/ethereum"
	"github.com/basebytes/receipt-indexer/internal/providers/jetstream"
	"github.com/basebytes/receipt-indexer/internal/store"
	"github.com/basebytes/receipt-indexer/internal/worker"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	once       = flag.Bool("once", false, "Run a single poll and exit")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadPaymentIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Service:         "payment-indexer",
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "payment-indexer",
			"chain":   string(cfg.Ethereum.ChainID),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Payment Indexer", zap.String("chain", string(cfg.Ethereum.ChainID)))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Connect to the chain
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err))
	}
	defer ethClient.Close()

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to get chain id", zap.Error(err))
	}
	if domain.ChainFromID(chainID.Int64()) != cfg.Ethereum.ChainID {
		logger.FatalCtx(ctx, "RPC endpoint serves an unexpected chain",
			zap.Error(domain.ErrChainIDMismatch),
			zap.String("expected", string(cfg.Ethereum.ChainID)),
			zap.String("actual", chainID.String()))
	}

	paymentClient, err := ethereum.NewPaymentClient(cfg.Ethereum.ChainID, cfg.Indexer.RouterAddress, ethClient)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create payment client", zap.Error(err))
	}

	blockProvider := block.NewBlockProvider(
		ethereum.NewEthereumBlockFetcher(ethClient, clock),
		block.Config{
			TTL:         cfg.Ethereum.BlockHeadTTL,
			StaleWindow: cfg.Ethereum.BlockHeadStaleWindow,
		},
		clock,
	)

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
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		logger.InfoCtx(ctx, "Connected to NATS JetStream", zap.String("stream", cfg.NATS.StreamName))
	}
	defer publisher.Close()

	idx := indexer.New(indexer.Config{
		Chain:           cfg.Ethereum.ChainID,
		StartBlock:      cfg.Indexer.StartBlock,
		Confirmations:   cfg.Indexer.Confirmations,
		MaxBlockRange:   cfg.Indexer.MaxBlockRange,
		WorkerPoolSize:  cfg.Worker.WorkerPoolSize,
		WorkerQueueSize: cfg.Worker.WorkerQueueSize,
	}, dataStore, paymentClient, blockProvider, publisher, clock)
	defer idx.Close()

	if *once {
		result, err := idx.Poll(ctx)
		if err != nil {
			logger.FatalCtx(ctx, "Poll failed", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Poll completed",
			zap.Uint64("from_block", result.FromBlock),
			zap.Uint64("to_block", result.ToBlock),
			zap.Int("applied", result.Applied))
		return
	}

	poller := worker.NewPeriodic("payment-indexer", cfg.Indexer.PollInterval, func(ctx context.Context) error {
		_, err := idx.Poll(ctx)
		if errors.Is(err, domain.ErrPollInFlight) {
			logger.WarnCtx(ctx, "Skipping tick, previous poll still running")
			return nil
		}
		return err
	}, clock)

	logger.InfoCtx(ctx, "Initialized payment indexer",
		zap.String("router", cfg.Indexer.RouterAddress),
		zap.Uint64("start_block", cfg.Indexer.StartBlock),
		zap.Uint64("confirmations", cfg.Indexer.Confirmations),
		zap.Duration("poll_interval", cfg.Indexer.PollInterval),
	)

	// Start the poller in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := poller.Start(ctx); err != nil {
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

	// Let the current poll finish before tearing down connections
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := poller.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	cancel()

	logger.InfoCtx(shutdownCtx, "Payment Indexer stopped")
}
