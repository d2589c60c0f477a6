package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/attestation"
	"github.com/basebytes/receipt-indexer/internal/config"
	"github.com/basebytes/receipt-indexer/internal/idempotency"
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
	once       = flag.Bool("once", false, "Process a single batch and exit")
	requeue    = flag.String("requeue", "", "Clear the failure state of a receipt and exit")
	skip       = flag.String("skip", "", "Give up on attesting a receipt and exit")
	reason     = flag.String("reason", "", "Reason recorded with -skip")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAttestationWorkerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Service:         "attestation-worker",
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "attestation-worker",
			"chain":   string(cfg.Ethereum.ChainID),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Attestation Worker")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	expectedChainID, err := cfg.Ethereum.ChainID.ID()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid ethereum.chain_id", zap.Error(err))
	}

	// Connect to the chain
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err))
	}
	defer ethClient.Close()

	privateKey := cfg.Attestation.PrivateKey
	if privateKey == "" && cfg.Attestation.DryRun {
		// Dry runs never sign, an ephemeral key only fills the attester address
		key, err := crypto.GenerateKey()
		if err != nil {
			logger.FatalCtx(ctx, "Failed to generate dry run key", zap.Error(err))
		}
		privateKey = hex.EncodeToString(crypto.FromECDSA(key))
	}

	attester, err := ethereum.NewAttester(ethereum.AttesterConfig{
		EASAddress:     cfg.Attestation.EASAddress,
		PrivateKey:     privateKey,
		ChainID:        big.NewInt(expectedChainID),
		ConfirmTimeout: cfg.Attestation.ConfirmTimeout,
		ReceiptPoll:    cfg.Attestation.ReceiptPoll,
	}, ethClient, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create attester", zap.Error(err))
	}

	// Initialize the idempotency store
	deps := idempotency.Dependencies{
		DB:         db,
		FileSystem: adapter.NewFileSystem(),
		Clock:      clock,
		JSON:       jsonAdapter,
	}
	if idempotency.Backend(cfg.Idempotency.Backend) == idempotency.BackendRedis {
		redisClient := adapter.NewRedisClient(cfg.Idempotency.Redis.Addr, cfg.Idempotency.Redis.Password, cfg.Idempotency.Redis.DB)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}()
		deps.Redis = redisClient
	}
	idem, err := idempotency.New(idempotency.Config{
		Backend: idempotency.Backend(cfg.Idempotency.Backend),
		Dir:     cfg.Idempotency.Dir,
		Debug:   cfg.Debug,
	}, deps)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create idempotency store", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Initialized idempotency store", zap.String("backend", cfg.Idempotency.Backend))

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
	}
	defer publisher.Close()

	attestationWorker, err := attestation.New(attestation.Config{
		ExpectedChainID: expectedChainID,
		SchemaUID:       cfg.Attestation.SchemaUID,
		BatchSize:       cfg.Attestation.BatchSize,
		// A claim must outlive the wait for confirmation
		ClaimTTL:        max(cfg.Idempotency.TTL, cfg.Attestation.ConfirmTimeout),
		Backoff: attestation.BackoffConfig{
			Initial:    cfg.Attestation.BackoffInitial,
			Max:        cfg.Attestation.BackoffMax,
			Multiplier: cfg.Attestation.BackoffMultiplier,
		},
		DryRun: cfg.Attestation.DryRun,
	}, dataStore, attester, idem, publisher, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create attestation worker", zap.Error(err))
	}

	// Operator commands
	switch {
	case *requeue != "":
		if err := attestationWorker.Requeue(ctx, *requeue); err != nil {
			logger.FatalCtx(ctx, "Failed to requeue receipt", zap.Error(err), zap.String("receipt_id", *requeue))
		}
		return
	case *skip != "":
		if err := attestationWorker.Skip(ctx, *skip, *reason); err != nil {
			logger.FatalCtx(ctx, "Failed to skip receipt", zap.Error(err), zap.String("receipt_id", *skip))
		}
		return
	}

	if err := attestationWorker.Init(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to initialize attestation worker", zap.Error(err))
	}

	if *once {
		if _, err := attestationWorker.ProcessBatch(ctx); err != nil {
			logger.FatalCtx(ctx, "Batch failed", zap.Error(err))
		}
		return
	}

	poller := worker.NewPeriodic("attestation-worker", cfg.Attestation.PollInterval, func(ctx context.Context) error {
		_, err := attestationWorker.ProcessBatch(ctx)
		return err
	}, clock)

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

	// The batch stops between receipts, the receipt in flight is allowed to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Attestation.ConfirmTimeout+10*time.Second)
	defer shutdownCancel()

	if err := poller.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	cancel()

	logger.InfoCtx(shutdownCtx, "Attestation Worker stopped")
}
