package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/config"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/proof"
	"github.com/basebytes/receipt-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	limit      = flag.Int("limit", proof.DEFAULT_LIMIT, "Page size of list commands")
	offset     = flag.Int("offset", 0, "Page offset of list commands")
)

const usage = `Usage: proof-verifier [flags] <command> [argument]

Commands:
  proof <receipt_id>     print and verify the inclusion proof of a receipt
  receipt <receipt_id>   print a receipt
  receipts <buyer>       list the receipts of a buyer
  anchors                list daily anchors
  status                 print attestation coverage and the last anchor
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadProofVerifierConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Logs go to stderr so stdout stays valid JSON
	err = logger.Initialize(logger.Config{
		Debug:   cfg.Debug,
		Service: "proof-verifier",
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}

	svc := proof.NewService(store.NewPGStore(db), adapter.NewClock())

	result, err := run(ctx, svc, flag.Args())
	if err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		if errors.Is(err, domain.ErrReceiptNotFound) || errors.Is(err, domain.ErrProofNotFound) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logger.FatalCtx(ctx, "Command failed", zap.Error(err))
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		logger.FatalCtx(ctx, "Failed to encode result", zap.Error(err))
	}

	// An unverifiable proof is reported through the exit code as well
	if view, ok := result.(*proof.ProofView); ok && !view.Proof.Verified {
		os.Exit(3)
	}
}

var errUsage = errors.New("invalid usage")

func run(ctx context.Context, svc proof.Service, args []string) (any, error) {
	argument := func() (string, error) {
		if len(args) != 2 || args[1] == "" {
			return "", errUsage
		}
		return args[1], nil
	}

	switch args[0] {
	case "proof":
		id, err := argument()
		if err != nil {
			return nil, err
		}
		return svc.GetProof(ctx, id)
	case "receipt":
		id, err := argument()
		if err != nil {
			return nil, err
		}
		return svc.GetReceipt(ctx, id)
	case "receipts":
		buyer, err := argument()
		if err != nil {
			return nil, err
		}
		return svc.ListReceipts(ctx, buyer, *limit, *offset)
	case "anchors":
		return svc.ListAnchors(ctx, *limit, *offset)
	case "status":
		return svc.Status(ctx)
	default:
		return nil, errUsage
	}
}
