package attestation

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/idempotency"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/merkle"
	"github.com/basebytes/receipt-indexer/internal/messaging"
	"github.com/basebytes/receipt-indexer/internal/providers/ethereum"
	"github.com/basebytes/receipt-indexer/internal/store"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
	"github.com/basebytes/receipt-indexer/internal/worker"
)

const (
	DEFAULT_BATCH_SIZE = 10
	DEFAULT_CLAIM_TTL  = 2 * time.Minute

	// DEFAULT_SKIP_REASON is recorded when an operator skips a receipt without a reason
	DEFAULT_SKIP_REASON = "skipped by operator"
)

// Config holds the attestation worker configuration
type Config struct {
	// ExpectedChainID is the chain the RPC endpoint must report before any attestation is sent
	ExpectedChainID int64
	// SchemaUID is the registered EAS schema of receipt attestations
	SchemaUID string
	BatchSize int
	// ClaimTTL bounds how long a receipt claim outlives a crashed worker
	ClaimTTL time.Duration
	Backoff  BackoffConfig
	// DryRun logs the attestations that would be sent without touching any receipt
	DryRun bool
}

// BatchResult counts the outcomes of one poll
type BatchResult struct {
	Fetched   int
	Attested  int
	Retried   int
	Failed    int
	Claimed   int
	DryRun    int
	Cancelled bool
}

// Worker drives receipts through pending, attesting and onchain
type Worker interface {
	// Init checks the chain of the RPC endpoint. It must succeed before ProcessBatch is called.
	Init(ctx context.Context) error

	// ProcessBatch attests the receipts currently due, one at a time, oldest first
	ProcessBatch(ctx context.Context) (*BatchResult, error)

	// Requeue clears the failure state of a receipt so the next poll picks it up
	Requeue(ctx context.Context, receiptID string) error

	// Skip gives up on a receipt, it will never be attested
	Skip(ctx context.Context, receiptID string, reason string) error
}

type attestationWorker struct {
	config      Config
	schemaUID   common.Hash
	chainID     *big.Int
	store       store.Store
	attester    ethereum.Attester
	idempotency idempotency.Store
	publisher   messaging.Publisher
	clock       adapter.Clock
}

// claim is the value held under the idempotency key of a receipt being attested
type claim struct {
	ReceiptID string    `json:"receipt_id"`
	Attester  string    `json:"attester"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// New creates a new attestation worker
func New(
	config Config,
	st store.Store,
	attester ethereum.Attester,
	idem idempotency.Store,
	publisher messaging.Publisher,
	clock adapter.Clock,
) (Worker, error) {
	if !isHexHash(config.SchemaUID) {
		return nil, fmt.Errorf("%w: %q", domain.ErrMissingSchemaUID, config.SchemaUID)
	}
	schemaUID := common.HexToHash(config.SchemaUID)
	if schemaUID == (common.Hash{}) {
		return nil, domain.ErrMissingSchemaUID
	}

	if config.BatchSize <= 0 {
		config.BatchSize = DEFAULT_BATCH_SIZE
	}
	if config.ClaimTTL <= 0 {
		config.ClaimTTL = DEFAULT_CLAIM_TTL
	}
	if config.Backoff.Initial <= 0 {
		config.Backoff.Initial = 5 * time.Second
	}
	if config.Backoff.Max <= 0 {
		config.Backoff.Max = 5 * time.Minute
	}
	if config.Backoff.Multiplier < 1 {
		config.Backoff.Multiplier = 2
	}

	return &attestationWorker{
		config:      config,
		schemaUID:   schemaUID,
		store:       st,
		attester:    attester,
		idempotency: idem,
		publisher:   publisher,
		clock:       clock,
	}, nil
}

func isHexHash(s string) bool {
	if len(s) == 2+2*common.HashLength && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s) != 2*common.HashLength {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// Init verifies the RPC endpoint serves the expected chain
func (w *attestationWorker) Init(ctx context.Context) error {
	chainID, err := w.attester.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if chainID.Cmp(big.NewInt(w.config.ExpectedChainID)) != 0 {
		return fmt.Errorf("%w: expected %d, rpc reports %s", domain.ErrChainIDMismatch, w.config.ExpectedChainID, chainID)
	}

	w.chainID = chainID
	logger.InfoCtx(ctx, "Attestation worker initialized",
		zap.String("chain_id", domain.ChainIDHex(chainID)),
		zap.String("attester", w.attester.Address().Hex()),
		zap.String("schema_uid", w.schemaUID.Hex()),
		zap.Bool("dry_run", w.config.DryRun))

	return nil
}

// ProcessBatch runs one poll of the attestation queue
func (w *attestationWorker) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	if w.chainID == nil {
		return nil, fmt.Errorf("attestation worker is not initialized")
	}

	receipts, err := w.store.GetReceiptsForAttestation(ctx, w.clock.Now(), w.config.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Fetched: len(receipts)}
	for _, receipt := range receipts {
		if worker.StopRequested(ctx) || ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		switch w.processReceipt(ctx, receipt) {
		case outcomeAttested:
			result.Attested++
		case outcomeRetry:
			result.Retried++
		case outcomeFailed:
			result.Failed++
		case outcomeClaimed:
			result.Claimed++
		case outcomeDryRun:
			result.DryRun++
		}
	}

	if result.Fetched > 0 {
		logger.InfoCtx(ctx, "Attestation batch processed",
			zap.Int("fetched", result.Fetched),
			zap.Int("attested", result.Attested),
			zap.Int("retried", result.Retried),
			zap.Int("failed", result.Failed),
			zap.Int("claimed_elsewhere", result.Claimed))
	}

	return result, nil
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeAttested
	outcomeRetry
	outcomeFailed
	outcomeClaimed
	outcomeDryRun
)

// processReceipt attests one receipt while holding its idempotency claim
func (w *attestationWorker) processReceipt(ctx context.Context, receipt schema.Receipt) outcome {
	fields := []zap.Field{
		zap.String("receipt_id", receipt.ReceiptID),
		zap.Int("attempts", receipt.AttestationAttempts),
	}

	if w.config.DryRun {
		w.logDryRun(ctx, receipt)
		return outcomeDryRun
	}

	key := domain.AttestationKey(receipt.ReceiptID)
	value, err := idempotency.EncodeValue(claim{
		ReceiptID: receipt.ReceiptID,
		Attester:  w.attester.Address().Hex(),
		ClaimedAt: w.clock.Now().UTC(),
	})
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to encode attestation claim: %w", err), fields...)
		return outcomeNone
	}

	established, _, err := w.idempotency.TrySet(ctx, key, value, w.config.ClaimTTL)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to claim receipt: %w", err), fields...)
		return outcomeNone
	}
	if !established {
		logger.InfoCtx(ctx, "Receipt is claimed by another worker", fields...)
		return outcomeClaimed
	}
	defer func() {
		if err := w.idempotency.Delete(context.WithoutCancel(ctx), key); err != nil {
			logger.WarnCtx(ctx, "Failed to release receipt claim", append(fields, zap.Error(err))...)
		}
	}()

	chainIDHex := domain.ChainIDHex(w.chainID)
	if err := w.store.MarkReceiptAttesting(ctx, receipt.ReceiptID, chainIDHex); err != nil {
		// The receipt moved on since it was polled, e.g. an operator skipped it
		logger.WarnCtx(ctx, "Failed to mark receipt attesting", append(fields, zap.Error(err))...)
		return outcomeNone
	}

	result, err := w.attest(ctx, receipt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Left attesting, the next run resumes from the recorded transaction
			logger.WarnCtx(ctx, "Attestation interrupted", fields...)
			return outcomeNone
		}
		return w.recordFailure(ctx, receipt, err)
	}

	attestedAt := result.ConfirmedAt
	if attestedAt.IsZero() {
		attestedAt = w.clock.Now()
	}
	err = w.store.MarkReceiptOnchain(ctx, store.MarkOnchainInput{
		ReceiptID:  receipt.ReceiptID,
		UID:        result.UID.Hex(),
		TxHash:     result.TxHash.Hex(),
		ChainIDHex: chainIDHex,
		AttestedAt: attestedAt,
	})
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to mark receipt onchain: %w", err),
			append(fields, zap.String("uid", result.UID.Hex()), zap.String("tx_hash", result.TxHash.Hex()))...)
		return outcomeNone
	}

	logger.InfoCtx(ctx, "Receipt attested",
		append(fields, zap.String("uid", result.UID.Hex()), zap.String("tx_hash", result.TxHash.Hex()))...)
	w.publishAttested(ctx, receipt, result, chainIDHex)

	return outcomeAttested
}

// attest resumes a previously broadcast transaction or submits a new one and waits for it
func (w *attestationWorker) attest(ctx context.Context, receipt schema.Receipt) (*domain.AttestationResult, error) {
	if receipt.AttestationTx != nil && *receipt.AttestationTx != "" {
		previous := common.HexToHash(*receipt.AttestationTx)
		result, err := w.attester.LookupAttestation(ctx, previous)
		if err != nil {
			return nil, err
		}
		if result != nil {
			logger.InfoCtx(ctx, "Recovered attestation from previous transaction",
				zap.String("receipt_id", receipt.ReceiptID),
				zap.String("tx_hash", previous.Hex()))
			return result, nil
		}
		logger.WarnCtx(ctx, "Previous attestation transaction is unknown, resubmitting",
			zap.String("receipt_id", receipt.ReceiptID),
			zap.String("tx_hash", previous.Hex()))
	}

	req, err := w.buildRequest(receipt)
	if err != nil {
		return nil, err
	}

	txHash, err := w.attester.Submit(ctx, *req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit attestation: %w", err)
	}

	if err := w.store.RecordAttestationTx(ctx, receipt.ReceiptID, txHash.Hex()); err != nil {
		// The transaction is out, keep waiting so the uid is not lost
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record attestation tx: %w", err),
			zap.String("receipt_id", receipt.ReceiptID),
			zap.String("tx_hash", txHash.Hex()))
	}

	return w.attester.WaitForAttestation(ctx, txHash)
}

// buildRequest encodes the receipt as the attestation data of the schema, addressed to the buyer
func (w *attestationWorker) buildRequest(receipt schema.Receipt) (*domain.AttestationRequest, error) {
	buyer, err := domain.NormalizeAddress(receipt.Buyer)
	if err != nil {
		return nil, err
	}

	fields, err := receipt.HashFields()
	if err != nil {
		return nil, err
	}

	data, err := merkle.EncodeReceipt(fields)
	if err != nil {
		return nil, err
	}

	return &domain.AttestationRequest{
		Schema:    w.schemaUID,
		Recipient: common.HexToAddress(buyer),
		Data:      data,
	}, nil
}

// recordFailure moves the receipt back to pending with its classified failure
func (w *attestationWorker) recordFailure(ctx context.Context, receipt schema.Receipt, cause error) outcome {
	kind := Classify(cause)
	input := store.AttestationFailureInput{
		ReceiptID: receipt.ReceiptID,
		Error:     cause.Error(),
		Kind:      kind,
	}

	result := outcomeFailed
	fields := []zap.Field{
		zap.String("receipt_id", receipt.ReceiptID),
		zap.String("error_kind", string(kind)),
		zap.Int("attempts", receipt.AttestationAttempts+1),
	}
	if kind == domain.ErrorKindTransient {
		delay := w.config.Backoff.Delay(receipt.AttestationAttempts)
		next := w.clock.Now().Add(delay)
		input.NextAttemptAt = &next
		result = outcomeRetry
		logger.WarnCtx(ctx, "Attestation failed, retrying later",
			append(fields, zap.Error(cause), zap.Duration("retry_in", delay))...)
	} else {
		logger.ErrorCtx(ctx, fmt.Errorf("attestation failed permanently: %w", cause), fields...)
	}

	if err := w.store.RecordAttestationFailure(ctx, input); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record attestation failure: %w", err), fields...)
		return outcomeNone
	}

	return result
}

func (w *attestationWorker) logDryRun(ctx context.Context, receipt schema.Receipt) {
	req, err := w.buildRequest(receipt)
	if err != nil {
		logger.WarnCtx(ctx, "Dry run: receipt cannot be attested",
			zap.String("receipt_id", receipt.ReceiptID),
			zap.Error(err))
		return
	}

	logger.InfoCtx(ctx, "Dry run: would attest receipt",
		zap.String("receipt_id", receipt.ReceiptID),
		zap.String("recipient", req.Recipient.Hex()),
		zap.String("schema_uid", req.Schema.Hex()),
		zap.Int("data_bytes", len(req.Data)))
}

// publishAttested notifies subscribers of an onchain receipt, failures are only logged
func (w *attestationWorker) publishAttested(ctx context.Context, receipt schema.Receipt, result *domain.AttestationResult, chainIDHex string) {
	event := domain.NewPipelineEvent(domain.EventTypeReceiptAttested, receipt.ReceiptID, w.clock.Now(), map[string]any{
		"receipt_id":   receipt.ReceiptID,
		"uid":          result.UID.Hex(),
		"tx_hash":      result.TxHash.Hex(),
		"chain_id":     chainIDHex,
		"block_number": result.BlockNumber,
	})
	event.Chain = domain.Chain(receipt.Chain)

	if err := w.publisher.PublishEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish receipt attested event",
			zap.String("receipt_id", receipt.ReceiptID),
			zap.Error(err))
	}
}

// Requeue clears the failure state of a receipt
func (w *attestationWorker) Requeue(ctx context.Context, receiptID string) error {
	if err := w.store.RequeueAttestation(ctx, receiptID); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "Receipt requeued for attestation", zap.String("receipt_id", receiptID))
	return nil
}

// Skip moves a receipt to skipped
func (w *attestationWorker) Skip(ctx context.Context, receiptID string, reason string) error {
	if reason == "" {
		reason = DEFAULT_SKIP_REASON
	}
	if err := w.store.SkipAttestation(ctx, receiptID, reason); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "Receipt attestation skipped",
		zap.String("receipt_id", receiptID),
		zap.String("reason", reason))
	return nil
}
