package indexer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/block"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/messaging"
	"github.com/basebytes/receipt-indexer/internal/providers/ethereum"
	"github.com/basebytes/receipt-indexer/internal/store"
)

const (
	DEFAULT_MAX_BLOCK_RANGE   = 1000
	DEFAULT_WORKER_POOL_SIZE  = 8
	DEFAULT_WORKER_QUEUE_SIZE = 1000
)

// Config holds the indexer configuration
type Config struct {
	Chain domain.Chain
	// StartBlock is the first block scanned when the chain has no checkpoint yet
	StartBlock uint64
	// Confirmations is subtracted from the chain head before scanning
	Confirmations uint64
	// MaxBlockRange caps the number of blocks scanned per poll
	MaxBlockRange uint64
	// WorkerPoolSize bounds the concurrent block timestamp lookups
	WorkerPoolSize  int
	WorkerQueueSize int
}

// PollResult describes one indexing pass
type PollResult struct {
	// FromBlock and ToBlock bound the scanned range, both zero when the checkpoint is at the head
	FromBlock uint64
	ToBlock   uint64
	// Events is the number of payment events found in the range
	Events int
	// Applied is the number of events that were new
	Applied int
}

// Indexer turns router payment logs into payments, entitlements, balances and receipts
type Indexer interface {
	// Poll scans the next block range past the checkpoint and applies its payments.
	// It returns domain.ErrPollInFlight when another poll is still running.
	Poll(ctx context.Context) (*PollResult, error)

	// Close releases the timestamp worker pool
	Close()
}

type indexer struct {
	config        Config
	store         store.Store
	paymentClient ethereum.PaymentClient
	blockProvider block.BlockProvider
	publisher     messaging.Publisher
	clock         adapter.Clock
	pool          pond.ResultPool[time.Time]
	busy          atomic.Bool
}

// New creates a new payment indexer
func New(
	config Config,
	st store.Store,
	paymentClient ethereum.PaymentClient,
	blockProvider block.BlockProvider,
	publisher messaging.Publisher,
	clock adapter.Clock,
) Indexer {
	if config.MaxBlockRange == 0 {
		config.MaxBlockRange = DEFAULT_MAX_BLOCK_RANGE
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}
	if config.WorkerQueueSize <= 0 {
		config.WorkerQueueSize = DEFAULT_WORKER_QUEUE_SIZE
	}

	return &indexer{
		config:        config,
		store:         st,
		paymentClient: paymentClient,
		blockProvider: blockProvider,
		publisher:     publisher,
		clock:         clock,
		pool: pond.NewResultPool[time.Time](
			config.WorkerPoolSize,
			pond.WithQueueSize(config.WorkerQueueSize),
		),
	}
}

// Poll runs one indexing pass
func (i *indexer) Poll(ctx context.Context) (*PollResult, error) {
	if !i.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrPollInFlight
	}
	defer i.busy.Store(false)

	checkpoint, found, err := i.store.GetIndexerCheckpoint(ctx, i.config.Chain)
	if err != nil {
		return nil, err
	}

	next := i.config.StartBlock
	if found {
		next = checkpoint + 1
	}

	head, err := i.blockProvider.GetConfirmedHead(ctx, i.config.Confirmations)
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmed head: %w", err)
	}
	if next > head {
		logger.DebugCtx(ctx, "Indexer is at the confirmed head",
			zap.String("chain", string(i.config.Chain)),
			zap.Uint64("next_block", next),
			zap.Uint64("head", head))
		return &PollResult{}, nil
	}

	to := min(next+i.config.MaxBlockRange-1, head)

	events, err := i.paymentClient.FetchPayments(ctx, next, to)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].Less(events[b]) })

	if err := i.resolveTimestamps(ctx, events); err != nil {
		return nil, err
	}

	result := &PollResult{FromBlock: next, ToBlock: to, Events: len(events)}
	for _, event := range events {
		applied, err := i.store.ApplyPaymentEvent(ctx, store.ApplyPaymentInput{
			Event:      event,
			ReceiptID:  domain.NewReceiptID(),
			ObservedAt: i.clock.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to apply payment %s:%d: %w", event.TxHash, event.LogIndex, err)
		}
		if !applied.Applied {
			logger.DebugCtx(ctx, "Payment already indexed",
				zap.String("tx_hash", event.TxHash),
				zap.Uint("log_index", event.LogIndex))
			continue
		}

		result.Applied++
		i.publishIndexed(ctx, event, applied.ReceiptID)
	}

	if err := i.store.SetIndexerCheckpoint(ctx, i.config.Chain, to); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Indexed block range",
		zap.String("chain", string(i.config.Chain)),
		zap.Uint64("from_block", next),
		zap.Uint64("to_block", to),
		zap.Int("events", result.Events),
		zap.Int("applied", result.Applied))

	return result, nil
}

// resolveTimestamps fills the block timestamp of every event, looking each distinct block up once
func (i *indexer) resolveTimestamps(ctx context.Context, events []domain.PaymentEvent) error {
	if len(events) == 0 {
		return nil
	}

	var blocks []uint64
	seen := make(map[uint64]bool)
	for _, event := range events {
		if !seen[event.BlockNumber] {
			seen[event.BlockNumber] = true
			blocks = append(blocks, event.BlockNumber)
		}
	}

	group := i.pool.NewGroupContext(ctx)
	for _, blockNumber := range blocks {
		group.SubmitErr(func() (time.Time, error) {
			return i.blockProvider.GetBlockTimestamp(ctx, blockNumber)
		})
	}

	timestamps, err := group.Wait()
	if err != nil {
		return fmt.Errorf("failed to get block timestamps: %w", err)
	}

	byBlock := make(map[uint64]time.Time, len(blocks))
	for idx, blockNumber := range blocks {
		byBlock[blockNumber] = timestamps[idx]
	}
	for idx := range events {
		events[idx].BlockTimestamp = byBlock[events[idx].BlockNumber]
	}

	return nil
}

// publishIndexed notifies subscribers of a newly applied payment.
// The payment is already committed, so a publish failure is only logged.
func (i *indexer) publishIndexed(ctx context.Context, event domain.PaymentEvent, receiptID string) {
	dedupKey := event.TxHash + ":" + strconv.FormatUint(uint64(event.LogIndex), 10)
	pipelineEvent := domain.NewPipelineEvent(domain.EventTypePaymentIndexed, dedupKey, i.clock.Now(), map[string]any{
		"receipt_id":   receiptID,
		"buyer":        event.Buyer,
		"seller":       event.Seller,
		"sku_id":       event.SkuID,
		"amount_usd6":  event.AmountUSD6.String(),
		"units":        event.Units,
		"tx_hash":      event.TxHash,
		"log_index":    event.LogIndex,
		"block_number": event.BlockNumber,
	})
	pipelineEvent.Chain = event.Chain

	if err := i.publisher.PublishEvent(ctx, pipelineEvent); err != nil {
		logger.WarnCtx(ctx, "Failed to publish payment indexed event",
			zap.String("receipt_id", receiptID),
			zap.Error(err))
	}
}

// Close stops the timestamp worker pool
func (i *indexer) Close() {
	i.pool.StopAndWait()
}
