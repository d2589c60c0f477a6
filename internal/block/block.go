package block

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/logger"
)

// DefaultMaxTimestamps bounds the timestamp cache when Config.MaxTimestamps is unset
const DefaultMaxTimestamps = 10_000

// head is the cached chain head
type head struct {
	Number    uint64
	FetchedAt time.Time
}

// BlockProvider provides cached access to the chain head and to block timestamps.
// Payment events carry only a block number, so the indexer resolves their
// timestamps through this provider, and a range of events usually shares a
// handful of blocks.
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=BlockProvider=MockBlockProvider,BlockFetcher=MockBlockFetcher
type BlockProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)

	// GetConfirmedHead returns the latest block minus confirmations, floored at zero
	GetConfirmedHead(ctx context.Context, confirmations uint64) (uint64, error)

	// GetBlockTimestamp returns the timestamp for a given block number, potentially from cache
	GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// BlockFetcher fetches block information from the chain
type BlockFetcher interface {
	// FetchLatestBlock fetches the latest block number
	FetchLatestBlock(ctx context.Context) (uint64, error)

	// FetchBlockTimestamp fetches the timestamp for a given block number
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Config holds configuration for the BlockProvider
type Config struct {
	// TTL is how long to cache the head block number
	TTL time.Duration

	// StaleWindow is how long a cached head may be served when fetching fails
	StaleWindow time.Duration

	// MaxTimestamps caps the number of cached block timestamps.
	// The oldest block numbers are evicted first.
	MaxTimestamps int
}

type blockProvider struct {
	fetcher BlockFetcher
	config  Config
	clock   adapter.Clock

	mu         sync.RWMutex
	head       *head
	timestamps map[uint64]time.Time
}

// NewBlockProvider creates a new BlockProvider with caching
func NewBlockProvider(fetcher BlockFetcher, config Config, clock adapter.Clock) BlockProvider {
	if config.MaxTimestamps <= 0 {
		config.MaxTimestamps = DefaultMaxTimestamps
	}
	return &blockProvider{
		fetcher:    fetcher,
		config:     config,
		clock:      clock,
		timestamps: make(map[uint64]time.Time),
	}
}

// GetLatestBlock returns the latest block number, using cache if valid
func (p *blockProvider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.FetchedAt) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached head block", zap.Uint64("block_number", cached.Number))
		return cached.Number, nil
	}

	number, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.FetchedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Serving stale head block",
				zap.Uint64("block_number", cached.Number),
				zap.Error(err))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	// The head never moves backwards from the indexer's point of view
	if cached != nil && number < cached.Number {
		logger.WarnCtx(ctx, "RPC reported an older head block, keeping cached head",
			zap.Uint64("reported", number),
			zap.Uint64("cached", cached.Number))
		number = cached.Number
	}

	p.mu.Lock()
	p.head = &head{Number: number, FetchedAt: now}
	p.mu.Unlock()

	return number, nil
}

// GetConfirmedHead returns the highest block considered final for the given confirmation depth
func (p *blockProvider) GetConfirmedHead(ctx context.Context, confirmations uint64) (uint64, error) {
	latest, err := p.GetLatestBlock(ctx)
	if err != nil {
		return 0, err
	}
	if latest < confirmations {
		return 0, nil
	}
	return latest - confirmations, nil
}

// GetBlockTimestamp returns the timestamp for a given block number.
// Timestamps of mined blocks are immutable so cached entries never expire, they are only evicted.
func (p *blockProvider) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	p.mu.RLock()
	ts, ok := p.timestamps[blockNumber]
	p.mu.RUnlock()

	if ok {
		return ts, nil
	}

	logger.DebugCtx(ctx, "Fetching block timestamp", zap.Uint64("block_number", blockNumber))
	ts, err := p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch block timestamp for block %d: %w", blockNumber, err)
	}

	p.mu.Lock()
	p.timestamps[blockNumber] = ts
	p.evictLocked()
	p.mu.Unlock()

	return ts, nil
}

// evictLocked drops the lowest block numbers until the cache fits MaxTimestamps
func (p *blockProvider) evictLocked() {
	excess := len(p.timestamps) - p.config.MaxTimestamps
	if excess <= 0 {
		return
	}

	numbers := make([]uint64, 0, len(p.timestamps))
	for n := range p.timestamps {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	for _, n := range numbers[:excess] {
		delete(p.timestamps, n)
	}
}
