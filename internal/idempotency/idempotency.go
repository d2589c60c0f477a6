package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/basebytes/receipt-indexer/internal/adapter"
)

// Backend names a Store implementation
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
)

// ErrInvalidTTL is returned when a claim is requested without a positive ttl
var ErrInvalidTTL = errors.New("idempotency ttl must be positive")

// Store records short lived claims on keys. The store arbitrates concurrent
// claims: of two callers of TrySet on the same unexpired key exactly one establishes it.
//
//go:generate mockgen -source=idempotency.go -destination=../mocks/idempotency.go -package=mocks -mock_names=Store=MockIdempotencyStore
type Store interface {
	// TrySet establishes key with value for ttl unless an unexpired claim exists.
	// It reports whether the claim was established and, when it was not, the current value.
	TrySet(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, []byte, error)

	// Get returns the value of an unexpired claim, nil when there is none
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete releases a claim. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Config selects and configures the backend
type Config struct {
	Backend Backend
	// Dir is the directory of the file backend
	Dir string
	// Debug must be set to allow the file backend
	Debug bool
}

// Dependencies carries the clients a backend may need
type Dependencies struct {
	DB         *gorm.DB
	Redis      adapter.RedisClient
	FileSystem adapter.FileSystem
	Clock      adapter.Clock
	JSON       adapter.JSON
}

// New creates the Store selected by cfg.Backend
func New(cfg Config, deps Dependencies) (Store, error) {
	if deps.Clock == nil {
		deps.Clock = adapter.NewClock()
	}
	if deps.JSON == nil {
		deps.JSON = adapter.NewJSON()
	}

	switch cfg.Backend {
	case BackendPostgres, "":
		if deps.DB == nil {
			return nil, fmt.Errorf("postgres idempotency backend requires a database")
		}
		return NewPostgresStore(deps.DB, deps.Clock), nil
	case BackendRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis idempotency backend requires a redis client")
		}
		return NewRedisStore(deps.Redis), nil
	case BackendMemory:
		return NewMemoryStore(deps.Clock), nil
	case BackendFile:
		if !cfg.Debug {
			return nil, fmt.Errorf("file idempotency backend is only allowed in debug mode")
		}
		if deps.FileSystem == nil {
			deps.FileSystem = adapter.NewFileSystem()
		}
		return NewFileStore(cfg.Dir, deps.FileSystem, deps.Clock, deps.JSON)
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}

// EncodeValue renders v as RFC 8785 canonical JSON, so equal values always store the same bytes
func EncodeValue(v interface{}) ([]byte, error) {
	data, err := adapter.NewJSON().MarshalCanonical(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode idempotency value: %w", err)
	}
	return data, nil
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
	}
	return nil
}
