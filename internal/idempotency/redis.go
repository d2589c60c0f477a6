package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/basebytes/receipt-indexer/internal/adapter"
)

// redisKeyPrefix namespaces idempotency keys in a shared Redis
const redisKeyPrefix = "idem:"

type redisStore struct {
	client adapter.RedisClient
}

// NewRedisStore creates a Store backed by Redis SET NX with an expiry
func NewRedisStore(client adapter.RedisClient) Store {
	return &redisStore{client: client}
}

func (s *redisStore) TrySet(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, []byte, error) {
	if err := validateTTL(ttl); err != nil {
		return false, nil, err
	}

	ok, err := s.client.SetNX(ctx, redisKeyPrefix+key, jsonValue(value), ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("failed to set idempotency key %s: %w", key, err)
	}
	if ok {
		return true, nil, nil
	}

	current, err := s.Get(ctx, key)
	if err != nil {
		return false, nil, err
	}
	return false, current, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idempotency key %s: %w", key, err)
	}
	return value, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete idempotency key %s: %w", key, err)
	}
	return nil
}
