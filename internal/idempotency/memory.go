package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/basebytes/receipt-indexer/internal/adapter"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryStore keeps claims in process memory; it only arbitrates callers of the same process
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   adapter.Clock
}

// NewMemoryStore creates a process-local Store
func NewMemoryStore(clock adapter.Clock) Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

func (s *memoryStore) TrySet(_ context.Context, key string, value []byte, ttl time.Duration) (bool, []byte, error) {
	if err := validateTTL(ttl); err != nil {
		return false, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if entry, ok := s.entries[key]; ok && now.Before(entry.expiresAt) {
		return false, clone(entry.value), nil
	}

	s.entries[key] = memoryEntry{value: clone(jsonValue(value)), expiresAt: now.Add(ttl)}
	return true, nil, nil
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.clock.Now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	return clone(entry.value), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
