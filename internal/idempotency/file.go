package idempotency

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/logger"
)

// fileRecord is the on-disk form of a claim
type fileRecord struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// fileStore keeps one JSON file per key. The read-then-write is not atomic,
// so two processes may both establish the same key; it is meant for local development.
type fileStore struct {
	dir   string
	fs    adapter.FileSystem
	clock adapter.Clock
	json  adapter.JSON
}

// NewFileStore creates a Store writing claims under dir
func NewFileStore(dir string, fileSystem adapter.FileSystem, clock adapter.Clock, jsonAdapter adapter.JSON) (Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("file idempotency backend requires a directory")
	}
	if err := fileSystem.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create idempotency directory %s: %w", dir, err)
	}

	logger.Warn("Using file idempotency backend, claims are not race safe", zap.String("dir", dir))

	return &fileStore{dir: dir, fs: fileSystem, clock: clock, json: jsonAdapter}, nil
}

func (s *fileStore) TrySet(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, []byte, error) {
	if err := validateTTL(ttl); err != nil {
		return false, nil, err
	}

	current, err := s.Get(ctx, key)
	if err != nil {
		return false, nil, err
	}
	if current != nil {
		return false, current, nil
	}

	data, err := s.json.Marshal(fileRecord{
		Value:     jsonValue(value),
		ExpiresAt: s.clock.Now().Add(ttl).UTC(),
	})
	if err != nil {
		return false, nil, fmt.Errorf("failed to encode idempotency key %s: %w", key, err)
	}
	if err := s.fs.WriteFile(s.path(key), data, 0o600); err != nil {
		return false, nil, fmt.Errorf("failed to write idempotency key %s: %w", key, err)
	}

	return true, nil, nil
}

func (s *fileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := s.fs.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read idempotency key %s: %w", key, err)
	}

	var record fileRecord
	if err := s.json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency key %s: %w", key, err)
	}
	if !s.clock.Now().Before(record.ExpiresAt) {
		return nil, nil
	}

	return []byte(record.Value), nil
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	if err := s.fs.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete idempotency key %s: %w", key, err)
	}
	return nil
}

// path maps a key to a file name safe on any file system
func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+".json")
}
