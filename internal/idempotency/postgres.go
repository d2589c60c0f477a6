package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
)

type postgresStore struct {
	db    *gorm.DB
	clock adapter.Clock
}

// NewPostgresStore creates a Store backed by the idempotency_keys table
func NewPostgresStore(db *gorm.DB, clock adapter.Clock) Store {
	return &postgresStore{db: db, clock: clock}
}

// TrySet inserts the key, replacing an existing row only once it has expired.
// The conditional upsert is a single statement, so Postgres arbitrates concurrent claims.
func (s *postgresStore) TrySet(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, []byte, error) {
	if err := validateTTL(ttl); err != nil {
		return false, nil, err
	}

	now := s.clock.Now()
	row := schema.IdempotencyKey{
		Key:       key,
		Value:     jsonValue(value),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      gorm.Expr("EXCLUDED.value"),
			"expires_at": gorm.Expr("EXCLUDED.expires_at"),
			"created_at": gorm.Expr("EXCLUDED.created_at"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("idempotency_keys.expires_at <= ?", now),
		}},
	}).Create(&row)
	if res.Error != nil {
		return false, nil, fmt.Errorf("failed to set idempotency key %s: %w", key, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil, nil
	}

	current, err := s.Get(ctx, key)
	if err != nil {
		return false, nil, err
	}
	return false, current, nil
}

// Get returns the value of an unexpired key
func (s *postgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row schema.IdempotencyKey
	err := s.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, s.clock.Now()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idempotency key %s: %w", key, err)
	}
	return []byte(row.Value), nil
}

// Delete removes the key
func (s *postgresStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&schema.IdempotencyKey{}).Error; err != nil {
		return fmt.Errorf("failed to delete idempotency key %s: %w", key, err)
	}
	return nil
}

// jsonValue maps an empty value to JSON null, the column is not nullable
func jsonValue(value []byte) []byte {
	if len(value) == 0 {
		return []byte("null")
	}
	return value
}
