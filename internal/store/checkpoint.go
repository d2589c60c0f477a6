package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
)

// checkpointKey returns the key_value_store key holding the checkpoint of a chain
func checkpointKey(chain domain.Chain) string {
	return fmt.Sprintf("indexer_checkpoint:%s", chain)
}

// GetIndexerCheckpoint retrieves the last fully applied block of a chain
func (s *pgStore) GetIndexerCheckpoint(ctx context.Context, chain domain.Chain) (uint64, bool, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", checkpointKey(chain)).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get indexer checkpoint: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse indexer checkpoint: %w", err)
	}

	return blockNumber, true, nil
}

// SetIndexerCheckpoint stores the checkpoint of a chain.
// The conflict update only fires for a higher block, so a stale writer cannot move it backwards.
func (s *pgStore) SetIndexerCheckpoint(ctx context.Context, chain domain.Chain, blockNumber uint64) error {
	kv := schema.KeyValueStore{
		Key:   checkpointKey(chain),
		Value: strconv.FormatUint(blockNumber, 10),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      gorm.Expr("EXCLUDED.value"),
			"updated_at": gorm.Expr("now()"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("key_value_store.value::numeric < EXCLUDED.value::numeric"),
		}},
	}).Create(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set indexer checkpoint: %w", err)
	}

	return nil
}
