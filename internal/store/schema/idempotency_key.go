package schema

import (
	"time"

	"gorm.io/datatypes"
)

// IdempotencyKey represents the idempotency_keys table - short lived claims on an operation
type IdempotencyKey struct {
	Key string `gorm:"column:key;primaryKey;type:text"`
	// Value is the canonical JSON payload stored with the claim
	Value     datatypes.JSON `gorm:"column:value;not null;type:jsonb"`
	ExpiresAt time.Time      `gorm:"column:expires_at;not null;type:timestamptz;index:idx_idempotency_keys_expires_at"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the IdempotencyKey model
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}
