package schema

import (
	"time"

	"gorm.io/datatypes"
)

// ReceiptAnchor represents the receipt_anchors table - the inclusion proof of a receipt in a daily anchor
type ReceiptAnchor struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ReceiptID references the anchored receipt; a receipt is anchored at most once
	ReceiptID string `gorm:"column:receipt_id;not null;type:text;uniqueIndex:idx_receipt_anchors_receipt"`
	// AnchorID references the daily anchor holding the receipt
	AnchorID int64 `gorm:"column:anchor_id;not null;index:idx_receipt_anchors_anchor"`
	// LeafIndex is the position of the receipt leaf in the padded leaf level
	LeafIndex int `gorm:"column:leaf_index;not null"`
	// LeafHash is the canonical receipt hash at anchoring time
	LeafHash string `gorm:"column:leaf_hash;not null;type:text"`
	// MerkleProof is a JSON array of 0x-prefixed sibling hashes, bottom-up
	MerkleProof datatypes.JSON `gorm:"column:merkle_proof;not null;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Anchor  DailyAnchor `gorm:"foreignKey:AnchorID;constraint:OnDelete:CASCADE"`
	Receipt Receipt     `gorm:"foreignKey:ReceiptID;references:ReceiptID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the ReceiptAnchor model
func (ReceiptAnchor) TableName() string {
	return "receipt_anchors"
}
