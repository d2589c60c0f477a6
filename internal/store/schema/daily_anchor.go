package schema

import "time"

// DailyAnchor represents the daily_anchors table - the immutable Merkle commitment of one day of receipts
type DailyAnchor struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// AnchorDate is the calendar date in the anchor time zone, stored as UTC midnight
	AnchorDate time.Time `gorm:"column:anchor_date;not null;type:date;uniqueIndex:idx_daily_anchors_date"`
	// Timezone is the IANA zone the day boundaries were computed in
	Timezone string `gorm:"column:timezone;not null;type:text"`
	// MerkleRoot is the 0x-prefixed root hash
	MerkleRoot string `gorm:"column:merkle_root;not null;type:text"`
	// ReceiptCount is the number of receipts committed to, excluding padding
	ReceiptCount   int       `gorm:"column:receipt_count;not null"`
	FirstReceiptID string    `gorm:"column:first_receipt_id;not null;type:text"`
	LastReceiptID  string    `gorm:"column:last_receipt_id;not null;type:text"`
	WindowStart    time.Time `gorm:"column:window_start;not null;type:timestamptz"`
	WindowEnd      time.Time `gorm:"column:window_end;not null;type:timestamptz"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DailyAnchor model
func (DailyAnchor) TableName() string {
	return "daily_anchors"
}
