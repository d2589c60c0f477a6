package schema

import "time"

// Payment represents the payments table - one row per PaymentReceived log
type Payment struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Chain is the CAIP-2 chain identifier the payment was observed on
	Chain string `gorm:"column:chain;not null;type:text"`
	// TxHash is the lowercased hash of the transaction emitting the log
	TxHash string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_payments_tx_log,priority:1"`
	// LogIndex is the position of the log inside the block
	LogIndex int64 `gorm:"column:log_index;not null;uniqueIndex:idx_payments_tx_log,priority:2"`
	// BlockNumber is the block holding the log
	BlockNumber int64 `gorm:"column:block_number;not null"`
	// BlockTimestamp is the timestamp of BlockNumber
	BlockTimestamp time.Time `gorm:"column:block_timestamp;not null;type:timestamptz"`
	// Buyer is the lowercased payer address
	Buyer string `gorm:"column:buyer;not null;type:text"`
	// Seller is the lowercased payee address
	Seller string `gorm:"column:seller;not null;type:text"`
	// SkuID is the decoded bytes32 SKU identifier
	SkuID string `gorm:"column:sku_id;not null;type:text"`
	// AmountUSD6 is the paid amount with 6 decimals (stored as string to support up to 78 digits)
	AmountUSD6 string `gorm:"column:amount_usd6;not null;type:numeric(78,0)"`
	// Units is the number of purchased units
	Units int64 `gorm:"column:units;not null"`
	// Rights is the rights bitmask of the purchase
	Rights int16 `gorm:"column:rights;not null"`
	// IndexedAt is the timestamp when the indexer applied this payment
	IndexedAt time.Time `gorm:"column:indexed_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
