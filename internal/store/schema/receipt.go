package schema

import (
	"fmt"
	"time"

	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/merkle"
)

// Receipt represents the receipts table - the durable record of one payment,
// carrying its attestation lifecycle
type Receipt struct {
	// ReceiptID is the public identifier (rcpt_ + 24 hex characters)
	ReceiptID string `gorm:"column:receipt_id;primaryKey;type:text"`
	// PaymentID references the payment the receipt was created for
	PaymentID  int64  `gorm:"column:payment_id;not null;uniqueIndex:idx_receipts_payment"`
	Chain      string `gorm:"column:chain;not null;type:text"`
	Buyer      string `gorm:"column:buyer;not null;type:text;index:idx_receipts_buyer_created,priority:1"`
	Seller     string `gorm:"column:seller;not null;type:text"`
	SkuID      string `gorm:"column:sku_id;not null;type:text"`
	AmountUSD6 string `gorm:"column:amount_usd6;not null;type:numeric(78,0)"`
	Units      int64  `gorm:"column:units;not null"`
	TxHash     string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_receipts_tx_log,priority:1"`
	LogIndex   int64  `gorm:"column:log_index;not null;uniqueIndex:idx_receipts_tx_log,priority:2"`

	// AttestationStatus is one of pending, attesting, onchain or skipped
	AttestationStatus domain.AttestationStatus `gorm:"column:attestation_status;not null;type:text;default:pending"`
	// AttestationUID is the registry uid once the receipt is onchain
	AttestationUID *string `gorm:"column:attestation_uid;type:text"`
	// AttestationTx is the hash of the last broadcast attest transaction
	AttestationTx *string `gorm:"column:attestation_tx;type:text"`
	// AttestationChainID is the hex chain id the attestation targets, e.g. 0x14a34
	AttestationChainID *string `gorm:"column:attestation_chain_id;type:text"`
	// AttestationError is the message of the last failed attempt, or the skip reason
	AttestationError *string `gorm:"column:attestation_error;type:text"`
	// AttestationErrorKind classifies the last failure as transient or permanent
	AttestationErrorKind *domain.ErrorKind `gorm:"column:attestation_error_kind;type:text"`
	// AttestationAttempts counts failed attempts since the last requeue
	AttestationAttempts int `gorm:"column:attestation_attempts;not null;default:0"`
	// AttestationNextAttemptAt holds back transient failures until the backoff elapses
	AttestationNextAttemptAt *time.Time `gorm:"column:attestation_next_attempt_at;type:timestamptz"`
	AttestedAt               *time.Time `gorm:"column:attested_at;type:timestamptz"`

	// CreatedAt determines the anchor day of the receipt
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz;index:idx_receipts_buyer_created,priority:2"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Payment Payment `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// HashFields returns the attributes of the receipt committed to by its canonical hash
func (r Receipt) HashFields() (merkle.ReceiptFields, error) {
	amount, err := domain.ParseUSD6(r.AmountUSD6)
	if err != nil {
		return merkle.ReceiptFields{}, err
	}
	if r.Units < 0 || r.Units > int64(^uint32(0)) {
		return merkle.ReceiptFields{}, fmt.Errorf("units out of range: %d", r.Units)
	}

	return merkle.ReceiptFields{
		ReceiptID:  r.ReceiptID,
		Buyer:      r.Buyer,
		Seller:     r.Seller,
		SkuID:      r.SkuID,
		AmountUSD6: amount,
		Units:      uint32(r.Units),
		TxHash:     r.TxHash,
	}, nil
}
