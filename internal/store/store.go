package store

import (
	"context"
	"time"

	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
)

// ApplyPaymentInput represents the data needed to apply one payment event
type ApplyPaymentInput struct {
	Event domain.PaymentEvent
	// ReceiptID is assigned to the receipt created for a newly applied payment
	ReceiptID string
	// ObservedAt becomes the receipt creation time and decides its anchor day
	ObservedAt time.Time
}

// ApplyPaymentResult is the outcome of ApplyPaymentEvent
type ApplyPaymentResult struct {
	// Applied is false when the payment had already been indexed
	Applied bool
	// ReceiptID is the receipt created for the payment, empty when not applied
	ReceiptID string
}

// MarkOnchainInput represents the data recorded when an attestation is confirmed
type MarkOnchainInput struct {
	ReceiptID  string
	UID        string
	TxHash     string
	ChainIDHex string
	AttestedAt time.Time
}

// AttestationFailureInput represents a failed attestation attempt
type AttestationFailureInput struct {
	ReceiptID string
	Error     string
	Kind      domain.ErrorKind
	// NextAttemptAt holds the receipt back from polling, nil means immediately eligible
	NextAttemptAt *time.Time
}

// AttestationStats summarises the attestation queue
type AttestationStats struct {
	// Pending counts receipts that are neither onchain nor skipped
	Pending int64 `gorm:"column:pending"`
	// PermanentFailures counts pending receipts waiting for an operator
	PermanentFailures int64 `gorm:"column:permanent_failures"`
	// ReceiptsSince counts receipts created since the requested time
	ReceiptsSince int64 `gorm:"column:receipts_since"`
	// AttestedSince counts receipts created since the requested time that are onchain
	AttestedSince int64 `gorm:"column:attested_since"`
}

// ReceiptProofInput is the inclusion proof of one receipt inside an anchor plan
type ReceiptProofInput struct {
	ReceiptID string
	LeafIndex int
	LeafHash  string
	// Proof holds the 0x-prefixed sibling hashes, bottom-up
	Proof []string
}

// AnchorPlan is the Merkle commitment computed over the receipts of a window
type AnchorPlan struct {
	MerkleRoot string
	Proofs     []ReceiptProofInput
}

// AnchorBuilder computes the anchor plan of the ordered receipts of a window
type AnchorBuilder func(receipts []schema.Receipt) (*AnchorPlan, error)

// CreateDailyAnchorInput represents the data needed to anchor one day of receipts
type CreateDailyAnchorInput struct {
	// AnchorDate is the calendar date at UTC midnight
	AnchorDate time.Time
	Timezone   string
	// WindowStart and WindowEnd bound receipt creation times as [start, end)
	WindowStart time.Time
	WindowEnd   time.Time
	Build       AnchorBuilder
	// ProofBatchSize caps the proof rows per insert statement
	ProofBatchSize int
}

// CreateDailyAnchorResult is the outcome of CreateDailyAnchor
type CreateDailyAnchorResult struct {
	Status domain.AnchorStatus
	// Anchor is set when the status is created or exists
	Anchor *schema.DailyAnchor
}

// ReceiptProof joins a receipt with its inclusion proof and anchor
type ReceiptProof struct {
	Receipt       schema.Receipt
	ReceiptAnchor schema.ReceiptAnchor
	Anchor        schema.DailyAnchor
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// =============================================================================
	// Indexer checkpoint
	// =============================================================================

	// GetIndexerCheckpoint retrieves the last fully applied block of a chain, reporting whether one exists
	GetIndexerCheckpoint(ctx context.Context, chain domain.Chain) (uint64, bool, error)
	// SetIndexerCheckpoint advances the checkpoint of a chain, never lowering it
	SetIndexerCheckpoint(ctx context.Context, chain domain.Chain, blockNumber uint64) error

	// =============================================================================
	// Payments
	// =============================================================================

	// ApplyPaymentEvent records a payment, merges the entitlement and seller balance and
	// creates a pending receipt, all in one transaction. A known payment is a no-op.
	ApplyPaymentEvent(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentResult, error)
	// GetEntitlement retrieves the entitlement of a buyer for a SKU
	GetEntitlement(ctx context.Context, buyer string, skuID string) (*schema.Entitlement, error)
	// GetSellerBalance retrieves the balance of a seller
	GetSellerBalance(ctx context.Context, seller string) (*schema.Balance, error)

	// =============================================================================
	// Receipts and attestation
	// =============================================================================

	// GetReceipt retrieves a receipt by id
	GetReceipt(ctx context.Context, receiptID string) (*schema.Receipt, error)
	// ListReceiptsByBuyer lists the receipts of a buyer, newest first, with the total count
	ListReceiptsByBuyer(ctx context.Context, buyer string, limit int, offset int) ([]schema.Receipt, uint64, error)
	// GetReceiptsForAttestation retrieves receipts due for an attestation attempt, oldest first
	GetReceiptsForAttestation(ctx context.Context, now time.Time, limit int) ([]schema.Receipt, error)
	// MarkReceiptAttesting moves a pending receipt to attesting
	MarkReceiptAttesting(ctx context.Context, receiptID string, chainIDHex string) error
	// RecordAttestationTx stores the hash of a broadcast attest transaction
	RecordAttestationTx(ctx context.Context, receiptID string, txHash string) error
	// MarkReceiptOnchain moves an attesting receipt to onchain
	MarkReceiptOnchain(ctx context.Context, input MarkOnchainInput) error
	// RecordAttestationFailure moves a receipt back to pending with the classified failure
	RecordAttestationFailure(ctx context.Context, input AttestationFailureInput) error
	// RequeueAttestation clears the failure state of a non-terminal receipt so it is polled again
	RequeueAttestation(ctx context.Context, receiptID string) error
	// SkipAttestation moves a non-terminal receipt to skipped
	SkipAttestation(ctx context.Context, receiptID string, reason string) error
	// GetAttestationStats summarises the attestation queue since the given time
	GetAttestationStats(ctx context.Context, since time.Time) (*AttestationStats, error)

	// =============================================================================
	// Daily anchors
	// =============================================================================

	// CreateDailyAnchor anchors the receipts of one window in one transaction
	CreateDailyAnchor(ctx context.Context, input CreateDailyAnchorInput) (*CreateDailyAnchorResult, error)
	// GetDailyAnchorByDate retrieves the anchor of a calendar date
	GetDailyAnchorByDate(ctx context.Context, date time.Time) (*schema.DailyAnchor, error)
	// GetLatestDailyAnchor retrieves the most recently created anchor
	GetLatestDailyAnchor(ctx context.Context) (*schema.DailyAnchor, error)
	// ListDailyAnchors lists anchors by date, newest first, with the total count
	ListDailyAnchors(ctx context.Context, limit int, offset int) ([]schema.DailyAnchor, uint64, error)
	// GetReceiptProof retrieves the receipt, proof and anchor of an anchored receipt
	GetReceiptProof(ctx context.Context, receiptID string) (*ReceiptProof, error)
}
