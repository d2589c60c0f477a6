package proof

import (
	"time"
)

// AnchorView is the public projection of a daily anchor
type AnchorView struct {
	ID             int64     `json:"id"`
	Date           string    `json:"date"`
	Timezone       string    `json:"timezone"`
	MerkleRoot     string    `json:"merkle_root"`
	ReceiptCount   int       `json:"receipt_count"`
	FirstReceiptID string    `json:"first_receipt_id"`
	LastReceiptID  string    `json:"last_receipt_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// InclusionProof is the Merkle path of one receipt
type InclusionProof struct {
	LeafHash  string   `json:"leaf_hash"`
	LeafIndex int      `json:"leaf_index"`
	Siblings  []string `json:"siblings"`
	// Verified reports whether the recomputed receipt hash folds up to the anchored root
	Verified bool `json:"verified"`
}

// ProofView is the response of a proof lookup
type ProofView struct {
	ReceiptID string         `json:"receipt_id"`
	Anchor    AnchorView     `json:"anchor"`
	Proof     InclusionProof `json:"proof"`
	Receipt   ReceiptView    `json:"receipt"`
}

// AttestationView is the attestation state of a receipt
type AttestationView struct {
	Status     string     `json:"status"`
	UID        *string    `json:"uid,omitempty"`
	TxHash     *string    `json:"tx_hash,omitempty"`
	ChainID    *string    `json:"chain_id,omitempty"`
	Error      *string    `json:"error,omitempty"`
	ErrorKind  *string    `json:"error_kind,omitempty"`
	Attempts   int        `json:"attempts"`
	AttestedAt *time.Time `json:"attested_at,omitempty"`
}

// ReceiptView is the buyer facing projection of a receipt
type ReceiptView struct {
	ReceiptID  string `json:"receipt_id"`
	Chain      string `json:"chain"`
	Buyer      string `json:"buyer"`
	Seller     string `json:"seller"`
	SkuID      string `json:"sku_id"`
	AmountUSD6 string `json:"amount_usd6"`
	// AmountUSD is AmountUSD6 rendered with two decimals
	AmountUSD   string          `json:"amount_usd"`
	Units       int64           `json:"units"`
	TxHash      string          `json:"tx_hash"`
	LogIndex    int64           `json:"log_index"`
	CreatedAt   time.Time       `json:"created_at"`
	Attestation AttestationView `json:"attestation"`
}

// Page describes the window of a list response
type Page struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Total  uint64 `json:"total"`
}

// AnchorList is a page of anchors
type AnchorList struct {
	Anchors []AnchorView `json:"anchors"`
	Page    Page         `json:"page"`
}

// ReceiptList is a page of receipts of one buyer
type ReceiptList struct {
	Receipts []ReceiptView `json:"receipts"`
	Page     Page          `json:"page"`
}

// StatusView summarises pipeline health
type StatusView struct {
	Timestamp           time.Time `json:"timestamp"`
	PendingAttestations int64     `json:"pending_attestations"`
	PermanentFailures   int64     `json:"permanent_failures"`
	Receipts24h         int64     `json:"receipts_24h"`
	Attested24h         int64     `json:"attested_24h"`
	// ReceiptCoverage24h is the attested share of the receipts of the last 24 hours, nil without receipts
	ReceiptCoverage24h *float64   `json:"receipt_coverage_24h"`
	LastAnchorAt       *time.Time `json:"last_anchor_at"`
	LastAnchorDate     *string    `json:"last_anchor_date"`
}
