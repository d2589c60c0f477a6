package proof

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/merkle"
	"github.com/basebytes/receipt-indexer/internal/store"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
)

const (
	DEFAULT_LIMIT = 10
	MAX_LIMIT     = 100

	// STATUS_WINDOW is the look-back of the coverage figures of Status
	STATUS_WINDOW = 24 * time.Hour

	dateLayout = "2006-01-02"
)

// Service serves the read side of receipts, anchors and proofs
type Service interface {
	// GetProof returns the inclusion proof of a receipt, verified against its anchor.
	// domain.ErrProofNotFound is returned for a receipt not anchored yet.
	GetProof(ctx context.Context, receiptID string) (*ProofView, error)

	// ListAnchors lists anchors by date, newest first
	ListAnchors(ctx context.Context, limit int, offset int) (*AnchorList, error)

	// GetReceipt returns one receipt
	GetReceipt(ctx context.Context, receiptID string) (*ReceiptView, error)

	// ListReceipts lists the receipts of a buyer, newest first
	ListReceipts(ctx context.Context, buyer string, limit int, offset int) (*ReceiptList, error)

	// Status summarises attestation coverage and the last anchor
	Status(ctx context.Context) (*StatusView, error)
}

type service struct {
	store store.Store
	clock adapter.Clock
}

// NewService creates a new proof service
func NewService(st store.Store, clock adapter.Clock) Service {
	return &service{store: st, clock: clock}
}

// normalizePage applies the default and the cap of list limits
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DEFAULT_LIMIT
	}
	if limit > MAX_LIMIT {
		limit = MAX_LIMIT
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *service) GetProof(ctx context.Context, receiptID string) (*ProofView, error) {
	rp, err := s.store.GetReceiptProof(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if rp == nil {
		receipt, err := s.store.GetReceipt(ctx, receiptID)
		if err != nil {
			return nil, err
		}
		if receipt == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrReceiptNotFound, receiptID)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProofNotFound, receiptID)
	}

	var siblings []string
	if len(rp.ReceiptAnchor.MerkleProof) > 0 {
		if err := json.Unmarshal(rp.ReceiptAnchor.MerkleProof, &siblings); err != nil {
			return nil, fmt.Errorf("failed to decode merkle proof of %s: %w", receiptID, err)
		}
	}
	if siblings == nil {
		siblings = []string{}
	}

	// The leaf is recomputed from the receipt row so a tampered row fails verification
	leafHash := rp.ReceiptAnchor.LeafHash
	verified := false
	fields, err := rp.Receipt.HashFields()
	if err == nil {
		var leaf common.Hash
		leaf, err = merkle.ReceiptHash(fields)
		if err == nil {
			leafHash = leaf.Hex()
			verified = leafHash == rp.ReceiptAnchor.LeafHash &&
				merkle.Verify(leaf, hexToHashes(siblings), common.HexToHash(rp.Anchor.MerkleRoot), rp.ReceiptAnchor.LeafIndex)
		}
	}
	if err != nil {
		logger.WarnCtx(ctx, "Failed to recompute receipt hash",
			zap.String("receipt_id", receiptID),
			zap.Error(err))
	}
	if !verified {
		logger.WarnCtx(ctx, "Receipt proof does not verify",
			zap.String("receipt_id", receiptID),
			zap.String("merkle_root", rp.Anchor.MerkleRoot))
	}

	return &ProofView{
		ReceiptID: receiptID,
		Anchor:    anchorView(rp.Anchor),
		Proof: InclusionProof{
			LeafHash:  leafHash,
			LeafIndex: rp.ReceiptAnchor.LeafIndex,
			Siblings:  siblings,
			Verified:  verified,
		},
		Receipt: receiptView(rp.Receipt),
	}, nil
}

func (s *service) ListAnchors(ctx context.Context, limit int, offset int) (*AnchorList, error) {
	limit, offset = normalizePage(limit, offset)

	anchors, total, err := s.store.ListDailyAnchors(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]AnchorView, 0, len(anchors))
	for _, a := range anchors {
		views = append(views, anchorView(a))
	}

	return &AnchorList{
		Anchors: views,
		Page:    Page{Limit: limit, Offset: offset, Total: total},
	}, nil
}

func (s *service) GetReceipt(ctx context.Context, receiptID string) (*ReceiptView, error) {
	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrReceiptNotFound, receiptID)
	}

	view := receiptView(*receipt)
	return &view, nil
}

func (s *service) ListReceipts(ctx context.Context, buyer string, limit int, offset int) (*ReceiptList, error) {
	normalized, err := domain.NormalizeAddress(buyer)
	if err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)

	receipts, total, err := s.store.ListReceiptsByBuyer(ctx, normalized, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]ReceiptView, 0, len(receipts))
	for _, r := range receipts {
		views = append(views, receiptView(r))
	}

	return &ReceiptList{
		Receipts: views,
		Page:     Page{Limit: limit, Offset: offset, Total: total},
	}, nil
}

func (s *service) Status(ctx context.Context) (*StatusView, error) {
	now := s.clock.Now()

	stats, err := s.store.GetAttestationStats(ctx, now.Add(-STATUS_WINDOW))
	if err != nil {
		return nil, err
	}

	latest, err := s.store.GetLatestDailyAnchor(ctx)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		Timestamp:           now.UTC(),
		PendingAttestations: stats.Pending,
		PermanentFailures:   stats.PermanentFailures,
		Receipts24h:         stats.ReceiptsSince,
		Attested24h:         stats.AttestedSince,
	}
	if stats.ReceiptsSince > 0 {
		coverage := float64(stats.AttestedSince) / float64(stats.ReceiptsSince)
		view.ReceiptCoverage24h = &coverage
	}
	if latest != nil {
		createdAt := latest.CreatedAt.UTC()
		date := latest.AnchorDate.Format(dateLayout)
		view.LastAnchorAt = &createdAt
		view.LastAnchorDate = &date
	}

	return view, nil
}

func anchorView(a schema.DailyAnchor) AnchorView {
	return AnchorView{
		ID:             a.ID,
		Date:           a.AnchorDate.Format(dateLayout),
		Timezone:       a.Timezone,
		MerkleRoot:     a.MerkleRoot,
		ReceiptCount:   a.ReceiptCount,
		FirstReceiptID: a.FirstReceiptID,
		LastReceiptID:  a.LastReceiptID,
		CreatedAt:      a.CreatedAt.UTC(),
	}
}

func receiptView(r schema.Receipt) ReceiptView {
	var errorKind *string
	if r.AttestationErrorKind != nil {
		kind := string(*r.AttestationErrorKind)
		errorKind = &kind
	}

	return ReceiptView{
		ReceiptID:  r.ReceiptID,
		Chain:      r.Chain,
		Buyer:      r.Buyer,
		Seller:     r.Seller,
		SkuID:      r.SkuID,
		AmountUSD6: r.AmountUSD6,
		AmountUSD:  FormatUSD6(r.AmountUSD6),
		Units:      r.Units,
		TxHash:     r.TxHash,
		LogIndex:   r.LogIndex,
		CreatedAt:  r.CreatedAt.UTC(),
		Attestation: AttestationView{
			Status:     string(r.AttestationStatus),
			UID:        r.AttestationUID,
			TxHash:     r.AttestationTx,
			ChainID:    r.AttestationChainID,
			Error:      r.AttestationError,
			ErrorKind:  errorKind,
			Attempts:   r.AttestationAttempts,
			AttestedAt: r.AttestedAt,
		},
	}
}

// FormatUSD6 renders a 6-decimal fixed point amount with two decimals, e.g. 1500000 becomes 1.50.
// An unparsable amount is returned as is.
func FormatUSD6(amount string) string {
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return amount
	}
	return decimal.NewFromBigInt(value, -domain.USD6_DECIMALS).StringFixed(2)
}

func hexToHashes(values []string) []common.Hash {
	out := make([]common.Hash, 0, len(values))
	for _, v := range values {
		out = append(out, common.HexToHash(v))
	}
	return out
}
