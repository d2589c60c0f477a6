package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
)

// pgUniqueViolation is the SQLSTATE of a unique constraint violation
const pgUniqueViolation = "23505"

// errAnchorExists aborts the anchor transaction when another run already committed the date
var errAnchorExists = errors.New("daily anchor already exists")

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns <= 0 {
		maxOpenConns = 20
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays below
// PostgreSQL's limit of 65535 parameters per statement.
//
// For example a ReceiptAnchor row binds 5 fields, giving (65,535 - 1,000) / 5 = 12,907 rows per batch.
// The headroom covers GORM-added timestamp fields and ON CONFLICT parameters.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// isUniqueViolation reports whether err is a duplicate key error
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// calendarDate truncates t to its calendar date at UTC midnight
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// Payments
// =============================================================================

// ApplyPaymentEvent applies a payment event in a single transaction.
// The payment insert decides the outcome: when (tx_hash, log_index) already exists nothing else is written.
func (s *pgStore) ApplyPaymentEvent(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentResult, error) {
	e := input.Event
	if e.AmountUSD6 == nil || e.AmountUSD6.Sign() < 0 {
		return nil, fmt.Errorf("%w: payment %s:%d", domain.ErrInvalidAmount, e.TxHash, e.LogIndex)
	}
	if input.ReceiptID == "" {
		return nil, fmt.Errorf("receipt id is required")
	}

	observedAt := input.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}
	amount := e.AmountUSD6.String()
	units := int64(e.Units)

	result := &ApplyPaymentResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment := schema.Payment{
			Chain:          string(e.Chain),
			TxHash:         e.TxHash,
			LogIndex:       int64(e.LogIndex),
			BlockNumber:    int64(e.BlockNumber), //nolint:gosec,G115
			BlockTimestamp: e.BlockTimestamp,
			Buyer:          e.Buyer,
			Seller:         e.Seller,
			SkuID:          e.SkuID,
			AmountUSD6:     amount,
			Units:          units,
			Rights:         int16(e.Rights),
			IndexedAt:      observedAt,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
			DoNothing: true,
		}).Create(&payment)
		if res.Error != nil {
			return fmt.Errorf("failed to insert payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Already indexed
			return nil
		}

		entitlement := schema.Entitlement{
			Buyer:            e.Buyer,
			SkuID:            e.SkuID,
			UnitsRemaining:   units,
			UnitsPurchased:   units,
			FirstPurchasedAt: e.BlockTimestamp,
			LastPurchasedAt:  e.BlockTimestamp,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "buyer"}, {Name: "sku_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"units_remaining":    gorm.Expr("entitlements.units_remaining + EXCLUDED.units_remaining"),
				"units_purchased":    gorm.Expr("entitlements.units_purchased + EXCLUDED.units_purchased"),
				"first_purchased_at": gorm.Expr("LEAST(entitlements.first_purchased_at, EXCLUDED.first_purchased_at)"),
				"last_purchased_at":  gorm.Expr("GREATEST(entitlements.last_purchased_at, EXCLUDED.last_purchased_at)"),
				"updated_at":         gorm.Expr("now()"),
			}),
		}).Create(&entitlement).Error; err != nil {
			return fmt.Errorf("failed to merge entitlement: %w", err)
		}

		balance := schema.Balance{
			Seller:          e.Seller,
			TotalEarnedUSD6: amount,
			TotalUnitsSold:  units,
			LastSaleAt:      e.BlockTimestamp,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "seller"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_earned_usd6": gorm.Expr("balances.total_earned_usd6 + EXCLUDED.total_earned_usd6"),
				"total_units_sold":  gorm.Expr("balances.total_units_sold + EXCLUDED.total_units_sold"),
				"last_sale_at":      gorm.Expr("GREATEST(balances.last_sale_at, EXCLUDED.last_sale_at)"),
				"updated_at":        gorm.Expr("now()"),
			}),
		}).Create(&balance).Error; err != nil {
			return fmt.Errorf("failed to merge seller balance: %w", err)
		}

		receipt := schema.Receipt{
			ReceiptID:         input.ReceiptID,
			PaymentID:         payment.ID,
			Chain:             string(e.Chain),
			Buyer:             e.Buyer,
			Seller:            e.Seller,
			SkuID:             e.SkuID,
			AmountUSD6:        amount,
			Units:             units,
			TxHash:            e.TxHash,
			LogIndex:          int64(e.LogIndex),
			AttestationStatus: domain.AttestationStatusPending,
			CreatedAt:         observedAt,
			UpdatedAt:         observedAt,
		}
		if err := tx.Omit(clause.Associations).Create(&receipt).Error; err != nil {
			return fmt.Errorf("failed to create receipt: %w", err)
		}

		result.Applied = true
		result.ReceiptID = receipt.ReceiptID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetEntitlement retrieves the entitlement of a buyer for a SKU
func (s *pgStore) GetEntitlement(ctx context.Context, buyer string, skuID string) (*schema.Entitlement, error) {
	var entitlement schema.Entitlement
	err := s.db.WithContext(ctx).Where("buyer = ? AND sku_id = ?", buyer, skuID).First(&entitlement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}
	return &entitlement, nil
}

// GetSellerBalance retrieves the balance of a seller
func (s *pgStore) GetSellerBalance(ctx context.Context, seller string) (*schema.Balance, error) {
	var balance schema.Balance
	err := s.db.WithContext(ctx).Where("seller = ?", seller).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get seller balance: %w", err)
	}
	return &balance, nil
}

// =============================================================================
// Receipts and attestation
// =============================================================================

// GetReceipt retrieves a receipt by id
func (s *pgStore) GetReceipt(ctx context.Context, receiptID string) (*schema.Receipt, error) {
	var receipt schema.Receipt
	err := s.db.WithContext(ctx).Where("receipt_id = ?", receiptID).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

// ListReceiptsByBuyer lists the receipts of a buyer, newest first
func (s *pgStore) ListReceiptsByBuyer(ctx context.Context, buyer string, limit int, offset int) ([]schema.Receipt, uint64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&schema.Receipt{}).Where("buyer = ?", buyer).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count receipts: %w", err)
	}

	var receipts []schema.Receipt
	err := s.db.WithContext(ctx).
		Where("buyer = ?", buyer).
		Order("created_at DESC, receipt_id DESC").
		Limit(limit).
		Offset(offset).
		Find(&receipts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list receipts: %w", err)
	}

	return receipts, uint64(total), nil //nolint:gosec,G115
}

// GetReceiptsForAttestation retrieves non-terminal receipts that are not waiting for an operator
// and whose backoff has elapsed, oldest first
func (s *pgStore) GetReceiptsForAttestation(ctx context.Context, now time.Time, limit int) ([]schema.Receipt, error) {
	var receipts []schema.Receipt
	err := s.db.WithContext(ctx).
		Where("attestation_status IN ?", []domain.AttestationStatus{
			domain.AttestationStatusPending,
			domain.AttestationStatusAttesting,
		}).
		Where("attestation_error_kind IS NULL OR attestation_error_kind <> ?", domain.ErrorKindPermanent).
		Where("attestation_next_attempt_at IS NULL OR attestation_next_attempt_at <= ?", now).
		Order("created_at ASC, receipt_id ASC").
		Limit(limit).
		Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get receipts for attestation: %w", err)
	}

	return receipts, nil
}

// MarkReceiptAttesting moves a receipt to attesting.
// A receipt already attesting is claimed again, which is how an interrupted attempt resumes.
func (s *pgStore) MarkReceiptAttesting(ctx context.Context, receiptID string, chainIDHex string) error {
	return s.transitionReceipt(ctx, receiptID,
		[]domain.AttestationStatus{domain.AttestationStatusPending, domain.AttestationStatusAttesting},
		map[string]interface{}{
			"attestation_status":   domain.AttestationStatusAttesting,
			"attestation_chain_id": chainIDHex,
		})
}

// RecordAttestationTx stores the hash of a broadcast attest transaction
func (s *pgStore) RecordAttestationTx(ctx context.Context, receiptID string, txHash string) error {
	return s.transitionReceipt(ctx, receiptID,
		[]domain.AttestationStatus{domain.AttestationStatusAttesting},
		map[string]interface{}{
			"attestation_tx": txHash,
		})
}

// MarkReceiptOnchain moves an attesting receipt to onchain and clears its failure state
func (s *pgStore) MarkReceiptOnchain(ctx context.Context, input MarkOnchainInput) error {
	if input.UID == "" {
		return fmt.Errorf("attestation uid is required")
	}

	return s.transitionReceipt(ctx, input.ReceiptID,
		[]domain.AttestationStatus{domain.AttestationStatusAttesting},
		map[string]interface{}{
			"attestation_status":          domain.AttestationStatusOnchain,
			"attestation_uid":             input.UID,
			"attestation_tx":              input.TxHash,
			"attestation_chain_id":        input.ChainIDHex,
			"attested_at":                 input.AttestedAt,
			"attestation_error":           nil,
			"attestation_error_kind":      nil,
			"attestation_next_attempt_at": nil,
		})
}

// RecordAttestationFailure moves a receipt back to pending with the classified failure.
// The attestation tx is kept so the next attempt can look it up before resubmitting.
func (s *pgStore) RecordAttestationFailure(ctx context.Context, input AttestationFailureInput) error {
	return s.transitionReceipt(ctx, input.ReceiptID,
		[]domain.AttestationStatus{domain.AttestationStatusPending, domain.AttestationStatusAttesting},
		map[string]interface{}{
			"attestation_status":          domain.AttestationStatusPending,
			"attestation_error":           input.Error,
			"attestation_error_kind":      input.Kind,
			"attestation_attempts":        gorm.Expr("attestation_attempts + 1"),
			"attestation_next_attempt_at": input.NextAttemptAt,
		})
}

// RequeueAttestation clears the failure state of a non-terminal receipt
func (s *pgStore) RequeueAttestation(ctx context.Context, receiptID string) error {
	return s.transitionReceipt(ctx, receiptID,
		[]domain.AttestationStatus{domain.AttestationStatusPending, domain.AttestationStatusAttesting},
		map[string]interface{}{
			"attestation_status":          domain.AttestationStatusPending,
			"attestation_tx":              nil,
			"attestation_error":           nil,
			"attestation_error_kind":      nil,
			"attestation_attempts":        0,
			"attestation_next_attempt_at": nil,
		})
}

// SkipAttestation moves a non-terminal receipt to skipped, keeping the reason as its error
func (s *pgStore) SkipAttestation(ctx context.Context, receiptID string, reason string) error {
	return s.transitionReceipt(ctx, receiptID,
		[]domain.AttestationStatus{domain.AttestationStatusPending, domain.AttestationStatusAttesting},
		map[string]interface{}{
			"attestation_status":          domain.AttestationStatusSkipped,
			"attestation_error":           reason,
			"attestation_next_attempt_at": nil,
		})
}

// transitionReceipt applies updates to a receipt whose current status is one of from
func (s *pgStore) transitionReceipt(ctx context.Context, receiptID string, from []domain.AttestationStatus, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&schema.Receipt{}).
		Where("receipt_id = ? AND attestation_status IN ?", receiptID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update receipt %s: %w", receiptID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&schema.Receipt{}).Where("receipt_id = ?", receiptID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check receipt %s: %w", receiptID, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", domain.ErrReceiptNotFound, receiptID)
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, receiptID)
}

// GetAttestationStats summarises the attestation queue since the given time
func (s *pgStore) GetAttestationStats(ctx context.Context, since time.Time) (*AttestationStats, error) {
	var stats AttestationStats
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) FILTER (WHERE attestation_status IN ('pending', 'attesting')) AS pending,
			COUNT(*) FILTER (WHERE attestation_status IN ('pending', 'attesting') AND attestation_error_kind = 'permanent') AS permanent_failures,
			COUNT(*) FILTER (WHERE created_at >= @since) AS receipts_since,
			COUNT(*) FILTER (WHERE created_at >= @since AND attestation_status = 'onchain') AS attested_since
		FROM receipts`,
		map[string]interface{}{"since": since},
	).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attestation stats: %w", err)
	}

	return &stats, nil
}

// =============================================================================
// Daily anchors
// =============================================================================

// CreateDailyAnchor anchors the receipts of one window in a single transaction.
// The unique anchor_date decides concurrent runs: the loser observes "exists"
// either at the pre-check, at the guarded insert or at commit.
func (s *pgStore) CreateDailyAnchor(ctx context.Context, input CreateDailyAnchorInput) (*CreateDailyAnchorResult, error) {
	if input.Build == nil {
		return nil, fmt.Errorf("anchor builder is required")
	}
	if !input.WindowStart.Before(input.WindowEnd) {
		return nil, fmt.Errorf("invalid anchor window [%s, %s)", input.WindowStart, input.WindowEnd)
	}

	date := calendarDate(input.AnchorDate)
	result := &CreateDailyAnchorResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing schema.DailyAnchor
		if err := tx.Where("anchor_date = ?", date).Limit(1).Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to check daily anchor: %w", err)
		}
		if existing.ID != 0 {
			return errAnchorExists
		}

		var receipts []schema.Receipt
		err := tx.
			Where("created_at >= ? AND created_at < ?", input.WindowStart, input.WindowEnd).
			Order("created_at ASC, receipt_id ASC").
			Find(&receipts).Error
		if err != nil {
			return fmt.Errorf("failed to get receipts for anchor: %w", err)
		}
		if len(receipts) == 0 {
			result.Status = domain.AnchorStatusNoReceipts
			return nil
		}

		plan, err := input.Build(receipts)
		if err != nil {
			return fmt.Errorf("failed to build anchor: %w", err)
		}
		if len(plan.Proofs) != len(receipts) {
			return fmt.Errorf("anchor plan holds %d proofs for %d receipts", len(plan.Proofs), len(receipts))
		}

		anchor := schema.DailyAnchor{
			AnchorDate:     date,
			Timezone:       input.Timezone,
			MerkleRoot:     plan.MerkleRoot,
			ReceiptCount:   len(receipts),
			FirstReceiptID: receipts[0].ReceiptID,
			LastReceiptID:  receipts[len(receipts)-1].ReceiptID,
			WindowStart:    input.WindowStart,
			WindowEnd:      input.WindowEnd,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "anchor_date"}},
			DoNothing: true,
		}).Create(&anchor)
		if res.Error != nil {
			return fmt.Errorf("failed to insert daily anchor: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errAnchorExists
		}

		rows := make([]schema.ReceiptAnchor, 0, len(plan.Proofs))
		for _, p := range plan.Proofs {
			proofJSON, err := json.Marshal(p.Proof)
			if err != nil {
				return fmt.Errorf("failed to marshal proof of %s: %w", p.ReceiptID, err)
			}
			rows = append(rows, schema.ReceiptAnchor{
				ReceiptID:   p.ReceiptID,
				AnchorID:    anchor.ID,
				LeafIndex:   p.LeafIndex,
				LeafHash:    p.LeafHash,
				MerkleProof: proofJSON,
			})
		}

		batchSize := calculateSafeBatchSize(len(rows), 5)
		if input.ProofBatchSize > 0 && input.ProofBatchSize < batchSize {
			batchSize = input.ProofBatchSize
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(&rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert receipt proofs: %w", err)
		}

		result.Status = domain.AnchorStatusCreated
		result.Anchor = &anchor
		return nil
	})

	if err != nil {
		if errors.Is(err, errAnchorExists) || isUniqueViolation(err) {
			logger.InfoCtx(ctx, "Daily anchor already exists", zap.Time("anchor_date", date))
			existing, getErr := s.GetDailyAnchorByDate(ctx, date)
			if getErr != nil {
				return nil, getErr
			}
			return &CreateDailyAnchorResult{Status: domain.AnchorStatusExists, Anchor: existing}, nil
		}
		return nil, err
	}

	return result, nil
}

// GetDailyAnchorByDate retrieves the anchor of a calendar date
func (s *pgStore) GetDailyAnchorByDate(ctx context.Context, date time.Time) (*schema.DailyAnchor, error) {
	var anchor schema.DailyAnchor
	err := s.db.WithContext(ctx).Where("anchor_date = ?", calendarDate(date)).First(&anchor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily anchor: %w", err)
	}
	return &anchor, nil
}

// GetLatestDailyAnchor retrieves the most recently created anchor
func (s *pgStore) GetLatestDailyAnchor(ctx context.Context) (*schema.DailyAnchor, error) {
	var anchor schema.DailyAnchor
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").First(&anchor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest daily anchor: %w", err)
	}
	return &anchor, nil
}

// ListDailyAnchors lists anchors by date, newest first
func (s *pgStore) ListDailyAnchors(ctx context.Context, limit int, offset int) ([]schema.DailyAnchor, uint64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&schema.DailyAnchor{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count daily anchors: %w", err)
	}

	var anchors []schema.DailyAnchor
	err := s.db.WithContext(ctx).
		Order("anchor_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&anchors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list daily anchors: %w", err)
	}

	return anchors, uint64(total), nil //nolint:gosec,G115
}

// GetReceiptProof retrieves an anchored receipt with its proof and anchor.
// It returns nil when the receipt is unknown or not anchored yet.
func (s *pgStore) GetReceiptProof(ctx context.Context, receiptID string) (*ReceiptProof, error) {
	var ra schema.ReceiptAnchor
	err := s.db.WithContext(ctx).
		Preload("Anchor").
		Preload("Receipt").
		Where("receipt_id = ?", receiptID).
		First(&ra).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt proof: %w", err)
	}

	return &ReceiptProof{
		Receipt:       ra.Receipt,
		ReceiptAnchor: ra,
		Anchor:        ra.Anchor,
	}, nil
}
