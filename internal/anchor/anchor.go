package anchor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/messaging"
	"github.com/basebytes/receipt-indexer/internal/store"
)

const (
	DEFAULT_TIMEZONE    = "Europe/Dublin"
	DEFAULT_PROOF_BATCH = 500

	// DATE_LAYOUT is the layout of anchor dates in flags, logs and events
	DATE_LAYOUT = "2006-01-02"
)

// Config holds the daily anchor configuration
type Config struct {
	// Location is the fixed zone whose calendar days are anchored
	Location       *time.Location
	ProofBatchSize int
}

// Engine commits the receipts of each calendar day to a Merkle root
//
//go:generate mockgen -source=anchor.go -destination=../mocks/anchor.go -package=mocks -mock_names=Engine=MockAnchorEngine
type Engine interface {
	// CreateDailyAnchor anchors the receipts created on the calendar day of date.
	// The outcome is created, exists or no_receipts.
	CreateDailyAnchor(ctx context.Context, date time.Time) (*store.CreateDailyAnchorResult, error)

	// Yesterday returns the calendar day before today in the anchor zone
	Yesterday() time.Time

	// ParseDate parses a YYYY-MM-DD date in the anchor zone
	ParseDate(value string) (time.Time, error)
}

type engine struct {
	config    Config
	store     store.Store
	publisher messaging.Publisher
	clock     adapter.Clock
}

// NewEngine creates a new daily anchor engine
func NewEngine(config Config, st store.Store, publisher messaging.Publisher, clock adapter.Clock) Engine {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.ProofBatchSize <= 0 {
		config.ProofBatchSize = DEFAULT_PROOF_BATCH
	}
	return &engine{
		config:    config,
		store:     st,
		publisher: publisher,
		clock:     clock,
	}
}

// Window returns the calendar date of day and the [start, end) bounds of that day in loc.
// The date is normalized to UTC midnight for the date column.
func Window(day time.Time, loc *time.Location) (date, start, end time.Time) {
	start = adapter.StartOfDay(day, loc)
	end = start.AddDate(0, 0, 1)
	date = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return date, start, end
}

func (e *engine) Yesterday() time.Time {
	return adapter.StartOfDay(e.clock.Now(), e.config.Location).AddDate(0, 0, -1)
}

func (e *engine) ParseDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation(DATE_LAYOUT, value, e.config.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid anchor date %q: %w", value, err)
	}
	return date, nil
}

// CreateDailyAnchor anchors one calendar day
func (e *engine) CreateDailyAnchor(ctx context.Context, day time.Time) (*store.CreateDailyAnchorResult, error) {
	date, start, end := Window(day, e.config.Location)
	fields := []zap.Field{
		zap.String("anchor_date", date.Format(DATE_LAYOUT)),
		zap.String("timezone", e.config.Location.String()),
	}

	result, err := e.store.CreateDailyAnchor(ctx, store.CreateDailyAnchorInput{
		AnchorDate:     date,
		Timezone:       e.config.Location.String(),
		WindowStart:    start,
		WindowEnd:      end,
		Build:          BuildPlan,
		ProofBatchSize: e.config.ProofBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create daily anchor for %s: %w", date.Format(DATE_LAYOUT), err)
	}

	switch result.Status {
	case domain.AnchorStatusCreated:
		logger.InfoCtx(ctx, "Daily anchor created", append(fields,
			zap.String("merkle_root", result.Anchor.MerkleRoot),
			zap.Int("receipt_count", result.Anchor.ReceiptCount))...)
		e.publishCreated(ctx, date, result)
	case domain.AnchorStatusExists:
		logger.InfoCtx(ctx, "Daily anchor already exists", fields...)
	case domain.AnchorStatusNoReceipts:
		logger.InfoCtx(ctx, "No receipts to anchor", fields...)
	}

	return result, nil
}

// publishCreated notifies subscribers of a committed anchor, failures are only logged
func (e *engine) publishCreated(ctx context.Context, date time.Time, result *store.CreateDailyAnchorResult) {
	anchorDate := date.Format(DATE_LAYOUT)
	event := domain.NewPipelineEvent(domain.EventTypeAnchorCreated, anchorDate, e.clock.Now(), map[string]any{
		"anchor_date":      anchorDate,
		"timezone":         result.Anchor.Timezone,
		"merkle_root":      result.Anchor.MerkleRoot,
		"receipt_count":    result.Anchor.ReceiptCount,
		"first_receipt_id": result.Anchor.FirstReceiptID,
		"last_receipt_id":  result.Anchor.LastReceiptID,
	})

	if err := e.publisher.PublishEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish anchor created event",
			zap.String("anchor_date", anchorDate),
			zap.Error(err))
	}
}
