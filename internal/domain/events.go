package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// PipelineEventType identifies a pipeline notification
type PipelineEventType string

const (
	// EventTypePaymentIndexed is emitted once per newly applied payment
	EventTypePaymentIndexed PipelineEventType = "payment.indexed"
	// EventTypeReceiptAttested is emitted when a receipt reaches onchain
	EventTypeReceiptAttested PipelineEventType = "receipt.attested"
	// EventTypeAnchorCreated is emitted when a daily anchor is committed
	EventTypeAnchorCreated PipelineEventType = "anchor.created"
)

// PipelineEvent is a notification published after a pipeline state change is durably committed.
// ID is a ULID so events sort by emission time.
// DedupKey identifies the underlying change and lets the broker drop redeliveries.
type PipelineEvent struct {
	ID         string            `json:"id"`
	Type       PipelineEventType `json:"type"`
	Chain      Chain             `json:"chain,omitempty"`
	DedupKey   string            `json:"dedup_key"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]any    `json:"data"`
}

// NewPipelineEvent creates an event whose ULID is derived from occurredAt
func NewPipelineEvent(eventType PipelineEventType, dedupKey string, occurredAt time.Time, data map[string]any) *PipelineEvent {
	return &PipelineEvent{
		ID:         ulid.MustNewDefault(occurredAt).String(),
		Type:       eventType,
		DedupKey:   dedupKey,
		OccurredAt: occurredAt.UTC(),
		Data:       data,
	}
}
