package messaging

import (
	"context"

	"github.com/basebytes/receipt-indexer/internal/domain"
)

// Publisher defines the interface for publishing pipeline notifications to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a pipeline event to the message broker
	PublishEvent(ctx context.Context, event *domain.PipelineEvent) error
	// Close closes the connection
	Close()
	// CloseChan returns a channel that is closed when the publisher is closed
	CloseChan() <-chan struct{}
}

type noopPublisher struct {
	closed chan struct{}
}

// NewNoopPublisher returns a publisher that drops every event, used when no broker is configured
func NewNoopPublisher() Publisher {
	return &noopPublisher{closed: make(chan struct{})}
}

func (p *noopPublisher) PublishEvent(ctx context.Context, event *domain.PipelineEvent) error {
	return nil
}

func (p *noopPublisher) Close() {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
}

func (p *noopPublisher) CloseChan() <-chan struct{} {
	return p.closed
}
