package messaging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/messaging"
)

func TestNoopPublisher(t *testing.T) {
	p := messaging.NewNoopPublisher()
	require.NoError(t, p.PublishEvent(context.Background(), &domain.PipelineEvent{}))

	p.Close()
	p.Close()

	select {
	case <-p.CloseChan():
	default:
		t.Fatal("close channel not closed")
	}
}
