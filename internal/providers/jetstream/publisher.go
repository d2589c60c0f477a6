package jetstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	js "github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL              string
	StreamName       string
	SubjectPrefix    string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ConnectionName   string
	DuplicatesWindow time.Duration
	PublishTimeout   time.Duration
}

type publisher struct {
	nc             adapter.NatsConn
	js             adapter.JetStream
	subjectPrefix  string
	publishTimeout time.Duration
	json           adapter.JSON

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPublisher connects to NATS, ensures the pipeline stream exists and returns a publisher
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	p := &publisher{
		subjectPrefix:  cfg.SubjectPrefix,
		publishTimeout: cfg.PublishTimeout,
		json:           jsonAdapter,
		closed:         make(chan struct{}),
	}

	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(fmt.Errorf("disconnected from NATS: %w", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
			p.markClosed()
		}),
	}

	nc, jetStream, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	err = jetStream.EnsureStream(ctx, js.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{cfg.SubjectPrefix + ".>"},
		Storage:    js.FileStorage,
		Duplicates: cfg.DuplicatesWindow,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	p.nc = nc
	p.js = jetStream

	logger.Info("Connected to NATS JetStream",
		zap.String("url", nc.ConnectedUrl()),
		zap.String("stream", cfg.StreamName))

	return p, nil
}

// PublishEvent publishes a pipeline event to NATS JetStream.
// The dedup key is used as the message id so redeliveries within the duplicates window are dropped by the server.
func (p *publisher) PublishEvent(ctx context.Context, event *domain.PipelineEvent) error {
	logger.DebugCtx(ctx, "Publishing NATS event",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID))

	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}

	var opts []js.PublishOpt
	if event.DedupKey != "" {
		opts = append(opts, js.WithMsgID(event.DedupKey))
	}

	if _, err := p.js.Publish(ctx, p.buildSubject(event), data, opts...); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// buildSubject constructs the NATS subject of an event, e.g. receipts.payment.indexed
func (p *publisher) buildSubject(event *domain.PipelineEvent) string {
	return fmt.Sprintf("%s.%s", p.subjectPrefix, event.Type)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
	p.markClosed()
}

// CloseChan returns a channel closed once the connection is closed
func (p *publisher) CloseChan() <-chan struct{} {
	return p.closed
}

func (p *publisher) markClosed() {
	p.closeOnce.Do(func() { close(p.closed) })
}
