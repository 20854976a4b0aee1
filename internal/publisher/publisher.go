package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultPublishTimeout bounds the wait for a JetStream ack.
const DefaultPublishTimeout = 5 * time.Second

// msgPublisher is the JetStream subset used for publishing.
type msgPublisher interface {
	PublishMsg(ctx context.Context, m *nats.Msg) (*nats.PubAck, error)
}

type jetStream struct {
	js nats.JetStreamContext
}

func (j jetStream) PublishMsg(ctx context.Context, m *nats.Msg) (*nats.PubAck, error) {
	return j.js.PublishMsg(m, nats.Context(ctx))
}

// Publisher wraps a NATS JetStream context and publishes JSON events.
type Publisher struct {
	nc        *nats.Conn
	js        msgPublisher
	service   string
	timeout   time.Duration
	logger    *zap.Logger
	onPublish func(subject, status string, elapsed time.Duration)
}

// New creates a Publisher on nc's JetStream context.
func New(nc *nats.Conn, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	return &Publisher{
		nc:      nc,
		js:      jetStream{js: js},
		service: service,
		timeout: DefaultPublishTimeout,
		logger:  logger,
	}, nil
}

// OnPublish registers a hook called after every publish attempt with status "ok" or "error".
func (p *Publisher) OnPublish(fn func(subject, status string, elapsed time.Duration)) {
	p.onPublish = fn
}

func (p *Publisher) report(subject, status string, elapsed time.Duration) {
	if p.onPublish != nil {
		p.onPublish(subject, status, elapsed)
	}
}

// Publish marshals payload and publishes it to subject. Each message carries
// a fresh event id for consumer-side de-duplication. The ack wait is bounded
// by the publish timeout even when ctx has no deadline.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", subject),
			zap.Error(err))
		p.report(subject, "error", 0)
		return fmt.Errorf("marshal %s: %w", subject, err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"source":       []string{p.service},
			"content_type": []string{"application/json"},
		},
	}
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())

	timeout := p.timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	_, err = p.js.PublishMsg(pctx, msg)
	elapsed := time.Since(start)
	if err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.Error(err))
		p.report(subject, "error", elapsed)
		return err
	}

	p.logger.Debug("publisher.publish_success", zap.String("subject", subject))
	p.report(subject, "ok", elapsed)
	return nil
}

// Close drains the underlying connection so in-flight publishes complete,
// closing it outright if the drain cannot start.
func (p *Publisher) Close() {
	if p.nc == nil || p.nc.IsClosed() {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("publisher.drain_failed", zap.Error(err))
		p.nc.Close()
	}
}
