package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/cow-adapters/pkg/model"
)

const SubjectEndpointsRefreshed = "evt.cow.endpoints.refreshed.v1"

// ChainRefresher reloads per-chain configuration from its backing store.
type ChainRefresher interface {
	DiscoverChains(ctx context.Context) ([]uint64, error)
	Refresh(ctx context.Context, chainID uint64) error
}

// EventPublisher publishes a JSON payload to a subject.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// EndpointRefresher periodically reloads chain endpoints so rotated secrets
// take effect before their cache entries expire, and emits a NATS event per cycle.
type EndpointRefresher struct {
	logger    *zap.Logger
	refresher ChainRefresher
	publisher EventPublisher // optional
	fallback  []uint64
	interval  time.Duration
	onResult  func(chainID uint64, result string)
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewEndpointRefresher constructs a background job. fallback is refreshed
// when chain discovery fails.
func NewEndpointRefresher(logger *zap.Logger, refresher ChainRefresher, pub EventPublisher, fallback []uint64, interval time.Duration) *EndpointRefresher {
	return &EndpointRefresher{
		logger:    logger,
		refresher: refresher,
		publisher: pub,
		fallback:  fallback,
		interval:  interval,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// OnResult registers a hook called per chain with result "ok" or "error".
func (r *EndpointRefresher) OnResult(fn func(chainID uint64, result string)) {
	r.onResult = fn
}

// Start runs the refresh loop until Stop is called or ctx is done.
func (r *EndpointRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("endpoint_refresher.started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-r.stopCh:
			r.logger.Info("endpoint_refresher.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("endpoint_refresher.stopped (context canceled)")
			return
		}
	}
}

// Stop halts the refresher. It is safe to call more than once.
func (r *EndpointRefresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RunOnce executes one refresh cycle and returns the event it published.
func (r *EndpointRefresher) RunOnce(ctx context.Context) model.EndpointsRefreshedEvent {
	start := r.now()

	chains, err := r.refresher.DiscoverChains(ctx)
	if err != nil {
		r.logger.Warn("endpoint_refresher.discover_failed",
			zap.Error(err),
			zap.Uint64s("fallback", r.fallback))
		chains = r.fallback
	}

	event := model.EndpointsRefreshedEvent{Chains: []uint64{}}
	for _, id := range chains {
		if err := r.refresher.Refresh(ctx, id); err != nil {
			r.logger.Warn("endpoint_refresher.refresh_failed",
				zap.Uint64("chain_id", id),
				zap.Error(err))
			event.Failed = append(event.Failed, id)
			r.report(id, "error")
			continue
		}
		event.Chains = append(event.Chains, id)
		r.report(id, "ok")
	}

	event.DurationMS = r.now().Sub(start).Milliseconds()
	event.Timestamp = r.now().UTC()

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, SubjectEndpointsRefreshed, event); err != nil {
			r.logger.Warn("endpoint_refresher.nats_publish_failed", zap.Error(err))
		}
	}

	r.logger.Info("endpoint_refresher.success",
		zap.Int("refreshed", len(event.Chains)),
		zap.Int("failed", len(event.Failed)),
		zap.Int64("duration_ms", event.DurationMS))
	return event
}

func (r *EndpointRefresher) report(chainID uint64, result string) {
	if r.onResult != nil {
		r.onResult(chainID, result)
	}
}
