package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/chain"
)

var (
	// OrderbookRequestsTotal tracks outbound order-book API calls.
	OrderbookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cow_orderbook_requests_total",
			Help: "Total number of CoW order-book API requests (by endpoint, method, and status).",
		},
		[]string{"endpoint", "method", "status"},
	)

	// OrderbookRequestDuration measures the duration of order-book API calls.
	OrderbookRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cow_orderbook_request_duration_seconds",
			Help:    "Duration of CoW order-book API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint", "method"},
	)

	// FlowStagesTotal counts sell-order flows entering each stage.
	FlowStagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cow_flow_stages_total",
			Help: "Number of sell-order flows that entered each stage, by chain.",
		},
		[]string{"chain_id", "stage"},
	)

	// FlowFailuresTotal counts failed flows by error kind and whether the order was already posted.
	FlowFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cow_flow_failures_total",
			Help: "Number of failed sell-order flows by chain, error kind, and submission state.",
		},
		[]string{"chain_id", "kind", "submitted"},
	)

	// EndpointRefreshTotal counts per-chain endpoint refresh attempts.
	EndpointRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cow_endpoint_refresh_total",
			Help: "Number of chain endpoint refreshes by chain and result.",
		},
		[]string{"chain_id", "result"},
	)

	// NATSPublishErrors tracks NATS publish failures by subject.
	NATSPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_publish_errors_total",
			Help: "Number of NATS publish failures by subject.",
		},
		[]string{"subject"},
	)

	// NATSPublishDuration measures JetStream publish latency by subject.
	NATSPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_publish_duration_seconds",
			Help:    "Duration of NATS JetStream publishes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)
)

// chainLabel keeps label cardinality bounded: chain ids outside the registry
// come from callers and share one series.
func chainLabel(chainID uint64) string {
	if _, ok := chain.Lookup(chainID); !ok {
		return "unsupported"
	}
	return strconv.FormatUint(chainID, 10)
}

// ObserveOrderbookRequest records one order-book attempt. status 0 means no response.
func ObserveOrderbookRequest(endpoint, method string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	OrderbookRequestsTotal.WithLabelValues(endpoint, method, label).Inc()
	OrderbookRequestDuration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

// IncFlowStage increments the stage counter for chainID.
func IncFlowStage(chainID uint64, stage string) {
	FlowStagesTotal.WithLabelValues(chainLabel(chainID), stage).Inc()
}

// IncFlowFailure increments the failure counter.
func IncFlowFailure(chainID uint64, kind string, submitted bool) {
	FlowFailuresTotal.WithLabelValues(chainLabel(chainID), kind, strconv.FormatBool(submitted)).Inc()
}

// IncEndpointRefresh increments the refresh counter with result "ok" or "error".
func IncEndpointRefresh(chainID uint64, result string) {
	EndpointRefreshTotal.WithLabelValues(chainLabel(chainID), result).Inc()
}

// ObservePublish is a publisher hook: it records latency and counts errors.
func ObservePublish(subject, status string, elapsed time.Duration) {
	NATSPublishDuration.WithLabelValues(subject).Observe(elapsed.Seconds())
	if status != "ok" {
		NATSPublishErrors.WithLabelValues(subject).Inc()
	}
}
