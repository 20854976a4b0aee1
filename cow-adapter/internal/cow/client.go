package cow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/metrics"
	"github.com/Checker-Finance/cow-adapters/internal/httpclient"
	"github.com/Checker-Finance/cow-adapters/internal/rate"
)

// EndpointResolver returns the order-book API base URL for a chain.
type EndpointResolver interface {
	OrderbookURL(ctx context.Context, chainID uint64) (string, error)
}

// Client talks to the CoW Protocol order-book REST API. Every call is a
// single attempt, rate limited per chain.
type Client struct {
	logger    *zap.Logger
	exec      *httpclient.Executor
	endpoints EndpointResolver
	limits    *rate.Manager[uint64]
}

// NewClient constructs an order-book client.
func NewClient(logger *zap.Logger, endpoints EndpointResolver, limits *rate.Manager[uint64], timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	exec := httpclient.New(logger, httpClient, 0, "cow", func(status int, body []byte) error {
		apiErr := &APIError{Status: status}
		_ = json.Unmarshal(body, apiErr)
		if apiErr.ErrorType == "" && apiErr.Description == "" {
			apiErr.Description = strings.TrimSpace(string(body))
		}

		logger.Warn("cow.client_error",
			zap.Int("status", status),
			zap.String("error_type", apiErr.ErrorType),
			zap.String("description", apiErr.Description))
		return apiErr
	}).WithObserver(metrics.ObserveOrderbookRequest)

	return &Client{
		logger:    logger,
		exec:      exec,
		endpoints: endpoints,
		limits:    limits,
	}
}

func (c *Client) baseURL(ctx context.Context, chainID uint64) (string, error) {
	base, err := c.endpoints.OrderbookURL(ctx, chainID)
	if err != nil {
		return "", fmt.Errorf("orderbook endpoint for chain %d: %w", chainID, err)
	}
	return strings.TrimRight(base, "/"), nil
}

func (c *Client) do(ctx context.Context, chainID uint64, method, endpoint, path string, body, out any) error {
	base, err := c.baseURL(ctx, chainID)
	if err != nil {
		return err
	}
	return c.exec.DoJSON(ctx, c.limits.GetLimiter(chainID), httpclient.Request{
		Method:   method,
		URL:      base + path,
		Endpoint: endpoint,
		Body:     body,
	}, out)
}

// GetQuote requests a price for req.
// POST /api/v1/quote
func (c *Client) GetQuote(ctx context.Context, chainID uint64, req QuoteRequest) (*QuoteResponse, error) {
	var resp QuoteResponse
	if err := c.do(ctx, chainID, http.MethodPost, "quote", "/api/v1/quote", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PostAppData stores doc under hash and returns the hash the order book recorded.
// PUT /api/v1/app_data/{hash}
func (c *Client) PostAppData(ctx context.Context, chainID uint64, hash common.Hash, doc string) (common.Hash, error) {
	body := struct {
		FullAppData string `json:"fullAppData"`
	}{FullAppData: doc}

	var got string
	if err := c.do(ctx, chainID, http.MethodPut, "app_data", "/api/v1/app_data/"+hash.Hex(), body, &got); err != nil {
		return common.Hash{}, err
	}

	raw, err := hexutil.Decode(got)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("unexpected appData hash %q", got)
	}
	return common.BytesToHash(raw), nil
}

// SendOrder submits order and returns its uid.
// POST /api/v1/orders
func (c *Client) SendOrder(ctx context.Context, chainID uint64, order OrderCreation) (OrderUID, error) {
	var uid string
	if err := c.do(ctx, chainID, http.MethodPost, "orders", "/api/v1/orders", order, &uid); err != nil {
		return "", err
	}
	return ParseOrderUID(uid)
}

// OrderLink is the API URL of a posted order.
func (c *Client) OrderLink(ctx context.Context, chainID uint64, uid OrderUID) (string, error) {
	base, err := c.baseURL(ctx, chainID)
	if err != nil {
		return "", err
	}
	return base + "/api/v1/orders/" + uid.String(), nil
}
