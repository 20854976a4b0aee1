package secrets

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/chain"
	intsecrets "github.com/Checker-Finance/cow-adapters/internal/secrets"
	pkgsecrets "github.com/Checker-Finance/cow-adapters/pkg/secrets"
)

// ChainEndpoints are the per-chain endpoints stored in the secrets backend.
type ChainEndpoints struct {
	RPCURL       string
	OrderbookURL string
}

// EndpointResolver resolves per-chain endpoints from the secrets provider.
// It is a thin wrapper over the generic intsecrets.ChainResolver[ChainEndpoints].
//
// Secret naming convention: {env}/{chainID}/cow
// Secret JSON format:       {"rpc_url": "https://...", "orderbook_url": "https://api.cow.fi/mainnet"}
//
// orderbook_url is optional; chains without it use the public order book.
type EndpointResolver struct {
	logger *zap.Logger
	inner  *intsecrets.ChainResolver[ChainEndpoints]
}

// NewEndpointResolver constructs a CoW-specific endpoint resolver.
func NewEndpointResolver(
	logger *zap.Logger,
	env string,
	provider pkgsecrets.Provider,
	cache *pkgsecrets.Cache[ChainEndpoints],
) *EndpointResolver {
	return &EndpointResolver{
		logger: logger,
		inner:  intsecrets.NewChainResolver(logger, env, "cow", provider, cache),
	}
}

// Resolve returns the cached or freshly loaded endpoints for chainID.
func (r *EndpointResolver) Resolve(ctx context.Context, chainID uint64) (ChainEndpoints, error) {
	return r.inner.Resolve(ctx, chainID, parseChainEndpoints)
}

// Refresh reloads chainID's endpoints, bypassing the cache.
func (r *EndpointResolver) Refresh(ctx context.Context, chainID uint64) error {
	_, err := r.inner.Refresh(ctx, chainID, parseChainEndpoints)
	return err
}

// DiscoverChains lists chains that have endpoint secrets.
func (r *EndpointResolver) DiscoverChains(ctx context.Context) ([]uint64, error) {
	return r.inner.DiscoverChains(ctx)
}

// RPCURL returns the JSON-RPC endpoint for chainID. There is no public default.
func (r *EndpointResolver) RPCURL(ctx context.Context, chainID uint64) (string, error) {
	ep, err := r.Resolve(ctx, chainID)
	if err != nil {
		return "", err
	}
	if ep.RPCURL == "" {
		return "", fmt.Errorf("no rpc_url configured for chain %d", chainID)
	}
	return ep.RPCURL, nil
}

// OrderbookURL returns the configured order-book base URL for chainID, or the
// public one for supported chains.
func (r *EndpointResolver) OrderbookURL(ctx context.Context, chainID uint64) (string, error) {
	ep, err := r.Resolve(ctx, chainID)
	if err == nil && ep.OrderbookURL != "" {
		return ep.OrderbookURL, nil
	}

	c, ok := chain.Lookup(chainID)
	if !ok {
		return "", fmt.Errorf("no orderbook for chain %d", chainID)
	}
	if err != nil {
		r.logger.Debug("cow.orderbook_default",
			zap.Uint64("chain_id", chainID),
			zap.Error(err))
	}
	return c.OrderbookURL, nil
}

// parseChainEndpoints extracts ChainEndpoints from the raw secret map.
func parseChainEndpoints(m map[string]string) (ChainEndpoints, error) {
	ep := ChainEndpoints{
		RPCURL:       m["rpc_url"],
		OrderbookURL: m["orderbook_url"],
	}
	if ep.RPCURL == "" && ep.OrderbookURL == "" {
		return ChainEndpoints{}, fmt.Errorf("missing required field 'rpc_url' or 'orderbook_url'")
	}
	for field, raw := range map[string]string{"rpc_url": ep.RPCURL, "orderbook_url": ep.OrderbookURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return ChainEndpoints{}, fmt.Errorf("field '%s' is not an absolute http(s) or ws(s) URL", field)
		}
	}
	return ep, nil
}
