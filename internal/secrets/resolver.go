package secrets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	pkgsecrets "github.com/Checker-Finance/cow-adapters/pkg/secrets"
)

// ChainResolver resolves per-chain configuration from a secrets Provider,
// caching results locally. It is generic over the resolved config type T.
//
// Secret naming convention: {env}/{chainID}/{venue}
type ChainResolver[T any] struct {
	logger   *zap.Logger
	env      string
	venue    string
	provider pkgsecrets.Provider
	cache    *pkgsecrets.Cache[T]
}

// NewChainResolver constructs a generic per-chain config resolver.
func NewChainResolver[T any](
	logger *zap.Logger,
	env string,
	venue string,
	provider pkgsecrets.Provider,
	cache *pkgsecrets.Cache[T],
) *ChainResolver[T] {
	return &ChainResolver[T]{
		logger:   logger,
		env:      strings.ToLower(env),
		venue:    strings.ToLower(venue),
		provider: provider,
		cache:    cache,
	}
}

func (r *ChainResolver[T]) cacheKey(chainID uint64) string {
	return fmt.Sprintf("%d|%s", chainID, r.venue)
}

// SecretName builds the provider key for a chain. Pattern: {env}/{chainID}/{venue}
func (r *ChainResolver[T]) SecretName(chainID uint64) string {
	return fmt.Sprintf("%s/%d/%s", r.env, chainID, r.venue)
}

// Resolve fetches or returns cached config T for chainID.
// parse extracts T from the raw secret map and validates required fields.
func (r *ChainResolver[T]) Resolve(ctx context.Context, chainID uint64, parse func(map[string]string) (T, error)) (T, error) {
	if cfg, ok := r.cache.Get(r.cacheKey(chainID)); ok {
		return cfg, nil
	}
	return r.load(ctx, chainID, parse)
}

// Refresh loads chainID's config from the provider, bypassing the cache.
// The cached value is replaced only on success; a failed refresh keeps
// serving the previous one.
func (r *ChainResolver[T]) Refresh(ctx context.Context, chainID uint64, parse func(map[string]string) (T, error)) (T, error) {
	cfg, err := r.load(ctx, chainID, parse)
	if err != nil {
		r.logger.Warn("secrets.refresh_failed",
			zap.Uint64("chain_id", chainID),
			zap.String("venue", r.venue),
			zap.Error(err))
	}
	return cfg, err
}

func (r *ChainResolver[T]) load(ctx context.Context, chainID uint64, parse func(map[string]string) (T, error)) (T, error) {
	var zero T
	name := r.SecretName(chainID)

	secretMap, err := r.provider.GetSecret(ctx, name)
	if err != nil {
		r.logger.Debug("secrets.fetch_failed",
			zap.String("key", name),
			zap.Error(err))
		return zero, fmt.Errorf("resolve chain config for %d: %w", chainID, err)
	}

	cfg, err := parse(secretMap)
	if err != nil {
		return zero, fmt.Errorf("parse secret %q: %w", name, err)
	}

	r.cache.Put(r.cacheKey(chainID), cfg)
	r.logger.Info("secrets.chain_config_resolved",
		zap.Uint64("chain_id", chainID),
		zap.String("venue", r.venue))
	return cfg, nil
}

// DiscoverChains lists the chain IDs that have a secret configured, i.e. names
// matching "{env}/<digits>/{venue}".
func (r *ChainResolver[T]) DiscoverChains(ctx context.Context) ([]uint64, error) {
	prefix := r.env + "/"
	suffix := "/" + r.venue

	names, err := r.provider.ListSecrets(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("discover chains: %w", err)
	}

	var chains []uint64
	for _, name := range names {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, prefix) || !strings.HasSuffix(lower, suffix) {
			continue
		}
		mid := strings.TrimSuffix(strings.TrimPrefix(lower, prefix), suffix)
		id, err := strconv.ParseUint(mid, 10, 64)
		if err != nil {
			continue
		}
		chains = append(chains, id)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })

	r.logger.Info("secrets.chains_discovered",
		zap.Int("count", len(chains)),
		zap.Uint64s("chains", chains))
	return chains, nil
}
