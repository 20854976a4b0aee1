package secrets

import "context"

// Provider is the secrets backend consulted for per-chain endpoint configuration.
// Secrets are flat JSON objects, e.g. {"rpc_url": "...", "orderbook_url": "..."}.
type Provider interface {
	// GetSecret retrieves a secret by name and returns its key-value map.
	GetSecret(ctx context.Context, key string) (map[string]string, error)

	// ListSecrets returns the names of all secrets whose name starts with prefix.
	ListSecrets(ctx context.Context, prefix string) ([]string, error)
}
