package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// EnvProvider serves secrets from process environment variables for local
// runs. A secret named "dev/1/cow" is read from DEV_1_COW and must hold a
// JSON object, mirroring what AWS Secrets Manager stores.
type EnvProvider struct {
	lookup  func(string) (string, bool)
	environ func() []string
}

// NewEnvProvider returns a Provider backed by os.Getenv.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv, environ: os.Environ}
}

// EnvVarName maps a secret name to the environment variable holding it.
func EnvVarName(secret string) string {
	r := strings.NewReplacer("/", "_", "-", "_", ".", "_")
	return strings.ToUpper(r.Replace(secret))
}

// GetSecret decodes the JSON object stored in the variable for key.
func (p *EnvProvider) GetSecret(_ context.Context, key string) (map[string]string, error) {
	name := EnvVarName(key)
	raw, ok := p.lookup(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("secret [%s] not found (env %s)", key, name)
	}

	var result map[string]string
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("invalid secret format for [%s]: %w", key, err)
	}
	return result, nil
}

// ListSecrets returns secret names (lowercased, "/"-separated) whose variable
// starts with the variable form of prefix.
func (p *EnvProvider) ListSecrets(_ context.Context, prefix string) ([]string, error) {
	varPrefix := EnvVarName(prefix)
	var names []string
	for _, kv := range p.environ() {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, varPrefix) {
			continue
		}
		names = append(names, strings.ToLower(strings.TrimSuffix(prefix, "/"))+"/"+
			strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, varPrefix), "_", "/")))
	}
	sort.Strings(names)
	return names, nil
}
