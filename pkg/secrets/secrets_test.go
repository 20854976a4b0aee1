package secrets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Cache ────────────────────────────────────────────────────────────────────

func TestCache_PutGet(t *testing.T) {
	c := NewCache[string](time.Minute)
	c.Put("1|cow", "https://rpc")

	v, ok := c.Get("1|cow")
	require.True(t, ok)
	assert.Equal(t, "https://rpc", v)

	_, ok = c.Get("100|cow")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache[int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("k", 1)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Empty(t, c.data, "expired entry should be evicted on read")
}

func TestCache_Cleanup(t *testing.T) {
	c := NewCache[int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("b", 2)
	c.Put("a", 1)
	assert.Len(t, c.data, 2)

	c.now = func() time.Time { return now.Add(time.Hour) }
	c.cleanupExpired()
	assert.Empty(t, c.data)
}

func TestCache_Bust(t *testing.T) {
	c := NewCache[int](time.Minute)
	c.Put("k", 1)
	c.Bust("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

// ─── EnvProvider ──────────────────────────────────────────────────────────────

func newTestEnvProvider(env map[string]string) *EnvProvider {
	return &EnvProvider{
		lookup: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
		environ: func() []string {
			var out []string
			for k, v := range env {
				out = append(out, k+"="+v)
			}
			return out
		},
	}
}

func TestEnvVarName(t *testing.T) {
	assert.Equal(t, "DEV_1_COW", EnvVarName("dev/1/cow"))
	assert.Equal(t, "PROD_11155111_COW", EnvVarName("prod/11155111/cow"))
}

func TestEnvProvider_GetSecret(t *testing.T) {
	p := newTestEnvProvider(map[string]string{
		"DEV_1_COW": `{"rpc_url":"https://rpc.example","orderbook_url":"https://api.cow.fi/mainnet"}`,
		"DEV_5_COW": `not-json`,
	})

	m, err := p.GetSecret(context.Background(), "dev/1/cow")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example", m["rpc_url"])

	_, err = p.GetSecret(context.Background(), "dev/5/cow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid secret format")

	_, err = p.GetSecret(context.Background(), "dev/100/cow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEV_100_COW")
}

func TestEnvProvider_ListSecrets(t *testing.T) {
	p := newTestEnvProvider(map[string]string{
		"DEV_1_COW":   "{}",
		"DEV_100_COW": "{}",
		"PROD_1_COW":  "{}",
		"HOME":        "/root",
	})

	names, err := p.ListSecrets(context.Background(), "dev/")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev/1/cow", "dev/100/cow"}, names)
}
