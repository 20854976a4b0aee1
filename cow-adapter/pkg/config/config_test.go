package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SLIPPAGE_BPS", "SUPPORTED_CHAINS", "APPROVAL_MODE", "SECRETS_PROVIDER", "NATS_URL", "APP_CODE", "REFERRER_ADDRESS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.SlippageBps)
	assert.Equal(t, "bitte.ai/CowAgent", cfg.AppCode)
	assert.Equal(t, common.HexToAddress("0x8d99F8b2710e6A3B94d9bf465A98E5273069aCBd"), cfg.Referrer())
	assert.Equal(t, "max", cfg.ApprovalMode)
	assert.Equal(t, "aws", cfg.SecretsProvider)
	assert.Empty(t, cfg.NATSURL)
	assert.Empty(t, cfg.SupportedChains)
	assert.Equal(t, 15*time.Second, cfg.OrderbookTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SLIPPAGE_BPS", "50")
	t.Setenv("SUPPORTED_CHAINS", "1,100")
	t.Setenv("APPROVAL_MODE", "EXACT")
	t.Setenv("SECRETS_PROVIDER", "env")
	t.Setenv("ORDERBOOK_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.SlippageBps)
	assert.Equal(t, []uint64{1, 100}, cfg.SupportedChains)
	assert.Equal(t, "exact", cfg.ApprovalMode)
	assert.Equal(t, "env", cfg.SecretsProvider)
	assert.Equal(t, 5*time.Second, cfg.OrderbookTimeout)
}

func TestLoad_MalformedSlippageIsAnError(t *testing.T) {
	t.Setenv("SLIPPAGE_BPS", "1%")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SLIPPAGE_BPS")
}

func TestLoad_MalformedChains(t *testing.T) {
	t.Setenv("SLIPPAGE_BPS", "")
	t.Setenv("SUPPORTED_CHAINS", "mainnet")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPPORTED_CHAINS")
}

func TestValidate(t *testing.T) {
	valid := Config{
		SlippageBps:      100,
		AppCode:          "app",
		ApprovalMode:     "max",
		SecretsProvider:  "aws",
		OrderbookTimeout: time.Second,
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"slippage 10000":  func(c *Config) { c.SlippageBps = 10000 },
		"slippage -1":     func(c *Config) { c.SlippageBps = -1 },
		"empty app code":  func(c *Config) { c.AppCode = "" },
		"bad referrer":    func(c *Config) { c.ReferrerAddress = "0x123" },
		"bad approval":    func(c *Config) { c.ApprovalMode = "unlimited" },
		"bad provider":    func(c *Config) { c.SecretsProvider = "vault" },
		"zero ob timeout": func(c *Config) { c.OrderbookTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestReferrer_Empty(t *testing.T) {
	c := Config{}
	assert.Equal(t, common.Address{}, c.Referrer())
}
