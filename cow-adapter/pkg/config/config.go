package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	pkgconfig "github.com/Checker-Finance/cow-adapters/pkg/config"
)

// Config holds the runtime configuration for the cow-adapter.
type Config struct {
	ServiceName      string
	Env              string
	LogLevel         string
	Port             int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	NATSURL         string // empty disables event publishing
	AWSRegion       string
	SecretsProvider string // "aws" or "env"

	CacheTTL                time.Duration
	CleanupFreq             time.Duration
	EndpointRefreshInterval time.Duration
	SupportedChains         []uint64 // empty enables every registered chain

	// Order flow settings
	SlippageBps     int
	AppCode         string
	ReferrerAddress string
	ApprovalMode    string

	// Order-book client
	OrderbookTimeout time.Duration
	OrderbookRPS     int
	OrderbookBurst   int
}

// Load loads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	slippage, err := pkgconfig.GetEnvIntStrict("SLIPPAGE_BPS", 100)
	if err != nil {
		return nil, err
	}
	chains, err := pkgconfig.GetEnvUint64List("SUPPORTED_CHAINS", nil)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServiceName:             pkgconfig.GetEnv("SERVICE_NAME", "cow-adapter"),
		Env:                     pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:                pkgconfig.GetEnv("LOG_LEVEL", "info"),
		Port:                    pkgconfig.GetEnvInt("COW_PORT", 9040),
		HTTPReadTimeout:         pkgconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:        pkgconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		HTTPIdleTimeout:         pkgconfig.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:           pkgconfig.GetEnvInt("HTTP_BODY_LIMIT", 256*1024),
		NATSURL:                 pkgconfig.GetEnv("NATS_URL", ""),
		AWSRegion:               pkgconfig.GetEnv("AWS_REGION", "us-east-2"),
		SecretsProvider:         strings.ToLower(pkgconfig.GetEnv("SECRETS_PROVIDER", "aws")),
		CacheTTL:                pkgconfig.GetEnvDuration("CACHE_TTL", 1*time.Hour),
		CleanupFreq:             pkgconfig.GetEnvDuration("CACHE_CLEANUP_FREQ", 10*time.Minute),
		EndpointRefreshInterval: pkgconfig.GetEnvDuration("ENDPOINT_REFRESH_INTERVAL", 15*time.Minute),
		SupportedChains:         chains,
		SlippageBps:             slippage,
		AppCode:                 pkgconfig.GetEnv("APP_CODE", "bitte.ai/CowAgent"),
		ReferrerAddress:         pkgconfig.GetEnv("REFERRER_ADDRESS", "0x8d99F8b2710e6A3B94d9bf465A98E5273069aCBd"),
		ApprovalMode:            strings.ToLower(pkgconfig.GetEnv("APPROVAL_MODE", "max")),
		OrderbookTimeout:        pkgconfig.GetEnvDuration("ORDERBOOK_TIMEOUT", 15*time.Second),
		OrderbookRPS:            pkgconfig.GetEnvInt("ORDERBOOK_RPS", 5),
		OrderbookBurst:          pkgconfig.GetEnvInt("ORDERBOOK_BURST", 10),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	var errs []error
	if c.SlippageBps < 0 || c.SlippageBps >= 10000 {
		errs = append(errs, fmt.Errorf("SLIPPAGE_BPS: %d outside [0, 10000)", c.SlippageBps))
	}
	if c.AppCode == "" {
		errs = append(errs, errors.New("APP_CODE: must not be empty"))
	}
	if c.ReferrerAddress != "" && !common.IsHexAddress(c.ReferrerAddress) {
		errs = append(errs, fmt.Errorf("REFERRER_ADDRESS: %q is not an address", c.ReferrerAddress))
	}
	if c.ApprovalMode != "max" && c.ApprovalMode != "exact" {
		errs = append(errs, fmt.Errorf("APPROVAL_MODE: %q is not max or exact", c.ApprovalMode))
	}
	if c.SecretsProvider != "aws" && c.SecretsProvider != "env" {
		errs = append(errs, fmt.Errorf("SECRETS_PROVIDER: %q is not aws or env", c.SecretsProvider))
	}
	if c.OrderbookTimeout <= 0 {
		errs = append(errs, errors.New("ORDERBOOK_TIMEOUT: must be positive"))
	}
	return errors.Join(errs...)
}

// Referrer returns the referrer address, or the zero address when unset.
func (c *Config) Referrer() common.Address {
	if c.ReferrerAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.ReferrerAddress)
}
