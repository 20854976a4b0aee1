package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/api"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/chain"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/cow"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/evm"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/metrics"
	internalsecrets "github.com/Checker-Finance/cow-adapters/cow-adapter/internal/secrets"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/pkg/config"
	"github.com/Checker-Finance/cow-adapters/internal/jobs"
	"github.com/Checker-Finance/cow-adapters/internal/publisher"
	"github.com/Checker-Finance/cow-adapters/internal/rate"
	"github.com/Checker-Finance/cow-adapters/pkg/logger"
	"github.com/Checker-Finance/cow-adapters/pkg/secrets"
	"github.com/Checker-Finance/cow-adapters/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [cow-adapter]...")

	// --- Secrets provider ---
	var provider secrets.Provider
	switch cfg.SecretsProvider {
	case "env":
		provider = secrets.NewEnvProvider()
	default:
		provider, err = secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
	}

	// --- Per-chain endpoint resolver (secrets cached in-memory) ---
	endpointCache := secrets.NewCache[internalsecrets.ChainEndpoints](cfg.CacheTTL)
	stopCleaner := make(chan struct{})
	go endpointCache.StartCleaner(cfg.CleanupFreq, stopCleaner)

	endpoints := internalsecrets.NewEndpointResolver(logger.Named("secrets"), cfg.Env, provider, endpointCache)

	chains, err := endpoints.DiscoverChains(ctx)
	if err != nil {
		logg.Warnw("failed to discover chain endpoints", "error", err)
	} else {
		logg.Infow("discovered chain endpoints", "count", len(chains), "chains", chains)
	}

	// --- NATS publisher (optional) ---
	var (
		nc     *nats.Conn
		events cow.EventPublisher
		pub    *publisher.Publisher
	)
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "url", utils.MaskURL(cfg.NATSURL), "error", err)
		}
		pub, err = publisher.New(nc, cfg.ServiceName, logger.Named("publisher"))
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
		pub.OnPublish(metrics.ObservePublish)
		events = pub
	} else {
		logg.Info("NATS_URL not set, lifecycle events disabled")
	}

	// --- Order-book client ---
	rateMgr := rate.NewManager[uint64](rate.Config{
		RequestsPerSecond: cfg.OrderbookRPS,
		Burst:             cfg.OrderbookBurst,
	})
	orderbook := cow.NewClient(logger.Named("orderbook"), endpoints, rateMgr, cfg.OrderbookTimeout)

	// --- Allowance reader ---
	allowances := evm.NewAllowanceReader(logger.Named("evm"), endpoints, nil)
	defer allowances.Close()

	// --- Order flow service ---
	approvalMode, err := cow.ParseApprovalMode(cfg.ApprovalMode)
	if err != nil {
		logg.Fatalw("invalid approval mode", "error", err)
	}
	svc, err := cow.NewService(
		logger.Named("cow"),
		cow.Settings{
			SlippageBps:  cfg.SlippageBps,
			AppCode:      cfg.AppCode,
			Referrer:     cfg.Referrer(),
			ApprovalMode: approvalMode,
		},
		orderbook,
		allowances,
		events,
		cow.MetricsObserver,
	)
	if err != nil {
		logg.Fatalw("failed to init order flow service", "error", err)
	}

	// --- Endpoint refresher ---
	fallback := cfg.SupportedChains
	if len(fallback) == 0 {
		fallback = chain.SupportedChainIDs()
	}
	var refresherEvents jobs.EventPublisher
	if pub != nil {
		refresherEvents = pub
	}
	refresher := jobs.NewEndpointRefresher(logger.Named("jobs"), endpoints, refresherEvents, fallback, cfg.EndpointRefreshInterval)
	refresher.OnResult(metrics.IncEndpointRefresh)
	go refresher.Start(ctx)

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	cowHandler := api.NewCowHandler(logger.Named("api"), svc, cfg.SupportedChains)
	api.RegisterRoutes(app, nc, cowHandler)

	// Start HTTP server
	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[cow-adapter] running",
		"env", cfg.Env,
		"secrets", cfg.SecretsProvider,
		"slippage_bps", cfg.SlippageBps,
		"approval_mode", cfg.ApprovalMode,
		"chains", fallback,
		"events", pub != nil)

	<-ctx.Done()
	logg.Info("shutting down [cow-adapter]...")

	close(stopCleaner)
	refresher.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if pub != nil {
		pub.Close()
	}
}
