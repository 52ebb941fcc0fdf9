package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/auth"
	"spendwise/internal/backend"
	"spendwise/internal/cache"
	"spendwise/internal/cli"
	"spendwise/internal/config"
	"spendwise/internal/core"
	apphttp "spendwise/internal/http"
	applog "spendwise/internal/log"
	"spendwise/internal/ports"
	"spendwise/internal/services"
)

const summaryCacheSize = 1000

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize data backend", err, "backend", cfg.DataBackend)
	}
	store := res.Store

	// Events are optional for the API: without AMQP no alerts or mirror rows
	// are produced.
	var (
		publisher  ports.EventPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	summaryCache, cacheManager, closeCache := newSummaryCache(ctx, cfg, logger)

	summaries := services.NewSummaryService(store, summaryCache)
	monitor := services.NewBudgetMonitor(store, store, store, publisher)
	svc := apphttp.Services{
		Accounts:   services.NewAccountService(store, auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), cfg.DefaultCurrency),
		Categories: services.NewCategoryService(store, cfg.CategoryListing == config.ListOwnedAndGlobal, summaries),
		Expenses: services.NewExpenseService(store, store, publisher, services.ExpensePolicy{
			EnforceOwnership:   cfg.EnforceExpenseOwnership,
			StrictCategoryRefs: cfg.StrictCategoryRefs,
		}, summaries, monitor),
		Budgets:   services.NewBudgetService(store, store, summaries),
		Summaries: summaries,
	}

	opts := apphttp.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}
	if p := res.Pinger(); p != nil {
		opts.Ready = p
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, opts)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if cacheManager != nil {
			cacheManager.Stop()
		}
		closeCache()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting spendwise server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"category_listing", cfg.CategoryListing,
		"enforce_expense_ownership", cfg.EnforceExpenseOwnership,
		"strict_category_refs", cfg.StrictCategoryRefs)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}

// newSummaryCache picks Redis when REDIS_URL is set and an in-process LRU
// otherwise. The manager is nil for Redis, which expires keys itself.
func newSummaryCache(ctx context.Context, cfg *config.Config, logger *applog.Logger) (cache.Cache[core.MonthSummary], *cache.Manager, func()) {
	log := logger.WithComponent(applog.ComponentCache)
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			cli.Fatal(log, "Failed to connect to Redis", err)
		}
		log.Info("Summary cache backed by Redis", "ttl", cfg.CacheTTL)
		return cache.NewRedisCache[core.MonthSummary](client, "spendwise:", cfg.CacheTTL), nil, func() {
			if err := client.Close(); err != nil {
				log.Error("Redis close error", applog.FieldError, err)
			}
		}
	}

	lru := cache.NewLRUCache[core.MonthSummary](summaryCacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(10 * time.Minute)
	log.Info("Summary cache in memory", "max_entries", summaryCacheSize, "ttl", cfg.CacheTTL)
	return lru, manager, func() {}
}
