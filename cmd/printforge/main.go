package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/printforge-erp/printforge-erp/internal/app"
	"github.com/printforge-erp/printforge-erp/internal/integration"
	"github.com/printforge-erp/printforge-erp/internal/inventory"
	"github.com/printforge-erp/printforge-erp/internal/ledger"
	"github.com/printforge-erp/printforge-erp/internal/ledger/accounts"
	"github.com/printforge-erp/printforge-erp/internal/ledger/periods"
	"github.com/printforge-erp/printforge-erp/internal/ledger/reports"
	"github.com/printforge-erp/printforge-erp/internal/observability"
	"github.com/printforge-erp/printforge-erp/internal/platform/cache"
	"github.com/printforge-erp/printforge-erp/internal/platform/db"
	"github.com/printforge-erp/printforge-erp/internal/reconcile"
	"github.com/printforge-erp/printforge-erp/internal/shared"
	"github.com/printforge-erp/printforge-erp/jobs"
	"github.com/printforge-erp/printforge-erp/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		MaxConnLifetime: cfg.PGConnMaxLifetime,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	if err := accounts.Seed(ctx, accountsRepo); err != nil {
		logger.Error("seed chart of accounts", slog.Any("error", err))
		os.Exit(1)
	}

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger)

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo, auditLogger, periods.Policy{
		RequireEntries: cfg.ClosePolicyRequireEntries,
	})

	reportsRepo := reports.NewRepository(pool)
	reportsCache := reports.NewCache(redisClient)
	reportsService := reports.NewService(reportsRepo, reportsCache)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo)

	reconcileService := reconcile.NewService(reportsService, inventoryService)
	integrationHooks := integration.NewHooks(ledgerService)

	onPosted := func() {
		reportsService.Invalidate(context.Background())
	}

	reportsHandler := reports.NewHandler(logger, reportsService)
	if cfg.GotenbergURL != "" {
		reportsHandler = reportsHandler.WithPDF(report.NewClient(cfg.GotenbergURL))
	}

	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	jobsInspector := asynq.NewInspector(redisOpts)
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		LedgerHandler:      ledger.NewHandler(logger, ledgerService, accountsService, onPosted).WithMetrics(metrics),
		PeriodsHandler:     periods.NewHandler(logger, periodsService).WithMetrics(metrics),
		ReportsHandler:     reportsHandler,
		ReconcileHandler:   reconcile.NewHandler(logger, reconcileService),
		IntegrationHandler: integration.NewHandler(logger, integrationHooks, onPosted),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService),
		JobsHandler:        jobs.NewHandler(jobsInspector, jobsClient, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
