package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lumi-commerce/lumi-admin/internal/app"
	"github.com/lumi-commerce/lumi-admin/internal/catalog/variants"
	"github.com/lumi-commerce/lumi-admin/internal/catalog/warehouses"
	"github.com/lumi-commerce/lumi-admin/internal/inventory"
	"github.com/lumi-commerce/lumi-admin/internal/observability"
	"github.com/lumi-commerce/lumi-admin/internal/platform/cache"
	"github.com/lumi-commerce/lumi-admin/internal/platform/db"
	"github.com/lumi-commerce/lumi-admin/internal/shared"
	"github.com/lumi-commerce/lumi-admin/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewNotifier(jobsClient, logger)

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	inventoryRepo := inventory.NewRepository(pool)
	stockCache := inventory.NewStockCache(inventoryRepo, redisClient, cfg.StockCacheTTL, logger)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, notifier, stockCache, logger, inventory.ServiceConfig{
		Metrics: metrics,
	})
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	variantService := variants.NewService(variants.NewRepository(pool))
	variantHandler := variants.NewHandler(logger, variantService)

	warehouseService := warehouses.NewService(warehouses.NewRepository(pool))
	warehouseHandler := warehouses.NewHandler(logger, warehouseService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventoryHandler,
		VariantHandler:   variantHandler,
		WarehouseHandler: warehouseHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
