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
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/stockpilot-erp/stockpilot/internal/app"
	"github.com/stockpilot-erp/stockpilot/internal/costhistory"
	"github.com/stockpilot-erp/stockpilot/internal/masterdata"
	"github.com/stockpilot-erp/stockpilot/internal/movements"
	"github.com/stockpilot-erp/stockpilot/internal/observability"
	"github.com/stockpilot-erp/stockpilot/internal/orders"
	"github.com/stockpilot-erp/stockpilot/internal/platform/cache"
	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/internal/pricing"
	"github.com/stockpilot-erp/stockpilot/internal/shared"
	"github.com/stockpilot-erp/stockpilot/internal/stock"
	"github.com/stockpilot-erp/stockpilot/internal/users"
	"github.com/stockpilot-erp/stockpilot/jobs"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

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

	if err := runMigrations(cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, stock reads uncached", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	var stockCache *stock.Cache
	if redisClient != nil {
		stockCache = stock.NewCache(redisClient, cfg.StockCacheTTL)
	}

	stockRepo := stock.NewRepository(dbpool)
	stockService := stock.NewService(stockRepo, stockCache)
	stockHandler := stock.NewHandler(logger, stockService)

	ordersRepo := orders.NewPgRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, auditLogger, stockCache)
	ordersHandler := orders.NewHandler(logger, ordersService, metrics)

	movementsRepo := movements.NewPgRepository(dbpool)
	movementsService := movements.NewService(movementsRepo, auditLogger, stockCache)
	movementsHandler := movements.NewHandler(logger, movementsService, metrics)

	pricingRepo := pricing.NewPgRepository(dbpool)
	pricingService := pricing.NewService(pricingRepo, auditLogger)
	pricingHandler := pricing.NewHandler(logger, pricingService)

	costRepo := costhistory.NewRepository(dbpool)
	costHandler := costhistory.NewHandler(logger, costRepo)

	masterRepo := masterdata.NewRepository(dbpool)
	masterService := masterdata.NewService(masterRepo)
	masterHandler := masterdata.NewHandler(logger, masterService)

	usersRepo := users.NewPgRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		OrdersHandler:      ordersHandler,
		MovementsHandler:   movementsHandler,
		StockHandler:       stockHandler,
		PricingHandler:     pricingHandler,
		CostHistoryHandler: costHandler,
		MasterDataHandler:  masterHandler,
		UsersHandler:       usersHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
