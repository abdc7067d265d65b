package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockpilot-erp/stockpilot/internal/app"
	jobmetrics "github.com/stockpilot-erp/stockpilot/internal/jobs"
	"github.com/stockpilot-erp/stockpilot/internal/observability"
	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	metrics := jobmetrics.NewMetrics(nil)
	gauges := observability.NewMetrics()

	lowStockJob := jobs.NewLowStockScanJob(pool, logger, metrics, gauges)
	salesFreqJob := jobs.NewSalesFrequencyJob(pool, logger, metrics)

	lowStockTask, err := jobs.NewLowStockScanTask(time.Now().UTC())
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}
	salesFreqTask, err := jobs.NewSalesFrequencyTask(90)
	if err != nil {
		logger.Error("build sales frequency task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockLowScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskSalesFrequency, Handler: salesFreqJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "13 1 * * *", Task: lowStockTask},
			{Spec: "47 1 * * *", Task: salesFreqTask},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
