package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/stockpilot-erp/stockpilot/internal/jobs"
	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
)

// SalesFrequencyJob recomputes each product's rolling sales count so slow
// movers can be spotted from the product list without joining order lines.
type SalesFrequencyJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSalesFrequencyJob initialises the sales frequency handler.
func NewSalesFrequencyJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SalesFrequencyJob {
	return &SalesFrequencyJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the recomputation.
func (j *SalesFrequencyJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("sales frequency: handler not configured")
	}
	var payload SalesFrequencyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = 90
	}

	tracker := j.Metrics.Track(TaskSalesFrequency)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	var counted int64
	resultErr = db.WithTx(ctx, j.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE products SET sales_frequency = 0 WHERE sales_frequency <> 0`); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE products p
			SET sales_frequency = s.cnt, updated_at = NOW()
			FROM (
				SELECT l.product_id, COUNT(*) AS cnt
				FROM sale_order_lines l
				JOIN sale_orders o ON o.id = l.order_id
				WHERE o.order_date >= NOW() - ($1 || ' days')::interval
				GROUP BY l.product_id
			) s
			WHERE p.id = s.product_id
		`, payload.WindowDays)
		if err != nil {
			return err
		}
		counted = tag.RowsAffected()
		return nil
	})
	if resultErr != nil {
		return resultErr
	}

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("completed sales frequency recompute",
		slog.Int("window_days", payload.WindowDays),
		slog.Int64("products_updated", counted),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}
