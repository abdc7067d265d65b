package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/stockpilot-erp/stockpilot/internal/jobs"
	"github.com/stockpilot-erp/stockpilot/internal/observability"
)

// LowStockScanJob counts ledger entries sitting at or below their minimum
// threshold and publishes the count as a gauge.
type LowStockScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Gauges  *observability.Metrics
}

// NewLowStockScanJob initialises the low stock scan handler.
func NewLowStockScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics, gauges *observability.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Pool: pool, Logger: logger, Metrics: metrics, Gauges: gauges}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskStockLowScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	rows, err := j.Pool.Query(ctx, `
		SELECT p.sku, p.name, e.location_id, e.quantity, e.min_stock
		FROM stock_entries e
		JOIN products p ON p.id = e.product_id
		WHERE e.min_stock > 0 AND e.quantity <= e.min_stock
		ORDER BY e.quantity / e.min_stock
	`)
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			sku, name  string
			locationID int64
			qty, min   float64
		)
		if err := rows.Scan(&sku, &name, &locationID, &qty, &min); err != nil {
			resultErr = err
			return resultErr
		}
		count++
		j.logger().Warn("stock below minimum",
			slog.String("sku", sku),
			slog.String("product", name),
			slog.Int64("location_id", locationID),
			slog.Float64("quantity", qty),
			slog.Float64("min_stock", min),
		)
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	if j.Gauges != nil {
		j.Gauges.SetLowStockEntries(float64(count))
	}
	j.logger().Info("completed low stock scan",
		slog.Int("low_entries", count),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
