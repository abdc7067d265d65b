package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockLowScan scans the ledger for entries below their minimum.
	TaskStockLowScan = "stock:lowscan"
	// TaskSalesFrequency recomputes rolling sales counts per product.
	TaskSalesFrequency = "sales:frequency"
)

// LowStockScanPayload carries scheduling metadata for the low stock scan.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the low stock scan.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLowScan, body, asynq.Queue(QueueDefault)), nil
}

// SalesFrequencyPayload configures the sales frequency window.
type SalesFrequencyPayload struct {
	WindowDays int `json:"window_days"`
}

// NewSalesFrequencyTask constructs an Asynq task for sales frequency
// recomputation. A non-positive window falls back to 90 days.
func NewSalesFrequencyTask(windowDays int) (*asynq.Task, error) {
	body, err := json.Marshal(SalesFrequencyPayload{WindowDays: windowDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSalesFrequency, body, asynq.Queue(QueueDefault)), nil
}
