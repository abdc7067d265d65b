// Package costhistory keeps an append-only journal of product purchase
// costs. Entries are written only when the cost actually changes and are
// never updated or removed.
package costhistory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
)

// Entry is one point of a product's cost timeline.
type Entry struct {
	ID              int64     `json:"id"`
	ProductID       int64     `json:"product_id"`
	Cost            float64   `json:"cost"`
	RecordedAt      time.Time `json:"recorded_at"`
	PurchaseOrderID *int64    `json:"purchase_order_id,omitempty"`
}

// Recorder appends cost entries inside the caller's transaction.
type Recorder struct{}

// Record appends an entry when the product has no history yet or its most
// recent cost differs. Returns whether a row was written.
func (Recorder) Record(ctx context.Context, q db.Querier, productID int64, cost float64, at time.Time, purchaseOrderID *int64) (bool, error) {
	if productID <= 0 {
		return false, errors.New("costhistory: product required")
	}
	if cost < 0 {
		return false, errors.New("costhistory: negative cost")
	}

	var latest float64
	err := q.QueryRow(ctx, `
		SELECT cost FROM cost_history
		WHERE product_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`, productID).Scan(&latest)
	switch {
	case err == nil:
		if latest == cost {
			return false, nil
		}
	case errors.Is(err, pgx.ErrNoRows):
		// first entry for the product
	default:
		return false, fmt.Errorf("costhistory: read latest: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO cost_history (product_id, cost, recorded_at, purchase_order_id)
		VALUES ($1, $2, $3, $4)
	`, productID, cost, at, purchaseOrderID)
	if err != nil {
		return false, fmt.Errorf("costhistory: append: %w", err)
	}
	return true, nil
}
