package costhistory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads cost history from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a product's cost timeline, newest first.
func (r *Repository) List(ctx context.Context, productID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, cost, recorded_at, purchase_order_id
		FROM cost_history
		WHERE product_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("costhistory: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Cost, &e.RecordedAt, &e.PurchaseOrderID); err != nil {
			return nil, fmt.Errorf("costhistory: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
