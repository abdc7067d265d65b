package stock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads ledger entries from PostgreSQL for the reporting path.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Query lists entries joined with product/brand/location names.
func (r *Repository) Query(ctx context.Context, filter QueryFilter) ([]EntryView, error) {
	query := `
		SELECT se.id, se.product_id, se.location_id, se.shelf_id,
		       se.quantity, se.min_stock, se.max_stock, se.updated_at,
		       p.sku, p.name, COALESCE(b.name, ''), l.name, COALESCE(sh.name, '')
		FROM stock_entries se
		JOIN products p ON p.id = se.product_id
		LEFT JOIN brands b ON b.id = p.brand_id
		JOIN locations l ON l.id = se.location_id
		LEFT JOIN shelves sh ON sh.id = se.shelf_id
		WHERE 1=1`
	args := []any{}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		query += fmt.Sprintf(" AND se.product_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.sku ILIKE $%d OR b.name ILIKE $%d OR l.name ILIKE $%d)", n, n, n, n)
	}
	query += " ORDER BY p.name, l.name, se.id"
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stock: query entries: %w", err)
	}
	defer rows.Close()

	var views []EntryView
	for rows.Next() {
		var v EntryView
		if err := rows.Scan(&v.ID, &v.ProductID, &v.LocationID, &v.ShelfID,
			&v.Quantity, &v.MinStock, &v.MaxStock, &v.UpdatedAt,
			&v.ProductSKU, &v.ProductName, &v.BrandName, &v.LocationName, &v.ShelfName); err != nil {
			return nil, fmt.Errorf("stock: scan entry: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// UpdateThresholds sets min/max stock levels on one entry.
func (r *Repository) UpdateThresholds(ctx context.Context, entryID int64, minStock, maxStock float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE stock_entries SET min_stock = $2, max_stock = $3, updated_at = NOW()
		WHERE id = $1
	`, entryID, minStock, maxStock)
	if err != nil {
		return fmt.Errorf("stock: update thresholds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// CountLowStock counts entries at or below their minimum threshold.
func (r *Repository) CountLowStock(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_entries WHERE min_stock > 0 AND quantity <= min_stock
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("stock: count low stock: %w", err)
	}
	return count, nil
}
