package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository is the PostgreSQL implementation of RepositoryPort.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository returns a PostgreSQL-backed pricing repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// ListPrices returns the pricing view of products, all of them when
// categoryID is nil.
func (r *PgRepository) ListPrices(ctx context.Context, categoryID *int64) ([]ProductPrice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_id, purchase_price, margin_percent, selling_price
		FROM products
		WHERE $1::BIGINT IS NULL OR category_id = $1
		ORDER BY id
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("pricing: query prices: %w", err)
	}
	defer rows.Close()

	var out []ProductPrice
	for rows.Next() {
		var p ProductPrice
		if err := rows.Scan(&p.ProductID, &p.CategoryID, &p.PurchasePrice, &p.MarginPercent, &p.SellingPrice); err != nil {
			return nil, fmt.Errorf("pricing: scan price: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pricing: iterate prices: %w", err)
	}
	return out, nil
}

// SetMargin writes one product's margin and selling price as a single
// statement, so each product in a sweep commits independently.
func (r *PgRepository) SetMargin(ctx context.Context, productID int64, percent float64, sellingPrice *float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE products
		SET margin_percent = $2,
		    selling_price = COALESCE($3, selling_price),
		    updated_at = NOW()
		WHERE id = $1
	`, productID, percent, sellingPrice)
	if err != nil {
		return fmt.Errorf("pricing: set margin on product %d: %w", productID, err)
	}
	return nil
}
