package movements

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/internal/stock"
)

// PgRepository is the PostgreSQL implementation of RepositoryPort.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository returns a PostgreSQL-backed movement repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// WithTx runs fn in one transaction shared with the stock ledger.
func (r *PgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *PgRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id)
}

func (r *PgRepository) LocationExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)`, id)
}

func (r *PgRepository) ShelfInLocation(ctx context.Context, shelfID, locationID int64) (bool, error) {
	return exists(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM shelves WHERE id = $1 AND location_id = $2)`, shelfID, locationID)
}

// List returns movements newest first, optionally narrowed by product and
// direction.
func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Movement, error) {
	query := `
		SELECT id, ref_code, product_id, location_id, shelf_id, direction, quantity, reason, notes, created_by, created_at
		FROM stock_movements
		WHERE ($1::BIGINT IS NULL OR product_id = $1)
		  AND ($2 = '' OR direction = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, filter.ProductID, filter.Direction, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("movements: list: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.RefCode, &m.ProductID, &m.LocationID, &m.ShelfID,
			&m.Direction, &m.Quantity, &m.Reason, &m.Notes, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("movements: scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("movements: iterate: %w", err)
	}
	return out, nil
}

type txRepository struct {
	tx     pgx.Tx
	ledger stock.Ledger
}

func (t *txRepository) Insert(ctx context.Context, m Movement) (Movement, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO stock_movements (ref_code, product_id, location_id, shelf_id, direction, quantity, reason, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, m.RefCode, m.ProductID, m.LocationID, m.ShelfID, m.Direction, m.Quantity, m.Reason, m.Notes, m.CreatedBy).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Movement{}, fmt.Errorf("movements: insert: %w", err)
	}
	return m, nil
}

func (t *txRepository) AdjustStock(ctx context.Context, key stock.EntryKey, delta float64) error {
	_, err := t.ledger.Adjust(ctx, t.tx, key, delta)
	return err
}

func (t *txRepository) SyncProductQuantity(ctx context.Context, productID int64) error {
	return t.ledger.SyncProductQuantity(ctx, t.tx, productID)
}

func exists(ctx context.Context, q db.Querier, query string, args ...any) (bool, error) {
	var ok bool
	if err := q.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("movements: existence check: %w", err)
	}
	return ok, nil
}
