package stock

import (
	"context"
	"fmt"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
)

// Ledger performs in-transaction ledger operations. Methods take the
// caller's Querier so order creation, movement recording and deletion
// compensations run their ledger effects inside their own transaction.
type Ledger struct{}

// GetOrCreate returns the row-locked entry for the key, creating it with
// zero quantity when absent. The unique index on (product, location, shelf)
// makes the lazy insert race-safe.
func (Ledger) GetOrCreate(ctx context.Context, q db.Querier, key EntryKey) (Entry, error) {
	if !key.Valid() {
		return Entry{}, ErrInvalidKey
	}
	_, err := q.Exec(ctx, `
		INSERT INTO stock_entries (product_id, location_id, shelf_id, quantity)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (product_id, location_id, shelf_id) DO NOTHING
	`, key.ProductID, key.LocationID, key.ShelfID)
	if err != nil {
		return Entry{}, fmt.Errorf("stock: ensure entry: %w", err)
	}

	var entry Entry
	err = q.QueryRow(ctx, `
		SELECT id, product_id, location_id, shelf_id, quantity, min_stock, max_stock, updated_at
		FROM stock_entries
		WHERE product_id = $1 AND location_id = $2 AND shelf_id IS NOT DISTINCT FROM $3
		FOR UPDATE
	`, key.ProductID, key.LocationID, key.ShelfID).
		Scan(&entry.ID, &entry.ProductID, &entry.LocationID, &entry.ShelfID,
			&entry.Quantity, &entry.MinStock, &entry.MaxStock, &entry.UpdatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("stock: lock entry: %w", err)
	}
	return entry, nil
}

// Adjust applies delta to the entry's quantity, creating the entry first if
// needed. A delta that would drive the quantity negative fails with
// ErrInsufficientStock and leaves the entry unchanged.
func (l Ledger) Adjust(ctx context.Context, q db.Querier, key EntryKey, delta float64) (Entry, error) {
	entry, err := l.GetOrCreate(ctx, q, key)
	if err != nil {
		return Entry{}, err
	}
	newQty := entry.Quantity + delta
	if newQty < 0 {
		return Entry{}, ErrInsufficientStock
	}
	err = q.QueryRow(ctx, `
		UPDATE stock_entries SET quantity = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING quantity, updated_at
	`, entry.ID, newQty).Scan(&entry.Quantity, &entry.UpdatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("stock: adjust entry %d: %w", entry.ID, err)
	}
	return entry, nil
}

// SyncProductQuantity recomputes the product's denormalised aggregate from
// the ledger inside the caller's transaction. This is the only way the
// aggregate is ever written, so it cannot drift from the entry sum.
func (Ledger) SyncProductQuantity(ctx context.Context, q db.Querier, productID int64) error {
	_, err := q.Exec(ctx, `
		UPDATE products
		SET current_quantity = (
			SELECT COALESCE(SUM(quantity), 0) FROM stock_entries WHERE product_id = $1
		), updated_at = NOW()
		WHERE id = $1
	`, productID)
	if err != nil {
		return fmt.Errorf("stock: sync product %d quantity: %w", productID, err)
	}
	return nil
}
