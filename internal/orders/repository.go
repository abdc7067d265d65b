package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot-erp/stockpilot/internal/costhistory"
	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/internal/sequence"
	"github.com/stockpilot-erp/stockpilot/internal/stock"
)

// PgRepository is the PostgreSQL implementation of RepositoryPort.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository returns a PostgreSQL-backed order repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// WithTx runs fn inside one database transaction; the TxRepository it
// receives shares that transaction with the sequence allocator, the stock
// ledger and the cost recorder.
func (r *PgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *PgRepository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return existsQuery(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id)
}

func (r *PgRepository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	return existsQuery(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id)
}

func (r *PgRepository) LocationExists(ctx context.Context, id int64) (bool, error) {
	return existsQuery(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)`, id)
}

// FindByNumber loads an order and its lines by human-readable number.
func (r *PgRepository) FindByNumber(ctx context.Context, series sequence.Series, number string) (Details, error) {
	return loadDetails(ctx, r.pool, series, `number = $1`, number)
}

// Get loads an order and its lines by id.
func (r *PgRepository) Get(ctx context.Context, series sequence.Series, id int64) (Details, error) {
	return loadDetails(ctx, r.pool, series, `id = $1`, id)
}

// UpdateDetails edits invoice number and notes, leaving nil fields alone.
func (r *PgRepository) UpdateDetails(ctx context.Context, series sequence.Series, id int64, invoiceNumber, notes *string) error {
	t, err := tablesFor(series)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE %s SET
			invoice_number = COALESCE($2, invoice_number),
			notes = COALESCE($3, notes),
			updated_at = NOW()
		WHERE id = $1
	`, t.orders)
	tag, err := r.pool.Exec(ctx, query, id, invoiceNumber, notes)
	if err != nil {
		return fmt.Errorf("orders: update details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// txRepository implements TxRepository over one pgx transaction.
type txRepository struct {
	tx        pgx.Tx
	allocator sequence.Allocator
	ledger    stock.Ledger
	costs     costhistory.Recorder
}

func (t *txRepository) NextNumber(ctx context.Context, series sequence.Series, date time.Time) (string, error) {
	return t.allocator.NextNumber(ctx, t.tx, series, date)
}

func (t *txRepository) InsertOrder(ctx context.Context, order Order) (int64, error) {
	tbl, err := tablesFor(order.Series)
	if err != nil {
		return 0, err
	}
	var query string
	var args []any
	switch order.Series {
	case sequence.SeriesPurchase:
		query = `
			INSERT INTO purchase_orders (number, invoice_number, supplier_id, location_id, order_date, notes, total_amount, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		args = []any{order.Number, order.InvoiceNumber, order.CounterpartyID, order.LocationID, order.OrderDate, order.Notes, order.TotalAmount, order.CreatedBy}
	case sequence.SeriesSale:
		query = `
			INSERT INTO sale_orders (number, invoice_number, customer_id, location_id, order_date, payment_method, status, notes, total_amount, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`
		args = []any{order.Number, order.InvoiceNumber, order.CounterpartyID, order.LocationID, order.OrderDate, order.PaymentMethod, order.Status, order.Notes, order.TotalAmount, order.CreatedBy}
	}
	var id int64
	if err := t.tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%s %s: %w", tbl.orders, order.Number, ErrNumberConflict)
		}
		return 0, fmt.Errorf("orders: insert %s: %w", tbl.orders, err)
	}
	return id, nil
}

func (t *txRepository) InsertLine(ctx context.Context, series sequence.Series, line Line) error {
	tbl, err := tablesFor(series)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (order_id, product_id, quantity, unit_price, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tbl.lines)
	_, err = t.tx.Exec(ctx, query, line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.Total, line.Notes)
	if err != nil {
		return fmt.Errorf("orders: insert line into %s: %w", tbl.lines, err)
	}
	return nil
}

func (t *txRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	return existsQuery(ctx, t.tx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id)
}

func (t *txRepository) UpdateProductPurchase(ctx context.Context, productID int64, unitCost float64, date time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE products SET purchase_price = $2, last_purchase_date = $3, updated_at = NOW()
		WHERE id = $1
	`, productID, unitCost, date)
	if err != nil {
		return fmt.Errorf("orders: update product %d purchase snapshot: %w", productID, err)
	}
	return nil
}

func (t *txRepository) UpdateProductSale(ctx context.Context, productID int64, date time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE products SET last_sale_date = $2, updated_at = NOW()
		WHERE id = $1
	`, productID, date)
	if err != nil {
		return fmt.Errorf("orders: update product %d sale snapshot: %w", productID, err)
	}
	return nil
}

func (t *txRepository) RecordCost(ctx context.Context, productID int64, cost float64, at time.Time, orderID int64) error {
	_, err := t.costs.Record(ctx, t.tx, productID, cost, at, &orderID)
	return err
}

func (t *txRepository) AdjustStock(ctx context.Context, key stock.EntryKey, delta float64) error {
	_, err := t.ledger.Adjust(ctx, t.tx, key, delta)
	return err
}

func (t *txRepository) SyncProductQuantity(ctx context.Context, productID int64) error {
	return t.ledger.SyncProductQuantity(ctx, t.tx, productID)
}

func (t *txRepository) GetForUpdate(ctx context.Context, series sequence.Series, id int64) (Details, error) {
	return loadDetails(ctx, t.tx, series, `id = $1 FOR UPDATE`, id)
}

func (t *txRepository) DeleteLines(ctx context.Context, series sequence.Series, orderID int64) error {
	tbl, err := tablesFor(series)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE order_id = $1`, tbl.lines), orderID)
	if err != nil {
		return fmt.Errorf("orders: delete lines from %s: %w", tbl.lines, err)
	}
	return nil
}

func (t *txRepository) DeleteOrder(ctx context.Context, series sequence.Series, orderID int64) error {
	tbl, err := tablesFor(series)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tbl.orders), orderID)
	if err != nil {
		return fmt.Errorf("orders: delete from %s: %w", tbl.orders, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

type orderTables struct {
	orders string
	lines  string
}

func tablesFor(series sequence.Series) (orderTables, error) {
	switch series {
	case sequence.SeriesPurchase:
		return orderTables{orders: "purchase_orders", lines: "purchase_order_lines"}, nil
	case sequence.SeriesSale:
		return orderTables{orders: "sale_orders", lines: "sale_order_lines"}, nil
	default:
		return orderTables{}, sequence.ErrUnknownSeries
	}
}

func existsQuery(ctx context.Context, q db.Querier, query string, id int64) (bool, error) {
	var ok bool
	if err := q.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("orders: existence check: %w", err)
	}
	return ok, nil
}

func loadDetails(ctx context.Context, q db.Querier, series sequence.Series, where string, arg any) (Details, error) {
	tbl, err := tablesFor(series)
	if err != nil {
		return Details{}, err
	}

	var (
		order Order
		query string
	)
	order.Series = series
	switch series {
	case sequence.SeriesPurchase:
		query = fmt.Sprintf(`
			SELECT id, number, invoice_number, supplier_id, location_id, order_date, notes, total_amount, created_by, created_at
			FROM %s WHERE %s
		`, tbl.orders, where)
		err = q.QueryRow(ctx, query, arg).Scan(&order.ID, &order.Number, &order.InvoiceNumber,
			&order.CounterpartyID, &order.LocationID, &order.OrderDate, &order.Notes,
			&order.TotalAmount, &order.CreatedBy, &order.CreatedAt)
	case sequence.SeriesSale:
		query = fmt.Sprintf(`
			SELECT id, number, invoice_number, customer_id, location_id, order_date, payment_method, status, notes, total_amount, created_by, created_at
			FROM %s WHERE %s
		`, tbl.orders, where)
		err = q.QueryRow(ctx, query, arg).Scan(&order.ID, &order.Number, &order.InvoiceNumber,
			&order.CounterpartyID, &order.LocationID, &order.OrderDate, &order.PaymentMethod,
			&order.Status, &order.Notes, &order.TotalAmount, &order.CreatedBy, &order.CreatedAt)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Details{}, ErrOrderNotFound
		}
		return Details{}, fmt.Errorf("orders: load %s: %w", tbl.orders, err)
	}

	rows, err := q.Query(ctx, fmt.Sprintf(`
		SELECT id, order_id, product_id, quantity, unit_price, total, notes
		FROM %s WHERE order_id = $1 ORDER BY id
	`, tbl.lines), order.ID)
	if err != nil {
		return Details{}, fmt.Errorf("orders: load lines from %s: %w", tbl.lines, err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity,
			&line.UnitPrice, &line.Total, &line.Notes); err != nil {
			return Details{}, fmt.Errorf("orders: scan line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return Details{}, fmt.Errorf("orders: iterate lines: %w", err)
	}
	return Details{Order: order, Lines: lines}, nil
}
