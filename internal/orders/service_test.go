package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/internal/sequence"
	"github.com/stockpilot-erp/stockpilot/internal/stock"
)

type orderKey struct {
	series sequence.Series
	id     int64
}

type stockKey struct {
	productID  int64
	locationID int64
}

// memoryRepo is an in-memory RepositoryPort. WithTx snapshots all state and
// restores it when the closure fails, matching transactional rollback.
// Counters survive rollback: issued numbers are never recycled, and a number
// conflict implies a concurrent writer already advanced the counter.
type memoryRepo struct {
	mu sync.Mutex

	suppliers map[int64]bool
	customers map[int64]bool
	locations map[int64]bool
	products  map[int64]bool

	stock      map[stockKey]float64
	productQty map[int64]float64
	counters   map[string]int64
	orders     map[orderKey]Details
	costs      map[int64][]float64
	nextID     int64

	conflictsLeft      int
	serializationsLeft int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		suppliers:  map[int64]bool{1: true},
		customers:  map[int64]bool{1: true},
		locations:  map[int64]bool{1: true},
		products:   map[int64]bool{10: true, 11: true},
		stock:      map[stockKey]float64{},
		productQty: map[int64]float64{},
		counters:   map[string]int64{},
		orders:     map[orderKey]Details{},
		costs:      map[int64][]float64{},
	}
}

func (r *memoryRepo) snapshot() *memoryRepo {
	s := &memoryRepo{
		stock:      map[stockKey]float64{},
		productQty: map[int64]float64{},
		orders:     map[orderKey]Details{},
		costs:      map[int64][]float64{},
		nextID:     r.nextID,
	}
	for k, v := range r.stock {
		s.stock[k] = v
	}
	for k, v := range r.productQty {
		s.productQty[k] = v
	}
	for k, v := range r.orders {
		s.orders[k] = v
	}
	for k, v := range r.costs {
		s.costs[k] = append([]float64(nil), v...)
	}
	return s
}

func (r *memoryRepo) restore(s *memoryRepo) {
	r.stock = s.stock
	r.productQty = s.productQty
	r.orders = s.orders
	r.costs = s.costs
	r.nextID = s.nextID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.restore(saved)
		return err
	}
	return nil
}

func (r *memoryRepo) SupplierExists(_ context.Context, id int64) (bool, error) {
	return r.suppliers[id], nil
}

func (r *memoryRepo) CustomerExists(_ context.Context, id int64) (bool, error) {
	return r.customers[id], nil
}

func (r *memoryRepo) LocationExists(_ context.Context, id int64) (bool, error) {
	return r.locations[id], nil
}

func (r *memoryRepo) FindByNumber(_ context.Context, series sequence.Series, number string) (Details, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, d := range r.orders {
		if k.series == series && d.Order.Number == number {
			return d, nil
		}
	}
	return Details{}, ErrOrderNotFound
}

func (r *memoryRepo) Get(_ context.Context, series sequence.Series, id int64) (Details, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.orders[orderKey{series, id}]
	if !ok {
		return Details{}, ErrOrderNotFound
	}
	return d, nil
}

func (r *memoryRepo) UpdateDetails(_ context.Context, series sequence.Series, id int64, invoiceNumber, notes *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.orders[orderKey{series, id}]
	if !ok {
		return ErrOrderNotFound
	}
	if invoiceNumber != nil {
		d.Order.InvoiceNumber = *invoiceNumber
	}
	if notes != nil {
		d.Order.Notes = *notes
	}
	r.orders[orderKey{series, id}] = d
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) NextNumber(_ context.Context, series sequence.Series, date time.Time) (string, error) {
	day := sequence.DayKey(date)
	key := string(series) + "|" + day
	t.repo.counters[key]++
	return sequence.Format(series, day, t.repo.counters[key])
}

func (t *memoryTx) InsertOrder(_ context.Context, order Order) (int64, error) {
	if t.repo.conflictsLeft > 0 {
		t.repo.conflictsLeft--
		return 0, fmt.Errorf("%s: %w", order.Number, ErrNumberConflict)
	}
	if t.repo.serializationsLeft > 0 {
		t.repo.serializationsLeft--
		return 0, fmt.Errorf("insert order: %w", &pgconn.PgError{
			Code:    "40001",
			Message: "could not serialize access due to concurrent update",
		})
	}
	t.repo.nextID++
	order.ID = t.repo.nextID
	t.repo.orders[orderKey{order.Series, order.ID}] = Details{Order: order}
	return order.ID, nil
}

func (t *memoryTx) InsertLine(_ context.Context, series sequence.Series, line Line) error {
	k := orderKey{series, line.OrderID}
	d := t.repo.orders[k]
	line.ID = int64(len(d.Lines) + 1)
	d.Lines = append(d.Lines, line)
	t.repo.orders[k] = d
	return nil
}

func (t *memoryTx) ProductExists(_ context.Context, id int64) (bool, error) {
	return t.repo.products[id], nil
}

func (t *memoryTx) UpdateProductPurchase(_ context.Context, _ int64, _ float64, _ time.Time) error {
	return nil
}

func (t *memoryTx) UpdateProductSale(_ context.Context, _ int64, _ time.Time) error {
	return nil
}

func (t *memoryTx) RecordCost(_ context.Context, productID int64, cost float64, _ time.Time, _ int64) error {
	history := t.repo.costs[productID]
	if len(history) > 0 && history[len(history)-1] == cost {
		return nil
	}
	t.repo.costs[productID] = append(history, cost)
	return nil
}

func (t *memoryTx) AdjustStock(_ context.Context, key stock.EntryKey, delta float64) error {
	k := stockKey{key.ProductID, key.LocationID}
	if t.repo.stock[k]+delta < 0 {
		return stock.ErrInsufficientStock
	}
	t.repo.stock[k] += delta
	return nil
}

func (t *memoryTx) SyncProductQuantity(_ context.Context, productID int64) error {
	var sum float64
	for k, qty := range t.repo.stock {
		if k.productID == productID {
			sum += qty
		}
	}
	t.repo.productQty[productID] = sum
	return nil
}

func (t *memoryTx) GetForUpdate(_ context.Context, series sequence.Series, id int64) (Details, error) {
	d, ok := t.repo.orders[orderKey{series, id}]
	if !ok {
		return Details{}, ErrOrderNotFound
	}
	return d, nil
}

func (t *memoryTx) DeleteLines(_ context.Context, series sequence.Series, orderID int64) error {
	k := orderKey{series, orderID}
	if d, ok := t.repo.orders[k]; ok {
		d.Lines = nil
		t.repo.orders[k] = d
	}
	return nil
}

func (t *memoryTx) DeleteOrder(_ context.Context, series sequence.Series, orderID int64) error {
	k := orderKey{series, orderID}
	if _, ok := t.repo.orders[k]; !ok {
		return ErrOrderNotFound
	}
	delete(t.repo.orders, k)
	return nil
}

var testDate = time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)

func purchaseRequest(lines ...PurchaseLineRequest) CreatePurchaseRequest {
	return CreatePurchaseRequest{
		SupplierID:   1,
		LocationID:   1,
		Date:         testDate,
		RegisteredBy: 7,
		Lines:        lines,
	}
}

func saleRequest(lines ...SaleLineRequest) CreateSaleRequest {
	customer := int64(1)
	return CreateSaleRequest{
		CustomerID:    &customer,
		LocationID:    1,
		Date:          testDate,
		PaymentMethod: "CASH",
		SoldBy:        7,
		Lines:         lines,
	}
}

func TestCreatePurchaseNumbersAndStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	first, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 5, UnitCost: 80},
	))
	require.NoError(t, err)
	assert.Equal(t, "OC-20240613-0001", first.Order.Number)
	assert.Equal(t, 400.0, first.Order.TotalAmount)

	second, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 3, UnitCost: 80},
	))
	require.NoError(t, err)
	assert.Equal(t, "OC-20240613-0002", second.Order.Number)

	assert.Equal(t, 8.0, repo.stock[stockKey{10, 1}])
	assert.Equal(t, 8.0, repo.productQty[10])
	// same cost twice records one history entry
	assert.Equal(t, []float64{80}, repo.costs[10])
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 10, UnitCost: 50},
	))
	require.NoError(t, err)

	sale, err := svc.CreateSale(context.Background(), saleRequest(
		SaleLineRequest{ProductID: 10, Quantity: 4, UnitPrice: 25},
	))
	require.NoError(t, err)
	assert.Equal(t, "ORD-V-20240613-0001", sale.Order.Number)
	assert.Equal(t, 100.0, sale.Order.TotalAmount)
	assert.Equal(t, "COMPLETED", sale.Order.Status)

	assert.Equal(t, 6.0, repo.stock[stockKey{10, 1}])
	assert.Equal(t, 6.0, repo.productQty[10])
}

func TestCreateSaleInsufficientStockRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 10, UnitCost: 50},
	))
	require.NoError(t, err)

	_, err = svc.CreateSale(context.Background(), saleRequest(
		SaleLineRequest{ProductID: 10, Quantity: 6, UnitPrice: 25},
		SaleLineRequest{ProductID: 10, Quantity: 6, UnitPrice: 25},
	))
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	// the whole sale rolled back, including the first line's decrement
	assert.Equal(t, 10.0, repo.stock[stockKey{10, 1}])
	assert.Len(t, repo.orders, 1)
}

func TestCreatePurchaseRetriesNumberConflict(t *testing.T) {
	repo := newMemoryRepo()
	repo.conflictsLeft = 1
	svc := NewService(repo, nil, nil)

	details, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 1, UnitCost: 10},
	))
	require.NoError(t, err)
	// the first attempt consumed 0001; the retry gets a fresh number
	assert.Equal(t, "OC-20240613-0002", details.Order.Number)
}

func TestCreatePurchaseRetriesSerializationFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.serializationsLeft = 1
	svc := NewService(repo, nil, nil)

	details, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 1, UnitCost: 10},
	))
	require.NoError(t, err)
	assert.Equal(t, "OC-20240613-0002", details.Order.Number)
	assert.Equal(t, 1.0, repo.stock[stockKey{10, 1}])
}

func TestCreatePurchaseTwoSerializationFailuresSurface(t *testing.T) {
	repo := newMemoryRepo()
	repo.serializationsLeft = 2
	svc := NewService(repo, nil, nil)

	_, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 1, UnitCost: 10},
	))
	require.Error(t, err)
	assert.True(t, db.IsSerializationFailure(err))
	assert.Empty(t, repo.orders)
}

func TestCreatePurchaseTwoConflictsFails(t *testing.T) {
	repo := newMemoryRepo()
	repo.conflictsLeft = 2
	svc := NewService(repo, nil, nil)

	_, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 1, UnitCost: 10},
	))
	require.ErrorIs(t, err, ErrNumberConflict)
	assert.Empty(t, repo.orders)
}

func TestCreatePurchaseUnknownReferences(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	req := purchaseRequest(PurchaseLineRequest{ProductID: 10, Quantity: 1, UnitCost: 10})
	req.SupplierID = 99
	_, err := svc.CreatePurchase(context.Background(), req)
	require.ErrorIs(t, err, ErrSupplierNotFound)

	req = purchaseRequest(PurchaseLineRequest{ProductID: 99, Quantity: 1, UnitCost: 10})
	_, err = svc.CreatePurchase(context.Background(), req)
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, repo.orders)
	assert.Zero(t, repo.stock[stockKey{10, 1}])
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.CreatePurchase(context.Background(), purchaseRequest())
	require.ErrorIs(t, err, ErrEmptyLines)

	_, err = svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 0, UnitCost: 10},
	))
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CreateSale(context.Background(), saleRequest(
		SaleLineRequest{ProductID: 10, Quantity: 1, UnitPrice: 0},
	))
	require.ErrorIs(t, err, ErrInvalidPrice)

	req := purchaseRequest(PurchaseLineRequest{ProductID: 10, Quantity: 1, UnitCost: 10})
	req.Date = time.Time{}
	_, err = svc.CreatePurchase(context.Background(), req)
	require.ErrorIs(t, err, ErrMissingDate)
}

func TestGetByNumberMalformed(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.GetByNumber(context.Background(), "nonsense")
	require.ErrorIs(t, err, sequence.ErrMalformedNumber)
}

func TestGetByNumberRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 2, UnitCost: 30},
	))
	require.NoError(t, err)

	found, err := svc.GetByNumber(context.Background(), created.Order.Number)
	require.NoError(t, err)
	assert.Equal(t, created.Order.ID, found.Order.ID)
	assert.Len(t, found.Lines, 1)

	_, err = svc.GetByNumber(context.Background(), "OC-20240613-9999")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteReversesStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	purchase, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 10, UnitCost: 50},
	))
	require.NoError(t, err)

	sale, err := svc.CreateSale(context.Background(), saleRequest(
		SaleLineRequest{ProductID: 10, Quantity: 4, UnitPrice: 90},
	))
	require.NoError(t, err)
	require.Equal(t, 6.0, repo.stock[stockKey{10, 1}])

	// deleting the sale puts the sold quantity back
	require.NoError(t, svc.Delete(context.Background(), sequence.SeriesSale, sale.Order.ID))
	assert.Equal(t, 10.0, repo.stock[stockKey{10, 1}])
	assert.Equal(t, 10.0, repo.productQty[10])

	// deleting the purchase removes the received quantity
	require.NoError(t, svc.Delete(context.Background(), sequence.SeriesPurchase, purchase.Order.ID))
	assert.Equal(t, 0.0, repo.stock[stockKey{10, 1}])
	assert.Empty(t, repo.orders)
}

func TestDeletePurchaseBlockedWhenStockConsumed(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	purchase, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 10, UnitCost: 50},
	))
	require.NoError(t, err)

	_, err = svc.CreateSale(context.Background(), saleRequest(
		SaleLineRequest{ProductID: 10, Quantity: 8, UnitPrice: 90},
	))
	require.NoError(t, err)

	// only 2 remain; reversing the 10-unit receipt would go negative
	err = svc.Delete(context.Background(), sequence.SeriesPurchase, purchase.Order.ID)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)
	assert.Equal(t, 2.0, repo.stock[stockKey{10, 1}])
	assert.Len(t, repo.orders, 2)
}

func TestUpdateDetails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.CreatePurchase(context.Background(), purchaseRequest(
		PurchaseLineRequest{ProductID: 10, Quantity: 1, UnitCost: 10},
	))
	require.NoError(t, err)

	invoice := "INV-42"
	require.NoError(t, svc.UpdateDetails(context.Background(), sequence.SeriesPurchase, created.Order.ID, UpdateDetailsRequest{InvoiceNumber: &invoice}))

	found, err := svc.Get(context.Background(), sequence.SeriesPurchase, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-42", found.Order.InvoiceNumber)
	// number and totals never change through detail edits
	assert.Equal(t, created.Order.Number, found.Order.Number)
	assert.Equal(t, created.Order.TotalAmount, found.Order.TotalAmount)

	err = svc.UpdateDetails(context.Background(), sequence.SeriesSale, created.Order.ID, UpdateDetailsRequest{Notes: &invoice})
	require.ErrorIs(t, err, ErrOrderNotFound)
}
