package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/internal/sequence"
	"github.com/stockpilot-erp/stockpilot/internal/shared"
	"github.com/stockpilot-erp/stockpilot/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	SupplierExists(ctx context.Context, id int64) (bool, error)
	CustomerExists(ctx context.Context, id int64) (bool, error)
	LocationExists(ctx context.Context, id int64) (bool, error)
	FindByNumber(ctx context.Context, series sequence.Series, number string) (Details, error)
	Get(ctx context.Context, series sequence.Series, id int64) (Details, error)
	UpdateDetails(ctx context.Context, series sequence.Series, id int64, invoiceNumber, notes *string) error
}

// TxRepository exposes the write operations of one order transaction. Every
// method runs on the same database transaction; there is no way to reach
// these operations outside a WithTx scope.
type TxRepository interface {
	NextNumber(ctx context.Context, series sequence.Series, date time.Time) (string, error)
	InsertOrder(ctx context.Context, order Order) (int64, error)
	InsertLine(ctx context.Context, series sequence.Series, line Line) error
	ProductExists(ctx context.Context, id int64) (bool, error)
	UpdateProductPurchase(ctx context.Context, productID int64, unitCost float64, date time.Time) error
	UpdateProductSale(ctx context.Context, productID int64, date time.Time) error
	RecordCost(ctx context.Context, productID int64, cost float64, at time.Time, orderID int64) error
	AdjustStock(ctx context.Context, key stock.EntryKey, delta float64) error
	SyncProductQuantity(ctx context.Context, productID int64) error
	GetForUpdate(ctx context.Context, series sequence.Series, id int64) (Details, error)
	DeleteLines(ctx context.Context, series sequence.Series, orderID int64) error
	DeleteOrder(ctx context.Context, series sequence.Series, orderID int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates cached stock reads after committed writes.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service orchestrates order creation: number allocation, header and lines,
// product snapshot updates, cost history and ledger effects, all inside one
// transaction.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache CachePort
}

// NewService constructs the order service. Audit and cache may be nil.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// CreatePurchase creates a purchase order and all of its side effects
// atomically: header + lines, product purchase price and date, cost history
// and inbound ledger adjustments.
func (s *Service) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (Details, error) {
	if err := ValidateCreatePurchase(req); err != nil {
		return Details{}, err
	}
	if err := s.checkReference(ctx, s.repo.SupplierExists, req.SupplierID, ErrSupplierNotFound); err != nil {
		return Details{}, err
	}
	if err := s.checkReference(ctx, s.repo.LocationExists, req.LocationID, ErrLocationNotFound); err != nil {
		return Details{}, err
	}

	var created Details
	run := func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, sequence.SeriesPurchase, req.Date)
		if err != nil {
			return err
		}
		supplierID := req.SupplierID
		order := Order{
			Series:         sequence.SeriesPurchase,
			Number:         number,
			InvoiceNumber:  req.InvoiceNumber,
			CounterpartyID: &supplierID,
			LocationID:     req.LocationID,
			OrderDate:      req.Date,
			Notes:          req.Notes,
			TotalAmount:    purchaseTotal(req.Lines),
			CreatedBy:      req.RegisteredBy,
		}
		orderID, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID

		lines := make([]Line, 0, len(req.Lines))
		for _, lr := range req.Lines {
			if err := s.checkProduct(ctx, tx, lr.ProductID); err != nil {
				return err
			}
			line := Line{
				OrderID:   orderID,
				ProductID: lr.ProductID,
				Quantity:  lr.Quantity,
				UnitPrice: lr.UnitCost,
				Total:     round2(lr.Quantity * lr.UnitCost),
				Notes:     lr.Notes,
			}
			if err := tx.InsertLine(ctx, sequence.SeriesPurchase, line); err != nil {
				return err
			}
			if err := tx.UpdateProductPurchase(ctx, lr.ProductID, lr.UnitCost, req.Date); err != nil {
				return err
			}
			if err := tx.RecordCost(ctx, lr.ProductID, lr.UnitCost, req.Date, orderID); err != nil {
				return err
			}
			key := stock.EntryKey{ProductID: lr.ProductID, LocationID: req.LocationID}
			if err := tx.AdjustStock(ctx, key, lr.Quantity); err != nil {
				return err
			}
			if err := tx.SyncProductQuantity(ctx, lr.ProductID); err != nil {
				return err
			}
			lines = append(lines, line)
		}
		created = Details{Order: order, Lines: lines}
		return nil
	}
	if err := s.runWithNumberRetry(ctx, run); err != nil {
		return Details{}, err
	}

	s.afterWrite(ctx, "ORDER_CREATE", created.Order)
	return created, nil
}

// CreateSale creates a sale order, decrementing stock. Any line that would
// drive a ledger entry negative fails the whole transaction with
// stock.ErrInsufficientStock.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (Details, error) {
	if err := ValidateCreateSale(req); err != nil {
		return Details{}, err
	}
	if req.CustomerID != nil {
		if err := s.checkReference(ctx, s.repo.CustomerExists, *req.CustomerID, ErrCustomerNotFound); err != nil {
			return Details{}, err
		}
	}
	if err := s.checkReference(ctx, s.repo.LocationExists, req.LocationID, ErrLocationNotFound); err != nil {
		return Details{}, err
	}
	status := req.Status
	if status == "" {
		status = "COMPLETED"
	}

	var created Details
	run := func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, sequence.SeriesSale, req.Date)
		if err != nil {
			return err
		}
		order := Order{
			Series:         sequence.SeriesSale,
			Number:         number,
			CounterpartyID: req.CustomerID,
			LocationID:     req.LocationID,
			OrderDate:      req.Date,
			PaymentMethod:  req.PaymentMethod,
			Status:         status,
			Notes:          req.Notes,
			TotalAmount:    saleTotal(req.Lines),
			CreatedBy:      req.SoldBy,
		}
		orderID, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID

		lines := make([]Line, 0, len(req.Lines))
		for _, lr := range req.Lines {
			if err := s.checkProduct(ctx, tx, lr.ProductID); err != nil {
				return err
			}
			line := Line{
				OrderID:   orderID,
				ProductID: lr.ProductID,
				Quantity:  lr.Quantity,
				UnitPrice: lr.UnitPrice,
				Total:     round2(lr.Quantity * lr.UnitPrice),
				Notes:     lr.Notes,
			}
			if err := tx.InsertLine(ctx, sequence.SeriesSale, line); err != nil {
				return err
			}
			if err := tx.UpdateProductSale(ctx, lr.ProductID, req.Date); err != nil {
				return err
			}
			key := stock.EntryKey{ProductID: lr.ProductID, LocationID: req.LocationID}
			if err := tx.AdjustStock(ctx, key, -lr.Quantity); err != nil {
				return err
			}
			if err := tx.SyncProductQuantity(ctx, lr.ProductID); err != nil {
				return err
			}
			lines = append(lines, line)
		}
		created = Details{Order: order, Lines: lines}
		return nil
	}
	if err := s.runWithNumberRetry(ctx, run); err != nil {
		return Details{}, err
	}

	s.afterWrite(ctx, "ORDER_CREATE", created.Order)
	return created, nil
}

// GetByNumber dispatches on the order-number prefix to the purchase or sale
// series.
func (s *Service) GetByNumber(ctx context.Context, number string) (Details, error) {
	series, _, _, err := sequence.Parse(number)
	if err != nil {
		return Details{}, err
	}
	return s.repo.FindByNumber(ctx, series, number)
}

// Get loads one order with lines.
func (s *Service) Get(ctx context.Context, series sequence.Series, id int64) (Details, error) {
	return s.repo.Get(ctx, series, id)
}

// UpdateDetails edits the mutable header fields: invoice number and notes.
func (s *Service) UpdateDetails(ctx context.Context, series sequence.Series, id int64, req UpdateDetailsRequest) error {
	if req.InvoiceNumber == nil && req.Notes == nil {
		return nil
	}
	return s.repo.UpdateDetails(ctx, series, id, req.InvoiceNumber, req.Notes)
}

// Delete removes an order as a compensating transaction: every line's
// ledger effect is reversed (floor-checked) and the product aggregates are
// recomputed before the rows go away. The allocated number is never reused.
func (s *Service) Delete(ctx context.Context, series sequence.Series, id int64) error {
	var deleted Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		details, err := tx.GetForUpdate(ctx, series, id)
		if err != nil {
			return err
		}
		sign := -1.0
		if series == sequence.SeriesSale {
			sign = 1.0
		}
		for _, line := range details.Lines {
			key := stock.EntryKey{ProductID: line.ProductID, LocationID: details.Order.LocationID}
			if err := tx.AdjustStock(ctx, key, sign*line.Quantity); err != nil {
				return err
			}
			if err := tx.SyncProductQuantity(ctx, line.ProductID); err != nil {
				return err
			}
		}
		if err := tx.DeleteLines(ctx, series, id); err != nil {
			return err
		}
		if err := tx.DeleteOrder(ctx, series, id); err != nil {
			return err
		}
		deleted = details.Order
		return nil
	})
	if err != nil {
		return err
	}
	s.afterWrite(ctx, "ORDER_DELETE", deleted)
	return nil
}

// runWithNumberRetry executes the transactional closure, re-running it once
// when the order number loses the storage-level uniqueness race or the
// transaction loses a lock race to a concurrent writer.
func (s *Service) runWithNumberRetry(ctx context.Context, run func(context.Context, TxRepository) error) error {
	err := s.repo.WithTx(ctx, run)
	if errors.Is(err, ErrNumberConflict) || db.IsSerializationFailure(err) {
		err = s.repo.WithTx(ctx, run)
	}
	return err
}

func (s *Service) checkReference(ctx context.Context, exists func(context.Context, int64) (bool, error), id int64, notFound error) error {
	ok, err := exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("id %d: %w", id, notFound)
	}
	return nil
}

func (s *Service) checkProduct(ctx context.Context, tx TxRepository, productID int64) error {
	ok, err := tx.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
	}
	return nil
}

func (s *Service) afterWrite(ctx context.Context, action string, order Order) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  order.CreatedBy,
			Action:   action,
			Entity:   "order",
			EntityID: order.Number,
			Meta: map[string]any{
				"series": string(order.Series),
				"total":  order.TotalAmount,
			},
		})
	}
}

func purchaseTotal(lines []PurchaseLineRequest) float64 {
	var total float64
	for _, l := range lines {
		total += round2(l.Quantity * l.UnitCost)
	}
	return round2(total)
}

func saleTotal(lines []SaleLineRequest) float64 {
	var total float64
	for _, l := range lines {
		total += round2(l.Quantity * l.UnitPrice)
	}
	return round2(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
