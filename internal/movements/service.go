package movements

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/internal/shared"
	"github.com/stockpilot-erp/stockpilot/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ProductExists(ctx context.Context, id int64) (bool, error)
	LocationExists(ctx context.Context, id int64) (bool, error)
	ShelfInLocation(ctx context.Context, shelfID, locationID int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Movement, error)
}

// TxRepository is the transactional slice of the repository.
type TxRepository interface {
	Insert(ctx context.Context, movement Movement) (Movement, error)
	AdjustStock(ctx context.Context, key stock.EntryKey, delta float64) error
	SyncProductQuantity(ctx context.Context, productID int64) error
}

// CachePort invalidates cached stock reads after committed writes.
type CachePort interface {
	Bump(ctx context.Context) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records stock movements and applies their ledger effect in one
// transaction.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache CachePort
}

// NewService constructs the movement service. Audit and cache may be nil.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// Record validates the request, applies the ledger delta and persists the
// journal row atomically. An OUT movement larger than the entry's quantity
// fails with stock.ErrInsufficientStock and writes nothing.
func (s *Service) Record(ctx context.Context, req RecordRequest) (Movement, error) {
	if req.Quantity <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if req.Direction != DirectionIn && req.Direction != DirectionOut {
		return Movement{}, ErrInvalidDirection
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return Movement{}, err
	}

	delta := req.Quantity
	if req.Direction == DirectionOut {
		delta = -req.Quantity
	}
	movement := Movement{
		RefCode:    uuid.NewString(),
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		ShelfID:    req.ShelfID,
		Direction:  req.Direction,
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		Notes:      req.Notes,
		CreatedBy:  req.RecordedBy,
	}

	var recorded Movement
	run := func(ctx context.Context, tx TxRepository) error {
		key := stock.EntryKey{ProductID: req.ProductID, LocationID: req.LocationID, ShelfID: req.ShelfID}
		if err := tx.AdjustStock(ctx, key, delta); err != nil {
			return err
		}
		if err := tx.SyncProductQuantity(ctx, req.ProductID); err != nil {
			return err
		}
		var err error
		recorded, err = tx.Insert(ctx, movement)
		return err
	}
	err := s.repo.WithTx(ctx, run)
	if db.IsSerializationFailure(err) {
		// lost a lock race to a concurrent writer on the same entry
		err = s.repo.WithTx(ctx, run)
	}
	if err != nil {
		return Movement{}, err
	}

	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  req.RecordedBy,
			Action:   "MOVEMENT_RECORD",
			Entity:   "movement",
			EntityID: recorded.RefCode,
			Meta: map[string]any{
				"direction": recorded.Direction,
				"quantity":  recorded.Quantity,
			},
		})
	}
	return recorded, nil
}

// List returns journal rows, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Movement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) checkReferences(ctx context.Context, req RecordRequest) error {
	ok, err := s.repo.ProductExists(ctx, req.ProductID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("product %d: %w", req.ProductID, ErrProductNotFound)
	}
	ok, err = s.repo.LocationExists(ctx, req.LocationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("location %d: %w", req.LocationID, ErrLocationNotFound)
	}
	if req.ShelfID != nil {
		ok, err = s.repo.ShelfInLocation(ctx, *req.ShelfID, req.LocationID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("shelf %d: %w", *req.ShelfID, ErrShelfNotFound)
		}
	}
	return nil
}
