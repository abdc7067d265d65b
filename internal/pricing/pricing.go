// Package pricing derives selling prices from acquisition costs via a
// margin percentage expressed on the selling price.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

// ProductPrice is the pricing view of one product.
type ProductPrice struct {
	ProductID     int64    `json:"product_id"`
	CategoryID    *int64   `json:"category_id,omitempty"`
	PurchasePrice float64  `json:"purchase_price"`
	MarginPercent float64  `json:"margin_percent"`
	SellingPrice  *float64 `json:"selling_price,omitempty"`
}

// ApplyMarginRequest sets a margin percentage on every product, optionally
// narrowed to one category.
type ApplyMarginRequest struct {
	Percent    float64 `json:"percent" validate:"gte=0,lt=100"`
	CategoryID *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	AppliedBy  int64   `json:"applied_by" validate:"gte=0"`
}

// ApplyMarginResult reports how far a margin sweep got.
type ApplyMarginResult struct {
	Updated int `json:"updated"`
}

// ErrInvalidPercent rejects margins outside the [0, 100) interval.
var ErrInvalidPercent = errors.New("pricing: percent must be at least 0 and below 100")

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	ListPrices(ctx context.Context, categoryID *int64) ([]ProductPrice, error)
	SetMargin(ctx context.Context, productID int64, percent float64, sellingPrice *float64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service sweeps margins product by product. Each product update is its own
// write, so a failure mid-sweep leaves earlier products updated; re-running
// with the same arguments converges on the same prices.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs the pricing service. Audit may be nil.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ApplyMargin stores the margin on each matching product and recomputes the
// selling price for those with a known positive acquisition cost. Products
// without a cost keep no selling price: the margin waits for the first
// purchase to give it a base. A zero percentage stores the margin and
// leaves prices alone. Returns the number of products updated, which on
// error counts the products written before the sweep stopped.
func (s *Service) ApplyMargin(ctx context.Context, req ApplyMarginRequest) (ApplyMarginResult, error) {
	if req.Percent < 0 || req.Percent >= 100 {
		return ApplyMarginResult{}, ErrInvalidPercent
	}

	prices, err := s.repo.ListPrices(ctx, req.CategoryID)
	if err != nil {
		return ApplyMarginResult{}, err
	}

	var result ApplyMarginResult
	for _, p := range prices {
		selling := SellingPrice(p.PurchasePrice, req.Percent)
		if err := s.repo.SetMargin(ctx, p.ProductID, req.Percent, selling); err != nil {
			return result, fmt.Errorf("pricing: sweep stopped at product %d: %w", p.ProductID, err)
		}
		result.Updated++
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  req.AppliedBy,
			Action:   "PRICING_APPLY_MARGIN",
			Entity:   "pricing",
			EntityID: "margin",
			Meta: map[string]any{
				"percent": req.Percent,
				"updated": result.Updated,
			},
		})
	}
	return result, nil
}

// ListPrices returns the current pricing view, optionally for one category.
func (s *Service) ListPrices(ctx context.Context, categoryID *int64) ([]ProductPrice, error) {
	return s.repo.ListPrices(ctx, categoryID)
}

// SellingPrice computes the price yielding the given margin percentage of
// the selling price over cost, rounded to 2 decimals. Returns nil when the
// cost or percentage gives the formula no base to work from.
func SellingPrice(cost, percent float64) *float64 {
	if cost <= 0 || percent <= 0 || percent >= 100 {
		return nil
	}
	price := math.Round(cost/(1-percent/100)*100) / 100
	return &price
}
