package stock

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Query(ctx context.Context, filter QueryFilter) ([]EntryView, error)
	UpdateThresholds(ctx context.Context, entryID int64, minStock, maxStock float64) error
	CountLowStock(ctx context.Context) (int64, error)
}

// Service serves ledger reads and threshold maintenance.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds Service. Cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Query lists ledger entries, served through the versioned cache. Committed
// writes become visible as soon as the writer bumps the cache version.
func (s *Service) Query(ctx context.Context, filter QueryFilter) ([]EntryView, error) {
	key, err := s.cache.BuildKey(ctx, "stock", "q", productToken(filter.ProductID), filter.Search, strconv.Itoa(filter.Limit))
	if err != nil {
		return s.repo.Query(ctx, filter)
	}
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		var views []EntryView
		err := s.cache.FetchJSON(ctx, key, &views, func(ctx context.Context) (interface{}, error) {
			return s.repo.Query(ctx, filter)
		})
		return views, err
	})
	if err != nil {
		return nil, err
	}
	return result.([]EntryView), nil
}

// UpdateThresholds sets the min/max stock levels of an entry.
func (s *Service) UpdateThresholds(ctx context.Context, entryID int64, minStock, maxStock float64) error {
	if minStock < 0 || maxStock < 0 || (maxStock > 0 && maxStock < minStock) {
		return ErrInvalidThresholds
	}
	if err := s.repo.UpdateThresholds(ctx, entryID, minStock, maxStock); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// CountLowStock reports entries at or below their minimum threshold.
func (s *Service) CountLowStock(ctx context.Context) (int64, error) {
	return s.repo.CountLowStock(ctx)
}

func productToken(id *int64) string {
	if id == nil {
		return "all"
	}
	return strconv.FormatInt(*id, 10)
}
