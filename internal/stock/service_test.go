package stock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	views      []EntryView
	queryCalls int
	thresholds map[int64][2]float64
}

func newMemoryRepo(views ...EntryView) *memoryRepo {
	return &memoryRepo{views: views, thresholds: make(map[int64][2]float64)}
}

func (r *memoryRepo) Query(ctx context.Context, filter QueryFilter) ([]EntryView, error) {
	r.queryCalls++
	result := make([]EntryView, len(r.views))
	copy(result, r.views)
	return result, nil
}

func (r *memoryRepo) UpdateThresholds(ctx context.Context, entryID int64, minStock, maxStock float64) error {
	if entryID > int64(len(r.views)) {
		return ErrEntryNotFound
	}
	r.thresholds[entryID] = [2]float64{minStock, maxStock}
	return nil
}

func (r *memoryRepo) CountLowStock(ctx context.Context) (int64, error) {
	return int64(len(r.views)), nil
}

func newTestService(t *testing.T, repo RepositoryPort) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewService(repo, NewCache(client, time.Minute))
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestQueryCachesUntilBump(t *testing.T) {
	repo := newMemoryRepo(EntryView{
		Entry:        Entry{ID: 1, ProductID: 7, LocationID: 2, Quantity: 10},
		ProductName:  "Arabica Beans",
		LocationName: "Main Warehouse",
	})
	svc, cleanup := newTestService(t, repo)
	defer cleanup()
	ctx := context.Background()

	first, err := svc.Query(ctx, QueryFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, repo.queryCalls)

	second, err := svc.Query(ctx, QueryFilter{})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.queryCalls, "second read should hit the cache")

	require.NoError(t, svc.cache.Bump(ctx))

	_, err = svc.Query(ctx, QueryFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, repo.queryCalls, "bumped version should force a reload")
}

func TestQueryWithoutCacheFallsThrough(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.Query(context.Background(), QueryFilter{Search: "beans"})
	require.NoError(t, err)
	require.Equal(t, 1, repo.queryCalls)
}

func TestUpdateThresholdsValidation(t *testing.T) {
	repo := newMemoryRepo(EntryView{Entry: Entry{ID: 1}})
	svc, cleanup := newTestService(t, repo)
	defer cleanup()
	ctx := context.Background()

	require.ErrorIs(t, svc.UpdateThresholds(ctx, 1, -1, 0), ErrInvalidThresholds)
	require.ErrorIs(t, svc.UpdateThresholds(ctx, 1, 10, 5), ErrInvalidThresholds)
	require.NoError(t, svc.UpdateThresholds(ctx, 1, 5, 50))
	require.Equal(t, [2]float64{5, 50}, repo.thresholds[1])

	require.ErrorIs(t, svc.UpdateThresholds(ctx, 99, 1, 2), ErrEntryNotFound)
}
