package pricing

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	prices    map[int64]ProductPrice
	failOn    int64
	setCalls  int
	listCalls int
}

func newMemoryRepo(prices ...ProductPrice) *memoryRepo {
	r := &memoryRepo{prices: map[int64]ProductPrice{}}
	for _, p := range prices {
		r.prices[p.ProductID] = p
	}
	return r
}

func (r *memoryRepo) ListPrices(_ context.Context, categoryID *int64) ([]ProductPrice, error) {
	r.listCalls++
	var out []ProductPrice
	for _, p := range r.prices {
		if categoryID != nil && (p.CategoryID == nil || *p.CategoryID != *categoryID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *memoryRepo) SetMargin(_ context.Context, productID int64, percent float64, sellingPrice *float64) error {
	r.setCalls++
	if r.failOn != 0 && productID == r.failOn {
		return errors.New("write failed")
	}
	p := r.prices[productID]
	p.MarginPercent = percent
	if sellingPrice != nil {
		p.SellingPrice = sellingPrice
	}
	r.prices[productID] = p
	return nil
}

func catID(id int64) *int64 { return &id }

func TestSellingPrice(t *testing.T) {
	price := SellingPrice(80, 20)
	require.NotNil(t, price)
	// a 20% margin of the selling price over a cost of 80 yields 100
	assert.Equal(t, 100.0, *price)

	price = SellingPrice(10, 33)
	require.NotNil(t, price)
	assert.Equal(t, 14.93, *price)

	assert.Nil(t, SellingPrice(0, 20))
	assert.Nil(t, SellingPrice(-5, 20))
	assert.Nil(t, SellingPrice(80, 0))
	assert.Nil(t, SellingPrice(80, 100))
}

func TestApplyMargin(t *testing.T) {
	repo := newMemoryRepo(
		ProductPrice{ProductID: 1, PurchasePrice: 80},
		ProductPrice{ProductID: 2, PurchasePrice: 0},
	)
	svc := NewService(repo, nil)

	result, err := svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)

	priced := repo.prices[1]
	require.NotNil(t, priced.SellingPrice)
	assert.Equal(t, 100.0, *priced.SellingPrice)
	assert.Equal(t, 20.0, priced.MarginPercent)

	// product without a cost keeps the margin but no selling price yet
	unpriced := repo.prices[2]
	assert.Nil(t, unpriced.SellingPrice)
	assert.Equal(t, 20.0, unpriced.MarginPercent)
}

func TestApplyMarginIdempotent(t *testing.T) {
	repo := newMemoryRepo(ProductPrice{ProductID: 1, PurchasePrice: 80})
	svc := NewService(repo, nil)

	_, err := svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 20})
	require.NoError(t, err)
	first := *repo.prices[1].SellingPrice

	_, err = svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 20})
	require.NoError(t, err)
	assert.Equal(t, first, *repo.prices[1].SellingPrice)
}

func TestApplyMarginCategoryScope(t *testing.T) {
	repo := newMemoryRepo(
		ProductPrice{ProductID: 1, CategoryID: catID(7), PurchasePrice: 80},
		ProductPrice{ProductID: 2, CategoryID: catID(8), PurchasePrice: 50},
		ProductPrice{ProductID: 3, PurchasePrice: 50},
	)
	svc := NewService(repo, nil)

	result, err := svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 20, CategoryID: catID(7)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	require.NotNil(t, repo.prices[1].SellingPrice)
	assert.Equal(t, 100.0, *repo.prices[1].SellingPrice)
	assert.Nil(t, repo.prices[2].SellingPrice)
	assert.Zero(t, repo.prices[2].MarginPercent)
	assert.Nil(t, repo.prices[3].SellingPrice)
}

func TestApplyMarginEmptyCategory(t *testing.T) {
	repo := newMemoryRepo(ProductPrice{ProductID: 1, CategoryID: catID(7), PurchasePrice: 80})
	svc := NewService(repo, nil)

	result, err := svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 20, CategoryID: catID(99)})
	require.NoError(t, err)
	assert.Zero(t, result.Updated)
	assert.Zero(t, repo.setCalls)
}

func TestApplyMarginPartialSweep(t *testing.T) {
	repo := newMemoryRepo(
		ProductPrice{ProductID: 1, PurchasePrice: 50},
		ProductPrice{ProductID: 2, PurchasePrice: 50},
		ProductPrice{ProductID: 3, PurchasePrice: 50},
	)
	repo.failOn = 2
	svc := NewService(repo, nil)

	result, err := svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 10})
	require.Error(t, err)
	assert.Equal(t, 1, result.Updated)

	// the sweep is per product: the first write stays, the rest never ran
	assert.Equal(t, 10.0, repo.prices[1].MarginPercent)
	assert.Zero(t, repo.prices[2].MarginPercent)
	assert.Zero(t, repo.prices[3].MarginPercent)
}

func TestApplyMarginZeroPercent(t *testing.T) {
	repo := newMemoryRepo(ProductPrice{ProductID: 1, PurchasePrice: 80})
	svc := NewService(repo, nil)

	_, err := svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 20})
	require.NoError(t, err)
	require.NotNil(t, repo.prices[1].SellingPrice)
	priced := *repo.prices[1].SellingPrice

	// zero stores the margin but leaves the selling price untouched
	result, err := svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, repo.prices[1].MarginPercent)
	require.NotNil(t, repo.prices[1].SellingPrice)
	assert.Equal(t, priced, *repo.prices[1].SellingPrice)
}

func TestApplyMarginInvalidPercent(t *testing.T) {
	repo := newMemoryRepo(ProductPrice{ProductID: 1, PurchasePrice: 50})
	svc := NewService(repo, nil)

	_, err := svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: -5})
	require.ErrorIs(t, err, ErrInvalidPercent)

	_, err = svc.ApplyMargin(context.Background(), ApplyMarginRequest{Percent: 100})
	require.ErrorIs(t, err, ErrInvalidPercent)
	assert.Zero(t, repo.listCalls)
}
