package masterdata

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo records calls and applies simple uniqueness rules for the
// entities the tests exercise.
type fakeRepo struct {
	Repository

	products  map[int64]Product
	skus      map[string]bool
	locations map[int64]Location
	shelves   map[int64]Shelf
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products:  map[int64]Product{},
		skus:      map[string]bool{},
		locations: map[int64]Location{},
		shelves:   map[int64]Shelf{},
	}
}

func (f *fakeRepo) CreateProduct(_ context.Context, p Product) (Product, error) {
	if f.skus[p.SKU] {
		return Product{}, ErrCodeTaken
	}
	f.nextID++
	p.ID = f.nextID
	f.products[p.ID] = p
	f.skus[p.SKU] = true
	return p, nil
}

func (f *fakeRepo) GetProduct(_ context.Context, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeRepo) CreateLocation(_ context.Context, l Location) (Location, error) {
	f.nextID++
	l.ID = f.nextID
	f.locations[l.ID] = l
	return l, nil
}

func (f *fakeRepo) CreateShelf(_ context.Context, s Shelf) (Shelf, error) {
	if _, ok := f.locations[s.LocationID]; !ok {
		return Shelf{}, ErrInUse
	}
	f.nextID++
	s.ID = f.nextID
	f.shelves[s.ID] = s
	return s, nil
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateProduct(context.Background(), Product{Name: "Widget"})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.CreateProduct(context.Background(), Product{SKU: "W-1"})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.CreateProduct(context.Background(), Product{SKU: "W-1", Name: "Widget", PurchasePrice: -1})
	require.ErrorIs(t, err, ErrInvalid)

	created, err := svc.CreateProduct(context.Background(), Product{SKU: "  W-1  ", Name: " Widget ", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "W-1", created.SKU)
	assert.Equal(t, "Widget", created.Name)
	assert.NotZero(t, created.ID)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateProduct(context.Background(), Product{SKU: "W-1", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), Product{SKU: "W-1", Name: "Other"})
	require.ErrorIs(t, err, ErrCodeTaken)
}

func TestGetProductInvalidID(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.GetProduct(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.GetProduct(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateShelfRequiresLocation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.CreateShelf(context.Background(), Shelf{Code: "A1", Name: "Aisle 1"})
	require.ErrorIs(t, err, ErrInvalid)

	location, err := svc.CreateLocation(context.Background(), Location{Code: "WH1", Name: "Main"})
	require.NoError(t, err)

	shelf, err := svc.CreateShelf(context.Background(), Shelf{LocationID: location.ID, Code: "A1", Name: "Aisle 1"})
	require.NoError(t, err)
	assert.Equal(t, location.ID, shelf.LocationID)
}

func TestValidateCodeName(t *testing.T) {
	require.Error(t, validateCodeName("", "Name"))
	require.Error(t, validateCodeName("CODE", "  "))
	require.Error(t, validateCodeName(strings.Repeat(" ", 4), "Name"))
	require.NoError(t, validateCodeName("CODE", "Name"))
}
