package masterdata

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Service exposes master data use cases to handlers.
type Service interface {
	ListProducts(ctx context.Context, filters ListFilters) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
	UpdateProduct(ctx context.Context, id int64, product Product) error
	DeleteProduct(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, category Category) (Category, error)
	UpdateCategory(ctx context.Context, id int64, category Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListBrands(ctx context.Context) ([]Brand, error)
	CreateBrand(ctx context.Context, brand Brand) (Brand, error)
	UpdateBrand(ctx context.Context, id int64, brand Brand) error
	DeleteBrand(ctx context.Context, id int64) error

	ListUnits(ctx context.Context) ([]Unit, error)
	CreateUnit(ctx context.Context, unit Unit) (Unit, error)
	UpdateUnit(ctx context.Context, id int64, unit Unit) error
	DeleteUnit(ctx context.Context, id int64) error

	ListLocations(ctx context.Context) ([]Location, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	CreateLocation(ctx context.Context, location Location) (Location, error)
	UpdateLocation(ctx context.Context, id int64, location Location) error
	DeleteLocation(ctx context.Context, id int64) error

	ListShelves(ctx context.Context, locationID int64) ([]Shelf, error)
	CreateShelf(ctx context.Context, shelf Shelf) (Shelf, error)
	DeleteShelf(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context, filters ListFilters) ([]Supplier, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	CreateSupplier(ctx context.Context, supplier Supplier) (Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, supplier Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error

	ListCustomers(ctx context.Context, filters ListFilters) ([]Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	CreateCustomer(ctx context.Context, customer Customer) (Customer, error)
	UpdateCustomer(ctx context.Context, id int64, customer Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
}

// service implements Service.
type service struct {
	repo Repository
}

// NewService creates a new master data service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func invalid(field string) error {
	return fmt.Errorf("%s is required: %w", field, ErrInvalid)
}

// cleanText trims whitespace and NFC-normalises user-entered text so the
// unique indexes on codes and names compare composed forms consistently.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("id must be positive: %w", ErrInvalid)
	}
	return nil
}

// Product operations

func (s *service) ListProducts(ctx context.Context, filters ListFilters) ([]Product, error) {
	return s.repo.ListProducts(ctx, filters)
}

func (s *service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if err := checkID(id); err != nil {
		return Product{}, err
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *service) CreateProduct(ctx context.Context, product Product) (Product, error) {
	if err := s.validateProduct(&product); err != nil {
		return Product{}, err
	}
	return s.repo.CreateProduct(ctx, product)
}

func (s *service) UpdateProduct(ctx context.Context, id int64, product Product) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.validateProduct(&product); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, id, product)
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *service) validateProduct(p *Product) error {
	p.SKU = cleanText(p.SKU)
	p.Name = cleanText(p.Name)
	if p.SKU == "" {
		return invalid("sku")
	}
	if p.Name == "" {
		return invalid("name")
	}
	if p.PurchasePrice < 0 {
		return fmt.Errorf("purchase_price must not be negative: %w", ErrInvalid)
	}
	return nil
}

// Category operations

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) CreateCategory(ctx context.Context, category Category) (Category, error) {
	category.Name = cleanText(category.Name)
	if category.Name == "" {
		return Category{}, invalid("name")
	}
	return s.repo.CreateCategory(ctx, category)
}

func (s *service) UpdateCategory(ctx context.Context, id int64, category Category) error {
	if err := checkID(id); err != nil {
		return err
	}
	category.Name = cleanText(category.Name)
	if category.Name == "" {
		return invalid("name")
	}
	return s.repo.UpdateCategory(ctx, id, category)
}

func (s *service) DeleteCategory(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, id)
}

// Brand operations

func (s *service) ListBrands(ctx context.Context) ([]Brand, error) {
	return s.repo.ListBrands(ctx)
}

func (s *service) CreateBrand(ctx context.Context, brand Brand) (Brand, error) {
	brand.Name = cleanText(brand.Name)
	if brand.Name == "" {
		return Brand{}, invalid("name")
	}
	return s.repo.CreateBrand(ctx, brand)
}

func (s *service) UpdateBrand(ctx context.Context, id int64, brand Brand) error {
	if err := checkID(id); err != nil {
		return err
	}
	brand.Name = cleanText(brand.Name)
	if brand.Name == "" {
		return invalid("name")
	}
	return s.repo.UpdateBrand(ctx, id, brand)
}

func (s *service) DeleteBrand(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.DeleteBrand(ctx, id)
}

// Unit operations

func (s *service) ListUnits(ctx context.Context) ([]Unit, error) {
	return s.repo.ListUnits(ctx)
}

func (s *service) CreateUnit(ctx context.Context, unit Unit) (Unit, error) {
	if err := validateCodeName(unit.Code, unit.Name); err != nil {
		return Unit{}, err
	}
	return s.repo.CreateUnit(ctx, unit)
}

func (s *service) UpdateUnit(ctx context.Context, id int64, unit Unit) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := validateCodeName(unit.Code, unit.Name); err != nil {
		return err
	}
	return s.repo.UpdateUnit(ctx, id, unit)
}

func (s *service) DeleteUnit(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.DeleteUnit(ctx, id)
}

// Location operations

func (s *service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.repo.ListLocations(ctx)
}

func (s *service) GetLocation(ctx context.Context, id int64) (Location, error) {
	if err := checkID(id); err != nil {
		return Location{}, err
	}
	return s.repo.GetLocation(ctx, id)
}

func (s *service) CreateLocation(ctx context.Context, location Location) (Location, error) {
	if err := validateCodeName(location.Code, location.Name); err != nil {
		return Location{}, err
	}
	return s.repo.CreateLocation(ctx, location)
}

func (s *service) UpdateLocation(ctx context.Context, id int64, location Location) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := validateCodeName(location.Code, location.Name); err != nil {
		return err
	}
	return s.repo.UpdateLocation(ctx, id, location)
}

func (s *service) DeleteLocation(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.DeleteLocation(ctx, id)
}

// Shelf operations

func (s *service) ListShelves(ctx context.Context, locationID int64) ([]Shelf, error) {
	if err := checkID(locationID); err != nil {
		return nil, err
	}
	return s.repo.ListShelves(ctx, locationID)
}

func (s *service) CreateShelf(ctx context.Context, shelf Shelf) (Shelf, error) {
	if err := checkID(shelf.LocationID); err != nil {
		return Shelf{}, err
	}
	if err := validateCodeName(shelf.Code, shelf.Name); err != nil {
		return Shelf{}, err
	}
	return s.repo.CreateShelf(ctx, shelf)
}

func (s *service) DeleteShelf(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.DeleteShelf(ctx, id)
}

// Supplier operations

func (s *service) ListSuppliers(ctx context.Context, filters ListFilters) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx, filters)
}

func (s *service) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	if err := checkID(id); err != nil {
		return Supplier{}, err
	}
	return s.repo.GetSupplier(ctx, id)
}

func (s *service) CreateSupplier(ctx context.Context, supplier Supplier) (Supplier, error) {
	if err := validateCodeName(supplier.Code, supplier.Name); err != nil {
		return Supplier{}, err
	}
	return s.repo.CreateSupplier(ctx, supplier)
}

func (s *service) UpdateSupplier(ctx context.Context, id int64, supplier Supplier) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := validateCodeName(supplier.Code, supplier.Name); err != nil {
		return err
	}
	return s.repo.UpdateSupplier(ctx, id, supplier)
}

func (s *service) DeleteSupplier(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.DeleteSupplier(ctx, id)
}

// Customer operations

func (s *service) ListCustomers(ctx context.Context, filters ListFilters) ([]Customer, error) {
	return s.repo.ListCustomers(ctx, filters)
}

func (s *service) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	if err := checkID(id); err != nil {
		return Customer{}, err
	}
	return s.repo.GetCustomer(ctx, id)
}

func (s *service) CreateCustomer(ctx context.Context, customer Customer) (Customer, error) {
	if err := validateCodeName(customer.Code, customer.Name); err != nil {
		return Customer{}, err
	}
	return s.repo.CreateCustomer(ctx, customer)
}

func (s *service) UpdateCustomer(ctx context.Context, id int64, customer Customer) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := validateCodeName(customer.Code, customer.Name); err != nil {
		return err
	}
	return s.repo.UpdateCustomer(ctx, id, customer)
}

func (s *service) DeleteCustomer(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.DeleteCustomer(ctx, id)
}

func validateCodeName(code, name string) error {
	if strings.TrimSpace(code) == "" {
		return invalid("code")
	}
	if strings.TrimSpace(name) == "" {
		return invalid("name")
	}
	return nil
}
