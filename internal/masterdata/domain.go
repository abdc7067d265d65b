// Package masterdata manages the reference entities every other module
// points at: products, categories, brands, units, locations with their
// shelves, suppliers and customers.
package masterdata

import (
	"context"
	"errors"
	"time"
)

// ListFilters represents standard list filters.
type ListFilters struct {
	Search     string
	Limit      int
	IsActive   *bool
	CategoryID *int64
	LocationID *int64
}

// Category represents a product category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Brand represents a product brand.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Unit represents a unit of measure.
type Unit struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Location represents a physical site holding stock.
type Location struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Shelf represents a storage position inside a location.
type Shelf struct {
	ID         int64  `json:"id"`
	LocationID int64  `json:"location_id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
}

// Supplier represents a vendor purchase orders are placed with.
type Supplier struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer represents a buyer on sale orders.
type Customer struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product represents a sellable item. The quantity and price snapshot
// columns are written by the order and pricing flows, never through this
// package.
type Product struct {
	ID               int64      `json:"id"`
	SKU              string     `json:"sku"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	CategoryID       *int64     `json:"category_id,omitempty"`
	BrandID          *int64     `json:"brand_id,omitempty"`
	UnitID           *int64     `json:"unit_id,omitempty"`
	PurchasePrice    float64    `json:"purchase_price"`
	SellingPrice     *float64   `json:"selling_price,omitempty"`
	MarginPercent    float64    `json:"margin_percent"`
	CurrentQuantity  float64    `json:"current_quantity"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"`
	LastSaleDate     *time.Time `json:"last_sale_date,omitempty"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Domain errors.
var (
	ErrNotFound  = errors.New("masterdata: not found")
	ErrCodeTaken = errors.New("masterdata: code already in use")
	ErrInUse     = errors.New("masterdata: entity is referenced and cannot be deleted")
	ErrInvalid   = errors.New("masterdata: invalid input")
)

// Repository interface for master data operations.
type Repository interface {
	// Product operations
	ListProducts(ctx context.Context, filters ListFilters) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
	UpdateProduct(ctx context.Context, id int64, product Product) error
	DeleteProduct(ctx context.Context, id int64) error

	// Category operations
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, category Category) (Category, error)
	UpdateCategory(ctx context.Context, id int64, category Category) error
	DeleteCategory(ctx context.Context, id int64) error

	// Brand operations
	ListBrands(ctx context.Context) ([]Brand, error)
	CreateBrand(ctx context.Context, brand Brand) (Brand, error)
	UpdateBrand(ctx context.Context, id int64, brand Brand) error
	DeleteBrand(ctx context.Context, id int64) error

	// Unit operations
	ListUnits(ctx context.Context) ([]Unit, error)
	CreateUnit(ctx context.Context, unit Unit) (Unit, error)
	UpdateUnit(ctx context.Context, id int64, unit Unit) error
	DeleteUnit(ctx context.Context, id int64) error

	// Location operations
	ListLocations(ctx context.Context) ([]Location, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	CreateLocation(ctx context.Context, location Location) (Location, error)
	UpdateLocation(ctx context.Context, id int64, location Location) error
	DeleteLocation(ctx context.Context, id int64) error

	// Shelf operations
	ListShelves(ctx context.Context, locationID int64) ([]Shelf, error)
	CreateShelf(ctx context.Context, shelf Shelf) (Shelf, error)
	DeleteShelf(ctx context.Context, id int64) error

	// Supplier operations
	ListSuppliers(ctx context.Context, filters ListFilters) ([]Supplier, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	CreateSupplier(ctx context.Context, supplier Supplier) (Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, supplier Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error

	// Customer operations
	ListCustomers(ctx context.Context, filters ListFilters) ([]Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	CreateCustomer(ctx context.Context, customer Customer) (Customer, error)
	UpdateCustomer(ctx context.Context, id int64, customer Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
}
