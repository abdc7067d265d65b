// Package stock maintains the authoritative per-(product, location) quantity
// ledger. Every quantity change in the system goes through this package's
// floor-checked adjustments.
package stock

import (
	"errors"
	"time"
)

var (
	// ErrInsufficientStock indicates an adjustment would drive a ledger
	// entry negative. The entry is left unchanged.
	ErrInsufficientStock = errors.New("stock: insufficient quantity")
	// ErrEntryNotFound indicates a missing ledger entry.
	ErrEntryNotFound = errors.New("stock: entry not found")
	// ErrInvalidKey indicates a key without product or location.
	ErrInvalidKey = errors.New("stock: product and location required")
	// ErrInvalidThresholds indicates negative or inverted min/max levels.
	ErrInvalidThresholds = errors.New("stock: invalid thresholds")
)

// EntryKey identifies one ledger entry. Shelf is an optional sub-location.
type EntryKey struct {
	ProductID  int64
	LocationID int64
	ShelfID    *int64
}

// Valid reports whether the key references a product and location.
func (k EntryKey) Valid() bool {
	return k.ProductID > 0 && k.LocationID > 0
}

// Entry is the authoritative quantity record for one product at one location.
type Entry struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	LocationID int64     `json:"location_id"`
	ShelfID    *int64    `json:"shelf_id,omitempty"`
	Quantity   float64   `json:"quantity"`
	MinStock   float64   `json:"min_stock"`
	MaxStock   float64   `json:"max_stock"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EntryView is an Entry joined with reference names for reporting reads.
type EntryView struct {
	Entry
	ProductSKU   string `json:"product_sku"`
	ProductName  string `json:"product_name"`
	BrandName    string `json:"brand_name,omitempty"`
	LocationName string `json:"location_name"`
	ShelfName    string `json:"shelf_name,omitempty"`
}

// QueryFilter narrows ledger reads. Search matches product, brand and
// location names.
type QueryFilter struct {
	ProductID *int64
	Search    string
	Limit     int
}
