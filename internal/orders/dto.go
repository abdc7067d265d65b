package orders

import "time"

// PurchaseLineRequest is one line of a purchase order request.
type PurchaseLineRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"required,gt=0"`
	Notes     string  `json:"notes,omitempty"`
}

// CreatePurchaseRequest describes a purchase order to create.
type CreatePurchaseRequest struct {
	SupplierID    int64                 `json:"supplier_id" validate:"required,gt=0"`
	LocationID    int64                 `json:"location_id" validate:"required,gt=0"`
	Date          time.Time             `json:"date" validate:"required"`
	InvoiceNumber string                `json:"invoice_number,omitempty" validate:"omitempty,max=100"`
	Notes         string                `json:"notes,omitempty"`
	RegisteredBy  int64                 `json:"registered_by" validate:"gte=0"`
	Lines         []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// SaleLineRequest is one line of a sale order request.
type SaleLineRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"`
	Notes     string  `json:"notes,omitempty"`
}

// CreateSaleRequest describes a sale order to create. CustomerID is optional
// for walk-in sales.
type CreateSaleRequest struct {
	CustomerID    *int64            `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	LocationID    int64             `json:"location_id" validate:"required,gt=0"`
	Date          time.Time         `json:"date" validate:"required"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=CASH CARD TRANSFER CREDIT"`
	Status        string            `json:"status,omitempty" validate:"omitempty,oneof=COMPLETED PENDING"`
	Notes         string            `json:"notes,omitempty"`
	SoldBy        int64             `json:"sold_by" validate:"gte=0"`
	Lines         []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateDetailsRequest carries the only header fields editable after
// creation.
type UpdateDetailsRequest struct {
	InvoiceNumber *string `json:"invoice_number,omitempty" validate:"omitempty,max=100"`
	Notes         *string `json:"notes,omitempty"`
}
