package orders

import "errors"

// Domain errors for order creation and lookup.
var (
	// ErrOrderNotFound indicates the requested order was not found.
	ErrOrderNotFound = errors.New("orders: order not found")

	// Reference errors.
	ErrSupplierNotFound = errors.New("orders: supplier not found")
	ErrCustomerNotFound = errors.New("orders: customer not found")
	ErrProductNotFound  = errors.New("orders: product not found")
	ErrLocationNotFound = errors.New("orders: location not found")

	// Validation errors.
	ErrEmptyLines      = errors.New("orders: at least one line is required")
	ErrInvalidQuantity = errors.New("orders: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("orders: unit price must be greater than zero")
	ErrMissingDate     = errors.New("orders: order date is required")

	// ErrNumberConflict indicates the allocated order number lost a unique
	// constraint race to another writer. Creation retries once before
	// surfacing it.
	ErrNumberConflict = errors.New("orders: order number already taken")
)
