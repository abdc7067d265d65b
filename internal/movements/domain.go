// Package movements records manual stock adjustments: receipts, write-offs
// and corrections outside the order flow. Every movement carries a ledger
// effect applied in the same transaction as the journal row.
package movements

import (
	"errors"
	"time"
)

// Directions a movement can take.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Movement is one journal row. RefCode is a generated identifier safe to
// hand to external systems.
type Movement struct {
	ID         int64     `json:"id"`
	RefCode    string    `json:"ref_code"`
	ProductID  int64     `json:"product_id"`
	LocationID int64     `json:"location_id"`
	ShelfID    *int64    `json:"shelf_id,omitempty"`
	Direction  string    `json:"direction"`
	Quantity   float64   `json:"quantity"`
	Reason     string    `json:"reason,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordRequest describes a movement to record.
type RecordRequest struct {
	ProductID  int64   `json:"product_id" validate:"required,gt=0"`
	LocationID int64   `json:"location_id" validate:"required,gt=0"`
	ShelfID    *int64  `json:"shelf_id,omitempty" validate:"omitempty,gt=0"`
	Direction  string  `json:"direction" validate:"required,oneof=IN OUT"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
	Reason     string  `json:"reason,omitempty" validate:"omitempty,max=200"`
	Notes      string  `json:"notes,omitempty"`
	RecordedBy int64   `json:"recorded_by" validate:"gte=0"`
}

// ListFilter narrows movement listings.
type ListFilter struct {
	ProductID *int64
	Direction string
	Limit     int
}

// Domain errors.
var (
	ErrProductNotFound  = errors.New("movements: product not found")
	ErrLocationNotFound = errors.New("movements: location not found")
	ErrShelfNotFound    = errors.New("movements: shelf not found in location")
	ErrInvalidDirection = errors.New("movements: direction must be IN or OUT")
	ErrInvalidQuantity  = errors.New("movements: quantity must be greater than zero")
)
