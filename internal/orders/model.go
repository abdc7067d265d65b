package orders

import (
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/sequence"
)

// Order is a purchase or sale order header. Header fields are immutable
// after creation except the invoice number and notes.
type Order struct {
	ID             int64           `json:"id"`
	Series         sequence.Series `json:"series"`
	Number         string          `json:"number"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	CounterpartyID *int64          `json:"counterparty_id,omitempty"`
	LocationID     int64           `json:"location_id"`
	OrderDate      time.Time       `json:"order_date"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Status         string          `json:"status,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	TotalAmount    float64         `json:"total_amount"`
	CreatedBy      int64           `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Line belongs to exactly one order. For purchase orders UnitPrice holds the
// acquisition cost. Total is computed once at write time.
type Line struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
	Notes     string  `json:"notes,omitempty"`
}

// Details pairs an order with its lines for read responses.
type Details struct {
	Order Order  `json:"order"`
	Lines []Line `json:"lines"`
}
