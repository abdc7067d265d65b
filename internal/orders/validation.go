package orders

import "fmt"

// ValidateCreatePurchase performs the domain checks that the JSON-tag
// validator cannot express per line index.
func ValidateCreatePurchase(req CreatePurchaseRequest) error {
	if req.Date.IsZero() {
		return ErrMissingDate
	}
	if len(req.Lines) == 0 {
		return ErrEmptyLines
	}
	for i, l := range req.Lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("line %d: %w", i+1, ErrInvalidQuantity)
		}
		if l.UnitCost <= 0 {
			return fmt.Errorf("line %d: %w", i+1, ErrInvalidPrice)
		}
	}
	return nil
}

// ValidateCreateSale mirrors ValidateCreatePurchase for the sale series.
func ValidateCreateSale(req CreateSaleRequest) error {
	if req.Date.IsZero() {
		return ErrMissingDate
	}
	if len(req.Lines) == 0 {
		return ErrEmptyLines
	}
	for i, l := range req.Lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("line %d: %w", i+1, ErrInvalidQuantity)
		}
		if l.UnitPrice <= 0 {
			return fmt.Errorf("line %d: %w", i+1, ErrInvalidPrice)
		}
	}
	return nil
}
