package billing

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for the purchase and read paths.
var (
	ErrEmptyCart       = errors.New("cart has no valid lines")
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// InsufficientStockError indicates a cart line requests more units than the
// product has in stock. It aborts the whole purchase.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

// InsufficientPaymentError indicates the tendered amount does not cover the
// cart total.
type InsufficientPaymentError struct {
	Total decimal.Decimal
	Paid  decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient amount paid: total %s, paid %s",
		e.Total.String(), e.Paid.String())
}
