// Package billing implements the purchase transaction engine: cart pricing,
// payment validation, change allocation, and atomic invoice persistence.
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/tillpoint/internal/domain/till"
)

// CartLine is one requested product line of a purchase.
type CartLine struct {
	ProductID string
	Quantity  int
}

// PricedLine is a cart line priced against the catalog.
// Price = unit price * quantity, Tax = Price * tax percent / 100.
type PricedLine struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Tax       decimal.Decimal
}

// Invoice is the durable record of a committed purchase. It owns its priced
// lines and its change breakdown and is immutable once created.
type Invoice struct {
	ID        string
	Contact   string
	Total     decimal.Decimal
	Paid      decimal.Decimal
	Balance   decimal.Decimal
	CreatedAt time.Time
	Lines     []PricedLine
	Change    []till.ChangeLine
}

// Repository defines read operations over committed invoices.
type Repository interface {
	// GetByID returns the invoice with its lines and change breakdown, or
	// ErrInvoiceNotFound.
	GetByID(ctx context.Context, id string) (*Invoice, error)
	// List returns all invoices ordered by creation time, most recent first.
	List(ctx context.Context) ([]Invoice, error)
}

// Writer persists a new invoice aggregate. It is only reachable inside a
// purchase transaction.
type Writer interface {
	Create(ctx context.Context, inv *Invoice) error
}

// BuildInvoice assembles the invoice aggregate for a committed purchase.
// Deterministic given its inputs: identifier and timestamp are supplied by
// the caller.
func BuildInvoice(
	id, contact string,
	lines []PricedLine,
	total, paid, balance decimal.Decimal,
	change []till.ChangeLine,
	createdAt time.Time,
) *Invoice {
	return &Invoice{
		ID:        id,
		Contact:   contact,
		Total:     total,
		Paid:      paid,
		Balance:   balance,
		CreatedAt: createdAt,
		Lines:     lines,
		Change:    change,
	}
}
