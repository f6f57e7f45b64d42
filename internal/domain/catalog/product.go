package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Stock      int
	TaxPercent decimal.Decimal
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}

// TxRepository defines the catalog operations available inside a purchase
// transaction. GetForUpdate must lock the returned rows for the duration of
// the enclosing transaction so that concurrent purchases cannot overdraw
// stock. IDs with no matching product are simply absent from the result.
type TxRepository interface {
	GetForUpdate(ctx context.Context, ids []string) ([]Product, error)
	UpdateStock(ctx context.Context, id string, stock int) error
}
