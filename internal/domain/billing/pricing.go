package billing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/tillpoint/internal/domain/catalog"
)

var hundred = decimal.NewFromInt(100)

// PricedCart is the result of pricing cart lines against a catalog snapshot.
type PricedCart struct {
	Lines []PricedLine
	Total decimal.Decimal
}

// PriceCart prices cart lines against a product snapshot and accumulates the
// taxed grand total.
//
// Lines with a non-positive quantity or an identifier absent from products
// are skipped rather than rejected; a resolvable line that exceeds available
// stock fails the whole cart with InsufficientStockError. Repeated lines for
// the same product draw from the same stock, so their combined quantity is
// checked. Returns ErrEmptyCart when no valid lines remain after filtering.
//
// Pure over its inputs: products are never mutated, so repeated calls against
// the same snapshot yield identical results.
func PriceCart(lines []CartLine, products map[string]catalog.Product) (PricedCart, error) {
	var cart PricedCart
	cart.Total = decimal.Zero

	reserved := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			continue
		}
		p, ok := products[line.ProductID]
		if !ok {
			continue
		}

		if p.Stock-reserved[p.ID] < line.Quantity {
			return PricedCart{}, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.Stock - reserved[p.ID],
			}
		}
		reserved[p.ID] += line.Quantity

		price := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		tax := price.Mul(p.TaxPercent).Div(hundred)

		cart.Lines = append(cart.Lines, PricedLine{
			ProductID: p.ID,
			Quantity:  line.Quantity,
			Price:     price,
			Tax:       tax,
		})
		cart.Total = cart.Total.Add(price).Add(tax)
	}

	if len(cart.Lines) == 0 {
		return PricedCart{}, ErrEmptyCart
	}
	return cart, nil
}

// ReservedQuantities aggregates the total requested quantity per product
// across the priced lines.
func (c PricedCart) ReservedQuantities() map[string]int {
	reserved := make(map[string]int, len(c.Lines))
	for _, line := range c.Lines {
		reserved[line.ProductID] += line.Quantity
	}
	return reserved
}
