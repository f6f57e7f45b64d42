package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/tillpoint/internal/domain/catalog"
)

func newTestProduct(id, name string, price string, stock int, taxPercent string) catalog.Product {
	return catalog.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		TaxPercent: decimal.RequireFromString(taxPercent),
	}
}

func snapshot(products ...catalog.Product) map[string]catalog.Product {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}

func TestPriceCart_TaxedTotal(t *testing.T) {
	products := snapshot(newTestProduct("P001", "Pen", "10", 100, "5"))

	cart, err := PriceCart([]CartLine{{ProductID: "P001", Quantity: 2}}, products)

	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.True(t, decimal.RequireFromString("20").Equal(cart.Lines[0].Price))
	assert.True(t, decimal.RequireFromString("1").Equal(cart.Lines[0].Tax))
	assert.True(t, decimal.RequireFromString("21").Equal(cart.Total))
}

func TestPriceCart_TotalIsSumOfLines(t *testing.T) {
	products := snapshot(
		newTestProduct("P001", "Pen", "10", 100, "5"),
		newTestProduct("P002", "Notebook", "50", 50, "12"),
		newTestProduct("P003", "Pencil", "5", 200, "0"),
	)

	cart, err := PriceCart([]CartLine{
		{ProductID: "P001", Quantity: 3},
		{ProductID: "P002", Quantity: 1},
		{ProductID: "P003", Quantity: 4},
	}, products)

	require.NoError(t, err)
	sum := decimal.Zero
	for _, line := range cart.Lines {
		sum = sum.Add(line.Price).Add(line.Tax)
	}
	assert.True(t, sum.Equal(cart.Total), "total %s != line sum %s", cart.Total, sum)
}

func TestPriceCart_SkipsUnknownProducts(t *testing.T) {
	products := snapshot(newTestProduct("P001", "Pen", "10", 100, "5"))

	cart, err := PriceCart([]CartLine{
		{ProductID: "missing", Quantity: 3},
		{ProductID: "P001", Quantity: 1},
	}, products)

	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "P001", cart.Lines[0].ProductID)
}

func TestPriceCart_SkipsNonPositiveQuantity(t *testing.T) {
	products := snapshot(newTestProduct("P001", "Pen", "10", 100, "5"))

	cart, err := PriceCart([]CartLine{
		{ProductID: "P001", Quantity: 0},
		{ProductID: "P001", Quantity: -2},
		{ProductID: "P001", Quantity: 1},
	}, products)

	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
}

func TestPriceCart_InsufficientStock(t *testing.T) {
	products := snapshot(newTestProduct("P001", "Pen", "10", 10, "5"))

	_, err := PriceCart([]CartLine{{ProductID: "P001", Quantity: 999}}, products)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "P001", stockErr.ProductID)
	assert.Equal(t, 999, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)
}

func TestPriceCart_RepeatedLinesShareStock(t *testing.T) {
	products := snapshot(newTestProduct("P001", "Pen", "10", 5, "5"))

	_, err := PriceCart([]CartLine{
		{ProductID: "P001", Quantity: 3},
		{ProductID: "P001", Quantity: 3},
	}, products)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
}

func TestPriceCart_EmptyAfterFiltering(t *testing.T) {
	products := snapshot(newTestProduct("P001", "Pen", "10", 100, "5"))

	_, err := PriceCart([]CartLine{
		{ProductID: "", Quantity: 1},
		{ProductID: "missing", Quantity: 2},
		{ProductID: "P001", Quantity: 0},
	}, products)

	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPriceCart_EmptyCart(t *testing.T) {
	_, err := PriceCart(nil, snapshot())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPriceCart_Idempotent(t *testing.T) {
	products := snapshot(
		newTestProduct("P001", "Pen", "10", 100, "5"),
		newTestProduct("P002", "Notebook", "50", 50, "12"),
	)
	lines := []CartLine{
		{ProductID: "P001", Quantity: 2},
		{ProductID: "P002", Quantity: 1},
	}

	first, err := PriceCart(lines, products)
	require.NoError(t, err)
	second, err := PriceCart(lines, products)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReservedQuantities(t *testing.T) {
	products := snapshot(newTestProduct("P001", "Pen", "10", 100, "5"))

	cart, err := PriceCart([]CartLine{
		{ProductID: "P001", Quantity: 2},
		{ProductID: "P001", Quantity: 3},
	}, products)

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"P001": 5}, cart.ReservedQuantities())
}
