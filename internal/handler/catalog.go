package handler

import (
	"net/http"

	"github.com/xenking/tillpoint/internal/domain/catalog"
	"github.com/xenking/tillpoint/internal/domain/till"
)

// productJSON is the wire form of a catalog product.
type productJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Stock      int    `json:"stock"`
	TaxPercent string `json:"tax_percent"`
}

// denominationJSON is the wire form of a pool denomination.
type denominationJSON struct {
	Value     int64 `json:"value"`
	Available int64 `json:"available_count"`
}

// ListProducts returns the product catalog ordered by id.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]productJSON, len(products))
	for i, p := range products {
		resp[i] = toProductJSON(p)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ListDenominations returns the denomination pool, highest value first.
func (h *Handler) ListDenominations(w http.ResponseWriter, r *http.Request) {
	pool, err := h.denominations.ListDesc(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]denominationJSON, len(pool))
	for i, d := range pool {
		resp[i] = denominationJSON{Value: d.Value, Available: d.Available}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func toProductJSON(p catalog.Product) productJSON {
	return productJSON{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.String(),
		Stock:      p.Stock,
		TaxPercent: p.TaxPercent.String(),
	}
}

func toChangeJSON(change []till.ChangeLine) []changeLineJSON {
	resp := make([]changeLineJSON, len(change))
	for i, c := range change {
		resp[i] = changeLineJSON{Value: c.Value, Count: c.Count}
	}
	return resp
}
