package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/tillpoint/internal/domain/billing"
)

// invoiceJSON is the wire form of a committed invoice.
type invoiceJSON struct {
	ID        string            `json:"id"`
	Contact   string            `json:"contact"`
	Total     string            `json:"total_amount"`
	Paid      string            `json:"paid_amount"`
	Balance   string            `json:"balance"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []invoiceItemJSON `json:"items"`
	Change    []changeLineJSON  `json:"change"`
}

type invoiceItemJSON struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Tax       string `json:"tax"`
}

type changeLineJSON struct {
	Value int64 `json:"value"`
	Count int64 `json:"count"`
}

// GetInvoice returns a single invoice by id.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	inv, err := h.billing.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			writeError(w, r, http.StatusNotFound, "invoice not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toInvoiceJSON(inv))
}

// ListInvoices returns all invoices, most recent first.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.billing.ListInvoices(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]invoiceJSON, len(invoices))
	for i := range invoices {
		resp[i] = toInvoiceJSON(&invoices[i])
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func toInvoiceJSON(inv *billing.Invoice) invoiceJSON {
	items := make([]invoiceItemJSON, len(inv.Lines))
	for i, line := range inv.Lines {
		items[i] = invoiceItemJSON{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price.String(),
			Tax:       line.Tax.String(),
		}
	}
	return invoiceJSON{
		ID:        inv.ID,
		Contact:   inv.Contact,
		Total:     inv.Total.String(),
		Paid:      inv.Paid.String(),
		Balance:   inv.Balance.String(),
		CreatedAt: inv.CreatedAt,
		Items:     items,
		Change:    toChangeJSON(inv.Change),
	}
}
