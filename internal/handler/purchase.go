package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/tillpoint/internal/domain/billing"
	"github.com/xenking/tillpoint/internal/domain/till"
)

// purchaseRequest is the wire form of a purchase submission.
type purchaseRequest struct {
	Contact string                `json:"contact"`
	Items   []purchaseItemRequest `json:"items"`
	Paid    decimal.Decimal       `json:"paid_amount"`
}

type purchaseItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Purchase runs one purchase transaction and returns the created invoice.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Contact == "" {
		writeError(w, r, http.StatusBadRequest, "contact is required")
		return
	}

	lines := make([]billing.CartLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = billing.CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	inv, err := h.billing.Purchase(r.Context(), billing.PurchaseRequest{
		Contact: req.Contact,
		Lines:   lines,
		Paid:    req.Paid,
	})
	if err != nil {
		mapPurchaseError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toInvoiceJSON(inv))
}

// mapPurchaseError converts purchase domain errors to HTTP responses.
// Stock and change shortages are conflicts with the current resource state;
// an uncovered total is a payment problem.
func mapPurchaseError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, billing.ErrEmptyCart) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var stockErr *billing.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeError(w, r, http.StatusConflict, stockErr.Error())
		return
	}

	var changeErr *till.InsufficientChangeError
	if errors.As(err, &changeErr) {
		writeError(w, r, http.StatusConflict, "insufficient denominations available to give exact change")
		return
	}

	var payErr *billing.InsufficientPaymentError
	if errors.As(err, &payErr) {
		writeError(w, r, http.StatusPaymentRequired, payErr.Error())
		return
	}

	internalError(w, r, err)
}
