// Package handler exposes the billing service over HTTP with JSON bodies.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/tillpoint/internal/domain/billing"
	"github.com/xenking/tillpoint/internal/domain/catalog"
	"github.com/xenking/tillpoint/internal/domain/till"
)

// Handler serves the billing HTTP API, delegating business logic to the
// billing service and the catalog/till read repositories.
type Handler struct {
	products      catalog.Repository
	denominations till.Pool
	billing       *billing.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products catalog.Repository,
	denominations till.Pool,
	billingSvc *billing.Service,
) *Handler {
	return &Handler{
		products:      products,
		denominations: denominations,
		billing:       billingSvc,
	}
}

// Routes returns the chi router with all API routes mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", h.ListProducts)
	r.Get("/denominations", h.ListDenominations)
	r.Post("/purchase", h.Purchase)
	r.Get("/invoices", h.ListInvoices)
	r.Get("/invoices/{id}", h.GetInvoice)

	return r
}

// errorResponse is the uniform JSON error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Warn("encoding response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: msg})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}
