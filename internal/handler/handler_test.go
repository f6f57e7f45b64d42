package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/tillpoint/internal/domain/billing"
	"github.com/xenking/tillpoint/internal/domain/catalog"
	"github.com/xenking/tillpoint/internal/domain/till"
)

// fakeStore is an in-memory implementation of the storage contracts the
// handler depends on: catalog reads, pool reads, the unit of work, and
// invoice reads.
type fakeStore struct {
	mu       sync.Mutex
	products []catalog.Product
	pool     []till.Denomination
	invoices []billing.Invoice
}

func (s *fakeStore) List(_ context.Context) ([]catalog.Product, error) {
	return append([]catalog.Product(nil), s.products...), nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *fakeStore) ListDesc(_ context.Context) ([]till.Denomination, error) {
	return append([]till.Denomination(nil), s.pool...), nil
}

func (s *fakeStore) Do(ctx context.Context, fn func(ctx context.Context, tx billing.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &fakeTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.invoices = append(s.invoices, tx.created...)
	for id, stock := range tx.stock {
		for i := range s.products {
			if s.products[i].ID == id {
				s.products[i].Stock = stock
			}
		}
	}
	for value, count := range tx.avail {
		for i := range s.pool {
			if s.pool[i].Value == value {
				s.pool[i].Available = count
			}
		}
	}
	return nil
}

type invoiceReader struct{ store *fakeStore }

func (r invoiceReader) GetByID(_ context.Context, id string) (*billing.Invoice, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.invoices {
		if r.store.invoices[i].ID == id {
			inv := r.store.invoices[i]
			return &inv, nil
		}
	}
	return nil, billing.ErrInvoiceNotFound
}

func (r invoiceReader) List(_ context.Context) ([]billing.Invoice, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := append([]billing.Invoice(nil), r.store.invoices...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type fakeTx struct {
	store   *fakeStore
	stock   map[string]int
	avail   map[int64]int64
	created []billing.Invoice
}

func (t *fakeTx) Catalog() catalog.TxRepository { return t }
func (t *fakeTx) Till() till.TxPool             { return t }
func (t *fakeTx) Invoices() billing.Writer      { return t }

func (t *fakeTx) GetForUpdate(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		for _, p := range t.store.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (t *fakeTx) UpdateStock(_ context.Context, id string, stock int) error {
	if t.stock == nil {
		t.stock = make(map[string]int)
	}
	t.stock[id] = stock
	return nil
}

func (t *fakeTx) ListForUpdateDesc(_ context.Context) ([]till.Denomination, error) {
	return append([]till.Denomination(nil), t.store.pool...), nil
}

func (t *fakeTx) UpdateAvailable(_ context.Context, value, count int64) error {
	if t.avail == nil {
		t.avail = make(map[int64]int64)
	}
	t.avail[value] = count
	return nil
}

func (t *fakeTx) Create(_ context.Context, inv *billing.Invoice) error {
	t.created = append(t.created, *inv)
	return nil
}

// --- Helpers ---

func newTestServer(t *testing.T) (*fakeStore, http.Handler) {
	t.Helper()
	store := &fakeStore{
		products: []catalog.Product{
			{ID: "P001", Name: "Pen", Price: decimal.RequireFromString("10"),
				Stock: 100, TaxPercent: decimal.RequireFromString("5")},
			{ID: "P002", Name: "Notebook", Price: decimal.RequireFromString("50"),
				Stock: 50, TaxPercent: decimal.RequireFromString("12")},
		},
		pool: []till.Denomination{
			{Value: 5, Available: 100},
			{Value: 1, Available: 100},
		},
	}
	svc := billing.NewService(store, invoiceReader{store}, till.Greedy{}, nil, nil)
	h := NewHandler(store, store, svc)
	return store, h.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	products := decode[[]productJSON](t, rec)
	require.Len(t, products, 2)
	assert.Equal(t, "P001", products[0].ID)
	assert.Equal(t, "10", products[0].Price)
	assert.Equal(t, "5", products[0].TaxPercent)
}

func TestListDenominations(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/denominations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	pool := decode[[]denominationJSON](t, rec)
	require.Len(t, pool, 2)
	assert.Equal(t, int64(5), pool[0].Value)
}

func TestPurchase_Created(t *testing.T) {
	store, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/purchase", purchaseRequest{
		Contact: "customer@example.com",
		Items:   []purchaseItemRequest{{ProductID: "P001", Quantity: 2}},
		Paid:    decimal.RequireFromString("30"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	inv := decode[invoiceJSON](t, rec)
	assert.Equal(t, "21", inv.Total)
	assert.Equal(t, "9", inv.Balance)
	require.Len(t, inv.Change, 2)
	assert.Equal(t, changeLineJSON{Value: 5, Count: 1}, inv.Change[0])
	assert.Equal(t, changeLineJSON{Value: 1, Count: 4}, inv.Change[1])

	// Invoice is readable afterwards.
	rec = doJSON(t, h, http.MethodGet, "/invoices/"+inv.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Stock is decremented.
	assert.Equal(t, 98, store.products[0].Stock)
}

func TestPurchase_BadBody(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/purchase", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchase_MissingContact(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/purchase", purchaseRequest{
		Items: []purchaseItemRequest{{ProductID: "P001", Quantity: 1}},
		Paid:  decimal.RequireFromString("30"),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchase_EmptyCart(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/purchase", purchaseRequest{
		Contact: "customer@example.com",
		Items:   []purchaseItemRequest{{ProductID: "unknown", Quantity: 1}},
		Paid:    decimal.RequireFromString("30"),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchase_InsufficientPayment(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/purchase", purchaseRequest{
		Contact: "customer@example.com",
		Items:   []purchaseItemRequest{{ProductID: "P001", Quantity: 2}},
		Paid:    decimal.RequireFromString("5"),
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Contains(t, resp.Message, "insufficient amount paid")
}

func TestPurchase_InsufficientStock(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/purchase", purchaseRequest{
		Contact: "customer@example.com",
		Items:   []purchaseItemRequest{{ProductID: "P001", Quantity: 999}},
		Paid:    decimal.RequireFromString("99999"),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestPurchase_InsufficientChange(t *testing.T) {
	store, h := newTestServer(t)
	store.pool = []till.Denomination{{Value: 2, Available: 5}}

	rec := doJSON(t, h, http.MethodPost, "/purchase", purchaseRequest{
		Contact: "customer@example.com",
		Items:   []purchaseItemRequest{{ProductID: "P001", Quantity: 2}},
		Paid:    decimal.RequireFromString("30"),
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Contains(t, resp.Message, "exact change")
	assert.Equal(t, 100, store.products[0].Stock)
}

func TestGetInvoice_NotFound(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/invoices/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListInvoices(t *testing.T) {
	_, h := newTestServer(t)

	for range 2 {
		rec := doJSON(t, h, http.MethodPost, "/purchase", purchaseRequest{
			Contact: "customer@example.com",
			Items:   []purchaseItemRequest{{ProductID: "P001", Quantity: 1}},
			Paid:    decimal.RequireFromString("11"),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	invoices := decode[[]invoiceJSON](t, rec)
	assert.Len(t, invoices, 2)
}
