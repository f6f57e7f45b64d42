package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tillpoint/internal/domain/billing"
	"github.com/xenking/tillpoint/internal/domain/till"
)

const (
	createInvoiceSQL = `INSERT INTO invoices (id, contact, total_amount, paid_amount, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	createInvoiceItemSQL = `INSERT INTO invoice_items (invoice_id, product_id, quantity, price, tax)
		VALUES ($1, $2, $3, $4, $5)`

	createInvoiceChangeSQL = `INSERT INTO invoice_change (invoice_id, denomination_value, count)
		VALUES ($1, $2, $3)`

	getInvoiceSQL = `SELECT id, contact, total_amount, paid_amount, balance, created_at
		FROM invoices WHERE id = $1`

	listInvoicesSQL = `SELECT id, contact, total_amount, paid_amount, balance, created_at
		FROM invoices ORDER BY created_at DESC, id`

	listInvoiceItemsSQL = `SELECT invoice_id, product_id, quantity, price, tax
		FROM invoice_items WHERE invoice_id = ANY($1) ORDER BY id`

	listInvoiceChangeSQL = `SELECT invoice_id, denomination_value, count
		FROM invoice_change WHERE invoice_id = ANY($1) ORDER BY denomination_value DESC`
)

var _ billing.Repository = (*InvoiceRepository)(nil)

// InvoiceRepository implements billing.Repository backed by PostgreSQL.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository returns an InvoiceRepository that uses the given pool.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// GetByID returns an invoice with its line items and change breakdown, or
// billing.ErrInvoiceNotFound.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*billing.Invoice, error) {
	rows, err := r.pool.Query(ctx, getInvoiceSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice %q: %w", id, err)
	}

	inv, err := pgx.CollectExactlyOneRow(rows, scanInvoice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("getting invoice %q: %w", id, err)
	}

	invoices := []billing.Invoice{inv}
	if err := r.loadOwned(ctx, invoices); err != nil {
		return nil, err
	}
	return &invoices[0], nil
}

// List returns all invoices with their owned records, most recent first.
func (r *InvoiceRepository) List(ctx context.Context) ([]billing.Invoice, error) {
	rows, err := r.pool.Query(ctx, listInvoicesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	invoices, err := pgx.CollectRows(rows, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	if err := r.loadOwned(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// loadOwned attaches line items and change breakdowns to the invoices.
func (r *InvoiceRepository) loadOwned(ctx context.Context, invoices []billing.Invoice) error {
	ids := make([]string, len(invoices))
	index := make(map[string]*billing.Invoice, len(invoices))
	for i := range invoices {
		ids[i] = invoices[i].ID
		index[invoices[i].ID] = &invoices[i]
	}

	itemRows, err := r.pool.Query(ctx, listInvoiceItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing invoice items: %w", err)
	}
	var (
		invoiceID string
		line      billing.PricedLine
	)
	_, err = pgx.ForEachRow(itemRows,
		[]any{&invoiceID, &line.ProductID, &line.Quantity, &line.Price, &line.Tax},
		func() error {
			index[invoiceID].Lines = append(index[invoiceID].Lines, line)
			return nil
		})
	if err != nil {
		return fmt.Errorf("listing invoice items: %w", err)
	}

	changeRows, err := r.pool.Query(ctx, listInvoiceChangeSQL, ids)
	if err != nil {
		return fmt.Errorf("listing invoice change: %w", err)
	}
	var change till.ChangeLine
	_, err = pgx.ForEachRow(changeRows,
		[]any{&invoiceID, &change.Value, &change.Count},
		func() error {
			index[invoiceID].Change = append(index[invoiceID].Change, change)
			return nil
		})
	if err != nil {
		return fmt.Errorf("listing invoice change: %w", err)
	}

	return nil
}

func scanInvoice(row pgx.CollectableRow) (billing.Invoice, error) {
	var inv billing.Invoice
	err := row.Scan(&inv.ID, &inv.Contact, &inv.Total, &inv.Paid, &inv.Balance, &inv.CreatedAt)
	return inv, err
}

var _ billing.Writer = (*invoiceTx)(nil)

// invoiceTx implements billing.Writer bound to one transaction.
type invoiceTx struct {
	q querier
}

// Create persists the invoice with its owned line items and change records.
// Atomicity comes from the enclosing transaction.
func (r *invoiceTx) Create(ctx context.Context, inv *billing.Invoice) error {
	_, err := r.q.Exec(ctx, createInvoiceSQL,
		inv.ID, inv.Contact, inv.Total, inv.Paid, inv.Balance, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating invoice %q: %w", inv.ID, err)
	}

	for _, line := range inv.Lines {
		_, err := r.q.Exec(ctx, createInvoiceItemSQL,
			inv.ID, line.ProductID, line.Quantity, line.Price, line.Tax,
		)
		if err != nil {
			return fmt.Errorf("creating invoice item %s/%s: %w", inv.ID, line.ProductID, err)
		}
	}

	for _, c := range inv.Change {
		_, err := r.q.Exec(ctx, createInvoiceChangeSQL, inv.ID, c.Value, c.Count)
		if err != nil {
			return fmt.Errorf("creating invoice change %s/%d: %w", inv.ID, c.Value, err)
		}
	}

	return nil
}
