package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tillpoint/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, price, stock, tax_percent
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, price, stock, tax_percent
		FROM products WHERE id = $1`

	getProductsForUpdateSQL = `SELECT id, name, price, stock, tax_percent
		FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	updateProductStockSQL = `UPDATE products SET stock = $2 WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (id, name, price, stock, tax_percent)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price,
			stock = EXCLUDED.stock, tax_percent = EXCLUDED.tax_percent`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Upsert inserts or replaces a product row. Used by seeding.
func (r *ProductRepository) Upsert(ctx context.Context, p catalog.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.Price, p.Stock, p.TaxPercent)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

var _ catalog.TxRepository = (*productTx)(nil)

// productTx implements catalog.TxRepository bound to one transaction.
type productTx struct {
	q querier
}

// GetForUpdate returns the products matching ids with their rows locked for
// the transaction. Unknown ids are absent from the result. Rows are locked
// in ID order so concurrent purchases acquire them in a consistent order.
func (r *productTx) GetForUpdate(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.q.Query(ctx, getProductsForUpdateSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// UpdateStock sets the stock count of a locked product row.
func (r *productTx) UpdateStock(ctx context.Context, id string, stock int) error {
	_, err := r.q.Exec(ctx, updateProductStockSQL, id, stock)
	if err != nil {
		return fmt.Errorf("updating stock for %q: %w", id, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.TaxPercent)
	return p, err
}
