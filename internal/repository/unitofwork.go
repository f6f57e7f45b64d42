package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tillpoint/internal/domain/billing"
	"github.com/xenking/tillpoint/internal/domain/catalog"
	"github.com/xenking/tillpoint/internal/domain/till"
)

var _ billing.UnitOfWork = (*Store)(nil)

// Store implements billing.UnitOfWork on a pgx transaction. Each Do call
// opens one transaction; row locks taken by the bound repositories
// (SELECT ... FOR UPDATE) are held until commit or rollback, so concurrent
// purchases touching the same products or denominations serialize.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store that uses the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Do runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. The rollback also runs on panic or early return,
// so every exit path releases the transaction.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx billing.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(ctx, &storeTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

var _ billing.Tx = (*storeTx)(nil)

// storeTx bundles the transaction-bound repositories.
type storeTx struct {
	tx pgx.Tx
}

func (t *storeTx) Catalog() catalog.TxRepository { return &productTx{q: t.tx} }
func (t *storeTx) Till() till.TxPool             { return &denominationTx{q: t.tx} }
func (t *storeTx) Invoices() billing.Writer      { return &invoiceTx{q: t.tx} }
