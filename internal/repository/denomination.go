package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tillpoint/internal/domain/till"
)

const (
	listDenominationsDescSQL = `SELECT value, available_count
		FROM denominations ORDER BY value DESC`

	lockDenominationsDescSQL = `SELECT value, available_count
		FROM denominations ORDER BY value DESC FOR UPDATE`

	updateDenominationSQL = `UPDATE denominations SET available_count = $2 WHERE value = $1`

	upsertDenominationSQL = `INSERT INTO denominations (value, available_count)
		VALUES ($1, $2)
		ON CONFLICT (value) DO UPDATE SET available_count = EXCLUDED.available_count`
)

var _ till.Pool = (*DenominationRepository)(nil)

// DenominationRepository implements till.Pool backed by PostgreSQL.
type DenominationRepository struct {
	pool *pgxpool.Pool
}

// NewDenominationRepository returns a DenominationRepository that uses the
// given pool.
func NewDenominationRepository(pool *pgxpool.Pool) *DenominationRepository {
	return &DenominationRepository{pool: pool}
}

// ListDesc returns the denomination pool ordered by value, highest first.
func (r *DenominationRepository) ListDesc(ctx context.Context) ([]till.Denomination, error) {
	rows, err := r.pool.Query(ctx, listDenominationsDescSQL)
	if err != nil {
		return nil, fmt.Errorf("listing denominations: %w", err)
	}
	return pgx.CollectRows(rows, scanDenomination)
}

// Upsert inserts or replaces a denomination row. Used by seeding.
func (r *DenominationRepository) Upsert(ctx context.Context, d till.Denomination) error {
	_, err := r.pool.Exec(ctx, upsertDenominationSQL, d.Value, d.Available)
	if err != nil {
		return fmt.Errorf("upserting denomination %d: %w", d.Value, err)
	}
	return nil
}

var _ till.TxPool = (*denominationTx)(nil)

// denominationTx implements till.TxPool bound to one transaction.
type denominationTx struct {
	q querier
}

// ListForUpdateDesc returns the whole pool, highest value first, with every
// row locked for the transaction so the allocated change commits against the
// counts it was computed from.
func (r *denominationTx) ListForUpdateDesc(ctx context.Context) ([]till.Denomination, error) {
	rows, err := r.q.Query(ctx, lockDenominationsDescSQL)
	if err != nil {
		return nil, fmt.Errorf("locking denominations: %w", err)
	}
	return pgx.CollectRows(rows, scanDenomination)
}

// UpdateAvailable sets the available count of a locked denomination row.
func (r *denominationTx) UpdateAvailable(ctx context.Context, value, count int64) error {
	_, err := r.q.Exec(ctx, updateDenominationSQL, value, count)
	if err != nil {
		return fmt.Errorf("updating denomination %d: %w", value, err)
	}
	return nil
}

func scanDenomination(row pgx.CollectableRow) (till.Denomination, error) {
	var d till.Denomination
	err := row.Scan(&d.Value, &d.Available)
	return d, err
}
