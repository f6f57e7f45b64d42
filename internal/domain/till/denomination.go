// Package till models the cash drawer: the finite pool of currency
// denominations available for giving change, and the policy for breaking a
// balance down into denomination counts.
package till

import "context"

// Denomination is a discrete currency unit with a finite available count.
type Denomination struct {
	Value     int64
	Available int64
}

// ChangeLine is one (denomination value, count) pair of a change breakdown.
type ChangeLine struct {
	Value int64
	Count int64
}

// Pool defines read operations for the denomination pool.
type Pool interface {
	ListDesc(ctx context.Context) ([]Denomination, error)
}

// TxPool defines the denomination operations available inside a purchase
// transaction. ListForUpdateDesc must lock the returned rows for the duration
// of the enclosing transaction so that the allocated change can be committed
// against the exact counts it was computed from.
type TxPool interface {
	ListForUpdateDesc(ctx context.Context) ([]Denomination, error)
	UpdateAvailable(ctx context.Context, value, count int64) error
}
