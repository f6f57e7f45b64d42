package till

import "fmt"

// InsufficientChangeError indicates the pool cannot produce the exact balance.
type InsufficientChangeError struct {
	Balance   int64
	Remaining int64
}

func (e *InsufficientChangeError) Error() string {
	return fmt.Sprintf("insufficient denominations for change %d (short by %d)", e.Balance, e.Remaining)
}

// Allocator breaks a balance down into denomination counts drawn from a pool
// snapshot. Implementations must be pure over the snapshot: the pool itself
// is never mutated, the caller commits the resulting decrements.
type Allocator interface {
	Allocate(balance int64, pool []Denomination) ([]ChangeLine, error)
}

// Greedy allocates change by walking denominations from highest to lowest
// value, taking min(remaining/value, available) of each.
//
// This is a heuristic, not an optimal change-making solver: it never
// backtracks, so it can miss an exact breakdown that a different combination
// would reach (e.g. balance 6 with pool {4:1, 3:2} fails even though 3+3
// works). Committed invoices were produced with exactly these semantics, so
// any replacement strategy must be a deliberate upgrade, not a drop-in fix.
type Greedy struct{}

var _ Allocator = Greedy{}

// Allocate returns the change breakdown for balance, in descending value
// order, or an InsufficientChangeError if the visited denominations cannot
// cover it exactly. A zero balance yields an empty breakdown.
func (Greedy) Allocate(balance int64, pool []Denomination) ([]ChangeLine, error) {
	remaining := balance
	var change []ChangeLine

	for _, d := range pool {
		if remaining <= 0 {
			break
		}
		if d.Value <= 0 || d.Available <= 0 {
			continue
		}
		count := remaining / d.Value
		if count > d.Available {
			count = d.Available
		}
		if count > 0 {
			change = append(change, ChangeLine{Value: d.Value, Count: count})
			remaining -= count * d.Value
		}
	}

	if remaining > 0 {
		return nil, &InsufficientChangeError{Balance: balance, Remaining: remaining}
	}
	return change, nil
}
