package till

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pool(pairs ...[2]int64) []Denomination {
	denominations := make([]Denomination, len(pairs))
	for i, p := range pairs {
		denominations[i] = Denomination{Value: p[0], Available: p[1]}
	}
	return denominations
}

func TestGreedyAllocate_ExactBreakdown(t *testing.T) {
	change, err := Greedy{}.Allocate(9, pool([2]int64{5, 100}, [2]int64{1, 100}))

	require.NoError(t, err)
	assert.Equal(t, []ChangeLine{{Value: 5, Count: 1}, {Value: 1, Count: 4}}, change)
}

func TestGreedyAllocate_ZeroBalance(t *testing.T) {
	change, err := Greedy{}.Allocate(0, pool([2]int64{5, 100}, [2]int64{1, 100}))

	require.NoError(t, err)
	assert.Empty(t, change)
}

func TestGreedyAllocate_InsufficientChange(t *testing.T) {
	_, err := Greedy{}.Allocate(9, pool([2]int64{2, 5}))

	var icErr *InsufficientChangeError
	require.ErrorAs(t, err, &icErr)
	assert.Equal(t, int64(9), icErr.Balance)
	assert.Equal(t, int64(1), icErr.Remaining)
}

func TestGreedyAllocate_LimitedByAvailability(t *testing.T) {
	// Only two 50s available: the rest must come from smaller values.
	change, err := Greedy{}.Allocate(180, pool(
		[2]int64{50, 2},
		[2]int64{20, 10},
		[2]int64{10, 10},
	))

	require.NoError(t, err)
	assert.Equal(t, []ChangeLine{
		{Value: 50, Count: 2},
		{Value: 20, Count: 4},
	}, change)
}

func TestGreedyAllocate_SkipsExhaustedDenominations(t *testing.T) {
	change, err := Greedy{}.Allocate(30, pool(
		[2]int64{20, 0},
		[2]int64{10, 5},
	))

	require.NoError(t, err)
	assert.Equal(t, []ChangeLine{{Value: 10, Count: 3}}, change)
}

func TestGreedyAllocate_NoBacktracking(t *testing.T) {
	// 3+3 would work, but greedy takes the 4 first and never backtracks.
	// Committed invoices depend on these exact semantics.
	_, err := Greedy{}.Allocate(6, pool([2]int64{4, 1}, [2]int64{3, 2}))

	var icErr *InsufficientChangeError
	require.ErrorAs(t, err, &icErr)
	assert.Equal(t, int64(2), icErr.Remaining)
}

func TestGreedyAllocate_LargeBalanceFullDrawer(t *testing.T) {
	drawer := pool(
		[2]int64{2000, 5},
		[2]int64{500, 10},
		[2]int64{100, 20},
		[2]int64{50, 30},
		[2]int64{20, 50},
		[2]int64{10, 100},
		[2]int64{5, 100},
		[2]int64{1, 100},
	)

	change, err := Greedy{}.Allocate(3789, drawer)
	require.NoError(t, err)

	var sum int64
	prev := int64(1 << 62)
	for _, c := range change {
		assert.Less(t, c.Value, prev, "values must strictly descend")
		prev = c.Value
		sum += c.Value * c.Count
	}
	assert.Equal(t, int64(3789), sum)
}

func TestGreedyAllocate_PoolNotMutated(t *testing.T) {
	drawer := pool([2]int64{5, 3}, [2]int64{1, 10})

	_, err := Greedy{}.Allocate(17, drawer)
	require.NoError(t, err)

	assert.Equal(t, pool([2]int64{5, 3}, [2]int64{1, 10}), drawer)
}
