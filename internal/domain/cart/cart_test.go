package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsert_MergesAndRefreshesPrice(t *testing.T) {
	c := New("c1", "u1")

	require.NoError(t, c.Upsert("M-1", 2, 100))
	require.NoError(t, c.Upsert("M-2", 1, 50))
	require.NoError(t, c.Upsert("M-1", 3, 80))

	require.Len(t, c.Lines, 2)
	assert.Equal(t, 5, c.Lines[0].Quantity)
	assert.Equal(t, int64(80), c.Lines[0].UnitPrice)
	assert.Equal(t, int64(5*80+50), c.TotalAmount)
}

func TestUpsert_RejectsNonPositiveQuantity(t *testing.T) {
	c := New("c1", "u1")
	assert.ErrorIs(t, c.Upsert("M-1", 0, 100), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Upsert("M-1", -2, 100), ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestSetQuantity(t *testing.T) {
	c := New("c1", "u1")
	require.NoError(t, c.Upsert("M-1", 2, 100))

	c.SetQuantity("M-1", 7)
	assert.Equal(t, 7, c.Lines[0].Quantity)
	assert.Equal(t, int64(700), c.TotalAmount)

	// Zero removes the line; unknown models are ignored.
	c.SetQuantity("M-9", 3)
	c.SetQuantity("M-1", 0)
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalAmount)
}

func TestRemoveAndClear(t *testing.T) {
	c := New("c1", "u1")
	require.NoError(t, c.Upsert("M-1", 1, 100))
	require.NoError(t, c.Upsert("M-2", 1, 200))

	c.Remove("M-1")
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(200), c.TotalAmount)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalAmount)
}

func TestHeal_DropsUnresolvableAndRepricesRest(t *testing.T) {
	c := New("c1", "u1")
	require.NoError(t, c.Upsert("M-1", 2, 80))
	require.NoError(t, c.Upsert("M-2", 1, 300))

	// M-1's promotion expired (80 -> 100), M-2 was deleted from the catalog.
	prices := map[string]int64{"M-1": 100}
	c.Heal(func(modelNo string) (int64, bool) {
		p, ok := prices[modelNo]
		return p, ok
	})

	require.Len(t, c.Lines, 1)
	assert.Equal(t, "M-1", c.Lines[0].ModelNo)
	assert.Equal(t, int64(100), c.Lines[0].UnitPrice)
	assert.Equal(t, int64(200), c.TotalAmount)
}

func TestHeal_Idempotent(t *testing.T) {
	c := New("c1", "u1")
	require.NoError(t, c.Upsert("M-1", 2, 80))

	resolve := func(string) (int64, bool) { return 100, true }
	c.Heal(resolve)
	first := c.TotalAmount
	c.Heal(resolve)

	assert.Equal(t, first, c.TotalAmount)
	require.Len(t, c.Lines, 1)
}

func TestClone_Independent(t *testing.T) {
	c := New("c1", "u1")
	require.NoError(t, c.Upsert("M-1", 2, 100))

	clone := c.Clone()
	clone.Lines[0].Quantity = 99

	assert.Equal(t, 2, c.Lines[0].Quantity)
}
