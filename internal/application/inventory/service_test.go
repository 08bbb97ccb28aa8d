package inventory_test

import (
	"context"
	inventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
)

func newLedger(t *testing.T, quantities map[string]int) (*inventory.Ledger, catalog.Repository) {
	t.Helper()
	repo := memory.NewCatalogRepository()
	for modelNo, qty := range quantities {
		p, err := catalog.NewProduct(modelNo, "Item "+modelNo, 100, qty)
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), p))
	}
	return inventory.NewLedger(repo, nil), repo
}

func quantityOf(t *testing.T, repo catalog.Repository, modelNo string) int {
	t.Helper()
	p, err := repo.FindByModelNo(context.Background(), modelNo)
	require.NoError(t, err)
	return p.Quantity
}

func TestCheckAvailability(t *testing.T) {
	ledger, _ := newLedger(t, map[string]int{"M-1": 3})
	ctx := context.Background()

	ok, err := ledger.CheckAvailability(ctx, "M-1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CheckAvailability(ctx, "M-1", 4)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ledger.CheckAvailability(ctx, "M-9", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = ledger.CheckAvailability(ctx, "M-1", 0)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)
}

func TestDecrementAndRestore(t *testing.T) {
	ledger, repo := newLedger(t, map[string]int{"M-1": 5})
	ctx := context.Background()

	require.NoError(t, ledger.Decrement(ctx, "M-1", 3))
	assert.Equal(t, 2, quantityOf(t, repo, "M-1"))

	err := ledger.Decrement(ctx, "M-1", 3)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Equal(t, 2, quantityOf(t, repo, "M-1"))

	require.NoError(t, ledger.Restore(ctx, "M-1", 3))
	assert.Equal(t, 5, quantityOf(t, repo, "M-1"))
}

func TestDecrement_ErrorNamesItem(t *testing.T) {
	ledger, _ := newLedger(t, map[string]int{"M-1": 1})

	err := ledger.Decrement(context.Background(), "M-1", 2)
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Item M-1")
}

func TestReserve_AllOrNone(t *testing.T) {
	ledger, repo := newLedger(t, map[string]int{"M-1": 5, "M-2": 1})

	err := ledger.Reserve(context.Background(), []inventory.Reservation{
		{ModelNo: "M-1", Quantity: 3},
		{ModelNo: "M-2", Quantity: 2},
	})
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)

	// The applied M-1 decrement must have been rolled back.
	assert.Equal(t, 5, quantityOf(t, repo, "M-1"))
	assert.Equal(t, 1, quantityOf(t, repo, "M-2"))
}

func TestReserve_Success(t *testing.T) {
	ledger, repo := newLedger(t, map[string]int{"M-1": 5, "M-2": 2})

	err := ledger.Reserve(context.Background(), []inventory.Reservation{
		{ModelNo: "M-1", Quantity: 3},
		{ModelNo: "M-2", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, quantityOf(t, repo, "M-1"))
	assert.Equal(t, 0, quantityOf(t, repo, "M-2"))
}

func TestRelease_SkipsDeletedItems(t *testing.T) {
	ledger, repo := newLedger(t, map[string]int{"M-1": 0})

	err := ledger.Release(context.Background(), []inventory.Reservation{
		{ModelNo: "M-gone", Quantity: 2},
		{ModelNo: "M-1", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, quantityOf(t, repo, "M-1"))
}

func TestConcurrentReserve_LastUnit(t *testing.T) {
	ledger, repo := newLedger(t, map[string]int{"M-1": 1})

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ledger.Reserve(context.Background(), []inventory.Reservation{{ModelNo: "M-1", Quantity: 1}})
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 0, quantityOf(t, repo, "M-1"))
}

func TestSetQuantityAndThreshold(t *testing.T) {
	ledger, _ := newLedger(t, map[string]int{"M-1": 1})
	ctx := context.Background()

	_, err := ledger.SetQuantity(ctx, "M-1", -1)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)

	p, err := ledger.SetQuantity(ctx, "M-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Quantity)

	_, err = ledger.SetLowStockThreshold(ctx, "M-1", -1)
	assert.ErrorIs(t, err, catalog.ErrInvalidThreshold)

	p, err = ledger.SetLowStockThreshold(ctx, "M-1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.LowStockThreshold)
}

func TestStockListings(t *testing.T) {
	ledger, _ := newLedger(t, map[string]int{"M-out": 0, "M-low": 2, "M-in": 50})
	ctx := context.Background()

	_, err := ledger.SetLowStockThreshold(ctx, "M-low", 5)
	require.NoError(t, err)

	low, err := ledger.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "M-low", low[0].ModelNo)

	out, err := ledger.OutOfStock(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "M-out", out[0].ModelNo)

	status, err := ledger.StockStatus(ctx, "M-in")
	require.NoError(t, err)
	assert.Equal(t, catalog.StockStatusIn, status)
}
