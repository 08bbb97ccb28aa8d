package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
)

// countingRepository wraps the memory store and counts backing reads.
type countingRepository struct {
	*memory.CatalogRepository
	finds int
}

func (r *countingRepository) FindByModelNo(ctx context.Context, modelNo string) (*domain.Product, error) {
	r.finds++
	return r.CatalogRepository.FindByModelNo(ctx, modelNo)
}

func (r *countingRepository) FindByModelNos(ctx context.Context, modelNos []string) (map[string]*domain.Product, error) {
	r.finds++
	return r.CatalogRepository.FindByModelNos(ctx, modelNos)
}

func seed(t *testing.T, repo domain.Repository, modelNo string, price int64) {
	t.Helper()
	p, err := domain.NewProduct(modelNo, "Item "+modelNo, price, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
}

func TestReadThrough(t *testing.T) {
	backing := &countingRepository{CatalogRepository: memory.NewCatalogRepository()}
	seed(t, backing, "M-1", 100)
	cached := NewCachedRepository(backing)
	backing.finds = 0

	for i := 0; i < 3; i++ {
		p, err := cached.FindByModelNo(context.Background(), "M-1")
		require.NoError(t, err)
		assert.Equal(t, int64(100), p.Price)
	}
	assert.Equal(t, 1, backing.finds)
}

func TestMissesAreNotCached(t *testing.T) {
	backing := &countingRepository{CatalogRepository: memory.NewCatalogRepository()}
	cached := NewCachedRepository(backing)

	_, err := cached.FindByModelNo(context.Background(), "M-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = cached.FindByModelNo(context.Background(), "M-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, backing.finds)
}

func TestWritesInvalidate(t *testing.T) {
	backing := &countingRepository{CatalogRepository: memory.NewCatalogRepository()}
	seed(t, backing, "M-1", 100)
	cached := NewCachedRepository(backing)

	p, err := cached.FindByModelNo(context.Background(), "M-1")
	require.NoError(t, err)

	p.Price = 250
	require.NoError(t, cached.Save(context.Background(), p))

	got, err := cached.FindByModelNo(context.Background(), "M-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.Price)
}

func TestDeleteInvalidates(t *testing.T) {
	backing := &countingRepository{CatalogRepository: memory.NewCatalogRepository()}
	seed(t, backing, "M-1", 100)
	cached := NewCachedRepository(backing)

	_, err := cached.FindByModelNo(context.Background(), "M-1")
	require.NoError(t, err)

	require.NoError(t, cached.Delete(context.Background(), "M-1"))

	_, err = cached.FindByModelNo(context.Background(), "M-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBulkFindMergesCacheAndBacking(t *testing.T) {
	backing := &countingRepository{CatalogRepository: memory.NewCatalogRepository()}
	seed(t, backing, "M-1", 100)
	seed(t, backing, "M-2", 200)
	cached := NewCachedRepository(backing)

	_, err := cached.FindByModelNo(context.Background(), "M-1")
	require.NoError(t, err)

	got, err := cached.FindByModelNos(context.Background(), []string{"M-1", "M-2", "M-gone"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(100), got["M-1"].Price)
	assert.Equal(t, int64(200), got["M-2"].Price)
}
