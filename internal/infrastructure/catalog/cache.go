package catalog

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

// CachedRepository is a read-through product cache in front of a backing
// repository. Any write invalidates the whole cache: bulk invalidation keeps
// the consistency story trivial and product writes are rare next to cart
// reads. The cache lives here, on the catalog side; the core only sees the
// Repository contract.
type CachedRepository struct {
	backing domain.Repository

	mu    sync.RWMutex
	cache map[string]*domain.Product
}

func NewCachedRepository(backing domain.Repository) *CachedRepository {
	return &CachedRepository{
		backing: backing,
		cache:   make(map[string]*domain.Product),
	}
}

func (r *CachedRepository) FindByModelNo(ctx context.Context, modelNo string) (*domain.Product, error) {
	r.mu.RLock()
	if p, ok := r.cache[modelNo]; ok {
		r.mu.RUnlock()
		return p.Clone(), nil
	}
	r.mu.RUnlock()

	p, err := r.backing.FindByModelNo(ctx, modelNo)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[modelNo] = p.Clone()
	r.mu.Unlock()
	return p, nil
}

func (r *CachedRepository) FindByModelNos(ctx context.Context, modelNos []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(modelNos))
	missing := make([]string, 0, len(modelNos))

	r.mu.RLock()
	for _, id := range modelNos {
		if p, ok := r.cache[id]; ok {
			out[id] = p.Clone()
		} else {
			missing = append(missing, id)
		}
	}
	r.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := r.backing.FindByModelNos(ctx, missing)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	for id, p := range fetched {
		r.cache[id] = p.Clone()
		out[id] = p
	}
	r.mu.Unlock()
	return out, nil
}

// All bypasses the cache; listings want the backing store's view.
func (r *CachedRepository) All(ctx context.Context) ([]*domain.Product, error) {
	return r.backing.All(ctx)
}

func (r *CachedRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := r.backing.Save(ctx, product); err != nil {
		return err
	}
	r.Invalidate()
	return nil
}

func (r *CachedRepository) Delete(ctx context.Context, modelNo string) error {
	if err := r.backing.Delete(ctx, modelNo); err != nil {
		return err
	}
	r.Invalidate()
	return nil
}

// Invalidate drops every cached entry.
func (r *CachedRepository) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]*domain.Product)
	r.mu.Unlock()
}
