package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

type CatalogRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *CatalogRepository) FindByModelNo(ctx context.Context, modelNo string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[modelNo]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *CatalogRepository) FindByModelNos(ctx context.Context, modelNos []string) (map[string]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*domain.Product, len(modelNos))
	for _, id := range modelNos {
		if p, ok := r.products[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (r *CatalogRepository) All(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *CatalogRepository) Save(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.ModelNo == "" {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ModelNo] = product.Clone()
	return nil
}

func (r *CatalogRepository) Delete(ctx context.Context, modelNo string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[modelNo]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, modelNo)
	return nil
}
