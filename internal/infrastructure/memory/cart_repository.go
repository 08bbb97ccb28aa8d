package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
)

type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart // keyed by user id, carts are 1:1
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts: make(map[string]*domain.Cart),
	}
}

func (r *CartRepository) FindByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	_ = ctx
	if cart == nil || cart.UserID == "" {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.UserID] = cart.Clone()
	return nil
}

// DeleteOrphanLines is a no-op for the in-memory store: the materializer's
// repair pass is authoritative and covers it.
func (r *CartRepository) DeleteOrphanLines(ctx context.Context) error {
	_ = ctx
	return nil
}
