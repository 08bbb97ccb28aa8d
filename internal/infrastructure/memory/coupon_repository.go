package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/coupon"
)

type CouponRepository struct {
	mu      sync.RWMutex
	coupons map[string]*domain.Coupon
}

func NewCouponRepository() *CouponRepository {
	return &CouponRepository{
		coupons: make(map[string]*domain.Coupon),
	}
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.coupons[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *CouponRepository) Save(ctx context.Context, coupon *domain.Coupon) error {
	_ = ctx
	if coupon == nil || coupon.Code == "" {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.coupons[coupon.Code] = coupon.Clone()
	return nil
}
