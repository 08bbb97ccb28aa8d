package coupon

import (
	"context"
	"errors"
	"time"

	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/coupon"
)

// Service implements the coupon validator contract over the coupon store.
// An unknown or exhausted coupon is a normal non-valid result, not an error;
// only store failures surface as errors (and placement downgrades those to
// zero discount anyway).
type Service struct {
	coupons domain.Repository
}

func NewService(coupons domain.Repository) *Service {
	return &Service{coupons: coupons}
}

var _ apporder.CouponValidator = (*Service)(nil)

func (s *Service) Validate(ctx context.Context, code string, orderValue int64) (apporder.CouponResult, error) {
	c, err := s.coupons.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return apporder.CouponResult{Valid: false, Message: "coupon not found", Code: code}, nil
	}
	if err != nil {
		return apporder.CouponResult{}, err
	}

	if !c.Usable(time.Now().UTC()) {
		return apporder.CouponResult{Valid: false, Message: "coupon no longer usable", Code: code}, nil
	}

	discount := c.DiscountAmount
	_ = orderValue // discount is clamped against the order total at placement

	return apporder.CouponResult{
		Valid:          true,
		DiscountAmount: discount,
		Message:        "coupon applied",
		Code:           code,
	}, nil
}

func (s *Service) RecordUsage(ctx context.Context, code string) error {
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	c.RecordUse()
	return s.coupons.Save(ctx, c)
}
