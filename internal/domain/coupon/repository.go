package coupon

import "context"

type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Save(ctx context.Context, coupon *Coupon) error
}
