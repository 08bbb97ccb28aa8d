package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id string) error
	FindByUser(ctx context.Context, userID string) ([]*Order, error)
	All(ctx context.Context) ([]*Order, error)
	CountByUserExcludingStatus(ctx context.Context, userID string, excluded Status) (int, error)
}
