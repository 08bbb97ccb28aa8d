package catalog

import "context"

// Repository is the catalog's persisted-state boundary. FindByModelNos is a
// bulk lookup used by cart repair; absent IDs are simply omitted from the
// result, not errors.
type Repository interface {
	FindByModelNo(ctx context.Context, modelNo string) (*Product, error)
	FindByModelNos(ctx context.Context, modelNos []string) (map[string]*Product, error)
	All(ctx context.Context) ([]*Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, modelNo string) error
}
