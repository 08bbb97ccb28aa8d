package catalog

import (
	"context"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

// Service is the thin catalog surface the storefront core needs: enough CRUD
// to create products, run promotions and delete entries (whose cart lines
// then dangle until the next repair pass heals them).
type Service struct {
	products domain.Repository
}

func NewService(products domain.Repository) *Service {
	return &Service{products: products}
}

type CreateProductInput struct {
	ModelNo           string
	Name              string
	Price             int64
	Quantity          int
	LowStockThreshold int
}

func (s *Service) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	p, err := domain.NewProduct(in.ModelNo, in.Name, in.Price, in.Quantity)
	if err != nil {
		return nil, err
	}
	if in.LowStockThreshold > 0 {
		if err := p.SetLowStockThreshold(in.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, modelNo string) (*domain.Product, error) {
	return s.products.FindByModelNo(ctx, modelNo)
}

func (s *Service) List(ctx context.Context) ([]*domain.Product, error) {
	return s.products.All(ctx)
}

func (s *Service) SetPrice(ctx context.Context, modelNo string, price int64) (*domain.Product, error) {
	if price < 0 {
		return nil, domain.ErrInvalidPrice
	}
	p, err := s.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return nil, err
	}
	p.Price = price
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) SetPromotion(ctx context.Context, modelNo string, price int64, endsAt time.Time) (*domain.Product, error) {
	p, err := s.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return nil, err
	}
	if err := p.SetPromotion(price, &endsAt); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ClearPromotion(ctx context.Context, modelNo string) (*domain.Product, error) {
	p, err := s.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return nil, err
	}
	p.ClearPromotion()
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, modelNo string) error {
	return s.products.Delete(ctx, modelNo)
}
