package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrInvalidPrice      = errors.New("catalog: price must be zero or greater")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be zero or greater")
	ErrInvalidThreshold  = errors.New("catalog: threshold must be zero or greater")
	ErrPromoWithoutEnd   = errors.New("catalog: promotional price requires an end time")
)

// StockStatus classifies a product's available quantity against its
// low-stock threshold.
type StockStatus string

const (
	StockStatusOut StockStatus = "out_of_stock"
	StockStatusLow StockStatus = "low_stock"
	StockStatusIn  StockStatus = "in_stock"
)

// Product is a sellable catalog entry. Prices are minor units (cents).
// PromoPrice, when set, must carry PromoEndsAt; the pair models a time-boxed
// flash sale.
type Product struct {
	ModelNo           string
	Name              string
	Price             int64
	Quantity          int
	LowStockThreshold int
	PromoPrice        *int64
	PromoEndsAt       *time.Time
	UpdatedAt         time.Time
}

func NewProduct(modelNo, name string, price int64, quantity int) (*Product, error) {
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		ModelNo:   modelNo,
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// SetPromotion installs a time-boxed promotional price. A promotion without
// an end time is rejected; expired end times are accepted and simply never
// resolve.
func (p *Product) SetPromotion(price int64, endsAt *time.Time) error {
	if price < 0 {
		return ErrInvalidPrice
	}
	if endsAt == nil {
		return ErrPromoWithoutEnd
	}
	p.PromoPrice = &price
	p.PromoEndsAt = endsAt
	p.touch()
	return nil
}

func (p *Product) ClearPromotion() {
	p.PromoPrice = nil
	p.PromoEndsAt = nil
	p.touch()
}

// EffectivePrice resolves the unit price at the given instant: the
// promotional price iff one is set and its end time is strictly after now,
// otherwise the base price. Pure; callers must not cache the result across
// materializations since promotions expire mid-session.
func (p *Product) EffectivePrice(now time.Time) int64 {
	if p.PromoPrice != nil && p.PromoEndsAt != nil && p.PromoEndsAt.After(now) {
		return *p.PromoPrice
	}
	return p.Price
}

// Deduct removes quantity from stock. The available quantity never goes
// negative through this path.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Quantity {
		return ErrInsufficientStock
	}
	p.Quantity -= quantity
	p.touch()
	return nil
}

// Restore adds quantity back to stock. There is no upper bound: restores from
// cancellations and administrative edits may exceed any historical level.
func (p *Product) Restore(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.Quantity += quantity
	p.touch()
	return nil
}

func (p *Product) SetQuantity(quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	p.Quantity = quantity
	p.touch()
	return nil
}

func (p *Product) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return ErrInvalidThreshold
	}
	p.LowStockThreshold = threshold
	p.touch()
	return nil
}

func (p *Product) StockStatus() StockStatus {
	switch {
	case p.Quantity == 0:
		return StockStatusOut
	case p.Quantity <= p.LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.PromoPrice != nil {
		v := *p.PromoPrice
		clone.PromoPrice = &v
	}
	if p.PromoEndsAt != nil {
		v := *p.PromoEndsAt
		clone.PromoEndsAt = &v
	}
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
