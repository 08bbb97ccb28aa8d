package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const ledgerService = "inventory_ledger"

// Reservation is one item/quantity pair to decrement or restore.
type Reservation struct {
	ModelNo  string
	Quantity int
}

// Ledger owns every mutation of product stock. Placement, cancellation,
// deletion and manual edits all funnel through it; the mutex makes each
// check-then-decrement pair (and the multi-line reserve) a serialized unit,
// so two concurrent orders cannot both pass the availability check for the
// last unit.
type Ledger struct {
	products catalog.Repository

	mu sync.Mutex

	log        observability.Logger
	decrements observability.Counter
	restores   observability.Counter
}

func NewLedger(products catalog.Repository, tel observability.Observability) *Ledger {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Ledger{
		products:   products,
		log:        tel.Logger().With(observability.F("service", ledgerService)),
		decrements: tel.Metrics().Counter(observability.MStockDecrements),
		restores:   tel.Metrics().Counter(observability.MStockRestores),
	}
}

// CheckAvailability reports whether the current quantity covers the request.
func (l *Ledger) CheckAvailability(ctx context.Context, modelNo string, requested int) (bool, error) {
	if modelNo == "" {
		return false, catalog.ErrNotFound
	}
	if requested <= 0 {
		return false, catalog.ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return false, err
	}
	return p.Quantity >= requested, nil
}

// Decrement removes quantity from a single item's stock.
func (l *Ledger) Decrement(ctx context.Context, modelNo string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decrement(ctx, modelNo, quantity)
}

// Restore adds quantity back to a single item's stock.
func (l *Ledger) Restore(ctx context.Context, modelNo string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.restore(ctx, modelNo, quantity)
}

// Reserve decrements stock for every reservation as one unit. If any line is
// short the whole reservation aborts and every decrement already applied is
// rolled back; the returned error wraps ErrInsufficientStock and names the
// offending item.
func (l *Ledger) Reserve(ctx context.Context, reservations []Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	applied := make([]Reservation, 0, len(reservations))
	for _, r := range reservations {
		if err := l.decrement(ctx, r.ModelNo, r.Quantity); err != nil {
			l.rollback(ctx, applied)
			return err
		}
		applied = append(applied, r)
	}
	return nil
}

// Release restores stock for every reservation. Items deleted from the
// catalog since the order was placed are skipped with a warning; the rest of
// the release still proceeds.
func (l *Ledger) Release(ctx context.Context, reservations []Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	logger := logctx.FromOr(ctx, l.log)
	for _, r := range reservations {
		if err := l.restore(ctx, r.ModelNo, r.Quantity); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				logger.Warn("stock_release_skipped_missing_item",
					observability.F("model_no", r.ModelNo),
					observability.F("quantity", r.Quantity),
				)
				continue
			}
			return err
		}
	}
	return nil
}

// SetQuantity overwrites an item's stock level.
func (l *Ledger) SetQuantity(ctx context.Context, modelNo string, quantity int) (*catalog.Product, error) {
	if quantity < 0 {
		return nil, catalog.ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return nil, err
	}
	if err := p.SetQuantity(quantity); err != nil {
		return nil, err
	}
	if err := l.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetLowStockThreshold overwrites an item's low-stock threshold.
func (l *Ledger) SetLowStockThreshold(ctx context.Context, modelNo string, threshold int) (*catalog.Product, error) {
	if threshold < 0 {
		return nil, catalog.ErrInvalidThreshold
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return nil, err
	}
	if err := p.SetLowStockThreshold(threshold); err != nil {
		return nil, err
	}
	if err := l.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// StockStatus classifies one item.
func (l *Ledger) StockStatus(ctx context.Context, modelNo string) (catalog.StockStatus, error) {
	p, err := l.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return "", err
	}
	return p.StockStatus(), nil
}

// LowStock lists items with 0 < quantity <= threshold.
func (l *Ledger) LowStock(ctx context.Context) ([]*catalog.Product, error) {
	return l.filter(ctx, func(p *catalog.Product) bool {
		return p.StockStatus() == catalog.StockStatusLow
	})
}

// OutOfStock lists items with zero quantity.
func (l *Ledger) OutOfStock(ctx context.Context) ([]*catalog.Product, error) {
	return l.filter(ctx, func(p *catalog.Product) bool {
		return p.StockStatus() == catalog.StockStatusOut
	})
}

func (l *Ledger) filter(ctx context.Context, keep func(*catalog.Product) bool) ([]*catalog.Product, error) {
	all, err := l.products.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*catalog.Product, 0, len(all))
	for _, p := range all {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// decrement and restore require l.mu to be held.

func (l *Ledger) decrement(ctx context.Context, modelNo string, quantity int) error {
	if modelNo == "" {
		return catalog.ErrNotFound
	}
	p, err := l.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return err
	}
	if err := p.Deduct(quantity); err != nil {
		if errors.Is(err, catalog.ErrInsufficientStock) {
			return fmt.Errorf("%w: %s", catalog.ErrInsufficientStock, p.Name)
		}
		return err
	}
	if err := l.products.Save(ctx, p); err != nil {
		return err
	}
	l.decrements.Add(float64(quantity), observability.L("model_no", modelNo))
	return nil
}

func (l *Ledger) restore(ctx context.Context, modelNo string, quantity int) error {
	if modelNo == "" {
		return catalog.ErrNotFound
	}
	p, err := l.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return err
	}
	if err := p.Restore(quantity); err != nil {
		return err
	}
	if err := l.products.Save(ctx, p); err != nil {
		return err
	}
	l.restores.Add(float64(quantity), observability.L("model_no", modelNo))
	return nil
}

func (l *Ledger) rollback(ctx context.Context, applied []Reservation) {
	logger := logctx.FromOr(ctx, l.log)
	for _, r := range applied {
		if err := l.restore(ctx, r.ModelNo, r.Quantity); err != nil {
			logger.Error("stock_rollback_failed",
				observability.F("model_no", r.ModelNo),
				observability.F("quantity", r.Quantity),
				observability.F("error", err.Error()),
			)
		}
	}
}
