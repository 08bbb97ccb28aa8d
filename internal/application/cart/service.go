package cart

import (
	"context"
	"errors"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const materializerService = "cart_materializer"

type IDGenerator interface {
	NewID() string
}

// Service materializes carts: it loads or lazily creates the single cart a
// user owns and repairs it against current catalog state before every read
// and mutation. Repair drops lines whose product is gone and overwrites
// captured prices with freshly resolved ones, so expired promotions and
// deleted items never leak into a placement.
type Service struct {
	carts    domcart.Repository
	products catalog.Repository
	ids      IDGenerator

	log observability.Logger
}

func NewService(carts domcart.Repository, products catalog.Repository, ids IDGenerator, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		carts:    carts,
		products: products,
		ids:      ids,
		log:      tel.Logger().With(observability.F("service", materializerService)),
	}
}

// GetCart returns the user's repaired cart, creating an empty one on first
// access.
func (s *Service) GetCart(ctx context.Context, userID string) (*domcart.Cart, error) {
	return s.materialize(ctx, userID)
}

// AddItem merges quantity into the cart, capturing the currently effective
// unit price.
func (s *Service) AddItem(ctx context.Context, userID, modelNo string, quantity int) (*domcart.Cart, error) {
	if quantity <= 0 {
		return nil, domcart.ErrInvalidQuantity
	}

	c, err := s.materialize(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.FindByModelNo(ctx, modelNo)
	if err != nil {
		return nil, err
	}

	if err := c.Upsert(p.ModelNo, quantity, p.EffectivePrice(time.Now().UTC())); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity sets a line's quantity; zero or below removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, modelNo string, quantity int) (*domcart.Cart, error) {
	c, err := s.materialize(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.SetQuantity(modelNo, quantity)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, modelNo string) (*domcart.Cart, error) {
	c, err := s.materialize(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.Remove(modelNo)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, userID string) (*domcart.Cart, error) {
	c, err := s.materialize(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.Clear()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// materialize is the repair pass. The bulk orphan cleanup against the
// backing store is an optimization and may fail; the in-memory heal below is
// authoritative and never skipped.
func (s *Service) materialize(ctx context.Context, userID string) (*domcart.Cart, error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("user_id", userID))

	if err := s.carts.DeleteOrphanLines(ctx); err != nil {
		logger.Warn("orphan_cleanup_failed", observability.F("error", err.Error()))
	}

	c, err := s.carts.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, domcart.ErrNotFound):
		c = domcart.New(s.ids.NewID(), userID)
		if err := s.carts.Save(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	case err != nil:
		return nil, err
	}

	if c.IsEmpty() {
		return c, nil
	}

	modelNos := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		modelNos = append(modelNos, l.ModelNo)
	}
	found, err := s.products.FindByModelNos(ctx, modelNos)
	if err != nil {
		return nil, err
	}

	before := len(c.Lines)
	now := time.Now().UTC()
	c.Heal(func(modelNo string) (int64, bool) {
		p, ok := found[modelNo]
		if !ok {
			return 0, false
		}
		return p.EffectivePrice(now), true
	})
	if dropped := before - len(c.Lines); dropped > 0 {
		logger.Info("cart_lines_dropped", observability.F("count", dropped))
	}

	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
