package order

import (
	"context"

	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

// Service handles post-placement order lifecycle: status transitions,
// cancellation and deletion with stock restoration, and tracking history.
type Service struct {
	orders    domain.Repository
	ledger    *appinventory.Ledger
	publisher domoutbox.Publisher

	log observability.Logger
}

func NewService(orders domain.Repository, ledger *appinventory.Ledger, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		orders:    orders,
		ledger:    ledger,
		publisher: publisher,
		log:       tel.Logger().With(observability.F("service", orderService)),
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.orders.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.All(ctx)
}

// CountActiveByUser counts a user's orders excluding cancelled ones.
func (s *Service) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	return s.orders.CountByUserExcludingStatus(ctx, userID, domain.StatusCancelled)
}

// UpdateStatus persists the new status and notifies only when the stored
// status actually changed.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	changed, err := o.SetStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, domain.NewStatusChangedEvent(o))
	}
	return o, nil
}

// Cancel restores the exact quantities recorded in the order lines and moves
// the order to cancelled. Cancelling an already-cancelled order is a no-op;
// delivered orders refuse the transition. Either way stock is restored at
// most once.
func (s *Service) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == domain.StatusCancelled {
		return o, nil
	}

	if err := o.Cancel(); err != nil {
		return nil, err
	}
	if err := s.ledger.Release(ctx, reservationsOf(o)); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewStatusChangedEvent(o))
	return o, nil
}

// Delete hard-removes the order after restoring its stock. Unlike Cancel it
// is not a status transition; the record is gone afterwards.
func (s *Service) Delete(ctx context.Context, orderID string) error {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	// A cancelled order already gave its stock back.
	if o.Status != domain.StatusCancelled {
		if err := s.ledger.Release(ctx, reservationsOf(o)); err != nil {
			return err
		}
	}
	return s.orders.Delete(ctx, orderID)
}

// RecordLocationUpdate updates the current location, conditionally advances
// the status, and appends to the append-only tracking history.
func (s *Service) RecordLocationUpdate(ctx context.Context, orderID, location string, status domain.Status) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.RecordLocation(location, status); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewTrackingUpdatedEvent(o))
	return o, nil
}

func (s *Service) publish(ctx context.Context, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logger := logctx.FromOr(ctx, s.log)
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}

func reservationsOf(o *domain.Order) []appinventory.Reservation {
	out := make([]appinventory.Reservation, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, appinventory.Reservation{ModelNo: l.ModelNo, Quantity: l.Quantity})
	}
	return out
}
